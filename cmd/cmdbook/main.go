// Package main is the entry point for the cmdbook CLI.
package main

import (
	"os"

	"github.com/runger/cmdbook/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
