//go:build !windows

package cmd

import (
	"os"

	"golang.org/x/sys/unix"
)

// ttyColumns asks the kernel for the stdout window size; 0 if unavailable.
func ttyColumns() int {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0
	}
	return int(ws.Col)
}
