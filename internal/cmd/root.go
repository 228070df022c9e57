package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes. The picker commands follow the shell-widget convention:
//
//	0 = selection made (use the result)
//	1 = cancelled by user, or any other error
//	2 = no usable terminal (fall back to plain input)
const (
	exitSuccess   = 0
	exitCancelled = 1
	exitFallback  = 2
)

// Command groups shown in help output.
const (
	groupCore      = "core"
	groupTemplates = "templates"
	groupSetup     = "setup"
)

// ExitError carries a specific process exit code. An empty message is not
// printed.
type ExitError struct {
	Code int
	Msg  string
}

func (e *ExitError) Error() string { return e.Msg }

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "cmdbook",
	Short: "bookmark shell commands and fill their templates",
	Long: `cmdbook - a command bookmark and template manager
  - save commands with {{variables}}, aliases and descriptions
  - find them again with ranked fuzzy, regex and exact search
  - fill variables from history and dynamic completions`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyColorMode()
	},
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return exitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Msg != "" {
			fmt.Fprintf(os.Stderr, "cmdbook: %s\n", exitErr.Msg)
		}
		return exitErr.Code
	}
	fmt.Fprintf(os.Stderr, "cmdbook: %v\n", err)
	return exitCancelled
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupCore, Title: "Commands:"},
		&cobra.Group{ID: groupTemplates, Title: "Templates and completions:"},
		&cobra.Group{ID: groupSetup, Title: "Setup:"},
	)
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default is $XDG_CONFIG_HOME/cmdbook/config.yaml)")

	rootCmd.AddCommand(versionCmd)
}
