package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show cmdbook status",
	GroupID: groupSetup,
	Long: `Show the current status of cmdbook, including:
- Configuration file location and default match mode
- Database location, size and contents
- Log file location

Examples:
  cmdbook status`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("%scmdbook Status%s\n", colorBold, colorReset)
	fmt.Println(strings.Repeat("-", 40))

	fmt.Printf("\n%sConfiguration:%s\n", colorBold, colorReset)
	cfgFile := configPath(a.paths)
	if _, err := os.Stat(cfgFile); err == nil {
		fmt.Printf("  File:     %s\n", cfgFile)
	} else {
		fmt.Printf("  File:     %s (not found, using defaults)\n", cfgFile)
	}
	fmt.Printf("  Mode:     %s\n", a.cfg.SearchMode())
	fmt.Printf("  Limit:    %d\n", a.cfg.Search.Limit)

	fmt.Printf("\n%sStorage:%s\n", colorBold, colorReset)
	dbFile := a.paths.DatabaseFile()
	if info, err := os.Stat(dbFile); err == nil {
		fmt.Printf("  Database: %s (%s, modified %s)\n", dbFile, humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
	} else {
		fmt.Printf("  Database: %s\n", dbFile)
	}

	st, err := a.store.Stats(cmdContext(cmd))
	if err != nil {
		return err
	}
	fmt.Printf("  Commands: %s (%s uses)\n", humanize.Comma(st.Commands), humanize.Comma(st.Uses))
	fmt.Printf("  Values:   %s\n", humanize.Comma(st.Values))
	fmt.Printf("  Completions: %s\n", humanize.Comma(st.Completions))

	fmt.Printf("\n%sLogs:%s\n", colorBold, colorReset)
	fmt.Printf("  Status:   %s\n", formatBool(a.cfg.Logs.Enabled))
	if a.cfg.Logs.Enabled {
		fmt.Printf("  File:     %s\n", logFilePath(a))
		fmt.Printf("  Level:    %s\n", a.cfg.Logs.Level)
	}

	return nil
}

func logFilePath(a *app) string {
	if a.cfg.Logs.File != "" {
		return a.cfg.Logs.File
	}
	return a.paths.LogFile()
}

func formatBool(b bool) string {
	if b {
		return colorGreen + "enabled" + colorReset
	}
	return colorDim + "disabled" + colorReset
}
