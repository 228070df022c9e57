package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/cmdbook/internal/config"
)

var (
	logsFollow bool
	logsLines  int
)

var logsCmd = &cobra.Command{
	Use:     "logs",
	Short:   "View the cmdbook log",
	GroupID: groupSetup,
	Long: `View the cmdbook log file. Logging is off by default; enable it with
  cmdbook config logs.enabled true

By default, shows the last 50 lines of the log file.
Use --follow to keep printing new entries, for example while the picker
runs in another terminal.

Examples:
  cmdbook logs              # Show last 50 lines
  cmdbook logs -f           # Follow log output
  cmdbook logs --lines=100  # Show last 100 lines`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "Number of lines to show")

	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	cfg, _, err := loadConfig(paths)
	if err != nil {
		return err
	}
	logFile := cfg.Logs.File
	if logFile == "" {
		logFile = paths.LogFile()
	}

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		fmt.Printf("No log file found at: %s\n", logFile)
		if !cfg.Logs.Enabled {
			fmt.Println("Logging is disabled; run 'cmdbook config logs.enabled true'.")
		}
		return nil
	}

	if logsFollow {
		return followLogs(cmdContext(cmd), logFile)
	}

	return tailLogs(logFile, logsLines)
}

// tailLogs prints the last n lines of filename. Lines are kept in a ring so
// memory stays bounded by n regardless of file size.
func tailLogs(filename string, n int) error {
	if n <= 0 {
		return nil
	}

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	ring := make([]string, n)
	total := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		ring[total%n] = sc.Text()
		total++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	if total == 0 {
		fmt.Println("Log file is empty.")
		return nil
	}

	start := 0
	if total > n {
		start = total - n
	}
	for i := start; i < total; i++ {
		fmt.Println(ring[i%n])
	}
	return nil
}

// followLogs prints lines appended to filename until ctx is done.
func followLogs(ctx context.Context, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	fmt.Printf("Following %s (Ctrl+C to stop)...\n\n", filename)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			fmt.Print(line)
		}
		switch {
		case err == nil:
			continue
		case !errors.Is(err, io.EOF):
			return fmt.Errorf("error reading log: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
