//go:build windows

package cmd

// ttyColumns is unsupported on Windows consoles; termWidth falls back to
// $COLUMNS.
func ttyColumns() int {
	return 0
}
