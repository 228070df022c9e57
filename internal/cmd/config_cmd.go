package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/cmdbook/internal/config"
)

var configCmd = &cobra.Command{
	Use:     "config [key] [value]",
	Short:   "Get or set configuration values",
	GroupID: groupSetup,
	Long: `Get or set cmdbook configuration values.

Without arguments, lists all configuration keys.
With one argument, shows the value of that key.
With two arguments, sets the key to the value.

Configuration is stored in ~/.config/cmdbook/config.yaml (XDG compliant),
or config.toml when that file exists.

Keys are in the format: section.key
Sections: search, logs, completion, tuning

Examples:
  cmdbook config                                  # List all keys
  cmdbook config search.mode                      # Get the default match mode
  cmdbook config search.mode fuzzy                # Change it
  cmdbook config tuning.commands.usage.points 250`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(configPath(config.DefaultPaths()))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func configPath(paths *config.Paths) string {
	if configFlag != "" {
		return configFlag
	}
	return paths.ConfigFile()
}

func runConfig(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	cfg, path, err := loadConfig(paths)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		listConfig(cfg, path)
		return nil
	}
	if len(args) == 2 {
		return setConfig(cfg, path, args[0], args[1])
	}

	value, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Println(orNotSet(value))
	return nil
}

// listConfig prints every key grouped under its top-level section.
func listConfig(cfg *config.Config, path string) {
	section := ""
	for _, key := range config.ListKeys() {
		if s, _, _ := strings.Cut(key, "."); s != section {
			if section != "" {
				fmt.Println()
			}
			section = s
			fmt.Printf("%s[%s]%s\n", colorBold, section, colorReset)
		}

		value, err := cfg.Get(key)
		if err != nil {
			value = colorYellow + "<" + err.Error() + ">" + colorReset
		}
		fmt.Printf("  %s%s%s = %s\n", colorCyan, key, colorReset, orNotSet(value))
	}

	fmt.Printf("\nConfig file: %s\n", path)
}

func orNotSet(value string) string {
	if value == "" {
		return colorDim + "(not set)" + colorReset
	}
	return value
}

// setConfig assigns key and writes the whole config back to path.
// Config.Set rejects values that fail validation; SaveToFile creates the
// directory.
func setConfig(cfg *config.Config, path, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.SaveToFile(path); err != nil {
		return err
	}

	fmt.Printf("%s%s%s = %s\n", colorCyan, key, colorReset, value)
	fmt.Printf("Saved to: %s\n", path)
	return nil
}
