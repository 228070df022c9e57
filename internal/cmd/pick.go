package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/cmdbook/internal/cmdutil"
	"github.com/runger/cmdbook/internal/picker"
	"github.com/runger/cmdbook/internal/storage"
	"github.com/runger/cmdbook/internal/suggest"
	"github.com/runger/cmdbook/internal/template"
	"github.com/runger/cmdbook/internal/textmatch"
)

var (
	pickMode string
	pickCWD  string

	replaceValues []string
	replaceNoTUI  bool
	replaceCWD    string
)

var pickCmd = &cobra.Command{
	Use:     "pick [query]",
	Short:   "Pick a command interactively",
	GroupID: groupCore,
	Long: `Open the interactive picker on the terminal. Tab cycles the match
mode. The chosen command is recorded, its variables are filled with the
value picker, and the result is printed to stdout.

Exit codes: 0 selection printed, 1 cancelled, 2 no usable terminal.

Examples:
  eval "$(cmdbook pick)"
  cmdbook pick --mode regex '^git'`,
	RunE: runPick,
}

var replaceCmd = &cobra.Command{
	Use:     "replace <template|id>",
	Short:   "Fill the variables of a command",
	GroupID: groupTemplates,
	Long: `Fill the {{variables}} of a template, or of the bookmarked command with
the given id, and print the result.

Values come from --value first. Remaining variables are asked for with the
value picker, which suggests values used before in similar context and the
output of completion providers. Chosen values, except secrets, are saved.

Examples:
  cmdbook replace 'git checkout {{branch}}' --value branch=main
  cmdbook replace 0190f1c2-... --no-tui --value pod=web-1 --value namespace=prod`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReplace,
}

func init() {
	pickCmd.Flags().StringVarP(&pickMode, "mode", "m", "", "initial match mode (default from config)")
	pickCmd.Flags().StringVar(&pickCWD, "cwd", "", "directory to rank from (default: current directory)")

	replaceCmd.Flags().StringArrayVarP(&replaceValues, "value", "v", nil, "variable value as name=value (repeatable)")
	replaceCmd.Flags().BoolVar(&replaceNoTUI, "no-tui", false, "fail instead of asking for missing values")
	replaceCmd.Flags().StringVar(&replaceCWD, "cwd", "", "directory the command runs in (default: current directory)")

	rootCmd.AddCommand(pickCmd, replaceCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	mode, err := resolveMode(pickMode, a)
	if err != nil {
		return err
	}
	wd := workingDir(pickCWD)

	m := picker.NewModel(picker.NewCommandProvider(a.searcher(), wd)).
		WithModes(textmatch.Modes()...).
		WithStartMode(mode).
		WithQuery(strings.Join(args, " ")).
		WithDebounce(a.debounce())

	final, err := picker.Run(m)
	if err != nil {
		return pickerError(err)
	}
	item, ok := final.Result()
	if !ok {
		return &ExitError{Code: exitCancelled}
	}

	ctx := cmdContext(cmd)
	if err := a.store.IncrementCommandUsage(ctx, item.ID, wd); err != nil {
		return err
	}

	t := template.Parse(item.Text)
	if t.HasVariables() {
		if err := fillTemplate(a, t, wd, true); err != nil {
			return err
		}
		if err := suggest.RecordTemplate(ctx, a.store, t, wd); err != nil {
			return err
		}
	}
	fmt.Println(t.Render())
	return nil
}

func runReplace(cmd *cobra.Command, args []string) error {
	values, err := cmdutil.ParseAssignments(replaceValues)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmdContext(cmd)
	wd := workingDir(replaceCWD)

	text := strings.Join(args, " ")
	var id string
	if len(args) == 1 {
		c, err := a.store.GetCommand(ctx, args[0])
		switch {
		case err == nil:
			text, id = c.Cmd, c.ID
		case !errors.Is(err, storage.ErrCommandNotFound):
			return err
		}
	}

	t := template.Parse(text)
	if err := setAssignments(t, values); err != nil {
		return err
	}

	interactive := !replaceNoTUI
	if interactive && !t.Complete() {
		if err := picker.CheckTerminal(); err != nil {
			return &ExitError{Code: exitFallback, Msg: fmt.Sprintf("%v; missing values for %s", err, strings.Join(sortedMissing(t), ", "))}
		}
	}
	if err := fillTemplate(a, t, wd, interactive); err != nil {
		return err
	}

	if err := suggest.RecordTemplate(ctx, a.store, t, wd); err != nil {
		return err
	}
	if id != "" {
		if err := a.store.IncrementCommandUsage(ctx, id, wd); err != nil {
			return err
		}
	}

	fmt.Println(t.Render())
	return nil
}

func sortedMissing(t *template.Template) []string {
	missing := t.Missing()
	sort.Strings(missing)
	return missing
}
