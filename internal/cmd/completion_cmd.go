package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/runger/cmdbook/internal/storage"
)

var (
	completionRoot    string
	completionContext []string
)

var completionCmd = &cobra.Command{
	Use:     "completion",
	Short:   "Manage dynamic variable completions",
	GroupID: groupTemplates,
	Long: `A completion is a shell command whose output lines become candidate
values for a variable. It applies to one root command (--root), or to every
command when no root is given. The provider may reference other variables
inside conditional blocks, which are dropped until those values are known:

  kubectl get pods {{--namespace {{namespace}}}} -o name

Examples:
  cmdbook completion new --root git branch "git branch --format='%(refname:short)'"
  cmdbook completion new namespace 'kubectl get ns -o name'
  cmdbook completion list
  cmdbook completion run --root kubectl pod --context namespace=prod`,
}

var completionNewCmd = &cobra.Command{
	Use:   "new <variable> <provider>",
	Short: "Add or replace a completion",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCompletionNew,
}

var completionListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List completions",
	Args:    cobra.NoArgs,
	RunE:    runCompletionList,
}

var completionDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a completion",
	Args:    cobra.ExactArgs(1),
	RunE:    runCompletionDelete,
}

var completionRunCmd = &cobra.Command{
	Use:   "run <variable>",
	Short: "Run the completion of a variable and print its values",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompletionRun,
}

func init() {
	for _, c := range []*cobra.Command{completionNewCmd, completionListCmd, completionRunCmd} {
		c.Flags().StringVarP(&completionRoot, "root", "r", "", "root command (empty for every command)")
	}
	completionRunCmd.Flags().StringArrayVarP(&completionContext, "context", "c", nil, "value of another variable as name=value (repeatable)")

	completionCmd.AddCommand(completionNewCmd, completionListCmd, completionDeleteCmd, completionRunCmd)
	rootCmd.AddCommand(completionCmd)
}

func runCompletionNew(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	c := &storage.Completion{
		RootCmd:  strings.TrimSpace(completionRoot),
		Variable: args[0],
		Provider: strings.Join(args[1:], " "),
	}
	if err := a.store.UpsertCompletion(cmdContext(cmd), c); err != nil {
		return err
	}
	fmt.Printf("%sSaved%s %s\n", colorGreen, colorReset, c.ID)
	return nil
}

func runCompletionList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.store.ListCompletions(cmdContext(cmd), completionRoot)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No completions.")
		return nil
	}
	for _, c := range list {
		root := c.RootCmd
		if c.IsGlobal() {
			root = "*"
		}
		fmt.Printf("%s%s%s {{%s}}  %supdated %s%s\n", colorCyan, root, colorReset, c.Variable, colorDim, humanize.Time(c.UpdatedAt), colorReset)
		fmt.Printf("  %s\n", fit(c.Provider, 2))
		fmt.Printf("  %sid %s%s\n", colorDim, c.ID, colorReset)
	}
	return nil
}

func runCompletionDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.DeleteCompletion(cmdContext(cmd), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

func runCompletionRun(cmd *cobra.Command, args []string) error {
	variable, err := variableFromName(args[0])
	if err != nil {
		return err
	}
	values, err := flatContext(completionContext)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmdContext(cmd)
	list, err := a.store.GetCompletions(ctx, completionRoot, variable.FlatNames())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("no completion for {{%s}}", variable.Name)
	}

	providers := make([]string, len(list))
	for i, c := range list {
		providers[i] = c.Provider
	}

	var failed error
	for _, res := range a.runner(workingDir("")).RunAll(ctx, providers, values) {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "%s%s: %v%s\n", colorRed, res.Command, res.Err, colorReset)
			failed = res.Err
			continue
		}
		for _, line := range res.Lines {
			fmt.Println(line)
		}
	}
	if failed != nil {
		return &ExitError{Code: exitCancelled}
	}
	return nil
}
