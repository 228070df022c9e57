package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runger/cmdbook/internal/cmdutil"
	"github.com/runger/cmdbook/internal/suggest"
	"github.com/runger/cmdbook/internal/template"
)

var (
	suggestContext       []string
	suggestCWD           string
	suggestQuery         string
	suggestLimit         int
	suggestJSON          bool
	suggestExplain       bool
	suggestNoCompletions bool
)

var suggestCmd = &cobra.Command{
	Use:     "suggest <root-command> <variable>",
	Short:   "Suggest values for a template variable",
	GroupID: groupTemplates,
	Long: `Rank candidate values for a variable of a command.

Candidates are the values used before with the same root command and the
output of matching completion providers. Values that were used alongside
the given --context values, or in the current directory, rank higher.

Examples:
  cmdbook suggest git branch
  cmdbook suggest kubectl pod --context namespace=prod
  cmdbook suggest docker 'image' --json --explain`,
	Args: cobra.ExactArgs(2),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().StringArrayVarP(&suggestContext, "context", "c", nil, "value of another variable as name=value (repeatable)")
	suggestCmd.Flags().StringVar(&suggestCWD, "cwd", "", "directory to rank from (default: current directory)")
	suggestCmd.Flags().StringVarP(&suggestQuery, "query", "q", "", "only values fuzzily matching the query")
	suggestCmd.Flags().IntVarP(&suggestLimit, "limit", "n", 0, "maximum number of values (0 for all)")
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "output values as JSON")
	suggestCmd.Flags().BoolVar(&suggestExplain, "explain", false, "show the score breakdown of each value")
	suggestCmd.Flags().BoolVar(&suggestNoCompletions, "no-completions", false, "skip completion providers")
	suggestCmd.Flags().StringVar(&colorMode, "color", "auto", "color output: auto, always, or never")

	rootCmd.AddCommand(suggestCmd)
}

type suggestOutput struct {
	Value      string         `json:"value"`
	Score      float64        `json:"score"`
	Usage      int64          `json:"usage"`
	Completion bool           `json:"completion"`
	Reasons    []reasonOutput `json:"reasons,omitempty"`
}

// variableFromName parses a name as it would appear between braces, so
// alternatives and secrets keep their meaning.
func variableFromName(name string) (template.Variable, error) {
	vars := template.Parse("{{" + name + "}}").Variables()
	if len(vars) != 1 {
		return template.Variable{}, fmt.Errorf("invalid variable name %q", name)
	}
	return vars[0], nil
}

// flatContext keys context values by folded variable name.
func flatContext(pairs []string) (map[string]string, error) {
	raw, err := cmdutil.ParseAssignments(pairs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for name, value := range raw {
		v, err := variableFromName(name)
		if err != nil {
			return nil, err
		}
		out[v.FlatName()] = value
	}
	return out, nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	variable, err := variableFromName(args[1])
	if err != nil {
		return err
	}
	ctxValues, err := flatContext(suggestContext)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	wd := workingDir(suggestCWD)
	values, err := a.valueSource(wd, !suggestNoCompletions).Suggest(cmdContext(cmd), suggest.ValueRequest{
		RootCmd:    args[0],
		Variable:   variable,
		WorkingDir: wd,
		Context:    ctxValues,
		Query:      suggestQuery,
	})
	if err != nil {
		return err
	}
	if suggestLimit > 0 && len(values) > suggestLimit {
		values = values[:suggestLimit]
	}

	if suggestJSON {
		return writeSuggestJSON(values)
	}

	if len(values) == 0 {
		fmt.Println("No suggestions.")
		return nil
	}
	for _, v := range values {
		line := fit(v.Value, 0)
		if v.CompletionSourced {
			line += "  " + colorDim + "completion" + colorReset
		}
		fmt.Println(line)
		if suggestExplain {
			fmt.Printf("  %sscore %.1f%s\n", colorBold, v.Score, colorReset)
			printReasons(v.Reasons)
		}
	}
	return nil
}

func writeSuggestJSON(values []suggest.ScoredValue) error {
	out := make([]suggestOutput, len(values))
	for i, v := range values {
		out[i] = suggestOutput{
			Value:      v.Value,
			Score:      v.Score,
			Usage:      v.Usage,
			Completion: v.CompletionSourced,
		}
		if suggestExplain {
			out[i].Reasons = reasonsOutput(v.Reasons)
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
