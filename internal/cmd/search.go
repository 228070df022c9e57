package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/runger/cmdbook/internal/suggest"
	"github.com/runger/cmdbook/internal/textmatch"
)

var (
	searchMode    string
	searchCWD     string
	searchLimit   int
	searchJSON    bool
	searchExplain bool
)

var searchCmd = &cobra.Command{
	Use:     "search [query]",
	Short:   "Search bookmarked commands",
	GroupID: groupCore,
	Long: `Search bookmarked commands, ranked by usage, directory and text match.

Modes:
  auto     prefix, then fuzzy, then relaxed matching (default)
  fuzzy    space-separated terms: 'exact ^prefix suffix$ !negated a|b
  regex    a regular expression over the command and alias
  exact    the whole query equals the command or alias
  relaxed  any term may match

An empty query lists every command ranked by usage and directory.
#tag tokens keep only commands carrying every tag; the rest of the query
is matched as usual.

Examples:
  cmdbook search gco                 # alias or prefix
  cmdbook search --mode fuzzy "'git !stash"
  cmdbook search --mode regex '^docker (run|exec)'
  cmdbook search '#k8s logs'         # tagged k8s, matching "logs"
  cmdbook search --json --explain kubectl`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "", "match mode: auto, fuzzy, regex, exact, relaxed (default from config)")
	searchCmd.Flags().StringVar(&searchCWD, "cwd", "", "directory to rank from (default: current directory)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchExplain, "explain", false, "show the score breakdown of each result")
	searchCmd.Flags().StringVar(&colorMode, "color", "auto", "color output: auto, always, or never")

	rootCmd.AddCommand(searchCmd)
}

type reasonOutput struct {
	Type         string  `json:"type"`
	Description  string  `json:"description"`
	Contribution float64 `json:"contribution"`
}

type searchOutput struct {
	ID          string         `json:"id"`
	Cmd         string         `json:"cmd"`
	Alias       string         `json:"alias,omitempty"`
	Description string         `json:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	UsageCount  int64          `json:"usage_count"`
	Score       float64        `json:"score"`
	Reasons     []reasonOutput `json:"reasons,omitempty"`
}

type searchResponse struct {
	Query   string         `json:"query"`
	Mode    string         `json:"mode"`
	Results []searchOutput `json:"results"`
	Total   int            `json:"total"`
}

// resolveMode parses flag, falling back to the configured default.
func resolveMode(flag string, a *app) (textmatch.Mode, error) {
	if flag == "" {
		return a.cfg.SearchMode(), nil
	}
	return textmatch.ParseMode(flag)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	mode, err := resolveMode(searchMode, a)
	if err != nil {
		return err
	}
	limit := searchLimit
	if limit <= 0 {
		limit = a.cfg.Search.Limit
	}

	query := strings.Join(args, " ")
	ranked, err := a.searcher().Search(cmdContext(cmd), suggest.Request{
		Query:      query,
		Mode:       mode,
		WorkingDir: workingDir(searchCWD),
		Limit:      limit,
	})
	if err != nil {
		return err
	}

	if searchJSON {
		return writeSearchJSON(query, mode, ranked)
	}

	if len(ranked) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for _, sc := range ranked {
		printScoredCommand(sc, searchExplain)
	}
	return nil
}

func printScoredCommand(sc suggest.ScoredCommand, explain bool) {
	fmt.Println(fit(sc.Command.Cmd, 0))

	var meta []string
	if sc.Command.Alias != "" {
		meta = append(meta, colorCyan+sc.Command.Alias+colorReset)
	}
	if sc.Command.Description != "" {
		meta = append(meta, fit(sc.Command.Description, 4))
	}
	meta = append(meta, fmt.Sprintf("used %s times", humanize.Comma(sc.Command.UsageCount)))
	fmt.Printf("  %s%s%s\n", colorDim, strings.Join(meta, " · "), colorReset)

	if explain {
		fmt.Printf("  %sscore %.1f%s  %sid %s%s\n", colorBold, sc.Score, colorReset, colorDim, sc.Command.ID, colorReset)
		printReasons(sc.Reasons)
	}
}

func printReasons(reasons []suggest.Reason) {
	for _, r := range reasons {
		fmt.Printf("    %-10s %7.1f  %s%s%s\n", r.Type, r.Contribution, colorDim, r.Description, colorReset)
	}
}

func reasonsOutput(in []suggest.Reason) []reasonOutput {
	out := make([]reasonOutput, len(in))
	for i, r := range in {
		out[i] = reasonOutput{Type: r.Type, Description: r.Description, Contribution: r.Contribution}
	}
	return out
}

func writeSearchJSON(query string, mode textmatch.Mode, ranked []suggest.ScoredCommand) error {
	results := make([]searchOutput, len(ranked))
	for i, sc := range ranked {
		results[i] = searchOutput{
			ID:          sc.Command.ID,
			Cmd:         sc.Command.Cmd,
			Alias:       sc.Command.Alias,
			Description: sc.Command.Description,
			Tags:        sc.Command.Tags,
			UsageCount:  sc.Command.UsageCount,
			Score:       sc.Score,
		}
		if searchExplain {
			results[i].Reasons = reasonsOutput(sc.Reasons)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(searchResponse{
		Query:   query,
		Mode:    mode.String(),
		Results: results,
		Total:   len(results),
	})
}
