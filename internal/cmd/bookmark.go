package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/runger/cmdbook/internal/storage"
	"github.com/runger/cmdbook/internal/template"
)

var (
	newAlias       string
	newDescription string
	newTags        []string

	editCmdText     string
	editAlias       string
	editDescription string

	recordCWD string
)

var newCmd = &cobra.Command{
	Use:     "new <command>",
	Short:   "Bookmark a command",
	GroupID: groupCore,
	Long: `Bookmark a command, optionally with an alias and a description.

Commands may contain {{variables}} that are filled when the command is used.
Hashtags in the description (#docker) become tags.

Examples:
  cmdbook new 'git checkout {{branch}}' -a gco -d 'switch branch #git'
  cmdbook new 'kubectl logs -f {{pod}} -n {{namespace}}'
  cmdbook new 'curl -H "Authorization: Bearer {{{token}}}" {{url}}'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNew,
}

var editCmd = &cobra.Command{
	Use:     "edit <id>",
	Short:   "Change a bookmarked command",
	GroupID: groupCore,
	Long: `Change the command text, alias or description of a bookmark.
Only the flags given are changed; pass an empty value to clear a field.

Examples:
  cmdbook edit 0190... --alias gs
  cmdbook edit 0190... --description ''`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a bookmarked command",
	GroupID: groupCore,
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

var recordCmd = &cobra.Command{
	Use:     "record <id>",
	Short:   "Record a use of a bookmarked command",
	GroupID: groupCore,
	Long: `Record that a bookmarked command was used in a directory.
Usage counts and directories feed search ranking.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show a bookmarked command with its usage",
	GroupID: groupCore,
	Args:    cobra.ExactArgs(1),
	RunE:    runShow,
}

func init() {
	newCmd.Flags().StringVarP(&newAlias, "alias", "a", "", "alias that finds the command directly")
	newCmd.Flags().StringVarP(&newDescription, "description", "d", "", "description; #hashtags become tags")
	newCmd.Flags().StringSliceVarP(&newTags, "tag", "t", nil, "extra tags")

	editCmd.Flags().StringVar(&editCmdText, "cmd", "", "new command text")
	editCmd.Flags().StringVarP(&editAlias, "alias", "a", "", "new alias")
	editCmd.Flags().StringVarP(&editDescription, "description", "d", "", "new description")

	recordCmd.Flags().StringVar(&recordCWD, "cwd", "", "directory of the use (default: current directory)")

	rootCmd.AddCommand(newCmd, editCmd, deleteCmd, recordCmd, showCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return errors.New("command must not be empty")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	c := &storage.Command{
		Alias:       strings.TrimSpace(newAlias),
		Cmd:         text,
		Description: newDescription,
		Tags:        mergeTags(newTags, template.Hashtags(newDescription)),
	}
	if err := a.store.CreateCommand(cmdContext(cmd), c); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return fmt.Errorf("command already bookmarked: %s", text)
		}
		return err
	}

	fmt.Printf("%sSaved%s %s\n", colorGreen, colorReset, c.ID)
	if vars := template.Parse(c.Cmd).Variables(); len(vars) > 0 {
		names := make([]string, len(vars))
		for i, v := range vars {
			names[i] = v.Name
		}
		fmt.Printf("  %svariables:%s %s\n", colorDim, colorReset, strings.Join(names, ", "))
	}
	return nil
}

func mergeTags(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		for _, t := range l {
			t = strings.TrimPrefix(strings.TrimSpace(t), "#")
			if t != "" && !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	return out
}

func runEdit(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if !flags.Changed("cmd") && !flags.Changed("alias") && !flags.Changed("description") {
		return errors.New("nothing to change: pass --cmd, --alias or --description")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmdContext(cmd)
	c, err := a.store.GetCommand(ctx, args[0])
	if err != nil {
		return err
	}

	if flags.Changed("cmd") {
		if strings.TrimSpace(editCmdText) == "" {
			return errors.New("command must not be empty")
		}
		c.Cmd = strings.TrimSpace(editCmdText)
	}
	if flags.Changed("alias") {
		c.Alias = strings.TrimSpace(editAlias)
	}
	if flags.Changed("description") {
		c.Description = editDescription
		c.Tags = mergeTags(template.Hashtags(editDescription))
	}

	if err := a.store.UpdateCommand(ctx, c); err != nil {
		return err
	}
	fmt.Printf("%sUpdated%s %s\n", colorGreen, colorReset, c.ID)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.DeleteCommand(cmdContext(cmd), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

func runRecord(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return a.store.IncrementCommandUsage(cmdContext(cmd), args[0], workingDir(recordCWD))
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.store.GetCommand(cmdContext(cmd), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s%s%s\n", colorBold, c.Cmd, colorReset)
	printField("id", c.ID)
	printField("alias", c.Alias)
	printField("description", c.Description)
	if len(c.Tags) > 0 {
		printField("tags", "#"+strings.Join(c.Tags, " #"))
	}
	printField("used", fmt.Sprintf("%s times", humanize.Comma(c.UsageCount)))
	printField("created", humanize.Time(c.CreatedAt))
	printField("updated", humanize.Time(c.UpdatedAt))

	if len(c.Usages) > 0 {
		fmt.Printf("\n%sDirectories:%s\n", colorBold, colorReset)
		for _, u := range c.Usages {
			fmt.Printf("  %6s  %s\n", humanize.Comma(u.Count), u.Path)
		}
	}
	return nil
}

func printField(name, value string) {
	if value == "" {
		value = colorDim + "(not set)" + colorReset
	}
	fmt.Printf("  %s%-12s%s %s\n", colorCyan, name+":", colorReset, value)
}
