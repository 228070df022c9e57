package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/runger/cmdbook/internal/picker"
	"github.com/runger/cmdbook/internal/suggest"
	"github.com/runger/cmdbook/internal/template"
	"github.com/runger/cmdbook/internal/textmatch"
)

// setAssignments fills variables from name=value pairs. Names match either
// the variable as written or its folded form.
func setAssignments(t *template.Template, values map[string]string) error {
	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		v, ok := findVariable(t, n)
		if !ok {
			return fmt.Errorf("%w: %s", template.ErrUnknownVariable, n)
		}
		if err := t.Set(v.Name, values[n]); err != nil {
			return err
		}
	}
	return nil
}

func findVariable(t *template.Template, name string) (template.Variable, bool) {
	flat := textmatch.Fold(name)
	for _, v := range t.Variables() {
		if v.Name == name || v.FlatName() == flat {
			return v, true
		}
	}
	return template.Variable{}, false
}

// fillTemplate asks for every missing variable with the value picker. When
// interactive is false the missing variables are reported as an error.
func fillTemplate(a *app, t *template.Template, wd string, interactive bool) error {
	for {
		v, ok := t.Next()
		if !ok {
			return nil
		}
		if !interactive {
			return fmt.Errorf("%w: %s", template.ErrMissingValue, strings.Join(t.Missing(), ", "))
		}

		value, err := pickValue(a, t, v, wd)
		if err != nil {
			return err
		}
		if err := t.Set(v.Name, value); err != nil {
			return err
		}
	}
}

func pickValue(a *app, t *template.Template, v template.Variable, wd string) (string, error) {
	provider := picker.NewValueProvider(a.valueSource(wd, true), suggest.ValueRequest{
		RootCmd:    t.RootCommand(),
		Variable:   v,
		WorkingDir: wd,
		Context:    t.Context(),
	})

	title := fmt.Sprintf("%s  ← {{%s}}", picker.DisplayText(t.Render()), v.Name)
	if v.Secret {
		title += " (secret, not saved)"
	}

	m := picker.NewModel(provider).
		WithModes(textmatch.ModeFuzzy).
		WithAcceptQuery(true).
		WithTitle(title).
		WithDebounce(a.debounce())

	final, err := picker.Run(m)
	if err != nil {
		return "", pickerError(err)
	}
	item, ok := final.Result()
	if !ok {
		return "", &ExitError{Code: exitCancelled}
	}
	return item.Text, nil
}

// pickerError maps picker failures onto exit codes.
func pickerError(err error) error {
	if errors.Is(err, picker.ErrNoTerminal) {
		return &ExitError{Code: exitFallback, Msg: err.Error()}
	}
	return err
}
