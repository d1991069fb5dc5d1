package declarative

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"duoctl/internal/domain"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

// FormatText writes a human-readable plan to w.
// If noColor is true, ANSI codes are suppressed.
func FormatText(w io.Writer, plan *Plan, noColor bool) {
	c := func(code string) string {
		if noColor {
			return ""
		}
		return code
	}

	if !plan.HasChanges() {
		fmt.Fprintln(w, "No changes. Remote state matches the documents.")
		return
	}

	verb := func(past string) string {
		if plan.DryRun {
			return "will be " + past
		}
		return past
	}

	type group struct {
		path    string
		actions []Action
	}
	var groups []group
	seen := map[string]int{}
	for _, a := range plan.Actions {
		if idx, ok := seen[a.FilePath]; ok {
			groups[idx].actions = append(groups[idx].actions, a)
		} else {
			seen[a.FilePath] = len(groups)
			groups = append(groups, group{path: a.FilePath, actions: []Action{a}})
		}
	}

	for _, g := range groups {
		fmt.Fprintf(w, "\n%s# %s%s\n", c(colorCyan), g.path, c(colorReset))
		for _, a := range g.actions {
			switch a.Operation {
			case domain.OpCreate:
				fmt.Fprintf(w, "  %s+%s %s %q %s\n",
					c(colorGreen), c(colorReset), a.ResourceKind, a.ResourceName, verb("created"))
				formatAttributes(w, a.Outcome.Attributes, c)
			case domain.OpUpdate:
				fmt.Fprintf(w, "  %s~%s %s %q %s\n",
					c(colorYellow), c(colorReset), a.ResourceKind, a.ResourceName, verb("updated"))
				for _, d := range a.Changes {
					fmt.Fprintf(w, "      %s: %q → %q\n", d.Field, d.OldValue, d.NewValue)
				}
			case domain.OpDelete:
				fmt.Fprintf(w, "  %s-%s %s %q %s\n",
					c(colorRed), c(colorReset), a.ResourceKind, a.ResourceName, verb("deleted"))
			}
		}
	}

	if len(plan.Errors) > 0 {
		fmt.Fprintln(w)
	}
	for _, e := range plan.Errors {
		fmt.Fprintf(w, "  %s✗%s %s %q (%s): %s\n",
			c(colorRed), c(colorReset), e.ResourceKind, e.ResourceName, e.Path, e.Message)
	}

	s := plan.Summary()
	label := "Apply complete:"
	if plan.DryRun {
		label = "Plan:"
	}
	fmt.Fprintf(w, "\n%s%s%s %d to create, %d to update, %d to delete.",
		c(colorDim), label, c(colorReset), s.Creates, s.Updates, s.Deletes)
	if s.Errors > 0 {
		fmt.Fprintf(w, " %s%d error(s).%s", c(colorRed), s.Errors, c(colorReset))
	}
	fmt.Fprintln(w)
}

// formatAttributes writes indented key-value pairs in key order. Secrets are
// masked.
func formatAttributes(w io.Writer, attrs map[string]any, c func(string) string) {
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		v := attrs[k]
		if k == "secret_key" {
			v = "(sensitive)"
		}
		fmt.Fprintf(w, "      %s%s%s: %v\n", c(colorDim), k, c(colorReset), v)
	}
}

// FormatJSON writes the plan as JSON to w.
func FormatJSON(w io.Writer, plan *Plan) error {
	type jsonAction struct {
		Operation    string             `json:"operation"`
		ResourceType string             `json:"resource_type"`
		ResourceName string             `json:"resource_name"`
		Path         string             `json:"path,omitempty"`
		Changes      []domain.FieldDiff `json:"changes,omitempty"`
		Verdict      domain.Verdict     `json:"verdict"`
	}
	type jsonPlan struct {
		DryRun  bool         `json:"dry_run"`
		Actions []jsonAction `json:"actions"`
		Errors  []PlanError  `json:"errors,omitempty"`
		Summary PlanSummary  `json:"summary"`
	}

	jp := jsonPlan{
		DryRun:  plan.DryRun,
		Actions: make([]jsonAction, 0, len(plan.Actions)),
		Summary: plan.Summary(),
	}
	if len(plan.Errors) > 0 {
		jp.Errors = plan.Errors
	}
	for _, a := range plan.Actions {
		jp.Actions = append(jp.Actions, jsonAction{
			Operation:    string(a.Operation),
			ResourceType: a.ResourceKind.String(),
			ResourceName: a.ResourceName,
			Path:         a.FilePath,
			Changes:      a.Changes,
			Verdict:      a.Outcome.Verdict,
		})
	}

	data, err := json.MarshalIndent(jp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
