package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"duoctl/internal/domain"
)

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func printTable(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, r := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

// printOutcome writes one Outcome Record in the selected format.
func printOutcome(cmd *cobra.Command, out domain.Outcome) error {
	w := cmd.OutOrStdout()
	if getOutputFormat(cmd) == "json" {
		return printJSON(w, out)
	}

	rows := [][]string{
		{"kind", string(out.Kind)},
		{"state", string(out.State)},
		{"changed", fmt.Sprint(out.Changed)},
		{"verdict", out.Verdict.String()},
	}
	if out.Tenant != "" {
		rows = append(rows, []string{"tenant", out.Tenant})
	}
	if out.AccountID != "" {
		rows = append(rows, []string{"account_id", out.AccountID})
	}
	if out.Operation != domain.OpNone {
		rows = append(rows, []string{"operation", string(out.Operation)})
	}
	if out.DryRun {
		rows = append(rows, []string{"dry_run", "true"})
	}
	for _, k := range slices.Sorted(maps.Keys(out.Attributes)) {
		rows = append(rows, []string{k, formatCell(out.Attributes[k])})
	}
	if out.Error != "" {
		rows = append(rows, []string{"error", out.Error})
	}
	if err := printTable(w, []string{"FIELD", "VALUE"}, rows); err != nil {
		return err
	}

	if len(out.Changes) > 0 {
		_, _ = fmt.Fprintln(w)
		changes := make([][]string, 0, len(out.Changes))
		for _, c := range out.Changes {
			changes = append(changes, []string{c.Field, c.OldValue, c.NewValue})
		}
		if err := printTable(w, []string{"CHANGE", "OLD", "NEW"}, changes); err != nil {
			return err
		}
	}

	if len(out.Items) > 0 {
		_, _ = fmt.Fprintln(w)
		return printItems(w, out.Items)
	}
	return nil
}

// printItems renders a list of records using the union of their keys as columns.
func printItems(w io.Writer, items []map[string]any) error {
	seen := map[string]bool{}
	for _, it := range items {
		for k := range it {
			seen[k] = true
		}
	}
	keys := slices.Sorted(maps.Keys(seen))
	headers := make([]string, len(keys))
	for i, k := range keys {
		headers[i] = strings.ToUpper(k)
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = formatCell(it[k])
		}
		rows = append(rows, row)
	}
	return printTable(w, headers, rows)
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}
