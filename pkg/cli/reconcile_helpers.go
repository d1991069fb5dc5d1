package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"duoctl/internal/domain"
	"duoctl/internal/reconcile"
)

// runReconcile executes one request, journals the outcome, and prints it.
// In json mode a failed outcome is reported through the error object only.
func runReconcile(cmd *cobra.Command, opts *globalOptions, req reconcile.Request) error {
	ctx := cmd.Context()
	eng, err := opts.engine()
	if err != nil {
		return err
	}
	j, err := opts.openJournal(ctx)
	if err != nil {
		return err
	}
	if j != nil {
		defer func() { _ = j.Close() }()
	}

	out, rerr := eng.Reconcile(ctx, req)
	if j != nil {
		if _, err := j.Record(ctx, out); err != nil {
			opts.logger.Warn("journal record failed", "error", err)
		}
	}
	if rerr != nil && getOutputFormat(cmd) == "json" {
		return rerr
	}
	if err := printOutcome(cmd, out); err != nil && rerr == nil {
		return err
	}
	return rerr
}

// parseStateFlag validates --state against the states the kind supports.
func parseStateFlag(kind domain.Kind, s string) (domain.State, error) {
	st, err := domain.ParseState(s)
	if err != nil {
		return "", err
	}
	if !kind.Supports(st) {
		return "", domain.ErrValidation("state", "state %q is not supported for %s resources", st, kind)
	}
	return st, nil
}

// optionalFlags registers flags whose values are only used when the user set
// them explicitly. Unset flags leave the destination pointer nil.
type optionalFlags struct {
	fs    *pflag.FlagSet
	apply []func()
}

func newOptionalFlags(fs *pflag.FlagSet) *optionalFlags {
	return &optionalFlags{fs: fs}
}

func (o *optionalFlags) String(dst **string, name, usage string) {
	v := new(string)
	o.fs.StringVar(v, name, "", usage)
	o.apply = append(o.apply, func() {
		if o.fs.Changed(name) {
			*dst = v
		}
	})
}

func (o *optionalFlags) Int(dst **int, name, usage string) {
	v := new(int)
	o.fs.IntVar(v, name, 0, usage)
	o.apply = append(o.apply, func() {
		if o.fs.Changed(name) {
			*dst = v
		}
	})
}

func (o *optionalFlags) Bool(dst **bool, name, usage string) {
	v := new(bool)
	o.fs.BoolVar(v, name, false, usage)
	o.apply = append(o.apply, func() {
		if o.fs.Changed(name) {
			*dst = v
		}
	})
}

// Apply copies every explicitly set flag into its destination.
func (o *optionalFlags) Apply() {
	for _, f := range o.apply {
		f()
	}
}
