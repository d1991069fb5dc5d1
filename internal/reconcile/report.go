package reconcile

import (
	"log/slog"
	"maps"

	"duoctl/internal/domain"
)

// run carries the state of one reconciliation. Its Outcome is built up as
// the run proceeds and copied out exactly once by report.
type run struct {
	api    AdminAPI
	logger *slog.Logger
	req    Request
	scope  domain.TenantScope
	out    domain.Outcome
}

func newRun(e *Engine, req Request) *run {
	var kind domain.Kind
	if req.Desired != nil {
		kind = req.Desired.Kind()
	}
	return &run{
		api: e.api,
		logger: e.logger.With(
			"kind", kind,
			"state", req.State,
			"tenant", req.Tenant,
			"mode", req.Mode,
		),
		req: req,
		out: domain.Outcome{
			Kind:       kind,
			State:      req.State,
			Tenant:     req.Tenant,
			DryRun:     req.Mode == domain.ModeDryRun,
			Phase:      domain.PhaseUnresolved,
			Attributes: map[string]any{},
		},
	}
}

// setScope records the resolved tenant scope. It is called once per run.
func (r *run) setScope(s domain.TenantScope) {
	r.scope = s
	r.out.AccountID = s.AccountID
	if !s.IsZero() {
		r.logger = r.logger.With("account_id", s.AccountID)
	}
}

func (r *run) advance(p domain.Phase) {
	r.logger.Debug("phase transition", "from", r.out.Phase, "to", p)
	r.out.Phase = p
}

func (r *run) set(attrs map[string]any) {
	maps.Copy(r.out.Attributes, attrs)
}

func (r *run) transport(op string, err error) error {
	return domain.ErrTransport(op, r.scope, err)
}

// skip ends the run without a mutation.
func (r *run) skip() (domain.Outcome, error) {
	r.advance(domain.PhaseSkipped)
	r.out.Verdict = domain.VerdictUnchanged
	r.out.Changed = false
	return r.report(), nil
}

// mutate ends the run with a mutation. In dry-run mode apply is never called
// and the outcome reports what would have happened. Attributes returned by
// apply are merged into the outcome.
func (r *run) mutate(op domain.Operation, changes []domain.FieldDiff, apply func() (map[string]any, error)) (domain.Outcome, error) {
	r.out.Operation = op
	r.out.Changes = changes
	r.out.Verdict = domain.VerdictWouldChange

	if r.req.Mode == domain.ModeDryRun {
		r.advance(domain.PhaseWouldMutate)
		r.out.Changed = true
		r.logger.Info("mutation skipped in dry-run", "operation", op)
		return r.report(), nil
	}

	attrs, err := apply()
	if err != nil {
		return r.fail(domain.StepMutate, err)
	}
	r.set(attrs)
	r.advance(domain.PhaseMutated)
	r.out.Verdict = domain.VerdictChanged
	r.out.Changed = true
	r.logger.Info("mutation applied", "operation", op)
	return r.report(), nil
}

// fail ends the run with a terminal error. Attributes gathered so far stay in
// the outcome; Changed is false because nothing was applied.
func (r *run) fail(step domain.Step, err error) (domain.Outcome, error) {
	r.out.Changed = false
	r.out.Error = err.Error()
	r.logger.Warn("reconcile failed", "step", step, "error", err)
	out := r.report()
	return out, &domain.ReconcileError{
		Step:    step,
		Kind:    r.out.Kind,
		Scope:   r.scope,
		Outcome: out,
		Err:     err,
	}
}

// report returns an independent copy of the outcome.
func (r *run) report() domain.Outcome {
	r.logger.Debug("phase transition", "from", r.out.Phase, "to", domain.PhaseReported,
		"verdict", r.out.Verdict, "changed", r.out.Changed)
	out := r.out
	out.Attributes = maps.Clone(r.out.Attributes)
	if r.out.Items != nil {
		out.Items = make([]map[string]any, len(r.out.Items))
		for i, item := range r.out.Items {
			out.Items[i] = maps.Clone(item)
		}
	}
	if r.out.Changes != nil {
		out.Changes = append([]domain.FieldDiff(nil), r.out.Changes...)
	}
	return out
}
