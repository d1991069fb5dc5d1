package declarative

import (
	"context"
	"errors"

	"duoctl/internal/domain"
	"duoctl/internal/reconcile"
)

// Reconciler converges one resource. *reconcile.Engine implements it.
type Reconciler interface {
	Reconcile(ctx context.Context, req reconcile.Request) (domain.Outcome, error)
}

// Request builds the engine request for the document.
func (d Document) Request(mode domain.Mode) (reconcile.Request, error) {
	state, err := d.DesiredState()
	if err != nil {
		return reconcile.Request{}, err
	}
	return reconcile.Request{
		Tenant:  d.Tenant,
		State:   state,
		Mode:    mode,
		Desired: d.Resource,
	}, nil
}

// Run reconciles each document independently in order. A failed document is
// recorded as a PlanError and does not stop later documents. Run stops early
// only when ctx is cancelled.
func Run(ctx context.Context, r Reconciler, docs []Document, mode domain.Mode) *Plan {
	plan := &Plan{DryRun: mode == domain.ModeDryRun}
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			plan.Errors = append(plan.Errors, planError(d, "", err))
			break
		}

		req, err := d.Request(mode)
		if err != nil {
			plan.Errors = append(plan.Errors, planError(d, domain.StepValidate, err))
			continue
		}

		out, err := r.Reconcile(ctx, req)
		plan.Outcomes = append(plan.Outcomes, out)
		if err != nil {
			var step domain.Step
			var re *domain.ReconcileError
			if errors.As(err, &re) {
				step = re.Step
				err = re.Err
			}
			plan.Errors = append(plan.Errors, planError(d, step, err))
			continue
		}
		if out.Operation == domain.OpNone {
			continue
		}
		plan.Actions = append(plan.Actions, Action{
			Operation:    out.Operation,
			ResourceKind: d.Kind,
			ResourceName: d.Name(),
			FilePath:     d.FilePath,
			Changes:      out.Changes,
			Outcome:      out,
		})
	}
	return plan
}

func planError(d Document, step domain.Step, err error) PlanError {
	return PlanError{
		ResourceKind: d.Kind,
		ResourceName: d.Name(),
		Path:         d.Location(),
		Step:         step,
		Message:      err.Error(),
	}
}
