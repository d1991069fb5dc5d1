package declarative

import (
	"errors"
	"fmt"

	"duoctl/internal/domain"
	"duoctl/internal/reconcile"
)

// ValidationError represents a single validation problem.
type ValidationError struct {
	Path    string // document location, e.g. "tenants/acme.yaml#1"
	Message string
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Validate checks every document without contacting the API. It reports all
// problems rather than stopping at the first.
func Validate(docs []Document) []ValidationError {
	var errs []ValidationError
	add := func(d Document, format string, args ...any) {
		errs = append(errs, ValidationError{Path: d.Location(), Message: fmt.Sprintf(format, args...)})
	}

	seen := make(map[string]string)
	for _, d := range docs {
		if d.APIVersion != SupportedAPIVersion {
			add(d, "unsupported apiVersion %q (expected %q)", d.APIVersion, SupportedAPIVersion)
		}
		if _, ok := d.Kind.Domain(); !ok || d.Resource == nil {
			add(d, "unknown kind %q", d.Kind)
			continue
		}
		state, err := d.DesiredState()
		if err != nil {
			add(d, "%s", validationMessage(err))
			continue
		}

		req, _ := d.Request(domain.ModeDryRun)
		if err := reconcile.ValidateRequest(req); err != nil {
			add(d, "%s", validationMessage(err))
			continue
		}

		if state == domain.StateQuery {
			continue
		}
		key := string(d.Kind) + "|" + d.Name()
		if prev, ok := seen[key]; ok {
			add(d, "%s %q is also declared in %s", d.Kind.String(), d.Name(), prev)
			continue
		}
		seen[key] = d.Location()
	}
	return errs
}

func validationMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}
	return err.Error()
}
