package reconcile

import "duoctl/internal/domain"

// DiffResult is the Diff Engine's verdict for one resource.
type DiffResult struct {
	// Changed is true when at least one enforceable desired field differs.
	Changed bool
	// Changes lists every differing enforceable field.
	Changes []domain.FieldDiff
	// Payload holds only the differing enforceable fields; it is what an
	// update call sends.
	Payload domain.FieldSet
	// Applied holds every enforceable desired field; it is the reported
	// attribute set after the run.
	Applied domain.FieldSet
}

// Diff compares desired against current field by field. Desired fields with a
// falsy value carry no opinion: they take no part in the comparison and are
// never sent. A desired field absent from current counts as differing.
func Diff(desired, current domain.FieldSet) DiffResult {
	var res DiffResult
	res.Applied = desired.Truthy()
	for _, f := range res.Applied {
		cur, ok := current.Get(f.Name)
		if ok && cur == f.Value {
			continue
		}
		res.Changed = true
		res.Payload = append(res.Payload, f)
		res.Changes = append(res.Changes, domain.FieldDiff{
			Field:    f.Name,
			OldValue: domain.FormatValue(cur),
			NewValue: domain.FormatValue(f.Value),
		})
	}
	return res
}
