package domain

import "strconv"

// Field is one named attribute of a resource. Value holds a string, int, or
// bool; a nil Value is never stored.
type Field struct {
	Name  string
	Value any
}

// FieldSet is an ordered list of fields. A name that is not in the set was not
// supplied, which is different from a field supplied with a falsy value.
type FieldSet []Field

// Get returns the value stored under name.
func (fs FieldSet) Get(name string) (any, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether name was supplied.
func (fs FieldSet) Has(name string) bool {
	_, ok := fs.Get(name)
	return ok
}

// Names returns the field names in order.
func (fs FieldSet) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// Truthy returns only the fields whose value is set (non-empty, non-zero, true).
func (fs FieldSet) Truthy() FieldSet {
	out := make(FieldSet, 0, len(fs))
	for _, f := range fs {
		if IsSet(f.Value) {
			out = append(out, f)
		}
	}
	return out
}

// Project returns the fields of fs whose names appear in names, in the order
// of names. Names missing from fs are skipped.
func (fs FieldSet) Project(names []string) FieldSet {
	out := make(FieldSet, 0, len(names))
	for _, n := range names {
		if v, ok := fs.Get(n); ok {
			out = append(out, Field{Name: n, Value: v})
		}
	}
	return out
}

// Map returns the fields as a map for reporting.
func (fs FieldSet) Map() map[string]any {
	m := make(map[string]any, len(fs))
	for _, f := range fs {
		m[f.Name] = f.Value
	}
	return m
}

// IsSet reports whether v is a truthy value.
func IsSet(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case int:
		return x != 0
	case bool:
		return x
	default:
		return true
	}
}

// FormatValue renders a field value for display and wire encoding.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}
