package declarative

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"duoctl/internal/domain"
)

// Document is one YAML resource document.
type Document struct {
	APIVersion string       `yaml:"apiVersion"`
	Kind       ResourceKind `yaml:"kind"`
	Tenant     string       `yaml:"tenant,omitempty"`
	State      string       `yaml:"state,omitempty"`
	Spec       yaml.Node    `yaml:"spec"`

	// FilePath and Index locate the document: Index is its position within
	// a multi-document file.
	FilePath string `yaml:"-"`
	Index    int    `yaml:"-"`

	// Resource is the decoded spec, nil when the kind is unknown.
	Resource domain.Resource `yaml:"-"`
}

// Location returns "path" for single documents and "path#N" otherwise.
func (d Document) Location() string {
	if d.Index == 0 {
		return d.FilePath
	}
	return fmt.Sprintf("%s#%d", d.FilePath, d.Index)
}

// DesiredState returns the parsed state, defaulting to present.
func (d Document) DesiredState() (domain.State, error) {
	if d.State == "" {
		return domain.StatePresent, nil
	}
	return domain.ParseState(d.State)
}

// Name returns a human-readable identifier for the document's resource.
func (d Document) Name() string {
	var name string
	switch r := d.Resource.(type) {
	case domain.Account:
		name = r.Name
	case domain.Integration:
		switch {
		case r.IKey != "":
			name = r.IKey
		case r.Name != nil:
			name = *r.Name
		}
	case domain.Settings:
		name = "settings"
	case domain.Edition:
		name = "edition"
		if r.AccountID != "" {
			name = r.AccountID
		}
	}
	if name == "" {
		name = "*"
	}
	if d.Tenant != "" {
		return d.Tenant + "/" + name
	}
	return name
}
