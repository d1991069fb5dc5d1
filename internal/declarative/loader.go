package declarative

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadDirectory reads every *.yaml, *.yml, and *.toml file directly under dir
// in lexical order and returns their documents in file order. Unknown fields
// are rejected.
func LoadDirectory(dir string) ([]Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("config directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config directory: %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read config directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".toml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	var docs []Document
	for _, f := range files {
		fileDocs, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, fileDocs...)
	}
	return docs, nil
}

// LoadFile reads all documents from one file. YAML files may hold several
// documents; a TOML file holds exactly one. Empty documents are skipped.
func LoadFile(path string) ([]Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // reading user-specified config files
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return parseTOML(path, data)
	}
	return parseDocuments(path, data)
}

// parseTOML converts a TOML document to YAML so both formats share one
// strict decoding path.
func parseTOML(path string, data []byte) ([]Document, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	converted, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return parseDocuments(path, converted)
}

func parseDocuments(path string, data []byte) ([]Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var docs []Document
	for i := 0; ; i++ {
		var doc Document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if doc.APIVersion == "" && doc.Kind == "" && doc.Spec.Kind == 0 {
			continue
		}
		doc.FilePath = path
		doc.Index = i
		if err := decodeSpec(&doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", doc.Location(), err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// decodeSpec strictly decodes the spec node into the kind's typed record.
// Unknown kinds are left for Validate to report.
func decodeSpec(doc *Document) error {
	target, ok := newResource(doc.Kind)
	if !ok {
		return nil
	}
	if doc.Spec.Kind != 0 {
		raw, err := yaml.Marshal(&doc.Spec)
		if err != nil {
			return fmt.Errorf("spec: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("spec: %w", err)
		}
	}
	doc.Resource = deref(target)
	return nil
}
