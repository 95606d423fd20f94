package mapper

import (
	"os"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"bytegraft/internal/diagnostic"
)

// Table is a NameMapper backed by explicit renames. Names without an entry
// map to themselves.
//
//	classes:
//	  a.b.Foo: x.C12
//	fields:
//	  a.b.Foo:
//	    counter: f_3
//	methods:
//	  a.b.Foo:
//	    run: m_7         # any descriptor
//	    run(I)V: m_8     # this descriptor only
type Table struct {
	Classes map[string]string            `yaml:"classes,omitempty"`
	Fields  map[string]map[string]string `yaml:"fields,omitempty"`
	Methods map[string]map[string]string `yaml:"methods,omitempty"`
}

// LoadTable reads a mapping table from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("failed to read mapping table %s: %w", path, err)
	}

	return ParseTable(data)
}

// ParseTable parses a YAML mapping table.
func ParseTable(data []byte) (*Table, error) {
	var t Table

	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, diagnostic.Configurationf("failed to parse mapping table: %s", err)
	}

	if err := t.validate(); err != nil {
		return nil, err
	}

	return &t, nil
}

func (t *Table) validate() error {
	for from, to := range t.Classes {
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return diagnostic.Configurationf("mapping table: empty class name in %q: %q", from, to)
		}
	}

	for section, members := range map[string]map[string]map[string]string{"fields": t.Fields, "methods": t.Methods} {
		for owner, names := range members {
			for from, to := range names {
				if from == "" || to == "" {
					return diagnostic.Configurationf("mapping table: empty name in %s of %s", section, owner)
				}
			}
		}
	}

	return nil
}

// MapClassName implements NameMapper.
func (t *Table) MapClassName(name string) string {
	if mapped, ok := t.Classes[name]; ok {
		return mapped
	}

	return name
}

// MapFieldName implements NameMapper.
func (t *Table) MapFieldName(owner, name, _ string) string {
	if mapped, ok := t.Fields[owner][name]; ok {
		return mapped
	}

	return name
}

// MapMethodName implements NameMapper. An entry keyed by name and
// descriptor wins over one keyed by name alone.
func (t *Table) MapMethodName(owner, name, desc string) string {
	names := t.Methods[owner]
	if mapped, ok := names[name+desc]; ok {
		return mapped
	}

	if mapped, ok := names[name]; ok {
		return mapped
	}

	return name
}
