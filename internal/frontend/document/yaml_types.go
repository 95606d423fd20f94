package document

import (
	"slices"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// --- StringOrArray ---

// StringOrArray accepts either a single string or an array of strings.
type StringOrArray []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringOrArray) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string

		err := node.Decode(&str)
		if err != nil {
			return err
		}

		*s = StringOrArray{str}

		return nil

	case yaml.SequenceNode:
		var arr []string

		err := node.Decode(&arr)
		if err != nil {
			return err
		}

		*s = arr

		return nil

	default:
		return errors.Errorf("line %d: expected string or array", node.Line)
	}
}

// --- Ordered ---

// Entry is one key of a mapping, in document order.
type Entry[T any] struct {
	Key   string
	Value T
	Line  int
}

// Ordered is a mapping that keeps the document order of its keys. A present
// but empty mapping decodes to a non-nil empty slice.
type Ordered[T any] []Entry[T]

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *Ordered[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: expected a mapping", node.Line)
	}

	out := make(Ordered[T], 0, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]

		if slices.ContainsFunc(out, func(e Entry[T]) bool { return e.Key == key.Value }) {
			return errors.Errorf("line %d: duplicate key %q", key.Line, key.Value)
		}

		var v T

		err := node.Content[i+1].Decode(&v)
		if err != nil {
			return err
		}

		out = append(out, Entry[T]{Key: key.Value, Value: v, Line: key.Line})
	}

	*o = out

	return nil
}

// --- value shapes ---

// RedirectValue is the value of a field or method redirect. The short form
// is the new name alone.
type RedirectValue struct {
	NewName        string `yaml:"newName"`
	NewOwner       string `yaml:"newOwner"`
	MappingsOwner  string `yaml:"mappingsOwner"`
	IsDstInterface bool   `yaml:"isDstInterface"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *RedirectValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&v.NewName)
	}

	err := checkKeys(node, "newName", "newOwner", "mappingsOwner", "isDstInterface")
	if err != nil {
		return err
	}

	type plain RedirectValue

	return node.Decode((*plain)(v))
}

// TargetValue is the value of a target method. The short form is the new
// name alone.
type TargetValue struct {
	NewName               string        `yaml:"newName"`
	MappingsOwner         string        `yaml:"mappingsOwner"`
	ShouldClone           *bool         `yaml:"shouldClone"`
	MakeSyntheticAccessor bool          `yaml:"makeSyntheticAccessor"`
	CopyFrom              string        `yaml:"copyFrom"`
	UseSets               StringOrArray `yaml:"useSets"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *TargetValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&v.NewName)
	}

	err := checkKeys(node, "newName", "mappingsOwner", "shouldClone", "makeSyntheticAccessor", "copyFrom", "useSets")
	if err != nil {
		return err
	}

	type plain TargetValue

	return node.Decode((*plain)(v))
}

// Clone reports whether the body is copied, which is the default.
func (v TargetValue) Clone() bool {
	return v.ShouldClone == nil || *v.ShouldClone
}

func checkKeys(node *yaml.Node, allowed ...string) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: expected a string or a mapping", node.Line)
	}

	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return errors.Errorf("line %d: unknown key %q (expected one of %v)", key.Line, key.Value, allowed)
		}
	}

	return nil
}
