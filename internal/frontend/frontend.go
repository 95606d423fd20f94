package frontend

import (
	"context"
	"slices"

	"bytegraft/internal/diagnostic"
	"bytegraft/internal/redirect"
	"bytegraft/internal/target"
)

// Producer builds a Model from some input.
type Producer interface {
	Produce(ctx context.Context) (*Model, error)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context) (*Model, error)

func (f ProducerFunc) Produce(ctx context.Context) (*Model, error) {
	return f(ctx)
}

// Model is the declarative input of the engine.
type Model struct {
	Registry *redirect.Registry
	Targets  []*target.Class
}

// NewModel returns a model with an empty registry.
func NewModel() *Model {
	return &Model{Registry: redirect.NewRegistry()}
}

// AddTarget appends t. Two targets for the same class are rejected.
func (m *Model) AddTarget(t *target.Class) error {
	if _, ok := m.Target(t.Name.Name); ok {
		return diagnostic.Configurationf("class %s is targeted twice", t.Name)
	}

	m.Targets = append(m.Targets, t)

	return nil
}

// Target returns the target for the dotted class name.
func (m *Model) Target(name string) (*target.Class, bool) {
	i := slices.IndexFunc(m.Targets, func(t *target.Class) bool { return t.Name.Name == name })
	if i < 0 {
		return nil, false
	}

	return m.Targets[i], true
}

// Merge adds the sets and targets of other to m. Set names and target
// classes must not collide.
func (m *Model) Merge(other *Model) error {
	for _, name := range other.Registry.Names() {
		s, _ := other.Registry.Declared(name)
		if err := m.Registry.Declare(s); err != nil {
			return err
		}
	}

	for _, t := range other.Targets {
		if err := m.AddTarget(t); err != nil {
			return err
		}
	}

	return nil
}

// Produce runs every producer in order and merges the results.
func Produce(ctx context.Context, producers ...Producer) (*Model, error) {
	out := NewModel()

	for _, p := range producers {
		m, err := p.Produce(ctx)
		if err != nil {
			return nil, err
		}

		if err := out.Merge(m); err != nil {
			return nil, err
		}
	}

	return out, nil
}
