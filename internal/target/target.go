package target

import (
	"fmt"
	"slices"

	"bytegraft/internal/diagnostic"
	"bytegraft/internal/redirect"
	"bytegraft/internal/symbol"
)

// Method declares how one destination method is produced.
type Method struct {
	// Method is the source method as written against the logical names; its
	// Owner is the destination class unless SrcOwner is set.
	Method symbol.Method
	// SrcOwner is the class the body is copied from. Zero means Method.Owner.
	SrcOwner symbol.Class
	// DstName is the name of the produced method.
	DstName string
	// ShouldClone copies the source body into a new method; otherwise the
	// existing body is rewritten in place.
	ShouldClone bool
	// MakeSyntheticAccessor adds a public static trampoline that takes the
	// receiver as its first argument.
	MakeSyntheticAccessor bool
	// Sets are applied after the class-level sets.
	Sets []*redirect.Set
}

// Source returns the class the body comes from.
func (m *Method) Source() symbol.Class {
	if m.SrcOwner.IsZero() {
		return m.Method.Owner
	}

	return m.SrcOwner
}

// Destination identifies the produced method by name and its declared
// descriptor. Targets whose descriptors only become equal through type
// redirects are caught when the class is transformed.
func (m *Method) Destination() string {
	return m.DstName + m.Method.Desc
}

func (m *Method) String() string {
	return fmt.Sprintf("%s from %s -> %s (clone=%t, accessor=%t)",
		m.Method, m.Source(), m.DstName, m.ShouldClone, m.MakeSyntheticAccessor)
}

// Class declares how one destination class is transformed: either its whole
// content comes from another class, or a list of methods is produced.
type Class struct {
	Name symbol.Class
	// Sets apply to every method of the class, in order; later sets win.
	Sets []*redirect.Set
	// DebugSelfRedirects logs every reference no redirect matched.
	DebugSelfRedirects bool

	wholeClass symbol.Class
	methods    []*Method
}

// NewClass returns a target with no sources.
func NewClass(name symbol.Class, sets ...*redirect.Set) *Class {
	return &Class{Name: name, Sets: sets}
}

// TargetWholeClass makes src the source of every member. It fails once
// method targets exist.
func (c *Class) TargetWholeClass(src symbol.Class) error {
	if len(c.methods) > 0 {
		return diagnostic.Invariantf("%s: cannot target whole class %s when method targets exist", c.Name, src)
	}

	if src.IsZero() {
		return diagnostic.Invariantf("%s: whole-class source is empty", c.Name)
	}

	c.wholeClass = src

	return nil
}

// AddTarget adds a method target. It fails in whole-class mode and when
// another target already produces the same destination method.
func (c *Class) AddTarget(m *Method) error {
	if !c.wholeClass.IsZero() {
		return diagnostic.Invariantf("%s: cannot add method target %s when targeting whole class %s",
			c.Name, m.Method, c.wholeClass)
	}

	for _, existing := range c.methods {
		if existing.Destination() == m.Destination() {
			return diagnostic.Invariantf("%s: duplicate target %s (already produced from %s)",
				c.Name, m.Destination(), existing.Source())
		}
	}

	c.methods = append(c.methods, m)

	return nil
}

// WholeClass returns the whole-class source, if any.
func (c *Class) WholeClass() (symbol.Class, bool) {
	return c.wholeClass, !c.wholeClass.IsZero()
}

// Methods returns the method targets in insertion order.
func (c *Class) Methods() []*Method {
	return slices.Clone(c.methods)
}

// EffectiveSets returns the sets that apply to m: the class sets followed by
// the method's own.
func (c *Class) EffectiveSets(m *Method) []*redirect.Set {
	return append(slices.Clone(c.Sets), m.Sets...)
}
