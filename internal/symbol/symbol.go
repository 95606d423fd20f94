package symbol

import (
	"strings"

	"bytegraft/internal/classfile"
	"bytegraft/internal/common"
)

// Class identifies a class by its fully qualified dotted name.
type Class struct {
	Name string
}

// NewClass returns the class with the given dotted name.
func NewClass(name string) Class {
	return Class{Name: name}
}

// ClassFromInternal converts a slashed internal name.
func ClassFromInternal(internal string) Class {
	return Class{Name: common.DottedName(internal)}
}

// InternalName returns the slashed form used in class files.
func (c Class) InternalName() string {
	return common.InternalName(c.Name)
}

// IsZero reports whether c is unset.
func (c Class) IsZero() bool {
	return c.Name == ""
}

func (c Class) String() string {
	return c.Name
}

// Field identifies a field by owner, name and descriptor.
type Field struct {
	Owner Class
	Name  string
	Desc  string
}

// NewField returns a field symbol.
func NewField(owner Class, name, desc string) Field {
	return Field{Owner: owner, Name: name, Desc: desc}
}

// Type returns the type of the field.
func (f Field) Type() classfile.Type {
	return classfile.TypeOf(f.Desc)
}

func (f Field) String() string {
	return f.Owner.Name + "." + f.Name + ":" + f.Desc
}

// Method identifies a method by owner, name and descriptor. MappingOwner is
// the class whose name mappings apply to the method; it differs from Owner
// when a rule is declared against an inherited member.
type Method struct {
	Owner        Class
	Name         string
	Desc         string
	MappingOwner Class
}

// NewMethod returns a method symbol whose mapping owner is its owner.
func NewMethod(owner Class, name, desc string) Method {
	return Method{Owner: owner, Name: name, Desc: desc, MappingOwner: owner}
}

// WithMappingOwner returns a copy of m mapped through owner. A zero owner
// keeps the declared owner.
func (m Method) WithMappingOwner(owner Class) Method {
	if owner.IsZero() {
		owner = m.Owner
	}

	m.MappingOwner = owner

	return m
}

// WithOwner returns a copy of m declared on owner. The mapping owner follows
// the declared owner when both were equal.
func (m Method) WithOwner(owner Class) Method {
	if m.MappingOwner == m.Owner {
		m.MappingOwner = owner
	}

	m.Owner = owner

	return m
}

// Params returns the parameter types.
func (m Method) Params() []classfile.Type {
	return classfile.ArgumentTypes(m.Desc)
}

// Return returns the return type.
func (m Method) Return() classfile.Type {
	return classfile.ReturnType(m.Desc)
}

// Key identifies the method by name and descriptor only.
func (m Method) Key() string {
	return m.Name + m.Desc
}

func (m Method) String() string {
	var sb strings.Builder

	sb.WriteString(m.Owner.Name)
	sb.WriteByte('.')
	sb.WriteString(m.Name)
	sb.WriteString(m.Desc)

	if m.MappingOwner != m.Owner {
		sb.WriteString(" (mapped via ")
		sb.WriteString(m.MappingOwner.Name)
		sb.WriteByte(')')
	}

	return sb.String()
}
