package redirect

import (
	"slices"

	"bytegraft/internal/common"
	"bytegraft/internal/symbol"
)

// TypeRedirect replaces every use of Src with Dst.
type TypeRedirect struct {
	Src symbol.Class
	Dst symbol.Class
}

func (r TypeRedirect) String() string {
	return r.Src.Name + " -> " + r.Dst.Name
}

// FieldRedirect renames a field. With a NewOwner the access moves to another
// class, which is only legal for static fields.
type FieldRedirect struct {
	Field    symbol.Field
	NewOwner symbol.Class
	DstName  string
}

// IsCrossClass reports whether the redirect moves the field to another class.
func (r FieldRedirect) IsCrossClass() bool {
	return !r.NewOwner.IsZero()
}

func (r FieldRedirect) String() string {
	if r.IsCrossClass() {
		return r.Field.String() + " -> " + r.NewOwner.Name + "." + r.DstName
	}

	return r.Field.String() + " -> " + r.DstName
}

// MethodRedirect renames a method. With a NewOwner, calls become static
// calls on NewOwner that take the original receiver as first argument.
// DstInterface tells whether NewOwner is an interface.
type MethodRedirect struct {
	Method       symbol.Method
	NewOwner     symbol.Class
	DstName      string
	DstInterface bool
}

// IsCrossClass reports whether the redirect moves the call to another class.
func (r MethodRedirect) IsCrossClass() bool {
	return !r.NewOwner.IsZero()
}

func (r MethodRedirect) String() string {
	if r.IsCrossClass() {
		return r.Method.String() + " -> " + r.NewOwner.Name + "." + r.DstName
	}

	return r.Method.String() + " -> " + r.DstName
}

// Set is a named collection of redirects. Entries keep insertion order and
// are unique by value.
type Set struct {
	Name string
	// Parents names the sets this set extends, in declaration order.
	Parents []string

	types   []TypeRedirect
	fields  []FieldRedirect
	methods []MethodRedirect
}

// NewSet returns an empty set.
func NewSet(name string, parents ...string) *Set {
	return &Set{Name: name, Parents: parents}
}

// AddType appends r unless an equal entry exists.
func (s *Set) AddType(r TypeRedirect) {
	s.types = common.AppendUnique(s.types, r)
}

// AddField appends r unless an equal entry exists.
func (s *Set) AddField(r FieldRedirect) {
	s.fields = common.AppendUnique(s.fields, r)
}

// AddMethod appends r unless an equal entry exists.
func (s *Set) AddMethod(r MethodRedirect) {
	s.methods = common.AppendUnique(s.methods, r)
}

// Types returns the type redirects in insertion order.
func (s *Set) Types() []TypeRedirect {
	return slices.Clone(s.types)
}

// Fields returns the field redirects in insertion order.
func (s *Set) Fields() []FieldRedirect {
	return slices.Clone(s.fields)
}

// Methods returns the method redirects in insertion order.
func (s *Set) Methods() []MethodRedirect {
	return slices.Clone(s.methods)
}

// IsEmpty reports whether the set has no entries.
func (s *Set) IsEmpty() bool {
	return len(s.types) == 0 && len(s.fields) == 0 && len(s.methods) == 0
}

// MergeIfNotPresent appends the entries of other that s does not hold yet.
// Existing entries keep their position.
func (s *Set) MergeIfNotPresent(other *Set) {
	for _, r := range other.types {
		s.AddType(r)
	}

	for _, r := range other.fields {
		s.AddField(r)
	}

	for _, r := range other.methods {
		s.AddMethod(r)
	}
}

// Clone returns a copy of s that shares no slices with it.
func (s *Set) Clone() *Set {
	return &Set{
		Name:    s.Name,
		Parents: slices.Clone(s.Parents),
		types:   slices.Clone(s.types),
		fields:  slices.Clone(s.fields),
		methods: slices.Clone(s.methods),
	}
}
