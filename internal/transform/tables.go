package transform

import (
	"maps"

	cf "bytegraft/internal/classfile"
	"bytegraft/internal/common"
	"bytegraft/internal/mapper"
	"bytegraft/internal/redirect"
	"bytegraft/internal/symbol"
)

// fieldTarget is where a cross-class field access goes.
type fieldTarget struct {
	owner string
	name  string
}

// methodTarget is where a cross-class call goes.
type methodTarget struct {
	owner string
	name  string
	itf   bool
}

// tables are the flattened redirects of an ordered set list, keyed by
// physical names: "owner.name" for fields and "owner.name+desc" for methods,
// owners in internal form.
type tables struct {
	types        map[string]string
	fields       map[string]string
	methods      map[string]string
	crossFields  map[string]fieldTarget
	crossMethods map[string]methodTarget
}

func fieldKey(owner, name string) string {
	return owner + "." + name
}

func methodKey(owner, name, desc string) string {
	return owner + "." + name + desc
}

// physical translates logical symbols through a NameMapper.
type physical struct {
	names mapper.NameMapper
}

func (p physical) class(c symbol.Class) string {
	return common.InternalName(p.names.MapClassName(c.Name))
}

func (p physical) desc(desc string) string {
	return cf.MapDesc(classNames(p), desc)
}

func (p physical) field(f symbol.Field) string {
	return fieldKey(p.class(f.Owner), p.names.MapFieldName(f.Owner.Name, f.Name, f.Desc))
}

func (p physical) method(m symbol.Method) (name, desc string) {
	return p.names.MapMethodName(m.MappingOwner.Name, m.Name, m.Desc), p.desc(m.Desc)
}

func (p physical) methodKey(m symbol.Method) string {
	name, desc := p.method(m)

	return methodKey(p.class(m.Owner), name, desc)
}

// classNames maps class names only.
type classNames physical

func (c classNames) Map(internalName string) string {
	return common.InternalName(c.names.MapClassName(common.DottedName(internalName)))
}

func (classNames) MapFieldName(_, name, _ string) string { return name }

func (classNames) MapMethodName(_, name, _ string) string { return name }

func (classNames) MapInvokeDynamicMethodName(name, _ string) string { return name }

// flatten builds lookup tables from sets. A later set overrides an earlier
// one on the same key, including a same-class rule replacing a cross-class
// one and the other way round.
func flatten(sets []*redirect.Set, p physical) *tables {
	t := &tables{
		types:        make(map[string]string),
		fields:       make(map[string]string),
		methods:      make(map[string]string),
		crossFields:  make(map[string]fieldTarget),
		crossMethods: make(map[string]methodTarget),
	}

	for _, s := range sets {
		for _, r := range s.Types() {
			t.types[p.class(r.Src)] = p.class(r.Dst)
		}

		for _, r := range s.Fields() {
			key := p.field(r.Field)
			if r.IsCrossClass() {
				delete(t.fields, key)
				t.crossFields[key] = fieldTarget{owner: p.class(r.NewOwner), name: r.DstName}
			} else {
				delete(t.crossFields, key)
				t.fields[key] = r.DstName
			}
		}

		for _, r := range s.Methods() {
			key := p.methodKey(r.Method)
			if r.IsCrossClass() {
				delete(t.methods, key)
				t.crossMethods[key] = methodTarget{owner: p.class(r.NewOwner), name: r.DstName, itf: r.DstInterface}
			} else {
				delete(t.crossMethods, key)
				t.methods[key] = r.DstName
			}
		}
	}

	return t
}

// withMethods returns a copy of t with extra same-class method renames.
func (t *tables) withMethods(extra map[string]string) *tables {
	if len(extra) == 0 {
		return t
	}

	out := *t
	out.methods = maps.Clone(t.methods)
	out.crossMethods = maps.Clone(t.crossMethods)

	for key, name := range extra {
		out.methods[key] = name
		delete(out.crossMethods, key)
	}

	return &out
}
