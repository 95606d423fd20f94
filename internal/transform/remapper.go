package transform

import (
	slogctx "github.com/veqryn/slog-context"

	cf "bytegraft/internal/classfile"
	"bytegraft/internal/diagnostic"
)

// redirectingRemapper renames through flattened tables. Names without a
// rule map to themselves; each such self mapping is recorded once. The
// source class itself maps to the destination unless the destination is an
// interface.
type redirectingRemapper struct {
	s      *state
	t      *tables
	from   string
	to     string
	known  map[string]bool
	selves map[string]bool
}

func (s *state) remapper(t *tables, srcName string) *redirectingRemapper {
	to := srcName
	if !s.dst.IsInterface() {
		to = s.dst.Name
	}

	return &redirectingRemapper{
		s:    s,
		t:    t,
		from: srcName,
		to:   to,
		known: map[string]bool{
			cf.ObjectClass: true,
			cf.StringClass: true,
			srcName:        true,
			s.dst.Name:     true,
		},
		selves: make(map[string]bool),
	}
}

func (r *redirectingRemapper) Map(internalName string) string {
	if mapped, ok := r.t.types[internalName]; ok {
		return mapped
	}

	if internalName == r.from {
		return r.to
	}

	if !r.known[internalName] {
		r.self("class", internalName)
	}

	return internalName
}

func (r *redirectingRemapper) MapFieldName(owner, name, _ string) string {
	key := fieldKey(owner, name)
	if mapped, ok := r.t.fields[key]; ok {
		return mapped
	}

	r.self("field", key)

	return name
}

func (r *redirectingRemapper) MapMethodName(owner, name, desc string) string {
	if name == cf.Constructor || name == cf.ClassInit {
		return name
	}

	key := methodKey(owner, name, desc)
	if mapped, ok := r.t.methods[key]; ok {
		return mapped
	}

	r.self("method", key)

	return name
}

func (r *redirectingRemapper) MapInvokeDynamicMethodName(name, desc string) string {
	if r.s.debug {
		slogctx.Debug(r.s.ctx, "invokedynamic kept", "name", name, "desc", desc)
	}

	return name
}

func (r *redirectingRemapper) self(kind, key string) {
	if r.selves[key] {
		return
	}

	r.selves[key] = true
	r.s.report.AddInfo(diagnostic.CodeSelfMapping, kind+" maps to itself", r.s.dst.Name, key)

	if r.s.debug {
		slogctx.Debug(r.s.ctx, "self redirect", "kind", kind, "key", key)
	}
}
