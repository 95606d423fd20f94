package document

import (
	"bytegraft/internal/diagnostic"
	"bytegraft/internal/frontend"
	"bytegraft/internal/redirect"
	"bytegraft/internal/symbol"
	"bytegraft/internal/target"
)

// Model converts the document. Sets are declared first; targets resolve the
// sets they use immediately, so every set they name must be declared in the
// same document.
func (d *Document) Model() (*frontend.Model, error) {
	global, err := parseImports(d.Imports)
	if err != nil {
		return nil, err
	}

	m := frontend.NewModel()

	for _, e := range d.Sets {
		s, err := buildSet(e, global)
		if err != nil {
			return nil, err
		}

		err = m.Registry.Declare(s)
		if err != nil {
			return nil, err
		}
	}

	for _, e := range d.Targets {
		t, err := buildTarget(m.Registry, e, global, d.DefaultSets)
		if err != nil {
			return nil, err
		}

		err = m.AddTarget(t)
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

func buildSet(e Entry[SetNode], global imports) (*redirect.Set, error) {
	if e.Key == "" {
		return nil, diagnostic.Configurationf("line %d: redirect set has an empty name", e.Line)
	}

	local, err := parseImports(e.Value.Imports)
	if err != nil {
		return nil, diagnostic.Configurationf("set %s: %s", e.Key, err)
	}

	im, err := local.with(global)
	if err != nil {
		return nil, diagnostic.Configurationf("set %s: %s", e.Key, err)
	}

	for _, parent := range e.Value.Extends {
		if parent == "" {
			return nil, diagnostic.Configurationf("set %s: empty name in extends", e.Key)
		}
	}

	s := redirect.NewSet(e.Key, e.Value.Extends...)

	for _, tr := range e.Value.TypeRedirects {
		src, err := im.class(tr.Key)
		if err != nil {
			return nil, diagnostic.Configurationf("set %s: type redirect %q: %s", e.Key, tr.Key, err)
		}

		dst, err := im.class(tr.Value)
		if err != nil {
			return nil, diagnostic.Configurationf("set %s: type redirect %q -> %q: %s", e.Key, tr.Key, tr.Value, err)
		}

		s.AddType(redirect.TypeRedirect{Src: src, Dst: dst})
	}

	for _, fr := range e.Value.FieldRedirects {
		r, err := fieldRedirect(im, fr)
		if err != nil {
			return nil, diagnostic.Configurationf("set %s: %s", e.Key, err)
		}

		s.AddField(r)
	}

	for _, mr := range e.Value.MethodRedirects {
		r, err := methodRedirect(im, mr)
		if err != nil {
			return nil, diagnostic.Configurationf("set %s: %s", e.Key, err)
		}

		s.AddMethod(r)
	}

	return s, nil
}

func fieldRedirect(im imports, e Entry[RedirectValue]) (redirect.FieldRedirect, error) {
	f, err := im.field(e.Key)
	if err != nil {
		return redirect.FieldRedirect{}, err
	}

	v := e.Value
	if !validName(v.NewName) {
		return redirect.FieldRedirect{}, diagnostic.Configurationf("field redirect %q has an invalid newName %q", e.Key, v.NewName)
	}

	if v.MappingsOwner != "" || v.IsDstInterface {
		return redirect.FieldRedirect{}, diagnostic.Configurationf("field redirect %q: only newName and newOwner apply to fields", e.Key)
	}

	r := redirect.FieldRedirect{Field: f, DstName: v.NewName}

	if v.NewOwner != "" {
		r.NewOwner, err = im.class(v.NewOwner)
		if err != nil {
			return redirect.FieldRedirect{}, diagnostic.Configurationf("field redirect %q: newOwner: %s", e.Key, err)
		}
	}

	return r, nil
}

func methodRedirect(im imports, e Entry[RedirectValue]) (redirect.MethodRedirect, error) {
	m, err := im.ownedMethod(e.Key)
	if err != nil {
		return redirect.MethodRedirect{}, err
	}

	v := e.Value
	if !validName(v.NewName) {
		return redirect.MethodRedirect{}, diagnostic.Configurationf("method redirect %q has an invalid newName %q", e.Key, v.NewName)
	}

	if v.MappingsOwner != "" {
		owner, err := im.class(v.MappingsOwner)
		if err != nil {
			return redirect.MethodRedirect{}, diagnostic.Configurationf("method redirect %q: mappingsOwner: %s", e.Key, err)
		}

		m = m.WithMappingOwner(owner)
	}

	r := redirect.MethodRedirect{Method: m, DstName: v.NewName, DstInterface: v.IsDstInterface}

	if v.NewOwner != "" {
		r.NewOwner, err = im.class(v.NewOwner)
		if err != nil {
			return redirect.MethodRedirect{}, diagnostic.Configurationf("method redirect %q: newOwner: %s", e.Key, err)
		}
	} else if v.IsDstInterface {
		return redirect.MethodRedirect{}, diagnostic.Configurationf("method redirect %q: isDstInterface needs newOwner", e.Key)
	}

	return r, nil
}

func buildTarget(reg *redirect.Registry, e Entry[TargetNode], im imports, defaults []string) (*target.Class, error) {
	if e.Key == "" {
		return nil, diagnostic.Configurationf("line %d: class target has an empty name", e.Line)
	}

	name, err := im.class(e.Key)
	if err != nil {
		return nil, diagnostic.Configurationf("class target %q: %s", e.Key, err)
	}

	node := e.Value

	names := defaults
	if node.UseSets != nil {
		names = *node.UseSets
	}

	sets, err := resolveSets(reg, names)
	if err != nil {
		return nil, diagnostic.Configurationf("class target %s: %s", name, err)
	}

	c := target.NewClass(name, sets...)
	c.DebugSelfRedirects = node.DebugSelfRedirects

	switch {
	case node.WholeClass != "" && node.TargetMethods != nil:
		return nil, diagnostic.Configurationf("class target %s has both wholeClass and targetMethods", name)

	case node.WholeClass != "":
		src, err := im.class(node.WholeClass)
		if err != nil {
			return nil, diagnostic.Configurationf("class target %s: wholeClass: %s", name, err)
		}

		return c, c.TargetWholeClass(src)

	case node.TargetMethods == nil:
		return c, c.TargetWholeClass(name)
	}

	for _, tm := range node.TargetMethods {
		m, err := targetMethod(reg, im, name, tm)
		if err != nil {
			return nil, diagnostic.Configurationf("class target %s: %s", name, err)
		}

		err = c.AddTarget(m)
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

func targetMethod(reg *redirect.Registry, im imports, owner symbol.Class, e Entry[TargetValue]) (*target.Method, error) {
	m, err := im.method(owner, e.Key)
	if err != nil {
		return nil, err
	}

	v := e.Value
	if !validName(v.NewName) {
		return nil, diagnostic.Configurationf("target method %q has an invalid newName %q", e.Key, v.NewName)
	}

	out := &target.Method{
		DstName:               v.NewName,
		ShouldClone:           v.Clone(),
		MakeSyntheticAccessor: v.MakeSyntheticAccessor,
	}

	mappingOwner := owner

	if v.CopyFrom != "" {
		out.SrcOwner, err = im.class(v.CopyFrom)
		if err != nil {
			return nil, diagnostic.Configurationf("target method %q: copyFrom: %s", e.Key, err)
		}

		mappingOwner = out.SrcOwner
	}

	if v.MappingsOwner != "" {
		mappingOwner, err = im.class(v.MappingsOwner)
		if err != nil {
			return nil, diagnostic.Configurationf("target method %q: mappingsOwner: %s", e.Key, err)
		}
	}

	out.Method = m.WithMappingOwner(mappingOwner)

	out.Sets, err = resolveSets(reg, v.UseSets)
	if err != nil {
		return nil, diagnostic.Configurationf("target method %q: %s", e.Key, err)
	}

	return out, nil
}

func resolveSets(reg *redirect.Registry, names []string) ([]*redirect.Set, error) {
	for _, n := range names {
		if n == "" {
			return nil, diagnostic.Configurationf("empty redirect set name")
		}
	}

	return reg.ResolveAll(names)
}
