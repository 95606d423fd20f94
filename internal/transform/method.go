package transform

import (
	"fmt"
	"strings"

	slogctx "github.com/veqryn/slog-context"

	cf "bytegraft/internal/classfile"
	"bytegraft/internal/diagnostic"
	"bytegraft/internal/match"
	"bytegraft/internal/target"
)

// method produces one target method.
func (s *state) method(tm *target.Method) error {
	src, err := s.source(tm.Source())
	if err != nil {
		return err
	}

	name, desc := s.names.method(tm.Method)

	source := src.FindMethod(name, desc)
	if source == nil {
		return missingMethod(src, name, desc, tm)
	}

	t := flatten(s.target.EffectiveSets(tm), s.names)

	var out *cf.Method
	if tm.ShouldClone {
		out, err = s.clone(src, source, tm.DstName, t)
	} else {
		out, err = s.inPlace(source, tm.DstName, t)
	}

	if err != nil {
		return err
	}

	member := out.Name + out.Desc
	if prev, ok := s.produced[member]; ok {
		return diagnostic.Invariantf("%s: targets %s and %s both produce %s",
			s.dst.Name, prev.Method, tm.Method, member)
	}

	s.produced[member] = tm

	if tm.MakeSyntheticAccessor {
		return s.accessor(out)
	}

	return nil
}

// suggestions is the most similar method names a resolution error lists.
const suggestions = 3

func missingMethod(src *cf.ClassFile, name, desc string, tm *target.Method) error {
	names := make([]string, 0, len(src.Methods))
	for _, m := range src.Methods {
		names = append(names, m.Name+m.Desc)
	}

	if similar := match.Suggest(name+desc, names, suggestions); len(similar) > 0 {
		return diagnostic.Resolutionf("method %s%s not found in %s (declared as %s); similar: %s",
			name, desc, src.Name, tm.Method, strings.Join(similar, ", "))
	}

	return diagnostic.Resolutionf("method %s%s not found in %s (declared as %s)", name, desc, src.Name, tm.Method)
}

// prepare copies the lambda helpers of source, then returns a renamed copy
// of source with its body rewritten for the destination.
func (s *state) prepare(src *cf.ClassFile, source *cf.Method, newName string, base *tables) (*cf.Method, error) {
	if source.Code == nil {
		return nil, diagnostic.Unsupportedf("method %s.%s%s has no code", src.Name, source.Name, source.Desc)
	}

	renames, err := s.copyHelpers(src, source, base)
	if err != nil {
		return nil, err
	}

	t := base.withMethods(renames)
	r := s.remapper(t, src.Name)

	out := source.Clone()
	out.Name = newName
	out.Desc = cf.MapMethodDesc(r, source.Desc)
	out.Signature = cf.MapSignature(r, out.Signature)

	for i, e := range out.Exceptions {
		out.Exceptions[i] = cf.MapType(r, e)
	}

	cf.RemapAnnotations(r, out.VisibleAnnotations)
	cf.RemapAnnotations(r, out.InvisibleAnnotations)

	if src.Name != s.dst.Name {
		selfReferences(out.Code, src.Name, s.dst.Name, s.dst.IsInterface())
	}

	if err := crossClass(out.Code, t); err != nil {
		return nil, err
	}

	cf.RemapCode(r, out.Code)

	return out, nil
}

// clone copies source from src into the destination as newName. A stub with
// the same signature is filled in; any other method with that signature is
// replaced.
func (s *state) clone(src *cf.ClassFile, source *cf.Method, newName string, base *tables) (*cf.Method, error) {
	out, err := s.prepare(src, source, newName, base)
	if err != nil {
		return nil, err
	}

	member := out.Name + out.Desc

	if existing := s.dst.FindMethod(out.Name, out.Desc); existing != nil {
		if s.isStub(existing) {
			existing.VisibleAnnotations = cf.RemoveAnnotation(existing.VisibleAnnotations, s.config.StubMarker)
			existing.InvisibleAnnotations = cf.RemoveAnnotation(existing.InvisibleAnnotations, s.config.StubMarker)
			existing.Code = out.Code
			existing.Exceptions = out.Exceptions
			widen(existing, cf.AccPrivate|cf.AccProtected|cf.AccNative|cf.AccAbstract)

			s.info(diagnostic.CodeStubReused, fmt.Sprintf("filled stub from %s.%s%s", src.Name, source.Name, source.Desc), member)
			s.report.Methods = append(s.report.Methods, member)

			return existing, nil
		}

		s.dst.RemoveMethod(existing)
		s.warn(diagnostic.CodeMethodReplaced, "replaced existing method", member)
	}

	widen(out, cf.AccPrivate|cf.AccProtected|cf.AccNative|cf.AccAbstract)
	s.dst.Methods = append(s.dst.Methods, out)
	s.report.Methods = append(s.report.Methods, member)

	slogctx.Info(s.ctx, "Cloned method", "from", src.Name+"."+source.Name+source.Desc, "to", member)

	return out, nil
}

// inPlace rewrites a destination method under newName.
func (s *state) inPlace(source *cf.Method, newName string, base *tables) (*cf.Method, error) {
	out, err := s.prepare(s.dst, source, newName, base)
	if err != nil {
		return nil, err
	}

	s.dst.RemoveMethod(source)

	member := out.Name + out.Desc
	if existing := s.dst.FindMethod(out.Name, out.Desc); existing != nil {
		s.dst.RemoveMethod(existing)
		s.warn(diagnostic.CodeMethodReplaced, "replaced existing method", member)
	}

	widen(out, cf.AccPrivate|cf.AccProtected|cf.AccNative)
	s.dst.Methods = append(s.dst.Methods, out)
	s.report.Methods = append(s.report.Methods, member)

	return out, nil
}

func (s *state) isStub(m *cf.Method) bool {
	return s.config.StubMarker != "" &&
		cf.HasAnnotation(m.VisibleAnnotations, m.InvisibleAnnotations, s.config.StubMarker)
}

// widen makes m public and clears flags.
func widen(m *cf.Method, flags uint16) {
	m.Access = m.Access&^flags | cf.AccPublic
}

// copyHelpers copies every synthetic lambda helper of src that body refers
// to through a LambdaMetafactory call site. It returns the renames that point
// the call sites at the copies, keyed for both src and the destination since
// self references may already have moved.
func (s *state) copyHelpers(src *cf.ClassFile, body *cf.Method, base *tables) (map[string]string, error) {
	renames := make(map[string]string)

	for _, insn := range body.Code.Instructions {
		indy, ok := insn.(*cf.InvokeDynamicInsn)
		if !ok || !isLambdaBootstrap(indy.Bootstrap) {
			continue
		}

		for _, arg := range indy.Args {
			h, ok := arg.(cf.Handle)
			if !ok || h.IsField() || h.Owner != src.Name {
				continue
			}

			helper := src.FindMethod(h.Name, h.Desc)
			if helper == nil || !helper.IsSynthetic() {
				continue
			}

			key := methodKey(src.Name, h.Name, h.Desc)
			newName, seen := s.helpers[key]

			if !seen {
				newName = s.config.HelperPrefix + h.Name
				s.helpers[key] = newName

				copied, err := s.prepare(src, helper, newName, base)
				if err != nil {
					return nil, err
				}

				s.insertHelper(copied)
				s.info(diagnostic.CodeHelperCloned, "copied lambda helper "+key, copied.Name+copied.Desc)
			}

			renames[key] = newName
			renames[methodKey(s.dst.Name, h.Name, h.Desc)] = newName
		}
	}

	return renames, nil
}

// insertHelper adds a helper copy, replacing an earlier copy of the same
// signature left by a previous run.
func (s *state) insertHelper(m *cf.Method) {
	if existing := s.dst.FindMethod(m.Name, m.Desc); existing != nil {
		s.dst.RemoveMethod(existing)
	}

	widen(m, cf.AccPrivate|cf.AccProtected)
	s.dst.Methods = append(s.dst.Methods, m)
}
