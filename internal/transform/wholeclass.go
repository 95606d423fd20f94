package transform

import (
	"slices"

	slogctx "github.com/veqryn/slog-context"

	cf "bytegraft/internal/classfile"
	"bytegraft/internal/diagnostic"
	"bytegraft/internal/symbol"
)

// wholeClass replaces the members of the destination with the rewritten
// members of c. Members the destination declared before keep precedence
// over transplanted ones of the same signature. When c is the destination
// itself, every member is rewritten in place.
func (s *state) wholeClass(c symbol.Class) error {
	src, err := s.source(c)
	if err != nil {
		return err
	}

	t := flatten(s.target.Sets, s.names)
	r := s.remapper(t, src.Name)
	same := src == s.dst

	slogctx.Info(s.ctx, "Transforming whole class", "from", src.Name)

	transplanted := src.Clone()

	for _, f := range transplanted.Fields {
		cf.RemapField(r, src.Name, f)
	}

	for _, m := range transplanted.Methods {
		if m.Code != nil {
			if !same {
				selfReferences(m.Code, src.Name, s.dst.Name, s.dst.IsInterface())
			}

			if err := crossClass(m.Code, t); err != nil {
				return err
			}
		}

		cf.RemapMethod(r, src.Name, m)
	}

	out := s.dst.Shell()
	header(out, s.dst)
	cf.RemapHeader(r, out)
	out.Name = s.dst.Name

	if same {
		out.Fields = transplanted.Fields
		out.Methods = transplanted.Methods
	} else {
		if err := s.replay(r, t); err != nil {
			return err
		}

		cf.RemapHeader(r, transplanted)
		mergeHeader(out, transplanted)
		out.Fields = s.mergeFields(transplanted.Fields, s.dst.Fields)
		out.Methods = s.mergeMethods(transplanted.Methods, s.dst.Methods)
	}

	*s.dst = *out

	for _, m := range s.dst.Methods {
		s.report.Methods = append(s.report.Methods, m.Name+m.Desc)
	}

	return nil
}

// replay rewrites the members the destination declared before the
// transplant with the same tables as the transplanted ones.
func (s *state) replay(r *redirectingRemapper, t *tables) error {
	for _, f := range s.dst.Fields {
		cf.RemapField(r, s.dst.Name, f)
	}

	for _, m := range s.dst.Methods {
		if m.Code != nil {
			if err := crossClass(m.Code, t); err != nil {
				return err
			}
		}

		cf.RemapMethod(r, s.dst.Name, m)
	}

	return nil
}

// header copies the identity and class attributes of from.
func header(to, from *cf.ClassFile) {
	snapshot := from.Clone()

	to.Access = snapshot.Access
	to.Name = snapshot.Name
	to.SuperName = snapshot.SuperName
	to.Interfaces = snapshot.Interfaces
	to.Signature = snapshot.Signature
	to.SourceFile = snapshot.SourceFile
	to.InnerClasses = snapshot.InnerClasses
	to.EnclosingMethod = snapshot.EnclosingMethod
	to.NestHost = snapshot.NestHost
	to.NestMembers = snapshot.NestMembers
	to.PermittedSubclasses = snapshot.PermittedSubclasses
	to.VisibleAnnotations = snapshot.VisibleAnnotations
	to.InvisibleAnnotations = snapshot.InvisibleAnnotations
	to.Attributes = snapshot.Attributes
}

// mergeHeader adds the annotations and inner classes of src that dst does
// not declare.
func mergeHeader(dst, src *cf.ClassFile) {
	for _, a := range src.VisibleAnnotations {
		if cf.FindAnnotation(dst.VisibleAnnotations, dst.InvisibleAnnotations, a.Desc) == nil {
			dst.VisibleAnnotations = append(dst.VisibleAnnotations, a)
		}
	}

	for _, a := range src.InvisibleAnnotations {
		if cf.FindAnnotation(dst.VisibleAnnotations, dst.InvisibleAnnotations, a.Desc) == nil {
			dst.InvisibleAnnotations = append(dst.InvisibleAnnotations, a)
		}
	}

	known := make(map[string]bool, len(dst.InnerClasses))
	for _, ic := range dst.InnerClasses {
		known[ic.Name] = true
	}

	for _, ic := range src.InnerClasses {
		if !known[ic.Name] && ic.Name != dst.Name {
			dst.InnerClasses = append(dst.InnerClasses, ic)
			known[ic.Name] = true
		}
	}

	if dst.SourceFile == "" {
		dst.SourceFile = src.SourceFile
	}
}

func (s *state) mergeFields(transplanted, own []*cf.Field) []*cf.Field {
	out := transplanted

	for _, f := range own {
		i := slices.IndexFunc(out, func(o *cf.Field) bool { return o.Name == f.Name && o.Desc == f.Desc })
		if i < 0 {
			out = append(out, f)
			continue
		}

		out[i] = f
		s.warn(diagnostic.CodeMemberOverridden, "destination field kept over transplanted one", f.Name+":"+f.Desc)
	}

	return out
}

func (s *state) mergeMethods(transplanted, own []*cf.Method) []*cf.Method {
	out := transplanted

	for _, m := range own {
		i := slices.IndexFunc(out, func(o *cf.Method) bool { return o.Name == m.Name && o.Desc == m.Desc })
		if i < 0 {
			out = append(out, m)
			continue
		}

		out[i] = m
		s.warn(diagnostic.CodeMemberOverridden, "destination method kept over transplanted one", m.Name+m.Desc)
	}

	return out
}
