package transform

import (
	cf "bytegraft/internal/classfile"
	"bytegraft/internal/diagnostic"
)

const lambdaMetafactory = "java/lang/invoke/LambdaMetafactory"

// isLambdaBootstrap reports whether h is LambdaMetafactory.metafactory or
// altMetafactory.
func isLambdaBootstrap(h cf.Handle) bool {
	return h.Owner == lambdaMetafactory && (h.Name == "metafactory" || h.Name == "altMetafactory")
}

// selfReferences moves references to src over to dst. When dst is an
// interface, field references stay on src and calls become interface calls.
func selfReferences(code *cf.Code, src, dst string, dstInterface bool) {
	for _, insn := range code.Instructions {
		switch in := insn.(type) {
		case *cf.FieldInsn:
			if in.Owner == src && !dstInterface {
				in.Owner = dst
			}
		case *cf.MethodInsn:
			if in.Owner != src {
				continue
			}

			in.Owner = dst
			in.Interface = dstInterface

			if dstInterface && in.Op == cf.INVOKEVIRTUAL {
				in.Op = cf.INVOKEINTERFACE
			}
		case *cf.InvokeDynamicInsn:
			for i, arg := range in.Args {
				if h, ok := arg.(cf.Handle); ok {
					in.Args[i] = selfHandle(h, src, dst, dstInterface)
				}
			}
		case *cf.LdcInsn:
			if h, ok := in.Value.(cf.Handle); ok {
				in.Value = selfHandle(h, src, dst, dstInterface)
			}
		}
	}

	srcDesc, dstDesc := "L"+src+";", "L"+dst+";"

	for i := range code.LocalVars {
		if code.LocalVars[i].Desc == srcDesc {
			code.LocalVars[i].Desc = dstDesc
		}
	}

	for _, f := range code.Frames {
		selfFrameTypes(f.Locals, src, dst)
		selfFrameTypes(f.Stack, src, dst)
	}
}

func selfHandle(h cf.Handle, src, dst string, dstInterface bool) cf.Handle {
	if h.Owner != src || (h.IsField() && dstInterface) {
		return h
	}

	h.Owner = dst

	if !h.IsField() {
		h.Interface = dstInterface
		if dstInterface && h.Kind == cf.H_INVOKEVIRTUAL {
			h.Kind = cf.H_INVOKEINTERFACE
		}
	}

	return h
}

func selfFrameTypes(vts []cf.VerificationType, src, dst string) {
	for i := range vts {
		if vts[i].Tag == cf.ItemObject && vts[i].Class == src {
			vts[i].Class = dst
		}
	}
}

// crossClass applies cross-class redirects. Field accesses may only move
// when static. Calls become static calls on the new owner, with the receiver
// as first argument for instance calls; super and private calls cannot move.
func crossClass(code *cf.Code, t *tables) error {
	if len(t.crossFields) == 0 && len(t.crossMethods) == 0 {
		return nil
	}

	for _, insn := range code.Instructions {
		switch in := insn.(type) {
		case *cf.FieldInsn:
			ft, ok := t.crossFields[fieldKey(in.Owner, in.Name)]
			if !ok {
				continue
			}

			if in.Op != cf.GETSTATIC && in.Op != cf.PUTSTATIC {
				return diagnostic.Unsupportedf("%s %s.%s: instance field cannot move to %s",
					cf.OpcodeName(in.Op), in.Owner, in.Name, ft.owner)
			}

			in.Owner, in.Name = ft.owner, ft.name
		case *cf.MethodInsn:
			mt, ok := t.crossMethods[methodKey(in.Owner, in.Name, in.Desc)]
			if !ok {
				continue
			}

			d, ok := callDispatch(in.Op)
			if !ok {
				return diagnostic.Unsupportedf("%s %s.%s%s: cannot move to %s",
					cf.OpcodeName(in.Op), in.Owner, in.Name, in.Desc, mt.owner)
			}

			in.Desc = d.staticDesc(in.Owner, in.Desc)
			in.Op = cf.INVOKESTATIC
			in.Owner, in.Name, in.Interface = mt.owner, mt.name, mt.itf
		case *cf.InvokeDynamicInsn:
			if !isLambdaBootstrap(in.Bootstrap) {
				continue
			}

			for i, arg := range in.Args {
				h, ok := arg.(cf.Handle)
				if !ok {
					continue
				}

				moved, err := crossHandle(h, t)
				if err != nil {
					return err
				}

				in.Args[i] = moved
			}
		}
	}

	return nil
}

func crossHandle(h cf.Handle, t *tables) (cf.Handle, error) {
	if h.IsField() {
		if ft, ok := t.crossFields[fieldKey(h.Owner, h.Name)]; ok {
			return h, diagnostic.Unsupportedf("field handle %s.%s cannot move to %s", h.Owner, h.Name, ft.owner)
		}

		return h, nil
	}

	mt, ok := t.crossMethods[methodKey(h.Owner, h.Name, h.Desc)]
	if !ok {
		return h, nil
	}

	d, ok := handleDispatch(h.Kind)
	if !ok {
		return h, diagnostic.Unsupportedf("method handle kind %d %s.%s%s: cannot move to %s",
			h.Kind, h.Owner, h.Name, h.Desc, mt.owner)
	}

	return cf.Handle{
		Kind:      cf.H_INVOKESTATIC,
		Owner:     mt.owner,
		Name:      mt.name,
		Desc:      d.staticDesc(h.Owner, h.Desc),
		Interface: mt.itf,
	}, nil
}
