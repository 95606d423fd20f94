package classfile

import (
	"fmt"
	"strings"
)

var opcodeNames = map[int]string{
	NOP: "NOP", ACONST_NULL: "ACONST_NULL", ICONST_M1: "ICONST_M1", ICONST_0: "ICONST_0",
	ICONST_1: "ICONST_1", ICONST_2: "ICONST_2", ICONST_3: "ICONST_3", ICONST_4: "ICONST_4",
	ICONST_5: "ICONST_5", LCONST_0: "LCONST_0", LCONST_1: "LCONST_1", FCONST_0: "FCONST_0",
	FCONST_1: "FCONST_1", FCONST_2: "FCONST_2", DCONST_0: "DCONST_0", DCONST_1: "DCONST_1",
	BIPUSH: "BIPUSH", SIPUSH: "SIPUSH", LDC: "LDC",
	ILOAD: "ILOAD", LLOAD: "LLOAD", FLOAD: "FLOAD", DLOAD: "DLOAD", ALOAD: "ALOAD",
	0x2e: "IALOAD", 0x2f: "LALOAD", 0x30: "FALOAD", 0x31: "DALOAD", 0x32: "AALOAD",
	0x33: "BALOAD", 0x34: "CALOAD", 0x35: "SALOAD",
	ISTORE: "ISTORE", LSTORE: "LSTORE", FSTORE: "FSTORE", DSTORE: "DSTORE", ASTORE: "ASTORE",
	0x4f: "IASTORE", 0x50: "LASTORE", 0x51: "FASTORE", 0x52: "DASTORE", 0x53: "AASTORE",
	0x54: "BASTORE", 0x55: "CASTORE", 0x56: "SASTORE",
	POP: "POP", POP2: "POP2", DUP: "DUP", 0x5a: "DUP_X1", 0x5b: "DUP_X2", 0x5c: "DUP2",
	0x5d: "DUP2_X1", 0x5e: "DUP2_X2", SWAP: "SWAP",
	0x60: "IADD", 0x61: "LADD", 0x62: "FADD", 0x63: "DADD", 0x64: "ISUB", 0x65: "LSUB",
	0x66: "FSUB", 0x67: "DSUB", 0x68: "IMUL", 0x69: "LMUL", 0x6a: "FMUL", 0x6b: "DMUL",
	0x6c: "IDIV", 0x6d: "LDIV", 0x6e: "FDIV", 0x6f: "DDIV", 0x70: "IREM", 0x71: "LREM",
	0x72: "FREM", 0x73: "DREM", 0x74: "INEG", 0x75: "LNEG", 0x76: "FNEG", 0x77: "DNEG",
	0x78: "ISHL", 0x79: "LSHL", 0x7a: "ISHR", 0x7b: "LSHR", 0x7c: "IUSHR", 0x7d: "LUSHR",
	0x7e: "IAND", 0x7f: "LAND", 0x80: "IOR", 0x81: "LOR", 0x82: "IXOR", 0x83: "LXOR",
	IINC: "IINC", 0x85: "I2L", 0x86: "I2F", 0x87: "I2D", 0x88: "L2I", 0x89: "L2F",
	0x8a: "L2D", 0x8b: "F2I", 0x8c: "F2L", 0x8d: "F2D", 0x8e: "D2I", 0x8f: "D2L",
	0x90: "D2F", 0x91: "I2B", 0x92: "I2C", 0x93: "I2S", 0x94: "LCMP", 0x95: "FCMPL",
	0x96: "FCMPG", 0x97: "DCMPL", 0x98: "DCMPG",
	IFEQ: "IFEQ", IFNE: "IFNE", 0x9b: "IFLT", 0x9c: "IFGE", 0x9d: "IFGT", 0x9e: "IFLE",
	0x9f: "IF_ICMPEQ", 0xa0: "IF_ICMPNE", 0xa1: "IF_ICMPLT", 0xa2: "IF_ICMPGE",
	0xa3: "IF_ICMPGT", 0xa4: "IF_ICMPLE", 0xa5: "IF_ACMPEQ", IF_ACMPNE: "IF_ACMPNE",
	GOTO: "GOTO", JSR: "JSR", RET: "RET", TABLESWITCH: "TABLESWITCH", LOOKUPSWITCH: "LOOKUPSWITCH",
	IRETURN: "IRETURN", LRETURN: "LRETURN", FRETURN: "FRETURN", DRETURN: "DRETURN",
	ARETURN: "ARETURN", RETURN: "RETURN",
	GETSTATIC: "GETSTATIC", PUTSTATIC: "PUTSTATIC", GETFIELD: "GETFIELD", PUTFIELD: "PUTFIELD",
	INVOKEVIRTUAL: "INVOKEVIRTUAL", INVOKESPECIAL: "INVOKESPECIAL", INVOKESTATIC: "INVOKESTATIC",
	INVOKEINTERFACE: "INVOKEINTERFACE", INVOKEDYNAMIC: "INVOKEDYNAMIC",
	NEW: "NEW", NEWARRAY: "NEWARRAY", ANEWARRAY: "ANEWARRAY", ARRAYLENGTH: "ARRAYLENGTH",
	ATHROW: "ATHROW", CHECKCAST: "CHECKCAST", INSTANCEOF: "INSTANCEOF",
	MONITORENTER: "MONITORENTER", MONITOREXIT: "MONITOREXIT", MULTIANEWARRAY: "MULTIANEWARRAY",
	IFNULL: "IFNULL", IFNONNULL: "IFNONNULL", GOTO_W: "GOTO_W", JSR_W: "JSR_W",
}

// OpcodeName returns the mnemonic of op.
func OpcodeName(op int) string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}

	return fmt.Sprintf("OP_%#x", op)
}

// Text renders the instruction list one instruction per line. Labels are
// numbered in order of appearance, so two bodies with the same structure
// render identically.
func (c *Code) Text() []string {
	names := make(map[*Label]string)
	name := func(l *Label) string {
		if n, ok := names[l]; ok {
			return n
		}

		n := fmt.Sprintf("L%d", len(names))
		names[l] = n

		return n
	}

	for _, insn := range c.Instructions {
		if l, ok := insn.(*Label); ok {
			name(l)
		}
	}

	lines := make([]string, 0, len(c.Instructions))

	for _, insn := range c.Instructions {
		var line string

		switch in := insn.(type) {
		case *Label:
			line = name(in) + ":"
		case *Insn:
			line = OpcodeName(in.Op)
		case *IntInsn:
			line = fmt.Sprintf("%s %d", OpcodeName(in.Op), in.Operand)
		case *VarInsn:
			line = fmt.Sprintf("%s %d", OpcodeName(in.Op), in.Var)
		case *TypeInsn:
			line = OpcodeName(in.Op) + " " + in.Type
		case *FieldInsn:
			line = fmt.Sprintf("%s %s.%s : %s", OpcodeName(in.Op), in.Owner, in.Name, in.Desc)
		case *MethodInsn:
			line = fmt.Sprintf("%s %s.%s%s", OpcodeName(in.Op), in.Owner, in.Name, in.Desc)
			if in.Interface {
				line += " (itf)"
			}
		case *InvokeDynamicInsn:
			args := make([]string, len(in.Args))
			for i, a := range in.Args {
				args[i] = ConstantString(a)
			}

			line = fmt.Sprintf("INVOKEDYNAMIC %s%s %s [%s]", in.Name, in.Desc,
				ConstantString(in.Bootstrap), strings.Join(args, ", "))
		case *JumpInsn:
			line = OpcodeName(in.Op) + " " + name(in.Target)
		case *LdcInsn:
			line = "LDC " + ConstantString(in.Value)
		case *IincInsn:
			line = fmt.Sprintf("IINC %d %d", in.Var, in.Incr)
		case *TableSwitchInsn:
			targets := make([]string, len(in.Labels))
			for i, l := range in.Labels {
				targets[i] = name(l)
			}

			line = fmt.Sprintf("TABLESWITCH %d..%d [%s] default %s", in.Min, in.Max,
				strings.Join(targets, " "), name(in.Default))
		case *LookupSwitchInsn:
			pairs := make([]string, len(in.Labels))
			for i, l := range in.Labels {
				pairs[i] = fmt.Sprintf("%d:%s", in.Keys[i], name(l))
			}

			line = fmt.Sprintf("LOOKUPSWITCH [%s] default %s", strings.Join(pairs, " "), name(in.Default))
		case *MultiANewArrayInsn:
			line = fmt.Sprintf("MULTIANEWARRAY %s %d", in.Desc, in.Dims)
		default:
			line = fmt.Sprintf("?%T", insn)
		}

		lines = append(lines, line)
	}

	return lines
}

// ConstantString renders a constant for Text.
func ConstantString(v any) string {
	switch c := v.(type) {
	case string:
		return fmt.Sprintf("%q", c)
	case Type:
		return c.Descriptor()
	case Handle:
		itf := ""
		if c.Interface {
			itf = " itf"
		}

		return fmt.Sprintf("H%d %s.%s%s%s", c.Kind, c.Owner, c.Name, c.Desc, itf)
	case ConstantDynamic:
		return fmt.Sprintf("condy %s:%s %s", c.Name, c.Desc, ConstantString(c.Bootstrap))
	case int64:
		return fmt.Sprintf("%dL", c)
	case float32:
		return fmt.Sprintf("%gF", c)
	case float64:
		return fmt.Sprintf("%gD", c)
	default:
		return fmt.Sprint(v)
	}
}
