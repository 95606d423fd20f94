package classfile

// JVM opcodes. Compact forms such as ILOAD_0 and the wide prefix never appear
// in a decoded instruction list; they are chosen by the writer.
const (
	NOP             = 0x00
	ACONST_NULL     = 0x01
	ICONST_M1       = 0x02
	ICONST_0        = 0x03
	ICONST_1        = 0x04
	ICONST_2        = 0x05
	ICONST_3        = 0x06
	ICONST_4        = 0x07
	ICONST_5        = 0x08
	LCONST_0        = 0x09
	LCONST_1        = 0x0a
	FCONST_0        = 0x0b
	FCONST_1        = 0x0c
	FCONST_2        = 0x0d
	DCONST_0        = 0x0e
	DCONST_1        = 0x0f
	BIPUSH          = 0x10
	SIPUSH          = 0x11
	LDC             = 0x12
	LDC_W           = 0x13
	LDC2_W          = 0x14
	ILOAD           = 0x15
	LLOAD           = 0x16
	FLOAD           = 0x17
	DLOAD           = 0x18
	ALOAD           = 0x19
	ILOAD_0         = 0x1a
	ALOAD_3         = 0x2d
	IALOAD          = 0x2e
	SALOAD          = 0x35
	ISTORE          = 0x36
	LSTORE          = 0x37
	FSTORE          = 0x38
	DSTORE          = 0x39
	ASTORE          = 0x3a
	ISTORE_0        = 0x3b
	ASTORE_3        = 0x4e
	IASTORE         = 0x4f
	SASTORE         = 0x56
	POP             = 0x57
	POP2            = 0x58
	DUP             = 0x59
	SWAP            = 0x5f
	IADD            = 0x60
	LXOR            = 0x83
	IINC            = 0x84
	I2L             = 0x85
	DCMPG           = 0x98
	IFEQ            = 0x99
	IFNE            = 0x9a
	IF_ACMPNE       = 0xa6
	GOTO            = 0xa7
	JSR             = 0xa8
	RET             = 0xa9
	TABLESWITCH     = 0xaa
	LOOKUPSWITCH    = 0xab
	IRETURN         = 0xac
	LRETURN         = 0xad
	FRETURN         = 0xae
	DRETURN         = 0xaf
	ARETURN         = 0xb0
	RETURN          = 0xb1
	GETSTATIC       = 0xb2
	PUTSTATIC       = 0xb3
	GETFIELD        = 0xb4
	PUTFIELD        = 0xb5
	INVOKEVIRTUAL   = 0xb6
	INVOKESPECIAL   = 0xb7
	INVOKESTATIC    = 0xb8
	INVOKEINTERFACE = 0xb9
	INVOKEDYNAMIC   = 0xba
	NEW             = 0xbb
	NEWARRAY        = 0xbc
	ANEWARRAY       = 0xbd
	ARRAYLENGTH     = 0xbe
	ATHROW          = 0xbf
	CHECKCAST       = 0xc0
	INSTANCEOF      = 0xc1
	MONITORENTER    = 0xc2
	MONITOREXIT     = 0xc3
	WIDE            = 0xc4
	MULTIANEWARRAY  = 0xc5
	IFNULL          = 0xc6
	IFNONNULL       = 0xc7
	GOTO_W          = 0xc8
	JSR_W           = 0xc9
)

// Method handle kinds (JVMS 4.4.8).
const (
	H_GETFIELD         = 1
	H_GETSTATIC        = 2
	H_PUTFIELD         = 3
	H_PUTSTATIC        = 4
	H_INVOKEVIRTUAL    = 5
	H_INVOKESTATIC     = 6
	H_INVOKESPECIAL    = 7
	H_NEWINVOKESPECIAL = 8
	H_INVOKEINTERFACE  = 9
)

// Verification type tags used in stack map frames.
const (
	ItemTop               = 0
	ItemInteger           = 1
	ItemFloat             = 2
	ItemDouble            = 3
	ItemLong              = 4
	ItemNull              = 5
	ItemUninitializedThis = 6
	ItemObject            = 7
	ItemUninitialized     = 8
)

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// opFormat is the operand layout of an opcode in the code array.
type opFormat int

const (
	fmtInvalid opFormat = iota
	fmtNone
	fmtInt
	fmtVar
	fmtVarCompact
	fmtLdc
	fmtIinc
	fmtJump
	fmtJumpWide
	fmtTableSwitch
	fmtLookupSwitch
	fmtField
	fmtMethod
	fmtInvokeDynamic
	fmtType
	fmtMultiANewArray
	fmtWide
)

func formatOf(op int) opFormat {
	switch {
	case op >= NOP && op <= DCONST_1:
		return fmtNone
	case op == BIPUSH || op == SIPUSH || op == NEWARRAY:
		return fmtInt
	case op == LDC || op == LDC_W || op == LDC2_W:
		return fmtLdc
	case op >= ILOAD && op <= ALOAD, op >= ISTORE && op <= ASTORE, op == RET:
		return fmtVar
	case op >= ILOAD_0 && op <= ALOAD_3, op >= ISTORE_0 && op <= ASTORE_3:
		return fmtVarCompact
	case op >= IALOAD && op <= SALOAD, op >= IASTORE && op <= LXOR:
		return fmtNone
	case op == IINC:
		return fmtIinc
	case op >= I2L && op <= DCMPG:
		return fmtNone
	case op >= IFEQ && op <= JSR, op == IFNULL || op == IFNONNULL:
		return fmtJump
	case op == GOTO_W || op == JSR_W:
		return fmtJumpWide
	case op == TABLESWITCH:
		return fmtTableSwitch
	case op == LOOKUPSWITCH:
		return fmtLookupSwitch
	case op >= IRETURN && op <= RETURN:
		return fmtNone
	case op >= GETSTATIC && op <= PUTFIELD:
		return fmtField
	case op >= INVOKEVIRTUAL && op <= INVOKEINTERFACE:
		return fmtMethod
	case op == INVOKEDYNAMIC:
		return fmtInvokeDynamic
	case op == NEW || op == ANEWARRAY || op == CHECKCAST || op == INSTANCEOF:
		return fmtType
	case op == ARRAYLENGTH || op == ATHROW || op == MONITORENTER || op == MONITOREXIT:
		return fmtNone
	case op == MULTIANEWARRAY:
		return fmtMultiANewArray
	case op == WIDE:
		return fmtWide
	default:
		return fmtInvalid
	}
}
