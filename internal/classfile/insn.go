package classfile

// Instruction is one element of a Code instruction list.
type Instruction interface {
	// Opcode returns the JVM opcode, or -1 for a Label.
	Opcode() int
}

// Label marks a position in an instruction list. Labels are compared by
// identity, so the struct must not be zero-sized.
type Label struct {
	_ byte
}

func (*Label) Opcode() int { return -1 }

// Insn is an instruction without operands.
type Insn struct {
	Op int
}

func (i *Insn) Opcode() int { return i.Op }

// IntInsn is BIPUSH, SIPUSH or NEWARRAY.
type IntInsn struct {
	Op      int
	Operand int
}

func (i *IntInsn) Opcode() int { return i.Op }

// VarInsn loads or stores a local variable, or is RET.
type VarInsn struct {
	Op  int
	Var int
}

func (i *VarInsn) Opcode() int { return i.Op }

// TypeInsn is NEW, ANEWARRAY, CHECKCAST or INSTANCEOF. Type is an internal
// name or an array descriptor.
type TypeInsn struct {
	Op   int
	Type string
}

func (i *TypeInsn) Opcode() int { return i.Op }

// FieldInsn accesses a field.
type FieldInsn struct {
	Op    int
	Owner string
	Name  string
	Desc  string
}

func (i *FieldInsn) Opcode() int { return i.Op }

// MethodInsn invokes a method. Interface tells whether the owner is an
// interface, which selects the InterfaceMethodref pool entry.
type MethodInsn struct {
	Op        int
	Owner     string
	Name      string
	Desc      string
	Interface bool
}

func (i *MethodInsn) Opcode() int { return i.Op }

// InvokeDynamicInsn is an INVOKEDYNAMIC call site.
type InvokeDynamicInsn struct {
	Name      string
	Desc      string
	Bootstrap Handle
	Args      []any
}

func (*InvokeDynamicInsn) Opcode() int { return INVOKEDYNAMIC }

// JumpInsn is a conditional or unconditional branch.
type JumpInsn struct {
	Op     int
	Target *Label
}

func (i *JumpInsn) Opcode() int { return i.Op }

// LdcInsn pushes a constant. The writer picks LDC, LDC_W or LDC2_W.
type LdcInsn struct {
	Value any
}

func (*LdcInsn) Opcode() int { return LDC }

// IincInsn increments a local variable.
type IincInsn struct {
	Var  int
	Incr int
}

func (*IincInsn) Opcode() int { return IINC }

// TableSwitchInsn jumps through a dense table.
type TableSwitchInsn struct {
	Min     int32
	Max     int32
	Default *Label
	Labels  []*Label
}

func (*TableSwitchInsn) Opcode() int { return TABLESWITCH }

// LookupSwitchInsn jumps through sorted key/label pairs.
type LookupSwitchInsn struct {
	Default *Label
	Keys    []int32
	Labels  []*Label
}

func (*LookupSwitchInsn) Opcode() int { return LOOKUPSWITCH }

// MultiANewArrayInsn creates a multi-dimensional array.
type MultiANewArrayInsn struct {
	Desc string
	Dims int
}

func (*MultiANewArrayInsn) Opcode() int { return MULTIANEWARRAY }

// Handle is a CONSTANT_MethodHandle.
type Handle struct {
	Kind      int
	Owner     string
	Name      string
	Desc      string
	Interface bool
}

// IsField reports whether h refers to a field.
func (h Handle) IsField() bool {
	return h.Kind >= H_GETFIELD && h.Kind <= H_PUTSTATIC
}

// ConstantDynamic is a CONSTANT_Dynamic.
type ConstantDynamic struct {
	Name      string
	Desc      string
	Bootstrap Handle
	Args      []any
}

// BootstrapMethod is an entry of the BootstrapMethods table.
type BootstrapMethod struct {
	Handle Handle
	Args   []any
}

// TryCatchBlock is an exception table entry. Type is empty for a handler
// that catches everything.
type TryCatchBlock struct {
	Start   *Label
	End     *Label
	Handler *Label
	Type    string
}

// LineNumber maps the instruction at Start to a source line.
type LineNumber struct {
	Line  int
	Start *Label
}

// LocalVariable is a LocalVariableTable entry. In LocalVariableTypeTable
// entries Desc holds the generic signature.
type LocalVariable struct {
	Name  string
	Desc  string
	Start *Label
	End   *Label
	Index int
}

// VerificationType is a stack map frame slot. Class is set for ItemObject,
// New for ItemUninitialized.
type VerificationType struct {
	Tag   int
	Class string
	New   *Label
}

// Frame is a stack map frame in its expanded form.
type Frame struct {
	At     *Label
	Locals []VerificationType
	Stack  []VerificationType
}

// Code is the body of a method.
type Code struct {
	MaxStack      int
	MaxLocals     int
	Instructions  []Instruction
	TryCatch      []TryCatchBlock
	LineNumbers   []LineNumber
	LocalVars     []LocalVariable
	LocalVarTypes []LocalVariable
	Frames        []Frame
	Attributes    []*Attribute
}

// Add appends instructions.
func (c *Code) Add(insns ...Instruction) {
	c.Instructions = append(c.Instructions, insns...)
}
