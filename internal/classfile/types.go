package classfile

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Sort classifies a Type.
type Sort int

const (
	SortVoid Sort = iota
	SortBoolean
	SortChar
	SortByte
	SortShort
	SortInt
	SortFloat
	SortLong
	SortDouble
	SortArray
	SortObject
	SortMethod
)

// Type is a JVM type identified by its descriptor: "I", "[J",
// "Ljava/lang/String;" or, for method types, "(II)V".
type Type struct {
	desc string
}

// TypeOf returns the type with the given field or method descriptor.
func TypeOf(desc string) Type {
	return Type{desc: desc}
}

// ObjectType returns the type for an internal name. Array descriptors
// ("[I") are accepted as-is, mirroring CONSTANT_Class contents.
func ObjectType(internalName string) Type {
	if strings.HasPrefix(internalName, "[") {
		return Type{desc: internalName}
	}

	return Type{desc: "L" + internalName + ";"}
}

// Descriptor returns the descriptor of t.
func (t Type) Descriptor() string {
	return t.desc
}

// Sort returns the kind of t.
func (t Type) Sort() Sort {
	if t.desc == "" {
		return SortVoid
	}

	switch t.desc[0] {
	case 'V':
		return SortVoid
	case 'Z':
		return SortBoolean
	case 'C':
		return SortChar
	case 'B':
		return SortByte
	case 'S':
		return SortShort
	case 'I':
		return SortInt
	case 'F':
		return SortFloat
	case 'J':
		return SortLong
	case 'D':
		return SortDouble
	case '[':
		return SortArray
	case '(':
		return SortMethod
	default:
		return SortObject
	}
}

// InternalName returns "java/lang/String" for object types and the
// descriptor for arrays. It is what CONSTANT_Class stores.
func (t Type) InternalName() string {
	if t.Sort() == SortObject {
		return t.desc[1 : len(t.desc)-1]
	}

	return t.desc
}

// ClassName returns the Java source form: "int", "a.b.C", "a.b.C[][]".
func (t Type) ClassName() string {
	switch t.Sort() {
	case SortVoid:
		return "void"
	case SortBoolean:
		return "boolean"
	case SortChar:
		return "char"
	case SortByte:
		return "byte"
	case SortShort:
		return "short"
	case SortInt:
		return "int"
	case SortFloat:
		return "float"
	case SortLong:
		return "long"
	case SortDouble:
		return "double"
	case SortArray:
		return t.ElementType().ClassName() + strings.Repeat("[]", t.Dimensions())
	case SortObject:
		return strings.ReplaceAll(t.InternalName(), "/", ".")
	default:
		return t.desc
	}
}

// Dimensions returns the number of array dimensions of t.
func (t Type) Dimensions() int {
	n := 0
	for n < len(t.desc) && t.desc[n] == '[' {
		n++
	}

	return n
}

// ElementType returns the element type of an array type.
func (t Type) ElementType() Type {
	return Type{desc: t.desc[t.Dimensions():]}
}

// Size returns the number of local variable slots a value of t occupies.
func (t Type) Size() int {
	switch t.Sort() {
	case SortVoid:
		return 0
	case SortLong, SortDouble:
		return 2
	default:
		return 1
	}
}

// IsReference reports whether t is an object or array type.
func (t Type) IsReference() bool {
	s := t.Sort()
	return s == SortObject || s == SortArray
}

func (t Type) String() string {
	return t.desc
}

// ArgumentTypes returns the parameter types of a method descriptor.
func ArgumentTypes(methodDesc string) []Type {
	var args []Type

	i := 1
	for i < len(methodDesc) && methodDesc[i] != ')' {
		end := fieldDescEnd(methodDesc, i)
		args = append(args, Type{desc: methodDesc[i:end]})
		i = end
	}

	return args
}

// ReturnType returns the return type of a method descriptor.
func ReturnType(methodDesc string) Type {
	i := strings.IndexByte(methodDesc, ')')
	return Type{desc: methodDesc[i+1:]}
}

// MethodDescriptor builds "(args)ret".
func MethodDescriptor(ret Type, args ...Type) string {
	var sb strings.Builder

	sb.WriteByte('(')
	for _, a := range args {
		sb.WriteString(a.desc)
	}
	sb.WriteByte(')')
	sb.WriteString(ret.desc)

	return sb.String()
}

// ArgumentsSize returns the number of local slots the parameters of
// methodDesc occupy, not counting the receiver.
func ArgumentsSize(methodDesc string) int {
	n := 0
	for _, a := range ArgumentTypes(methodDesc) {
		n += a.Size()
	}

	return n
}

func fieldDescEnd(desc string, i int) int {
	for i < len(desc) && desc[i] == '[' {
		i++
	}

	if i < len(desc) && desc[i] == 'L' {
		if j := strings.IndexByte(desc[i:], ';'); j >= 0 {
			return i + j + 1
		}

		return len(desc)
	}

	return i + 1
}

var primitiveDescriptors = map[string]string{
	"void":    "V",
	"boolean": "Z",
	"char":    "C",
	"byte":    "B",
	"short":   "S",
	"int":     "I",
	"float":   "F",
	"long":    "J",
	"double":  "D",
}

// IsPrimitiveName reports whether name is a Java primitive type or void.
func IsPrimitiveName(name string) bool {
	_, ok := primitiveDescriptors[name]

	return ok
}

// DescriptorOf converts a Java source type name ("int", "a.b.C",
// "a.b.C[]") into a descriptor.
func DescriptorOf(javaName string) (string, error) {
	name := strings.TrimSpace(javaName)
	dims := 0

	for strings.HasSuffix(name, "[]") {
		name = strings.TrimSpace(strings.TrimSuffix(name, "[]"))
		dims++
	}

	if name == "" || strings.ContainsAny(name, "[]<>();/ ") {
		return "", errors.Errorf("%w: invalid type name %q", ErrMalformed, javaName)
	}

	elem, ok := primitiveDescriptors[name]
	if !ok {
		elem = "L" + strings.ReplaceAll(name, ".", "/") + ";"
	} else if name == "void" && dims > 0 {
		return "", errors.Errorf("%w: invalid type name %q", ErrMalformed, javaName)
	}

	return strings.Repeat("[", dims) + elem, nil
}

// MethodDescriptorOf builds a method descriptor from Java source type names.
func MethodDescriptorOf(ret string, args ...string) (string, error) {
	retDesc, err := DescriptorOf(ret)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	sb.WriteByte('(')

	for _, a := range args {
		d, err := DescriptorOf(a)
		if err != nil {
			return "", err
		}

		if d == "V" {
			return "", errors.Errorf("%w: void parameter", ErrMalformed)
		}

		sb.WriteString(d)
	}

	sb.WriteByte(')')
	sb.WriteString(retDesc)

	return sb.String(), nil
}

// LoadOpcode returns the xLOAD opcode for values of t.
func LoadOpcode(t Type) int {
	return typedOpcode(t, ILOAD)
}

// ReturnOpcode returns the xRETURN opcode for values of t.
func ReturnOpcode(t Type) int {
	if t.Sort() == SortVoid {
		return RETURN
	}

	return typedOpcode(t, IRETURN)
}

// typedOpcode follows the I, L, F, D, A ordering shared by the load, store
// and return opcode families.
func typedOpcode(t Type, intOp int) int {
	switch t.Sort() {
	case SortLong:
		return intOp + 1
	case SortFloat:
		return intOp + 2
	case SortDouble:
		return intOp + 3
	case SortArray, SortObject:
		return intOp + 4
	default:
		return intOp
	}
}
