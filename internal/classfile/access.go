package classfile

// Access flags shared by classes, fields and methods.
const (
	AccPublic       uint16 = 0x0001
	AccPrivate      uint16 = 0x0002
	AccProtected    uint16 = 0x0004
	AccStatic       uint16 = 0x0008
	AccFinal        uint16 = 0x0010
	AccSuper        uint16 = 0x0020
	AccSynchronized uint16 = 0x0020
	AccVolatile     uint16 = 0x0040
	AccBridge       uint16 = 0x0040
	AccTransient    uint16 = 0x0080
	AccVarargs      uint16 = 0x0080
	AccNative       uint16 = 0x0100
	AccInterface    uint16 = 0x0200
	AccAbstract     uint16 = 0x0400
	AccStrict       uint16 = 0x0800
	AccSynthetic    uint16 = 0x1000
	AccAnnotation   uint16 = 0x2000
	AccEnum         uint16 = 0x4000
	AccModule       uint16 = 0x8000
)

// Well-known names.
const (
	ObjectClass = "java/lang/Object"
	StringClass = "java/lang/String"
	Constructor = "<init>"
	ClassInit   = "<clinit>"
)

// IsInterface reports whether the class is an interface.
func (c *ClassFile) IsInterface() bool {
	return c.Access&AccInterface != 0
}

// IsStatic reports whether the method is static.
func (m *Method) IsStatic() bool {
	return m.Access&AccStatic != 0
}

// IsSynthetic reports whether the method was generated by the compiler.
func (m *Method) IsSynthetic() bool {
	return m.Access&AccSynthetic != 0
}
