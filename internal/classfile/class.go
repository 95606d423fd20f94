package classfile

// ClassFile is a parsed class.
type ClassFile struct {
	Minor      uint16
	Major      uint16
	Access     uint16
	Name       string
	SuperName  string
	Interfaces []string

	Signature           string
	SourceFile          string
	InnerClasses        []InnerClass
	EnclosingMethod     *EnclosingMethod
	NestHost            string
	NestMembers         []string
	PermittedSubclasses []string

	VisibleAnnotations   []*Annotation
	InvisibleAnnotations []*Annotation
	Attributes           []*Attribute

	Fields  []*Field
	Methods []*Method

	pool      *constPool
	bootstrap []BootstrapMethod
}

// Field is a field_info.
type Field struct {
	Access    uint16
	Name      string
	Desc      string
	Signature string
	// Value is the ConstantValue: int32, float32, int64, float64 or string.
	Value any

	VisibleAnnotations   []*Annotation
	InvisibleAnnotations []*Annotation
	Attributes           []*Attribute
}

// Method is a method_info. Code is nil for abstract and native methods.
type Method struct {
	Access     uint16
	Name       string
	Desc       string
	Signature  string
	Exceptions []string
	Code       *Code

	VisibleAnnotations   []*Annotation
	InvisibleAnnotations []*Annotation
	Attributes           []*Attribute
}

// InnerClass is an InnerClasses entry. OuterName and InnerName are empty
// for local and anonymous classes.
type InnerClass struct {
	Name      string
	OuterName string
	InnerName string
	Access    uint16
}

// EnclosingMethod is the EnclosingMethod attribute. Name and Desc are empty
// when the class is not enclosed by a method.
type EnclosingMethod struct {
	Owner string
	Name  string
	Desc  string
}

// Attribute is an attribute this package does not decode.
type Attribute struct {
	Name string
	Data []byte

	pool *constPool
}

// Annotation is a RuntimeVisibleAnnotations or RuntimeInvisibleAnnotations
// entry. Desc is the annotation type descriptor.
type Annotation struct {
	Desc   string
	Values []ElementPair
}

// ElementPair is one name=value of an annotation.
type ElementPair struct {
	Name  string
	Value ElementValue
}

// ElementValue is an annotation element value. Tag follows JVMS 4.7.16.1:
//
//	B C I S Z  Const is int32
//	D F J      Const is float64, float32, int64
//	s          Const is string
//	c          Const is a return descriptor string
//	e          EnumDesc and EnumName
//	@          Annotation
//	[          Array
type ElementValue struct {
	Tag        byte
	Const      any
	EnumDesc   string
	EnumName   string
	Annotation *Annotation
	Array      []ElementValue
}

// Value returns the element with the given name.
func (a *Annotation) Value(name string) (ElementValue, bool) {
	for _, p := range a.Values {
		if p.Name == name {
			return p.Value, true
		}
	}

	return ElementValue{}, false
}

// FindMethod returns the method with the given name and descriptor.
func (c *ClassFile) FindMethod(name, desc string) *Method {
	for _, m := range c.Methods {
		if m.Name == name && m.Desc == desc {
			return m
		}
	}

	return nil
}

// FindField returns the field with the given name and descriptor.
func (c *ClassFile) FindField(name, desc string) *Field {
	for _, f := range c.Fields {
		if f.Name == name && f.Desc == desc {
			return f
		}
	}

	return nil
}

// RemoveMethod deletes m from the class.
func (c *ClassFile) RemoveMethod(m *Method) {
	for i, cur := range c.Methods {
		if cur == m {
			c.Methods = append(c.Methods[:i:i], c.Methods[i+1:]...)
			return
		}
	}
}

// HasAnnotation reports whether any visible or invisible annotation has desc.
func HasAnnotation(visible, invisible []*Annotation, desc string) bool {
	return FindAnnotation(visible, invisible, desc) != nil
}

// FindAnnotation returns the first annotation with desc.
func FindAnnotation(visible, invisible []*Annotation, desc string) *Annotation {
	for _, list := range [][]*Annotation{visible, invisible} {
		for _, a := range list {
			if a.Desc == desc {
				return a
			}
		}
	}

	return nil
}

// RemoveAnnotation returns list without annotations of type desc.
func RemoveAnnotation(list []*Annotation, desc string) []*Annotation {
	out := list[:0:0]
	for _, a := range list {
		if a.Desc != desc {
			out = append(out, a)
		}
	}

	return out
}

// Shell returns a copy of c that keeps the version and constant pool
// but has no identity, members or attributes. Raw attributes added to the
// shell later remain writable if they share the pool.
func (c *ClassFile) Shell() *ClassFile {
	return &ClassFile{
		Minor:     c.Minor,
		Major:     c.Major,
		pool:      c.pool,
		bootstrap: c.bootstrap,
	}
}
