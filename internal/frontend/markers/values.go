package markers

import (
	"strings"

	cf "bytegraft/internal/classfile"
	"bytegraft/internal/common"
	"bytegraft/internal/diagnostic"
	"bytegraft/internal/symbol"
)

// element reads typed values out of one annotation. Missing elements take
// the given default, as the compiler omits elements left at their default.
type element struct {
	a *cf.Annotation
}

func (e element) fail(name, want string) error {
	return diagnostic.Configurationf("annotation %s: element %q is not %s", e.a.Desc, name, want)
}

func (e element) str(name, def string) (string, error) {
	v, ok := e.a.Value(name)
	if !ok {
		return def, nil
	}

	s, isString := v.Const.(string)
	if v.Tag != 's' || !isString {
		return "", e.fail(name, "a string")
	}

	return s, nil
}

func (e element) boolean(name string, def bool) (bool, error) {
	v, ok := e.a.Value(name)
	if !ok {
		return def, nil
	}

	n, isInt := v.Const.(int32)
	if v.Tag != 'Z' || !isInt {
		return false, e.fail(name, "a boolean")
	}

	return n != 0, nil
}

func (e element) enum(name, def string) (string, error) {
	v, ok := e.a.Value(name)
	if !ok {
		return def, nil
	}

	if v.Tag != 'e' {
		return "", e.fail(name, "an enum constant")
	}

	return v.EnumName, nil
}

// class returns the descriptor of a class literal.
func (e element) class(name, def string) (string, error) {
	v, ok := e.a.Value(name)
	if !ok {
		return def, nil
	}

	s, isString := v.Const.(string)
	if v.Tag != 'c' || !isString {
		return "", e.fail(name, "a class literal")
	}

	return s, nil
}

// classes returns the descriptors of a class literal array. A single class
// literal is accepted as a one-element array.
func (e element) classes(name string) ([]string, bool, error) {
	v, ok := e.a.Value(name)
	if !ok {
		return nil, false, nil
	}

	items := v.Array
	if v.Tag != '[' {
		items = []cf.ElementValue{v}
	}

	out := make([]string, 0, len(items))

	for _, item := range items {
		s, isString := item.Const.(string)
		if item.Tag != 'c' || !isString {
			return nil, true, e.fail(name, "an array of class literals")
		}

		out = append(out, s)
	}

	return out, true, nil
}

func (e element) nested(name string) (element, bool, error) {
	v, ok := e.a.Value(name)
	if !ok {
		return element{}, false, nil
	}

	if v.Tag != '@' || v.Annotation == nil {
		return element{}, true, e.fail(name, "an annotation")
	}

	return element{v.Annotation}, true, nil
}

// classOf converts a class literal descriptor into a class symbol.
func classOf(desc string) (symbol.Class, error) {
	t := cf.TypeOf(desc)
	if t.Sort() != cf.SortObject {
		return symbol.Class{}, diagnostic.Configurationf("%s is not a class", desc)
	}

	return symbol.ClassFromInternal(t.InternalName()), nil
}

// ref decodes a Ref marker. The string form wins over the class literal;
// java.lang.Object, the default, means no class and yields the zero value.
func ref(e element, name string) (symbol.Class, error) {
	r, ok, err := e.nested(name)
	if err != nil || !ok {
		return symbol.Class{}, err
	}

	s, err := r.str("string", "")
	if err != nil {
		return symbol.Class{}, err
	}

	var c symbol.Class

	if s != "" {
		c = symbol.NewClass(common.DottedName(s))
	} else {
		desc, err := r.class("value", "L"+cf.ObjectClass+";")
		if err != nil {
			return symbol.Class{}, err
		}

		c, err = classOf(desc)
		if err != nil {
			return symbol.Class{}, err
		}
	}

	if c.InternalName() == cf.ObjectClass {
		return symbol.Class{}, nil
	}

	return c, nil
}

// methodSig decodes a MethodSig marker into a name and descriptor. The
// value form is "name(desc)ret"; otherwise name, ret and args apply.
func methodSig(e element, name string) (string, string, error) {
	sig, ok, err := e.nested(name)
	if err != nil {
		return "", "", err
	}

	if !ok {
		return "", "", diagnostic.Configurationf("annotation %s: missing %q", e.a.Desc, name)
	}

	value, err := sig.str("value", "")
	if err != nil {
		return "", "", err
	}

	if value != "" {
		i := strings.IndexByte(value, '(')
		if i <= 0 {
			return "", "", diagnostic.Configurationf("MethodSig has invalid value %q", value)
		}

		return value[:i], value[i:], nil
	}

	methodName, err := sig.str("name", "")
	if err != nil {
		return "", "", err
	}

	if methodName == "" {
		return "", "", diagnostic.Configurationf("MethodSig without value or name")
	}

	ret, err := sig.class("ret", "V")
	if err != nil {
		return "", "", err
	}

	args, _, err := sig.classes("args")
	if err != nil {
		return "", "", err
	}

	types := make([]cf.Type, len(args))
	for i, a := range args {
		types[i] = cf.TypeOf(a)
	}

	return methodName, cf.MethodDescriptor(cf.TypeOf(ret), types...), nil
}

// fieldSig decodes a FieldSig marker into a name and descriptor.
func fieldSig(e element, name string) (string, string, error) {
	sig, ok, err := e.nested(name)
	if err != nil {
		return "", "", err
	}

	if !ok {
		return "", "", diagnostic.Configurationf("annotation %s: missing %q", e.a.Desc, name)
	}

	fieldName, err := sig.str("name", "")
	if err != nil {
		return "", "", err
	}

	desc, err := sig.class("type", "")
	if err != nil {
		return "", "", err
	}

	if fieldName == "" || desc == "" || desc == "V" {
		return "", "", diagnostic.Configurationf("FieldSig needs a name and a non-void type")
	}

	return fieldName, desc, nil
}
