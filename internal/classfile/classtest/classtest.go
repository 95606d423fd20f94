// Package classtest builds small class files for tests.
package classtest

import (
	cf "bytegraft/internal/classfile"
)

// Class returns a public class with the given members.
func Class(name, super string, methods ...*cf.Method) *cf.ClassFile {
	return &cf.ClassFile{
		Major:     61,
		Access:    cf.AccPublic | cf.AccSuper,
		Name:      name,
		SuperName: super,
		Methods:   methods,
	}
}

// Interface returns a public interface with the given members.
func Interface(name string, methods ...*cf.Method) *cf.ClassFile {
	c := Class(name, cf.ObjectClass, methods...)
	c.Access = cf.AccPublic | cf.AccInterface | cf.AccAbstract

	return c
}

// Method returns a method whose body is insns. Stack and locals are sized
// generously; the tests never run the code.
func Method(access uint16, name, desc string, insns ...cf.Instruction) *cf.Method {
	locals := cf.ArgumentsSize(desc) + 4
	if access&cf.AccStatic == 0 {
		locals++
	}

	return &cf.Method{
		Access: access,
		Name:   name,
		Desc:   desc,
		Code:   &cf.Code{MaxStack: 8, MaxLocals: locals, Instructions: insns},
	}
}

// Abstract returns a method without a body.
func Abstract(access uint16, name, desc string) *cf.Method {
	return &cf.Method{Access: access | cf.AccAbstract, Name: name, Desc: desc}
}

// Field returns a field.
func Field(access uint16, name, desc string) *cf.Field {
	return &cf.Field{Access: access, Name: name, Desc: desc}
}

// Metafactory is the LambdaMetafactory bootstrap handle.
var Metafactory = cf.Handle{
	Kind:  cf.H_INVOKESTATIC,
	Owner: "java/lang/invoke/LambdaMetafactory",
	Name:  "metafactory",
	Desc: "(Ljava/lang/invoke/MethodHandles$Lookup;Ljava/lang/String;Ljava/lang/invoke/MethodType;" +
		"Ljava/lang/invoke/MethodType;Ljava/lang/invoke/MethodHandle;Ljava/lang/invoke/MethodType;)" +
		"Ljava/lang/invoke/CallSite;",
}

// Lambda returns an invokedynamic site creating a Runnable backed by impl.
func Lambda(impl cf.Handle) *cf.InvokeDynamicInsn {
	return &cf.InvokeDynamicInsn{
		Name:      "run",
		Desc:      "()Ljava/lang/Runnable;",
		Bootstrap: Metafactory,
		Args:      []any{cf.TypeOf("()V"), impl, cf.TypeOf("()V")},
	}
}

// RoundTrip writes c and parses the result.
func RoundTrip(c *cf.ClassFile) (*cf.ClassFile, error) {
	data, err := cf.Write(c)
	if err != nil {
		return nil, err
	}

	return cf.Parse(data)
}

// Texts renders the body of every method as "name+desc" -> lines.
func Texts(c *cf.ClassFile) map[string][]string {
	out := make(map[string][]string, len(c.Methods))
	for _, m := range c.Methods {
		if m.Code != nil {
			out[m.Name+m.Desc] = m.Code.Text()
		}
	}

	return out
}
