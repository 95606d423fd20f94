// Package symbol defines value types that name a class, a field or a method.
//
// Symbols compare with ==. Class names are dotted ("a.b.C"); descriptors use
// the class-file form ("I", "(La/b/C;)V").
package symbol
