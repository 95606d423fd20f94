// Package classfile reads, models, rewrites and writes JVM class files.
//
// The model is a tree: a ClassFile owns Fields and Methods, a Method owns its
// Code, and Code is a flat list of Instructions in which branch targets,
// exception ranges, line numbers, local variable ranges and stack map frames
// all point at *Label pseudo-instructions instead of byte offsets. Offsets are
// recomputed by Write, so instructions can be inserted, removed or replaced
// freely.
//
// # Constant pool
//
// Symbolic references are stored as strings (internal names, member names,
// descriptors) and constants as Go values:
//
//	int32, float32, int64, float64  numeric constants
//	string                          CONSTANT_String
//	Type                            CONSTANT_Class (object/array) or CONSTANT_MethodType
//	Handle                          CONSTANT_MethodHandle
//	ConstantDynamic                 CONSTANT_Dynamic
//
// Write rebuilds the pool, seeding it with the entries of the pool the class
// was parsed from. Attributes this package does not decode are kept as raw
// bytes together with the pool they belong to; they are written back only
// when that pool is the one being seeded.
//
// # Remapping
//
// A Remapper renames classes and members. RemapClass, RemapField, RemapMethod
// and RemapCode apply it to every symbolic reference of a tree, including
// descriptors, generic signatures, annotations, method handles and frames.
package classfile
