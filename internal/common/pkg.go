package common

import "strings"

// UnknownStr is the String form of out-of-range enum values.
const UnknownStr = "unknown"

// InternalName converts a dotted class name ("a.b.C") into the slashed form
// used inside class files ("a/b/C").
func InternalName(dotted string) string {
	return strings.ReplaceAll(dotted, ".", "/")
}

// DottedName converts a slashed internal name into a dotted class name.
func DottedName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}
