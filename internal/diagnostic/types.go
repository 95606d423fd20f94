package diagnostic

import (
	"fmt"
	"slices"
	"strings"

	"bytegraft/internal/common"
)

// Codes recorded while transforming a class.
const (
	// CodeSelfMapping records a reference no redirect matched.
	CodeSelfMapping = "SELF_MAPPING"
	// CodeHelperCloned records a lambda helper copied under a new name.
	CodeHelperCloned = "HELPER_CLONED"
	// CodeStubReused records a stub method whose body was replaced.
	CodeStubReused = "STUB_REUSED"
	// CodeMethodReplaced records an existing method removed to make room.
	CodeMethodReplaced = "METHOD_REPLACED"
	// CodeMemberOverridden records a transplanted member shadowed by a
	// destination member in whole-class mode.
	CodeMemberOverridden = "MEMBER_OVERRIDDEN"
	// CodeAccessorAdded records a generated synthetic accessor.
	CodeAccessorAdded = "ACCESSOR_ADDED"
)

// Diagnostics holds what a transform recorded besides its result. Failures
// are returned as errors and never appear here.
type Diagnostics struct {
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic is one recorded event.
type Diagnostic struct {
	Severity Severity
	// Code is one of the Code constants.
	Code    string
	Message string
	// Class is the internal name of the destination class.
	Class string
	// Member is the name and descriptor of the member involved, if any.
	Member string
}

// Severity of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return common.UnknownStr
	}
}

// AddInfo records an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, class, member string) {
	d.Infos = append(d.Infos, Diagnostic{SeverityInfo, code, message, class, member})
}

// AddWarning records a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, class, member string) {
	d.Warnings = append(d.Warnings, Diagnostic{SeverityWarning, code, message, class, member})
}

// All returns the warnings followed by the infos.
func (d *Diagnostics) All() []Diagnostic {
	return append(slices.Clone(d.Warnings), d.Infos...)
}

// Count returns the number of diagnostics with the given code.
func (d *Diagnostics) Count(code string) int {
	n := 0

	for _, x := range d.All() {
		if x.Code == code {
			n++
		}
	}

	return n
}

func (d Diagnostic) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s [%s]", d.Severity, d.Code)

	if d.Class != "" {
		sb.WriteString(" " + d.Class)
	}

	if d.Member != "" {
		sb.WriteString(" " + d.Member)
	}

	sb.WriteString(": " + d.Message)

	return sb.String()
}
