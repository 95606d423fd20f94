package markers

// Application stages of TransformFrom and TransformFromClass.
const (
	StagePreApply  = "PRE_APPLY"
	StagePostApply = "POST_APPLY"
)

// Config configures marker parsing.
type Config struct {
	// Package is the internal-name prefix of the marker annotations.
	Package string
	// Stage selects which TransformFrom and TransformFromClass markers apply.
	Stage string
	// MethodPrefix is prepended to the names of methods produced by
	// TransformFrom.
	MethodPrefix string
	// DefaultSet is the dotted name of the set interface used by a Redirect
	// marker without a value. Empty means such a marker is an error.
	DefaultSet string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Package: "bytegraft/api/",
		Stage:   StagePreApply,
	}
}

// markers holds the descriptors of every marker annotation.
type markers struct {
	redirectSet, partialRedirect, typeRedirect string
	fieldRedirect, methodRedirect              string
	addFieldToSets, addMethodToSets            string
	redirect, transformFrom, transformClass    string
}

func newMarkers(pkg string) markers {
	desc := func(name string) string { return "L" + pkg + name + ";" }

	return markers{
		redirectSet:     desc("RedirectSet"),
		partialRedirect: desc("PartialRedirect"),
		typeRedirect:    desc("TypeRedirect"),
		fieldRedirect:   desc("FieldRedirect"),
		methodRedirect:  desc("MethodRedirect"),
		addFieldToSets:  desc("AddFieldToSets"),
		addMethodToSets: desc("AddMethodToSets"),
		redirect:        desc("Redirect"),
		transformFrom:   desc("TransformFrom"),
		transformClass:  desc("TransformFromClass"),
	}
}
