package mapper

// NameMapper maps logical names to physical ones. Class and owner names are
// dotted; descriptors use the logical class names. Implementations must be
// pure functions of their inputs and safe for concurrent use.
type NameMapper interface {
	MapClassName(name string) string
	MapFieldName(owner, name, desc string) string
	MapMethodName(owner, name, desc string) string
}

// Identity returns every name unchanged.
var Identity NameMapper = identity{}

type identity struct{}

func (identity) MapClassName(name string) string { return name }

func (identity) MapFieldName(_, name, _ string) string { return name }

func (identity) MapMethodName(_, name, _ string) string { return name }
