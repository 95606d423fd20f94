package document

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bytegraft/internal/diagnostic"
	"bytegraft/internal/redirect"
	"bytegraft/internal/symbol"
	"bytegraft/internal/target"
)

var (
	foo     = symbol.NewClass("a.b.Foo")
	helpers = symbol.NewClass("a.b.Helpers")
)

func TestProduce(t *testing.T) {
	location, err := filepath.Abs("testdata/redirects.yaml")
	require.NoError(t, err)

	m, err := NewProducer(location).Produce(t.Context())
	require.NoError(t, err)

	assert.Equal(t, []string{"base", "extra"}, m.Registry.Names())

	base, ok := m.Registry.Declared("base")
	require.True(t, ok)
	assert.Equal(t, []redirect.TypeRedirect{{Src: foo, Dst: symbol.NewClass("a.b.Bar")}}, base.Types())
	assert.Equal(t, []redirect.FieldRedirect{
		{Field: symbol.NewField(foo, "counter", "I"), DstName: "total"},
		{Field: symbol.NewField(foo, "cache", "[Ljava/lang/Object;"), NewOwner: helpers, DstName: "CACHE"},
	}, base.Fields())
	assert.Equal(t, []redirect.MethodRedirect{
		{Method: symbol.NewMethod(foo, "helper", "()I"), DstName: "helperImpl"},
		{
			Method:       symbol.NewMethod(foo, "run", "(ILjava/lang/String;)V").WithMappingOwner(symbol.NewClass("a.b.Base")),
			NewOwner:     helpers,
			DstName:      "runImpl",
			DstInterface: true,
		},
	}, base.Methods())

	extra, err := m.Registry.Resolve("extra")
	require.NoError(t, err)
	assert.Len(t, extra.Methods(), 3, "extra inherits base")

	require.Len(t, m.Targets, 3)

	fooTarget := m.Targets[0]
	assert.Equal(t, foo, fooTarget.Name)
	assert.True(t, fooTarget.DebugSelfRedirects)
	require.Len(t, fooTarget.Sets, 1)
	assert.Equal(t, "base", fooTarget.Sets[0].Name, "defaultSets apply")

	methods := fooTarget.Methods()
	require.Len(t, methods, 2)
	assert.Equal(t, &target.Method{
		Method:      symbol.NewMethod(foo, "tick", "()V"),
		DstName:     "tickPatched",
		ShouldClone: true,
		Sets:        []*redirect.Set{},
	}, methods[0])

	size := methods[1]
	source := symbol.NewClass("a.b.FooSource")
	assert.Equal(t, symbol.NewMethod(foo, "size", "([ILa/b/Foo;)I").WithMappingOwner(source), size.Method)
	assert.Equal(t, source, size.SrcOwner)
	assert.False(t, size.ShouldClone)
	assert.True(t, size.MakeSyntheticAccessor)
	require.Len(t, size.Sets, 1)
	assert.Equal(t, "extra", size.Sets[0].Name)

	whole := m.Targets[1]
	src, ok := whole.WholeClass()
	assert.True(t, ok)
	assert.Equal(t, symbol.NewClass("a.b.WholePatch"), src)
	assert.Empty(t, whole.Sets, "an explicit empty useSets overrides defaultSets")

	inPlace := m.Targets[2]
	src, ok = inPlace.WholeClass()
	assert.True(t, ok)
	assert.Equal(t, inPlace.Name, src, "no targetMethods means the class itself")
	assert.Len(t, inPlace.Sets, 2)
}

func TestExampleDocument(t *testing.T) {
	location, err := filepath.Abs("../../../examples/patch/redirects.yaml")
	require.NoError(t, err)

	m, err := NewProducer(location).Produce(t.Context())
	require.NoError(t, err)

	assert.Equal(t, []string{"world", "debug"}, m.Registry.Names())
	require.Len(t, m.Targets, 2)

	world := m.Targets[0]
	assert.Equal(t, "com.example.World", world.Name.Name)
	require.Len(t, world.Methods(), 2)

	count := world.Methods()[1]
	assert.Equal(t, "com.example.patch.PatchedWorld", count.SrcOwner.Name)
	assert.True(t, count.MakeSyntheticAccessor)
	assert.Equal(t, "debug", count.Sets[0].Name)

	src, ok := m.Targets[1].WholeClass()
	require.True(t, ok)
	assert.Equal(t, "com.example.patch.PatchedRenderer", src.Name)
}

func TestTopLevelSets(t *testing.T) {
	d, err := Parse([]byte(`{
		"imports": ["a.b.Foo"],
		"first": {"typeRedirects": {"Foo": "a.b.Bar"}, "fieldRedirects": {}, "methodRedirects": {}},
		"sets": {"listed": {}},
		"second": {"extends": "first", "methodRedirects": {"Foo | void run()": "runImpl"}},
		"targets": {"Foo": {"useSets": ["second", "listed"]}}
	}`))
	require.NoError(t, err)

	m, err := d.Model()
	require.NoError(t, err)

	assert.Equal(t, []string{"listed", "first", "second"}, m.Registry.Names())
	require.Len(t, m.Targets, 1)
	assert.Equal(t, "second", m.Targets[0].Sets[0].Name)
	assert.Len(t, m.Targets[0].Sets[0].Types(), 1, "ancestor entries resolved")
}

func TestJSONDocument(t *testing.T) {
	d, err := Parse([]byte(`{
		"sets": {"s": {"typeRedirects": {"a.A": "a.B"}, "fieldRedirects": {}, "methodRedirects": {}}},
		"targets": {"a.A": {"useSets": "s", "targetMethods": {"void run()": "run2"}}}
	}`))
	require.NoError(t, err)

	m, err := d.Model()
	require.NoError(t, err)
	require.Len(t, m.Targets, 1)
	assert.Equal(t, "s", m.Targets[0].Sets[0].Name)
}

func TestDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		echo string
	}{
		{"not yaml", "sets: [", "parse"},
		{"empty document", "defaultSets: [a]", "neither"},
		{"sets not a mapping", "sets: [a]", "expected a mapping"},
		{"duplicate key", "sets:\n  a: {}\n  a: {}", "duplicate key"},
		{"unknown value key", `sets: {s: {methodRedirects: {"a.A | void f()": {newNam: x}}}}`, "newNam"},
		{"missing bar", `sets: {s: {fieldRedirects: {"a.A int x": y}}}`, "a.A int x"},
		{"bad field", `sets: {s: {fieldRedirects: {"a.A | int": y}}}`, "a.A | int"},
		{"void field", `sets: {s: {fieldRedirects: {"a.A | void x": y}}}`, "a.A | void x"},
		{"bad method", `sets: {s: {methodRedirects: {"a.A | void f(": y}}}`, "void f("},
		{"empty arg", `sets: {s: {methodRedirects: {"a.A | void f(int,)": y}}}`, "void f(int,)"},
		{"empty new name", `sets: {s: {methodRedirects: {"a.A | void f()": ""}}}`, "void f()"},
		{"interface without owner", `sets: {s: {methodRedirects: {"a.A | void f()": {newName: g, isDstInterface: true}}}}`, "isDstInterface"},
		{"primitive type redirect", `sets: {s: {typeRedirects: {int: a.B}}}`, "int"},
		{"bad import", "imports: [Foo]\ntargets: {}", "Foo"},
		{"duplicate import", "imports: [a.Foo, b.Foo]\ntargets: {}", "b.Foo"},
		{"global local clash", "imports: [a.Foo]\nsets: {s: {imports: [b.Foo]}}", "Foo"},
		{"unknown set", `targets: {a.A: {useSets: [ghost]}}`, "ghost"},
		{"unknown parent", `sets: {s: {extends: ghost}}` + "\n" + `targets: {a.A: {useSets: s}}`, "ghost"},
		{"both modes", `targets: {a.A: {wholeClass: a.B, targetMethods: {"void f()": g}}}`, "both"},
		{"duplicate destination", `targets: {a.A: {targetMethods: {"void f()": g, "void h()": g, "void g()": {newName: g, copyFrom: a.B}}}}`, "g()V"},
		{"set at top level and under sets", "sets: {s: {}}\ns: {}", "declared at the top level"},
		{"unknown set key", `sets: {s: {typeRedirect: {a.A: a.B}}}`, "typeRedirect"},
		{"twice targeted", "imports: [a.A]\ntargets: {A: {}, a.A: {}}", "a.A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse([]byte(tt.doc))
			if err == nil {
				_, err = d.Model()
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.echo)

			if tt.name == "duplicate destination" {
				require.ErrorIs(t, err, diagnostic.ErrInvariant)
			} else {
				require.ErrorIs(t, err, diagnostic.ErrConfiguration)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	location := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewProducer(location).Produce(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}
