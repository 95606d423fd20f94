package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bytegraft/internal/diagnostic"
	"bytegraft/internal/symbol"
)

func TestResolve(t *testing.T) {
	im := imports{"Foo": "a.b.Foo"}

	tests := []struct {
		in, want string
	}{
		{"Foo", "a.b.Foo"},
		{"Foo[][]", "a.b.Foo[][]"},
		{" Foo [] ", "a.b.Foo[]"},
		{"int", "int"},
		{"int[]", "int[]"},
		{"String", "java.lang.String"},
		{"x.y.Z", "x.y.Z"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, im.resolve(tt.in))
		})
	}
}

func TestImports(t *testing.T) {
	local, err := parseImports([]string{"a.b.Foo", "c.Bar"})
	require.NoError(t, err)

	all, err := local.with(imports{"Baz": "d.Baz"})
	require.NoError(t, err)
	assert.Equal(t, imports{"Foo": "a.b.Foo", "Bar": "c.Bar", "Baz": "d.Baz"}, all)

	for _, bad := range [][]string{{"Foo"}, {"a.b."}, {".Foo"}, {"a.Foo", "b.Foo"}} {
		_, err := parseImports(bad)
		require.ErrorIs(t, err, diagnostic.ErrConfiguration, bad)
	}

	_, err = local.with(imports{"Foo": "x.Foo"})
	require.ErrorIs(t, err, diagnostic.ErrConfiguration)
}

func TestMethodSignatures(t *testing.T) {
	im := imports{"Foo": "a.b.Foo"}
	owner := symbol.NewClass("a.b.Owner")

	tests := []struct {
		sig, name, desc string
	}{
		{"void run()", "run", "()V"},
		{"int size(int[], long)", "size", "([IJ)I"},
		{"Foo[] all(String,Foo)", "all", "(Ljava/lang/String;La/b/Foo;)[La/b/Foo;"},
		{"  double  avg( double ) ", "avg", "(D)D"},
	}

	for _, tt := range tests {
		t.Run(tt.sig, func(t *testing.T) {
			m, err := im.method(owner, tt.sig)
			require.NoError(t, err)
			assert.Equal(t, symbol.NewMethod(owner, tt.name, tt.desc), m)
		})
	}

	for _, bad := range []string{"run()", "void run", "void (int)", "void run(void)", "void a.run()", "void run())", "void run(int) x"} {
		_, err := im.method(owner, bad)
		require.ErrorIs(t, err, diagnostic.ErrConfiguration, bad)
		assert.Contains(t, err.Error(), bad)
	}
}

func TestOwnedSignatures(t *testing.T) {
	im := imports{"Foo": "a.b.Foo"}

	m, err := im.ownedMethod("Foo|void run(int)")
	require.NoError(t, err)
	assert.Equal(t, symbol.NewMethod(symbol.NewClass("a.b.Foo"), "run", "(I)V"), m)

	f, err := im.field("Foo | String[] names")
	require.NoError(t, err)
	assert.Equal(t, symbol.NewField(symbol.NewClass("a.b.Foo"), "names", "[Ljava/lang/String;"), f)

	_, err = im.field("int | int x")
	require.ErrorIs(t, err, diagnostic.ErrConfiguration)

	_, err = im.ownedMethod("Foo | Bar | void run()")
	require.ErrorIs(t, err, diagnostic.ErrConfiguration)
}
