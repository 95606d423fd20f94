package mapper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bytegraft/internal/diagnostic"
)

const tableYAML = `
classes:
  a.b.Foo: x.C12
fields:
  a.b.Foo:
    counter: f_3
methods:
  a.b.Foo:
    run: m_7
    run(I)V: m_8
`

func TestIdentity(t *testing.T) {
	assert.Equal(t, "a.b.Foo", Identity.MapClassName("a.b.Foo"))
	assert.Equal(t, "counter", Identity.MapFieldName("a.b.Foo", "counter", "I"))
	assert.Equal(t, "run", Identity.MapMethodName("a.b.Foo", "run", "()V"))
}

func TestTable(t *testing.T) {
	table, err := ParseTable([]byte(tableYAML))
	require.NoError(t, err)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"class", table.MapClassName("a.b.Foo"), "x.C12"},
		{"unknown class", table.MapClassName("a.b.Bar"), "a.b.Bar"},
		{"field", table.MapFieldName("a.b.Foo", "counter", "I"), "f_3"},
		{"field of other owner", table.MapFieldName("a.b.Bar", "counter", "I"), "counter"},
		{"method by name", table.MapMethodName("a.b.Foo", "run", "()V"), "m_7"},
		{"method by descriptor", table.MapMethodName("a.b.Foo", "run", "(I)V"), "m_8"},
		{"unknown method", table.MapMethodName("a.b.Foo", "stop", "()V"), "stop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not a mapping", "classes: [a, b]"},
		{"empty class target", "classes:\n  a.b.Foo: \"\""},
		{"empty method target", "methods:\n  a.b.Foo:\n    run: \"\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable([]byte(tt.yaml))
			require.ErrorIs(t, err, diagnostic.ErrConfiguration)
		})
	}
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tableYAML), 0o600))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, "x.C12", table.MapClassName("a.b.Foo"))

	_, err = LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
