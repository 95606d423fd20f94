package provider

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mholt/archives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"bytegraft/internal/diagnostic"
)

var fooBytes = []byte{0xCA, 0xFE, 0xBA, 0xBE, 1}

func TestStatic(t *testing.T) {
	p := Static{"a.b.Foo": fooBytes}

	data, err := p.ClassBytes(t.Context(), "a.b.Foo")
	require.NoError(t, err)
	assert.Equal(t, fooBytes, data)

	_, err = p.ClassBytes(t.Context(), "a.b.Missing")
	require.ErrorIs(t, err, diagnostic.ErrResolution)
	assert.Contains(t, err.Error(), "a.b.Missing")
}

func TestCachingLoadsOnce(t *testing.T) {
	var calls atomic.Int32

	c := NewCaching(Func(func(_ context.Context, name string) ([]byte, error) {
		calls.Add(1)
		if name == "a.b.Foo" {
			return fooBytes, nil
		}

		return nil, notFound(name)
	}))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			data, err := c.ClassBytes(context.Background(), "a.b.Foo")
			assert.NoError(t, err)
			assert.Equal(t, fooBytes, data)
		}()
	}
	wg.Wait()

	_, err := c.ClassBytes(t.Context(), "a.b.Foo")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	_, err = c.ClassBytes(t.Context(), "a.b.Missing")
	require.ErrorIs(t, err, diagnostic.ErrResolution)
	_, err = c.ClassBytes(t.Context(), "a.b.Missing")
	require.ErrorIs(t, err, diagnostic.ErrResolution)
	assert.Equal(t, int32(3), calls.Load(), "failures are not cached")
	assert.Equal(t, 1, c.Len())
}

func TestChain(t *testing.T) {
	broken := errors.New("disk on fire")

	tests := []struct {
		name    string
		chain   Chain
		want    []byte
		wantErr error
	}{
		{"first wins", Chain{Static{"a.b.Foo": fooBytes}, Static{"a.b.Foo": {1}}}, fooBytes, nil},
		{"falls through", Chain{Static{}, Static{"a.b.Foo": fooBytes}}, fooBytes, nil},
		{"none", Chain{Static{}, Static{}}, nil, diagnostic.ErrResolution},
		{"other errors stop", Chain{
			Func(func(context.Context, string) ([]byte, error) { return nil, broken }),
			Static{"a.b.Foo": fooBytes},
		}, nil, broken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.chain.ClassBytes(t.Context(), "a.b.Foo")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, data)
		})
	}
}

func writeClassTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	path := filepath.Join(root, "a", "b", "Foo.class")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, fooBytes, 0o600))

	return root
}

func TestDir(t *testing.T) {
	p := NewDir(writeClassTree(t))

	data, err := p.ClassBytes(t.Context(), "a.b.Foo")
	require.NoError(t, err)
	assert.Equal(t, fooBytes, data)

	_, err = p.ClassBytes(t.Context(), "a.b.Bar")
	require.ErrorIs(t, err, diagnostic.ErrResolution)
}

func TestJar(t *testing.T) {
	ctx := t.Context()
	root := writeClassTree(t)

	files, err := archives.FilesFromDisk(ctx, &archives.FromDiskOptions{}, map[string]string{
		filepath.Join(root, "a"): "a",
	})
	require.NoError(t, err)

	jarPath := filepath.Join(t.TempDir(), "classes.jar")
	out, err := os.Create(jarPath)
	require.NoError(t, err)
	require.NoError(t, archives.Zip{}.Archive(ctx, out, files))
	require.NoError(t, out.Close())

	p := NewJar(jarPath)

	data, err := p.ClassBytes(ctx, "a.b.Foo")
	require.NoError(t, err)
	assert.Equal(t, fooBytes, data)

	_, err = p.ClassBytes(ctx, "a.b.Bar")
	require.ErrorIs(t, err, diagnostic.ErrResolution)

	names, err := p.Names(ctx)
	require.NoError(t, err)
	sort.Strings(names)
	assert.Equal(t, []string{"a.b.Foo"}, names)
}

func TestJarMissing(t *testing.T) {
	p := NewJar(filepath.Join(t.TempDir(), "missing.jar"))

	_, err := p.ClassBytes(t.Context(), "a.b.Foo")
	require.Error(t, err)
	assert.NotErrorIs(t, err, diagnostic.ErrResolution)
}
