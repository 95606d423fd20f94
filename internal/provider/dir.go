package provider

import (
	"context"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"gitlab.com/tozd/go/errors"
)

// Dir serves classes stored as <base>/<pkg>/<Name>.class. Base is any URL
// afs understands; a plain path means the local file system.
type Dir struct {
	base string
	fs   afs.Service
}

// NewDir returns a provider rooted at base.
func NewDir(base string) *Dir {
	return &Dir{base: base, fs: afs.New()}
}

// ClassBytes implements BinaryProvider.
func (d *Dir) ClassBytes(ctx context.Context, name string) ([]byte, error) {
	location := url.Join(d.base, classPath(name))

	ok, err := d.fs.Exists(ctx, location)
	if err != nil {
		return nil, errors.Errorf("checking %s: %w", location, err)
	}

	if !ok {
		return nil, notFound(name)
	}

	data, err := d.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", location, err)
	}

	return data, nil
}
