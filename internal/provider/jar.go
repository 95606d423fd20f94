package provider

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/mholt/archives"
	"github.com/viant/afs"
	"gitlab.com/tozd/go/errors"

	"bytegraft/internal/common"
)

// Jar serves the classes of a jar file. The jar is read and indexed on first
// use; later calls are served from memory.
type Jar struct {
	location string
	fs       afs.Service

	once    sync.Once
	classes map[string][]byte
	err     error
}

// NewJar returns a provider for the jar at location, which may be any URL afs
// understands.
func NewJar(location string) *Jar {
	return &Jar{location: location, fs: afs.New()}
}

// ClassBytes implements BinaryProvider.
func (j *Jar) ClassBytes(ctx context.Context, name string) ([]byte, error) {
	j.once.Do(func() { j.classes, j.err = j.index(ctx) })

	if j.err != nil {
		return nil, j.err
	}

	data, ok := j.classes[name]
	if !ok {
		return nil, notFound(name)
	}

	return data, nil
}

// Names returns the dotted names of every class in the jar, sorted.
func (j *Jar) Names(ctx context.Context) ([]string, error) {
	j.once.Do(func() { j.classes, j.err = j.index(ctx) })

	if j.err != nil {
		return nil, j.err
	}

	names := make([]string, 0, len(j.classes))
	for name := range j.classes {
		names = append(names, name)
	}

	slices.Sort(names)

	return names, nil
}

func (j *Jar) index(ctx context.Context) (map[string][]byte, error) {
	data, err := j.fs.DownloadWithURL(ctx, j.location)
	if err != nil {
		return nil, errors.Errorf("reading jar %s: %w", j.location, err)
	}

	classes := make(map[string][]byte)
	zipper := archives.Zip{}

	err = zipper.Extract(ctx, bytes.NewReader(data), func(_ context.Context, info archives.FileInfo) error {
		if info.IsDir() || !strings.HasSuffix(info.NameInArchive, ".class") {
			return nil
		}

		file, err := info.Open()
		if err != nil {
			return errors.Errorf("opening %s: %w", info.NameInArchive, err)
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			return errors.Errorf("reading %s: %w", info.NameInArchive, err)
		}

		internal := strings.TrimSuffix(strings.TrimPrefix(info.NameInArchive, "/"), ".class")
		classes[common.DottedName(internal)] = content

		return nil
	})
	if err != nil {
		return nil, errors.Errorf("extracting jar %s: %w", j.location, err)
	}

	return classes, nil
}
