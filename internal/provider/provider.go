package provider

import (
	"context"
	"sync"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/singleflight"

	"bytegraft/internal/common"
	"bytegraft/internal/diagnostic"
)

// BinaryProvider returns the bytes of a class file. Name is the dotted fully
// qualified class name. An unknown class yields an error of kind
// diagnostic.ErrResolution.
type BinaryProvider interface {
	ClassBytes(ctx context.Context, name string) ([]byte, error)
}

// Func adapts a function to BinaryProvider.
type Func func(ctx context.Context, name string) ([]byte, error)

// ClassBytes implements BinaryProvider.
func (f Func) ClassBytes(ctx context.Context, name string) ([]byte, error) {
	return f(ctx, name)
}

// Static serves classes from memory, keyed by dotted name.
type Static map[string][]byte

// ClassBytes implements BinaryProvider.
func (s Static) ClassBytes(_ context.Context, name string) ([]byte, error) {
	data, ok := s[name]
	if !ok {
		return nil, notFound(name)
	}

	return data, nil
}

// Caching memoizes another provider by class name. Concurrent requests for
// the same class share one load. Failures are not cached.
type Caching struct {
	next  BinaryProvider
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string][]byte
}

// NewCaching wraps next.
func NewCaching(next BinaryProvider) *Caching {
	return &Caching{next: next, cache: make(map[string][]byte)}
}

// ClassBytes implements BinaryProvider.
func (c *Caching) ClassBytes(ctx context.Context, name string) ([]byte, error) {
	c.mu.RLock()
	data, ok := c.cache[name]
	c.mu.RUnlock()

	if ok {
		return data, nil
	}

	v, err, _ := c.group.Do(name, func() (any, error) {
		data, err := c.next.ClassBytes(ctx, name)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[name] = data
		c.mu.Unlock()

		return data, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]byte), nil
}

// Len returns the number of cached classes.
func (c *Caching) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.cache)
}

// Chain asks each provider in turn. A resolution failure moves on to the
// next provider; any other failure is returned.
type Chain []BinaryProvider

// ClassBytes implements BinaryProvider.
func (c Chain) ClassBytes(ctx context.Context, name string) ([]byte, error) {
	for _, p := range c {
		data, err := p.ClassBytes(ctx, name)
		if err == nil {
			return data, nil
		}

		if !errors.Is(err, diagnostic.ErrResolution) {
			return nil, err
		}
	}

	return nil, notFound(name)
}

func notFound(name string) error {
	return diagnostic.Resolutionf("class %s not found", name)
}

func classPath(name string) string {
	return common.InternalName(name) + ".class"
}
