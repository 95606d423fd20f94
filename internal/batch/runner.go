package batch

import (
	"bytes"
	"context"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
	slogctx "github.com/veqryn/slog-context"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	cf "bytegraft/internal/classfile"
	"bytegraft/internal/common"
	"bytegraft/internal/frontend"
	"bytegraft/internal/provider"
	"bytegraft/internal/target"
	"bytegraft/internal/transform"
)

// Config holds configuration for a Runner.
type Config struct {
	// Concurrency bounds the number of classes transformed at once.
	// Zero means the number of CPUs.
	Concurrency int
	// OutputURL is the base location written classes are stored under, as
	// <OutputURL>/<internal name>.class. Empty means nothing is stored.
	OutputURL string
}

// DefaultConfig returns the default runner configuration.
func DefaultConfig() Config {
	return Config{Concurrency: runtime.NumCPU()}
}

// Result describes one transformed class.
type Result struct {
	Target *target.Class
	Report *transform.Report
	// Data is the written class.
	Data   []byte
	Digest uint64
	// Location is where Data was stored, if anywhere.
	Location string
}

// Runner transforms the target classes of a model.
type Runner struct {
	config  Config
	engine  *transform.Engine
	classes provider.BinaryProvider
	fs      afs.Service
}

// NewRunner returns a runner reading destination classes from classes.
func NewRunner(config Config, engine *transform.Engine, classes provider.BinaryProvider) *Runner {
	if config.Concurrency <= 0 {
		config.Concurrency = runtime.NumCPU()
	}

	return &Runner{config: config, engine: engine, classes: classes, fs: afs.New()}
}

// Run transforms every target of m. A failing class does not stop the
// others; the returned error collects every failure and the results hold
// the classes that succeeded, in model order.
func (r *Runner) Run(ctx context.Context, m *frontend.Model) ([]*Result, error) {
	var (
		mu      sync.Mutex
		errs    *multierror.Error
		results = make([]*Result, len(m.Targets))
	)

	var g errgroup.Group
	g.SetLimit(r.config.Concurrency)

	for i, t := range m.Targets {
		g.Go(func() error {
			res, err := r.one(ctx, t)
			if err != nil {
				slogctx.Error(ctx, "Transform failed", "class", t.Name.Name, "error", err)

				mu.Lock()
				errs = multierror.Append(errs, errors.Errorf("%s: %w", t.Name, err))
				mu.Unlock()

				return nil
			}

			results[i] = res

			return nil
		})
	}

	_ = g.Wait()

	out := make([]*Result, 0, len(results))

	for _, res := range results {
		if res != nil {
			out = append(out, res)
		}
	}

	slogctx.Info(ctx, "Transformed classes", "ok", len(out), "failed", len(m.Targets)-len(out))

	return out, errs.ErrorOrNil()
}

// one transforms a private parsed copy of the destination class.
func (r *Runner) one(ctx context.Context, t *target.Class) (*Result, error) {
	name := r.engine.ClassName(t.Name)

	data, err := r.classes.ClassBytes(ctx, name)
	if err != nil {
		return nil, err
	}

	dst, err := cf.Parse(data)
	if err != nil {
		return nil, err
	}

	report, err := r.engine.TransformClass(ctx, dst, t)
	if err != nil {
		return nil, err
	}

	out, err := cf.Write(dst)
	if err != nil {
		return nil, errors.Errorf("failed to write %s: %w", dst.Name, err)
	}

	digest, err := Digest(out)
	if err != nil {
		return nil, err
	}

	res := &Result{Target: t, Report: report, Data: out, Digest: digest}

	if r.config.OutputURL != "" {
		res.Location = url.Join(r.config.OutputURL, common.InternalName(name)+".class")

		err = r.fs.Upload(ctx, res.Location, 0o644, bytes.NewReader(out))
		if err != nil {
			return nil, errors.Errorf("failed to store %s: %w", res.Location, err)
		}
	}

	slogctx.Debug(ctx, "Transformed class",
		"class", t.Name.Name, "methods", len(report.Methods), "size", len(out), "digest", digest)

	return res, nil
}
