package transform

import (
	"context"

	slogctx "github.com/veqryn/slog-context"

	cf "bytegraft/internal/classfile"
	"bytegraft/internal/diagnostic"
	"bytegraft/internal/mapper"
	"bytegraft/internal/provider"
	"bytegraft/internal/symbol"
	"bytegraft/internal/target"
)

// EngineConfig holds configuration for the transformation engine.
type EngineConfig struct {
	// StubMarker is the descriptor of the annotation that marks placeholder
	// methods. A cloned method reuses a marked method instead of replacing it.
	// Empty disables stub detection.
	StubMarker string
	// HelperPrefix is prepended to the names of copied lambda helpers.
	HelperPrefix string
	// LogSelfRedirects logs unmatched references for every class, not only
	// for targets that ask for it.
	LogSelfRedirects bool
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		StubMarker:   "Lbytegraft/api/Stub;",
		HelperPrefix: "redirect$",
	}
}

// Engine transforms destination classes. It is safe for concurrent use on
// distinct classes as long as its NameMapper is.
type Engine struct {
	config  EngineConfig
	names   physical
	classes provider.BinaryProvider
}

// NewEngine returns an engine. A nil mapper means mapper.Identity. Source
// classes are fetched from classes through a cache unless it already is one.
func NewEngine(config EngineConfig, names mapper.NameMapper, classes provider.BinaryProvider) *Engine {
	if names == nil {
		names = mapper.Identity
	}

	if _, ok := classes.(*provider.Caching); !ok && classes != nil {
		classes = provider.NewCaching(classes)
	}

	return &Engine{config: config, names: physical{names: names}, classes: classes}
}

// ClassName returns the dotted name under which the class c is stored.
func (e *Engine) ClassName(c symbol.Class) string {
	return e.names.names.MapClassName(c.Name)
}

// Report describes what a transform did.
type Report struct {
	// Class is the internal name of the destination class.
	Class string
	// Methods lists the name+desc of every method written or replaced.
	Methods []string
	diagnostic.Diagnostics
}

// TransformClass applies t to dst in place. On error dst is left in an
// undefined state; callers transform a private copy.
func (e *Engine) TransformClass(ctx context.Context, dst *cf.ClassFile, t *target.Class) (*Report, error) {
	if want := e.names.class(t.Name); want != dst.Name {
		return nil, diagnostic.Invariantf("target %s does not describe class %s", want, dst.Name)
	}

	s := &state{
		Engine:   e,
		ctx:      slogctx.With(ctx, "class", t.Name.Name),
		dst:      dst,
		target:   t,
		report:   &Report{Class: dst.Name},
		sources:  make(map[string]*cf.ClassFile),
		helpers:  make(map[string]string),
		produced: make(map[string]*target.Method),
		debug:    e.config.LogSelfRedirects || t.DebugSelfRedirects,
	}

	if src, ok := t.WholeClass(); ok {
		if err := s.wholeClass(src); err != nil {
			return nil, err
		}

		return s.report, nil
	}

	for _, m := range t.Methods() {
		if err := s.method(m); err != nil {
			return nil, err
		}
	}

	return s.report, nil
}

// state is the context of one TransformClass call.
type state struct {
	*Engine

	ctx    context.Context
	dst    *cf.ClassFile
	target *target.Class
	report *Report
	debug  bool

	// sources holds parsed source classes by internal name.
	sources map[string]*cf.ClassFile
	// helpers maps "owner.name+desc" of copied lambda helpers to the copy's
	// name.
	helpers map[string]string
	// produced maps the physical name+desc of every written method to its
	// target.
	produced map[string]*target.Method
}

// source returns the parsed class c. The destination itself is returned
// when c names it.
func (s *state) source(c symbol.Class) (*cf.ClassFile, error) {
	name := s.names.class(c)
	if name == s.dst.Name {
		return s.dst, nil
	}

	if src, ok := s.sources[name]; ok {
		return src, nil
	}

	if s.classes == nil {
		return nil, diagnostic.Resolutionf("source class %s: no class provider configured", c)
	}

	data, err := s.classes.ClassBytes(s.ctx, s.names.names.MapClassName(c.Name))
	if err != nil {
		return nil, err
	}

	src, err := cf.Parse(data)
	if err != nil {
		return nil, diagnostic.Resolutionf("source class %s: %w", c, err)
	}

	s.sources[name] = src

	return src, nil
}

func (s *state) info(code, message, member string) {
	s.report.AddInfo(code, message, s.dst.Name, member)
	slogctx.Info(s.ctx, message, "member", member)
}

func (s *state) warn(code, message, member string) {
	s.report.AddWarning(code, message, s.dst.Name, member)
	slogctx.Warn(s.ctx, message, "member", member)
}
