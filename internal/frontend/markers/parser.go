package markers

import (
	"context"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	cf "bytegraft/internal/classfile"
	"bytegraft/internal/common"
	"bytegraft/internal/diagnostic"
	"bytegraft/internal/frontend"
	"bytegraft/internal/provider"
	"bytegraft/internal/redirect"
	"bytegraft/internal/symbol"
	"bytegraft/internal/target"
)

// Producer scans classes for markers and builds a Model.
type Producer struct {
	Config  Config
	Classes provider.BinaryProvider
	// Targets lists the dotted names of the classes to scan. Classes without
	// target markers are skipped, so every class of a jar may be listed.
	Targets []string
}

// NewProducer returns a producer scanning targets.
func NewProducer(config Config, classes provider.BinaryProvider, targets ...string) *Producer {
	return &Producer{Config: config, Classes: classes, Targets: targets}
}

// Produce implements frontend.Producer. Sets are collected from every
// scanned class before any target resolves them, so redirects added to a
// set from one class are seen by targets declared in another.
func (p *Producer) Produce(ctx context.Context) (*frontend.Model, error) {
	ps := &parser{
		config:    p.Config,
		marks:     newMarkers(p.Config.Package),
		classes:   p.Classes,
		model:     frontend.NewModel(),
		parsed:    make(map[string]*cf.ClassFile),
		declaring: make(map[string]bool),
	}

	var pending []*pendingClass

	for _, name := range p.Targets {
		pc, err := ps.scan(ctx, name)
		if err != nil {
			return nil, errors.Errorf("markers of %s: %w", name, err)
		}

		if pc != nil {
			pending = append(pending, pc)
		}
	}

	for _, pc := range pending {
		t, err := pc.build(ps.model.Registry)
		if err != nil {
			return nil, errors.Errorf("markers of %s: %w", pc.name, err)
		}

		err = ps.model.AddTarget(t)
		if err != nil {
			return nil, err
		}
	}

	slogctx.Debug(ctx, "Scanned markers",
		"classes", len(p.Targets), "sets", len(ps.model.Registry.Names()), "targets", len(ps.model.Targets))

	return ps.model, nil
}

type parser struct {
	config  Config
	marks   markers
	classes provider.BinaryProvider
	model   *frontend.Model

	parsed    map[string]*cf.ClassFile
	declaring map[string]bool
}

type pendingMethod struct {
	method target.Method
	sets   []string
}

// pendingClass is a target whose set names are not resolved yet.
type pendingClass struct {
	name    symbol.Class
	sets    []string
	whole   symbol.Class
	methods []pendingMethod
}

func (pc *pendingClass) build(reg *redirect.Registry) (*target.Class, error) {
	sets, err := reg.ResolveAll(pc.sets)
	if err != nil {
		return nil, err
	}

	c := target.NewClass(pc.name, sets...)

	if !pc.whole.IsZero() {
		err = c.TargetWholeClass(pc.whole)
		if err != nil {
			return nil, err
		}
	} else if len(pc.methods) == 0 {
		return c, c.TargetWholeClass(pc.name)
	}

	for _, pm := range pc.methods {
		m := pm.method

		m.Sets, err = reg.ResolveAll(pm.sets)
		if err != nil {
			return nil, err
		}

		err = c.AddTarget(&m)
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (p *parser) class(ctx context.Context, name string) (*cf.ClassFile, error) {
	if c, ok := p.parsed[name]; ok {
		return c, nil
	}

	data, err := p.classes.ClassBytes(ctx, name)
	if err != nil {
		return nil, err
	}

	c, err := cf.Parse(data)
	if err != nil {
		return nil, diagnostic.Resolutionf("class %s: %w", name, err)
	}

	p.parsed[name] = c

	return c, nil
}

// scan reads the markers of one class. It returns nil when the class is
// not a target at the configured stage.
func (p *parser) scan(ctx context.Context, name string) (*pendingClass, error) {
	c, err := p.class(ctx, name)
	if err != nil {
		return nil, err
	}

	self := symbol.ClassFromInternal(c.Name)
	pc := &pendingClass{name: self}
	marked, staged := false, false

	if a := cf.FindAnnotation(nil, c.InvisibleAnnotations, p.marks.redirect); a != nil {
		marked = true

		pc.sets, err = p.usedSets(ctx, element{a}, "value", true)
		if err != nil {
			return nil, err
		}
	}

	if a := cf.FindAnnotation(nil, c.InvisibleAnnotations, p.marks.transformClass); a != nil {
		staged = true

		e := element{a}

		stage, err := e.enum("stage", StagePreApply)
		if err != nil {
			return nil, err
		}

		if stage == p.config.Stage {
			marked = true

			pc.whole, err = ref(e, "value")
			if err != nil {
				return nil, err
			}

			if pc.whole.IsZero() {
				pc.whole = self
			}
		}
	}

	for _, f := range c.Fields {
		if a := cf.FindAnnotation(nil, f.InvisibleAnnotations, p.marks.addFieldToSets); a != nil {
			err = p.addFieldToSets(ctx, self, f, element{a})
			if err != nil {
				return nil, err
			}
		}
	}

	for _, m := range c.Methods {
		if a := cf.FindAnnotation(nil, m.InvisibleAnnotations, p.marks.addMethodToSets); a != nil {
			err = p.addMethodToSets(ctx, c, m, element{a})
			if err != nil {
				return nil, err
			}
		}

		a := cf.FindAnnotation(nil, m.InvisibleAnnotations, p.marks.transformFrom)
		if a == nil {
			continue
		}

		staged = true

		pm, err := p.transformFrom(ctx, c, m, element{a})
		if err != nil {
			return nil, err
		}

		if pm != nil {
			marked = true
			pc.methods = append(pc.methods, *pm)
		}
	}

	if !marked || (staged && pc.whole.IsZero() && len(pc.methods) == 0) {
		return nil, nil
	}

	return pc, nil
}

// usedSets declares the set interfaces named by a class array element and
// returns their names. A missing element means the default set when
// useDefault is set.
func (p *parser) usedSets(ctx context.Context, e element, name string, useDefault bool) ([]string, error) {
	descs, ok, err := e.classes(name)
	if err != nil {
		return nil, err
	}

	var classes []symbol.Class

	switch {
	case ok:
		for _, d := range descs {
			c, err := classOf(d)
			if err != nil {
				return nil, err
			}

			classes = append(classes, c)
		}
	case useDefault && p.config.DefaultSet == "":
		return nil, diagnostic.Configurationf("%s marker without sets and no default set is configured", e.a.Desc)
	case useDefault:
		classes = append(classes, symbol.NewClass(p.config.DefaultSet))
	}

	names := make([]string, 0, len(classes))

	for _, c := range classes {
		err = p.declareSet(ctx, c)
		if err != nil {
			return nil, err
		}

		names = append(names, c.Name)
	}

	return names, nil
}

func (p *parser) addFieldToSets(ctx context.Context, self symbol.Class, f *cf.Field, e element) error {
	owner, err := p.owner(e)
	if err != nil {
		return err
	}

	name, desc, err := fieldSig(e, "field")
	if err != nil {
		return err
	}

	r := redirect.FieldRedirect{Field: symbol.NewField(owner, name, desc), DstName: f.Name}
	if owner != self {
		r.NewOwner = self
	}

	sets, err := p.usedSets(ctx, e, "sets", false)
	if err != nil {
		return err
	}

	for _, s := range sets {
		declared, _ := p.model.Registry.Declared(s)
		declared.AddField(r)
	}

	return nil
}

func (p *parser) addMethodToSets(ctx context.Context, c *cf.ClassFile, m *cf.Method, e element) error {
	self := symbol.ClassFromInternal(c.Name)

	owner, err := p.owner(e)
	if err != nil {
		return err
	}

	name, desc, err := methodSig(e, "method")
	if err != nil {
		return err
	}

	r := redirect.MethodRedirect{Method: symbol.NewMethod(owner, name, desc), DstName: m.Name}
	if owner != self {
		r.NewOwner = self
		r.DstInterface = c.IsInterface()
	}

	sets, err := p.usedSets(ctx, e, "sets", false)
	if err != nil {
		return err
	}

	for _, s := range sets {
		declared, _ := p.model.Registry.Declared(s)
		declared.AddMethod(r)
	}

	return nil
}

func (p *parser) owner(e element) (symbol.Class, error) {
	desc, err := e.class("owner", "")
	if err != nil {
		return symbol.Class{}, err
	}

	if desc == "" {
		return symbol.Class{}, diagnostic.Configurationf("%s marker without owner", e.a.Desc)
	}

	return classOf(desc)
}

// transformFrom reads a TransformFrom marker. It returns nil when the marker
// belongs to another stage.
func (p *parser) transformFrom(ctx context.Context, c *cf.ClassFile, m *cf.Method, e element) (*pendingMethod, error) {
	stage, err := e.enum("stage", StagePreApply)
	if err != nil || stage != p.config.Stage {
		return nil, err
	}

	self := symbol.ClassFromInternal(c.Name)

	name, desc, err := methodSig(e, "value")
	if err != nil {
		return nil, err
	}

	accessor, err := e.boolean("makeSyntheticAccessor", false)
	if err != nil {
		return nil, err
	}

	copyFrom, err := ref(e, "copyFrom")
	if err != nil {
		return nil, err
	}

	mappingOwner := self
	if !copyFrom.IsZero() {
		mappingOwner = copyFrom
	}

	pm := &pendingMethod{
		method: target.Method{
			Method:                symbol.NewMethod(self, name, desc).WithMappingOwner(mappingOwner),
			SrcOwner:              copyFrom,
			DstName:               p.config.MethodPrefix + m.Name,
			ShouldClone:           true,
			MakeSyntheticAccessor: accessor,
		},
	}

	pm.sets, err = p.usedSets(ctx, e, "useRedirectSets", false)
	if err != nil {
		return nil, err
	}

	addTo, err := p.usedSets(ctx, e, "addToRedirectSets", false)
	if err != nil {
		return nil, err
	}

	for _, s := range addTo {
		declared, _ := p.model.Registry.Declared(s)
		declared.AddMethod(redirect.MethodRedirect{Method: symbol.NewMethod(self, name, desc), DstName: pm.method.DstName})
	}

	return pm, nil
}

// declareSet declares the set interface c and its super-interfaces.
func (p *parser) declareSet(ctx context.Context, c symbol.Class) error {
	if _, ok := p.model.Registry.Declared(c.Name); ok {
		return nil
	}

	if p.declaring[c.Name] {
		return diagnostic.Configurationf("redirect set %s extends itself", c)
	}

	p.declaring[c.Name] = true
	defer delete(p.declaring, c.Name)

	class, err := p.class(ctx, c.Name)
	if err != nil {
		return err
	}

	if !class.IsInterface() {
		return diagnostic.Configurationf("%s is used as a redirect set but is not an interface", c)
	}

	if cf.FindAnnotation(nil, class.InvisibleAnnotations, p.marks.redirectSet) == nil {
		return diagnostic.Configurationf("%s is used as a redirect set but is not marked %s", c, p.marks.redirectSet)
	}

	parents := make([]string, 0, len(class.Interfaces))

	for _, itf := range class.Interfaces {
		parent := symbol.ClassFromInternal(itf)

		err = p.declareSet(ctx, parent)
		if err != nil {
			return err
		}

		parents = append(parents, parent.Name)
	}

	s := redirect.NewSet(c.Name, parents...)

	for _, ic := range class.InnerClasses {
		if ic.OuterName != class.Name {
			continue
		}

		inner, err := p.class(ctx, common.DottedName(ic.Name))
		if err != nil {
			return err
		}

		err = p.innerRedirects(s, inner)
		if err != nil {
			return err
		}
	}

	slogctx.Debug(ctx, "Declared redirect set", "set", s.Name, "extends", parents,
		"types", len(s.Types()), "fields", len(s.Fields()), "methods", len(s.Methods()))

	return p.model.Registry.Declare(s)
}

// innerRedirects adds the redirects of one nested class of a set.
func (p *parser) innerRedirects(s *redirect.Set, inner *cf.ClassFile) error {
	var (
		a        *cf.Annotation
		isType   bool
		from, to symbol.Class
		err      error
	)

	if a = cf.FindAnnotation(nil, inner.InvisibleAnnotations, p.marks.typeRedirect); a != nil {
		isType = true
	} else if a = cf.FindAnnotation(nil, inner.InvisibleAnnotations, p.marks.partialRedirect); a == nil {
		return diagnostic.Configurationf("nested class %s of set %s must be marked TypeRedirect or PartialRedirect",
			common.DottedName(inner.Name), s.Name)
	}

	if from, err = ref(element{a}, "from"); err != nil {
		return err
	}

	if to, err = ref(element{a}, "to"); err != nil {
		return err
	}

	if from.IsZero() || to.IsZero() {
		return diagnostic.Configurationf("invalid type redirect %q -> %q on %s", from, to, common.DottedName(inner.Name))
	}

	if isType {
		s.AddType(redirect.TypeRedirect{Src: from, Dst: to})
	}

	var newOwner symbol.Class
	if from != to {
		newOwner = to
	}

	dstInterface := !newOwner.IsZero() && inner.IsInterface()

	for _, f := range inner.Fields {
		if f.Access&cf.AccSynthetic != 0 {
			continue
		}

		fa := cf.FindAnnotation(nil, f.InvisibleAnnotations, p.marks.fieldRedirect)
		if fa == nil {
			return diagnostic.Configurationf("field %s.%s is not marked FieldRedirect", common.DottedName(inner.Name), f.Name)
		}

		newName, err := element{fa}.str("value", "")
		if err != nil {
			return err
		}

		if newName == "" {
			return diagnostic.Configurationf("invalid field redirect %s -> %q", f.Name, newName)
		}

		s.AddField(redirect.FieldRedirect{Field: symbol.NewField(from, f.Name, f.Desc), NewOwner: newOwner, DstName: newName})
	}

	for _, m := range inner.Methods {
		if m.IsSynthetic() || (m.Name == cf.Constructor && m.Desc == "()V" && m.InvisibleAnnotations == nil) {
			continue
		}

		ma := cf.FindAnnotation(nil, m.InvisibleAnnotations, p.marks.methodRedirect)
		if ma == nil {
			return diagnostic.Configurationf("method %s.%s%s is not marked MethodRedirect", common.DottedName(inner.Name), m.Name, m.Desc)
		}

		e := element{ma}

		newName, err := e.str("value", "")
		if err != nil {
			return err
		}

		if newName == "" {
			return diagnostic.Configurationf("invalid method redirect %s -> %q", m.Name, newName)
		}

		mappingsOwner, err := ref(e, "mappingsOwner")
		if err != nil {
			return err
		}

		s.AddMethod(redirect.MethodRedirect{
			Method:       symbol.NewMethod(from, m.Name, m.Desc).WithMappingOwner(mappingsOwner),
			NewOwner:     newOwner,
			DstName:      newName,
			DstInterface: dstInterface,
		})
	}

	return nil
}
