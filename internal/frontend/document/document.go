package document

import (
	"context"
	"slices"

	slogctx "github.com/veqryn/slog-context"
	"github.com/viant/afs"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"bytegraft/internal/diagnostic"
	"bytegraft/internal/frontend"
)

// Document is the top level of a redirect document. Sets are listed under
// "sets" or directly at the top level under their own name.
type Document struct {
	// Imports are visible to every set and to the targets.
	Imports     []string            `yaml:"imports"`
	Sets        Ordered[SetNode]    `yaml:"sets"`
	DefaultSets []string            `yaml:"defaultSets"`
	Targets     Ordered[TargetNode] `yaml:"targets"`
}

// SetNode declares one redirect set.
type SetNode struct {
	Imports         []string               `yaml:"imports"`
	Extends         StringOrArray          `yaml:"extends"`
	TypeRedirects   Ordered[string]        `yaml:"typeRedirects"`
	FieldRedirects  Ordered[RedirectValue] `yaml:"fieldRedirects"`
	MethodRedirects Ordered[RedirectValue] `yaml:"methodRedirects"`
}

var documentKeys = []string{"imports", "sets", "defaultSets", "targets"}

// UnmarshalYAML implements yaml.Unmarshaler. Top-level keys other than
// documentKeys declare sets, after those under "sets".
func (d *Document) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: expected a mapping", node.Line)
	}

	known := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Line: node.Line}
	loose := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Line: node.Line}

	for i := 0; i+1 < len(node.Content); i += 2 {
		dst := loose
		if slices.Contains(documentKeys, node.Content[i].Value) {
			dst = known
		}

		dst.Content = append(dst.Content, node.Content[i], node.Content[i+1])
	}

	type plain Document

	var p plain

	if err := known.Decode(&p); err != nil {
		return err
	}

	if len(loose.Content) > 0 {
		var top Ordered[SetNode]
		if err := loose.Decode(&top); err != nil {
			return err
		}

		for _, e := range top {
			if slices.ContainsFunc(p.Sets, func(x Entry[SetNode]) bool { return x.Key == e.Key }) {
				return errors.Errorf("line %d: set %q is declared at the top level and under sets", e.Line, e.Key)
			}
		}

		p.Sets = append(p.Sets, top...)
	}

	*d = Document(p)

	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *SetNode) UnmarshalYAML(node *yaml.Node) error {
	err := checkKeys(node, "imports", "extends", "typeRedirects", "fieldRedirects", "methodRedirects")
	if err != nil {
		return err
	}

	type plain SetNode

	return node.Decode((*plain)(n))
}

// TargetNode declares how one class is transformed. Without WholeClass and
// TargetMethods the class is rewritten in place as a whole.
type TargetNode struct {
	// UseSets defaults to the document's DefaultSets when absent.
	UseSets            *StringOrArray       `yaml:"useSets"`
	DebugSelfRedirects bool                 `yaml:"debugSelfRedirects"`
	WholeClass         string               `yaml:"wholeClass"`
	TargetMethods      Ordered[TargetValue] `yaml:"targetMethods"`
}

// Load reads and parses the document at location, a local path or any URL
// afs understands.
func Load(ctx context.Context, location string) (*Document, error) {
	data, err := afs.New().DownloadWithURL(ctx, location)
	if err != nil {
		return nil, errors.Errorf("failed to read redirect document %s: %w", location, err)
	}

	return Parse(data)
}

// Parse parses a YAML or JSON document.
func Parse(data []byte) (*Document, error) {
	var d Document

	err := yaml.Unmarshal(data, &d)
	if err != nil {
		return nil, diagnostic.Configurationf("failed to parse redirect document: %s", err)
	}

	if d.Sets == nil && d.Targets == nil {
		return nil, diagnostic.Configurationf("redirect document has neither %q nor %q", "sets", "targets")
	}

	return &d, nil
}

// Producer reads a document file into a Model.
type Producer struct {
	Location string
}

// NewProducer returns a producer for the document at location.
func NewProducer(location string) *Producer {
	return &Producer{Location: location}
}

// Produce implements frontend.Producer.
func (p *Producer) Produce(ctx context.Context) (*frontend.Model, error) {
	d, err := Load(ctx, p.Location)
	if err != nil {
		return nil, err
	}

	m, err := d.Model()
	if err != nil {
		return nil, errors.Errorf("%s: %w", p.Location, err)
	}

	slogctx.Debug(ctx, "Loaded redirect document",
		"location", p.Location, "sets", len(m.Registry.Names()), "targets", len(m.Targets))

	return m, nil
}
