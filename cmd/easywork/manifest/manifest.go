// Package manifest loads a declarative pipeline description from YAML — a
// host-layer convenience that calls the same registry.Build / pipeline
// Trace/Validate/Build/Connect/Run entry points a hand-written Go program
// would call. The core has no knowledge of YAML; this package is the
// host embedding layer's config format, nothing more.
package manifest

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/easywork/internal/node"
	"github.com/alexisbeaulieu97/easywork/internal/pipeline"
	"github.com/alexisbeaulieu97/easywork/internal/registry"
)

// NodeSpec declares one node instance: an id unique within the manifest,
// the registered node type name, and the named constructor arguments to
// pass to its factory.
type NodeSpec struct {
	ID     string         `yaml:"id" validate:"required"`
	Type   string         `yaml:"type" validate:"required"`
	Params map[string]any `yaml:"params"`
}

// EdgeSpec declares one binding: consumer node id + method + input index,
// fed from producer node id + method.
type EdgeSpec struct {
	From         string `yaml:"from" validate:"required"`
	FromMethod   string `yaml:"fromMethod" validate:"required"`
	To           string `yaml:"to" validate:"required"`
	ToMethod     string `yaml:"toMethod" validate:"required"`
	ToInputIndex int    `yaml:"toInputIndex" validate:"gte=0"`
}

// Manifest is the top-level declarative pipeline description.
type Manifest struct {
	Nodes []NodeSpec `yaml:"nodes" validate:"required,min=1,dive"`
	Edges []EdgeSpec `yaml:"edges" validate:"dive"`
}

// Load reads and parses a manifest from path, validating struct tags with
// go-playground/validator before returning it.
func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	if err := validator.New().Struct(&m); err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}
	return &m, nil
}

// Instantiate builds one node per NodeSpec via reg, keyed by manifest id.
func (m *Manifest) Instantiate(reg *registry.Registry) (map[string]*node.Node, error) {
	nodes := make(map[string]*node.Node, len(m.Nodes))
	for _, spec := range m.Nodes {
		n, err := reg.Build(spec.Type, registry.Args{Named: spec.Params})
		if err != nil {
			return nil, fmt.Errorf("manifest: node %q: %w", spec.ID, err)
		}
		nodes[spec.ID] = n
	}
	return nodes, nil
}

// Trace returns a pipeline.Trace-compatible function replaying every
// EdgeSpec as a Builder.Bind call, using nodes as constructed by
// Instantiate.
func (m *Manifest) Trace(nodes map[string]*node.Node) func(*pipeline.Builder) error {
	return func(b *pipeline.Builder) error {
		for _, e := range m.Edges {
			producer, ok := nodes[e.From]
			if !ok {
				return fmt.Errorf("manifest: edge references unknown node id %q", e.From)
			}
			consumer, ok := nodes[e.To]
			if !ok {
				return fmt.Errorf("manifest: edge references unknown node id %q", e.To)
			}
			if err := b.Bind(consumer, e.ToMethod, e.ToInputIndex, producer, e.FromMethod); err != nil {
				return err
			}
		}
		return nil
	}
}
