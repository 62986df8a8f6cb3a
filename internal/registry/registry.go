// Package registry implements the node factory registry: a process-wide
// table mapping node type names to factory functions that accept a
// positional+named argument list and return a node instance.
package registry

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/alexisbeaulieu97/easywork/internal/logging"
	"github.com/alexisbeaulieu97/easywork/internal/node"
	"github.com/alexisbeaulieu97/easywork/pkg/ewerrors"
)

// ParamPolicy governs how Build reacts to a named argument the factory
// does not recognise.
type ParamPolicy int

const (
	// StrictParams rejects unknown named arguments with UnknownParameter.
	StrictParams ParamPolicy = iota
	// WarnParams logs and ignores unknown named arguments instead of
	// rejecting the call.
	WarnParams
)

// ParamSpec describes one named construction argument a factory accepts.
type ParamSpec struct {
	Name     string
	Required bool
}

// Args is the positional+named argument bundle a factory call supplies.
type Args struct {
	Positional []any
	Named      map[string]any
}

// Factory builds one node instance from a validated Args bundle.
type Factory func(args Args) (*node.Node, error)

type registration struct {
	factory Factory
	params  []ParamSpec
}

// Registry is the process-wide node type table. The zero value is not
// usable; construct one with New.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
	policy  ParamPolicy
	log     logging.Logger
	valid   *validator.Validate
}

// New returns an empty registry governed by policy.
func New(policy ParamPolicy, log logging.Logger) *Registry {
	if log == nil {
		log = logging.NoOpLogger{}
	}
	return &Registry{
		entries: map[string]registration{},
		policy:  policy,
		log:     log.With("component", "registry"),
		valid:   validator.New(),
	}
}

// Register adds typeName to the registry. Registering a name twice
// overwrites the previous factory — registries are expected to be
// assembled once at host start-up, not guarded against redefinition.
func (r *Registry) Register(typeName string, params []ParamSpec, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[typeName] = registration{factory: factory, params: params}
}

// TypeNames lists every registered node type name.
func (r *Registry) TypeNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Build constructs a node of typeName, checking named arguments against
// the factory's declared parameters before invoking it: unknown names
// raise UnknownParameter, missing required names raise MissingParameter.
func (r *Registry) Build(typeName string, args Args) (*node.Node, error) {
	r.mu.RLock()
	reg, ok := r.entries[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, ewerrors.NewUnknownNodeTypeError(typeName)
	}

	known := make(map[string]bool, len(reg.params))
	required := map[string]bool{}
	for _, p := range reg.params {
		known[p.Name] = true
		if p.Required {
			required[p.Name] = true
		}
	}

	for name := range args.Named {
		if known[name] {
			continue
		}
		switch r.policy {
		case WarnParams:
			r.log.Warn(context.Background(), "ignoring unknown constructor parameter", "node_type", typeName, "parameter", name)
			delete(args.Named, name)
		default:
			return nil, ewerrors.NewUnknownParameterError(typeName, name)
		}
	}

	for name := range required {
		if _, ok := args.Named[name]; !ok {
			return nil, ewerrors.NewMissingParameterError(typeName, name)
		}
	}

	return reg.factory(args)
}

// ValidateStruct runs go-playground/validator struct-tag validation
// against a factory's strongly-typed argument struct, giving concrete
// node factories a declarative way to enforce constraints (required,
// numeric ranges, oneof enumerations) beyond the registry's own
// named-parameter bookkeeping.
func (r *Registry) ValidateStruct(args any) error {
	return r.valid.Struct(args)
}
