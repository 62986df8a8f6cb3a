// Package node implements the polymorphic unit of computation: a node owns
// a method table, a per-method upstream binding list, and lifecycle hooks,
// and materialises its scheduler endpoints into an execution graph on
// demand.
package node

import (
	"context"
	"sync"

	"github.com/alexisbeaulieu97/easywork/internal/graph"
	"github.com/alexisbeaulieu97/easywork/internal/nodetype"
	"github.com/alexisbeaulieu97/easywork/pkg/ewerrors"
	"github.com/alexisbeaulieu97/easywork/pkg/value"
)

// ForwardMethodName is the default target of anonymous invocation;
// every source node and every synthetic node exposes it.
const ForwardMethodName = "forward"

// Body is the signature of a function method's implementation.
type Body func(ctx context.Context, inputs []value.Value) (value.Value, error)

// MethodDef describes one function-node method at construction time.
type MethodDef struct {
	Name   string
	Inputs []*nodetype.Descriptor
	Output *nodetype.Descriptor
	Body   Body
}

// SourceDef describes a source node's single "forward" method.
type SourceDef struct {
	Output *nodetype.Descriptor
	// Run emits values until internally exhausted, until emit returns an
	// error (graph shutting down), or until ctx is done.
	Run func(ctx context.Context, emit func(context.Context, value.Value) error) error
}

// Spec is the construction-time description of a node type, supplied by a
// factory in the node factory registry. A node is either a source
// (Source set) or a function node (one or more Methods) — never both.
type Spec struct {
	TypeName string
	Source   *SourceDef
	Methods  []MethodDef
	Open     func(args ...any) error
	Close    func() error
}

// Binding is one recorded upstream edge for a single declared input slot.
// Bound is false until BindInput fills the slot; the pipeline
// controller's validate phase reports every unbound slot, of every
// method, as a configuration error of its own.
type Binding struct {
	Bound          bool
	Producer       *Node
	ProducerMethod uint64
}

// Node is a stateful unit owning a method table and a per-method upstream
// list. Nodes are shared among the pipeline, the scheduler graph,
// and the host wrapper; the last owner to drop the node releases it — in
// Go that simply means the last reference goes out of scope.
type Node struct {
	mu       sync.Mutex
	info     *nodetype.TypeInfo
	source   *SourceDef
	bodies   map[uint64]Body
	openFn   func(args ...any) error
	closeFn  func() error
	open     bool
	built    bool
	bindings map[uint64][]Binding
	graph    *graph.Graph
	endpoint map[uint64]*graph.Endpoint
}

// New constructs a Node from a Spec, building its method table and method
// id hashes. It panics on a malformed spec (duplicate method names, a
// function node with zero methods) since specs are produced by trusted
// factories, not by end users.
func New(spec Spec) *Node {
	table := nodetype.NewMethodTable()
	n := &Node{
		bodies:   map[uint64]Body{},
		bindings: map[uint64][]Binding{},
		openFn:   spec.Open,
		closeFn:  spec.Close,
	}

	if spec.Source != nil {
		method := table.Add(ForwardMethodName, nil, spec.Source.Output)
		n.source = spec.Source
		n.bindings[method.ID] = nil
	} else {
		if len(spec.Methods) == 0 {
			panic("node: function node spec must declare at least one method")
		}
		for _, m := range spec.Methods {
			spec := table.Add(m.Name, m.Inputs, m.Output)
			n.bodies[spec.ID] = m.Body
			n.bindings[spec.ID] = make([]Binding, len(m.Inputs))
		}
	}

	n.info = nodetype.NewTypeInfo(spec.TypeName, table)
	return n
}

// TypeInfo returns the node's shared, immutable type record.
func (n *Node) TypeInfo() *nodetype.TypeInfo { return n.info }

// IsSource reports whether this node is a source node.
func (n *Node) IsSource() bool { return n.source != nil }

// IsOpen reports whether Open has been called without a matching Close.
func (n *Node) IsOpen() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.open
}

// Open runs the node's user lifecycle hook. Idempotent: calling Open on an
// already-open node is a no-op.
func (n *Node) Open(args ...any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.open {
		return nil
	}
	if n.openFn != nil {
		if err := n.openFn(args...); err != nil {
			return err
		}
	}
	n.open = true
	return nil
}

// Close runs the node's user lifecycle hook. Idempotent: calling Close on
// an already-closed node is a no-op.
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.open {
		return nil
	}
	if n.closeFn != nil {
		if err := n.closeFn(); err != nil {
			return err
		}
	}
	n.open = false
	return nil
}

// BindInput records that producer's producerMethod output feeds this
// node's methodID at inputIndex. Recorded bindings are stored by explicit
// index rather than call order, so the edge dispatcher can reconstruct the
// correct positional bundle regardless of the order a host declares edges
// in.
func (n *Node) BindInput(methodID uint64, inputIndex int, producer *Node, producerMethod uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	list, ok := n.bindings[methodID]
	if !ok {
		return ewerrors.NewUnknownMethodError(n.info.Name, methodIDName(n, methodID))
	}
	if inputIndex < 0 || inputIndex >= len(list) {
		return ewerrors.NewArgCountMismatchError(n.info.Name, methodIDName(n, methodID), len(list), inputIndex+1)
	}
	list[inputIndex] = Binding{Bound: true, Producer: producer, ProducerMethod: producerMethod}
	return nil
}

// Bindings returns the recorded upstream bindings for methodID, in input
// order. The returned slice must not be mutated by callers.
func (n *Node) Bindings(methodID uint64) []Binding {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.bindings[methodID]
}

// ClearBindings resets every method's upstream list, used by the pipeline
// controller on re-trace.
func (n *Node) ClearBindings() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, list := range n.bindings {
		n.bindings[id] = make([]Binding, len(list))
	}
}

// OutputDescriptor reports the output type of methodID.
func (n *Node) OutputDescriptor(methodID uint64) (*nodetype.Descriptor, error) {
	spec, ok := n.info.Methods.ByID(methodID)
	if !ok {
		return nil, ewerrors.NewUnknownMethodError(n.info.Name, methodIDName(n, methodID))
	}
	return spec.Output, nil
}

func methodIDName(n *Node, id uint64) string {
	if spec, ok := n.info.Methods.ByID(id); ok {
		return spec.Name
	}
	return "<unknown>"
}

// Invoke is the eager entry point: used
// directly outside of any pipeline trace, it validates argument count and
// type against the method table, runs the method body, and returns its
// Value (or an empty Value when the output is void).
func (n *Node) Invoke(ctx context.Context, methodID uint64, inputs ...value.Value) (value.Value, error) {
	spec, ok := n.info.Methods.ByID(methodID)
	if !ok {
		return value.Value{}, ewerrors.NewUnknownMethodError(n.info.Name, methodIDName(n, methodID))
	}
	if len(inputs) != len(spec.Inputs) {
		return value.Value{}, ewerrors.NewArgCountMismatchError(n.info.Name, spec.Name, len(spec.Inputs), len(inputs))
	}
	for i, in := range inputs {
		if in.Descriptor() != spec.Inputs[i] {
			return value.Value{}, ewerrors.NewArgTypeMismatchError(n.info.Name, spec.Name, i, spec.Inputs[i].Name(), in.Descriptor().Name())
		}
	}
	body, ok := n.bodies[methodID]
	if !ok {
		return value.Value{}, ewerrors.NewUnknownMethodError(n.info.Name, spec.Name)
	}
	return body(ctx, inputs)
}

// Build materialises this node's scheduler endpoints into g exactly once;
// subsequent calls are no-ops until Reset.
func (n *Node) Build(g *graph.Graph) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.built {
		return nil
	}
	n.graph = g
	n.endpoint = map[uint64]*graph.Endpoint{}

	if n.source != nil {
		spec, _ := n.info.Methods.ByName(ForwardMethodName)
		ep := g.AddSourceEndpoint(n.wrapSource())
		n.endpoint[spec.ID] = ep
	} else {
		for _, m := range n.info.Methods.Methods() {
			body := n.bodies[m.ID]
			ep := g.AddFunctionEndpoint(len(m.Inputs), m.Output == nodetype.Void(), n.wrapFunction(m.ID, body))
			n.endpoint[m.ID] = ep
		}
	}

	n.built = true
	return nil
}

// Connect wires this node's endpoints to the endpoints of its upstream
// nodes, replaying the bindings recorded since the last trace.
func (n *Node) Connect() error {
	n.mu.Lock()
	bindings := make(map[uint64][]Binding, len(n.bindings))
	for id, list := range n.bindings {
		bindings[id] = append([]Binding(nil), list...)
	}
	endpoints := n.endpoint
	n.mu.Unlock()

	for methodID, list := range bindings {
		consumerEP, ok := endpoints[methodID]
		if !ok {
			continue
		}
		for idx, b := range list {
			if !b.Bound {
				continue
			}
			producerEP, ok := b.Producer.endpointFor(b.ProducerMethod)
			if !ok {
				return ewerrors.NewUnknownMethodError(b.Producer.info.Name, methodIDName(b.Producer, b.ProducerMethod))
			}
			if err := n.graph.AddEdge(producerEP, consumerEP, idx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (n *Node) endpointFor(methodID uint64) (*graph.Endpoint, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ep, ok := n.endpoint[methodID]
	return ep, ok
}

// EndpointInfo names one of this node's materialised scheduler endpoints,
// for diagnostics (dry-trace reports, hot-path tracing) that want to show
// a node type and method name rather than a bare graph-local endpoint id.
type EndpointInfo struct {
	Endpoint *graph.Endpoint
	NodeType string
	Method   string
}

// Endpoints returns this node's materialised endpoints, empty until Build
// has run.
func (n *Node) Endpoints() []EndpointInfo {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]EndpointInfo, 0, len(n.endpoint))
	for id, ep := range n.endpoint {
		name := methodIDName(n, id)
		out = append(out, EndpointInfo{Endpoint: ep, NodeType: n.info.Name, Method: name})
	}
	return out
}

// Activate is a no-op for every node: source nodes begin producing only
// once the executor starts driving the graph during Run.
func (n *Node) Activate() error {
	return nil
}

// ResetBuilt clears the built flag so the next Build call re-materialises
// endpoints into a fresh graph (used by the pipeline controller's Reset).
func (n *Node) ResetBuilt() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.built = false
	n.endpoint = nil
	n.graph = nil
}

func (n *Node) wrapSource() graph.SourceFunc {
	return func(ctx context.Context, emit func(context.Context, value.Value) error) error {
		return n.source.Run(ctx, emit)
	}
}

func (n *Node) wrapFunction(methodID uint64, body Body) graph.FunctionFunc {
	return func(ctx context.Context, inputs []value.Value) (value.Value, error) {
		return body(ctx, inputs)
	}
}
