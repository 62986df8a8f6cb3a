// Package graph implements the concurrent scheduler graph: a set of
// per-method endpoints and typed edges between them. The graph itself is
// type-erased — it moves pkg/value.Value payloads through buffered
// channels and knows nothing about node types or descriptors; type
// checking happens one layer up, in the pipeline controller's validate
// phase, before any edge reaches AddEdge.
package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexisbeaulieu97/easywork/pkg/value"
)

// Kind distinguishes the two endpoint archetypes.
type Kind int

const (
	KindSource Kind = iota
	KindFunction
)

// SourceFunc drives a source endpoint. It must call emit for every value it
// produces and return when exhausted, when emit reports an error (the
// graph is shutting down), or when ctx is done.
type SourceFunc func(ctx context.Context, emit func(context.Context, value.Value) error) error

// FunctionFunc invokes a function endpoint's method body against one
// gathered input bundle, returning its single output (or an empty Value
// when the method's output is void).
type FunctionFunc func(ctx context.Context, inputs []value.Value) (value.Value, error)

type inputSlot struct {
	ch    chan value.Value
	bound bool
}

type edge struct {
	consumer *Endpoint
	index    int
}

// Endpoint is the scheduler-level counterpart of one (node, method) pair.
type Endpoint struct {
	id         int
	kind       Kind
	inputs     []inputSlot
	outEdges   []edge
	source     SourceFunc
	fn         FunctionFunc
	outputVoid bool
	closeOnce  sync.Once
}

// ID returns the endpoint's graph-local identifier, stable for the
// lifetime of one build.
func (e *Endpoint) ID() int { return e.id }

// Kind reports whether the endpoint is a source or function endpoint.
func (e *Endpoint) Kind() Kind { return e.kind }

// Arity reports the endpoint's declared input count (zero for sources).
func (e *Endpoint) Arity() int { return len(e.inputs) }

// OutputVoid reports whether this endpoint's method produces no output, in
// which case it has no outgoing edges.
func (e *Endpoint) OutputVoid() bool { return e.outputVoid }

// RunSource invokes the endpoint's source body; it is an error to call this
// on a function endpoint.
func (e *Endpoint) RunSource(ctx context.Context) error {
	if e.kind != KindSource {
		return fmt.Errorf("graph: RunSource called on a function endpoint")
	}
	return e.source(ctx, e.Emit)
}

// Gather blocks until one value is available on every declared input, or
// until ctx is cancelled, or until any input channel is closed (meaning its
// sole producer has completed and will never send again). It returns
// ok=false in the closed-channel case, signalling the endpoint can never
// fire again. A value already buffered on an input is taken before
// cancellation is checked, so a cancelled Gather drops it along with the
// rest of the partial bundle.
func (e *Endpoint) Gather(ctx context.Context) (inputs []value.Value, ok bool, err error) {
	inputs = make([]value.Value, len(e.inputs))
	for i, slot := range e.inputs {
		select {
		case v, open := <-slot.ch:
			if !open {
				dropAll(inputs[:i])
				return nil, false, nil
			}
			inputs[i] = v
			continue
		default:
		}
		select {
		case v, open := <-slot.ch:
			if !open {
				dropAll(inputs[:i])
				return nil, false, nil
			}
			inputs[i] = v
		case <-ctx.Done():
			dropAll(inputs[:i])
			return nil, false, ctx.Err()
		}
	}
	return inputs, true, nil
}

func dropAll(values []value.Value) {
	for i := range values {
		values[i].Drop()
	}
}

// Invoke runs the endpoint's function body.
func (e *Endpoint) Invoke(ctx context.Context, inputs []value.Value) (value.Value, error) {
	return e.fn(ctx, inputs)
}

// Emit delivers v to every outgoing edge. When an endpoint fans out to more
// than one consumer, every edge but the last receives an independent Clone;
// the last receives v itself via Move, so exactly one edge ever owns the
// original payload.
func (e *Endpoint) Emit(ctx context.Context, v value.Value) error {
	if len(e.outEdges) == 0 {
		v.Drop()
		return nil
	}
	for i, ed := range e.outEdges {
		var toSend value.Value
		if i == len(e.outEdges)-1 {
			toSend = value.Move(&v)
		} else {
			clone, err := v.Clone()
			if err != nil {
				return err
			}
			toSend = clone
		}
		select {
		case ed.consumer.inputs[ed.index].ch <- toSend:
		case <-ctx.Done():
			toSend.Drop()
			return ctx.Err()
		}
	}
	return nil
}

// CloseOutputs closes every outgoing edge's channel, signalling downstream
// consumers that this endpoint will never emit again. Safe to call more
// than once.
func (e *Endpoint) CloseOutputs() {
	e.closeOnce.Do(func() {
		for _, ed := range e.outEdges {
			close(ed.consumer.inputs[ed.index].ch)
		}
	})
}

// Graph is the runtime endpoint-set and edge-set that an executor drives.
type Graph struct {
	mu        sync.Mutex
	endpoints []*Endpoint
	nextID    int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// AddSourceEndpoint registers a new source endpoint backed by body.
func (g *Graph) AddSourceEndpoint(body SourceFunc) *Endpoint {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	ep := &Endpoint{id: g.nextID, kind: KindSource, source: body}
	g.endpoints = append(g.endpoints, ep)
	return ep
}

// AddFunctionEndpoint registers a new function endpoint of the given input
// arity, backed by body. Each input gets its own bounded (capacity 1) FIFO
// buffer.
func (g *Graph) AddFunctionEndpoint(arity int, outputVoid bool, body FunctionFunc) *Endpoint {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	ep := &Endpoint{id: g.nextID, kind: KindFunction, fn: body, outputVoid: outputVoid}
	ep.inputs = make([]inputSlot, arity)
	for i := range ep.inputs {
		ep.inputs[i] = inputSlot{ch: make(chan value.Value, 1)}
	}
	g.endpoints = append(g.endpoints, ep)
	return ep
}

// AddEdge wires producer's output to consumer's input at inputIndex. At
// most one producer may ever be wired to a given (consumer, inputIndex)
// pair.
func (g *Graph) AddEdge(producer, consumer *Endpoint, inputIndex int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if inputIndex < 0 || inputIndex >= len(consumer.inputs) {
		return fmt.Errorf("graph: input index %d out of range for endpoint %d", inputIndex, consumer.id)
	}
	if consumer.inputs[inputIndex].bound {
		return fmt.Errorf("graph: endpoint %d input %d already bound", consumer.id, inputIndex)
	}
	consumer.inputs[inputIndex].bound = true
	producer.outEdges = append(producer.outEdges, edge{consumer: consumer, index: inputIndex})
	return nil
}

// Endpoints returns every endpoint registered since the last Reset, in
// registration order.
func (g *Graph) Endpoints() []*Endpoint {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Endpoint, len(g.endpoints))
	copy(out, g.endpoints)
	return out
}

// Reset removes every endpoint and edge, returning the graph to a blank
// state usable for another build.
func (g *Graph) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.endpoints = nil
	g.nextID = 0
}
