// Package pipeline implements the controller state machine that carries a
// user's traced topology through validate, build, connect, activate and
// run, and back to idle on reset.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexisbeaulieu97/easywork/internal/executor"
	"github.com/alexisbeaulieu97/easywork/internal/graph"
	"github.com/alexisbeaulieu97/easywork/internal/graphtrace"
	"github.com/alexisbeaulieu97/easywork/internal/logging"
	"github.com/alexisbeaulieu97/easywork/internal/node"
	"github.com/alexisbeaulieu97/easywork/pkg/ewerrors"
)

// Options configures a Pipeline's ambient collaborators. A zero Options
// value is valid: logging falls back to a no-op logger and tracing is
// disabled.
type Options struct {
	Logger  logging.Logger
	Tracer  *graphtrace.Tracer
	Workers int
	// Events, if non-nil, is forwarded to the executor so a live UI can
	// subscribe to per-endpoint completion without going through the
	// structured logger.
	Events chan<- executor.Event
}

// Pipeline is the controller coordinating one execution graph's lifecycle.
// It is not safe for concurrent use from more than one goroutine —
// tracing and the run loop are expected to be driven sequentially by one
// host goroutine, matching the active-pipeline scoping model.
type Pipeline struct {
	mu sync.Mutex

	state State
	nodes []*node.Node // user-registered, first-use order
	known map[*node.Node]bool
	synth []*node.Node // synthetic tuple-get nodes from the last trace

	traceFn func(*Builder) error

	graph *graph.Graph
	log   logging.Logger
	trace *graphtrace.Tracer
	opts  executor.Options
}

// New returns an Idle pipeline.
func New(opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = logging.NoOpLogger{}
	}
	return &Pipeline{
		state: Idle,
		known: map[*node.Node]bool{},
		graph: graph.New(),
		log:   log.With("layer", "pipeline"),
		trace: opts.Tracer,
		opts:  executor.Options{Workers: opts.Workers, Tracer: opts.Tracer, Events: opts.Events},
	}
}

// Use registers user-created nodes with the pipeline ahead of tracing, so
// that source nodes with no consumers (or sink nodes with no further
// readers) are still built, connected, and activated even though no
// Builder.Call ever mentions them again as an argument.
func (p *Pipeline) Use(nodes ...*node.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range nodes {
		p.registerNodeLocked(n)
	}
}

func (p *Pipeline) registerNode(n *node.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registerNodeLocked(n)
}

func (p *Pipeline) registerNodeLocked(n *node.Node) {
	if n == nil || p.known[n] {
		return
	}
	p.known[n] = true
	p.nodes = append(p.nodes, n)
}

func (p *Pipeline) registerSynthetic(n *node.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.synth = append(p.synth, n)
}

// State reports the controller's current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Trace clears prior bindings and synthetic nodes, installs this pipeline
// as the active tracing scope, and runs fn, which declares the topology
// via the Builder it receives. Trace is re-entered automatically by Run
// on every call after the first, so fn is retained rather than discarded
// after first use.
func (p *Pipeline) Trace(fn func(*Builder) error) error {
	p.mu.Lock()
	if err := p.requireStateLocked("trace", Idle, Stopped, Traced, Validated); err != nil {
		p.mu.Unlock()
		return err
	}
	p.traceFn = fn
	for _, n := range p.nodes {
		n.ClearBindings()
	}
	for _, n := range p.synth {
		n.ClearBindings()
	}
	p.synth = nil
	p.mu.Unlock()

	b := &Builder{p: p, tupleCache: map[tupleKey]*node.Node{}}
	pushActive(p)
	err := fn(b)
	popActive()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state = Error
		return err
	}
	p.state = Traced
	p.log.Debug(context.Background(), "traced", "nodes", len(p.nodes), "synthetic", len(p.synth))
	return nil
}

func (p *Pipeline) requireStateLocked(op string, want ...State) error {
	for _, s := range want {
		if p.state == s {
			return nil
		}
	}
	return ewerrors.NewInvalidStateError(op, p.state.String())
}

// Validate checks every recorded binding's producer output type against
// the consumer's declared input type, aggregating every mismatch before
// raising TypeValidationError. It is deterministic: two
// calls against the same traced topology report the same mismatches.
func (p *Pipeline) Validate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireStateLocked("validate", Traced); err != nil {
		return err
	}

	var mismatches []ewerrors.TypeMismatchDetail
	all := append(append([]*node.Node{}, p.nodes...), p.synth...)
	for _, n := range all {
		info := n.TypeInfo()
		for _, m := range info.Methods.Methods() {
			bindings := n.Bindings(m.ID)
			for idx, b := range bindings {
				if !b.Bound {
					mismatches = append(mismatches, ewerrors.TypeMismatchDetail{
						ConsumerType: info.Name,
						Method:       m.Name,
						InputIndex:   idx,
						Reason:       "input not bound",
					})
					continue
				}
				outDesc, err := b.Producer.OutputDescriptor(b.ProducerMethod)
				if err != nil {
					mismatches = append(mismatches, ewerrors.TypeMismatchDetail{
						ConsumerType: info.Name,
						Method:       m.Name,
						InputIndex:   idx,
						Reason:       err.Error(),
					})
					continue
				}
				if outDesc != m.Inputs[idx] {
					mismatches = append(mismatches, ewerrors.TypeMismatchDetail{
						ConsumerType: info.Name,
						Method:       m.Name,
						InputIndex:   idx,
						Want:         m.Inputs[idx].Name(),
						Got:          outDesc.Name(),
					})
				}
			}
		}
	}

	if len(mismatches) > 0 {
		p.state = Error
		return ewerrors.NewTypeValidationError(mismatches)
	}
	p.state = Validated
	return nil
}

// Build asks every node, in declaration order, to materialise its
// scheduler endpoints into a fresh graph. Synthetic
// tuple-get nodes build alongside the nodes that reference them.
func (p *Pipeline) Build() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireStateLocked("build", Validated); err != nil {
		return err
	}
	p.graph.Reset()
	all := append(append([]*node.Node{}, p.nodes...), p.synth...)
	for _, n := range all {
		n.ResetBuilt()
		if err := n.Build(p.graph); err != nil {
			p.state = Error
			return err
		}
	}
	p.state = Built
	return nil
}

// Connect replays recorded bindings into graph edges.
func (p *Pipeline) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireStateLocked("connect", Built); err != nil {
		return err
	}
	all := append(append([]*node.Node{}, p.nodes...), p.synth...)
	for _, n := range all {
		if err := n.Connect(); err != nil {
			p.state = Error
			return err
		}
	}
	p.state = Connected
	return nil
}

// Activate arms every node and verifies every user-created node is open,
// raising NotOpenedError naming the closed ones otherwise.
// Synthetic tuple-get nodes carry no user lifecycle and are exempt.
func (p *Pipeline) Activate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireStateLocked("activate", Connected); err != nil {
		return err
	}
	var notOpened []string
	for _, n := range p.nodes {
		if !n.IsOpen() {
			notOpened = append(notOpened, n.TypeInfo().Name)
		}
	}
	if len(notOpened) > 0 {
		p.state = Error
		return ewerrors.NewNotOpenedError(notOpened)
	}
	all := append(append([]*node.Node{}, p.nodes...), p.synth...)
	for _, n := range all {
		if err := n.Activate(); err != nil {
			p.state = Error
			return err
		}
	}
	p.state = Active
	return nil
}

// Run hands the graph to the executor and blocks until quiescence, a
// runtime error, or external cancellation via ctx.
//
// If the controller is Idle or Stopped, Run first advances it to Active:
// it re-traces (using the function passed to the most recent Trace),
// re-validates, rebuilds, reconnects and activates before running —
// these re-run semantics exist so a host can mutate node state between
// runs and call Run again without re-plumbing the whole lifecycle by
// hand. From Traced, Validated, Built, Connected or Error, Run returns
// an InvalidStateError without running.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.ensureActive(); err != nil {
		return err
	}

	p.mu.Lock()
	p.state = Running
	g := p.graph
	all := append(append([]*node.Node{}, p.nodes...), p.synth...)
	p.mu.Unlock()

	var infos []node.EndpointInfo
	for _, n := range all {
		infos = append(infos, n.Endpoints()...)
	}

	runID := logging.NewCorrelationID()
	ctx = logging.WithCorrelationID(ctx, runID)
	p.log.Info(ctx, "run starting", "nodes", len(all))

	err := executor.Run(ctx, g, infos, p.opts)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = Stopped
	if err != nil {
		p.log.Error(ctx, "run failed", "error", err)
		return err
	}
	p.log.Info(ctx, "run complete")
	return nil
}

func (p *Pipeline) ensureActive() error {
	p.mu.Lock()
	state := p.state
	traceFn := p.traceFn
	p.mu.Unlock()

	if state == Active {
		return nil
	}
	if state != Idle && state != Stopped {
		return ewerrors.NewInvalidStateError("run", state.String())
	}
	if traceFn == nil {
		return fmt.Errorf("pipeline: run requires a topology traced at least once")
	}
	if err := p.Trace(traceFn); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := p.Build(); err != nil {
		return err
	}
	if err := p.Connect(); err != nil {
		return err
	}
	return p.Activate()
}

// Reset releases the graph and returns the controller to Idle, keeping
// every node object alive. Callable from any state.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.graph.Reset()
	for _, n := range p.nodes {
		n.ResetBuilt()
		n.ClearBindings()
	}
	p.synth = nil
	p.state = Idle
}
