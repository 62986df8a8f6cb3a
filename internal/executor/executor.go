// Package executor drives every endpoint of a built execution graph to
// quiescence, propagating the first runtime error and honouring external
// cancellation.
package executor

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/alexisbeaulieu97/easywork/internal/graph"
	"github.com/alexisbeaulieu97/easywork/internal/graphtrace"
	"github.com/alexisbeaulieu97/easywork/internal/logging"
	"github.com/alexisbeaulieu97/easywork/internal/node"
	"github.com/alexisbeaulieu97/easywork/pkg/ewerrors"
)

// Options configures one Run call.
type Options struct {
	// Workers bounds the number of method bodies invoked concurrently
	// across the whole graph. Zero or negative selects runtime.NumCPU().
	Workers int
	// Tracer, if non-nil, receives one event per endpoint fire/drain.
	Tracer *graphtrace.Tracer
	// Events, if non-nil, receives one Event per completed endpoint
	// invocation or source completion — a lighter-weight feed than
	// Tracer meant for a live UI (cmd/easywork/dashboard) rather than
	// structured log capture. Sends are non-blocking: a slow or absent
	// reader never stalls the graph.
	Events chan<- Event
}

// Event reports one endpoint completing a unit of work.
type Event struct {
	NodeType string
	Method   string
	Done     bool // true when a source endpoint will never fire again
	Err      error
}

func sendEvent(events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	default:
	}
}

// Run drives every endpoint in g until every source has completed and
// every buffer has drained (quiescence), until a node method raises (the
// executor cancels outstanding work, awaits in-flight tasks, and returns
// the first captured error), or until ctx is cancelled externally, in
// which case Run returns cleanly with an InterruptedError once in-flight
// work finishes.
func Run(ctx context.Context, g *graph.Graph, infos []node.EndpointInfo, opts Options) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	sem := make(chan struct{}, workers)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	meta := make(map[*graph.Endpoint]node.EndpointInfo, len(infos))
	for _, info := range infos {
		meta[info.Endpoint] = info
	}
	lookup := func(e *graph.Endpoint) (string, string) {
		if info, ok := meta[e]; ok {
			return info.NodeType, info.Method
		}
		return "unknown", "unknown"
	}

	runID := logging.CorrelationID(runCtx)

	var (
		errOnce  sync.Once
		firstErr error
	)
	captureErr := func(err error, nodeType, method string) {
		errOnce.Do(func() {
			firstErr = ewerrors.NewRuntimeNodeError(nodeType, method, runID, err)
			cancel()
		})
	}

	var wg sync.WaitGroup
	for _, ep := range g.Endpoints() {
		ep := ep
		wg.Add(1)
		go func() {
			defer wg.Done()
			nodeType, method := lookup(ep)
			switch ep.Kind() {
			case graph.KindSource:
				runSource(runCtx, ep, nodeType, method, opts.Tracer, opts.Events, runID, captureErr)
			case graph.KindFunction:
				runFunction(runCtx, ep, nodeType, method, sem, opts.Tracer, opts.Events, runID, captureErr)
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return ewerrors.NewInterruptedError(err)
	}
	return nil
}

func runSource(ctx context.Context, ep *graph.Endpoint, nodeType, method string, tracer *graphtrace.Tracer, events chan<- Event, runID string, captureErr func(error, string, string)) {
	tracer.Fire(runID, ep.ID(), nodeType, method)
	err := ep.RunSource(ctx)
	ep.CloseOutputs()
	tracer.SourceComplete(runID, ep.ID(), nodeType)
	if err != nil && !isCancellation(err) {
		captureErr(err, nodeType, method)
		sendEvent(events, Event{NodeType: nodeType, Method: method, Done: true, Err: err})
		return
	}
	sendEvent(events, Event{NodeType: nodeType, Method: method, Done: true})
}

func runFunction(ctx context.Context, ep *graph.Endpoint, nodeType, method string, sem chan struct{}, tracer *graphtrace.Tracer, events chan<- Event, runID string, captureErr func(error, string, string)) {
	defer ep.CloseOutputs()
	for {
		inputs, ok, err := ep.Gather(ctx)
		if err != nil {
			return
		}
		if !ok {
			return
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		tracer.Fire(runID, ep.ID(), nodeType, method)
		result, invokeErr := ep.Invoke(ctx, inputs)
		tracer.Drain(runID, ep.ID(), nodeType, method, invokeErr)
		<-sem

		// The method body reads inputs by value (value.As), it does not
		// take ownership; the dispatcher that gathered them is
		// responsible for running their destructors exactly once.
		for i := range inputs {
			inputs[i].Drop()
		}

		sendEvent(events, Event{NodeType: nodeType, Method: method, Err: invokeErr})

		if invokeErr != nil {
			captureErr(invokeErr, nodeType, method)
			return
		}
		if ep.OutputVoid() {
			continue
		}
		if err := ep.Emit(ctx, result); err != nil {
			if !isCancellation(err) {
				captureErr(err, nodeType, method)
			}
			return
		}
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
