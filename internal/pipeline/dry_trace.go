package pipeline

import (
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/easywork/pkg/ewerrors"
)

// DryTraceReport summarises a built pipeline without running it — a host
// can print "what would run" after Build without handing the graph to the
// executor.
type DryTraceReport struct {
	Nodes     int
	Synthetic int
	Endpoints int
	Edges     int
	Plan      string
}

// String renders the report as a human-readable block.
func (r DryTraceReport) String() string {
	return r.Plan
}

// DryTrace reports the shape of the built graph: node/endpoint/edge
// counts and a per-node textual plan. Requires the controller to be
// Built, Connected or Active.
func (p *Pipeline) DryTrace() (DryTraceReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Built && p.state != Connected && p.state != Active {
		return DryTraceReport{}, ewerrors.NewInvalidStateError("dry-trace", p.state.String())
	}

	var b strings.Builder
	endpointCount := 0
	edgeCount := 0
	nodeCount := len(p.nodes)
	syntheticCount := len(p.synth)

	fmt.Fprintf(&b, "pipeline: %d node(s), %d synthetic\n", nodeCount, syntheticCount)
	for _, n := range p.nodes {
		info := n.TypeInfo()
		for _, m := range info.Methods.Methods() {
			endpointCount++
			bound := 0
			for _, bind := range n.Bindings(m.ID) {
				if bind.Bound {
					bound++
					edgeCount++
				}
			}
			fmt.Fprintf(&b, "  %s.%s: %d/%d inputs bound\n", info.Name, m.Name, bound, len(m.Inputs))
		}
	}
	for _, n := range p.synth {
		info := n.TypeInfo()
		for _, m := range info.Methods.Methods() {
			endpointCount++
			bound := 0
			for _, bind := range n.Bindings(m.ID) {
				if bind.Bound {
					bound++
					edgeCount++
				}
			}
			fmt.Fprintf(&b, "  [synthetic] %s.%s: %d/%d inputs bound\n", info.Name, m.Name, bound, len(m.Inputs))
		}
	}

	return DryTraceReport{
		Nodes:     nodeCount,
		Synthetic: syntheticCount,
		Endpoints: endpointCount,
		Edges:     edgeCount,
		Plan:      b.String(),
	}, nil
}
