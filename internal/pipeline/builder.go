package pipeline

import (
	"fmt"

	"github.com/alexisbeaulieu97/easywork/internal/node"
	"github.com/alexisbeaulieu97/easywork/internal/nodetype"
	"github.com/alexisbeaulieu97/easywork/pkg/ewerrors"
)

// Symbol is a host-side handle for (producer endpoint, descriptor)
// recorded during tracing — the traced-mode counterpart of the concrete
// Value an eager invoke would return.
type Symbol struct {
	node   *node.Node
	method uint64
	desc   *nodetype.Descriptor
}

// Descriptor reports the type a Symbol's producer emits.
func (s Symbol) Descriptor() *nodetype.Descriptor { return s.desc }

type tupleKey struct {
	producer *node.Node
	method   uint64
	index    int
}

// Builder is the tracing-scope DSL a host's topology function receives. It
// exists only for the lifetime of one Trace call.
type Builder struct {
	p          *Pipeline
	tupleCache map[tupleKey]*node.Node
}

// Call binds args, in order, to n's method named methodName and returns a
// Symbol for its output. n is
// registered with the pipeline if it has not been already. Calling Call
// with zero args against a source node's forward method simply returns
// its output Symbol — there is nothing to bind.
func (b *Builder) Call(n *node.Node, methodName string, args ...Symbol) (Symbol, error) {
	b.p.registerNode(n)
	spec, ok := n.TypeInfo().Methods.ByName(methodName)
	if !ok {
		return Symbol{}, ewerrors.NewUnknownMethodError(n.TypeInfo().Name, methodName)
	}
	if len(args) != len(spec.Inputs) {
		return Symbol{}, ewerrors.NewArgCountMismatchError(n.TypeInfo().Name, spec.Name, len(spec.Inputs), len(args))
	}
	for i, a := range args {
		if err := n.BindInput(spec.ID, i, a.node, a.method); err != nil {
			return Symbol{}, err
		}
	}
	return Symbol{node: n, method: spec.ID, desc: spec.Output}, nil
}

// Bind records a single positional binding directly by method name,
// bypassing the Symbol bookkeeping Call provides. It exists for host
// layers that already know a producer/consumer/index triple ahead of
// time — the declarative YAML manifest loader in cmd/easywork being the
// motivating case — rather than composing a topology through nested Call
// expressions.
func (b *Builder) Bind(consumer *node.Node, consumerMethod string, inputIndex int, producer *node.Node, producerMethod string) error {
	b.p.registerNode(consumer)
	b.p.registerNode(producer)

	cSpec, ok := consumer.TypeInfo().Methods.ByName(consumerMethod)
	if !ok {
		return ewerrors.NewUnknownMethodError(consumer.TypeInfo().Name, consumerMethod)
	}
	pSpec, ok := producer.TypeInfo().Methods.ByName(producerMethod)
	if !ok {
		return ewerrors.NewUnknownMethodError(producer.TypeInfo().Name, producerMethod)
	}
	return consumer.BindInput(cSpec.ID, inputIndex, producer, pSpec.ID)
}

// Unpack projects every component out of a tuple-typed Symbol, inserting a
// synthetic TupleGet node per component. Exactly one TupleGet node
// is created per (producer, producer-method, index) triple within one
// trace — repeated Unpack calls against the same Symbol reuse it.
func (b *Builder) Unpack(sym Symbol) ([]Symbol, error) {
	if sym.desc == nil || sym.desc.Arity() == 0 {
		return nil, fmt.Errorf("pipeline: cannot unpack non-tuple output %s", describeDesc(sym.desc))
	}
	arity := sym.desc.Arity()
	out := make([]Symbol, arity)
	for i := 0; i < arity; i++ {
		key := tupleKey{producer: sym.node, method: sym.method, index: i}
		tg, ok := b.tupleCache[key]
		if !ok {
			var err error
			tg, err = node.NewTupleGet(sym.desc, i)
			if err != nil {
				return nil, err
			}
			b.tupleCache[key] = tg
			b.p.registerSynthetic(tg)
			forward, _ := tg.TypeInfo().Methods.ByName(node.ForwardMethodName)
			if err := tg.BindInput(forward.ID, 0, sym.node, sym.method); err != nil {
				return nil, err
			}
		}
		forward, _ := tg.TypeInfo().Methods.ByName(node.ForwardMethodName)
		out[i] = Symbol{node: tg, method: forward.ID, desc: sym.desc.Component(i)}
	}
	return out, nil
}

func describeDesc(d *nodetype.Descriptor) string {
	if d == nil {
		return "<void>"
	}
	return d.Name()
}
