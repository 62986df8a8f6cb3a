package node

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/easywork/internal/nodetype"
	"github.com/alexisbeaulieu97/easywork/pkg/value"
)

// tupleGetTypeName is the display name shared by every synthetic
// projection node; instances are distinguished by their bound
// index, not by type name.
const tupleGetTypeName = "tuple.get"

// NewTupleGet returns a synthetic single-method node that projects
// component index from a tuple-arity descriptor's value and forwards it
// as a value of the component's own type. source must have non-zero
// Arity (built via pkg/tuple's Pair/Triple). index is bounds-checked
// against source.Arity at construction time — a tuple-get node's shape
// is fixed for its lifetime, it is never rebuilt for a different index.
func NewTupleGet(source *nodetype.Descriptor, index int) (*Node, error) {
	if source.Arity() == 0 {
		return nil, fmt.Errorf("node: tuple-get requires a tuple-arity descriptor, got %s", source.Name())
	}
	if index < 0 || index >= source.Arity() {
		return nil, fmt.Errorf("node: tuple-get index %d out of range for %s (arity %d)", index, source.Name(), source.Arity())
	}
	component := source.Component(index)

	body := func(ctx context.Context, inputs []value.Value) (value.Value, error) {
		in := inputs[0]
		raw, err := asTupleAt(in, source, index)
		if err != nil {
			return value.Value{}, err
		}
		return value.MakeDynamic(component, raw), nil
	}

	return New(Spec{
		TypeName: tupleGetTypeName,
		Methods: []MethodDef{
			{
				Name:   ForwardMethodName,
				Inputs: []*nodetype.Descriptor{source},
				Output: component,
				Body:   body,
			},
		},
	}), nil
}

// asTupleAt decodes v (which must describe a tuple.Tuple of the given
// descriptor) and reads its index-th component. Tuple values are never
// small-buffer-eligible (they exceed inlineCapacity or are non-scalar),
// so the component read always goes through the payload path; we reach
// it via value.AsTuple using the same descriptor the tuple was
// constructed with, erased to the tuple.Tuple interface.
func asTupleAt(v value.Value, desc *nodetype.Descriptor, index int) (any, error) {
	t, err := value.AsTuple(v, desc)
	if err != nil {
		return nil, err
	}
	return t.At(index), nil
}
