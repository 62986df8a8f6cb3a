package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/easywork/internal/graph"
	"github.com/alexisbeaulieu97/easywork/internal/nodetype"
	"github.com/alexisbeaulieu97/easywork/pkg/tuple"
	"github.com/alexisbeaulieu97/easywork/pkg/value"
)

func newAdderNode() *Node {
	return New(Spec{
		TypeName: "test.Adder",
		Methods: []MethodDef{
			{
				Name:   ForwardMethodName,
				Inputs: []*nodetype.Descriptor{nodetype.TypeOf[int](), nodetype.TypeOf[int]()},
				Output: nodetype.TypeOf[int](),
				Body: func(ctx context.Context, inputs []value.Value) (value.Value, error) {
					a, err := value.As[int](inputs[0])
					if err != nil {
						return value.Value{}, err
					}
					b, err := value.As[int](inputs[1])
					if err != nil {
						return value.Value{}, err
					}
					return value.Make(a + b), nil
				},
			},
		},
	})
}

func TestNewPanicsOnEmptyFunctionSpec(t *testing.T) {
	t.Parallel()
	require.Panics(t, func() { New(Spec{TypeName: "bad"}) })
}

func TestInvokeEager(t *testing.T) {
	t.Parallel()

	n := newAdderNode()
	methodID := nodetype.HashMethodName(ForwardMethodName)
	out, err := n.Invoke(context.Background(), methodID, value.Make(2), value.Make(3))
	require.NoError(t, err)
	got, err := value.As[int](out)
	require.NoError(t, err)
	require.Equal(t, 5, got)
}

func TestInvokeArgCountMismatch(t *testing.T) {
	t.Parallel()

	n := newAdderNode()
	methodID := nodetype.HashMethodName(ForwardMethodName)
	_, err := n.Invoke(context.Background(), methodID, value.Make(2))
	require.Error(t, err)
}

func TestInvokeArgTypeMismatch(t *testing.T) {
	t.Parallel()

	n := newAdderNode()
	methodID := nodetype.HashMethodName(ForwardMethodName)
	_, err := n.Invoke(context.Background(), methodID, value.Make("two"), value.Make(3))
	require.Error(t, err)
}

func TestInvokeUnknownMethod(t *testing.T) {
	t.Parallel()

	n := newAdderNode()
	_, err := n.Invoke(context.Background(), nodetype.HashMethodName("missing"))
	require.Error(t, err)
}

func TestOpenCloseIdempotent(t *testing.T) {
	t.Parallel()

	opens, closes := 0, 0
	n := New(Spec{
		TypeName: "test.Lifecycle",
		Methods: []MethodDef{{
			Name:   ForwardMethodName,
			Output: nodetype.Void(),
			Body:   func(ctx context.Context, inputs []value.Value) (value.Value, error) { return value.Value{}, nil },
		}},
		Open:  func(args ...any) error { opens++; return nil },
		Close: func() error { closes++; return nil },
	})

	require.False(t, n.IsOpen())
	require.NoError(t, n.Open())
	require.NoError(t, n.Open())
	require.Equal(t, 1, opens, "Open must be idempotent")
	require.True(t, n.IsOpen())

	require.NoError(t, n.Close())
	require.NoError(t, n.Close())
	require.Equal(t, 1, closes, "Close must be idempotent")
	require.False(t, n.IsOpen())
}

func TestBindInputUnknownMethod(t *testing.T) {
	t.Parallel()

	n := newAdderNode()
	producer := newAdderNode()
	err := n.BindInput(nodetype.HashMethodName("missing"), 0, producer, nodetype.HashMethodName(ForwardMethodName))
	require.Error(t, err)
}

func TestBindInputOutOfRange(t *testing.T) {
	t.Parallel()

	n := newAdderNode()
	producer := newAdderNode()
	methodID := nodetype.HashMethodName(ForwardMethodName)
	err := n.BindInput(methodID, 5, producer, methodID)
	require.Error(t, err)
}

func TestClearBindingsResetsToUnbound(t *testing.T) {
	t.Parallel()

	n := newAdderNode()
	producer := newAdderNode()
	methodID := nodetype.HashMethodName(ForwardMethodName)

	require.NoError(t, n.BindInput(methodID, 0, producer, methodID))
	require.True(t, n.Bindings(methodID)[0].Bound)

	n.ClearBindings()
	require.False(t, n.Bindings(methodID)[0].Bound)
}

func TestBuildIsIdempotent(t *testing.T) {
	t.Parallel()

	n := newAdderNode()
	g := graph.New()
	require.NoError(t, n.Build(g))
	require.Len(t, g.Endpoints(), 1)
	require.NoError(t, n.Build(g))
	require.Len(t, g.Endpoints(), 1, "a second Build call must not add duplicate endpoints")
}

func TestResetBuiltAllowsRebuild(t *testing.T) {
	t.Parallel()

	n := newAdderNode()
	g1 := graph.New()
	require.NoError(t, n.Build(g1))
	require.Len(t, n.Endpoints(), 1)

	n.ResetBuilt()
	require.Empty(t, n.Endpoints())

	g2 := graph.New()
	require.NoError(t, n.Build(g2))
	require.Len(t, n.Endpoints(), 1)
}

func TestConnectReplaysBindings(t *testing.T) {
	t.Parallel()

	source := New(Spec{
		TypeName: "test.Source",
		Source: &SourceDef{
			Output: nodetype.TypeOf[int](),
			Run: func(ctx context.Context, emit func(context.Context, value.Value) error) error {
				return nil
			},
		},
	})
	consumer := newAdderNode()
	forwardID := nodetype.HashMethodName(ForwardMethodName)

	require.NoError(t, consumer.BindInput(forwardID, 0, source, forwardID))
	require.NoError(t, consumer.BindInput(forwardID, 1, source, forwardID))

	g := graph.New()
	require.NoError(t, source.Build(g))
	require.NoError(t, consumer.Build(g))
	require.NoError(t, source.Connect())
	require.NoError(t, consumer.Connect())
}

func TestNewTupleGetProjectsComponent(t *testing.T) {
	t.Parallel()

	pairDesc := nodetype.TypeOf[tuple.Pair[int, string]]()
	tg, err := NewTupleGet(pairDesc, 1)
	require.NoError(t, err)

	forwardID := nodetype.HashMethodName(ForwardMethodName)
	out, err := tg.Invoke(context.Background(), forwardID, value.Make(tuple.Pair[int, string]{First: 9, Second: "nine"}))
	require.NoError(t, err)
	got, err := value.As[string](out)
	require.NoError(t, err)
	require.Equal(t, "nine", got)
}

func TestNewTupleGetRejectsNonTuple(t *testing.T) {
	t.Parallel()

	_, err := NewTupleGet(nodetype.TypeOf[int](), 0)
	require.Error(t, err)
}

func TestNewTupleGetRejectsOutOfRangeIndex(t *testing.T) {
	t.Parallel()

	pairDesc := nodetype.TypeOf[tuple.Pair[int, string]]()
	_, err := NewTupleGet(pairDesc, 2)
	require.Error(t, err)
}
