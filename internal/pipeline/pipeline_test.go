package pipeline

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/easywork/examples/nodes/basic"
	"github.com/alexisbeaulieu97/easywork/internal/node"
	"github.com/alexisbeaulieu97/easywork/internal/nodetype"
	"github.com/alexisbeaulieu97/easywork/pkg/value"
)

func buildChain(t *testing.T) (*Pipeline, *basic.NumberSource, *basic.PrefixText) {
	t.Helper()
	src := basic.NewNumberSource(0, 5, 1)
	mult := basic.NewMultiplyBy(2)
	toText := basic.NewIntToText()
	sink := basic.NewPrefixText("n=")

	require.NoError(t, src.Open())
	require.NoError(t, mult.Open())
	require.NoError(t, toText.Open())
	require.NoError(t, sink.Open())

	p := New(Options{})
	require.NoError(t, p.Trace(func(b *Builder) error {
		out, err := b.Call(src.Node, node.ForwardMethodName)
		if err != nil {
			return err
		}
		out, err = b.Call(mult, node.ForwardMethodName, out)
		if err != nil {
			return err
		}
		out, err = b.Call(toText, node.ForwardMethodName, out)
		if err != nil {
			return err
		}
		_, err = b.Call(sink.Node, node.ForwardMethodName, out)
		return err
	}))
	return p, src, sink
}

func TestPipelineEndToEndChain(t *testing.T) {
	t.Parallel()

	p, _, sink := buildChain(t)
	require.NoError(t, p.Validate())
	require.NoError(t, p.Build())
	require.NoError(t, p.Connect())
	require.NoError(t, p.Activate())
	require.NoError(t, p.Run(context.Background()))

	got := sink.Observations()
	sort.Strings(got)
	require.Equal(t, []string{"n=0", "n=2", "n=4", "n=6", "n=8"}, got)
	require.Equal(t, Stopped, p.State())
}

func TestPipelineRerunAfterStopped(t *testing.T) {
	t.Parallel()

	p, src, sink := buildChain(t)
	require.NoError(t, p.Validate())
	require.NoError(t, p.Build())
	require.NoError(t, p.Connect())
	require.NoError(t, p.Activate())
	require.NoError(t, p.Run(context.Background()))
	require.Len(t, sink.Observations(), 5)

	require.NoError(t, src.Open()) // re-open so the source rewinds
	require.NoError(t, p.Run(context.Background()))
	require.Len(t, sink.Observations(), 10, "a second Run must re-trace and re-execute the chain")
}

func TestPipelineResetRoundTrip(t *testing.T) {
	t.Parallel()

	p, _, _ := buildChain(t)
	require.NoError(t, p.Validate())
	require.NoError(t, p.Build())
	require.NoError(t, p.Connect())
	require.NoError(t, p.Activate())

	p.Reset()
	require.Equal(t, Idle, p.State())

	require.NoError(t, p.Trace(func(b *Builder) error { return nil }))
	require.Equal(t, Traced, p.State())
}

func TestValidateAggregatesAllMismatches(t *testing.T) {
	t.Parallel()

	mult1 := basic.NewMultiplyBy(2)
	mult2 := basic.NewMultiplyBy(3)

	p := New(Options{})
	require.NoError(t, p.Trace(func(b *Builder) error {
		p.Use(mult1)
		p.Use(mult2)
		return nil
	}))

	err := p.Validate()
	require.Error(t, err)
	require.Equal(t, Error, p.State())
	require.Contains(t, err.Error(), "MultiplyBy")
}

func TestActivateRejectsUnopenedNode(t *testing.T) {
	t.Parallel()

	src := basic.NewNumberSource(0, 1, 1)
	p := New(Options{})
	require.NoError(t, p.Trace(func(b *Builder) error {
		_, err := b.Call(src.Node, node.ForwardMethodName)
		return err
	}))
	require.NoError(t, p.Validate())
	require.NoError(t, p.Build())
	require.NoError(t, p.Connect())

	err := p.Activate()
	require.Error(t, err)
}

func TestUnpackProjectsTupleComponents(t *testing.T) {
	t.Parallel()

	emitter := basic.NewPairEmitter(0, 3)
	joiner := basic.NewThreeWaySink()
	require.NoError(t, emitter.Open())
	require.NoError(t, joiner.Open())

	p := New(Options{})
	require.NoError(t, p.Trace(func(b *Builder) error {
		pairSym, err := b.Call(emitter, node.ForwardMethodName)
		if err != nil {
			return err
		}
		parts, err := b.Unpack(pairSym)
		if err != nil {
			return err
		}
		require.Len(t, parts, 2)
		if _, err = b.Call(joiner.Node, "right", parts[0]); err != nil {
			return err
		}
		if _, err = b.Call(joiner.Node, node.ForwardMethodName, parts[0]); err != nil {
			return err
		}
		_, err = b.Call(joiner.Node, "left", parts[0])
		return err
	}))
	require.NoError(t, p.Validate())
	require.NoError(t, p.Build())
	require.NoError(t, p.Connect())
	require.NoError(t, p.Activate())
	require.NoError(t, p.Run(context.Background()))

	left, _, _ := joiner.Counts()
	require.Equal(t, 3, left)
}

func TestDryTraceReportsEndpointCounts(t *testing.T) {
	t.Parallel()

	p, _, _ := buildChain(t)
	require.NoError(t, p.Validate())
	require.NoError(t, p.Build())
	require.NoError(t, p.Connect())

	report, err := p.DryTrace()
	require.NoError(t, err)
	require.Equal(t, 4, report.Nodes)
	require.Equal(t, 4, report.Endpoints)
	require.Equal(t, 3, report.Edges)
	require.Contains(t, report.String(), "examples.NumberSource")
}

func TestInvokeOutsideTraceRunsEagerly(t *testing.T) {
	t.Parallel()

	mult := basic.NewMultiplyBy(10)
	methodID := nodetype.HashMethodName(node.ForwardMethodName)
	out, err := mult.Invoke(context.Background(), methodID, value.Make(4))
	require.NoError(t, err)
	got, err := value.As[int](out)
	require.NoError(t, err)
	require.Equal(t, 40, got)
}
