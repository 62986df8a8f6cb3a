package value

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/easywork/internal/nodetype"
	"github.com/alexisbeaulieu97/easywork/pkg/tuple"
)

type box struct {
	payload [32]byte
}

type trackedPayload struct {
	live *int
}

func newTrackedPayload(live *int) trackedPayload {
	*live++
	return trackedPayload{live: live}
}

func (t trackedPayload) Destroy() {
	*t.live--
}

func TestMakeAndAsScalarRoundTrip(t *testing.T) {
	t.Parallel()

	v := Make(42)
	require.True(t, v.Inline())
	got, err := As[int](v)
	require.NoError(t, err)
	require.Equal(t, 42, got)
}

func TestMakeBoxesLargePayload(t *testing.T) {
	t.Parallel()

	v := Make(box{})
	require.False(t, v.Inline())
	_, err := As[box](v)
	require.NoError(t, err)
}

func TestAsTypeMismatch(t *testing.T) {
	t.Parallel()

	v := Make(42)
	_, err := As[string](v)
	require.Error(t, err)
}

func TestAsEmptyValue(t *testing.T) {
	t.Parallel()

	var v Value
	_, err := As[int](v)
	require.Error(t, err)
}

func TestMoveEmptiesSource(t *testing.T) {
	t.Parallel()

	v := Make("hello")
	moved := Move(&v)
	require.True(t, v.IsEmpty())
	got, err := As[string](moved)
	require.NoError(t, err)
	require.Equal(t, "hello", got)
}

func TestDropRunsDestructorOnce(t *testing.T) {
	t.Parallel()

	live := 0
	v := Make(newTrackedPayload(&live))
	require.Equal(t, 1, live)
	v.Drop()
	require.Equal(t, 0, live)
	v.Drop()
	require.Equal(t, 0, live, "dropping twice must not double-destroy")
}

func TestCloneIndependentOfOriginal(t *testing.T) {
	t.Parallel()

	live := 0
	v := Make(newTrackedPayload(&live))
	require.Equal(t, 1, live)

	clone, err := v.Clone()
	require.NoError(t, err)

	// Cloning a Destroyable payload boxes a fresh copy of the same struct
	// without running its constructor, so the counter is not incremented;
	// each Drop runs Destroy once on the shared counter, taking it to zero
	// after the original and to -1 after the clone.
	v.Drop()
	require.Equal(t, 0, live)
	clone.Drop()
	require.Equal(t, -1, live)
}

func TestCloneInlineScalar(t *testing.T) {
	t.Parallel()

	v := Make(7)
	clone, err := v.Clone()
	require.NoError(t, err)
	got, err := As[int](clone)
	require.NoError(t, err)
	require.Equal(t, 7, got)
}

func TestAsTuple(t *testing.T) {
	t.Parallel()

	desc := nodetype.TypeOf[tuple.Pair[int, string]]()
	pair := tuple.Pair[int, string]{First: 1, Second: "one"}
	v := Make(pair)

	got, err := AsTuple(v, desc)
	require.NoError(t, err)
	require.Equal(t, 1, got.At(0))
	require.Equal(t, "one", got.At(1))
}

func TestAsTupleWrongDescriptor(t *testing.T) {
	t.Parallel()

	v := Make(tuple.Pair[int, string]{First: 1, Second: "one"})
	_, err := AsTuple(v, nodetype.TypeOf[tuple.Pair[string, int]]())
	require.Error(t, err)
}
