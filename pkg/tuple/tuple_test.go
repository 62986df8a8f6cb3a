package tuple

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPair(t *testing.T) {
	t.Parallel()

	p := Pair[int, string]{First: 3, Second: "three"}
	require.Equal(t, 2, p.Arity())
	require.Equal(t, 3, p.At(0))
	require.Equal(t, "three", p.At(1))
	require.Panics(t, func() { p.At(2) })
}

func TestPairComponentTypes(t *testing.T) {
	t.Parallel()

	types := Pair[int, string]{}.ComponentTypes()
	require.Len(t, types, 2)
	require.Equal(t, "int", types[0].String())
	require.Equal(t, "string", types[1].String())
}

func TestTriple(t *testing.T) {
	t.Parallel()

	tr := Triple[int, string, bool]{First: 1, Second: "two", Third: true}
	require.Equal(t, 3, tr.Arity())
	require.Equal(t, 1, tr.At(0))
	require.Equal(t, "two", tr.At(1))
	require.Equal(t, true, tr.At(2))
	require.Panics(t, func() { tr.At(3) })
}

func TestTripleComponentTypes(t *testing.T) {
	t.Parallel()

	types := Triple[int, string, bool]{}.ComponentTypes()
	require.Len(t, types, 3)
	require.Equal(t, "bool", types[2].String())
}
