package ewerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	t.Run("unknown method", func(t *testing.T) {
		t.Parallel()
		err := NewUnknownMethodError("Sink", "left")
		require.Contains(t, err.Error(), "left")
		require.Contains(t, err.Error(), "Sink")
	})

	t.Run("unknown node type", func(t *testing.T) {
		t.Parallel()
		err := NewUnknownNodeTypeError("Bogus")
		require.Contains(t, err.Error(), "Bogus")
	})

	t.Run("unknown parameter", func(t *testing.T) {
		t.Parallel()
		err := NewUnknownParameterError("Source", "foo")
		require.Contains(t, err.Error(), "foo")
	})

	t.Run("missing parameter", func(t *testing.T) {
		t.Parallel()
		err := NewMissingParameterError("Source", "start")
		require.Contains(t, err.Error(), "start")
	})

	t.Run("arg count mismatch", func(t *testing.T) {
		t.Parallel()
		err := NewArgCountMismatchError("Adder", "forward", 2, 1)
		require.Contains(t, err.Error(), "2")
		require.Contains(t, err.Error(), "1")
	})

	t.Run("arg type mismatch", func(t *testing.T) {
		t.Parallel()
		err := NewArgTypeMismatchError("Adder", "forward", 0, "int", "string")
		require.Contains(t, err.Error(), "int")
		require.Contains(t, err.Error(), "string")
	})
}

func TestTypeValidationErrorAggregatesAll(t *testing.T) {
	t.Parallel()

	mismatches := []TypeMismatchDetail{
		{ConsumerType: "A", Method: "forward", InputIndex: 0, Reason: "input not bound"},
		{ConsumerType: "B", Method: "forward", InputIndex: 1, Want: "int", Got: "string"},
	}
	err := NewTypeValidationError(mismatches)
	require.Contains(t, err.Error(), "input not bound")
	require.Contains(t, err.Error(), "expected int, got string")
}

func TestNotOpenedError(t *testing.T) {
	t.Parallel()

	err := NewNotOpenedError([]string{"A", "B"})
	require.Contains(t, err.Error(), "A")
	require.Contains(t, err.Error(), "B")
}

func TestCycleRejectedError(t *testing.T) {
	t.Parallel()

	err := NewCycleRejectedError([]string{"A", "B", "A"})
	require.Contains(t, err.Error(), "A -> B -> A")
}

func TestRuntimeNodeErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := NewRuntimeNodeError("Adder", "forward", "run-1", cause)
	require.Contains(t, err.Error(), "run-1")
	require.True(t, errors.Is(err, cause))
}

func TestInterruptedErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("context canceled")
	err := NewInterruptedError(cause)
	require.True(t, errors.Is(err, cause))

	bare := NewInterruptedError(nil)
	require.Equal(t, "run interrupted", bare.Error())
}

func TestTypeMismatchError(t *testing.T) {
	t.Parallel()

	err := NewTypeMismatchError("int", "string")
	require.Contains(t, err.Error(), "int")
	require.Contains(t, err.Error(), "string")
}

func TestInvalidStateError(t *testing.T) {
	t.Parallel()

	err := NewInvalidStateError("run", "Idle")
	require.Contains(t, err.Error(), "run")
	require.Contains(t, err.Error(), "Idle")
}
