// Package ewerrors defines the typed error taxonomy raised across EasyWork's
// node, graph, pipeline, and executor layers.
package ewerrors

import (
	"fmt"
	"strings"
)

// UnknownMethodError is raised when a caller references a method-id or name
// that is not present in a node's method table.
type UnknownMethodError struct {
	NodeType string
	Method   string
}

func NewUnknownMethodError(nodeType, method string) error {
	return &UnknownMethodError{NodeType: nodeType, Method: method}
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown method %q on node type %q", e.Method, e.NodeType)
}

// UnknownNodeTypeError is raised when the factory registry has no entry for
// a requested node type name.
type UnknownNodeTypeError struct {
	NodeType string
}

func NewUnknownNodeTypeError(nodeType string) error {
	return &UnknownNodeTypeError{NodeType: nodeType}
}

func (e *UnknownNodeTypeError) Error() string {
	return fmt.Sprintf("unknown node type %q", e.NodeType)
}

// UnknownParameterError is raised when a factory call supplies a named
// construction argument the factory does not recognise.
type UnknownParameterError struct {
	NodeType  string
	Parameter string
}

func NewUnknownParameterError(nodeType, parameter string) error {
	return &UnknownParameterError{NodeType: nodeType, Parameter: parameter}
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("node type %q: unknown parameter %q", e.NodeType, e.Parameter)
}

// MissingParameterError is raised when a factory call omits a required
// construction argument.
type MissingParameterError struct {
	NodeType  string
	Parameter string
}

func NewMissingParameterError(nodeType, parameter string) error {
	return &MissingParameterError{NodeType: nodeType, Parameter: parameter}
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("node type %q: missing required parameter %q", e.NodeType, e.Parameter)
}

// ArgCountMismatchError is raised by eager invocation when the supplied
// argument count does not match the method's declared input arity.
type ArgCountMismatchError struct {
	NodeType string
	Method   string
	Want     int
	Got      int
}

func NewArgCountMismatchError(nodeType, method string, want, got int) error {
	return &ArgCountMismatchError{NodeType: nodeType, Method: method, Want: want, Got: got}
}

func (e *ArgCountMismatchError) Error() string {
	return fmt.Sprintf("node type %q method %q: expected %d arguments, got %d", e.NodeType, e.Method, e.Want, e.Got)
}

// ArgTypeMismatchError is raised by eager invocation when an argument's type
// descriptor does not match the method's declared input type at that
// position.
type ArgTypeMismatchError struct {
	NodeType string
	Method   string
	Index    int
	Want     string
	Got      string
}

func NewArgTypeMismatchError(nodeType, method string, index int, want, got string) error {
	return &ArgTypeMismatchError{NodeType: nodeType, Method: method, Index: index, Want: want, Got: got}
}

func (e *ArgTypeMismatchError) Error() string {
	return fmt.Sprintf("node type %q method %q: argument %d: expected %s, got %s", e.NodeType, e.Method, e.Index, e.Want, e.Got)
}

// TypeMismatchDetail names one offending edge surfaced by validate.
type TypeMismatchDetail struct {
	ConsumerType string
	Method       string
	InputIndex   int
	Want         string
	Got          string
	Reason       string
}

func (d TypeMismatchDetail) String() string {
	if d.Reason != "" {
		return fmt.Sprintf("%s.%s[%d]: %s", d.ConsumerType, d.Method, d.InputIndex, d.Reason)
	}
	return fmt.Sprintf("%s.%s[%d]: expected %s, got %s", d.ConsumerType, d.Method, d.InputIndex, d.Want, d.Got)
}

// TypeValidationError aggregates every mismatch found by a single validate
// pass; validate never stops at the first offender.
type TypeValidationError struct {
	Mismatches []TypeMismatchDetail
}

func NewTypeValidationError(mismatches []TypeMismatchDetail) error {
	return &TypeValidationError{Mismatches: mismatches}
}

func (e *TypeValidationError) Error() string {
	parts := make([]string, len(e.Mismatches))
	for i, m := range e.Mismatches {
		parts[i] = m.String()
	}
	return fmt.Sprintf("type validation failed: %s", strings.Join(parts, "; "))
}

// NotOpenedError is raised by activate when one or more user-created nodes
// are closed.
type NotOpenedError struct {
	Nodes []string
}

func NewNotOpenedError(nodes []string) error {
	return &NotOpenedError{Nodes: nodes}
}

func (e *NotOpenedError) Error() string {
	return fmt.Sprintf("nodes not opened: %s", strings.Join(e.Nodes, ", "))
}

// CycleRejectedError describes a topology rejected for containing a cycle.
// The runtime accepts cycles, so no build or connect path raises it.
type CycleRejectedError struct {
	Path []string
}

func NewCycleRejectedError(path []string) error {
	return &CycleRejectedError{Path: path}
}

func (e *CycleRejectedError) Error() string {
	return fmt.Sprintf("cycle rejected: %s", strings.Join(e.Path, " -> "))
}

// RuntimeNodeError wraps an error raised by a node method body while the
// executor is driving the graph.
type RuntimeNodeError struct {
	NodeType      string
	Method        string
	CorrelationID string
	Err           error
}

func NewRuntimeNodeError(nodeType, method, correlationID string, err error) error {
	return &RuntimeNodeError{NodeType: nodeType, Method: method, CorrelationID: correlationID, Err: err}
}

func (e *RuntimeNodeError) Error() string {
	if e.CorrelationID != "" {
		return fmt.Sprintf("node %q method %q failed (run %s): %v", e.NodeType, e.Method, e.CorrelationID, e.Err)
	}
	return fmt.Sprintf("node %q method %q failed: %v", e.NodeType, e.Method, e.Err)
}

func (e *RuntimeNodeError) Unwrap() error { return e.Err }

// InterruptedError reports clean cancellation of a run via external
// interrupt; it is never treated as a RuntimeNodeError.
type InterruptedError struct {
	Cause error
}

func NewInterruptedError(cause error) error {
	return &InterruptedError{Cause: cause}
}

func (e *InterruptedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("run interrupted: %v", e.Cause)
	}
	return "run interrupted"
}

func (e *InterruptedError) Unwrap() error { return e.Cause }

// TypeMismatchError is raised by pkg/value when a Value is read back as a
// type other than the one it was constructed with.
type TypeMismatchError struct {
	Want string
	Got  string
}

func NewTypeMismatchError(want, got string) error {
	return &TypeMismatchError{Want: want, Got: got}
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("value type mismatch: expected %s, got %s", e.Want, e.Got)
}

// InvalidStateError is raised when a pipeline operation is attempted from a
// state that does not permit it.
type InvalidStateError struct {
	Operation string
	State     string
}

func NewInvalidStateError(operation, state string) error {
	return &InvalidStateError{Operation: operation, State: state}
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("operation %q is not valid in state %q", e.Operation, e.State)
}
