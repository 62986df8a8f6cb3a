// Package value implements the type-erased, move-only value container that
// flows along every edge of an EasyWork graph.
package value

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/alexisbeaulieu97/easywork/internal/nodetype"
	"github.com/alexisbeaulieu97/easywork/pkg/ewerrors"
	"github.com/alexisbeaulieu97/easywork/pkg/tuple"
)

// inlineCapacity is the small-buffer-optimization capacity in bytes. Chosen
// so a pair of machine words fits without spilling to the heap.
const inlineCapacity = 16

// Destroyable lets a payload type hook Value's drop path. Values constructed
// from a type implementing Destroyable have their Destroy method invoked
// exactly once when the Value is dropped — this is how the canary types in
// the executor's destructor-safety tests observe their own lifetime.
type Destroyable interface {
	Destroy()
}

// Value owns exactly one instance of some type T, or nothing at all (the
// empty/moved-from state). It is move-only: copying the struct by value is
// legal Go, but only one logical owner should ever read or drop a given
// payload — Move() enforces this by emptying the source.
type Value struct {
	desc       *nodetype.Descriptor
	inline     [inlineCapacity]byte
	inlineUsed bool
	payload    any
	onDrop     func()
	dropped    bool
}

// Make constructs a Value owning x, with descriptor desc[T].
func Make[T any](x T) Value {
	return makeValue(nodetype.TypeOf[T](), any(x))
}

// MakeDynamic constructs a Value from a descriptor and payload determined at
// runtime — used by tuple-get projection, which only learns a component's
// descriptor and boxed value after its producer has run.
func MakeDynamic(desc *nodetype.Descriptor, x any) Value {
	return makeValue(desc, x)
}

func makeValue(desc *nodetype.Descriptor, x any) Value {
	v := Value{desc: desc}
	if desc == nodetype.Void() {
		return v
	}
	if rt := desc.RType(); canInline(rt) {
		v.inline = encodeInline(rt, x)
		v.inlineUsed = true
	} else {
		v.payload = x
	}
	if d, ok := x.(Destroyable); ok {
		v.onDrop = d.Destroy
	}
	return v
}

// Descriptor reports the Value's type descriptor, or nil for an
// empty/moved-from Value.
func (v *Value) Descriptor() *nodetype.Descriptor { return v.desc }

// IsEmpty reports whether the Value carries no payload, either because it
// describes Void or because it has been moved from.
func (v *Value) IsEmpty() bool { return v.desc == nil || v.desc == nodetype.Void() }

// Inline reports whether the Value's payload is stored in the small buffer
// rather than boxed on the heap.
func (v *Value) Inline() bool { return v.inlineUsed }

// Move transfers ownership out of src and returns the owning Value; src
// becomes empty, and dropping it afterward is a no-op. Moves never
// reallocate: the inline bytes or heap payload reference is copied as-is.
func Move(src *Value) Value {
	if src == nil {
		return Value{}
	}
	dst := *src
	*src = Value{}
	return dst
}

// Clone produces an independent copy of v's payload for fan-out to multiple
// consumer edges. Edge delivery is otherwise a pure move — values passed
// along edges are moved, never shared; Clone is used only when an
// endpoint's output feeds more than one consumer edge, and only the last
// edge receives the original via Move — every other edge receives a Clone.
func (v *Value) Clone() (Value, error) {
	if v.IsEmpty() {
		return Value{desc: v.desc}, nil
	}
	if v.inlineUsed {
		clone := *v
		clone.dropped = false
		return clone, nil
	}
	rv := reflect.ValueOf(v.payload)
	if !rv.IsValid() {
		return Value{}, fmt.Errorf("value: cannot clone invalid payload for %s", v.desc.Name())
	}
	copied := reflect.New(rv.Type()).Elem()
	copied.Set(rv)
	clone := makeValue(v.desc, copied.Interface())
	return clone, nil
}

// Drop runs the destructor thunk exactly once, whether or not storage was
// inline. Dropping an empty or already-dropped Value is a no-op.
func (v *Value) Drop() {
	if v == nil || v.dropped || v.desc == nil {
		return
	}
	v.dropped = true
	if v.onDrop != nil {
		v.onDrop()
	}
	v.payload = nil
}

// As reads v as type T, failing with a TypeMismatchError unless v's
// descriptor equals desc[T]. No T has the Void descriptor, so reading a
// Void Value always fails with a TypeMismatchError.
func As[T any](v Value) (T, error) {
	var zero T
	target := nodetype.TypeOf[T]()
	if v.desc == nil {
		return zero, ewerrors.NewTypeMismatchError(target.Name(), "<empty>")
	}
	if v.desc != target {
		return zero, ewerrors.NewTypeMismatchError(target.Name(), v.desc.Name())
	}
	if target == nodetype.Void() {
		return zero, nil
	}
	var raw any
	if v.inlineUsed {
		raw = decodeInline(target.RType(), v.inline)
	} else {
		raw = v.payload
	}
	t, ok := raw.(T)
	if !ok {
		return zero, ewerrors.NewTypeMismatchError(target.Name(), fmt.Sprintf("%T", raw))
	}
	return t, nil
}

// AsTuple reads v as a tuple.Tuple, failing with a TypeMismatchError unless
// v's descriptor equals desc. Tuple payloads are always heap-boxed (they
// are neither scalar nor within inlineCapacity), so this reads the payload
// directly rather than going through the inline decode path used by As.
func AsTuple(v Value, desc *nodetype.Descriptor) (tuple.Tuple, error) {
	if v.desc == nil || v.desc != desc {
		got := "<empty>"
		if v.desc != nil {
			got = v.desc.Name()
		}
		return nil, ewerrors.NewTypeMismatchError(desc.Name(), got)
	}
	t, ok := v.payload.(tuple.Tuple)
	if !ok {
		return nil, ewerrors.NewTypeMismatchError(desc.Name(), fmt.Sprintf("%T", v.payload))
	}
	return t, nil
}

// canInline reports whether values of reflect type t qualify for small
// buffer storage: scalar kinds no larger than inlineCapacity bytes.
func canInline(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return t.Size() <= inlineCapacity
	default:
		return false
	}
}

func encodeInline(t reflect.Type, x any) [inlineCapacity]byte {
	var buf [inlineCapacity]byte
	rv := reflect.ValueOf(x)
	switch t.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			buf[0] = 1
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		binary.LittleEndian.PutUint64(buf[:8], uint64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		binary.LittleEndian.PutUint64(buf[:8], rv.Uint())
	case reflect.Float32:
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(float32(rv.Float())))
	case reflect.Float64:
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(rv.Float()))
	}
	return buf
}

func decodeInline(t reflect.Type, buf [inlineCapacity]byte) any {
	rv := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		rv.SetBool(buf[0] != 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		rv.SetInt(int64(binary.LittleEndian.Uint64(buf[:8])))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		rv.SetUint(binary.LittleEndian.Uint64(buf[:8]))
	case reflect.Float32:
		rv.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[:4]))))
	case reflect.Float64:
		rv.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(buf[:8])))
	}
	return rv.Interface()
}
