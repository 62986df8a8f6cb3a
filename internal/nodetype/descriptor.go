// Package nodetype implements the type registry and method table that
// underlie node construction: canonical, comparable type descriptors
// and per-node-type method tables with stable method-id hashing.
package nodetype

import (
	"reflect"
	"sync"
)

// Descriptor is an opaque, process-interned identity for a payload type.
// Two descriptors are equal iff they denote the same logical type; because
// descriptors are interned by reflect.Type in DescriptorFor, pointer
// equality and semantic equality coincide for the lifetime of the process.
type Descriptor struct {
	name       string
	size       uintptr
	align      uintptr
	rtype      reflect.Type
	components []*Descriptor
}

// Name returns the descriptor's human-readable type name.
func (d *Descriptor) Name() string {
	if d == nil {
		return "<nil>"
	}
	return d.name
}

// Size reports the payload's size in bytes.
func (d *Descriptor) Size() uintptr { return d.size }

// Align reports the payload's required alignment in bytes.
func (d *Descriptor) Align() uintptr { return d.align }

// RType exposes the underlying reflect.Type captured at registration time.
// Used by pkg/value to decide the small-buffer-optimization storage policy
// and to materialise typed zero values for tuple projection.
func (d *Descriptor) RType() reflect.Type { return d.rtype }

// Arity reports the descriptor's tuple arity; zero for non-product types.
func (d *Descriptor) Arity() int { return len(d.components) }

// Component returns the i-th component descriptor of a tuple-arity
// descriptor. Panics if i is out of range or the descriptor is not a
// tuple — callers are expected to check Arity first.
func (d *Descriptor) Component(i int) *Descriptor {
	return d.components[i]
}

var voidDescriptor = &Descriptor{name: "void", rtype: nil}

// Void is the distinguished descriptor for methods with no output. It has
// arity 0 and is the only legal output descriptor that prohibits outgoing
// edges.
func Void() *Descriptor { return voidDescriptor }

// TupleType is implemented by fixed-arity product types (see pkg/tuple) so
// the registry can discover component types reflectively without an
// instance. ComponentTypes must be safe to call on the type's zero value.
type TupleType interface {
	Arity() int
	ComponentTypes() []reflect.Type
}

var (
	registryMu sync.RWMutex
	byType     = map[reflect.Type]*Descriptor{}
)

// DescriptorFor interns and returns the descriptor for a reflect.Type.
// Descriptors are expected to be built once per type during host setup;
// component descriptors for tuple types are populated after the parent
// descriptor is registered, so self-referential component graphs cannot
// deadlock on the registry lock.
func DescriptorFor(t reflect.Type) *Descriptor {
	registryMu.RLock()
	if d, ok := byType[t]; ok {
		registryMu.RUnlock()
		return d
	}
	registryMu.RUnlock()

	registryMu.Lock()
	if d, ok := byType[t]; ok {
		registryMu.Unlock()
		return d
	}
	d := &Descriptor{
		name:  t.String(),
		size:  t.Size(),
		align: uintptr(t.Align()),
		rtype: t,
	}
	byType[t] = d
	registryMu.Unlock()

	if tt, ok := zeroValueTupleType(t); ok {
		comps := tt.ComponentTypes()
		components := make([]*Descriptor, len(comps))
		for i, ct := range comps {
			components[i] = DescriptorFor(ct)
		}
		d.components = components
	}

	return d
}

func zeroValueTupleType(t reflect.Type) (TupleType, bool) {
	zero := reflect.New(t).Elem().Interface()
	tt, ok := zero.(TupleType)
	return tt, ok
}

// TypeOf interns and returns the descriptor for T.
func TypeOf[T any]() *Descriptor {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	return DescriptorFor(t)
}
