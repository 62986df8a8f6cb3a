// Package tuple provides the fixed-arity product types EasyWork uses for
// multi-valued node outputs. The core never models multiple outputs
// directly: a method produces at most one value, and that value may be
// a Pair or Triple which a TupleGet node later projects.
package tuple

import "reflect"

// Tuple is implemented by every fixed-arity product type so that generic
// code (tuple-get projection) can read a component by index without
// knowing the concrete pair/triple type.
type Tuple interface {
	Arity() int
	At(i int) any
}

// Pair is a 2-arity product type.
type Pair[A, B any] struct {
	First  A
	Second B
}

func (Pair[A, B]) Arity() int { return 2 }

func (p Pair[A, B]) At(i int) any {
	switch i {
	case 0:
		return p.First
	case 1:
		return p.Second
	default:
		panic("tuple: index out of range for Pair")
	}
}

// ComponentTypes reports the static component types so the type registry
// can build descriptors without an instance (see nodetype.TupleType).
func (Pair[A, B]) ComponentTypes() []reflect.Type {
	var a A
	var b B
	return []reflect.Type{
		reflect.TypeOf(&a).Elem(),
		reflect.TypeOf(&b).Elem(),
	}
}

// Triple is a 3-arity product type.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

func (Triple[A, B, C]) Arity() int { return 3 }

func (t Triple[A, B, C]) At(i int) any {
	switch i {
	case 0:
		return t.First
	case 1:
		return t.Second
	case 2:
		return t.Third
	default:
		panic("tuple: index out of range for Triple")
	}
}

func (Triple[A, B, C]) ComponentTypes() []reflect.Type {
	var a A
	var b B
	var c C
	return []reflect.Type{
		reflect.TypeOf(&a).Elem(),
		reflect.TypeOf(&b).Elem(),
		reflect.TypeOf(&c).Elem(),
	}
}
