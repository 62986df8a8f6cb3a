package nodetype

import (
	"sort"

	"github.com/cespare/xxhash/v2"
)

// HashMethodName derives the stable 64-bit method-id used throughout the
// runtime. Method ids must be stable across builds and hosts, so the
// hash is computed over the method name alone with a fixed algorithm rather
// than a per-process salt.
func HashMethodName(name string) uint64 {
	return xxhash.Sum64String(name)
}

// MethodSpec is the (method-id, input-type vector, output-type) tuple that
// describes one callable method. Input order is significant and
// positional; Output may be Void().
type MethodSpec struct {
	ID     uint64
	Name   string
	Inputs []*Descriptor
	Output *Descriptor
}

// MethodTable is the ordered list of methods a node type exposes. A
// built-in method named "forward" must exist unless the node is purely
// introspective. Neither MethodTable nor node.New checks for it: node.New
// adds "forward" for source nodes, and a function node's factory is
// responsible for declaring it.
type MethodTable struct {
	methods []MethodSpec
	byID    map[uint64]int
	byName  map[string]int
}

// NewMethodTable returns an empty method table.
func NewMethodTable() *MethodTable {
	return &MethodTable{byID: map[uint64]int{}, byName: map[string]int{}}
}

// Add registers a method in declaration order and returns its MethodSpec.
// Add panics if the name is already registered; method tables are built
// once at node-type registration time, not at request time.
func (t *MethodTable) Add(name string, inputs []*Descriptor, output *Descriptor) MethodSpec {
	if _, exists := t.byName[name]; exists {
		panic("nodetype: duplicate method name " + name)
	}
	spec := MethodSpec{
		ID:     HashMethodName(name),
		Name:   name,
		Inputs: inputs,
		Output: output,
	}
	idx := len(t.methods)
	t.methods = append(t.methods, spec)
	t.byID[spec.ID] = idx
	t.byName[name] = idx
	return spec
}

// ByID looks up a method by its stable hash.
func (t *MethodTable) ByID(id uint64) (MethodSpec, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return MethodSpec{}, false
	}
	return t.methods[idx], true
}

// ByName looks up a method by declared name.
func (t *MethodTable) ByName(name string) (MethodSpec, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return MethodSpec{}, false
	}
	return t.methods[idx], true
}

// Methods returns every method in declaration order. The returned slice
// must not be mutated by callers.
func (t *MethodTable) Methods() []MethodSpec {
	return t.methods
}

// Names returns the exposed method names in declaration order, sorted only
// for deterministic diagnostics when callers explicitly ask for it via
// SortedNames.
func (t *MethodTable) Names() []string {
	names := make([]string, len(t.methods))
	for i, m := range t.methods {
		names[i] = m.Name
	}
	return names
}

// SortedNames returns the exposed method names sorted lexically, used by
// diagnostics that must be deterministic independent of declaration order.
func (t *MethodTable) SortedNames() []string {
	names := t.Names()
	sort.Strings(names)
	return names
}

// TypeInfo is the shared, immutable record describing a node type: its
// display name, method table, and exposed-methods list in declaration
// order. Every Node constructed from the same factory shares one
// TypeInfo instance.
type TypeInfo struct {
	Name    string
	Methods *MethodTable
}

// NewTypeInfo builds a TypeInfo from a display name and a fully populated
// method table.
func NewTypeInfo(name string, methods *MethodTable) *TypeInfo {
	return &TypeInfo{Name: name, Methods: methods}
}
