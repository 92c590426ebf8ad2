package geometry

import "fmt"

// Allocator hands out unique positive ids for one kind of object. Explicit
// ids are reserved as given; id 0 asks for the next free id.
type Allocator struct {
	kind string
	used map[int]bool
	next int
}

func newAllocator(kind string) *Allocator {
	return &Allocator{kind: kind, used: make(map[int]bool), next: 1}
}

// Assign reserves id, or allocates a fresh one when id is 0.
func (a *Allocator) Assign(id int) (int, error) {
	if id == 0 {
		return a.Next(), nil
	}
	if err := a.Reserve(id); err != nil {
		return 0, err
	}
	return id, nil
}

// Reserve marks id as used.
func (a *Allocator) Reserve(id int) error {
	if id < 0 {
		return fmt.Errorf("%w: %s id %d", ErrInvalidID, a.kind, id)
	}
	if a.used[id] {
		return fmt.Errorf("%w: %s id %d", ErrDuplicateID, a.kind, id)
	}
	a.used[id] = true
	return nil
}

// Next returns the lowest unused id not below the last one handed out.
func (a *Allocator) Next() int {
	for a.used[a.next] {
		a.next++
	}
	id := a.next
	a.used[id] = true
	a.next++
	return id
}

// InUse reports whether id has been reserved or allocated.
func (a *Allocator) InUse(id int) bool {
	return a.used[id]
}

// Registry owns one Allocator per object kind. It replaces process-wide id
// bookkeeping: every Model has its own.
type Registry struct {
	Universes *Allocator
	Cells     *Allocator
	Materials *Allocator
	Lattices  *Allocator
}

// NewRegistry returns a registry with empty allocators.
func NewRegistry() *Registry {
	return &Registry{
		Universes: newAllocator("universe"),
		Cells:     newAllocator("cell"),
		Materials: newAllocator("material"),
		Lattices:  newAllocator("lattice"),
	}
}
