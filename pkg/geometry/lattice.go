package geometry

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Lattice maps a grid of indices to universes. Indices must enumerate the
// elements in the lattice's natural order; enumeration visits them in that
// order.
type Lattice interface {
	ID() int
	Name() string
	Indices() []Index
	Universe(idx Index) *Universe
	// Find locates the element containing p and resolves p inside its
	// universe. The trace starts with a NodeLattice entry. It is empty when
	// p misses.
	Find(p v3.Vec) []Node
}

// OuterLattice is implemented by lattices with a universe that fills space
// outside the grid.
type OuterLattice interface {
	Outer() *Universe
}

// CloneableLattice is implemented by lattices that can be deep-copied
// through a Cloner. Lattices that do not implement it are shared by clones.
type CloneableLattice interface {
	CloneWith(c *Cloner) Lattice
}

// latticeUniverses returns every universe referenced by l, including the
// outer universe, in index order. Entries may repeat.
func latticeUniverses(l Lattice) []*Universe {
	var out []*Universe
	for _, idx := range l.Indices() {
		if u := l.Universe(idx); u != nil {
			out = append(out, u)
		}
	}
	if ol, ok := l.(OuterLattice); ok && ol.Outer() != nil {
		out = append(out, ol.Outer())
	}
	return out
}

// Compile-time interface checks.
var (
	_ Lattice          = (*RectLattice)(nil)
	_ OuterLattice     = (*RectLattice)(nil)
	_ CloneableLattice = (*RectLattice)(nil)
)

// RectLattice is a 2-D or 3-D rectangular grid of universes. Element (0,0)
// sits at LowerLeft; in 2-D the z coordinate passes through unchanged.
type RectLattice struct {
	id   int
	name string

	LowerLeft v3.Vec
	Pitch     v3.Vec

	outer     *Universe
	ndim      int
	shape     [3]int      // nx, ny, nz; nz is 1 in 2-D
	universes []*Universe // flattened as [iz][iy][ix]
}

// ID returns the lattice id.
func (l *RectLattice) ID() int { return l.id }

// Name returns the lattice name.
func (l *RectLattice) Name() string { return l.name }

// Outer returns the universe outside the grid, or nil.
func (l *RectLattice) Outer() *Universe { return l.outer }

// SetOuter sets the universe that fills space outside the grid.
func (l *RectLattice) SetOuter(u *Universe) { l.outer = u }

// NumDimensions returns 2 or 3, or 0 before universes are set.
func (l *RectLattice) NumDimensions() int { return l.ndim }

// Shape returns the element counts along each dimension.
func (l *RectLattice) Shape() []int {
	return append([]int(nil), l.shape[:l.ndim]...)
}

// SetUniverses fills a 2-D lattice. Rows are given top first, the way the
// grid reads on the page: rows[0] is the highest y.
func (l *RectLattice) SetUniverses(rows [][]*Universe) error {
	return l.SetUniverses3D([][][]*Universe{rows})
}

// SetUniverses3D fills a 3-D lattice. Layers are given bottom first; rows
// within a layer top first. A single layer produces a 2-D lattice.
func (l *RectLattice) SetUniverses3D(layers [][][]*Universe) error {
	if len(layers) == 0 || len(layers[0]) == 0 || len(layers[0][0]) == 0 {
		return errors.New("geometry: rect lattice needs at least one element")
	}
	nz, ny, nx := len(layers), len(layers[0]), len(layers[0][0])
	flat := make([]*Universe, nx*ny*nz)
	for iz, rows := range layers {
		if len(rows) != ny {
			return fmt.Errorf("geometry: lattice %d layer %d has %d rows, want %d", l.id, iz, len(rows), ny)
		}
		for r, row := range rows {
			if len(row) != nx {
				return fmt.Errorf("geometry: lattice %d layer %d row %d has %d columns, want %d", l.id, iz, r, len(row), nx)
			}
			iy := ny - 1 - r
			for ix, u := range row {
				flat[(iz*ny+iy)*nx+ix] = u
			}
		}
	}
	l.shape = [3]int{nx, ny, nz}
	l.ndim = 3
	if len(layers) == 1 {
		l.ndim = 2
	}
	l.universes = flat
	return nil
}

func (l *RectLattice) offset(idx Index) (int, bool) {
	if len(idx) != l.ndim {
		return 0, false
	}
	ix, iy, iz := idx[0], idx[1], 0
	if l.ndim == 3 {
		iz = idx[2]
	}
	if ix < 0 || ix >= l.shape[0] || iy < 0 || iy >= l.shape[1] || iz < 0 || iz >= l.shape[2] {
		return 0, false
	}
	return (iz*l.shape[1]+iy)*l.shape[0] + ix, true
}

// ValidIndex reports whether idx addresses an element of the grid.
func (l *RectLattice) ValidIndex(idx Index) bool {
	_, ok := l.offset(idx)
	return ok
}

// Universe returns the universe at idx, or nil when idx is out of range.
func (l *RectLattice) Universe(idx Index) *Universe {
	off, ok := l.offset(idx)
	if !ok {
		return nil
	}
	return l.universes[off]
}

// SetUniverse replaces the universe at idx.
func (l *RectLattice) SetUniverse(idx Index, u *Universe) error {
	off, ok := l.offset(idx)
	if !ok {
		return fmt.Errorf("geometry: lattice %d has no element (%s)", l.id, idx)
	}
	l.universes[off] = u
	return nil
}

// Indices enumerates the elements with x varying fastest, then y, then z.
func (l *RectLattice) Indices() []Index {
	nx, ny, nz := l.shape[0], l.shape[1], l.shape[2]
	out := make([]Index, 0, len(l.universes))
	for iz := 0; iz < nz; iz++ {
		for iy := 0; iy < ny; iy++ {
			for ix := 0; ix < nx; ix++ {
				if l.ndim == 3 {
					out = append(out, Index{ix, iy, iz})
				} else {
					out = append(out, Index{ix, iy})
				}
			}
		}
	}
	return out
}

// FindElement returns the index of the element containing p and p expressed
// relative to that element's centre. The index may be out of range.
func (l *RectLattice) FindElement(p v3.Vec) (Index, v3.Vec) {
	ix := int(math.Floor((p.X - l.LowerLeft.X) / l.Pitch.X))
	iy := int(math.Floor((p.Y - l.LowerLeft.Y) / l.Pitch.Y))
	local := v3.Vec{
		X: p.X - (l.LowerLeft.X + (float64(ix)+0.5)*l.Pitch.X),
		Y: p.Y - (l.LowerLeft.Y + (float64(iy)+0.5)*l.Pitch.Y),
		Z: p.Z,
	}
	if l.ndim != 3 {
		return Index{ix, iy}, local
	}
	iz := int(math.Floor((p.Z - l.LowerLeft.Z) / l.Pitch.Z))
	local.Z = p.Z - (l.LowerLeft.Z + (float64(iz)+0.5)*l.Pitch.Z)
	return Index{ix, iy, iz}, local
}

// Find resolves p inside the element containing it, or inside the outer
// universe when p lies off the grid.
func (l *RectLattice) Find(p v3.Vec) []Node {
	idx, local := l.FindElement(p)
	u := l.Universe(idx)
	if u == nil {
		if l.ValidIndex(idx) || l.outer == nil {
			return nil
		}
		u = l.outer
	}
	sub := u.Find(local)
	if len(sub) == 0 {
		return nil
	}
	return append([]Node{{Kind: NodeLattice, Lattice: l, Index: idx}}, sub...)
}

// CloneWith copies the lattice with a fresh id, cloning every universe
// through c so shared universes stay shared.
func (l *RectLattice) CloneWith(c *Cloner) Lattice {
	cp := &RectLattice{
		id:        c.NextLatticeID(),
		name:      l.name,
		LowerLeft: l.LowerLeft,
		Pitch:     l.Pitch,
		ndim:      l.ndim,
		shape:     l.shape,
		universes: make([]*Universe, len(l.universes)),
	}
	for i, u := range l.universes {
		if u != nil {
			cp.universes[i] = c.Universe(u)
		}
	}
	if l.outer != nil {
		cp.outer = c.Universe(l.outer)
	}
	return cp
}

func (l *RectLattice) String() string {
	return fmt.Sprintf("lattice %d", l.id)
}
