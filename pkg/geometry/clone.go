package geometry

import (
	"github.com/chazu/csgeom/pkg/region"
	"github.com/chazu/csgeom/pkg/volume"
)

// CloneOptions selects which leaves a clone copies. Universes and cells are
// always copied; materials and regions are shared unless requested.
type CloneOptions struct {
	CloneMaterials bool
	CloneRegions   bool
}

// Cloner copies universe subtrees while preserving sharing: every original
// object maps to exactly one copy for the lifetime of the Cloner. Copies
// receive fresh ids from the owning model.
type Cloner struct {
	model     *Model
	opts      CloneOptions
	universes map[*Universe]*Universe
	cells     map[*Cell]*Cell
	materials map[*Material]*Material
	lattices  map[Lattice]Lattice
	regions   map[region.Region]region.Region
}

// NewCloner returns a Cloner allocating ids from m. Reuse one Cloner across
// several Clone calls to keep sharing between them.
func (m *Model) NewCloner(opts CloneOptions) *Cloner {
	return &Cloner{
		model:     m,
		opts:      opts,
		universes: make(map[*Universe]*Universe),
		cells:     make(map[*Cell]*Cell),
		materials: make(map[*Material]*Material),
		lattices:  make(map[Lattice]Lattice),
		regions:   make(map[region.Region]region.Region),
	}
}

// Clone copies u and everything it contains with fresh ids.
func (m *Model) Clone(u *Universe, opts CloneOptions) *Universe {
	return m.NewCloner(opts).Universe(u)
}

// Universe returns the copy of u, creating it on first use. The copy is
// memoized before its cells are cloned so paths that lead back to u reuse
// it.
func (c *Cloner) Universe(u *Universe) *Universe {
	if cp, ok := c.universes[u]; ok {
		return cp
	}
	cp := &Universe{
		id:   c.model.ids.Universes.Next(),
		Name: u.Name,
	}
	if u.volume != nil {
		v := *u.volume
		cp.volume = &v
	}
	if u.atoms != nil {
		cp.atoms = make(map[string]volume.Estimate, len(u.atoms))
		for k, v := range u.atoms {
			cp.atoms[k] = v
		}
	}
	c.universes[u] = cp

	for _, cell := range u.cells {
		// Cloned cells have fresh ids, so AddCell cannot collide.
		_ = cp.AddCell(c.Cell(cell))
	}
	return cp
}

// Cell returns the copy of cell, creating it on first use. Instance data is
// not copied.
func (c *Cloner) Cell(cell *Cell) *Cell {
	if cp, ok := c.cells[cell]; ok {
		return cp
	}
	cp := &Cell{
		id:          c.model.ids.Cells.Next(),
		Name:        cell.Name,
		Region:      cell.Region,
		translation: cell.translation,
		rotation:    cell.rotation,
		rotMatrix:   cell.rotMatrix,
	}
	c.cells[cell] = cp

	if c.opts.CloneRegions && cell.Region != nil {
		cp.Region = c.Region(cell.Region)
	}

	f := cell.Fill
	switch f.Kind {
	case FillMaterial:
		if f.Material != nil && c.opts.CloneMaterials {
			f.Material = c.Material(f.Material)
		}
	case FillDistribMaterials:
		ms := make([]*Material, len(f.Materials))
		for i, m := range f.Materials {
			if m != nil && c.opts.CloneMaterials {
				m = c.Material(m)
			}
			ms[i] = m
		}
		f.Materials = ms
	case FillUniverse:
		if f.Universe != nil {
			f.Universe = c.Universe(f.Universe)
		}
	case FillLattice:
		if f.Lattice != nil {
			f.Lattice = c.Lattice(f.Lattice)
		}
	}
	cp.Fill = f
	return cp
}

// Material returns the copy of m, creating it on first use.
func (c *Cloner) Material(m *Material) *Material {
	if cp, ok := c.materials[m]; ok {
		return cp
	}
	cp := &Material{
		id:       c.model.ids.Materials.Next(),
		Name:     m.Name,
		nuclides: append([]string(nil), m.nuclides...),
	}
	if m.densities != nil {
		cp.densities = make(map[string]float64, len(m.densities))
		for k, v := range m.densities {
			cp.densities[k] = v
		}
	}
	c.materials[m] = cp
	return cp
}

// Region returns the copy of r, creating it on first use. Cells sharing a
// region share its copy. Regions that do not implement region.Cloner are
// returned unchanged.
func (c *Cloner) Region(r region.Region) region.Region {
	if cp, ok := c.regions[r]; ok {
		return cp
	}
	cp := r
	if rc, ok := r.(region.Cloner); ok {
		cp = rc.Clone()
	}
	c.regions[r] = cp
	return cp
}

// Lattice returns the copy of l. Lattices that do not implement
// CloneableLattice are returned unchanged.
func (c *Cloner) Lattice(l Lattice) Lattice {
	if cp, ok := c.lattices[l]; ok {
		return cp
	}
	cl, ok := l.(CloneableLattice)
	if !ok {
		c.lattices[l] = l
		return l
	}
	cp := cl.CloneWith(c)
	c.lattices[l] = cp
	return cp
}

// NextLatticeID allocates a fresh lattice id for a lattice copy.
func (c *Cloner) NextLatticeID() int {
	return c.model.ids.Lattices.Next()
}
