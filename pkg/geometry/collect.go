package geometry

// collector walks the universe graph visiting each universe once. Shared
// universes and cycles are both handled by the seen set.
type collector struct {
	seen      map[*Universe]bool
	seenLat   map[Lattice]bool
	universes []*Universe // visit order, starting with the root
	filled    []*Universe // universes reached through a fill
	lattices  []Lattice
}

func collect(root *Universe) *collector {
	c := &collector{
		seen:    make(map[*Universe]bool),
		seenLat: make(map[Lattice]bool),
	}
	c.visit(root)
	return c
}

func (c *collector) visit(u *Universe) {
	if c.seen[u] {
		return
	}
	c.seen[u] = true
	c.universes = append(c.universes, u)

	for _, cell := range u.cells {
		switch cell.Fill.Kind {
		case FillUniverse:
			if sub := cell.Fill.Universe; sub != nil {
				c.filled = append(c.filled, sub)
				c.visit(sub)
			}
		case FillLattice:
			l := cell.Fill.Lattice
			if l == nil {
				continue
			}
			if !c.seenLat[l] {
				c.seenLat[l] = true
				c.lattices = append(c.lattices, l)
			}
			for _, sub := range latticeUniverses(l) {
				c.filled = append(c.filled, sub)
				c.visit(sub)
			}
		}
	}
}

// cells returns every distinct reachable cell in visit order.
func (c *collector) cells() []*Cell {
	seen := make(map[*Cell]bool)
	var out []*Cell
	for _, u := range c.universes {
		for _, cell := range u.cells {
			if !seen[cell] {
				seen[cell] = true
				out = append(out, cell)
			}
		}
	}
	return out
}

// materials returns every distinct material filling a reachable cell.
func (c *collector) materials() []*Material {
	seen := make(map[*Material]bool)
	var out []*Material
	for _, cell := range c.cells() {
		for _, m := range cell.Materials() {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

// GetAllCells returns every cell in u and in the universes and lattices it
// contains, keyed by id. Should two distinct cells share an id, the one
// visited last wins.
func (u *Universe) GetAllCells() map[int]*Cell {
	out := make(map[int]*Cell)
	for _, c := range collect(u).cells() {
		out[c.id] = c
	}
	return out
}

// GetAllUniverses returns every universe contained in u, keyed by id. u
// itself is only included when it is reachable from one of its own cells.
func (u *Universe) GetAllUniverses() map[int]*Universe {
	out := make(map[int]*Universe)
	for _, sub := range collect(u).filled {
		out[sub.id] = sub
	}
	return out
}

// GetAllMaterials returns every material filling a cell reachable from u,
// keyed by id.
func (u *Universe) GetAllMaterials() map[int]*Material {
	out := make(map[int]*Material)
	for _, m := range collect(u).materials() {
		out[m.id] = m
	}
	return out
}

// GetAllLattices returns every lattice reachable from u, keyed by id.
func (u *Universe) GetAllLattices() map[int]Lattice {
	out := make(map[int]Lattice)
	for _, l := range collect(u).lattices {
		out[l.ID()] = l
	}
	return out
}

// Nuclides returns the names of all nuclides in materials reachable from u,
// without duplicates, in the order they are first encountered.
func (u *Universe) Nuclides() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range collect(u).materials() {
		for _, n := range m.nuclides {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}
