package geometry

import (
	"fmt"

	"github.com/chazu/csgeom/pkg/region"
	"github.com/chazu/csgeom/pkg/volume"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Universe is an insertion-ordered collection of cells. Cells are held by
// reference and may belong to several universes.
type Universe struct {
	id   int
	Name string

	cells []*Cell
	byID  map[int]*Cell

	volume *float64
	atoms  map[string]volume.Estimate
}

// ID returns the universe id.
func (u *Universe) ID() int { return u.id }

// AddCell appends c. A cell whose id is already present is ignored.
func (u *Universe) AddCell(c *Cell) error {
	if c == nil {
		return fmt.Errorf("%w: cannot add to universe %d", ErrNilCell, u.id)
	}
	if u.byID == nil {
		u.byID = make(map[int]*Cell)
	}
	if _, ok := u.byID[c.id]; ok {
		return nil
	}
	u.byID[c.id] = c
	u.cells = append(u.cells, c)
	return nil
}

// AddCells adds each cell in order, stopping at the first error.
func (u *Universe) AddCells(cells ...*Cell) error {
	for _, c := range cells {
		if err := u.AddCell(c); err != nil {
			return err
		}
	}
	return nil
}

// RemoveCell removes the cell with c's id. Removing an absent cell is a
// no-op.
func (u *Universe) RemoveCell(c *Cell) error {
	if c == nil {
		return fmt.Errorf("%w: cannot remove from universe %d", ErrNilCell, u.id)
	}
	if _, ok := u.byID[c.id]; !ok {
		return nil
	}
	delete(u.byID, c.id)
	for i, cc := range u.cells {
		if cc.id == c.id {
			u.cells = append(u.cells[:i], u.cells[i+1:]...)
			break
		}
	}
	return nil
}

// ClearCells removes every cell.
func (u *Universe) ClearCells() {
	u.cells = nil
	u.byID = nil
}

// Cells returns the cells in insertion order.
func (u *Universe) Cells() []*Cell {
	out := make([]*Cell, len(u.cells))
	copy(out, u.cells)
	return out
}

// Cell returns the cell with the given id, or nil.
func (u *Universe) Cell(id int) *Cell {
	return u.byID[id]
}

// NumCells returns the number of cells directly in u.
func (u *Universe) NumCells() int { return len(u.cells) }

// Find returns the trace of universes, cells and lattice elements that
// contain p, starting with u. The first cell in insertion order whose region
// contains p wins. The trace is empty when p is outside every cell, at this
// level or any level below.
func (u *Universe) Find(p v3.Vec) []Node {
	for _, c := range u.cells {
		if !c.Contains(p) {
			continue
		}
		head := []Node{{Kind: NodeUniverse, Universe: u}, {Kind: NodeCell, Universe: u, Cell: c}}
		switch c.Fill.Kind {
		case FillUniverse:
			if c.Fill.Universe == nil {
				return nil
			}
			sub := c.Fill.Universe.Find(c.toLocal(p))
			if len(sub) == 0 {
				return nil
			}
			return append(head, sub...)
		case FillLattice:
			if c.Fill.Lattice == nil {
				return nil
			}
			sub := c.Fill.Lattice.Find(p)
			if len(sub) == 0 {
				return nil
			}
			return append(head, sub...)
		default:
			return head
		}
	}
	return nil
}

// BoundingBox returns the union of the boxes of all cells that have a
// region. A universe without bounded cells reports an infinite box.
func (u *Universe) BoundingBox() sdf.Box3 {
	var box sdf.Box3
	found := false
	for _, c := range u.cells {
		if c.Region == nil {
			continue
		}
		b := c.Region.BoundingBox()
		if !found {
			box, found = b, true
			continue
		}
		box = region.UnionBox(box, b)
	}
	if !found {
		return region.InfiniteBox()
	}
	return box
}

// SetVolume sets the universe volume in cm^3.
func (u *Universe) SetVolume(v float64) {
	u.volume = &v
}

// Volume returns the universe volume, if known.
func (u *Universe) Volume() (float64, bool) {
	if u.volume == nil {
		return 0, false
	}
	return *u.volume, true
}

// Atoms returns the nuclide atom counts attached by AddVolumeInformation.
func (u *Universe) Atoms() map[string]volume.Estimate {
	out := make(map[string]volume.Estimate, len(u.atoms))
	for k, v := range u.atoms {
		out[k] = v
	}
	return out
}

// AddVolumeInformation attaches the volume and atom counts for u from a
// universe-keyed volume result.
func (u *Universe) AddVolumeInformation(r *volume.Result) error {
	if r == nil || r.DomainType != volume.DomainUniverse {
		return fmt.Errorf("%w %d: result is not keyed by universe", ErrVolumeNotFound, u.id)
	}
	est, ok := r.Volumes[u.id]
	if !ok {
		return fmt.Errorf("%w %d", ErrVolumeNotFound, u.id)
	}
	v := est.Value
	u.volume = &v
	u.atoms = make(map[string]volume.Estimate, len(r.Atoms[u.id]))
	for k, a := range r.Atoms[u.id] {
		u.atoms[k] = a
	}
	return nil
}

// NuclideDensities returns the density of every nuclide in u in atom/b-cm,
// derived from the attached atom counts and volume.
func (u *Universe) NuclideDensities() (map[string]float64, error) {
	if len(u.atoms) == 0 || u.volume == nil || *u.volume <= 0 {
		return nil, &MissingVolumeError{UniverseID: u.id}
	}
	out := make(map[string]float64, len(u.atoms))
	for name, a := range u.atoms {
		out[name] = 1.0e-24 * a.Value / *u.volume
	}
	return out, nil
}

func (u *Universe) String() string {
	if u.Name == "" {
		return fmt.Sprintf("universe %d", u.id)
	}
	return fmt.Sprintf("universe %d (%s)", u.id, u.Name)
}
