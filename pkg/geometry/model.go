package geometry

import (
	"errors"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Model owns the id registry and the root universe of a geometry. Objects
// are created through the model so their ids are unique within it.
type Model struct {
	ids  *Registry
	Root *Universe

	finalized     bool
	instancesOnly bool
	instances     map[string]int // cell path -> instance number
	warnings      []ValidationError
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{ids: NewRegistry()}
}

// IDs returns the model's id registry.
func (m *Model) IDs() *Registry { return m.ids }

// NewUniverse creates a universe. An id of 0 allocates the next free id.
func (m *Model) NewUniverse(id int, name string) (*Universe, error) {
	id, err := m.ids.Universes.Assign(id)
	if err != nil {
		return nil, err
	}
	m.finalized = false
	return &Universe{id: id, Name: name}, nil
}

// NewCell creates a void cell covering all of space.
func (m *Model) NewCell(id int, name string) (*Cell, error) {
	id, err := m.ids.Cells.Assign(id)
	if err != nil {
		return nil, err
	}
	m.finalized = false
	return &Cell{id: id, Name: name}, nil
}

// NewMaterial creates a material with no nuclides.
func (m *Model) NewMaterial(id int, name string) (*Material, error) {
	id, err := m.ids.Materials.Assign(id)
	if err != nil {
		return nil, err
	}
	m.finalized = false
	return &Material{id: id, Name: name}, nil
}

// NewRectLattice creates an empty rectangular lattice.
func (m *Model) NewRectLattice(id int, name string) (*RectLattice, error) {
	id, err := m.ids.Lattices.Assign(id)
	if err != nil {
		return nil, err
	}
	m.finalized = false
	return &RectLattice{id: id, name: name}, nil
}

// FinalizeOptions controls the enumeration pass run by Finalize.
type FinalizeOptions struct {
	// InstancesOnly counts placements without recording path strings.
	// Locate cannot resolve instances of a model finalized this way.
	InstancesOnly bool
}

// Finalize validates the geometry, clears stale instance data and
// enumerates every placement. After it succeeds the model must not be
// structurally modified until the next Finalize; Find and Locate may then be
// called concurrently.
func (m *Model) Finalize(opts FinalizeOptions) error {
	m.finalized = false
	m.instances = nil
	m.warnings = nil
	if m.Root == nil {
		return ErrNoRoot
	}

	var blocking []error
	for _, v := range Validate(m.Root) {
		if v.Severity == SeverityError {
			blocking = append(blocking, v)
		} else {
			m.warnings = append(m.warnings, v)
		}
	}
	if len(blocking) > 0 {
		return fmt.Errorf("geometry: invalid model: %w", errors.Join(blocking...))
	}

	m.Root.ResetInstances()
	if err := m.Root.DeterminePaths(opts.InstancesOnly); err != nil {
		return err
	}

	if !opts.InstancesOnly {
		m.instances = make(map[string]int)
		for _, c := range m.Root.GetAllCells() {
			for i, p := range c.paths {
				m.instances[p] = i
			}
		}
	}
	m.instancesOnly = opts.InstancesOnly
	m.finalized = true
	return nil
}

// Finalized reports whether the last Finalize succeeded.
func (m *Model) Finalized() bool { return m.finalized }

// Warnings returns the non-blocking validation findings of the last
// Finalize call.
func (m *Model) Warnings() []ValidationError { return m.warnings }

// Location is the result of resolving a point.
type Location struct {
	Trace    []Node
	Cell     *Cell
	Instance int       // -1 when the placement was not enumerated
	Material *Material // nil for void cells
}

// Path returns the occurrence path of the located cell.
func (l Location) Path() string { return TracePath(l.Trace) }

// Locate resolves p to its leaf cell, the instance of that cell along the
// traversed path, and the material it is filled with.
func (m *Model) Locate(p v3.Vec) (Location, error) {
	if !m.finalized {
		return Location{}, ErrNotFinalized
	}
	trace := m.Root.Find(p)
	if len(trace) == 0 {
		return Location{}, fmt.Errorf("%w: (%g, %g, %g)", ErrPointNotFound, p.X, p.Y, p.Z)
	}
	loc := Location{Trace: trace, Cell: Leaf(trace), Instance: -1}

	if !m.instancesOnly {
		if i, ok := m.instances[TracePath(trace)]; ok {
			loc.Instance = i
		}
	}

	switch loc.Cell.Fill.Kind {
	case FillMaterial:
		loc.Material = loc.Cell.Fill.Material
	case FillDistribMaterials:
		if loc.Instance < 0 {
			return loc, fmt.Errorf("%w: cannot pick a material for %s", ErrNoInstanceData, loc.Cell)
		}
		if loc.Instance >= len(loc.Cell.Fill.Materials) {
			return loc, fmt.Errorf("%w: %s instance %d", ErrDistribMaterialIndex, loc.Cell, loc.Instance)
		}
		loc.Material = loc.Cell.Fill.Materials[loc.Instance]
	}
	return loc, nil
}
