package geometry

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks
// finalization or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks Finalize
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Object   string             // e.g. "cell 4"; empty for model-level findings
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Object == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Object, e.Message)
}

// Validate runs the structural checks on the geometry reachable from root.
// An empty slice means the geometry is valid. Overlapping cell regions are
// not detected. Validate never mutates the geometry.
func Validate(root *Universe) []ValidationError {
	c := collect(root)
	var errs []ValidationError
	errs = append(errs, validateAcyclic(c)...)
	errs = append(errs, validateFills(c)...)
	errs = append(errs, validateTransforms(c)...)
	errs = append(errs, validateLattices(c)...)
	errs = append(errs, validateIDs(c)...)
	errs = append(errs, validateEmpty(c)...)
	return errs
}

// children returns the universes directly referenced by u's cells.
func children(u *Universe) []*Universe {
	var out []*Universe
	for _, cell := range u.cells {
		switch cell.Fill.Kind {
		case FillUniverse:
			if cell.Fill.Universe != nil {
				out = append(out, cell.Fill.Universe)
			}
		case FillLattice:
			if cell.Fill.Lattice != nil {
				out = append(out, latticeUniverses(cell.Fill.Lattice)...)
			}
		}
	}
	return out
}

// validateAcyclic checks for universes that contain themselves using DFS
// with 3-color marking. White (0) = unvisited, gray (1) = on the current
// path, black (2) = fully explored.
func validateAcyclic(c *collector) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[*Universe]int)
	var errs []ValidationError

	var visit func(u *Universe) bool // returns true if a cycle was found
	visit = func(u *Universe) bool {
		switch color[u] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				Object:   u.String(),
				Message:  "universe contains itself (cycle)",
				Severity: SeverityError,
			})
			return true
		}

		color[u] = gray
		for _, sub := range children(u) {
			if visit(sub) {
				return true
			}
		}
		color[u] = black
		return false
	}

	for _, u := range c.universes {
		if color[u] == white {
			if visit(u) {
				// One cycle error is sufficient.
				break
			}
		}
	}
	return errs
}

// validateFills checks that every fill points at something.
func validateFills(c *collector) []ValidationError {
	var errs []ValidationError
	for _, cell := range c.cells() {
		f := cell.Fill
		var msg string
		switch f.Kind {
		case FillMaterial:
			if f.Material == nil {
				msg = "material fill has no material"
			}
		case FillDistribMaterials:
			if len(f.Materials) == 0 {
				msg = "distributed material fill has no materials"
			}
		case FillUniverse:
			if f.Universe == nil {
				msg = "universe fill has no universe"
			}
		case FillLattice:
			if f.Lattice == nil {
				msg = "lattice fill has no lattice"
			}
		}
		if msg != "" {
			errs = append(errs, ValidationError{Object: cell.String(), Message: msg, Severity: SeverityError})
		}
	}
	return errs
}

// validateTransforms checks that translations and rotations only appear on
// universe-filled cells.
func validateTransforms(c *collector) []ValidationError {
	var errs []ValidationError
	for _, cell := range c.cells() {
		if cell.Fill.Kind == FillUniverse {
			continue
		}
		if cell.translation != nil {
			errs = append(errs, ValidationError{
				Object:   cell.String(),
				Message:  fmt.Sprintf("translation requires a universe fill, cell is filled with %s", cell.Fill.Kind),
				Severity: SeverityError,
			})
		}
		if cell.rotation != nil {
			errs = append(errs, ValidationError{
				Object:   cell.String(),
				Message:  fmt.Sprintf("rotation requires a universe fill, cell is filled with %s", cell.Fill.Kind),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateLattices checks that every lattice element has a universe.
func validateLattices(c *collector) []ValidationError {
	var errs []ValidationError
	for _, l := range c.lattices {
		idx := l.Indices()
		if len(idx) == 0 {
			errs = append(errs, ValidationError{
				Object:   fmt.Sprintf("lattice %d", l.ID()),
				Message:  "lattice has no elements",
				Severity: SeverityError,
			})
			continue
		}
		for _, i := range idx {
			if l.Universe(i) == nil {
				errs = append(errs, ValidationError{
					Object:   fmt.Sprintf("lattice %d", l.ID()),
					Message:  fmt.Sprintf("element (%s) has no universe", i),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateIDs warns when distinct objects of one kind share an id. The
// id-keyed collection queries silently keep only one of them.
func validateIDs(c *collector) []ValidationError {
	var errs []ValidationError
	warn := func(kind string, id int) {
		errs = append(errs, ValidationError{
			Message:  fmt.Sprintf("%s id %d is used by more than one object", kind, id),
			Severity: SeverityWarning,
		})
	}

	universes := make(map[int]*Universe)
	for _, u := range c.universes {
		if prev, ok := universes[u.id]; ok && prev != u {
			warn("universe", u.id)
		}
		universes[u.id] = u
	}
	cells := make(map[int]*Cell)
	for _, cell := range c.cells() {
		if prev, ok := cells[cell.id]; ok && prev != cell {
			warn("cell", cell.id)
		}
		cells[cell.id] = cell
	}
	materials := make(map[int]*Material)
	for _, m := range c.materials() {
		if prev, ok := materials[m.id]; ok && prev != m {
			warn("material", m.id)
		}
		materials[m.id] = m
	}
	lattices := make(map[int]Lattice)
	for _, l := range c.lattices {
		if prev, ok := lattices[l.ID()]; ok && prev != l {
			warn("lattice", l.ID())
		}
		lattices[l.ID()] = l
	}
	return errs
}

// validateEmpty warns about universes without cells; every point inside
// them misses.
func validateEmpty(c *collector) []ValidationError {
	var errs []ValidationError
	for _, u := range c.universes {
		if len(u.cells) == 0 {
			errs = append(errs, ValidationError{
				Object:   u.String(),
				Message:  "universe has no cells",
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}
