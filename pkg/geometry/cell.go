package geometry

import (
	"fmt"
	"math"

	"github.com/chazu/csgeom/pkg/region"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// FillKind discriminates what a cell is filled with.
type FillKind int

const (
	FillVoid FillKind = iota
	FillMaterial
	FillDistribMaterials
	FillUniverse
	FillLattice
)

func (k FillKind) String() string {
	switch k {
	case FillVoid:
		return "void"
	case FillMaterial:
		return "material"
	case FillDistribMaterials:
		return "distribmat"
	case FillUniverse:
		return "universe"
	case FillLattice:
		return "lattice"
	default:
		return fmt.Sprintf("FillKind(%d)", int(k))
	}
}

// Fill is the content of a cell. Only the field matching Kind is set.
type Fill struct {
	Kind      FillKind
	Material  *Material
	Materials []*Material // one per instance; nil entries are void
	Universe  *Universe
	Lattice   Lattice
}

// VoidFill returns an empty fill.
func VoidFill() Fill { return Fill{Kind: FillVoid} }

// MaterialFill fills a cell with a single material.
func MaterialFill(m *Material) Fill { return Fill{Kind: FillMaterial, Material: m} }

// DistribFill fills the Nth instance of a cell with the Nth material.
func DistribFill(ms ...*Material) Fill { return Fill{Kind: FillDistribMaterials, Materials: ms} }

// UniverseFill fills a cell with a nested universe.
func UniverseFill(u *Universe) Fill { return Fill{Kind: FillUniverse, Universe: u} }

// LatticeFill fills a cell with a lattice.
func LatticeFill(l Lattice) Fill { return Fill{Kind: FillLattice, Lattice: l} }

// Terminal reports whether resolution stops at a cell with this fill.
func (f Fill) Terminal() bool {
	return f.Kind == FillVoid || f.Kind == FillMaterial || f.Kind == FillDistribMaterials
}

// Cell is a region of space paired with what fills it. A nil Region covers
// all of space.
type Cell struct {
	id     int
	Name   string
	Region region.Region
	Fill   Fill

	translation *v3.Vec
	rotation    *v3.Vec
	rotMatrix   sdf.M44

	numInstances int
	paths        []string
}

// ID returns the cell id.
func (c *Cell) ID() int { return c.id }

// Contains reports whether p lies inside the cell's region.
func (c *Cell) Contains(p v3.Vec) bool {
	if c.Region == nil {
		return true
	}
	return c.Region.Contains(p)
}

// SetTranslation sets the offset of a universe fill relative to the cell.
func (c *Cell) SetTranslation(d v3.Vec) {
	c.translation = &d
}

// Translation returns the fill translation, if any.
func (c *Cell) Translation() (v3.Vec, bool) {
	if c.translation == nil {
		return v3.Vec{}, false
	}
	return *c.translation, true
}

// SetRotation sets the rotation of a universe fill as Euler angles in
// degrees about x, y and z.
func (c *Cell) SetRotation(angles v3.Vec) {
	c.rotation = &angles
	c.rotMatrix = fillRotationMatrix(angles)
}

// Rotation returns the fill rotation angles, if any.
func (c *Cell) Rotation() (v3.Vec, bool) {
	if c.rotation == nil {
		return v3.Vec{}, false
	}
	return *c.rotation, true
}

// RotationMatrix returns the matrix applied to points entering the fill
// universe. It maps the parent frame into the child frame, so the angles
// enter with negated sign.
func (c *Cell) RotationMatrix() (sdf.M44, bool) {
	if c.rotation == nil {
		return sdf.Identity3d(), false
	}
	return c.rotMatrix, true
}

// ClearTransform removes any translation and rotation.
func (c *Cell) ClearTransform() {
	c.translation = nil
	c.rotation = nil
}

func fillRotationMatrix(angles v3.Vec) sdf.M44 {
	x := -angles.X * math.Pi / 180.0
	y := -angles.Y * math.Pi / 180.0
	z := -angles.Z * math.Pi / 180.0
	return sdf.RotateZ(z).Mul(sdf.RotateY(y)).Mul(sdf.RotateX(x))
}

// toLocal maps a point in the cell's frame into its fill universe's frame.
func (c *Cell) toLocal(p v3.Vec) v3.Vec {
	if c.translation != nil {
		p = p.Sub(*c.translation)
	}
	if c.rotation != nil {
		p = c.rotMatrix.MulPosition(p)
	}
	return p
}

// BoundingBox returns the box of the cell's region, or an infinite box when
// the cell has no region.
func (c *Cell) BoundingBox() sdf.Box3 {
	if c.Region == nil {
		return region.InfiniteBox()
	}
	return c.Region.BoundingBox()
}

// Materials returns the materials of a material or distributed-material
// fill, skipping void entries.
func (c *Cell) Materials() []*Material {
	switch c.Fill.Kind {
	case FillMaterial:
		if c.Fill.Material != nil {
			return []*Material{c.Fill.Material}
		}
	case FillDistribMaterials:
		out := make([]*Material, 0, len(c.Fill.Materials))
		for _, m := range c.Fill.Materials {
			if m != nil {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// NumInstances returns how many placements of the cell exist. It is only
// meaningful after an enumeration pass.
func (c *Cell) NumInstances() int { return c.numInstances }

// Paths returns the occurrence paths recorded by the last enumeration pass.
// The slice must not be modified.
func (c *Cell) Paths() []string { return c.paths }

func (c *Cell) resetInstances() {
	c.numInstances = 0
	c.paths = nil
}

func (c *Cell) String() string {
	if c.Name == "" {
		return fmt.Sprintf("cell %d", c.id)
	}
	return fmt.Sprintf("cell %d (%s)", c.id, c.Name)
}
