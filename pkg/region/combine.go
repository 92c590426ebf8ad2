package region

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Intersection contains the points inside every operand.
type Intersection struct {
	Nodes []Region
}

// Intersect returns the intersection of rs.
func Intersect(rs ...Region) *Intersection {
	return &Intersection{Nodes: rs}
}

// Contains reports whether p lies inside all operands.
func (r *Intersection) Contains(p v3.Vec) bool {
	for _, n := range r.Nodes {
		if !n.Contains(p) {
			return false
		}
	}
	return true
}

// BoundingBox is the overlap of the operand boxes.
func (r *Intersection) BoundingBox() sdf.Box3 {
	b := InfiniteBox()
	for _, n := range r.Nodes {
		b = IntersectBox(b, n.BoundingBox())
	}
	return b
}

// Clone deep-copies the operand tree.
func (r *Intersection) Clone() Region {
	return &Intersection{Nodes: cloneAll(r.Nodes)}
}

// Union contains the points inside any operand.
type Union struct {
	Nodes []Region
}

// Join returns the union of rs.
func Join(rs ...Region) *Union {
	return &Union{Nodes: rs}
}

// Contains reports whether p lies inside at least one operand.
func (r *Union) Contains(p v3.Vec) bool {
	for _, n := range r.Nodes {
		if n.Contains(p) {
			return true
		}
	}
	return false
}

// BoundingBox is the union of the operand boxes. An empty union is
// reported as unbounded.
func (r *Union) BoundingBox() sdf.Box3 {
	if len(r.Nodes) == 0 {
		return InfiniteBox()
	}
	b := r.Nodes[0].BoundingBox()
	for _, n := range r.Nodes[1:] {
		b = UnionBox(b, n.BoundingBox())
	}
	return b
}

// Clone deep-copies the operand tree.
func (r *Union) Clone() Region {
	return &Union{Nodes: cloneAll(r.Nodes)}
}

// Complement contains the points outside Node.
type Complement struct {
	Node Region
}

// Not returns the complement of r.
func Not(r Region) *Complement {
	return &Complement{Node: r}
}

// Contains reports whether p lies outside the wrapped region.
func (r *Complement) Contains(p v3.Vec) bool {
	return !r.Node.Contains(p)
}

// BoundingBox is always unbounded.
func (r *Complement) BoundingBox() sdf.Box3 {
	return InfiniteBox()
}

// Clone deep-copies the wrapped region.
func (r *Complement) Clone() Region {
	return &Complement{Node: clone(r.Node)}
}

// Translated is Node moved by Offset.
type Translated struct {
	Node   Region
	Offset v3.Vec
}

// Contains tests p in the wrapped region's frame.
func (r *Translated) Contains(p v3.Vec) bool {
	return r.Node.Contains(p.Sub(r.Offset))
}

// BoundingBox shifts the wrapped box.
func (r *Translated) BoundingBox() sdf.Box3 {
	b := r.Node.BoundingBox()
	return sdf.Box3{Min: b.Min.Add(r.Offset), Max: b.Max.Add(r.Offset)}
}

// Clone deep-copies the wrapped region.
func (r *Translated) Clone() Region {
	return &Translated{Node: clone(r.Node), Offset: r.Offset}
}

// Rotated is Node rotated by Euler angles (degrees).
type Rotated struct {
	Node    Region
	Angles  v3.Vec
	inverse sdf.M44
}

// Rotate returns r rotated by angles.
func Rotate(r Region, angles v3.Vec) *Rotated {
	return &Rotated{Node: r, Angles: angles, inverse: inverseRotationMatrix(angles)}
}

// Contains tests p in the wrapped region's frame.
func (r *Rotated) Contains(p v3.Vec) bool {
	return r.Node.Contains(r.inverse.MulPosition(p))
}

// BoundingBox is conservative: a rotated box is reported unbounded.
func (r *Rotated) BoundingBox() sdf.Box3 {
	return InfiniteBox()
}

// Clone deep-copies the wrapped region.
func (r *Rotated) Clone() Region {
	return Rotate(clone(r.Node), r.Angles)
}

func clone(r Region) Region {
	if c, ok := r.(Cloner); ok {
		return c.Clone()
	}
	return r
}

func cloneAll(rs []Region) []Region {
	out := make([]Region, len(rs))
	for i, r := range rs {
		out[i] = clone(r)
	}
	return out
}

// ---------------------------------------------------------------------------
// Analytic kernel
// ---------------------------------------------------------------------------

// Compile-time interface check.
var _ Kernel = Analytic{}

// Analytic builds regions from exact quadric/plane primitives.
type Analytic struct{}

// Box returns the axis-aligned box [min, max).
func (Analytic) Box(min, max v3.Vec) Region {
	return &AxisBox{Min: min, Max: max}
}

// Sphere returns a sphere.
func (Analytic) Sphere(center v3.Vec, radius float64) Region {
	return &Sphere{Center: center, Radius: radius}
}

// Cylinder returns a finite z-axis cylinder centred on center.
func (Analytic) Cylinder(center v3.Vec, height, radius float64) Region {
	return Intersect(
		&ZCylinder{X0: center.X, Y0: center.Y, Radius: radius},
		Above(AxisZ, center.Z-height/2),
		Below(AxisZ, center.Z+height/2),
	)
}

// Union returns the union of rs.
func (Analytic) Union(rs ...Region) Region {
	return Join(rs...)
}

// Intersection returns the intersection of rs.
func (Analytic) Intersection(rs ...Region) Region {
	return Intersect(rs...)
}

// Difference returns a minus b.
func (Analytic) Difference(a, b Region) Region {
	return Intersect(a, Not(b))
}

// Translate moves r by d.
func (Analytic) Translate(r Region, d v3.Vec) Region {
	return &Translated{Node: r, Offset: d}
}

// Rotate rotates r by Euler angles in degrees.
func (Analytic) Rotate(r Region, angles v3.Vec) Region {
	return Rotate(r, angles)
}
