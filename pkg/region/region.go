package region

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Region is a volume of space that can answer containment queries.
type Region interface {
	// Contains reports whether p lies inside the region.
	Contains(p v3.Vec) bool
	// BoundingBox returns an axis-aligned box enclosing the region.
	// Unbounded axes are reported as ±Inf.
	BoundingBox() sdf.Box3
}

// Cloner is implemented by regions that can produce an independent copy of
// themselves. Regions that do not implement it are shared by reference when
// a universe is cloned.
type Cloner interface {
	Clone() Region
}

// Kernel builds regions. Implementations (analytic, sdfx) provide the same
// primitives and boolean operations behind this interface so the modeling
// layer can swap backends.
type Kernel interface {
	// Primitives
	Box(min, max v3.Vec) Region
	Sphere(center v3.Vec, radius float64) Region
	Cylinder(center v3.Vec, height, radius float64) Region // axis along z

	// Boolean operations
	Union(rs ...Region) Region
	Intersection(rs ...Region) Region
	Difference(a, b Region) Region

	// Transforms
	Translate(r Region, d v3.Vec) Region
	Rotate(r Region, angles v3.Vec) Region // Euler angles in degrees
}

// Axis names a Cartesian axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "unknown"
	}
}

// unit returns the unit vector along the axis.
func (a Axis) unit() v3.Vec {
	switch a {
	case AxisX:
		return v3.Vec{X: 1}
	case AxisY:
		return v3.Vec{Y: 1}
	default:
		return v3.Vec{Z: 1}
	}
}

// ---------------------------------------------------------------------------
// Bounding boxes
// ---------------------------------------------------------------------------

// InfiniteBox returns the box covering all of space.
func InfiniteBox() sdf.Box3 {
	inf := math.Inf(1)
	return sdf.Box3{
		Min: v3.Vec{X: -inf, Y: -inf, Z: -inf},
		Max: v3.Vec{X: inf, Y: inf, Z: inf},
	}
}

// IsInfinite reports whether any axis of b is unbounded.
func IsInfinite(b sdf.Box3) bool {
	for _, f := range []float64{b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z} {
		if math.IsInf(f, 0) {
			return true
		}
	}
	return false
}

// UnionBox returns the smallest box enclosing both a and b.
func UnionBox(a, b sdf.Box3) sdf.Box3 {
	return a.Extend(b)
}

// IntersectBox returns the overlap of a and b. Disjoint boxes produce a box
// whose Min exceeds its Max on at least one axis.
func IntersectBox(a, b sdf.Box3) sdf.Box3 {
	return sdf.Box3{
		Min: v3.Vec{X: math.Max(a.Min.X, b.Min.X), Y: math.Max(a.Min.Y, b.Min.Y), Z: math.Max(a.Min.Z, b.Min.Z)},
		Max: v3.Vec{X: math.Min(a.Max.X, b.Max.X), Y: math.Min(a.Max.Y, b.Max.Y), Z: math.Min(a.Max.Z, b.Max.Z)},
	}
}

// BoxVolume returns the volume of b, or +Inf when b is unbounded. Empty or
// inverted boxes have zero volume.
func BoxVolume(b sdf.Box3) float64 {
	if IsInfinite(b) {
		return math.Inf(1)
	}
	dx, dy, dz := b.Max.X-b.Min.X, b.Max.Y-b.Min.Y, b.Max.Z-b.Min.Z
	if dx <= 0 || dy <= 0 || dz <= 0 {
		return 0
	}
	return dx * dy * dz
}

// ---------------------------------------------------------------------------
// Rotations
// ---------------------------------------------------------------------------

// RotationMatrix returns the rotation by Euler angles (degrees) about X,
// then Y, then Z.
func RotationMatrix(angles v3.Vec) sdf.M44 {
	x := angles.X * math.Pi / 180.0
	y := angles.Y * math.Pi / 180.0
	z := angles.Z * math.Pi / 180.0
	return sdf.RotateZ(z).Mul(sdf.RotateY(y)).Mul(sdf.RotateX(x))
}

// inverseRotationMatrix undoes RotationMatrix(angles).
func inverseRotationMatrix(angles v3.Vec) sdf.M44 {
	x := -angles.X * math.Pi / 180.0
	y := -angles.Y * math.Pi / 180.0
	z := -angles.Z * math.Pi / 180.0
	return sdf.RotateX(x).Mul(sdf.RotateY(y)).Mul(sdf.RotateZ(z))
}
