package region

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Side selects one half of the space divided by a plane.
type Side int

const (
	SideBelow Side = iota // f(p) < 0
	SideAbove             // f(p) >= 0
)

func (s Side) String() string {
	if s == SideBelow {
		return "-"
	}
	return "+"
}

// ---------------------------------------------------------------------------
// HalfSpace
// ---------------------------------------------------------------------------

// HalfSpace is one side of the plane Normal·p = Offset. Points on the plane
// belong to the positive side.
type HalfSpace struct {
	Normal v3.Vec
	Offset float64
	Side   Side
}

// Below returns the half-space where the coordinate along axis is < at.
func Below(axis Axis, at float64) *HalfSpace {
	return &HalfSpace{Normal: axis.unit(), Offset: at, Side: SideBelow}
}

// Above returns the half-space where the coordinate along axis is >= at.
func Above(axis Axis, at float64) *HalfSpace {
	return &HalfSpace{Normal: axis.unit(), Offset: at, Side: SideAbove}
}

func (h *HalfSpace) eval(p v3.Vec) float64 {
	return h.Normal.X*p.X + h.Normal.Y*p.Y + h.Normal.Z*p.Z - h.Offset
}

// Contains reports whether p lies on the selected side.
func (h *HalfSpace) Contains(p v3.Vec) bool {
	f := h.eval(p)
	if h.Side == SideBelow {
		return f < 0
	}
	return f >= 0
}

// BoundingBox is exact for axis-aligned planes and infinite otherwise.
func (h *HalfSpace) BoundingBox() sdf.Box3 {
	b := InfiniteBox()
	n := h.Normal
	var axis Axis
	var a float64
	switch {
	case n.X != 0 && n.Y == 0 && n.Z == 0:
		axis, a = AxisX, n.X
	case n.X == 0 && n.Y != 0 && n.Z == 0:
		axis, a = AxisY, n.Y
	case n.X == 0 && n.Y == 0 && n.Z != 0:
		axis, a = AxisZ, n.Z
	default:
		return b
	}
	at := h.Offset / a
	// Dividing by a negative coefficient flips the inequality.
	upper := (h.Side == SideBelow) == (a > 0)
	setAxis(&b, axis, at, upper)
	return b
}

func setAxis(b *sdf.Box3, axis Axis, at float64, upper bool) {
	switch axis {
	case AxisX:
		if upper {
			b.Max.X = at
		} else {
			b.Min.X = at
		}
	case AxisY:
		if upper {
			b.Max.Y = at
		} else {
			b.Min.Y = at
		}
	case AxisZ:
		if upper {
			b.Max.Z = at
		} else {
			b.Min.Z = at
		}
	}
}

// Clone returns a copy of the half-space.
func (h *HalfSpace) Clone() Region {
	c := *h
	return &c
}

// ---------------------------------------------------------------------------
// AxisBox
// ---------------------------------------------------------------------------

// AxisBox is the rectangular parallelepiped Min <= p < Max.
type AxisBox struct {
	Min, Max v3.Vec
}

// Contains reports whether p lies inside the box.
func (b *AxisBox) Contains(p v3.Vec) bool {
	return p.X >= b.Min.X && p.X < b.Max.X &&
		p.Y >= b.Min.Y && p.Y < b.Max.Y &&
		p.Z >= b.Min.Z && p.Z < b.Max.Z
}

// BoundingBox returns the box itself.
func (b *AxisBox) BoundingBox() sdf.Box3 {
	return sdf.Box3{Min: b.Min, Max: b.Max}
}

// Clone returns a copy of the box.
func (b *AxisBox) Clone() Region {
	c := *b
	return &c
}

// ---------------------------------------------------------------------------
// Sphere
// ---------------------------------------------------------------------------

// Sphere is the open ball of the given radius.
type Sphere struct {
	Center v3.Vec
	Radius float64
}

// Contains reports whether p lies strictly inside the sphere.
func (s *Sphere) Contains(p v3.Vec) bool {
	d := p.Sub(s.Center)
	return d.X*d.X+d.Y*d.Y+d.Z*d.Z < s.Radius*s.Radius
}

// BoundingBox returns the cube enclosing the sphere.
func (s *Sphere) BoundingBox() sdf.Box3 {
	r := v3.Vec{X: s.Radius, Y: s.Radius, Z: s.Radius}
	return sdf.Box3{Min: s.Center.Sub(r), Max: s.Center.Add(r)}
}

// Clone returns a copy of the sphere.
func (s *Sphere) Clone() Region {
	c := *s
	return &c
}

// ---------------------------------------------------------------------------
// ZCylinder
// ---------------------------------------------------------------------------

// ZCylinder is the infinite open cylinder parallel to the z axis.
type ZCylinder struct {
	X0, Y0 float64
	Radius float64
}

// Contains reports whether p lies strictly inside the cylinder.
func (c *ZCylinder) Contains(p v3.Vec) bool {
	dx, dy := p.X-c.X0, p.Y-c.Y0
	return dx*dx+dy*dy < c.Radius*c.Radius
}

// BoundingBox is bounded in x and y only.
func (c *ZCylinder) BoundingBox() sdf.Box3 {
	inf := math.Inf(1)
	return sdf.Box3{
		Min: v3.Vec{X: c.X0 - c.Radius, Y: c.Y0 - c.Radius, Z: -inf},
		Max: v3.Vec{X: c.X0 + c.Radius, Y: c.Y0 + c.Radius, Z: inf},
	}
}

// Clone returns a copy of the cylinder.
func (c *ZCylinder) Clone() Region {
	cp := *c
	return &cp
}
