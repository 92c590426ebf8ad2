// Package sdfx implements the region.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"

	"github.com/chazu/csgeom/pkg/region"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface checks.
var (
	_ region.Kernel = (*SdfxKernel)(nil)
	_ region.Region = (*Solid)(nil)
	_ region.Cloner = (*Solid)(nil)
)

// Solid wraps an sdf.SDF3 so it can be used as a cell region. A point is
// inside when the signed distance is negative.
type Solid struct {
	s sdf.SDF3
}

// New wraps an existing SDF.
func New(s sdf.SDF3) *Solid {
	return &Solid{s: s}
}

// SDF returns the wrapped signed distance function.
func (s *Solid) SDF() sdf.SDF3 {
	return s.s
}

// Contains reports whether p lies strictly inside the solid.
func (s *Solid) Contains(p v3.Vec) bool {
	return s.s.Evaluate(p) < 0
}

// BoundingBox returns the solid's axis-aligned bounding box.
func (s *Solid) BoundingBox() sdf.Box3 {
	return s.s.BoundingBox()
}

// Clone returns a new handle on the same (immutable) SDF.
func (s *Solid) Clone() region.Region {
	return &Solid{s: s.s}
}

// SdfxKernel implements region.Kernel using sdfx. Boolean operations on
// regions that are not sdfx solids fall back to the analytic combinators.
type SdfxKernel struct {
	fallback region.Analytic
}

// NewKernel returns a new SdfxKernel.
func NewKernel() *SdfxKernel {
	return &SdfxKernel{}
}

// unwrap extracts the underlying sdf.SDF3 from a region, if it has one.
func unwrap(r region.Region) (sdf.SDF3, bool) {
	s, ok := r.(*Solid)
	if !ok {
		return nil, false
	}
	return s.s, true
}

func unwrapAll(rs []region.Region) ([]sdf.SDF3, bool) {
	out := make([]sdf.SDF3, 0, len(rs))
	for _, r := range rs {
		s, ok := unwrap(r)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Box creates a box spanning min to max. sdf.Box3D centers the box at the
// origin, so it is translated to the midpoint.
func (k *SdfxKernel) Box(min, max v3.Vec) region.Region {
	size := max.Sub(min)
	s, err := sdf.Box3D(size, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	center := min.Add(size.MulScalar(0.5))
	return New(sdf.Transform3D(s, sdf.Translate3d(center)))
}

// Sphere creates a sphere of the given radius around center.
func (k *SdfxKernel) Sphere(center v3.Vec, radius float64) region.Region {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Sphere3D: %v", err))
	}
	return New(sdf.Transform3D(s, sdf.Translate3d(center)))
}

// Cylinder creates a z-axis cylinder of the given height and radius around
// center.
func (k *SdfxKernel) Cylinder(center v3.Vec, height, radius float64) region.Region {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	return New(sdf.Transform3D(s, sdf.Translate3d(center)))
}

// Union returns the union of rs.
func (k *SdfxKernel) Union(rs ...region.Region) region.Region {
	ss, ok := unwrapAll(rs)
	if !ok || len(ss) == 0 {
		return k.fallback.Union(rs...)
	}
	return New(sdf.Union3D(ss...))
}

// Intersection returns the intersection of rs.
func (k *SdfxKernel) Intersection(rs ...region.Region) region.Region {
	ss, ok := unwrapAll(rs)
	if !ok || len(ss) == 0 {
		return k.fallback.Intersection(rs...)
	}
	acc := ss[0]
	for _, s := range ss[1:] {
		acc = sdf.Intersect3D(acc, s)
	}
	return New(acc)
}

// Difference returns a minus b.
func (k *SdfxKernel) Difference(a, b region.Region) region.Region {
	sa, okA := unwrap(a)
	sb, okB := unwrap(b)
	if !okA || !okB {
		return k.fallback.Difference(a, b)
	}
	return New(sdf.Difference3D(sa, sb))
}

// Translate moves a region by d.
func (k *SdfxKernel) Translate(r region.Region, d v3.Vec) region.Region {
	s, ok := unwrap(r)
	if !ok {
		return k.fallback.Translate(r, d)
	}
	return New(sdf.Transform3D(s, sdf.Translate3d(d)))
}

// Rotate rotates a region by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(r region.Region, angles v3.Vec) region.Region {
	s, ok := unwrap(r)
	if !ok {
		return k.fallback.Rotate(r, angles)
	}
	return New(sdf.Transform3D(s, region.RotationMatrix(angles)))
}
