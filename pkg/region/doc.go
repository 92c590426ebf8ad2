// Package region defines the point-containment capability consumed by the
// geometry resolver, together with analytic primitives, boolean combinators
// and axis-aligned bounding box helpers.
//
// A Region answers one question: does a point lie inside it? Bounding boxes
// are sdf.Box3 values; an unbounded axis carries ±Inf.
package region
