// Package geometry implements the constructive solid geometry model:
// universes of cells whose regions are filled with materials, nested
// universes or lattices.
//
// A Universe resolves a point to the chain of universes, cells and lattice
// elements that contain it (Find). A separate enumeration pass
// (DeterminePaths, or Model.Finalize) assigns every concrete occurrence of a
// cell or material an instance number and a path string such as
// "u1->c2->l3(0,1)->u4->c5->m6". Cells and universes may be shared by several
// parents, so collection and cloning memoize on object identity while
// enumeration deliberately counts every placement.
//
// The model is single-writer. Build it, call Model.Finalize once, then Find
// and Locate may be called concurrently until the next structural change.
package geometry
