package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeKind discriminates the entries of a Find trace.
type NodeKind int

const (
	NodeUniverse NodeKind = iota
	NodeCell
	NodeLattice
)

func (k NodeKind) String() string {
	switch k {
	case NodeUniverse:
		return "universe"
	case NodeCell:
		return "cell"
	case NodeLattice:
		return "lattice"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Node is one step of a Find trace: a universe, a cell, or a lattice element.
type Node struct {
	Kind     NodeKind
	Universe *Universe
	Cell     *Cell
	Lattice  Lattice
	Index    Index
}

// String renders the node as a path segment: u<id>, c<id> or l<id>(i,j).
func (n Node) String() string {
	switch n.Kind {
	case NodeUniverse:
		return fmt.Sprintf("u%d", n.Universe.ID())
	case NodeCell:
		return fmt.Sprintf("c%d", n.Cell.ID())
	case NodeLattice:
		return fmt.Sprintf("l%d(%s)", n.Lattice.ID(), n.Index)
	default:
		return n.Kind.String()
	}
}

// Index addresses a lattice element.
type Index []int

// String joins the components with commas and no spaces.
func (idx Index) String() string {
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Equal reports whether two indices address the same element.
func (idx Index) Equal(o Index) bool {
	if len(idx) != len(o) {
		return false
	}
	for i := range idx {
		if idx[i] != o[i] {
			return false
		}
	}
	return true
}

// TracePath renders a Find trace in the same form as the enumeration paths.
// The path of a trace ending in a cell equals one of that cell's Paths.
func TracePath(trace []Node) string {
	parts := make([]string, len(trace))
	for i, n := range trace {
		parts[i] = n.String()
	}
	return strings.Join(parts, "->")
}

// Leaf returns the last cell of a trace, or nil for an empty trace.
func Leaf(trace []Node) *Cell {
	for i := len(trace) - 1; i >= 0; i-- {
		if trace[i].Kind == NodeCell {
			return trace[i].Cell
		}
	}
	return nil
}
