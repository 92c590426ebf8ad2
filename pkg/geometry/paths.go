package geometry

import (
	"fmt"
	"strconv"
)

// DeterminePaths counts every placement of every cell and material reachable
// from u and, unless instancesOnly is set, records its occurrence path.
// Counters accumulate: call ResetInstances first to re-enumerate.
//
// A distributed-material cell attributes its Nth placement to its Nth
// material. A universe that contains itself yields a *CycleError.
func (u *Universe) DeterminePaths(instancesOnly bool) error {
	e := &enumerator{instancesOnly: instancesOnly, onPath: make(map[*Universe]bool)}
	return e.universe(u, "")
}

type enumerator struct {
	instancesOnly bool
	onPath        map[*Universe]bool
	chain         []int
}

func (e *enumerator) universe(u *Universe, prefix string) error {
	if e.onPath[u] {
		chain := append(append([]int(nil), e.chain...), u.id)
		return &CycleError{Chain: chain}
	}
	e.onPath[u] = true
	e.chain = append(e.chain, u.id)
	defer func() {
		delete(e.onPath, u)
		e.chain = e.chain[:len(e.chain)-1]
	}()

	var univPath string
	if !e.instancesOnly {
		univPath = prefix + "u" + strconv.Itoa(u.id)
	}

	for _, c := range u.cells {
		var cellPath string
		if !e.instancesOnly {
			cellPath = univPath + "->c" + strconv.Itoa(c.id)
		}

		switch c.Fill.Kind {
		case FillUniverse:
			if c.Fill.Universe != nil {
				if err := e.universe(c.Fill.Universe, cellPath+"->"); err != nil {
					return err
				}
			}
		case FillLattice:
			if l := c.Fill.Lattice; l != nil {
				for _, idx := range l.Indices() {
					sub := l.Universe(idx)
					if sub == nil {
						continue
					}
					var latPath string
					if !e.instancesOnly {
						latPath = fmt.Sprintf("%s->l%d(%s)->", cellPath, l.ID(), idx)
					}
					if err := e.universe(sub, latPath); err != nil {
						return err
					}
				}
			}
		default:
			var mat *Material
			switch c.Fill.Kind {
			case FillMaterial:
				mat = c.Fill.Material
			case FillDistribMaterials:
				if c.numInstances >= len(c.Fill.Materials) {
					return fmt.Errorf("%w: cell %d instance %d, %d materials",
						ErrDistribMaterialIndex, c.id, c.numInstances, len(c.Fill.Materials))
				}
				mat = c.Fill.Materials[c.numInstances]
			}
			if mat != nil {
				mat.numInstances++
				if !e.instancesOnly {
					mat.paths = append(mat.paths, cellPath+"->m"+strconv.Itoa(mat.id))
				}
			}
		}

		c.numInstances++
		if !e.instancesOnly {
			c.paths = append(c.paths, cellPath)
		}
	}
	return nil
}

// ResetInstances clears the instance counts and paths of every cell and
// material reachable from u.
func (u *Universe) ResetInstances() {
	for _, c := range u.GetAllCells() {
		c.resetInstances()
	}
	for _, m := range u.GetAllMaterials() {
		m.resetInstances()
	}
}
