// Package volume holds the results of stochastic volume calculations: the
// estimated volume of each domain and the number of atoms of each nuclide it
// contains.
package volume

import (
	"fmt"
	"math"
	"sort"
)

// DomainType names the kind of object a Result is keyed by.
type DomainType string

const (
	DomainUniverse DomainType = "universe"
	DomainCell     DomainType = "cell"
	DomainMaterial DomainType = "material"
)

// Valid reports whether d is a known domain type.
func (d DomainType) Valid() bool {
	switch d {
	case DomainUniverse, DomainCell, DomainMaterial:
		return true
	}
	return false
}

// ParseDomainType converts a string such as "universe" into a DomainType.
func ParseDomainType(s string) (DomainType, error) {
	d := DomainType(s)
	if !d.Valid() {
		return "", fmt.Errorf("volume: unknown domain type %q", s)
	}
	return d, nil
}

// Estimate is a Monte Carlo estimate with its standard deviation.
type Estimate struct {
	Value  float64
	StdDev float64
}

// RelErr returns StdDev/Value, or +Inf for a zero estimate.
func (e Estimate) RelErr() float64 {
	if e.Value == 0 {
		return math.Inf(1)
	}
	return e.StdDev / e.Value
}

func (e Estimate) String() string {
	return fmt.Sprintf("%g +/- %g", e.Value, e.StdDev)
}

// Result is a volume dataset keyed by domain id. Volumes are in cm^3; atom
// counts are absolute numbers of atoms per nuclide.
type Result struct {
	DomainType DomainType
	Volumes    map[int]Estimate
	Atoms      map[int]map[string]Estimate
}

// NewResult returns an empty result for domains of type d.
func NewResult(d DomainType) *Result {
	return &Result{
		DomainType: d,
		Volumes:    make(map[int]Estimate),
		Atoms:      make(map[int]map[string]Estimate),
	}
}

// IDs returns the domain ids that have a volume, in ascending order.
func (r *Result) IDs() []int {
	ids := make([]int, 0, len(r.Volumes))
	for id := range r.Volumes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SetAtoms records the atom count of one nuclide in one domain.
func (r *Result) SetAtoms(id int, nuclide string, e Estimate) {
	if r.Atoms == nil {
		r.Atoms = make(map[int]map[string]Estimate)
	}
	m, ok := r.Atoms[id]
	if !ok {
		m = make(map[string]Estimate)
		r.Atoms[id] = m
	}
	m[nuclide] = e
}
