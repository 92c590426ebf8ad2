package geometry

import "fmt"

// Material fills terminal cells. It carries nuclide atom densities in
// atom/b-cm and accumulates the instance data of every cell placement that
// resolves to it.
type Material struct {
	id   int
	Name string

	nuclides  []string
	densities map[string]float64

	numInstances int
	paths        []string
}

// ID returns the material id.
func (m *Material) ID() int { return m.id }

// AddNuclide sets the atom density of a nuclide. Adding a nuclide twice
// replaces its density but keeps its original position.
func (m *Material) AddNuclide(name string, density float64) error {
	if name == "" {
		return fmt.Errorf("geometry: material %d: empty nuclide name", m.id)
	}
	if density < 0 {
		return fmt.Errorf("geometry: material %d: negative density %g for %s", m.id, density, name)
	}
	if m.densities == nil {
		m.densities = make(map[string]float64)
	}
	if _, ok := m.densities[name]; !ok {
		m.nuclides = append(m.nuclides, name)
	}
	m.densities[name] = density
	return nil
}

// Nuclides returns the nuclide names in insertion order.
func (m *Material) Nuclides() []string {
	out := make([]string, len(m.nuclides))
	copy(out, m.nuclides)
	return out
}

// AtomDensity returns the density of a nuclide in atom/b-cm, or 0.
func (m *Material) AtomDensity(nuclide string) float64 {
	return m.densities[nuclide]
}

// NumInstances returns how many placements resolve to this material. It is
// only meaningful after an enumeration pass.
func (m *Material) NumInstances() int { return m.numInstances }

// Paths returns the occurrence paths recorded by the last enumeration pass.
// The slice must not be modified.
func (m *Material) Paths() []string { return m.paths }

func (m *Material) resetInstances() {
	m.numInstances = 0
	m.paths = nil
}

func (m *Material) String() string {
	if m.Name == "" {
		return fmt.Sprintf("material %d", m.id)
	}
	return fmt.Sprintf("material %d (%s)", m.id, m.Name)
}
