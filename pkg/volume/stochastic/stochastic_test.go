package stochastic

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/chazu/csgeom/pkg/geometry"
	"github.com/chazu/csgeom/pkg/region"
	"github.com/chazu/csgeom/pkg/volume"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// boxInBox builds a 4x4x4 cube (universe 1) whose inner 2x2x2 cube (cell 1)
// is filled with universe 2 made of fuel. The rest of the outer cube is
// cell 2, a void.
func boxInBox(t *testing.T) (*geometry.Model, *geometry.Material) {
	t.Helper()
	m := geometry.NewModel()

	fuel, err := m.NewMaterial(1, "fuel")
	if err != nil {
		t.Fatal(err)
	}
	if err := fuel.AddNuclide("U235", 0.5); err != nil {
		t.Fatal(err)
	}

	fuelCell, _ := m.NewCell(3, "fuel")
	fuelCell.Fill = geometry.MaterialFill(fuel)
	inner, _ := m.NewUniverse(2, "inner")
	if err := inner.AddCell(fuelCell); err != nil {
		t.Fatal(err)
	}

	c1, _ := m.NewCell(1, "insert")
	c1.Region = &region.AxisBox{Max: v3.Vec{X: 2, Y: 2, Z: 2}}
	c1.Fill = geometry.UniverseFill(inner)
	c2, _ := m.NewCell(2, "gap")
	c2.Region = &region.AxisBox{Min: v3.Vec{X: -1, Y: -1, Z: -1}, Max: v3.Vec{X: 3, Y: 3, Z: 3}}

	root, _ := m.NewUniverse(1, "root")
	if err := root.AddCells(c1, c2); err != nil {
		t.Fatal(err)
	}
	m.Root = root
	if err := m.Finalize(geometry.FinalizeOptions{}); err != nil {
		t.Fatal(err)
	}
	return m, fuel
}

func within(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %g, want %g ± %g", name, got, want, tol)
	}
}

func TestRunDomains(t *testing.T) {
	m, _ := boxInBox(t)

	tests := []struct {
		name   string
		domain volume.DomainType
		ids    []int
		want   map[int]float64
	}{
		{"universe", volume.DomainUniverse, []int{1, 2}, map[int]float64{1: 64, 2: 8}},
		{"cell", volume.DomainCell, []int{1, 2, 3}, map[int]float64{1: 8, 2: 56, 3: 8}},
		{"material", volume.DomainMaterial, nil, map[int]float64{1: 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := &Calculator{DomainType: tt.domain, IDs: tt.ids, Samples: 100_000, Workers: 4, Seed: 7}
			r, err := calc.Run(context.Background(), m)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if r.DomainType != tt.domain {
				t.Errorf("DomainType = %q", r.DomainType)
			}
			if len(r.Volumes) != len(tt.want) {
				t.Errorf("got %d volumes, want %d", len(r.Volumes), len(tt.want))
			}
			for id, want := range tt.want {
				est := r.Volumes[id]
				// Six binomial standard deviations at 100k samples.
				within(t, "volume", est.Value, want, 6*64*math.Sqrt(0.25/100_000)+1e-9)
				if want < 64 && est.StdDev <= 0 {
					t.Errorf("domain %d has no standard deviation", id)
				}
			}
		})
	}
}

func TestRunAtoms(t *testing.T) {
	m, fuel := boxInBox(t)

	calc := &Calculator{DomainType: volume.DomainMaterial, Samples: 100_000, Seed: 1}
	r, err := calc.Run(context.Background(), m)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// 0.5 atom/b-cm over 8 cm^3.
	got := r.Atoms[fuel.ID()]["U235"].Value
	within(t, "U235 atoms", got, 4e24, 0.05*4e24)

	// The universe-keyed result feeds back into nuclide densities.
	ur, err := (&Calculator{DomainType: volume.DomainUniverse, IDs: []int{2}, Samples: 100_000, Seed: 1}).Run(context.Background(), m)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	inner := m.Root.GetAllUniverses()[2]
	if err := inner.AddVolumeInformation(ur); err != nil {
		t.Fatalf("AddVolumeInformation: %v", err)
	}
	dens, err := inner.NuclideDensities()
	if err != nil {
		t.Fatalf("NuclideDensities: %v", err)
	}
	within(t, "U235 density", dens["U235"], 0.5, 1e-9)
}

func TestRunDeterministic(t *testing.T) {
	m, _ := boxInBox(t)
	calc := &Calculator{DomainType: volume.DomainCell, IDs: []int{1}, Samples: 10_000, Workers: 3, Seed: 42}

	a, err := calc.Run(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	b, err := calc.Run(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if a.Volumes[1] != b.Volumes[1] {
		t.Errorf("same seed gave %v and %v", a.Volumes[1], b.Volumes[1])
	}
}

func TestRunErrors(t *testing.T) {
	m, _ := boxInBox(t)

	if _, err := (&Calculator{DomainType: "mesh"}).Run(context.Background(), m); err == nil {
		t.Error("invalid domain type accepted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&Calculator{DomainType: volume.DomainCell, Samples: 5000}).Run(ctx, m); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled run err = %v, want context.Canceled", err)
	}

	ll, ur := v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1, Z: 1}
	if _, err := (&Calculator{DomainType: volume.DomainCell, LowerLeft: &ll, UpperRight: &ur}).Run(context.Background(), m); err == nil {
		t.Error("flat sampling box accepted")
	}

	unbounded := geometry.NewModel()
	u, _ := unbounded.NewUniverse(0, "")
	c, _ := unbounded.NewCell(0, "")
	_ = u.AddCell(c)
	unbounded.Root = u
	if err := unbounded.Finalize(geometry.FinalizeOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := (&Calculator{DomainType: volume.DomainCell}).Run(context.Background(), unbounded); !errors.Is(err, ErrUnbounded) {
		t.Errorf("unbounded err = %v, want ErrUnbounded", err)
	}

	fresh := geometry.NewModel()
	if _, err := (&Calculator{DomainType: volume.DomainCell}).Run(context.Background(), fresh); !errors.Is(err, geometry.ErrNotFinalized) {
		t.Errorf("unfinalized err = %v, want ErrNotFinalized", err)
	}
}
