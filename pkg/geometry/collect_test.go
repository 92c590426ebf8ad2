package geometry

import (
	"reflect"
	"testing"

	"github.com/chazu/csgeom/pkg/region"
)

func TestGetAllCells(t *testing.T) {
	_, root, _, pin, _ := pinLattice(t)

	cells := root.GetAllCells()
	if len(cells) != 2 {
		t.Fatalf("GetAllCells returned %d cells, want 2", len(cells))
	}
	if cells[20] != pin || cells[10] == nil {
		t.Errorf("GetAllCells = %v", cells)
	}

	// Repeated calls on an unchanged universe agree.
	if again := root.GetAllCells(); !reflect.DeepEqual(again, cells) {
		t.Error("GetAllCells is not idempotent")
	}
}

func TestGetAllUniverses(t *testing.T) {
	_, root, _, _, _ := pinLattice(t)

	us := root.GetAllUniverses()
	if len(us) != 1 || us[2] == nil {
		t.Errorf("GetAllUniverses = %v, want only universe 2", us)
	}
	if _, ok := us[root.ID()]; ok {
		t.Error("root should not be listed among its contained universes")
	}
}

func TestGetAllMaterialsAndNuclides(t *testing.T) {
	m := NewModel()
	fuel := newMaterial(t, m, 1)
	_ = fuel.AddNuclide("U235", 0.001)
	_ = fuel.AddNuclide("U238", 0.02)
	water := newMaterial(t, m, 2)
	_ = water.AddNuclide("H1", 0.06)
	_ = water.AddNuclide("O16", 0.03)
	_ = water.AddNuclide("U235", 1e-9)
	clad := newMaterial(t, m, 3)

	inner := newUniverse(t, m, 0,
		newCell(t, m, 0, &region.Sphere{Radius: 1}, MaterialFill(fuel)),
		newCell(t, m, 0, nil, DistribFill(water, nil, clad)),
	)
	root := newUniverse(t, m, 0, newCell(t, m, 0, nil, UniverseFill(inner)))

	mats := root.GetAllMaterials()
	if len(mats) != 3 || mats[1] != fuel || mats[2] != water || mats[3] != clad {
		t.Errorf("GetAllMaterials = %v", mats)
	}

	want := []string{"U235", "U238", "H1", "O16"}
	if got := root.Nuclides(); !reflect.DeepEqual(got, want) {
		t.Errorf("Nuclides = %v, want %v", got, want)
	}
}

func TestGetAllLattices(t *testing.T) {
	_, root, lat, _, _ := pinLattice(t)
	ls := root.GetAllLattices()
	if len(ls) != 1 || ls[lat.ID()] != Lattice(lat) {
		t.Errorf("GetAllLattices = %v", ls)
	}
}

func TestCollectToleratesCycles(t *testing.T) {
	m := NewModel()
	u1 := newUniverse(t, m, 0)
	u2 := newUniverse(t, m, 0, newCell(t, m, 0, nil, UniverseFill(u1)))
	if err := u1.AddCell(newCell(t, m, 0, nil, UniverseFill(u2))); err != nil {
		t.Fatal(err)
	}

	if got := len(u1.GetAllCells()); got != 2 {
		t.Errorf("GetAllCells over a cycle = %d cells, want 2", got)
	}
	us := u1.GetAllUniverses()
	if len(us) != 2 || us[u1.ID()] != u1 {
		t.Errorf("GetAllUniverses over a cycle = %v", us)
	}
}

func TestMaterialAddNuclide(t *testing.T) {
	m := NewModel()
	mat := newMaterial(t, m, 0)
	if err := mat.AddNuclide("", 1); err == nil {
		t.Error("empty nuclide name accepted")
	}
	if err := mat.AddNuclide("H1", -1); err == nil {
		t.Error("negative density accepted")
	}
	_ = mat.AddNuclide("H1", 1)
	_ = mat.AddNuclide("O16", 2)
	_ = mat.AddNuclide("H1", 3)
	if got := mat.Nuclides(); !reflect.DeepEqual(got, []string{"H1", "O16"}) {
		t.Errorf("Nuclides = %v", got)
	}
	if mat.AtomDensity("H1") != 3 {
		t.Errorf("H1 density = %v, want 3", mat.AtomDensity("H1"))
	}
}
