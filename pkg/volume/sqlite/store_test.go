package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/chazu/csgeom/pkg/volume"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "volumes.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	in := volume.NewResult(volume.DomainUniverse)
	in.Volumes[1] = volume.Estimate{Value: 12.5, StdDev: 0.25}
	in.Volumes[4] = volume.Estimate{Value: 3, StdDev: 0.1}
	in.SetAtoms(1, "U235", volume.Estimate{Value: 1.5e22, StdDev: 1e20})
	in.SetAtoms(1, "O16", volume.Estimate{Value: 4e23})

	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, volume.DomainUniverse)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.DomainType != volume.DomainUniverse {
		t.Fatalf("domain type = %q", got.DomainType)
	}
	if len(got.Volumes) != 2 {
		t.Fatalf("volumes = %v, want 2 entries", got.Volumes)
	}
	if got.Volumes[1] != in.Volumes[1] {
		t.Fatalf("volume[1] = %v, want %v", got.Volumes[1], in.Volumes[1])
	}
	if got.Atoms[1]["U235"] != in.Atoms[1]["U235"] {
		t.Fatalf("U235 = %v, want %v", got.Atoms[1]["U235"], in.Atoms[1]["U235"])
	}
	if len(got.Atoms[4]) != 0 {
		t.Fatalf("atoms[4] = %v, want none", got.Atoms[4])
	}
}

func TestSaveReplacesDomain(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	first := volume.NewResult(volume.DomainCell)
	first.Volumes[7] = volume.Estimate{Value: 1}
	first.SetAtoms(7, "H1", volume.Estimate{Value: 10})
	first.SetAtoms(7, "O16", volume.Estimate{Value: 5})
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := volume.NewResult(volume.DomainCell)
	second.Volumes[7] = volume.Estimate{Value: 2}
	second.SetAtoms(7, "H1", volume.Estimate{Value: 20})
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := store.Load(ctx, volume.DomainCell)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Volumes[7].Value != 2 {
		t.Fatalf("volume = %v, want 2", got.Volumes[7].Value)
	}
	if _, ok := got.Atoms[7]["O16"]; ok {
		t.Fatal("stale O16 atoms survived a replace")
	}
	if got.Atoms[7]["H1"].Value != 20 {
		t.Fatalf("H1 = %v, want 20", got.Atoms[7]["H1"].Value)
	}
}

func TestLoadSeparatesDomainTypes(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	r := volume.NewResult(volume.DomainMaterial)
	r.Volumes[1] = volume.Estimate{Value: 1}
	if err := store.Save(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := store.Load(ctx, volume.DomainUniverse); !errors.Is(err, ErrNotFound) {
		t.Fatalf("load other domain err = %v, want ErrNotFound", err)
	}
}

func TestRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, nil); err == nil {
		t.Fatal("expected nil result error")
	}
	if err := store.Save(ctx, &volume.Result{DomainType: "mesh"}); err == nil {
		t.Fatal("expected invalid domain error")
	}
	if _, err := store.Load(ctx, "mesh"); err == nil {
		t.Fatal("expected invalid domain error")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := store.Save(cancelled, volume.NewResult(volume.DomainCell)); !errors.Is(err, context.Canceled) {
		t.Fatalf("save with cancelled context err = %v", err)
	}
}
