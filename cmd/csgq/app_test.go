package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chazu/csgeom/internal/config"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func testConfig() *config.Config {
	return &config.Config{
		EvalTimeout: 5 * time.Second,
		LogLevel:    "info",
		VolumeSeed:  1,
	}
}

func newTestApp(cfg *config.Config) *App {
	return NewApp(cfg, slog.New(slog.DiscardHandler))
}

func readPincell(t *testing.T) string {
	t.Helper()
	source, err := os.ReadFile("../../examples/pincell.csg")
	if err != nil {
		t.Fatalf("failed to read pincell.csg: %v", err)
	}
	return string(source)
}

func requireNoErrors(t *testing.T, r Report) {
	t.Helper()
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			t.Errorf("error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
}

// TestE2EPincellExample exercises the full pipeline: source -> engine ->
// model -> finalize -> locate, as the command does.
func TestE2EPincellExample(t *testing.T) {
	r := newTestApp(testConfig()).Run(context.Background(), readPincell(t), []v3.Vec{
		{},
		{X: 1.26, Y: 1.26},
		{X: 5},
	})
	requireNoErrors(t, r)

	if r.Universes != 3 || r.Cells != 7 || r.Materials != 3 || r.Lattices != 1 {
		t.Errorf("counts = %d universes %d cells %d materials %d lattices",
			r.Universes, r.Cells, r.Materials, r.Lattices)
	}
	if r.Box == nil || r.Box.Min != [3]string{"-1.89", "-1.89", "-5"} || r.Box.Max != [3]string{"1.89", "1.89", "5"} {
		t.Errorf("bounding box = %+v", r.Box)
	}

	if len(r.Locations) != 3 {
		t.Fatalf("expected 3 locations, got %d", len(r.Locations))
	}

	guide := r.Locations[0]
	if !guide.Found || guide.Path != "u10->c100->l1(1,1)->u2->c4" || guide.Instance != 0 || guide.Material != 3 {
		t.Errorf("centre location = %+v", guide)
	}

	corner := r.Locations[1]
	if !corner.Found || corner.Path != "u10->c100->l1(2,2)->u1->c1" || corner.Instance != 7 || corner.Material != 1 {
		t.Errorf("corner pin location = %+v", corner)
	}

	outside := r.Locations[2]
	if outside.Found || !strings.Contains(outside.Error, "no cell contains point") {
		t.Errorf("outside location = %+v", outside)
	}
}

func TestE2EErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"empty source", "", "no root"},
		{"no root call", `(universe :id 1)`, "no root"},
		{"syntax error", "(root (universe", ""},
		{"builtin error", `(root (cell))`, "expected universe"},
		{"cycle", `
(def a (universe :id 1))
(def b (universe :id 2 (cell :id 20 :fill a)))
(add-cell a (cell :id 10 :fill b))
(root a)`, "cycle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestApp(testConfig()).Run(context.Background(), tt.source, nil)
			if len(r.Errors) == 0 {
				t.Fatal("expected errors")
			}
			if !strings.Contains(r.Errors[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", r.Errors[0].Message, tt.wantMsg)
			}
			if r.Box != nil {
				t.Error("failed runs should not report a model summary")
			}
			// Slices stay non-nil so JSON shows [] not null.
			if r.Locations == nil || r.Volumes == nil || r.Warnings == nil {
				t.Error("report slices should be non-nil")
			}
		})
	}
}

func TestE2EWarnings(t *testing.T) {
	source := `(root (universe :id 1 (cell :id 1 :fill (universe :id 2))))`
	r := newTestApp(testConfig()).Run(context.Background(), source, []v3.Vec{{}})
	requireNoErrors(t, r)

	if len(r.Warnings) == 0 {
		t.Fatal("expected a warning for the empty universe")
	}
	if !strings.Contains(r.Warnings[0].Message, "[warning]") {
		t.Errorf("warning = %q", r.Warnings[0].Message)
	}
	if r.Locations[0].Found {
		t.Error("a point in an empty universe should not be found")
	}
}

func TestE2EInstancesOnly(t *testing.T) {
	cfg := testConfig()
	cfg.InstancesOnly = true
	r := newTestApp(cfg).Run(context.Background(), readPincell(t), []v3.Vec{{X: 1.26, Y: 1.26}})
	requireNoErrors(t, r)

	loc := r.Locations[0]
	if !loc.Found || loc.Instance != -1 || loc.Material != 1 {
		t.Errorf("location = %+v, want found with unknown instance", loc)
	}
}

const cube = `
(def m (material :id 1))
(add-nuclide m "U235" 0.5)
(root (universe :id 1
  (cell :id 1 :fill m
    :region (intersect (above :x 0) (below :x 2) (above :y 0) (below :y 2) (above :z 0) (below :z 2)))))
`

func TestE2EVolumesComputeStoreLoad(t *testing.T) {
	db := filepath.Join(t.TempDir(), "volumes.db")

	cfg := testConfig()
	cfg.VolumeDB = db
	cfg.VolumeSamples = 2000
	cfg.VolumeWorkers = 2
	r := newTestApp(cfg).Run(context.Background(), cube, nil)
	requireNoErrors(t, r)

	if len(r.Volumes) != 1 {
		t.Fatalf("expected 1 volume, got %d", len(r.Volumes))
	}
	v := r.Volumes[0]
	if v.Universe != 1 || v.Volume != 8 || v.StdDev != 0 {
		t.Errorf("computed volume = %+v, want universe 1 volume 8", v)
	}
	if d := v.Densities["U235"]; math.Abs(d-0.5) > 1e-12 {
		t.Errorf("U235 density = %v, want 0.5", d)
	}

	// A second run without sampling reads the stored result back.
	cfg = testConfig()
	cfg.VolumeDB = db
	r = newTestApp(cfg).Run(context.Background(), cube, nil)
	requireNoErrors(t, r)
	if len(r.Volumes) != 1 || r.Volumes[0].Volume != 8 {
		t.Errorf("loaded volumes = %+v", r.Volumes)
	}
}

func TestE2EVolumeStoreEmpty(t *testing.T) {
	cfg := testConfig()
	cfg.VolumeDB = filepath.Join(t.TempDir(), "empty.db")

	r := newTestApp(cfg).Run(context.Background(), cube, nil)
	requireNoErrors(t, r)
	if len(r.Volumes) != 0 {
		t.Errorf("expected no volumes from an empty store, got %+v", r.Volumes)
	}
}

func TestE2EUnboundedVolumeFails(t *testing.T) {
	cfg := testConfig()
	cfg.VolumeSamples = 100
	r := newTestApp(cfg).Run(context.Background(), `(root (universe :id 1 (cell :id 1 :region (below :x 0))))`, nil)
	if len(r.Errors) == 0 || !strings.Contains(r.Errors[0].Message, "unbounded") {
		t.Errorf("errors = %+v, want an unbounded sampling box", r.Errors)
	}
}

func TestReportOutput(t *testing.T) {
	r := newTestApp(testConfig()).Run(context.Background(), readPincell(t), []v3.Vec{{X: 1.26, Y: 1.26}, {X: 5}})
	requireNoErrors(t, r)

	var buf bytes.Buffer
	r.WriteText(&buf)
	out := buf.String()
	for _, want := range []string{
		"model: 3 universes, 7 cells, 3 materials, 1 lattices",
		"bounding box: (-1.89, -1.89, -5) - (1.89, 1.89, 5)",
		"(1.26, 1.26, 0): u10->c100->l1(2,2)->u1->c1 instance 7 material 1",
		"(5, 0, 0): geometry: no cell contains point",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	// Unbounded boxes must still encode.
	r = newTestApp(testConfig()).Run(context.Background(), `(root (universe :id 1 (cell :id 1)))`, nil)
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"+Inf"`) {
		t.Errorf("expected +Inf in %s", data)
	}
}

func TestParsePoint(t *testing.T) {
	tests := []struct {
		in      string
		want    v3.Vec
		wantErr bool
	}{
		{"1,2,3", v3.Vec{X: 1, Y: 2, Z: 3}, false},
		{" -0.5 , 2e3, 0", v3.Vec{X: -0.5, Y: 2000}, false},
		{"1,2", v3.Vec{}, true},
		{"a,b,c", v3.Vec{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePoint(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePoint(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parsePoint(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
