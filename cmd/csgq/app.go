package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/chazu/csgeom/internal/config"
	"github.com/chazu/csgeom/internal/otel"
	"github.com/chazu/csgeom/pkg/engine"
	"github.com/chazu/csgeom/pkg/geometry"
	"github.com/chazu/csgeom/pkg/volume"
	"github.com/chazu/csgeom/pkg/volume/sqlite"
	"github.com/chazu/csgeom/pkg/volume/stochastic"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// App runs one model through evaluation, finalization, volume data and
// point location.
type App struct {
	cfg    *config.Config
	engine *engine.Engine
	logger *slog.Logger
	tracer trace.Tracer
}

// EvalErrorData is a JSON-serializable evaluation or validation message.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// BoundingBoxData holds box corners formatted so unbounded axes survive
// JSON encoding as "-Inf"/"+Inf".
type BoundingBoxData struct {
	Min [3]string `json:"min"`
	Max [3]string `json:"max"`
}

// VolumeData is one universe's volume and nuclide densities.
type VolumeData struct {
	Universe  int                `json:"universe"`
	Volume    float64            `json:"volume"`
	StdDev    float64            `json:"stdDev"`
	Densities map[string]float64 `json:"densities,omitempty"`
}

// LocationData is the resolution of one query point.
type LocationData struct {
	Point    [3]float64 `json:"point"`
	Found    bool       `json:"found"`
	Path     string     `json:"path,omitempty"`
	Cell     int        `json:"cell,omitempty"`
	Instance int        `json:"instance"`
	Material int        `json:"material,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Report is the full result of a run.
type Report struct {
	Errors    []EvalErrorData  `json:"errors"`
	Warnings  []EvalErrorData  `json:"warnings"`
	Universes int              `json:"universes"`
	Cells     int              `json:"cells"`
	Materials int              `json:"materials"`
	Lattices  int              `json:"lattices"`
	Box       *BoundingBoxData `json:"boundingBox,omitempty"`
	Volumes   []VolumeData     `json:"volumes"`
	Locations []LocationData   `json:"locations"`
}

// NewApp creates an App for cfg.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		engine: engine.NewEngine(engine.WithTimeout(cfg.EvalTimeout)),
		logger: logger.With("component", "csgq"),
		tracer: otel.Tracer("github.com/chazu/csgeom/cmd/csgq"),
	}
}

// Run evaluates source and resolves points against the resulting model.
// Problems are reported in the returned Report rather than as an error.
func (a *App) Run(ctx context.Context, source string, points []v3.Vec) Report {
	report := Report{
		Errors:    []EvalErrorData{},
		Warnings:  []EvalErrorData{},
		Volumes:   []VolumeData{},
		Locations: []LocationData{},
	}
	fail := func(span trace.Span, err error) Report {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Error("run failed", "error", err)
		report.Errors = append(report.Errors, EvalErrorData{Message: err.Error()})
		return report
	}

	// Step 1: Evaluate the source into a model.
	_, span := a.tracer.Start(ctx, "evaluate")
	m, evalErrs, err := a.engine.Evaluate(source)
	if err == nil && len(evalErrs) == 0 && m.Root == nil {
		err = errors.New("model has no root universe; call (root ...)")
	}
	if err != nil {
		defer span.End()
		return fail(span, err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			report.Errors = append(report.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		span.SetStatus(codes.Error, "evaluation failed")
		span.End()
		return report
	}
	span.End()

	// Step 2: Validate and enumerate instances.
	_, span = a.tracer.Start(ctx, "finalize")
	err = m.Finalize(geometry.FinalizeOptions{InstancesOnly: a.cfg.InstancesOnly})
	for _, v := range m.Warnings() {
		report.Warnings = append(report.Warnings, EvalErrorData{Message: v.Error()})
	}
	if err != nil {
		defer span.End()
		return fail(span, err)
	}
	span.End()
	report.summarize(m)
	a.logger.Debug("model finalized",
		"universes", report.Universes,
		"cells", report.Cells,
		"materials", report.Materials,
	)

	// Step 3: Attach volume data when requested.
	vctx, span := a.tracer.Start(ctx, "volumes")
	vols, err := a.volumes(vctx, m)
	if err != nil {
		defer span.End()
		return fail(span, err)
	}
	span.End()
	report.Volumes = vols

	// Step 4: Resolve the query points.
	_, span = a.tracer.Start(ctx, "locate", trace.WithAttributes(attribute.Int("points", len(points))))
	for _, p := range points {
		report.Locations = append(report.Locations, locate(m, p))
	}
	span.End()

	return report
}

func (r *Report) summarize(m *geometry.Model) {
	us := m.Root.GetAllUniverses()
	us[m.Root.ID()] = m.Root
	r.Universes = len(us)
	r.Cells = len(m.Root.GetAllCells())
	r.Materials = len(m.Root.GetAllMaterials())
	r.Lattices = len(m.Root.GetAllLattices())
	r.Box = boxData(m.Root.BoundingBox())
}

// volumes computes, stores or loads universe volumes as configured and
// attaches them to the model's universes.
func (a *App) volumes(ctx context.Context, m *geometry.Model) ([]VolumeData, error) {
	var store *sqlite.Store
	if a.cfg.VolumeDB != "" {
		s, err := sqlite.Open(a.cfg.VolumeDB, sqlite.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
		defer s.Close()
		store = s
	}

	var res *volume.Result
	switch {
	case a.cfg.ComputeVolumes():
		calc := stochastic.Calculator{
			DomainType: volume.DomainUniverse,
			Samples:    a.cfg.VolumeSamples,
			Workers:    a.cfg.VolumeWorkers,
			Seed:       a.cfg.VolumeSeed,
		}
		r, err := calc.Run(ctx, m)
		if err != nil {
			return nil, err
		}
		a.logger.Info("computed volumes", "samples", a.cfg.VolumeSamples, "universes", len(r.Volumes))
		if store != nil {
			if err := store.Save(ctx, r); err != nil {
				return nil, err
			}
		}
		res = r
	case store != nil:
		r, err := store.Load(ctx, volume.DomainUniverse)
		if errors.Is(err, sqlite.ErrNotFound) {
			a.logger.Warn("volume store has no universe volumes", "path", a.cfg.VolumeDB)
			return []VolumeData{}, nil
		}
		if err != nil {
			return nil, err
		}
		res = r
	default:
		return []VolumeData{}, nil
	}

	universes := m.Root.GetAllUniverses()
	universes[m.Root.ID()] = m.Root

	out := []VolumeData{}
	for _, id := range slices.Sorted(maps.Keys(universes)) {
		u := universes[id]
		err := u.AddVolumeInformation(res)
		if errors.Is(err, geometry.ErrVolumeNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		est := res.Volumes[id]
		vd := VolumeData{Universe: id, Volume: est.Value, StdDev: est.StdDev}

		dens, err := u.NuclideDensities()
		var missing *geometry.MissingVolumeError
		switch {
		case err == nil:
			vd.Densities = dens
		case errors.As(err, &missing):
			// Void universes carry no atoms.
		default:
			return nil, err
		}
		out = append(out, vd)
	}
	return out, nil
}

func locate(m *geometry.Model, p v3.Vec) LocationData {
	ld := LocationData{Point: [3]float64{p.X, p.Y, p.Z}, Instance: -1}
	loc, err := m.Locate(p)
	if len(loc.Trace) > 0 {
		ld.Found = true
		ld.Path = loc.Path()
		ld.Cell = loc.Cell.ID()
		ld.Instance = loc.Instance
		if loc.Material != nil {
			ld.Material = loc.Material.ID()
		}
	}
	if err != nil {
		ld.Error = err.Error()
	}
	return ld
}

func boxData(b sdf.Box3) *BoundingBoxData {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return &BoundingBoxData{
		Min: [3]string{f(b.Min.X), f(b.Min.Y), f(b.Min.Z)},
		Max: [3]string{f(b.Max.X), f(b.Max.Y), f(b.Max.Z)},
	}
}

// WriteText prints the report for a terminal.
func (r Report) WriteText(w io.Writer) {
	for _, e := range r.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "error: line %d: %s\n", e.Line, e.Message)
		} else {
			fmt.Fprintf(w, "error: %s\n", e.Message)
		}
	}
	for _, e := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", e.Message)
	}
	if r.Box == nil {
		return
	}

	fmt.Fprintf(w, "model: %d universes, %d cells, %d materials, %d lattices\n",
		r.Universes, r.Cells, r.Materials, r.Lattices)
	fmt.Fprintf(w, "bounding box: (%s) - (%s)\n",
		strings.Join(r.Box.Min[:], ", "), strings.Join(r.Box.Max[:], ", "))

	for _, v := range r.Volumes {
		fmt.Fprintf(w, "volume u%d: %s\n", v.Universe, volume.Estimate{Value: v.Volume, StdDev: v.StdDev})
		for _, n := range slices.Sorted(maps.Keys(v.Densities)) {
			fmt.Fprintf(w, "  %s: %g atom/b-cm\n", n, v.Densities[n])
		}
	}

	for _, l := range r.Locations {
		fmt.Fprintf(w, "(%g, %g, %g): ", l.Point[0], l.Point[1], l.Point[2])
		if !l.Found {
			fmt.Fprintln(w, l.Error)
			continue
		}
		fmt.Fprint(w, l.Path)
		if l.Instance >= 0 {
			fmt.Fprintf(w, " instance %d", l.Instance)
		}
		switch {
		case l.Error != "":
			fmt.Fprintf(w, " (%s)", l.Error)
		case l.Material > 0:
			fmt.Fprintf(w, " material %d", l.Material)
		default:
			fmt.Fprint(w, " void")
		}
		fmt.Fprintln(w)
	}
}

// parsePoint reads "x,y,z".
func parsePoint(s string) (v3.Vec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return v3.Vec{}, fmt.Errorf("point %q: want x,y,z", s)
	}
	var xyz [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return v3.Vec{}, fmt.Errorf("point %q: %w", s, err)
		}
		xyz[i] = f
	}
	return v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
