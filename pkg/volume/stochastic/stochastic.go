// Package stochastic estimates domain volumes and nuclide inventories by
// sampling points uniformly in a box and resolving each one through a
// finalized geometry model.
package stochastic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/chazu/csgeom/pkg/geometry"
	"github.com/chazu/csgeom/pkg/region"
	"github.com/chazu/csgeom/pkg/volume"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"golang.org/x/sync/errgroup"
)

// ErrUnbounded is returned when no finite sampling box is available.
var ErrUnbounded = errors.New("stochastic: sampling box is unbounded; set LowerLeft and UpperRight")

// DefaultSamples is used when Calculator.Samples is zero.
const DefaultSamples = 100_000

// Calculator configures one volume calculation.
type Calculator struct {
	DomainType volume.DomainType
	// IDs restricts the result to these domains. Empty means every domain
	// hit by at least one sample.
	IDs     []int
	Samples int
	// Workers is the number of concurrent samplers; 0 uses GOMAXPROCS.
	Workers int
	Seed    uint64
	// LowerLeft and UpperRight bound the sampling box. When nil the root
	// universe's bounding box is used.
	LowerLeft, UpperRight *v3.Vec
}

// tally accumulates hits and per-nuclide density sums for one domain.
type tally struct {
	hits  int
	sum   map[string]float64
	sumSq map[string]float64
}

func (t *tally) add(m *geometry.Material) {
	t.hits++
	if m == nil {
		return
	}
	if t.sum == nil {
		t.sum = make(map[string]float64)
		t.sumSq = make(map[string]float64)
	}
	for _, n := range m.Nuclides() {
		d := m.AtomDensity(n)
		t.sum[n] += d
		t.sumSq[n] += d * d
	}
}

func (t *tally) merge(o *tally) {
	t.hits += o.hits
	if o.sum == nil {
		return
	}
	if t.sum == nil {
		t.sum = make(map[string]float64)
		t.sumSq = make(map[string]float64)
	}
	for n, v := range o.sum {
		t.sum[n] += v
		t.sumSq[n] += o.sumSq[n]
	}
}

// Run samples the model and returns the volume of each domain with its
// standard deviation, plus atom counts derived from material densities. The
// model must be finalized and must not be modified while Run executes.
func (c *Calculator) Run(ctx context.Context, m *geometry.Model) (*volume.Result, error) {
	if !c.DomainType.Valid() {
		return nil, fmt.Errorf("stochastic: invalid domain type %q", c.DomainType)
	}
	if !m.Finalized() {
		return nil, geometry.ErrNotFinalized
	}
	box, err := c.box(m)
	if err != nil {
		return nil, err
	}

	samples := c.Samples
	if samples <= 0 {
		samples = DefaultSamples
	}
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > samples {
		workers = samples
	}

	partial := make([]map[int]*tally, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		n := samples / workers
		if w < samples%workers {
			n++
		}
		g.Go(func() error {
			t, err := c.sample(ctx, m, box, n, rand.New(rand.NewPCG(c.Seed, uint64(w))))
			partial[w] = t
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totals := make(map[int]*tally)
	for _, p := range partial {
		for id, t := range p {
			acc, ok := totals[id]
			if !ok {
				acc = &tally{}
				totals[id] = acc
			}
			acc.merge(t)
		}
	}

	ids := c.IDs
	if len(ids) == 0 {
		for id := range totals {
			ids = append(ids, id)
		}
	}

	boxVol := region.BoxVolume(box)
	n := float64(samples)
	r := volume.NewResult(c.DomainType)
	for _, id := range ids {
		t := totals[id]
		if t == nil {
			t = &tally{}
		}
		frac := float64(t.hits) / n
		r.Volumes[id] = volume.Estimate{
			Value:  frac * boxVol,
			StdDev: boxVol * math.Sqrt(frac*(1-frac)/n),
		}
		for nuc, s := range t.sum {
			mean := s / n
			variance := t.sumSq[nuc]/n - mean*mean
			if variance < 0 {
				variance = 0
			}
			// atom/b-cm * cm^3 * 1e24 b/cm^2 = atoms
			r.SetAtoms(id, nuc, volume.Estimate{
				Value:  mean * boxVol * 1e24,
				StdDev: math.Sqrt(variance/n) * boxVol * 1e24,
			})
		}
	}
	return r, nil
}

func (c *Calculator) box(m *geometry.Model) (sdf.Box3, error) {
	if c.LowerLeft != nil && c.UpperRight != nil {
		b := sdf.Box3{Min: *c.LowerLeft, Max: *c.UpperRight}
		if region.BoxVolume(b) <= 0 {
			return sdf.Box3{}, fmt.Errorf("stochastic: empty sampling box %v - %v", b.Min, b.Max)
		}
		return b, nil
	}
	if m.Root == nil {
		return sdf.Box3{}, geometry.ErrNoRoot
	}
	b := m.Root.BoundingBox()
	if region.IsInfinite(b) {
		return sdf.Box3{}, ErrUnbounded
	}
	return b, nil
}

func (c *Calculator) sample(ctx context.Context, m *geometry.Model, box sdf.Box3, n int, rng *rand.Rand) (map[int]*tally, error) {
	out := make(map[int]*tally)
	hit := func(id int, mat *geometry.Material) {
		t, ok := out[id]
		if !ok {
			t = &tally{}
			out[id] = t
		}
		t.add(mat)
	}
	size := box.Max.Sub(box.Min)

	for i := 0; i < n; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		p := v3.Vec{
			X: box.Min.X + rng.Float64()*size.X,
			Y: box.Min.Y + rng.Float64()*size.Y,
			Z: box.Min.Z + rng.Float64()*size.Z,
		}
		loc, err := m.Locate(p)
		if errors.Is(err, geometry.ErrPointNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		switch c.DomainType {
		case volume.DomainMaterial:
			if loc.Material != nil {
				hit(loc.Material.ID(), loc.Material)
			}
		case volume.DomainCell:
			for _, node := range loc.Trace {
				if node.Kind == geometry.NodeCell {
					hit(node.Cell.ID(), loc.Material)
				}
			}
		case volume.DomainUniverse:
			for _, node := range loc.Trace {
				if node.Kind == geometry.NodeUniverse {
					hit(node.Universe.ID(), loc.Material)
				}
			}
		}
	}
	return out, nil
}
