package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/csgeom/pkg/geometry"
	"github.com/chazu/csgeom/pkg/region"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

type sexpMaterial struct{ m *geometry.Material }

func (s *sexpMaterial) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(material %d %q)", s.m.ID(), s.m.Name)
}
func (s *sexpMaterial) Type() *zygo.RegisteredType { return nil }

type sexpRegion struct{ r region.Region }

func (s *sexpRegion) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(region %T)", s.r)
}
func (s *sexpRegion) Type() *zygo.RegisteredType { return nil }

type sexpCell struct{ c *geometry.Cell }

func (s *sexpCell) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(cell %d %q)", s.c.ID(), s.c.Name)
}
func (s *sexpCell) Type() *zygo.RegisteredType { return nil }

type sexpUniverse struct{ u *geometry.Universe }

func (s *sexpUniverse) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(universe %d %q)", s.u.ID(), s.u.Name)
}
func (s *sexpUniverse) Type() *zygo.RegisteredType { return nil }

type sexpLattice struct{ l *geometry.RectLattice }

func (s *sexpLattice) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rect-lattice %d %q)", s.l.ID(), s.l.Name())
}
func (s *sexpLattice) Type() *zygo.RegisteredType { return nil }

type sexpVec3 struct{ vec v3.Vec }

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// A trailing keyword with no value maps to nil.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// intKW returns the integer keyword name, or 0 when absent.
func (a kwArgs) intKW(name string) (int, error) {
	v, ok := a.kw[name]
	if !ok {
		return 0, nil
	}
	return toInt(v)
}

// stringKW returns the string keyword name, or "" when absent.
func (a kwArgs) stringKW(name string) (string, error) {
	v, ok := a.kw[name]
	if !ok {
		return "", nil
	}
	return toString(v)
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer id.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true/false and treats nil as false.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return false, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toAxis converts a keyword or string to a region.Axis.
func toAxis(s zygo.Sexp) (region.Axis, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected axis keyword (:x, :y, :z): %w", err)
	}
	switch name {
	case "x":
		return region.AxisX, nil
	case "y":
		return region.AxisY, nil
	case "z":
		return region.AxisZ, nil
	}
	return 0, fmt.Errorf("invalid axis %q, expected x, y, or z", name)
}

// toVec3 accepts a (vec3 ...) value or a three-number list.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil || len(items) != 3 {
		return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
	}
	var xyz [3]float64
	for i, item := range items {
		if xyz[i], err = toFloat64(item); err != nil {
			return v3.Vec{}, err
		}
	}
	return v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func toMaterial(s zygo.Sexp) (*geometry.Material, error) {
	if m, ok := s.(*sexpMaterial); ok {
		return m.m, nil
	}
	return nil, fmt.Errorf("expected material, got %T (%s)", s, s.SexpString(nil))
}

func toRegion(s zygo.Sexp) (region.Region, error) {
	if r, ok := s.(*sexpRegion); ok {
		return r.r, nil
	}
	return nil, fmt.Errorf("expected region, got %T (%s)", s, s.SexpString(nil))
}

func toRegions(args []zygo.Sexp) ([]region.Region, error) {
	out := make([]region.Region, 0, len(args))
	for i, a := range args {
		r, err := toRegion(a)
		if err != nil {
			return nil, fmt.Errorf("operand %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func toCell(s zygo.Sexp) (*geometry.Cell, error) {
	if c, ok := s.(*sexpCell); ok {
		return c.c, nil
	}
	return nil, fmt.Errorf("expected cell, got %T (%s)", s, s.SexpString(nil))
}

func toUniverse(s zygo.Sexp) (*geometry.Universe, error) {
	if u, ok := s.(*sexpUniverse); ok {
		return u.u, nil
	}
	return nil, fmt.Errorf("expected universe, got %T (%s)", s, s.SexpString(nil))
}

// toUniverseOrNil maps nil to an empty lattice position.
func toUniverseOrNil(s zygo.Sexp) (*geometry.Universe, error) {
	if s == zygo.SexpNull {
		return nil, nil
	}
	return toUniverse(s)
}

// toFill interprets a cell :fill value. A list of materials is a
// distributed-material fill; nil or :void leaves the cell empty.
func toFill(s zygo.Sexp) (geometry.Fill, error) {
	switch v := s.(type) {
	case *sexpMaterial:
		return geometry.MaterialFill(v.m), nil
	case *sexpUniverse:
		return geometry.UniverseFill(v.u), nil
	case *sexpLattice:
		return geometry.LatticeFill(v.l), nil
	case *zygo.SexpPair, *zygo.SexpArray:
		items, err := sexpListToSlice(s)
		if err != nil {
			return geometry.Fill{}, err
		}
		ms := make([]*geometry.Material, 0, len(items))
		for i, item := range items {
			m, err := toMaterial(item)
			if err != nil {
				return geometry.Fill{}, fmt.Errorf("distributed material %d: %w", i, err)
			}
			ms = append(ms, m)
		}
		return geometry.DistribFill(ms...), nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return geometry.VoidFill(), nil
		}
	case *zygo.SexpStr:
		if name, _ := toKeywordString(v); name == "void" {
			return geometry.VoidFill(), nil
		}
	}
	return geometry.Fill{}, fmt.Errorf("expected material, universe, lattice, material list or :void, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

func isList(s zygo.Sexp) bool {
	switch s.(type) {
	case *zygo.SexpPair, *zygo.SexpArray:
		return true
	}
	return false
}

// toUniverseGrid reads lattice rows ([[u u] [u u]]) or layers
// ([[[u u] [u u]] [[u u] [u u]]]) into layers for SetUniverses3D.
func toUniverseGrid(s zygo.Sexp) ([][][]*geometry.Universe, error) {
	outer, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	if len(outer) == 0 {
		return nil, fmt.Errorf("empty universe grid")
	}
	first, err := sexpListToSlice(outer[0])
	if err != nil {
		return nil, fmt.Errorf("row 0: %w", err)
	}
	if len(first) > 0 && isList(first[0]) {
		layers := make([][][]*geometry.Universe, len(outer))
		for iz, layer := range outer {
			rows, err := toUniverseRows(layer)
			if err != nil {
				return nil, fmt.Errorf("layer %d: %w", iz, err)
			}
			layers[iz] = rows
		}
		return layers, nil
	}
	rows, err := toUniverseRows(s)
	if err != nil {
		return nil, err
	}
	return [][][]*geometry.Universe{rows}, nil
}

func toUniverseRows(s zygo.Sexp) ([][]*geometry.Universe, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	rows := make([][]*geometry.Universe, len(items))
	for r, item := range items {
		cols, err := sexpListToSlice(item)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r, err)
		}
		row := make([]*geometry.Universe, len(cols))
		for c, col := range cols {
			if row[c], err = toUniverseOrNil(col); err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", r, c, err)
			}
		}
		rows[r] = row
	}
	return rows, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builder is the state shared by the builtins of one evaluation.
type builder struct {
	model  *geometry.Model
	kernel region.Kernel
}

type builtinFunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs the modeling builtins into a zygomys environment.
// They populate b.model during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens and kebab-case names match the registered forms.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	for name, fn := range map[string]builtinFunc{
		"vec3":         b.vec3,
		"material":     b.material,
		"add_nuclide":  b.addNuclide,
		"below":        b.halfPlane(region.SideBelow),
		"above":        b.halfPlane(region.SideAbove),
		"halfspace":    b.halfspace,
		"box":          b.box,
		"sphere":       b.sphere,
		"cylinder":     b.cylinder,
		"intersect":    b.intersect,
		"union":        b.union,
		"difference":   b.difference,
		"complement":   b.complement,
		"translate":    b.translate,
		"rotate":       b.rotate,
		"cell":         b.cell,
		"universe":     b.universe,
		"add_cell":     b.addCell,
		"remove_cell":  b.removeCell,
		"rect_lattice": b.rectLattice,
		"clone":        b.clone,
		"root":         b.root,
	} {
		env.AddFunction(name, fn)
	}
}

// (vec3 x y z)
func (b *builder) vec3(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}
	var xyz [3]float64
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: component %d: %w", i, err)
		}
		xyz[i] = f
	}
	return &sexpVec3{vec: v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
}

// (material :id 1 :name "fuel")
func (b *builder) material(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	id, err := pa.intKW("id")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("material: id: %w", err)
	}
	label, err := pa.stringKW("name")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("material: name: %w", err)
	}
	m, err := b.model.NewMaterial(id, label)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("material: %w", err)
	}
	return &sexpMaterial{m: m}, nil
}

// (add-nuclide mat "U235" 0.02) adds an atom density in atom/b-cm.
func (b *builder) addNuclide(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("add-nuclide requires a material, a nuclide and a density")
	}
	m, err := toMaterial(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("add-nuclide: %w", err)
	}
	nuc, err := toString(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("add-nuclide: nuclide: %w", err)
	}
	density, err := toFloat64(args[2])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("add-nuclide: density: %w", err)
	}
	if err := m.AddNuclide(nuc, density); err != nil {
		return zygo.SexpNull, fmt.Errorf("add-nuclide: %w", err)
	}
	return args[0], nil
}

// (below :x 1.5) and (above :z 0)
func (b *builder) halfPlane(side region.Side) builtinFunc {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("%s requires an axis and a coordinate", name)
		}
		axis, err := toAxis(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		at, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: coordinate: %w", name, err)
		}
		if side == region.SideBelow {
			return &sexpRegion{r: region.Below(axis, at)}, nil
		}
		return &sexpRegion{r: region.Above(axis, at)}, nil
	}
}

// (halfspace (vec3 1 1 0) 2.0 :side :above) selects one side of n.p = d.
func (b *builder) halfspace(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 2 {
		return zygo.SexpNull, fmt.Errorf("halfspace requires a normal and an offset")
	}
	n, err := toVec3(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("halfspace: normal: %w", err)
	}
	if n.X == 0 && n.Y == 0 && n.Z == 0 {
		return zygo.SexpNull, fmt.Errorf("halfspace: normal must be non-zero")
	}
	d, err := toFloat64(pa.positional[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("halfspace: offset: %w", err)
	}
	h := &region.HalfSpace{Normal: n, Offset: d, Side: region.SideBelow}
	if v, ok := pa.kw["side"]; ok {
		s, err := toKeywordString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("halfspace: side: %w", err)
		}
		switch s {
		case "below":
		case "above":
			h.Side = region.SideAbove
		default:
			return zygo.SexpNull, fmt.Errorf("halfspace: invalid side %q, expected below or above", s)
		}
	}
	return &sexpRegion{r: h}, nil
}

// (box (vec3 0 0 0) (vec3 1 1 1))
func (b *builder) box(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("box requires a min and a max corner")
	}
	lo, err := toVec3(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("box: min: %w", err)
	}
	hi, err := toVec3(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("box: max: %w", err)
	}
	if hi.X <= lo.X || hi.Y <= lo.Y || hi.Z <= lo.Z {
		return zygo.SexpNull, fmt.Errorf("box: max %v must exceed min %v on every axis", hi, lo)
	}
	return &sexpRegion{r: b.kernel.Box(lo, hi)}, nil
}

// (sphere :radius 0.5 :center (vec3 0 0 0))
func (b *builder) sphere(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	center, radius, err := centerAndRadius(pa)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
	}
	return &sexpRegion{r: b.kernel.Sphere(center, radius)}, nil
}

// (cylinder :radius 0.4 :height 10 :center (vec3 0 0 0)) is z-aligned.
func (b *builder) cylinder(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	center, radius, err := centerAndRadius(pa)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
	}
	v, ok := pa.kw["height"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("cylinder: :height is required")
	}
	height, err := toFloat64(v)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
	}
	if height <= 0 {
		return zygo.SexpNull, fmt.Errorf("cylinder: height must be positive, got %g", height)
	}
	return &sexpRegion{r: b.kernel.Cylinder(center, height, radius)}, nil
}

func centerAndRadius(pa kwArgs) (v3.Vec, float64, error) {
	var center v3.Vec
	if v, ok := pa.kw["center"]; ok {
		c, err := toVec3(v)
		if err != nil {
			return center, 0, fmt.Errorf("center: %w", err)
		}
		center = c
	}
	v, ok := pa.kw["radius"]
	if !ok {
		return center, 0, fmt.Errorf(":radius is required")
	}
	r, err := toFloat64(v)
	if err != nil {
		return center, 0, fmt.Errorf("radius: %w", err)
	}
	if r <= 0 {
		return center, 0, fmt.Errorf("radius must be positive, got %g", r)
	}
	return center, r, nil
}

// (intersect r1 r2 ...)
func (b *builder) intersect(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	rs, err := toRegions(args)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("intersect: %w", err)
	}
	if len(rs) == 0 {
		return zygo.SexpNull, fmt.Errorf("intersect requires at least one region")
	}
	return &sexpRegion{r: b.kernel.Intersection(rs...)}, nil
}

// (union r1 r2 ...)
func (b *builder) union(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	rs, err := toRegions(args)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("union: %w", err)
	}
	if len(rs) == 0 {
		return zygo.SexpNull, fmt.Errorf("union requires at least one region")
	}
	return &sexpRegion{r: b.kernel.Union(rs...)}, nil
}

// (difference a b)
func (b *builder) difference(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("difference requires exactly 2 regions")
	}
	rs, err := toRegions(args)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("difference: %w", err)
	}
	return &sexpRegion{r: b.kernel.Difference(rs[0], rs[1])}, nil
}

// (complement r)
func (b *builder) complement(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("complement requires exactly 1 region")
	}
	r, err := toRegion(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("complement: %w", err)
	}
	return &sexpRegion{r: region.Not(r)}, nil
}

// (translate r (vec3 dx dy dz))
func (b *builder) translate(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	r, v, err := regionAndVec(name, args)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpRegion{r: b.kernel.Translate(r, v)}, nil
}

// (rotate r (vec3 phi theta psi)) with angles in degrees.
func (b *builder) rotate(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	r, v, err := regionAndVec(name, args)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpRegion{r: b.kernel.Rotate(r, v)}, nil
}

func regionAndVec(name string, args []zygo.Sexp) (region.Region, v3.Vec, error) {
	if len(args) != 2 {
		return nil, v3.Vec{}, fmt.Errorf("%s requires a region and a vec3", name)
	}
	r, err := toRegion(args[0])
	if err != nil {
		return nil, v3.Vec{}, fmt.Errorf("%s: %w", name, err)
	}
	v, err := toVec3(args[1])
	if err != nil {
		return nil, v3.Vec{}, fmt.Errorf("%s: %w", name, err)
	}
	return r, v, nil
}

// (cell :id 1 :name "fuel" :region r :fill f :translate v :rotate v)
func (b *builder) cell(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	id, err := pa.intKW("id")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("cell: id: %w", err)
	}
	label, err := pa.stringKW("name")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("cell: name: %w", err)
	}
	c, err := b.model.NewCell(id, label)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("cell: %w", err)
	}

	if v, ok := pa.kw["region"]; ok {
		r, err := toRegion(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cell %d: region: %w", c.ID(), err)
		}
		c.Region = r
	}
	if v, ok := pa.kw["fill"]; ok {
		f, err := toFill(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cell %d: fill: %w", c.ID(), err)
		}
		c.Fill = f
	}
	if v, ok := pa.kw["translate"]; ok {
		d, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cell %d: translate: %w", c.ID(), err)
		}
		c.SetTranslation(d)
	}
	if v, ok := pa.kw["rotate"]; ok {
		a, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cell %d: rotate: %w", c.ID(), err)
		}
		c.SetRotation(a)
	}
	return &sexpCell{c: c}, nil
}

// (universe :id 1 :name "pin" c1 c2 ...) or with :cells [c1 c2].
func (b *builder) universe(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	id, err := pa.intKW("id")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("universe: id: %w", err)
	}
	label, err := pa.stringKW("name")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("universe: name: %w", err)
	}
	u, err := b.model.NewUniverse(id, label)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("universe: %w", err)
	}

	cells := pa.positional
	if v, ok := pa.kw["cells"]; ok {
		listed, err := sexpListToSlice(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("universe %d: cells: %w", u.ID(), err)
		}
		cells = append(append([]zygo.Sexp(nil), listed...), cells...)
	}
	for i, s := range cells {
		c, err := toCell(s)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("universe %d: cell %d: %w", u.ID(), i, err)
		}
		if err := u.AddCell(c); err != nil {
			return zygo.SexpNull, fmt.Errorf("universe %d: %w", u.ID(), err)
		}
	}
	return &sexpUniverse{u: u}, nil
}

// (add-cell u c1 c2 ...)
func (b *builder) addCell(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	u, cells, err := universeAndCells("add-cell", args)
	if err != nil {
		return zygo.SexpNull, err
	}
	if err := u.AddCells(cells...); err != nil {
		return zygo.SexpNull, fmt.Errorf("add-cell: %w", err)
	}
	return args[0], nil
}

// (remove-cell u c1 ...)
func (b *builder) removeCell(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	u, cells, err := universeAndCells("remove-cell", args)
	if err != nil {
		return zygo.SexpNull, err
	}
	for _, c := range cells {
		if err := u.RemoveCell(c); err != nil {
			return zygo.SexpNull, fmt.Errorf("remove-cell: %w", err)
		}
	}
	return args[0], nil
}

func universeAndCells(name string, args []zygo.Sexp) (*geometry.Universe, []*geometry.Cell, error) {
	if len(args) < 2 {
		return nil, nil, fmt.Errorf("%s requires a universe and at least one cell", name)
	}
	u, err := toUniverse(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	cells := make([]*geometry.Cell, 0, len(args)-1)
	for _, a := range args[1:] {
		c, err := toCell(a)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", name, err)
		}
		cells = append(cells, c)
	}
	return u, cells, nil
}

// (rect-lattice :id 1 :lower-left (vec3 ...) :pitch (vec3 ...) :outer u
//
//	:universes [[u1 u2] [u3 u4]])
func (b *builder) rectLattice(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	id, err := pa.intKW("id")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("rect-lattice: id: %w", err)
	}
	label, err := pa.stringKW("name")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("rect-lattice: name: %w", err)
	}
	l, err := b.model.NewRectLattice(id, label)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("rect-lattice: %w", err)
	}

	if v, ok := pa.kw["lower-left"]; ok {
		if l.LowerLeft, err = toVec3(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("rect-lattice %d: lower-left: %w", l.ID(), err)
		}
	}
	v, ok := pa.kw["pitch"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("rect-lattice %d: :pitch is required", l.ID())
	}
	if l.Pitch, err = toVec3(v); err != nil {
		return zygo.SexpNull, fmt.Errorf("rect-lattice %d: pitch: %w", l.ID(), err)
	}
	if v, ok := pa.kw["outer"]; ok {
		u, err := toUniverseOrNil(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect-lattice %d: outer: %w", l.ID(), err)
		}
		l.SetOuter(u)
	}

	v, ok = pa.kw["universes"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("rect-lattice %d: :universes is required", l.ID())
	}
	layers, err := toUniverseGrid(v)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("rect-lattice %d: universes: %w", l.ID(), err)
	}
	if err := l.SetUniverses3D(layers); err != nil {
		return zygo.SexpNull, fmt.Errorf("rect-lattice: %w", err)
	}
	if l.Pitch.X <= 0 || l.Pitch.Y <= 0 || (l.NumDimensions() == 3 && l.Pitch.Z <= 0) {
		return zygo.SexpNull, fmt.Errorf("rect-lattice %d: pitch must be positive, got %v", l.ID(), l.Pitch)
	}
	return &sexpLattice{l: l}, nil
}

// (clone u :materials false :regions false)
//
// Materials and regions are copied unless switched off.
func (b *builder) clone(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("clone requires exactly 1 universe")
	}
	u, err := toUniverse(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("clone: %w", err)
	}
	opts := geometry.CloneOptions{CloneMaterials: true, CloneRegions: true}
	if v, ok := pa.kw["materials"]; ok {
		if opts.CloneMaterials, err = toBool(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("clone: materials: %w", err)
		}
	}
	if v, ok := pa.kw["regions"]; ok {
		if opts.CloneRegions, err = toBool(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("clone: regions: %w", err)
		}
	}
	return &sexpUniverse{u: b.model.Clone(u, opts)}, nil
}

// (root u) makes u the model's root universe.
func (b *builder) root(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("root requires exactly 1 universe")
	}
	u, err := toUniverse(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("root: %w", err)
	}
	b.model.Root = u
	return args[0], nil
}
