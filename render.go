package rrepr

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultLineWidth matches the default of the ruff and black formatters
	DefaultLineWidth = 88
	DefaultIndent    = 4
	// NoRounding keeps floats at full precision
	NoRounding = -1
)

type options struct {
	size      int
	rng       RandomSource
	seed      *uint64
	precision int
	lineWidth int
	indent    int
	names     Names
	logger    *log.Logger
}

// Option configures Repr and Render
type Option func(*options)

func defaultOptions() *options {
	return &options{
		size:      DefaultSize,
		precision: NoRounding,
		lineWidth: DefaultLineWidth,
		indent:    DefaultIndent,
		names:     DefaultNames(),
		logger:    log.New(io.Discard),
	}
}

func newOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	o.names = o.names.WithDefaults()
	return o
}

// WithSize sets the maximum number of positions kept per dimension
func WithSize(n int) Option {
	return func(o *options) { o.size = n }
}

// WithSeed makes sampling reproducible. It is ignored when WithRand is given.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = &seed }
}

// WithRand draws sample positions from r
func WithRand(r RandomSource) Option {
	return func(o *options) { o.rng = r }
}

// WithPrecision rounds floats to digits decimal places before rendering.
// The reduced container carries the rounded values. Negative disables rounding.
func WithPrecision(digits int) Option {
	return func(o *options) { o.precision = digits }
}

// WithLineWidth sets the column limit the layout tries to respect
func WithLineWidth(n int) Option {
	return func(o *options) { o.lineWidth = n }
}

// WithIndent sets the number of spaces per nesting level
func WithIndent(n int) Option {
	return func(o *options) { o.indent = n }
}

// WithNames overrides the constructor identifiers; empty fields keep defaults
func WithNames(n Names) Option {
	return func(o *options) { o.names = n }
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func (o *options) check() error {
	if o.size <= 0 {
		return fmt.Errorf("%w: sample size must be positive, got %d", ErrConfiguration, o.size)
	}
	if o.lineWidth <= 0 {
		return fmt.Errorf("%w: line width must be positive, got %d", ErrConfiguration, o.lineWidth)
	}
	if o.indent <= 0 {
		return fmt.Errorf("%w: indent must be positive, got %d", ErrConfiguration, o.indent)
	}
	return nil
}

// Repr returns a minimised, randomly sampled literal of ds: every dimension is
// cut down to at most the configured size, and the result is rendered as
// constructor code.
func Repr(ds Dataset, opts ...Option) (string, error) {
	o := newOptions(opts)
	if err := o.check(); err != nil {
		return "", err
	}
	rng := o.rng
	if rng == nil {
		rng = NewRand(o.seed)
	}
	sel, err := Select(ds.Dims(), o.size, rng)
	if err != nil {
		return "", err
	}
	_, s, err := render(ds, sel, o)
	return s, err
}

// Render slices ds down to sel and renders the result. It returns the reduced
// container alongside the literal that reconstructs it. Nothing is rendered
// unless ds is consistent.
func Render(ds Dataset, sel IndexSelection, opts ...Option) (*Container, string, error) {
	o := newOptions(opts)
	if err := o.check(); err != nil {
		return nil, "", err
	}
	return render(ds, sel, o)
}

func render(ds Dataset, sel IndexSelection, o *options) (*Container, string, error) {
	if err := Validate(ds); err != nil {
		return nil, "", err
	}
	if err := sel.Check(ds.Dims()); err != nil {
		return nil, "", err
	}
	for _, d := range ds.Dims() {
		o.logger.Debug("selected", "dim", d.Name, "size", d.Size, "positions", sel[d.Name])
	}

	reduced, err := takeContainer(ds, sel)
	if err != nil {
		return nil, "", err
	}
	if o.precision >= 0 {
		reduced = roundContainer(reduced, o.precision)
	}

	d, err := containerDoc(reduced, o.names)
	if err != nil {
		return nil, "", err
	}
	return reduced, layout(d, o.lineWidth, o.indent), nil
}

// Take gathers every coordinate and data variable of ds at the positions sel
// holds for each of its dimensions. Dimensions missing from sel are kept whole.
func Take(ds Dataset, sel IndexSelection) (*Container, error) {
	if err := Validate(ds); err != nil {
		return nil, err
	}
	if err := sel.Check(ds.Dims()); err != nil {
		return nil, err
	}
	return takeContainer(ds, sel)
}

func takeContainer(ds Dataset, sel IndexSelection) (*Container, error) {
	gather := func(name string, arr Array) (Array, error) {
		var err error
		for axis, d := range arr.Dims() {
			idx, ok := sel[d]
			if !ok {
				continue
			}
			if arr, err = arr.Take(axis, idx); err != nil {
				return nil, &VariableError{Name: name, Detail: err.Error(), Err: ErrStructuralInconsistency}
			}
		}
		return arr, nil
	}

	out := &Container{typ: ds.Type(), name: ds.Name(), attrs: ds.Attrs().clone()}
	for _, name := range ds.DataVarNames() {
		arr, _ := ds.DataVar(name)
		g, err := gather(name, arr)
		if err != nil {
			return nil, err
		}
		out.dataVars = append(out.dataVars, namedArray{name: name, arr: g})
	}
	for _, name := range ds.CoordNames() {
		arr, _ := ds.Coord(name)
		g, err := gather(name, arr)
		if err != nil {
			return nil, err
		}
		out.coords = append(out.coords, namedArray{name: name, arr: g})
	}
	return out, nil
}

func roundContainer(c *Container, digits int) *Container {
	round := func(arrs []namedArray) {
		for i, a := range arrs {
			dt := a.arr.Dtype()
			if dt.Kind() != KindFloat {
				continue
			}
			src := a.arr.Values()
			vals := make([]Value, len(src))
			for j, v := range src {
				f := roundFloat(v.Float(), digits)
				if floatBits(dt) == 32 {
					f = float64(float32(f))
				}
				vals[j] = Float(f)
			}
			arrs[i].arr = &Variable{dims: a.arr.Dims(), shape: a.arr.Shape(), dtype: dt, values: vals}
		}
	}
	round(c.dataVars)
	round(c.coords)
	return c
}

func containerDoc(c *Container, names Names) (doc, error) {
	coords := dict()
	for _, a := range c.coords {
		e, err := entryDoc(a, names)
		if err != nil {
			return nil, err
		}
		coords.items = append(coords.items, e)
	}

	if c.typ == TypeDataArray {
		a := c.dataVars[0]
		arr, err := arrayDoc(a.name, a.arr, names)
		if err != nil {
			return nil, err
		}
		dims, err := dimsDoc(a.name, a.arr.Dims())
		if err != nil {
			return nil, err
		}
		args := []doc{arr, kwarg("coords", coords), kwarg("dims", dims)}
		if c.name != "" {
			name, ok := formatString(c.name)
			if !ok {
				return nil, unsupported(c.name, "name is not valid UTF-8")
			}
			args = append(args, kwarg("name", text(name)))
		}
		return call(names.DataArray, args...), nil
	}

	vars := dict()
	for _, a := range c.dataVars {
		e, err := entryDoc(a, names)
		if err != nil {
			return nil, err
		}
		vars.items = append(vars.items, e)
	}
	return call(names.Dataset, vars, kwarg("coords", coords)), nil
}

// entryDoc renders `"name": (("dim", ...), array)`
func entryDoc(a namedArray, names Names) (doc, error) {
	key, ok := formatString(a.name)
	if !ok {
		return nil, unsupported(a.name, "name is not valid UTF-8")
	}
	arr, err := arrayDoc(a.name, a.arr, names)
	if err != nil {
		return nil, err
	}
	dims, err := dimsDoc(a.name, a.arr.Dims())
	if err != nil {
		return nil, err
	}
	return seq{text(key + ": "), tuple(dims, arr)}, nil
}

func dimsDoc(name string, dims []string) (doc, error) {
	items := make([]doc, len(dims))
	for i, d := range dims {
		s, ok := formatString(d)
		if !ok {
			return nil, unsupported(name, "dimension name %q is not valid UTF-8", d)
		}
		items[i] = text(s)
	}
	return tuple(items...), nil
}

// arrayDoc renders an array constructor call. The dtype is spelled out
// whenever it differs from what the literal's elements would infer, and a
// reshape is appended when a zero-length axis hides the shape of the axes
// after it.
func arrayDoc(name string, arr Array, names Names) (doc, error) {
	var (
		dt    = arr.Dtype()
		bits  = floatBits(dt)
		vals  = arr.Values()
		shape = arr.Shape()
		bad   error
	)
	leaf := func(v Value) doc {
		s, ok := formatValue(v, bits, names)
		if !ok && bad == nil {
			switch v.Kind() {
			case KindDatetime:
				if y := v.Time().UTC().Year(); y < MinYear || y > MaxYear {
					bad = unsupported(name, "timestamp %s is outside years %d to %d", v, MinYear, MaxYear)
				} else {
					bad = unsupported(name, "timestamp %s is finer than a microsecond", v.Time().Format(time.RFC3339Nano))
				}
			case KindString:
				bad = unsupported(name, "text %q is not valid UTF-8", v.Str())
			default:
				bad = unsupported(name, "no literal form for %s values", v.Kind())
			}
		}
		return text(s)
	}
	data := nest(vals, shape, leaf, func(items []doc) doc { return list(items...) })
	if bad != nil {
		return nil, bad
	}

	args := []doc{data}
	if dt != literalDtype(vals) {
		args = append(args, kwarg("dtype", text(strconv.Quote(dt.Name()))))
	}
	c := call(names.Array, args...)

	if hidesShape(shape) {
		dims := make([]doc, len(shape))
		for i, n := range shape {
			dims[i] = text(strconv.Itoa(n))
		}
		return seq{c, call(".reshape", tuple(dims...))}, nil
	}
	return c, nil
}

// literalDtype is the dtype NumPy gives a literal of vals. Integer literals
// carry no sign, so unsigned elements read back as int64 unless one of them
// is beyond its range.
func literalDtype(vals []Value) Dtype {
	dt := InferDtype(vals)
	if dt != DtypeUint64 {
		return dt
	}
	for _, v := range vals {
		if v.Uint() > math.MaxInt64 {
			return dt
		}
	}
	return DtypeInt64
}

// hidesShape reports whether a nested literal of shape loses axes: nesting
// stops at the first zero-length axis
func hidesShape(shape []int) bool {
	for i, n := range shape {
		if n == 0 {
			return i < len(shape)-1
		}
	}
	return false
}
