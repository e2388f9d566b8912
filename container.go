package rrepr

import "fmt"

// ContainerType distinguishes the two labeled-array constructors a literal
// can be rendered as
type ContainerType string

const (
	TypeDataset   ContainerType = "Dataset"
	TypeDataArray ContainerType = "DataArray"
)

// Dim is a named axis shared by the arrays of a container
type Dim struct {
	Name string
	Size int
}

// Array is the capability the sampler and renderer need from an n-dimensional
// labeled array. Values are laid out in row-major ("C") order.
type Array interface {
	Dims() []string
	Shape() []int
	Dtype() Dtype
	Values() []Value
	// Take gathers the elements at idx positions along axis
	Take(axis int, idx []int) (Array, error)
}

// Dataset is the capability the sampler and renderer need from a labeled
// multi-dimensional container
type Dataset interface {
	Type() ContainerType
	// Name is the data array's name, empty for datasets
	Name() string
	// Dims lists dimensions in order of first appearance
	Dims() []Dim
	CoordNames() []string
	DataVarNames() []string
	Coord(name string) (Array, bool)
	DataVar(name string) (Array, bool)
	Attrs() Attributes
}

// Attributes holds free-form container or variable metadata
type Attributes map[string]interface{}

func (a Attributes) clone() Attributes {
	if a == nil {
		return nil
	}
	c := make(Attributes, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// Variable is the in-memory Array implementation
type Variable struct {
	dims   []string
	shape  []int
	dtype  Dtype
	values []Value
	attrs  Attributes
}

var _ Array = (*Variable)(nil)

// NewVariable creates a variable. Consistency between dims, shape, dtype and
// values is checked by Validate, not here.
func NewVariable(dims []string, shape []int, dtype Dtype, values []Value) *Variable {
	return &Variable{
		dims:   append([]string(nil), dims...),
		shape:  append([]int(nil), shape...),
		dtype:  dtype,
		values: values,
	}
}

// NewVariable1D creates a one-dimensional variable with an inferred dtype
func NewVariable1D(dim string, values []Value) *Variable {
	return NewVariable([]string{dim}, []int{len(values)}, InferDtype(values), values)
}

func (v *Variable) Dims() []string { return v.dims }
func (v *Variable) Shape() []int { return v.shape }
func (v *Variable) Dtype() Dtype { return v.dtype }
func (v *Variable) Values() []Value { return v.values }
func (v *Variable) Attrs() Attributes { return v.attrs }
func (v *Variable) WithAttrs(a Attributes) *Variable {
	v.attrs = a
	return v
}

func (v *Variable) Take(axis int, idx []int) (Array, error) {
	if axis < 0 || axis >= len(v.shape) {
		return nil, fmt.Errorf("%w: axis %d out of range for %d-dimensional array", ErrConfiguration, axis, len(v.shape))
	}
	for _, i := range idx {
		if i < 0 || i >= v.shape[axis] {
			return nil, fmt.Errorf("%w: index %d out of range for axis %d of size %d", ErrConfiguration, i, axis, v.shape[axis])
		}
	}
	values, shape := take(v.values, v.shape, axis, idx)
	return &Variable{
		dims:   v.dims,
		shape:  shape,
		dtype:  v.dtype,
		values: values,
		attrs:  v.attrs.clone(),
	}, nil
}

type namedArray struct {
	name string
	arr  Array
}

// Container is the in-memory Dataset implementation. Coordinates and data
// variables keep insertion order.
type Container struct {
	typ      ContainerType
	name     string
	coords   []namedArray
	dataVars []namedArray
	attrs    Attributes
}

var _ Dataset = (*Container)(nil)

func NewDataset() *Container {
	return &Container{typ: TypeDataset}
}

// NewDataArray creates a container holding the single array arr. An empty
// name is allowed.
func NewDataArray(name string, arr Array) *Container {
	return &Container{
		typ:      TypeDataArray,
		name:     name,
		dataVars: []namedArray{{name: name, arr: arr}},
	}
}

// SetCoord adds or replaces a coordinate
func (c *Container) SetCoord(name string, arr Array) *Container {
	c.coords = set(c.coords, name, arr)
	return c
}

// SetDataVar adds or replaces a data variable. Data arrays hold exactly one
// variable, which is replaced.
func (c *Container) SetDataVar(name string, arr Array) *Container {
	if c.typ == TypeDataArray {
		c.name = name
		c.dataVars = []namedArray{{name: name, arr: arr}}
		return c
	}
	c.dataVars = set(c.dataVars, name, arr)
	return c
}

func (c *Container) SetAttrs(a Attributes) *Container {
	c.attrs = a
	return c
}

func set(arrs []namedArray, name string, arr Array) []namedArray {
	for i := range arrs {
		if arrs[i].name == name {
			arrs[i].arr = arr
			return arrs
		}
	}
	return append(arrs, namedArray{name: name, arr: arr})
}

func (c *Container) Type() ContainerType { return c.typ }
func (c *Container) Name() string { return c.name }
func (c *Container) Attrs() Attributes { return c.attrs }

func (c *Container) CoordNames() []string { return names(c.coords) }
func (c *Container) DataVarNames() []string { return names(c.dataVars) }

func names(arrs []namedArray) []string {
	out := make([]string, len(arrs))
	for i, a := range arrs {
		out[i] = a.name
	}
	return out
}

func (c *Container) Coord(name string) (Array, bool) { return lookup(c.coords, name) }
func (c *Container) DataVar(name string) (Array, bool) { return lookup(c.dataVars, name) }

func lookup(arrs []namedArray, name string) (Array, bool) {
	for _, a := range arrs {
		if a.name == name {
			return a.arr, true
		}
	}
	return nil, false
}

// Dims lists dimensions in order of first appearance, data variables before
// coordinates. When arrays disagree on a size the first one wins; Validate
// reports the conflict.
func (c *Container) Dims() []Dim {
	var (
		dims []Dim
		seen = map[string]bool{}
	)
	for _, group := range [][]namedArray{c.dataVars, c.coords} {
		for _, a := range group {
			shape := a.arr.Shape()
			for i, d := range a.arr.Dims() {
				if seen[d] || i >= len(shape) {
					continue
				}
				seen[d] = true
				dims = append(dims, Dim{Name: d, Size: shape[i]})
			}
		}
	}
	return dims
}

// Sizes maps each dimension name to its size
func Sizes(ds Dataset) map[string]int {
	sizes := map[string]int{}
	for _, d := range ds.Dims() {
		sizes[d.Name] = d.Size
	}
	return sizes
}

// Validate checks that every array of ds agrees with its declared dimensions,
// that dimension sizes agree across arrays, and that every element can be
// stored under its array's dtype
func Validate(ds Dataset) error {
	sizes := Sizes(ds)
	check := func(name string, get func(string) (Array, bool)) error {
		arr, ok := get(name)
		if !ok || arr == nil {
			return inconsistent(name, "listed but not present")
		}
		dims, shape := arr.Dims(), arr.Shape()
		if len(dims) != len(shape) {
			return inconsistent(name, "%d dimensions declared for a %d-dimensional array", len(dims), len(shape))
		}
		seen := map[string]bool{}
		n := 1
		for i, d := range dims {
			if seen[d] {
				return inconsistent(name, "dimension %q repeated", d)
			}
			seen[d] = true
			if shape[i] < 0 {
				return inconsistent(name, "negative length %d along %q", shape[i], d)
			}
			if shape[i] != sizes[d] {
				return inconsistent(name, "length %d along %q, dimension has size %d", shape[i], d, sizes[d])
			}
			n *= shape[i]
		}
		vals := arr.Values()
		if len(vals) != n {
			return inconsistent(name, "%d values for shape %v", len(vals), shape)
		}
		dt := arr.Dtype()
		if dt.Kind() == KindInvalid {
			return unsupported(name, "no literal form for dtype %s (%s)", dt, dt.BasicType.Human())
		}
		for i, v := range vals {
			if !dt.Accepts(v.Kind()) {
				return unsupported(name, "element %d is a %s value in a %s array", i, v.Kind(), dt)
			}
			if !dt.Holds(v) {
				return unsupported(name, "element %d (%s) does not fit a %s array", i, v, dt)
			}
		}
		return nil
	}

	if ds.Type() == TypeDataArray && len(ds.DataVarNames()) != 1 {
		return fmt.Errorf("%w: data array holds %d arrays", ErrStructuralInconsistency, len(ds.DataVarNames()))
	}
	for _, name := range ds.DataVarNames() {
		if err := check(name, ds.DataVar); err != nil {
			return err
		}
	}
	var arrayDims map[string]bool
	if ds.Type() == TypeDataArray {
		arr, _ := ds.DataVar(ds.DataVarNames()[0])
		arrayDims = map[string]bool{}
		for _, d := range arr.Dims() {
			arrayDims[d] = true
		}
	}
	for _, name := range ds.CoordNames() {
		if _, clash := ds.DataVar(name); clash && ds.Type() == TypeDataset {
			return inconsistent(name, "name used by both a coordinate and a data variable")
		}
		if err := check(name, ds.Coord); err != nil {
			return err
		}
		if arrayDims == nil {
			continue
		}
		arr, _ := ds.Coord(name)
		for _, d := range arr.Dims() {
			if !arrayDims[d] {
				return inconsistent(name, "coordinate dimension %q is not a dimension of the data array", d)
			}
		}
	}
	return nil
}

// Equal reports whether a and b hold the same arrays: same type and name,
// same coordinate and data variable names in the same order, and arrays that
// agree on dims, shape, dtype and every element. Attributes are not compared.
func Equal(a, b Dataset) bool {
	if a.Type() != b.Type() || a.Name() != b.Name() {
		return false
	}
	same := func(an, bn []string, aget, bget func(string) (Array, bool)) bool {
		if !equalStrings(an, bn) {
			return false
		}
		for _, name := range an {
			x, _ := aget(name)
			y, _ := bget(name)
			if !equalArrays(x, y) {
				return false
			}
		}
		return true
	}
	return same(a.DataVarNames(), b.DataVarNames(), a.DataVar, b.DataVar) &&
		same(a.CoordNames(), b.CoordNames(), a.Coord, b.Coord)
}

func equalArrays(x, y Array) bool {
	if x == nil || y == nil {
		return x == y
	}
	if x.Dtype() != y.Dtype() || !equalStrings(x.Dims(), y.Dims()) || !equalShape(x.Shape(), y.Shape()) {
		return false
	}
	xv, yv := x.Values(), y.Values()
	if len(xv) != len(yv) {
		return false
	}
	for i := range xv {
		if !xv[i].Equal(yv[i]) {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
