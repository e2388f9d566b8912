package pyeval

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	rrepr "github.com/qri-io/rrepr-go"
)

var (
	// ErrSyntax is returned when the text is not a single valid Python expression
	ErrSyntax = errors.New("syntax error")
	// ErrEvaluation is returned when a valid expression cannot be evaluated
	// with the configured names
	ErrEvaluation = errors.New("evaluation error")
)

// array implements the array constructor: array(data, dtype=None)
func (ev *evaluation) array(n *sitter.Node, pos []object, kw map[string]object) (object, error) {
	if len(pos) != 1 {
		return nil, ev.errorf(n, "array takes one positional argument, got %d", len(pos))
	}
	for k := range kw {
		if k != "dtype" {
			return nil, ev.errorf(n, "unexpected keyword argument %q", k)
		}
	}
	var dtype *rrepr.Dtype
	if d, ok := kw["dtype"]; ok {
		v, ok := d.(rrepr.Value)
		if !ok || v.Kind() != rrepr.KindString {
			return nil, ev.errorf(n, "dtype must be a string")
		}
		dt, err := rrepr.ParseDtypeName(v.Str())
		if err != nil {
			return nil, ev.errorf(n, "%s", err)
		}
		dtype = &dt
	}
	return ev.toArray(n, pos[0], dtype)
}

// toArray converts nested lists and tuples of scalars into an array. Without
// an explicit dtype one is inferred from the elements.
func (ev *evaluation) toArray(n *sitter.Node, o object, dtype *rrepr.Dtype) (*ndarray, error) {
	var (
		vals  []rrepr.Value
		shape []int
	)
	if arr, ok := o.(*ndarray); ok {
		vals, shape = arr.values, arr.shape
		if dtype == nil {
			dtype = &arr.dtype
		}
	} else {
		var err error
		if vals, shape, err = ev.flatten(n, o); err != nil {
			return nil, err
		}
	}

	dt := rrepr.InferDtype(vals)
	if dtype == nil && dt == rrepr.DtypeObject && unsignedRange(vals) {
		dtype = &rrepr.DtypeUint64
	}
	if dtype != nil {
		dt = *dtype
		var err error
		if vals, err = rrepr.Coerce("array", vals, dt); err != nil {
			return nil, ev.errorf(n, "%s", err)
		}
	} else if !dt.Accepts(kindOf(vals)) {
		return nil, ev.errorf(n, "array elements of mixed kinds")
	}
	return &ndarray{dtype: dt, shape: shape, values: vals}, nil
}

// unsignedRange reports whether vals mix non-negative integers with integers
// beyond the int64 range, which NumPy stores as uint64
func unsignedRange(vals []rrepr.Value) bool {
	var big bool
	for _, v := range vals {
		switch {
		case v.Kind() == rrepr.KindUint:
			big = true
		case v.Kind() == rrepr.KindInt && v.Int() >= 0:
		default:
			return false
		}
	}
	return big
}

func kindOf(vals []rrepr.Value) rrepr.Kind {
	for _, v := range vals {
		if v.Kind() != rrepr.KindNone {
			return v.Kind()
		}
	}
	if len(vals) == 0 {
		return rrepr.KindFloat
	}
	return rrepr.KindNone
}

func (ev *evaluation) flatten(n *sitter.Node, o object) ([]rrepr.Value, []int, error) {
	var items []object
	switch o := o.(type) {
	case rrepr.Value:
		return []rrepr.Value{o}, []int{}, nil
	case listObj:
		items = o
	case tupleObj:
		items = o
	default:
		return nil, nil, ev.errorf(n, "cannot build an array from %s", describe(o))
	}

	var (
		vals  []rrepr.Value
		inner []int
	)
	for i, it := range items {
		cv, cs, err := ev.flatten(n, it)
		if err != nil {
			return nil, nil, err
		}
		if i == 0 {
			inner = cs
		} else if !sameShape(inner, cs) {
			return nil, nil, ev.errorf(n, "inhomogeneous nested sequence")
		}
		vals = append(vals, cv...)
	}
	return vals, append([]int{len(items)}, inner...), nil
}

func sameShape(a, b []int) bool {
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

// reshape implements arr.reshape(shape) and arr.reshape(*shape)
func (ev *evaluation) reshape(n *sitter.Node, arr *ndarray, pos []object) (object, error) {
	if len(pos) == 1 {
		if t, ok := pos[0].(tupleObj); ok {
			pos = t
		}
	}
	shape := make([]int, len(pos))
	size := 1
	for i, p := range pos {
		v, ok := p.(rrepr.Value)
		if !ok || v.Kind() != rrepr.KindInt || v.Int() < 0 {
			return nil, ev.errorf(n, "reshape dimensions must be non-negative integers")
		}
		shape[i] = int(v.Int())
		size *= shape[i]
	}
	if size != len(arr.values) {
		return nil, ev.errorf(n, "cannot reshape array of size %d into shape %v", len(arr.values), shape)
	}
	return &ndarray{dtype: arr.dtype, shape: shape, values: arr.values}, nil
}

// variable reads a (dims, data) tuple, or bare data for a coordinate named
// after its own dimension
func (ev *evaluation) variable(n *sitter.Node, name string, o object, coord bool) (*rrepr.Variable, error) {
	var (
		dims []string
		data object
	)
	switch t := o.(type) {
	case tupleObj:
		if len(t) < 2 || len(t) > 3 {
			return nil, ev.errorf(n, "variable %q: expected (dims, data) tuple", name)
		}
		var err error
		if dims, err = ev.dimNames(n, t[0]); err != nil {
			return nil, err
		}
		data = t[1]
	default:
		if !coord {
			return nil, ev.errorf(n, "variable %q: expected (dims, data) tuple, got %s", name, describe(o))
		}
		dims, data = []string{name}, o
	}

	arr, err := ev.toArray(n, data, nil)
	if err != nil {
		return nil, err
	}
	if len(arr.shape) != len(dims) {
		return nil, ev.errorf(n, "variable %q: %d dimensions for a %d-dimensional array", name, len(dims), len(arr.shape))
	}
	return rrepr.NewVariable(dims, arr.shape, arr.dtype, arr.values), nil
}

func (ev *evaluation) dimNames(n *sitter.Node, o object) ([]string, error) {
	var items []object
	switch o := o.(type) {
	case rrepr.Value:
		items = []object{o}
	case tupleObj:
		items = o
	case listObj:
		items = o
	default:
		return nil, ev.errorf(n, "dimension names must be a tuple of strings")
	}
	dims := make([]string, len(items))
	for i, it := range items {
		v, ok := it.(rrepr.Value)
		if !ok || v.Kind() != rrepr.KindString {
			return nil, ev.errorf(n, "dimension names must be strings")
		}
		dims[i] = v.Str()
	}
	return dims, nil
}

func (ev *evaluation) coords(n *sitter.Node, c *rrepr.Container, o object) error {
	if o == nil {
		return nil
	}
	d, ok := o.(dictObj)
	if !ok {
		return ev.errorf(n, "coords must be a dict")
	}
	for _, e := range d {
		v, err := ev.variable(n, e.key, e.value, true)
		if err != nil {
			return err
		}
		c.SetCoord(e.key, v)
	}
	return nil
}

// dataset implements Dataset(data_vars=None, coords=None, attrs=None)
func (ev *evaluation) dataset(n *sitter.Node, pos []object, kw map[string]object) (object, error) {
	if len(pos) > 2 {
		return nil, ev.errorf(n, "too many positional arguments")
	}
	args, err := ev.bind(n, pos, kw, "data_vars", "coords", "attrs")
	if err != nil {
		return nil, err
	}

	c := rrepr.NewDataset()
	if o := args["data_vars"]; o != nil {
		d, ok := o.(dictObj)
		if !ok {
			return nil, ev.errorf(n, "data_vars must be a dict")
		}
		for _, e := range d {
			v, err := ev.variable(n, e.key, e.value, false)
			if err != nil {
				return nil, err
			}
			c.SetDataVar(e.key, v)
		}
	}
	if err := ev.coords(n, c, args["coords"]); err != nil {
		return nil, err
	}
	return c, nil
}

// dataArray implements DataArray(data, coords=None, dims=None, name=None)
func (ev *evaluation) dataArray(n *sitter.Node, pos []object, kw map[string]object) (object, error) {
	args, err := ev.bind(n, pos, kw, "data", "coords", "dims", "name", "attrs")
	if err != nil {
		return nil, err
	}
	if args["data"] == nil {
		return nil, ev.errorf(n, "data array requires data")
	}
	arr, err := ev.toArray(n, args["data"], nil)
	if err != nil {
		return nil, err
	}

	var dims []string
	if o := args["dims"]; o != nil {
		if dims, err = ev.dimNames(n, o); err != nil {
			return nil, err
		}
	} else {
		for i := range arr.shape {
			dims = append(dims, fmt.Sprintf("dim_%d", i))
		}
	}
	if len(dims) != len(arr.shape) {
		return nil, ev.errorf(n, "%d dimensions for a %d-dimensional array", len(dims), len(arr.shape))
	}

	var name string
	if o := args["name"]; o != nil {
		v, ok := o.(rrepr.Value)
		switch {
		case ok && v.Kind() == rrepr.KindString:
			name = v.Str()
		case ok && v.Kind() == rrepr.KindNone:
		default:
			return nil, ev.errorf(n, "name must be a string")
		}
	}

	c := rrepr.NewDataArray(name, rrepr.NewVariable(dims, arr.shape, arr.dtype, arr.values))
	if err := ev.coords(n, c, args["coords"]); err != nil {
		return nil, err
	}
	return c, nil
}

// bind maps positional and keyword arguments onto parameter names
func (ev *evaluation) bind(n *sitter.Node, pos []object, kw map[string]object, params ...string) (map[string]object, error) {
	if len(pos) > len(params) {
		return nil, ev.errorf(n, "too many positional arguments")
	}
	out := make(map[string]object, len(params))
	for i, p := range pos {
		out[params[i]] = p
	}
	known := map[string]bool{}
	for _, p := range params {
		known[p] = true
	}
	for k, v := range kw {
		if !known[k] {
			return nil, ev.errorf(n, "unexpected keyword argument %q", k)
		}
		if _, dup := out[k]; dup {
			return nil, ev.errorf(n, "multiple values for argument %q", k)
		}
		out[k] = v
	}
	return out, nil
}
