package rrepr

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Container documents follow the layout of xarray's Dataset.to_dict():
//
//	{
//	  "attrs": {...},
//	  "dims": {"time": 5, "x": 3},
//	  "coords": {"time": {"dims": ["time"], "data": [...], "dtype": "<M8[ns]"}},
//	  "data_vars": {"air": {"dims": ["time", "x"], "data": [[...], ...]}}
//	}
//
// A data array document has top-level "dims", "data", "name" and "coords"
// instead of "data_vars". JSON is decoded as YAML, which keeps mapping keys
// in document order.

const (
	// Not a Number
	FillValueNaN = "NaN"
	// Infinity
	FillValueInfinity = "Infinity"
	// -Infinity
	FillValueNegativeInfinity = "-Infinity"
)

// timeLayouts are tried in order when a datetime element is a string
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// DecodeDocument reads a container document
func DecodeDocument(data []byte) (*Container, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("reading container document: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("reading container document: empty document")
	}
	top, err := mapping(root.Content[0], "document")
	if err != nil {
		return nil, err
	}

	var c *Container
	if n, ok := top.get("data_vars"); ok {
		c = NewDataset()
		vars, err := mapping(n, "data_vars")
		if err != nil {
			return nil, err
		}
		for _, kv := range vars {
			v, err := decodeVariable(kv.key, kv.value)
			if err != nil {
				return nil, err
			}
			c.SetDataVar(kv.key, v)
		}
	} else if _, ok := top.get("data"); ok {
		var name string
		if n, ok := top.get("name"); ok && n.ShortTag() != "!!null" {
			name = n.Value
		}
		v, err := decodeVariable(name, root.Content[0])
		if err != nil {
			return nil, err
		}
		c = NewDataArray(name, v)
	} else {
		return nil, fmt.Errorf("reading container document: neither %q nor %q present", "data_vars", "data")
	}

	if n, ok := top.get("coords"); ok {
		coords, err := mapping(n, "coords")
		if err != nil {
			return nil, err
		}
		for _, kv := range coords {
			v, err := decodeVariable(kv.key, kv.value)
			if err != nil {
				return nil, err
			}
			c.SetCoord(kv.key, v)
		}
	}

	if n, ok := top.get("attrs"); ok {
		attrs := Attributes{}
		if err := n.Decode(&attrs); err != nil {
			return nil, fmt.Errorf("reading attrs: %w", err)
		}
		c.SetAttrs(attrs)
	}

	// a dataset's "dims" maps names to sizes; a data array's lists its dims
	if n, ok := top.get("dims"); ok && n.Kind == yaml.MappingNode {
		sizes := map[string]int{}
		if err := n.Decode(&sizes); err != nil {
			return nil, fmt.Errorf("reading dims: %w", err)
		}
		for _, d := range c.Dims() {
			if want, ok := sizes[d.Name]; ok && want != d.Size {
				return nil, fmt.Errorf("%w: dimension %q has size %d, document declares %d", ErrStructuralInconsistency, d.Name, d.Size, want)
			}
		}
	}

	return c, nil
}

type keyValue struct {
	key   string
	value *yaml.Node
}

type orderedMap []keyValue

func (m orderedMap) get(key string) (*yaml.Node, bool) {
	for _, kv := range m {
		if kv.key == key {
			return kv.value, true
		}
	}
	return nil, false
}

func mapping(n *yaml.Node, what string) (orderedMap, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("reading %s: expected a mapping, line %d", what, n.Line)
	}
	m := make(orderedMap, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		m = append(m, keyValue{key: n.Content[i].Value, value: n.Content[i+1]})
	}
	return m, nil
}

// decodeVariable reads {"dims": [...], "data": ..., "dtype": ..., "shape": ..., "attrs": ...}
func decodeVariable(name string, n *yaml.Node) (*Variable, error) {
	fields, err := mapping(n, fmt.Sprintf("variable %q", name))
	if err != nil {
		return nil, err
	}

	var dims []string
	if dn, ok := fields.get("dims"); ok {
		switch dn.Kind {
		case yaml.ScalarNode:
			dims = []string{dn.Value}
		default:
			if err := dn.Decode(&dims); err != nil {
				return nil, fmt.Errorf("reading dims of %q: %w", name, err)
			}
		}
	}

	dn, ok := fields.get("data")
	if !ok {
		return nil, inconsistent(name, "no data")
	}
	vals, shape, err := flatten(name, dn)
	if err != nil {
		return nil, err
	}

	if sn, ok := fields.get("shape"); ok {
		var declared []int
		if err := sn.Decode(&declared); err != nil {
			return nil, fmt.Errorf("reading shape of %q: %w", name, err)
		}
		n := 1
		for _, s := range declared {
			n *= s
		}
		if n != len(vals) {
			return nil, inconsistent(name, "shape %v does not hold %d values", declared, len(vals))
		}
		shape = declared
	}

	dtype := InferDtype(vals)
	if tn, ok := fields.get("dtype"); ok && tn.Value != "" && tn.Value != "object" {
		if dtype, err = ParseDtypeName(tn.Value); err != nil {
			return nil, fmt.Errorf("reading dtype of %q: %w", name, err)
		}
		if vals, err = Coerce(name, vals, dtype); err != nil {
			return nil, err
		}
	} else if dtype == DtypeObject && len(vals) > 0 {
		if !DtypeObject.acceptsAll(vals) {
			return nil, unsupported(name, "elements of mixed kinds")
		}
	}

	v := NewVariable(dims, shape, dtype, vals)
	if an, ok := fields.get("attrs"); ok {
		attrs := Attributes{}
		if err := an.Decode(&attrs); err != nil {
			return nil, fmt.Errorf("reading attrs of %q: %w", name, err)
		}
		v.WithAttrs(attrs)
	}
	return v, nil
}

func (dt Dtype) acceptsAll(vals []Value) bool {
	for _, v := range vals {
		if !dt.Accepts(v.Kind()) {
			return false
		}
	}
	return true
}

// flatten reads nested sequences into row-major values and their shape.
// Sequences at the same depth must have equal lengths.
func flatten(name string, n *yaml.Node) ([]Value, []int, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if n.Kind != yaml.SequenceNode {
		v, err := scalar(name, n)
		if err != nil {
			return nil, nil, err
		}
		return []Value{v}, []int{}, nil
	}

	var (
		vals  []Value
		inner []int
	)
	for i, child := range n.Content {
		cv, cs, err := flatten(name, child)
		if err != nil {
			return nil, nil, err
		}
		if i == 0 {
			inner = cs
		} else if !equalShape(inner, cs) {
			return nil, nil, inconsistent(name, "ragged nested data at line %d", child.Line)
		}
		vals = append(vals, cv...)
	}
	return vals, append([]int{len(n.Content)}, inner...), nil
}

func equalShape(a, b []int) bool {
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

func scalar(name string, n *yaml.Node) (Value, error) {
	if n.Kind != yaml.ScalarNode {
		return Value{}, unsupported(name, "element at line %d is not a scalar", n.Line)
	}
	switch n.ShortTag() {
	case "!!null":
		return None(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return Int(i), nil
		}
		if u, err := strconv.ParseUint(n.Value, 0, 64); err == nil {
			return Uint(u), nil
		}
		var i int64
		if err := n.Decode(&i); err != nil {
			return Value{}, fmt.Errorf("reading %q: %w", name, err)
		}
		return Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, fmt.Errorf("reading %q: %w", name, err)
		}
		return Float(f), nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return Value{}, fmt.Errorf("reading %q: %w", name, err)
		}
		return Time(t), nil
	default:
		return String(n.Value), nil
	}
}

// Coerce converts elements to the kind dt stores, as NumPy does when a literal
// is given an explicit dtype: integers widen to floats, strings parse as
// timestamps or as the NaN and infinity fill values, float32 arrays round to
// single precision and timestamps are floored to the datetime unit. Integers
// outside the element width fail. name labels errors.
func Coerce(name string, vals []Value, dt Dtype) ([]Value, error) {
	out := make([]Value, len(vals))
	for i, v := range vals {
		c, ok := coerceValue(v, dt)
		if !ok {
			if dt.Kind() == KindInvalid {
				return nil, unsupported(name, "no literal form for dtype %s (%s)", dt, dt.BasicType.Human())
			}
			return nil, unsupported(name, "element %d: %s value in a %s array", i, v.Kind(), dt)
		}
		if c.Kind() == KindDatetime {
			c = Time(dt.TruncateTime(c.Time()))
		}
		if !dt.Holds(c) {
			return nil, unsupported(name, "element %d (%s) does not fit a %s array", i, v, dt)
		}
		out[i] = c
	}
	return out, nil
}

func coerceValue(v Value, dt Dtype) (Value, bool) {
	if dt.Accepts(v.Kind()) {
		if dt.Kind() == KindFloat && floatBits(dt) == 32 {
			return Float(float64(float32(v.Float()))), true
		}
		return v, true
	}
	switch dt.Kind() {
	case KindFloat:
		var f float64
		switch v.Kind() {
		case KindInt:
			f = float64(v.Int())
		case KindUint:
			f = float64(v.Uint())
		case KindNone:
			f = math.NaN()
		case KindString:
			switch v.Str() {
			case FillValueNaN:
				f = math.NaN()
			case FillValueInfinity:
				f = math.Inf(1)
			case FillValueNegativeInfinity:
				f = math.Inf(-1)
			default:
				return v, false
			}
		default:
			return v, false
		}
		if floatBits(dt) == 32 {
			f = float64(float32(f))
		}
		return Float(f), true
	case KindUint:
		if v.Kind() == KindInt && v.Int() >= 0 {
			return Uint(uint64(v.Int())), true
		}
	case KindInt:
		if v.Kind() == KindUint && v.Uint() <= math.MaxInt64 {
			return Int(int64(v.Uint())), true
		}
	case KindDatetime:
		if v.Kind() != KindString {
			return v, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v.Str()); err == nil {
				return Time(t.UTC()), true
			}
		}
	case KindString:
		if dt.BasicType == BTObject && v.Kind() == KindNone {
			return v, true
		}
	}
	return v, false
}
