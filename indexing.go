package rrepr

// axisProjection describes how a row-major array splits around one axis.
// Every element sits at outer*(Len*Inner) + pos*Inner + inner.
type axisProjection struct {
	// Product of the lengths of the axes before the projected axis
	Outer int
	// Length of the projected axis
	Len int
	// Product of the lengths of the axes after the projected axis
	Inner int
}

func projectAxis(shape []int, axis int) axisProjection {
	p := axisProjection{Outer: 1, Len: shape[axis], Inner: 1}
	for _, n := range shape[:axis] {
		p.Outer *= n
	}
	for _, n := range shape[axis+1:] {
		p.Inner *= n
	}
	return p
}

// take gathers the positions idx along axis of a row-major array, returning
// the gathered values and their shape. Positions may repeat and appear in any
// order; callers check bounds.
func take[T any](vals []T, shape []int, axis int, idx []int) ([]T, []int) {
	p := projectAxis(shape, axis)
	out := make([]T, 0, p.Outer*len(idx)*p.Inner)
	for o := 0; o < p.Outer; o++ {
		base := o * p.Len * p.Inner
		for _, pos := range idx {
			start := base + pos*p.Inner
			out = append(out, vals[start:start+p.Inner]...)
		}
	}

	outShape := append([]int(nil), shape...)
	outShape[axis] = len(idx)
	return out, outShape
}

// nest folds a row-major array into nested form: leaf converts each element
// and group combines the items of each bracketed run, innermost first
func nest[V, D any](vals []V, shape []int, leaf func(V) D, group func([]D) D) D {
	if len(shape) == 0 {
		return leaf(vals[0])
	}
	n, stride := shape[0], 1
	for _, s := range shape[1:] {
		stride *= s
	}
	items := make([]D, n)
	for i := 0; i < n; i++ {
		items[i] = nest(vals[i*stride:(i+1)*stride], shape[1:], leaf, group)
	}
	return group(items)
}
