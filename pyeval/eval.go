// Package pyeval evaluates rendered container literals back into containers.
//
// Literals are parsed with tree-sitter's Python grammar, so anything accepted
// here is also syntactically valid Python. Evaluation understands only the
// constructor names configured in rrepr.Names plus Python literals: numbers,
// strings, booleans, None, tuples, lists and dicts.
package pyeval

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	rrepr "github.com/qri-io/rrepr-go"
)

// Evaluator turns literal text into containers. It is not safe for concurrent
// use; create one per goroutine.
type Evaluator struct {
	names  rrepr.Names
	parser *sitter.Parser
}

func New(names rrepr.Names) *Evaluator {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &Evaluator{
		names:  names.WithDefaults(),
		parser: parser,
	}
}

// Evaluate is a convenience for New(names).Evaluate(ctx, src)
func Evaluate(ctx context.Context, src string, names rrepr.Names) (*rrepr.Container, error) {
	return New(names).Evaluate(ctx, src)
}

// Evaluate parses src, which must hold exactly one expression constructing a
// dataset or data array, and returns the container it builds
func (e *Evaluator) Evaluate(ctx context.Context, src string) (*rrepr.Container, error) {
	content := []byte(src)
	tree, err := e.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%w: %s", ErrSyntax, firstError(root))
	}

	var stmts []*sitter.Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		if ch := root.NamedChild(i); ch.Type() != "comment" {
			stmts = append(stmts, ch)
		}
	}
	if len(stmts) != 1 || stmts[0].Type() != "expression_statement" || stmts[0].NamedChildCount() != 1 {
		return nil, fmt.Errorf("%w: expected a single expression", ErrSyntax)
	}

	ev := &evaluation{names: e.names, src: content}
	obj, err := ev.eval(stmts[0].NamedChild(0))
	if err != nil {
		return nil, err
	}
	c, ok := obj.(*rrepr.Container)
	if !ok {
		return nil, fmt.Errorf("%w: expression evaluates to %s, not a container", ErrEvaluation, describe(obj))
	}
	if err := rrepr.Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

func firstError(n *sitter.Node) string {
	if n.Type() == "ERROR" || n.IsMissing() {
		p := n.StartPoint()
		return fmt.Sprintf("invalid syntax at line %d, column %d", p.Row+1, p.Column+1)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if ch := n.Child(i); ch.HasError() {
			return firstError(ch)
		}
	}
	return "invalid syntax"
}

// Intermediate values produced while walking the tree. Scalars are
// rrepr.Value; constructed containers are *rrepr.Container.
type (
	object   interface{}
	tupleObj []object
	listObj  []object
	dictObj  []entry
	entry    struct {
		key   string
		value object
	}
	ndarray struct {
		dtype  rrepr.Dtype
		shape  []int
		values []rrepr.Value
	}
)

type evaluation struct {
	names rrepr.Names
	src   []byte
}

func (ev *evaluation) text(n *sitter.Node) string {
	return n.Content(ev.src)
}

func (ev *evaluation) errorf(n *sitter.Node, format string, args ...interface{}) error {
	p := n.StartPoint()
	return fmt.Errorf("%w: line %d, column %d: %s", ErrEvaluation, p.Row+1, p.Column+1, fmt.Sprintf(format, args...))
}

func (ev *evaluation) children(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if ch := n.NamedChild(i); ch.Type() != "comment" {
			out = append(out, ch)
		}
	}
	return out
}

func (ev *evaluation) eval(n *sitter.Node) (object, error) {
	switch n.Type() {
	case "parenthesized_expression":
		ch := ev.children(n)
		if len(ch) != 1 {
			return nil, ev.errorf(n, "unexpected parenthesized expression")
		}
		return ev.eval(ch[0])
	case "tuple":
		items, err := ev.evalAll(ev.children(n))
		return tupleObj(items), err
	case "list":
		items, err := ev.evalAll(ev.children(n))
		return listObj(items), err
	case "dictionary":
		return ev.dict(n)
	case "string":
		return ev.str(n)
	case "integer":
		return ev.integer(n)
	case "float":
		f, err := strconv.ParseFloat(strings.ReplaceAll(ev.text(n), "_", ""), 64)
		if err != nil {
			return nil, ev.errorf(n, "invalid float %q", ev.text(n))
		}
		return rrepr.Float(f), nil
	case "true":
		return rrepr.Bool(true), nil
	case "false":
		return rrepr.Bool(false), nil
	case "none":
		return rrepr.None(), nil
	case "unary_operator":
		return ev.unary(n)
	case "identifier", "attribute":
		switch name := ev.text(n); name {
		case ev.names.NaN:
			return rrepr.Float(math.NaN()), nil
		case ev.names.Inf:
			return rrepr.Float(math.Inf(1)), nil
		case "object":
			return rrepr.String("object"), nil
		default:
			return nil, ev.errorf(n, "unknown name %q", name)
		}
	case "call":
		return ev.call(n)
	default:
		return nil, ev.errorf(n, "unsupported expression %s", n.Type())
	}
}

func (ev *evaluation) evalAll(nodes []*sitter.Node) ([]object, error) {
	out := make([]object, 0, len(nodes))
	for _, ch := range nodes {
		v, err := ev.eval(ch)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (ev *evaluation) dict(n *sitter.Node) (object, error) {
	var d dictObj
	for _, pair := range ev.children(n) {
		if pair.Type() != "pair" {
			return nil, ev.errorf(pair, "unsupported dictionary item %s", pair.Type())
		}
		k, err := ev.eval(pair.ChildByFieldName("key"))
		if err != nil {
			return nil, err
		}
		key, ok := k.(rrepr.Value)
		if !ok || key.Kind() != rrepr.KindString {
			return nil, ev.errorf(pair, "dictionary keys must be strings")
		}
		v, err := ev.eval(pair.ChildByFieldName("value"))
		if err != nil {
			return nil, err
		}
		d = append(d, entry{key: key.Str(), value: v})
	}
	return d, nil
}

func (ev *evaluation) str(n *sitter.Node) (object, error) {
	raw := ev.text(n)
	if !strings.HasPrefix(raw, `"`) {
		return nil, ev.errorf(n, "only plain double-quoted strings are supported, got %s", raw)
	}
	s, err := strconv.Unquote(raw)
	if err != nil {
		return nil, ev.errorf(n, "invalid string %s: %s", raw, err)
	}
	return rrepr.String(s), nil
}

func (ev *evaluation) integer(n *sitter.Node) (object, error) {
	raw := ev.text(n)
	if i, err := strconv.ParseInt(raw, 0, 64); err == nil {
		return rrepr.Int(i), nil
	}
	if u, err := strconv.ParseUint(raw, 0, 64); err == nil {
		return rrepr.Uint(u), nil
	}
	return nil, ev.errorf(n, "integer %s out of range", raw)
}

func (ev *evaluation) unary(n *sitter.Node) (object, error) {
	op := ev.text(n.ChildByFieldName("operator"))
	arg, err := ev.eval(n.ChildByFieldName("argument"))
	if err != nil {
		return nil, err
	}
	v, ok := arg.(rrepr.Value)
	if !ok {
		return nil, ev.errorf(n, "unary %s applied to %s", op, describe(arg))
	}
	switch op {
	case "+":
		switch v.Kind() {
		case rrepr.KindInt, rrepr.KindUint, rrepr.KindFloat:
			return v, nil
		}
	case "-":
		switch v.Kind() {
		case rrepr.KindInt:
			return rrepr.Int(-v.Int()), nil
		case rrepr.KindUint:
			if v.Uint() == 1<<63 {
				return rrepr.Int(math.MinInt64), nil
			}
		case rrepr.KindFloat:
			return rrepr.Float(-v.Float()), nil
		}
	}
	return nil, ev.errorf(n, "unsupported unary %s on %s", op, v.Kind())
}

// args splits a call's argument list into positional and keyword arguments
func (ev *evaluation) args(n *sitter.Node) ([]object, map[string]object, error) {
	var (
		pos []object
		kw  = map[string]object{}
	)
	if n == nil || n.Type() != "argument_list" {
		return nil, nil, fmt.Errorf("%w: unsupported call arguments", ErrEvaluation)
	}
	for _, a := range ev.children(n) {
		if a.Type() == "keyword_argument" {
			name := ev.text(a.ChildByFieldName("name"))
			if _, dup := kw[name]; dup {
				return nil, nil, ev.errorf(a, "keyword argument %q repeated", name)
			}
			v, err := ev.eval(a.ChildByFieldName("value"))
			if err != nil {
				return nil, nil, err
			}
			kw[name] = v
			continue
		}
		if len(kw) > 0 {
			return nil, nil, ev.errorf(a, "positional argument follows keyword argument")
		}
		v, err := ev.eval(a)
		if err != nil {
			return nil, nil, err
		}
		pos = append(pos, v)
	}
	return pos, kw, nil
}

func (ev *evaluation) call(n *sitter.Node) (object, error) {
	fn := n.ChildByFieldName("function")
	pos, kw, err := ev.args(n.ChildByFieldName("arguments"))
	if err != nil {
		return nil, err
	}

	if fn.Type() == "attribute" && ev.text(fn.ChildByFieldName("attribute")) == "reshape" {
		recv, err := ev.eval(fn.ChildByFieldName("object"))
		if err != nil {
			return nil, err
		}
		arr, ok := recv.(*ndarray)
		if !ok {
			return nil, ev.errorf(fn, "reshape called on %s", describe(recv))
		}
		return ev.reshape(n, arr, pos)
	}

	var build func(*sitter.Node, []object, map[string]object) (object, error)
	switch callee := ev.text(fn); callee {
	case ev.names.Dataset:
		build = ev.dataset
	case ev.names.DataArray:
		build = ev.dataArray
	case ev.names.Array:
		build = ev.array
	case ev.names.Datetime:
		build = ev.datetime
	default:
		return nil, ev.errorf(fn, "unknown callable %q", callee)
	}
	return build(n, pos, kw)
}

func describe(o object) string {
	switch o := o.(type) {
	case rrepr.Value:
		return o.Kind().String()
	case tupleObj:
		return "tuple"
	case listObj:
		return "list"
	case dictObj:
		return "dict"
	case *ndarray:
		return "array"
	case *rrepr.Container:
		return strings.ToLower(string(o.Type()))
	default:
		return fmt.Sprintf("%T", o)
	}
}

func (ev *evaluation) datetime(n *sitter.Node, pos []object, kw map[string]object) (object, error) {
	if len(kw) > 0 {
		return nil, ev.errorf(n, "datetime takes positional components only")
	}
	if len(pos) < 3 || len(pos) > 7 {
		return nil, ev.errorf(n, "datetime takes 3 to 7 components, got %d", len(pos))
	}
	parts := make([]int, 7)
	for i, p := range pos {
		v, ok := p.(rrepr.Value)
		if !ok || v.Kind() != rrepr.KindInt {
			return nil, ev.errorf(n, "datetime component %d is not an integer", i+1)
		}
		parts[i] = int(v.Int())
	}
	year, month, day, hour, minute, sec, us := parts[0], parts[1], parts[2], parts[3], parts[4], parts[5], parts[6]
	if year < rrepr.MinYear || year > rrepr.MaxYear {
		return nil, ev.errorf(n, "year %d out of range", year)
	}
	if month < 1 || month > 12 {
		return nil, ev.errorf(n, "month %d out of range", month)
	}
	if last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day(); day < 1 || day > last {
		return nil, ev.errorf(n, "day %d out of range for month", day)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || sec < 0 || sec > 59 || us < 0 || us > 999999 {
		return nil, ev.errorf(n, "time of day out of range")
	}
	return rrepr.Time(time.Date(year, time.Month(month), day, hour, minute, sec, us*1000, time.UTC)), nil
}
