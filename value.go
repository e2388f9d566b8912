package rrepr

import (
	"math"
	"strconv"
	"time"
)

// Kind tags the payload carried by a Value. The set is closed: every kind has
// exactly one literal formatting rule.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNone
	KindBool
	KindInt
	KindUint
	KindFloat
	KindDatetime
	KindString
)

var kindNames = map[Kind]string{
	KindInvalid:  "invalid",
	KindNone:     "none",
	KindBool:     "bool",
	KindInt:      "int",
	KindUint:     "uint",
	KindFloat:    "float",
	KindDatetime: "datetime",
	KindString:   "string",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "invalid"
}

// Value is a single array element
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	t    time.Time
	s    string
}

func None() Value { return Value{kind: KindNone} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Int(i int64) Value { return Value{kind: KindInt, i: i} }
func Uint(u uint64) Value { return Value{kind: KindUint, u: u} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Time(t time.Time) Value { return Value{kind: KindDatetime, t: t} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) Bool() bool { return v.b }
func (v Value) Int() int64 { return v.i }
func (v Value) Uint() uint64 { return v.u }
func (v Value) Float() float64 { return v.f }
func (v Value) Time() time.Time { return v.t }
func (v Value) Str() string { return v.s }

func (v Value) String() string {
	switch v.kind {
	case KindNone:
		return "None"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUint:
		return strconv.FormatUint(v.u, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindDatetime:
		return v.t.Format(time.RFC3339Nano)
	case KindString:
		return strconv.Quote(v.s)
	}
	return "invalid"
}

// Equal reports whether two values have the same kind and payload. Floats are
// compared so that NaN equals NaN, timestamps by instant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNone, KindInvalid:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindUint:
		return v.u == o.u
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindDatetime:
		return v.t.Equal(o.t)
	case KindString:
		return v.s == o.s
	}
	return false
}

func Floats(vals ...float64) []Value {
	out := make([]Value, len(vals))
	for i, f := range vals {
		out[i] = Float(f)
	}
	return out
}

func Ints(vals ...int64) []Value {
	out := make([]Value, len(vals))
	for i, n := range vals {
		out[i] = Int(n)
	}
	return out
}

func Strings(vals ...string) []Value {
	out := make([]Value, len(vals))
	for i, s := range vals {
		out[i] = String(s)
	}
	return out
}

func Times(vals ...time.Time) []Value {
	out := make([]Value, len(vals))
	for i, t := range vals {
		out[i] = Time(t)
	}
	return out
}

func Bools(vals ...bool) []Value {
	out := make([]Value, len(vals))
	for i, b := range vals {
		out[i] = Bool(b)
	}
	return out
}
