package rrepr

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Names are the identifiers a rendered literal refers to. Evaluating the
// literal requires each of them to be bound.
type Names struct {
	Dataset   string `toml:"dataset"`
	DataArray string `toml:"data_array"`
	Array     string `toml:"array"`
	Datetime  string `toml:"datetime"`
	NaN       string `toml:"nan"`
	Inf       string `toml:"inf"`
}

// DefaultNames binds the literal to the conventional xarray, numpy and
// datetime imports
func DefaultNames() Names {
	return Names{
		Dataset:   "xr.Dataset",
		DataArray: "xr.DataArray",
		Array:     "np.array",
		Datetime:  "datetime.datetime",
		NaN:       "np.nan",
		Inf:       "np.inf",
	}
}

// WithDefaults fills empty fields from DefaultNames
func (n Names) WithDefaults() Names {
	d := DefaultNames()
	if n.Dataset == "" {
		n.Dataset = d.Dataset
	}
	if n.DataArray == "" {
		n.DataArray = d.DataArray
	}
	if n.Array == "" {
		n.Array = d.Array
	}
	if n.Datetime == "" {
		n.Datetime = d.Datetime
	}
	if n.NaN == "" {
		n.NaN = d.NaN
	}
	if n.Inf == "" {
		n.Inf = d.Inf
	}
	return n
}

// Python literal tokens
const (
	tokTrue  = "True"
	tokFalse = "False"
	tokNone  = "None"
)

// formatValue renders one element as a literal. bits is the float width of
// the owning array, 32 or 64.
func formatValue(v Value, bits int, names Names) (string, bool) {
	switch v.Kind() {
	case KindNone:
		return tokNone, true
	case KindBool:
		if v.Bool() {
			return tokTrue, true
		}
		return tokFalse, true
	case KindInt:
		return strconv.FormatInt(v.Int(), 10), true
	case KindUint:
		return strconv.FormatUint(v.Uint(), 10), true
	case KindFloat:
		return formatFloat(v.Float(), bits, names), true
	case KindDatetime:
		return formatDatetime(v, names)
	case KindString:
		return formatString(v.Str())
	default:
		return "", false
	}
}

// formatFloat produces the shortest decimal that parses back to f. Plain
// notation is used for magnitudes in [1e-4, 1e16), exponent notation outside.
// Integral values keep a trailing ".0" so they read back as floats.
func formatFloat(f float64, bits int, names Names) string {
	switch {
	case math.IsNaN(f):
		return names.NaN
	case math.IsInf(f, 1):
		return names.Inf
	case math.IsInf(f, -1):
		return "-" + names.Inf
	}
	if bits != 32 {
		bits = 64
	}
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-4 && abs < 1e16) {
		s := strconv.FormatFloat(f, 'f', -1, bits)
		if !strings.ContainsRune(s, '.') {
			s += ".0"
		}
		return s
	}
	return strconv.FormatFloat(f, 'e', -1, bits)
}

// Years a datetime.datetime can hold
const (
	MinYear = 1
	MaxYear = 9999
)

// formatDatetime spells a timestamp as an explicit constructor call in UTC.
// The microsecond component is only written when nonzero; finer precision and
// years outside MinYear..MaxYear have no constructor form.
func formatDatetime(v Value, names Names) (string, bool) {
	t := v.Time().UTC()
	if t.Nanosecond()%1000 != 0 || t.Year() < MinYear || t.Year() > MaxYear {
		return "", false
	}
	parts := []int{t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second()}
	if us := t.Nanosecond() / 1000; us != 0 {
		parts = append(parts, us)
	}
	var b strings.Builder
	b.WriteString(names.Datetime)
	b.WriteByte('(')
	for i, p := range parts {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(p))
	}
	b.WriteByte(')')
	return b.String(), true
}

// formatString quotes s. Go's escapes for quotes, backslashes and control
// characters are all valid in Python string literals; invalid UTF-8 is not.
func formatString(s string) (string, bool) {
	if !utf8.ValidString(s) {
		return "", false
	}
	return strconv.Quote(s), true
}

func floatBits(dt Dtype) int {
	if dt.BasicType == BTFloatingPoint && dt.ByteSize == 4 {
		return 32
	}
	return 64
}

// roundFloat rounds f to digits decimal places. Values too large to carry a
// fractional part at that precision are returned unchanged.
func roundFloat(f float64, digits int) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	pow := math.Pow(10, float64(digits))
	scaled := f * pow
	if math.Abs(scaled) >= 1<<53 || math.IsInf(scaled, 0) {
		return f
	}
	return math.Round(scaled) / pow
}
