package rrepr

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Dtype is an array element type, following the NumPy array protocol type
// string (typestr) format. The format consists of 3 parts:
//   - One character describing the byteorder of the data:
//     "<": little-endian; ">": big-endian; "|": not-relevant)
//   - One character code giving the basic type of the array:
//   - "b": Boolean (integer type where all values are only True or False)
//   - "i": integer;
//   - "u": unsigned integer
//   - "f": floating point
//   - "c": complex floating point
//   - "m": timedelta;
//   - "M": datetime
//   - "S": string (fixed-length sequence of char)
//   - "U": unicode (fixed-length sequence of Py_UNICODE)
//   - "O": python object
//   - "V": other (void * – each item is a fixed-size chunk of memory))
//   - An integer specifying the number of bytes the type uses. Object dtypes
//     may omit it.
//
// Datetime types carry a bracketed unit suffix, e.g. "<M8[ns]".
type Dtype struct {
	ByteOrder ByteOrder
	BasicType BasicType
	ByteSize  int
	Units     string
}

var (
	DtypeBool     = Dtype{BONotRelevant, BTBoolean, 1, ""}
	DtypeInt64    = Dtype{BOLittleEndian, BTInteger, 8, ""}
	DtypeUint64   = Dtype{BOLittleEndian, BTUnsigned, 8, ""}
	DtypeFloat64  = Dtype{BOLittleEndian, BTFloatingPoint, 8, ""}
	DtypeDatetime = Dtype{BOLittleEndian, BTDatetime, 8, "[ns]"}
	DtypeObject   = Dtype{BONotRelevant, BTObject, 0, ""}
)

// DtypeUnicode returns the fixed-width unicode dtype holding n characters
func DtypeUnicode(n int) Dtype {
	return Dtype{BOLittleEndian, BTUnicode, n, ""}
}

func ParseDtype(s string) (dt Dtype, err error) {
	// bug in python implementation uses HTML escape sequences when serializaing JSON
	s = strings.Replace(s, "&lt;", "<", 1)
	s = strings.Replace(s, "&gt;", ">", 1)

	if len(s) == 2 && s[1] == byte(BTObject) {
		s += "0"
	}
	if len(s) < 3 {
		return dt, fmt.Errorf("invalid Dtype string. %q is too short", s)
	}

	boByte, s := s[0], s[1:]
	dt.ByteOrder, err = ParseByteOrder(rune(boByte))
	if err != nil {
		return dt, err
	}

	typeByte, s := s[0], s[1:]
	dt.BasicType, err = ParseBasicType(rune(typeByte))
	if err != nil {
		return dt, err
	}

	var sizeStr, unitStr string
	for i, b := range s {
		if b == '[' {
			unitStr = s[i:]
			break
		}
		sizeStr += string(b)
	}

	size, err := strconv.ParseInt(sizeStr, 10, 0)
	if err != nil {
		return dt, err
	}
	dt.ByteSize = int(size)

	if unitStr != "" {
		if dt.BasicType != BTDatetime && dt.BasicType != BTTimedelta {
			return dt, fmt.Errorf("invalid Dtype string: units are only valid for time types, got %q", unitStr)
		}
		if !strings.HasSuffix(unitStr, "]") {
			return dt, fmt.Errorf("invalid Dtype units %q", unitStr)
		}
	}
	dt.Units = unitStr

	return dt, nil
}

var namedDtypes = map[string]Dtype{
	"bool":       DtypeBool,
	"int8":       {BONotRelevant, BTInteger, 1, ""},
	"int16":      {BOLittleEndian, BTInteger, 2, ""},
	"int32":      {BOLittleEndian, BTInteger, 4, ""},
	"int64":      DtypeInt64,
	"uint8":      {BONotRelevant, BTUnsigned, 1, ""},
	"uint16":     {BOLittleEndian, BTUnsigned, 2, ""},
	"uint32":     {BOLittleEndian, BTUnsigned, 4, ""},
	"uint64":     DtypeUint64,
	"float16":    {BOLittleEndian, BTFloatingPoint, 2, ""},
	"float32":    {BOLittleEndian, BTFloatingPoint, 4, ""},
	"float64":    DtypeFloat64,
	"complex64":  {BOLittleEndian, BTComplex, 8, ""},
	"complex128": {BOLittleEndian, BTComplex, 16, ""},
	"object":     DtypeObject,
	"str":        DtypeUnicode(0),
}

// ParseDtypeName accepts either a typestr ("<f8") or a NumPy dtype name
// ("float64", "datetime64[ns]", "object")
func ParseDtypeName(s string) (Dtype, error) {
	if s == "" {
		return Dtype{}, fmt.Errorf("empty Dtype string")
	}
	switch s[0] {
	case byte(BONotRelevant), byte(BOLittleEndian), byte(BOBigEndian), '&':
		return ParseDtype(s)
	}
	if dt, ok := namedDtypes[s]; ok {
		return dt, nil
	}
	for prefix, bt := range map[string]BasicType{"datetime64": BTDatetime, "timedelta64": BTTimedelta} {
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		units := strings.TrimPrefix(s, prefix)
		if units == "" {
			units = "[ns]"
		}
		return ParseDtype("<" + string(bt) + "8" + units)
	}
	return Dtype{}, fmt.Errorf("unrecognized dtype name %q", s)
}

func (dt Dtype) String() string {
	if dt.BasicType == BTObject && dt.ByteSize == 0 {
		return string(dt.ByteOrder) + string(dt.BasicType)
	}
	s := fmt.Sprintf("%s%s%d", string(dt.ByteOrder), string(dt.BasicType), dt.ByteSize)
	if dt.Units != "" {
		s += dt.Units
	}
	return s
}

// Name returns the NumPy spelling of dt: a dtype name for native byte order
// numeric and time types, the typestr otherwise
func (dt Dtype) Name() string {
	switch dt.BasicType {
	case BTObject:
		return "object"
	case BTDatetime, BTTimedelta:
		if dt.ByteOrder == BOBigEndian {
			return dt.String()
		}
		units := dt.Units
		if units == "" {
			units = "[ns]"
		}
		if dt.BasicType == BTDatetime {
			return "datetime64" + units
		}
		return "timedelta64" + units
	}
	if dt.ByteOrder != BOBigEndian {
		for name, named := range namedDtypes {
			if named == dt && name != "str" {
				return name
			}
		}
	}
	return dt.String()
}

// Kind maps the dtype's basic type onto the value kind its elements carry.
// Types with no literal formatting rule map to KindInvalid.
func (dt Dtype) Kind() Kind {
	switch dt.BasicType {
	case BTBoolean:
		return KindBool
	case BTInteger:
		return KindInt
	case BTUnsigned:
		return KindUint
	case BTFloatingPoint:
		return KindFloat
	case BTDatetime:
		return KindDatetime
	case BTString, BTUnicode, BTObject:
		return KindString
	default:
		return KindInvalid
	}
}

// Accepts reports whether a value of kind k may be stored in an array of dt
func (dt Dtype) Accepts(k Kind) bool {
	if dt.BasicType == BTObject {
		return k == KindString || k == KindNone
	}
	return k == dt.Kind() && k != KindInvalid
}

// Holds reports whether dt stores v unchanged: the kind is accepted, integers
// fit the element width and timestamps carry nothing finer than the unit
func (dt Dtype) Holds(v Value) bool {
	if !dt.Accepts(v.Kind()) {
		return false
	}
	bits := dt.ByteSize * 8
	switch v.Kind() {
	case KindInt:
		if bits > 0 && bits < 64 {
			lim := int64(1) << (bits - 1)
			return v.Int() >= -lim && v.Int() < lim
		}
	case KindUint:
		if bits > 0 && bits < 64 {
			return v.Uint() < uint64(1)<<bits
		}
	case KindDatetime:
		return dt.TruncateTime(v.Time()).Equal(v.Time())
	}
	return true
}

// timeUnits maps datetime units of a day or less to their length in
// microseconds
var timeUnits = map[string]int64{
	"D":  24 * 60 * 60 * 1e6,
	"h":  60 * 60 * 1e6,
	"m":  60 * 1e6,
	"s":  1e6,
	"ms": 1e3,
	"us": 1,
}

// TruncateTime floors t to the datetime unit of dt, as NumPy does when it
// stores a datetime.datetime under that unit. Units of a microsecond or
// finer, and unit strings it does not know, leave t unchanged.
func (dt Dtype) TruncateTime(t time.Time) time.Time {
	count, unit, ok := parseTimeUnit(dt.Units)
	if !ok || dt.BasicType != BTDatetime {
		return t
	}
	t = t.UTC()
	switch unit {
	case "Y":
		y := floorDiv(int64(t.Year()-1970), count) * count
		return time.Date(1970+int(y), time.January, 1, 0, 0, 0, 0, time.UTC)
	case "M":
		m := floorDiv(int64(t.Year()-1970)*12+int64(t.Month()-1), count) * count
		return time.Date(1970, time.Month(m+1), 1, 0, 0, 0, 0, time.UTC)
	case "W":
		count *= 7 * timeUnits["D"]
	default:
		us, ok := timeUnits[unit]
		if !ok {
			return t
		}
		count *= us
	}
	if count == 1 {
		return t.Truncate(time.Microsecond)
	}
	return time.UnixMicro(floorDiv(t.UnixMicro(), count) * count).UTC()
}

// parseTimeUnit splits a unit suffix like "[10s]" into its count and unit
func parseTimeUnit(units string) (int64, string, bool) {
	if !strings.HasPrefix(units, "[") || !strings.HasSuffix(units, "]") {
		return 0, "", false
	}
	s := units[1 : len(units)-1]
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	count := int64(1)
	if i > 0 {
		n, err := strconv.ParseInt(s[:i], 10, 64)
		if err != nil || n <= 0 || n > 1e6 {
			return 0, "", false
		}
		count = n
	}
	return count, s[i:], s[i:] != ""
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// InferDtype returns the dtype a labeled array assigns to a literal holding
// vals. This is NumPy's inference, except that timestamps infer datetime64[ns]
// rather than object, as xarray converts them on construction.
func InferDtype(vals []Value) Dtype {
	if len(vals) == 0 {
		return DtypeFloat64
	}
	var (
		counts = map[Kind]int{}
		width  int
	)
	for _, v := range vals {
		counts[v.Kind()]++
		if v.Kind() == KindString {
			if n := utf8.RuneCountInString(v.Str()); n > width {
				width = n
			}
		}
	}
	only := func(k Kind) bool { return counts[k] == len(vals) }
	switch {
	case only(KindBool):
		return DtypeBool
	case only(KindInt):
		return DtypeInt64
	case only(KindUint):
		return DtypeUint64
	case only(KindDatetime):
		return DtypeDatetime
	case counts[KindFloat] > 0 && counts[KindFloat]+counts[KindInt]+counts[KindUint] == len(vals):
		return DtypeFloat64
	case only(KindString):
		return DtypeUnicode(width)
	default:
		return DtypeObject
	}
}

type ByteOrder rune

func ParseByteOrder(r rune) (ByteOrder, error) {
	o := ByteOrder(r)
	if _, ok := byteOrders[o]; !ok {
		return o, fmt.Errorf("unsupported byte order format: %q", r)
	}
	return o, nil
}

const (
	BONotRelevant  ByteOrder = '|'
	BOLittleEndian ByteOrder = '<'
	BOBigEndian    ByteOrder = '>'
)

var byteOrders = map[ByteOrder]struct{}{
	BONotRelevant:  {},
	BOLittleEndian: {},
	BOBigEndian:    {},
}

type BasicType rune

func ParseBasicType(r rune) (BasicType, error) {
	t := BasicType(r)
	if _, ok := supportedBasicTypes[t]; !ok {
		return t, fmt.Errorf("unsupported basic type: %q", r)
	}
	return t, nil
}

func (bt BasicType) Human() string {
	return supportedBasicTypes[bt]
}

const (
	BTBoolean       BasicType = 'b'
	BTInteger       BasicType = 'i'
	BTUnsigned      BasicType = 'u'
	BTFloatingPoint BasicType = 'f'
	BTComplex       BasicType = 'c'
	BTTimedelta     BasicType = 'm'
	BTDatetime      BasicType = 'M'
	BTString        BasicType = 'S'
	BTUnicode       BasicType = 'U'
	BTObject        BasicType = 'O'
	BTOther         BasicType = 'V'
)

var supportedBasicTypes = map[BasicType]string{
	BTBoolean:       "bool",
	BTInteger:       "int",
	BTUnsigned:      "uint",
	BTFloatingPoint: "float",
	BTComplex:       "complex",
	BTTimedelta:     "timedelta",
	BTDatetime:      "datetime",
	BTString:        "bytes",
	BTUnicode:       "str",
	BTObject:        "object",
	BTOther:         "void",
}
