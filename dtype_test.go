package rrepr

import (
	"math"
	"testing"
	"time"
)

func TestParseDtype(t *testing.T) {
	cases := []struct {
		in      string
		want    Dtype
		wantErr bool
	}{
		{"<f8", DtypeFloat64, false},
		{"&lt;f8", DtypeFloat64, false},
		{"|b1", DtypeBool, false},
		{">i4", Dtype{BOBigEndian, BTInteger, 4, ""}, false},
		{"<M8[ns]", DtypeDatetime, false},
		{"<U12", DtypeUnicode(12), false},
		{"|O", DtypeObject, false},
		{"|O8", Dtype{BONotRelevant, BTObject, 8, ""}, false},
		{"<f", Dtype{}, true},
		{"=f8", Dtype{}, true},
		{"<x8", Dtype{}, true},
		{"<f8[ns]", Dtype{}, true},
		{"<M8[ns", Dtype{}, true},
	}
	for _, c := range cases {
		got, err := ParseDtype(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseDtype(%q) error = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if !c.wantErr && got != c.want {
			t.Errorf("ParseDtype(%q) = %#v, want %#v", c.in, got, c.want)
		}
	}
}

func TestParseDtypeName(t *testing.T) {
	cases := []struct {
		in   string
		want Dtype
	}{
		{"float64", DtypeFloat64},
		{"float32", Dtype{BOLittleEndian, BTFloatingPoint, 4, ""}},
		{"int64", DtypeInt64},
		{"uint8", Dtype{BONotRelevant, BTUnsigned, 1, ""}},
		{"bool", DtypeBool},
		{"object", DtypeObject},
		{"datetime64[ns]", DtypeDatetime},
		{"datetime64", DtypeDatetime},
		{"datetime64[s]", Dtype{BOLittleEndian, BTDatetime, 8, "[s]"}},
		{"<U3", DtypeUnicode(3)},
	}
	for _, c := range cases {
		got, err := ParseDtypeName(c.in)
		if err != nil {
			t.Errorf("ParseDtypeName(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseDtypeName(%q) = %#v, want %#v", c.in, got, c.want)
		}
		if c.in != "datetime64" && got.Name() != c.in {
			t.Errorf("%#v.Name() = %q, want %q", got, got.Name(), c.in)
		}
	}

	for _, bad := range []string{"", "float", "decimal128"} {
		if _, err := ParseDtypeName(bad); err == nil {
			t.Errorf("ParseDtypeName(%q): expected an error", bad)
		}
	}
}

func TestDtypeString(t *testing.T) {
	cases := map[string]Dtype{
		"<f8":     DtypeFloat64,
		"|O":      DtypeObject,
		"<M8[ns]": DtypeDatetime,
		">i2":     {BOBigEndian, BTInteger, 2, ""},
	}
	for want, dt := range cases {
		if got := dt.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
	if got := (Dtype{BOBigEndian, BTInteger, 2, ""}).Name(); got != ">i2" {
		t.Errorf("big-endian Name() = %q, want the typestr", got)
	}
}

func TestDtypeAccepts(t *testing.T) {
	cases := []struct {
		dt   Dtype
		kind Kind
		want bool
	}{
		{DtypeFloat64, KindFloat, true},
		{DtypeFloat64, KindInt, false},
		{DtypeObject, KindString, true},
		{DtypeObject, KindNone, true},
		{DtypeObject, KindFloat, false},
		{DtypeUnicode(3), KindString, true},
		{DtypeUnicode(3), KindNone, false},
		{Dtype{BOLittleEndian, BTComplex, 16, ""}, KindInvalid, false},
	}
	for _, c := range cases {
		if got := c.dt.Accepts(c.kind); got != c.want {
			t.Errorf("%s.Accepts(%s) = %v, want %v", c.dt, c.kind, got, c.want)
		}
	}
}

func TestInferDtype(t *testing.T) {
	ts := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		vals []Value
		want Dtype
	}{
		{"empty", nil, DtypeFloat64},
		{"bools", Bools(true), DtypeBool},
		{"ints", Ints(1, 2), DtypeInt64},
		{"uints", []Value{Uint(math.MaxUint64)}, DtypeUint64},
		{"floats", Floats(1, math.NaN()), DtypeFloat64},
		{"ints and floats", []Value{Int(1), Float(2)}, DtypeFloat64},
		{"timestamps", Times(ts, ts), DtypeDatetime},
		{"strings", Strings("a", "naïve"), DtypeUnicode(5)},
		{"strings and none", []Value{String("a"), None()}, DtypeObject},
		{"bools and ints", []Value{Bool(true), Int(1)}, DtypeObject},
		{"none", []Value{None()}, DtypeObject},
	}
	for _, c := range cases {
		if got := InferDtype(c.vals); got != c.want {
			t.Errorf("%s: InferDtype() = %s, want %s", c.name, got, c.want)
		}
	}
}

func TestDtypeHolds(t *testing.T) {
	noon := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		dtype string
		v     Value
		want  bool
	}{
		{"int8", Int(127), true},
		{"int8", Int(-128), true},
		{"int8", Int(128), false},
		{"int8", Int(300), false},
		{"int16", Int(-32769), false},
		{"int32", Int(math.MaxInt32), true},
		{"int64", Int(math.MinInt64), true},
		{"uint8", Uint(255), true},
		{"uint8", Uint(256), false},
		{"uint32", Uint(math.MaxUint32 + 1), false},
		{"uint64", Uint(math.MaxUint64), true},
		{"float64", Int(1), false},
		{"datetime64[ns]", Time(noon.Add(time.Nanosecond)), true},
		{"datetime64[us]", Time(noon.Add(time.Nanosecond)), false},
		{"datetime64[s]", Time(noon), true},
		{"datetime64[h]", Time(noon.Add(time.Minute)), false},
		{"datetime64[D]", Time(noon), false},
		{"datetime64[D]", Time(day0), true},
		{"datetime64[M]", Time(day0.AddDate(0, 1, 0)), true},
		{"datetime64[M]", Time(day0.AddDate(0, 1, 1)), false},
		{"datetime64[Y]", Time(day0), true},
	}
	for _, c := range cases {
		dt, err := ParseDtypeName(c.dtype)
		if err != nil {
			t.Fatal(err)
		}
		if got := dt.Holds(c.v); got != c.want {
			t.Errorf("%s.Holds(%s) = %v, want %v", c.dtype, c.v, got, c.want)
		}
	}
}

func TestDtypeTruncateTime(t *testing.T) {
	ts := time.Date(2021, 8, 19, 13, 47, 31, 123456789, time.UTC)
	cases := []struct {
		dtype string
		in    time.Time
		want  time.Time
	}{
		{"datetime64[ns]", ts, ts},
		{"datetime64[us]", ts, time.Date(2021, 8, 19, 13, 47, 31, 123456000, time.UTC)},
		{"datetime64[ms]", ts, time.Date(2021, 8, 19, 13, 47, 31, 123000000, time.UTC)},
		{"datetime64[s]", ts, time.Date(2021, 8, 19, 13, 47, 31, 0, time.UTC)},
		{"datetime64[15m]", ts, time.Date(2021, 8, 19, 13, 45, 0, 0, time.UTC)},
		{"datetime64[D]", ts, time.Date(2021, 8, 19, 0, 0, 0, 0, time.UTC)},
		// weeks count from the epoch, a Thursday
		{"datetime64[W]", ts, time.Date(2021, 8, 19, 0, 0, 0, 0, time.UTC)},
		{"datetime64[W]", time.Date(2021, 8, 18, 1, 0, 0, 0, time.UTC), time.Date(2021, 8, 12, 0, 0, 0, 0, time.UTC)},
		{"datetime64[M]", ts, time.Date(2021, 8, 1, 0, 0, 0, 0, time.UTC)},
		{"datetime64[Y]", ts, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"datetime64[D]", time.Date(1969, 12, 31, 23, 0, 0, 0, time.UTC), time.Date(1969, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"datetime64[M]", time.Date(1969, 5, 3, 0, 0, 0, 0, time.UTC), time.Date(1969, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"datetime64[10Y]", ts, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"datetime64[10Y]", time.Date(1965, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		dt, err := ParseDtypeName(c.dtype)
		if err != nil {
			t.Fatal(err)
		}
		if got := dt.TruncateTime(c.in); !got.Equal(c.want) {
			t.Errorf("%s.TruncateTime(%s) = %s, want %s", c.dtype, c.in, got, c.want)
		}
	}
}
