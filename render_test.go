package rrepr

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// airDataset is a 5 (time) by 3 (x) dataset: air[t][x] = 3t + x + 0.5, a
// daily time coordinate from 2020-01-01 and x = 10, 20, 30
func airDataset() *Container {
	var (
		air   []Value
		times []time.Time
	)
	for t := 0; t < 5; t++ {
		times = append(times, day0.AddDate(0, 0, t))
		for x := 0; x < 3; x++ {
			air = append(air, Float(float64(3*t+x)+0.5))
		}
	}
	return NewDataset().
		SetDataVar("air", NewVariable([]string{"time", "x"}, []int{5, 3}, DtypeFloat64, air)).
		SetCoord("time", NewVariable1D("time", Times(times...))).
		SetCoord("x", NewVariable1D("x", Ints(10, 20, 30)))
}

const airFlat = `xr.Dataset({"air": (("time", "x"), np.array([[3.5, 5.5], [9.5, 11.5]]))}, coords={"time": (("time",), np.array([datetime.datetime(2020, 1, 2, 0, 0, 0), datetime.datetime(2020, 1, 4, 0, 0, 0)])), "x": (("x",), np.array([10, 30]))})`

const airBroken = `xr.Dataset(
    {"air": (("time", "x"), np.array([[3.5, 5.5], [9.5, 11.5]]))},
    coords={
        "time": (
            ("time",),
            np.array(
                [
                    datetime.datetime(2020, 1, 2, 0, 0, 0),
                    datetime.datetime(2020, 1, 4, 0, 0, 0),
                ]
            ),
        ),
        "x": (("x",), np.array([10, 30])),
    },
)`

func TestRenderDataset(t *testing.T) {
	sel := IndexSelection{"time": {1, 3}, "x": {0, 2}}

	reduced, got, err := Render(airDataset(), sel)
	require.NoError(t, err)
	assert.Equal(t, airBroken, got)
	assert.Equal(t, map[string]int{"time": 2, "x": 2}, Sizes(reduced))

	_, got, err = Render(airDataset(), sel, WithLineWidth(1000))
	require.NoError(t, err)
	assert.Equal(t, airFlat, got)
	assert.NotContains(t, got, "\n")
}

func TestRenderLinesFitWidth(t *testing.T) {
	_, got, err := Render(airDataset(), IndexSelection{"time": {1, 3}, "x": {0, 2}}, WithLineWidth(60))
	require.NoError(t, err)
	for _, line := range strings.Split(got, "\n") {
		assert.LessOrEqual(t, len(line), 60, line)
	}
}

func TestReprCapsEveryDimension(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		sel, err := Select(airDataset().Dims(), 2, NewRand(&seed))
		require.NoError(t, err)
		reduced, _, err := Render(airDataset(), sel)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"time": 2, "x": 2}, Sizes(reduced))

		// every kept air value must line up with its kept coordinates
		air, _ := reduced.DataVar("air")
		times, _ := reduced.Coord("time")
		xs, _ := reduced.Coord("x")
		for i, tv := range times.Values() {
			ti := int(tv.Time().Sub(day0).Hours() / 24)
			for j, xv := range xs.Values() {
				xi := int(xv.Int()/10) - 1
				assert.Equal(t, float64(3*ti+xi)+0.5, air.Values()[i*2+j].Float())
			}
		}
	}
}

func TestReprDeterministicWithSeed(t *testing.T) {
	a, err := Repr(airDataset(), WithSeed(7))
	require.NoError(t, err)
	b, err := Repr(airDataset(), WithSeed(7))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestReprWithRandomSource(t *testing.T) {
	// floyd over n=5, k=2 draws IntN(4) then IntN(5); a repeat takes j
	got, err := Repr(airDataset(), WithRand(&scripted{3, 3, 0, 2}), WithLineWidth(1000))
	require.NoError(t, err)
	assert.Contains(t, got, "np.array([[9.5, 11.5], [12.5, 14.5]])")
}

func TestReprSmallDimensionsKeptWhole(t *testing.T) {
	ds := NewDataset().SetDataVar("v", NewVariable1D("x", Ints(1, 2)))
	got, err := Repr(ds, WithSize(5))
	require.NoError(t, err)
	assert.Equal(t, `xr.Dataset({"v": (("x",), np.array([1, 2]))}, coords={})`, got)
}

func TestRenderDataArray(t *testing.T) {
	arr := NewVariable([]string{"x"}, []int{3}, DtypeFloat64, Floats(1, math.NaN(), math.Inf(-1)))
	da := NewDataArray("temp", arr).SetCoord("x", NewVariable1D("x", Strings("a", "b", "c")))

	_, got, err := Render(da, nil, WithLineWidth(1000))
	require.NoError(t, err)
	assert.Equal(t, `xr.DataArray(np.array([1.0, np.nan, -np.inf]), coords={"x": (("x",), np.array(["a", "b", "c"]))}, dims=("x",), name="temp")`, got)

	_, got, err = Render(NewDataArray("", arr), IndexSelection{"x": {0}})
	require.NoError(t, err)
	assert.Equal(t, `xr.DataArray(np.array([1.0]), coords={}, dims=("x",))`, got)
}

func TestRenderDtypeKeyword(t *testing.T) {
	cases := []struct {
		name string
		arr  *Variable
		want string
	}{
		{"float32", NewVariable([]string{"x"}, []int{1}, namedDtypes["float32"], Floats(float64(float32(0.1)))),
			`np.array([0.1], dtype="float32")`},
		{"int32", NewVariable([]string{"x"}, []int{2}, namedDtypes["int32"], Ints(1, -1)),
			`np.array([1, -1], dtype="int32")`},
		{"uint64", NewVariable([]string{"x"}, []int{1}, DtypeUint64, []Value{Uint(math.MaxUint64)}),
			`np.array([18446744073709551615])`},
		{"uint64 in int64 range", NewVariable([]string{"x"}, []int{2}, DtypeUint64, []Value{Uint(0), Uint(7)}),
			`np.array([0, 7], dtype="uint64")`},
		{"day resolution", NewVariable([]string{"x"}, []int{1}, Dtype{BOLittleEndian, BTDatetime, 8, "[D]"}, Times(day0)),
			`np.array([datetime.datetime(2020, 1, 1, 0, 0, 0)], dtype="datetime64[D]")`},
		{"object strings", NewVariable([]string{"x"}, []int{2}, DtypeObject, Strings("a", "bc")),
			`np.array(["a", "bc"], dtype="object")`},
		{"object with none", NewVariable([]string{"x"}, []int{2}, DtypeObject, []Value{String("a"), None()}),
			`np.array(["a", None])`},
		{"wide unicode", NewVariable([]string{"x"}, []int{1}, DtypeUnicode(10), Strings("abc")),
			`np.array(["abc"], dtype="<U10")`},
		{"empty float", NewVariable([]string{"x"}, []int{0}, DtypeFloat64, nil),
			`np.array([])`},
		{"empty int", NewVariable([]string{"x"}, []int{0}, DtypeInt64, nil),
			`np.array([], dtype="int64")`},
		{"bool", NewVariable([]string{"x"}, []int{2}, DtypeBool, Bools(true, false)),
			`np.array([True, False])`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ds := NewDataset().SetDataVar("v", c.arr)
			_, got, err := Render(ds, nil, WithLineWidth(1000))
			require.NoError(t, err)
			assert.Equal(t, `xr.Dataset({"v": (("x",), `+c.want+`)}, coords={})`, got)
		})
	}
}

func TestRenderZeroLengthDimension(t *testing.T) {
	ds := NewDataset().
		SetDataVar("v", NewVariable([]string{"x", "y"}, []int{2, 0}, DtypeFloat64, nil)).
		SetDataVar("w", NewVariable([]string{"y", "x"}, []int{0, 2}, DtypeFloat64, nil))

	reduced, got, err := Render(ds, nil, WithLineWidth(1000))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"x": 2, "y": 0}, Sizes(reduced))
	assert.Equal(t, `xr.Dataset({"v": (("x", "y"), np.array([[], []])), "w": (("y", "x"), np.array([]).reshape((0, 2)))}, coords={})`, got)
}

func TestRenderScalar(t *testing.T) {
	ds := NewDataset().SetDataVar("s", NewVariable(nil, nil, DtypeFloat64, Floats(2.5)))
	_, got, err := Render(ds, nil)
	require.NoError(t, err)
	assert.Equal(t, `xr.Dataset({"s": ((), np.array(2.5))}, coords={})`, got)
}

func TestRenderPrecision(t *testing.T) {
	ds := NewDataset().SetDataVar("v", NewVariable1D("x", Floats(1.23456, 2.5e-7)))
	reduced, got, err := Render(ds, nil, WithPrecision(2))
	require.NoError(t, err)
	assert.Equal(t, `xr.Dataset({"v": (("x",), np.array([1.23, 0.0]))}, coords={})`, got)
	v, _ := reduced.DataVar("v")
	assert.Equal(t, 1.23, v.Values()[0].Float())

	// the input is left untouched
	orig, _ := ds.DataVar("v")
	assert.Equal(t, 1.23456, orig.Values()[0].Float())
}

func TestRenderNames(t *testing.T) {
	ds := NewDataset().SetDataVar("v", NewVariable1D("x", Floats(math.NaN())))
	_, got, err := Render(ds, nil, WithNames(Names{Dataset: "xarray.Dataset", NaN: "numpy.nan"}))
	require.NoError(t, err)
	assert.Equal(t, `xarray.Dataset({"v": (("x",), np.array([numpy.nan]))}, coords={})`, got)
}

func TestRenderLogsSelections(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	_, err := Repr(airDataset(), WithSeed(1), WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "selected")
	assert.Contains(t, buf.String(), "dim=time")
}

func TestRenderErrors(t *testing.T) {
	subMicro := day0.Add(time.Nanosecond)
	cases := []struct {
		name string
		ds   Dataset
		sel  IndexSelection
		opts []Option
		want error
	}{
		{"zero size", airDataset(), nil, []Option{WithSize(0)}, ErrConfiguration},
		{"zero width", airDataset(), nil, []Option{WithLineWidth(0)}, ErrConfiguration},
		{"position out of range", airDataset(), IndexSelection{"x": {3}}, nil, ErrConfiguration},
		{"repeated position", airDataset(), IndexSelection{"x": {1, 1}}, nil, ErrConfiguration},
		{"unknown dimension", airDataset(), IndexSelection{"y": {0}}, nil, ErrConfiguration},
		{"shape mismatch",
			NewDataset().
				SetDataVar("a", NewVariable1D("x", Ints(1, 2, 3))).
				SetDataVar("b", NewVariable1D("x", Ints(1, 2))),
			nil, nil, ErrStructuralInconsistency},
		{"value count",
			NewDataset().SetDataVar("a", NewVariable([]string{"x"}, []int{3}, DtypeInt64, Ints(1))),
			nil, nil, ErrStructuralInconsistency},
		{"complex dtype",
			NewDataset().SetDataVar("a", NewVariable([]string{"x"}, []int{1}, namedDtypes["complex128"], Floats(1))),
			nil, nil, ErrUnsupportedValueKind},
		{"sub-microsecond timestamp",
			NewDataset().SetCoord("t", NewVariable1D("t", Times(subMicro))),
			nil, nil, ErrUnsupportedValueKind},
		{"invalid utf-8",
			NewDataset().SetDataVar("a", NewVariable1D("x", Strings("\xff"))),
			nil, nil, ErrUnsupportedValueKind},
		{"invalid utf-8 dimension",
			NewDataset().SetDataVar("a", NewVariable1D("\xff", Ints(1))),
			nil, nil, ErrUnsupportedValueKind},
		{"invalid utf-8 array name",
			NewDataArray("\xff", NewVariable1D("x", Ints(1))),
			nil, nil, ErrUnsupportedValueKind},
		{"int8 overflow",
			NewDataset().SetDataVar("a", NewVariable([]string{"x"}, []int{1}, namedDtypes["int8"], Ints(300))),
			nil, nil, ErrUnsupportedValueKind},
		{"uint16 overflow",
			NewDataset().SetDataVar("a", NewVariable([]string{"x"}, []int{1}, namedDtypes["uint16"], []Value{Uint(1 << 16)})),
			nil, nil, ErrUnsupportedValueKind},
		{"finer than day resolution",
			NewDataset().SetCoord("t", NewVariable([]string{"t"}, []int{1}, Dtype{BOLittleEndian, BTDatetime, 8, "[D]"}, Times(day0.Add(12*time.Hour+30*time.Minute)))),
			nil, nil, ErrUnsupportedValueKind},
		{"year zero",
			NewDataset().SetCoord("t", NewVariable1D("t", Times(time.Date(0, 12, 31, 0, 0, 0, 0, time.UTC)))),
			nil, nil, ErrUnsupportedValueKind},
		{"year 10000",
			NewDataset().SetCoord("t", NewVariable1D("t", Times(time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)))),
			nil, nil, ErrUnsupportedValueKind},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, s, err := Render(c.ds, c.sel, c.opts...)
			assert.True(t, errors.Is(err, c.want), "got %v, want %v", err, c.want)
			assert.Empty(t, s)
		})
	}
}

func TestRenderErrorNamesVariable(t *testing.T) {
	ds := NewDataset().SetCoord("when", NewVariable1D("t", Times(day0.Add(time.Nanosecond))))
	_, _, err := Render(ds, nil)
	var verr *VariableError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "when", verr.Name)
}

func TestTake(t *testing.T) {
	got, err := Take(airDataset(), IndexSelection{"x": {2}})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"time": 5, "x": 1}, Sizes(got))
	air, _ := got.DataVar("air")
	assert.Equal(t, Floats(2.5, 5.5, 8.5, 11.5, 14.5), air.Values())
}

type scripted []int

func (s *scripted) IntN(n int) int {
	v := (*s)[0]
	*s = (*s)[1:]
	return v % n
}
