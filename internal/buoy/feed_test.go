package buoy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const realtimeFeed = `#YY  MM DD hh mm WDIR WSPD GST  WVHT   DPD   APD MWD   PRES  ATMP  WTMP  DEWP  VIS PTDY  TIDE
#yr  mo dy hr mn degT m/s  m/s     m   sec   sec degT   hPa  degC  degC  degC  nmi  hPa    ft
2024 06 01 18 40 270  5.0  6.0   0.5     6   4.6 264 1019.5  10.1  11.2   5.4   MM -1.2    MM
2024 06 01 18 30 260  4.0  5.0    MM    MM    MM  MM 1019.6  10.0  11.1   5.3   MM   MM    MM
`

func TestParse_RealtimeFeed(t *testing.T) {
	obs, err := Parse(realtimeFeed)
	require.NoError(t, err)

	assert.Equal(t, "YY", obs.Codes()[0])
	assert.Len(t, obs.Codes(), 19)

	wtmp, ok := obs.Field("WTMP")
	require.True(t, ok)
	assert.Equal(t, "degC", wtmp.Unit)
	v, ok := wtmp.Value.Float()
	require.True(t, ok)
	assert.Equal(t, 11.2, v)

	wdir, ok := obs.Field("WDIR")
	require.True(t, ok)
	n, ok := wdir.Value.Int()
	require.True(t, ok)
	assert.Equal(t, int64(270), n)

	vis, ok := obs.Field("VIS")
	require.True(t, ok)
	assert.True(t, vis.Value.IsMissing())

	ptdy, _ := obs.Field("PTDY")
	p, ok := ptdy.Value.Float()
	require.True(t, ok)
	assert.Equal(t, -1.2, p)

	ts, err := obs.Time()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 18, 40, 0, 0, time.UTC), ts)
}

func TestParse_MissingSentinel(t *testing.T) {
	obs, err := Parse("#WTMP ATMP\n#degC degC\n15.5 MM\n")
	require.NoError(t, err)

	wtmp, ok := obs.Field("WTMP")
	require.True(t, ok)
	assert.Equal(t, "degC", wtmp.Unit)
	assert.Equal(t, 15.5, wtmp.Value.Any())

	atmp, ok := obs.Field("ATMP")
	require.True(t, ok)
	assert.Equal(t, "degC", atmp.Unit)
	assert.True(t, atmp.Value.IsMissing())
	assert.Nil(t, atmp.Value.Any())
	_, ok = atmp.Value.Float()
	assert.False(t, ok, "missing values must never become numbers")
}

func TestParse_TooFewLines(t *testing.T) {
	_, err := Parse("#WTMP ATMP\n#degC degC\n")
	require.ErrorIs(t, err, ErrMalformedFeed)

	_, err = Parse("")
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestParse_ShortRow(t *testing.T) {
	_, err := Parse("#WTMP ATMP\n#degC degC\n15.5\n")
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestParse_ShortUnits(t *testing.T) {
	_, err := Parse("#WTMP ATMP\n#degC\n15.5 16.0\n")
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestParse_NonNumeric(t *testing.T) {
	_, err := Parse("#WTMP ATMP\n#degC degC\n15.5 abc\n")
	require.ErrorIs(t, err, ErrMalformedFeed)

	_, err = Parse("#WTMP ATMP\n#degC degC\n1.2.3 4\n")
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestParse_CRLF(t *testing.T) {
	obs, err := Parse("#WTMP\r\n#degC\r\n12.0\r\n")
	require.NoError(t, err)
	f, ok := obs.Field("WTMP")
	require.True(t, ok)
	assert.Equal(t, 12.0, f.Value.Any())
}

func TestObservationTime_TwoDigitYear(t *testing.T) {
	obs, err := Parse("#YY MM DD hh mm WTMP\n#yr mo dy hr mn degC\n24 06 01 07 05 11.0\n")
	require.NoError(t, err)

	ts, err := obs.Time()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 7, 5, 0, 0, time.UTC), ts)
}

func TestObservationTime_MissingColumn(t *testing.T) {
	obs, err := Parse("#YY MM DD hh WTMP\n#yr mo dy hr degC\n2024 06 01 07 11.0\n")
	require.NoError(t, err)
	assert.False(t, obs.HasTime())

	_, err = obs.Time()
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestObservationTime_SentinelInTimestamp(t *testing.T) {
	obs, err := Parse("#YY MM DD hh mm\n#yr mo dy hr mn\n2024 06 01 MM 00\n")
	require.NoError(t, err)
	assert.True(t, obs.HasTime())

	_, err = obs.Time()
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestObservationTime_OutOfRange(t *testing.T) {
	rows := map[string]string{
		"month":  "2024 13 01 07 05",
		"day":    "2024 06 32 07 05",
		"feb 30": "2024 02 30 07 05",
		"hour":   "2024 06 01 25 05",
		"minute": "2024 06 01 07 61",
		"all":    "2024 13 32 25 61",
	}
	for name, row := range rows {
		t.Run(name, func(t *testing.T) {
			obs, err := Parse("#YY MM DD hh mm WTMP\n#yr mo dy hr mn degC\n" + row + " 15.5\n")
			require.NoError(t, err)

			_, err = obs.Time()
			require.ErrorIs(t, err, ErrMalformedFeed)
		})
	}
}

func TestIsTimeField(t *testing.T) {
	for _, code := range []string{"YY", "MM", "DD", "hh", "mm"} {
		assert.True(t, IsTimeField(code), code)
	}
	assert.False(t, IsTimeField("WTMP"))
	assert.False(t, IsTimeField("yy"))
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("MM")
	require.NoError(t, err)
	assert.True(t, v.IsMissing())
	assert.Equal(t, "MM", v.String())

	v, err = ParseValue("+0.3")
	require.NoError(t, err)
	assert.Equal(t, 0.3, v.Any())

	v, err = ParseValue("06")
	require.NoError(t, err)
	assert.Equal(t, int64(6), v.Any())
	assert.Equal(t, "6", v.String())

	assert.True(t, Value{}.IsMissing())
}
