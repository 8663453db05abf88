package noaa

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensorID(t *testing.T) {
	a := SensorID(KindTides, "8518750")
	assert.Equal(t, a, SensorID(KindTides, "8518750"))
	assert.NotEqual(t, a, SensorID(KindTemperature, "8518750"))
	assert.NotEqual(t, a, SensorID(KindTides, "8518751"))

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestNewSensor(t *testing.T) {
	deps := Dependencies{DataGetter: newFakeGetter(), Feed: &fakeFeed{}, Logger: discardLogger()}

	for kind, want := range map[Kind]any{
		KindTides:       &TideSensor{},
		KindTemperature: &TemperatureSensor{},
		KindBuoy:        &BuoySensor{},
	} {
		s, err := NewSensor(kind, SensorConfig{Station: "1"}, deps)
		require.NoError(t, err, kind)
		assert.IsType(t, want, s)
		assert.Equal(t, kind, s.Kind())
		assert.Equal(t, "1", s.Station())
		assert.Equal(t, SensorID(kind, "1"), s.ID())
	}

	_, err := NewSensor(KindBuoy, SensorConfig{Station: "1"}, Dependencies{DataGetter: newFakeGetter()})
	assert.Error(t, err)
	_, err = NewSensor(KindTides, SensorConfig{Station: "1"}, Dependencies{Feed: &fakeFeed{}})
	assert.Error(t, err)
	_, err = NewSensor("wind", SensorConfig{Station: "1"}, deps)
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"tides":       KindTides,
		"temp":        KindTemperature,
		"Temperature": KindTemperature,
		" buoy ":      KindBuoy,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("currents")
	assert.Error(t, err)
}

func TestParseTimezoneMode(t *testing.T) {
	got, err := ParseTimezoneMode("LST_LDT")
	require.NoError(t, err)
	assert.Equal(t, TimezoneLSTLDT, got)

	_, err = ParseTimezoneMode("utc")
	assert.Error(t, err)
}

func TestAttributesOverlay(t *testing.T) {
	prior := Attributes{"WTMP": 15.5, "ATMP": 14.0}
	merged := prior.Overlay(Attributes{"WTMP": 16.0})

	assert.Equal(t, Attributes{"WTMP": 16.0, "ATMP": 14.0}, merged)
	assert.Equal(t, 15.5, prior["WTMP"], "overlay must not mutate the receiver")

	var empty Attributes
	assert.Equal(t, Attributes{"a": 1}, empty.Overlay(Attributes{"a": 1}))
}

func TestErrorClass(t *testing.T) {
	assert.Equal(t, "", ErrorClass(nil))
	assert.Equal(t, "connectivity", ErrorClass(fmt.Errorf("get: %w", ErrConnectivity)))
	assert.Equal(t, "malformed", ErrorClass(fmt.Errorf("parse: %w", ErrMalformedResponse)))
	assert.Equal(t, "no_data", ErrorClass(errors.Join(ErrNoData)))
	assert.Equal(t, "other", ErrorClass(errors.New("boom")))
}

func TestTimezoneMode_In(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	sydney, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)

	summer := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	winter := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "12:00", TimezoneGMT.Format(summer, ny, "15:04"))
	assert.Equal(t, "08:00", TimezoneLSTLDT.Format(summer, ny, "15:04"))
	assert.Equal(t, "07:00", TimezoneLST.Format(summer, ny, "15:04"))
	assert.Equal(t, "07:00", TimezoneLST.Format(winter, ny, "15:04"))

	// Southern hemisphere: daylight time is in January.
	assert.Equal(t, "23:00", TimezoneLSTLDT.Format(winter, sydney, "15:04"))
	assert.Equal(t, "22:00", TimezoneLST.Format(winter, sydney, "15:04"))
	assert.Equal(t, "22:00", TimezoneLST.Format(summer, sydney, "15:04"))
}
