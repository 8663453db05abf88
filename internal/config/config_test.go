package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/noaa-tides/internal/noaa"
	"github.com/i474232898/noaa-tides/internal/units"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("NOAA_SENSORS", "tides:8518750:The Battery, temp:8518750, buoy:44025")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, []StationConfig{
		{Kind: noaa.KindTides, Station: "8518750", Name: "The Battery"},
		{Kind: noaa.KindTemperature, Station: "8518750"},
		{Kind: noaa.KindBuoy, Station: "44025"},
	}, cfg.Sensors)
	assert.Equal(t, noaa.TimezoneLSTLDT, cfg.TimeZone)
	assert.Equal(t, units.Metric, cfg.Units)
	assert.Equal(t, time.Local, cfg.DisplayLocation)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Empty(t, cfg.RefreshCron)
	assert.Equal(t, 30*time.Second, cfg.RefreshTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 288, cfg.StoreMaxHistory)
	assert.Equal(t, 24*time.Hour, cfg.StoreMaxAge)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "prod", cfg.AppEnv)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.MQTTEnabled())
	assert.Equal(t, 1883, cfg.MQTTPort)
	assert.Equal(t, "noaa-tides", cfg.MQTTClientID)
	assert.Equal(t, "noaa", cfg.MQTTTopicPrefix)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("NOAA_SENSORS", "buoy:LJPC1:La Jolla")
	t.Setenv("NOAA_TIME_ZONE", "gmt")
	t.Setenv("NOAA_UNIT_SYSTEM", "english")
	t.Setenv("DISPLAY_TIMEZONE", "UTC")
	t.Setenv("REFRESH_CRON", "*/10 * * * *")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APP_ENV", "dev")
	t.Setenv("MQTT_BROKER", "mosquitto")
	t.Setenv("MQTT_PORT", "8883")
	t.Setenv("COOPS_BASE_URL", "http://localhost:9000/datagetter")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, noaa.TimezoneGMT, cfg.TimeZone)
	assert.Equal(t, units.English, cfg.Units)
	assert.Equal(t, "UTC", cfg.DisplayLocation.String())
	assert.Equal(t, "*/10 * * * *", cfg.RefreshCron)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.True(t, cfg.MQTTEnabled())
	assert.Equal(t, 8883, cfg.MQTTPort)
	assert.Equal(t, "http://localhost:9000/datagetter", cfg.CoopsBaseURL)
}

func TestFromEnv_HostUnits(t *testing.T) {
	t.Setenv("NOAA_SENSORS", "tides:8518750")
	t.Setenv("HOST_UNITS", "imperial")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, units.English, cfg.Units)
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"no sensors":       {},
		"bad time zone":    {"NOAA_TIME_ZONE": "est"},
		"bad unit system":  {"NOAA_UNIT_SYSTEM": "imperial"},
		"bad display zone": {"DISPLAY_TIMEZONE": "Mars/Olympus"},
		"bad interval":     {"REFRESH_INTERVAL": "often"},
		"tiny interval":    {"REFRESH_INTERVAL": "10ms"},
		"bad cron":         {"REFRESH_CRON": "every minute"},
		"zero timeout":     {"REFRESH_TIMEOUT": "0s"},
		"bad history":      {"STORE_MAX_HISTORY": "lots"},
		"bad port":         {"PORT": "http"},
		"bad env":          {"APP_ENV": "staging"},
		"bad log level":    {"LOG_LEVEL": "verbose"},
		"bad mqtt port":    {"MQTT_PORT": "70000"},
		"bad base url":     {"NDBC_BASE_URL": "not a url"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if name != "no sensors" {
				t.Setenv("NOAA_SENSORS", "tides:8518750")
			} else {
				t.Setenv("NOAA_SENSORS", "")
			}
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestParseSensors(t *testing.T) {
	got, err := ParseSensors("tides:8518750:Pier: North end")
	require.NoError(t, err)
	assert.Equal(t, "Pier: North end", got[0].Name)

	_, err = ParseSensors("tides")
	assert.Error(t, err)
	_, err = ParseSensors("wind:123")
	assert.Error(t, err)
	_, err = ParseSensors("tides:1,tides:1")
	assert.ErrorContains(t, err, "duplicate")

	got, err = ParseSensors("temperature:1,tides:1")
	require.NoError(t, err)
	assert.Equal(t, noaa.KindTemperature, got[0].Kind)
}

func TestFromEnv_BadStationID(t *testing.T) {
	t.Setenv("NOAA_SENSORS", "tides:85 18")
	_, err := FromEnv()
	assert.Error(t, err)
}
