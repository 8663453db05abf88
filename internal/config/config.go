package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/i474232898/noaa-tides/internal/noaa"
	"github.com/i474232898/noaa-tides/internal/units"
)

var validate = validator.New()

// StationConfig is one entry of NOAA_SENSORS.
type StationConfig struct {
	Kind    noaa.Kind `validate:"required,oneof=tides temp buoy"`
	Station string    `validate:"required,alphanum"`
	Name    string
}

type AppConfig struct {
	Sensors []StationConfig `validate:"required,min=1,dive"`

	TimeZone noaa.TimezoneMode `validate:"oneof=gmt lst lst_ldt"`
	Units    units.System      `validate:"oneof=english metric"`
	// DisplayLocation is where lst and lst_ldt render times.
	DisplayLocation *time.Location

	// RefreshInterval is ignored when RefreshCron is set.
	RefreshInterval time.Duration `validate:"gte=1s"`
	RefreshCron     string
	RefreshTimeout  time.Duration `validate:"gt=0s"`
	HTTPTimeout     time.Duration `validate:"gt=0s"`

	// In-memory store retention.
	StoreMaxHistory int           `validate:"gte=0"` // max snapshots per sensor (0 = unlimited)
	StoreMaxAge     time.Duration `validate:"gte=0s"`

	Port     string `validate:"required,numeric"`
	AppEnv   string `validate:"oneof=dev prod"`
	LogLevel slog.Level

	MQTTBroker      string
	MQTTPort        int    `validate:"gt=0,lte=65535"`
	MQTTClientID    string `validate:"required"`
	MQTTTopicPrefix string

	CoopsBaseURL string `validate:"omitempty,url"`
	NDBCBaseURL  string `validate:"omitempty,url"`
}

// MQTTEnabled reports whether snapshots should be published to a broker.
func (c *AppConfig) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

// Load reads configuration from the environment (and .env) with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}
	return FromEnv()
}

// FromEnv builds and validates the configuration from the process environment.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	if cfg.Sensors, err = ParseSensors(os.Getenv("NOAA_SENSORS")); err != nil {
		return nil, err
	}

	if cfg.TimeZone, err = noaa.ParseTimezoneMode(getenvDefault("NOAA_TIME_ZONE", string(noaa.TimezoneLSTLDT))); err != nil {
		return nil, fmt.Errorf("invalid NOAA_TIME_ZONE: %w", err)
	}

	if v := os.Getenv("NOAA_UNIT_SYSTEM"); v != "" {
		if cfg.Units, err = units.ParseSystem(v); err != nil {
			return nil, fmt.Errorf("invalid NOAA_UNIT_SYSTEM: %w", err)
		}
	} else {
		cfg.Units = units.FromHostUnits(getenvDefault("HOST_UNITS", "metric"))
	}

	cfg.DisplayLocation = time.Local
	if name := os.Getenv("DISPLAY_TIMEZONE"); name != "" {
		if cfg.DisplayLocation, err = time.LoadLocation(name); err != nil {
			return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
		}
	}

	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "5m"); err != nil {
		return nil, err
	}
	cfg.RefreshCron = strings.TrimSpace(os.Getenv("REFRESH_CRON"))
	if cfg.RefreshCron != "" {
		if _, err := cron.ParseStandard(cfg.RefreshCron); err != nil {
			return nil, fmt.Errorf("invalid REFRESH_CRON: %w", err)
		}
	}
	if cfg.RefreshTimeout, err = getenvDuration("REFRESH_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	// 288 is 24h of snapshots at the default 5-minute interval.
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 288); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.AppEnv = getenvDefault("APP_ENV", "prod")
	if cfg.LogLevel, err = parseLogLevel(getenvDefault("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	cfg.MQTTBroker = strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	if cfg.MQTTPort, err = getenvInt("MQTT_PORT", 1883); err != nil {
		return nil, err
	}
	cfg.MQTTClientID = getenvDefault("MQTT_CLIENT_ID", "noaa-tides")
	cfg.MQTTTopicPrefix = getenvDefault("MQTT_TOPIC_PREFIX", "noaa")

	cfg.CoopsBaseURL = os.Getenv("COOPS_BASE_URL")
	cfg.NDBCBaseURL = os.Getenv("NDBC_BASE_URL")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ParseSensors reads a comma separated list of type:station[:name] entries.
func ParseSensors(raw string) ([]StationConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("NOAA_SENSORS is required (e.g. tides:8518750:Battery)")
	}

	seen := make(map[string]bool)
	var out []StationConfig
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid NOAA_SENSORS entry %q: want type:station[:name]", entry)
		}
		kind, err := noaa.ParseKind(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid NOAA_SENSORS entry %q: %w", entry, err)
		}

		sc := StationConfig{Kind: kind, Station: strings.TrimSpace(parts[1])}
		if len(parts) == 3 {
			sc.Name = strings.TrimSpace(parts[2])
		}

		key := string(kind) + "/" + sc.Station
		if seen[key] {
			return nil, fmt.Errorf("duplicate NOAA_SENSORS entry %q", entry)
		}
		seen[key] = true
		out = append(out, sc)
	}
	return out, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
