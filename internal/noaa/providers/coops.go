package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/noaa-tides/internal/noaa"
)

const (
	// DefaultCoopsURL is the CO-OPS datagetter endpoint.
	DefaultCoopsURL = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"

	coopsDateLayout = "20060102 15:04"
	coopsRowLayout  = "2006-01-02 15:04"
	application     = "noaa-tides"
)

// CoopsProvider implements noaa.DataGetter against the CO-OPS datagetter API.
type CoopsProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *breakerSet
}

// NewCoopsProvider creates a provider. An empty baseURL uses DefaultCoopsURL.
func NewCoopsProvider(client *http.Client, baseURL string) *CoopsProvider {
	if baseURL == "" {
		baseURL = DefaultCoopsURL
	}
	return &CoopsProvider{
		name:    "coops",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newBreakerSet("coops"),
	}
}

func (p *CoopsProvider) Name() string {
	return p.name
}

type coopsRow struct {
	T    string `json:"t"`
	V    string `json:"v"`
	Type string `json:"type"`
}

type coopsResponse struct {
	Predictions []coopsRow `json:"predictions"`
	Data        []coopsRow `json:"data"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Query runs one datagetter request. Begin and End are sent in UTC and only
// gmt queries are accepted.
func (p *CoopsProvider) Query(ctx context.Context, q noaa.Query) ([]noaa.Row, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("begin_date", q.Begin.UTC().Format(coopsDateLayout))
		values.Set("end_date", q.End.UTC().Format(coopsDateLayout))
		values.Set("station", q.Station)
		values.Set("product", string(q.Product))
		if q.Datum != "" {
			values.Set("datum", q.Datum)
		}
		if q.Interval != "" {
			values.Set("interval", q.Interval)
		}
		values.Set("units", string(q.Units))
		values.Set("time_zone", string(timeZoneOrGMT(q.TimeZone)))
		values.Set("application", application)
		values.Set("format", "json")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit.get(q.Station), buildRequest)
	if err != nil {
		return nil, fmt.Errorf("coops %s %s: %w", q.Product, q.Station, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("coops %s %s: read body: %w: %w", q.Product, q.Station, noaa.ErrConnectivity, err)
	}

	var payload coopsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("coops %s %s: %w: %v", q.Product, q.Station, noaa.ErrMalformedResponse, err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("coops %s %s: %w: %s", q.Product, q.Station, noaa.ErrNoData, strings.TrimSpace(payload.Error.Message))
	}

	raw := payload.Predictions
	if len(raw) == 0 {
		raw = payload.Data
	}

	rows := make([]noaa.Row, 0, len(raw))
	for _, r := range raw {
		// Gaps in observed products come back as an empty value.
		if strings.TrimSpace(r.V) == "" {
			continue
		}
		row, err := parseCoopsRow(r)
		if err != nil {
			return nil, fmt.Errorf("coops %s %s: %w: %v", q.Product, q.Station, noaa.ErrMalformedResponse, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("coops %s %s: %w", q.Product, q.Station, noaa.ErrNoData)
	}
	return rows, nil
}

func parseCoopsRow(r coopsRow) (noaa.Row, error) {
	ts, err := time.ParseInLocation(coopsRowLayout, r.T, time.UTC)
	if err != nil {
		return noaa.Row{}, fmt.Errorf("time %q: %w", r.T, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(r.V), 64)
	if err != nil {
		return noaa.Row{}, fmt.Errorf("value %q: %w", r.V, err)
	}
	return noaa.Row{Time: ts, Value: v, Type: r.Type}, nil
}

func timeZoneOrGMT(m noaa.TimezoneMode) noaa.TimezoneMode {
	if m == "" {
		return noaa.TimezoneGMT
	}
	return m
}

// validateQuery rejects local time zones. Row times are read as UTC, so only
// gmt queries can be interpreted; display conversion happens in the sensors.
func validateQuery(q noaa.Query) error {
	if tz := timeZoneOrGMT(q.TimeZone); tz != noaa.TimezoneGMT {
		return fmt.Errorf("coops %s %s: unsupported time_zone %q, only gmt", q.Product, q.Station, tz)
	}
	return nil
}
