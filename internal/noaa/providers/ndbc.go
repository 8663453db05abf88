package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/i474232898/noaa-tides/internal/noaa"
)

// DefaultNDBCURL is the directory holding the realtime2 station feeds.
const DefaultNDBCURL = "https://www.ndbc.noaa.gov/data/realtime2"

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 1 << 20

// NDBCProvider implements noaa.FeedFetcher for the NDBC realtime text feeds.
type NDBCProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *breakerSet
}

// NewNDBCProvider creates a provider. An empty baseURL uses DefaultNDBCURL.
func NewNDBCProvider(client *http.Client, baseURL string) *NDBCProvider {
	if baseURL == "" {
		baseURL = DefaultNDBCURL
	}
	return &NDBCProvider{
		name:    "ndbc",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newBreakerSet("ndbc"),
	}
}

func (p *NDBCProvider) Name() string {
	return p.name
}

// FetchFeed downloads {baseURL}/{station}.txt.
func (p *NDBCProvider) FetchFeed(ctx context.Context, station string) (string, error) {
	u := fmt.Sprintf("%s/%s.txt", p.baseURL, url.PathEscape(station))
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit.get(station), buildRequest)
	if err != nil {
		return "", fmt.Errorf("ndbc %s: %w", station, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("ndbc %s: read body: %w: %w", station, noaa.ErrConnectivity, err)
	}
	return string(body), nil
}
