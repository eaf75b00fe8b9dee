package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"wanwatch/internal/config"
	"wanwatch/internal/types"
	"wanwatch/internal/version"

	"go.uber.org/zap"
)

// ipAPIResponse is the ip-api.com JSON schema
type ipAPIResponse struct {
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	Country     string   `json:"country"`
	CountryCode string   `json:"countryCode"`
	City        string   `json:"city"`
	RegionName  string   `json:"regionName"`
	ISP         string   `json:"isp"`
	Org         string   `json:"org"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Timezone    string   `json:"timezone"`
}

// Enricher looks up geolocation metadata for an address
type Enricher struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewEnricher creates an ip-api.com backed enricher
func NewEnricher(cfg *config.GeoConfig, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Enricher{
		baseURL: cfg.URL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("geo"),
	}
}

// Enrich returns location metadata for addr. Failures are logged and
// yield an empty Location.
func (e *Enricher) Enrich(ctx context.Context, addr types.Address) types.Location {
	loc, err := e.lookup(ctx, addr)
	if err != nil {
		e.logger.Warn("Failed to get location info",
			zap.String("address", addr.String()),
			zap.Error(err))
		return types.Location{}
	}
	return loc
}

func (e *Enricher) lookup(ctx context.Context, addr types.Address) (types.Location, error) {
	endpoint := e.baseURL + "/json/" + url.PathEscape(addr.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.Location{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := e.client.Do(req)
	if err != nil {
		return types.Location{}, fmt.Errorf("request failed: %w", err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return types.Location{}, fmt.Errorf("geolocation service returned status %d", resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return types.Location{}, fmt.Errorf("failed to decode response: %w", err)
	}

	// ip-api answers 200 with status "fail" for reserved or invalid queries
	if body.Status == "fail" {
		return types.Location{}, fmt.Errorf("lookup failed: %s", body.Message)
	}

	return types.Location{
		Country:     body.Country,
		CountryCode: body.CountryCode,
		City:        body.City,
		Region:      body.RegionName,
		ISP:         body.ISP,
		Org:         body.Org,
		Lat:         body.Lat,
		Lon:         body.Lon,
		Timezone:    body.Timezone,
	}, nil
}
