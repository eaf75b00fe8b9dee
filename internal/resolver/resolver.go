package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"wanwatch/internal/config"
	"wanwatch/internal/types"
	"wanwatch/internal/validator"
	"wanwatch/internal/version"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// ErrNoAddress is returned when every provider failed
var ErrNoAddress = errors.New("no provider returned an address")

// maxBodySize bounds provider responses; ipapi.co returns a full profile
const maxBodySize = 16 << 10

// Resolver determines the external address by trying providers in order
type Resolver struct {
	providers []Provider
	timeout   time.Duration
	client    *http.Client
	validate  *validator.Validator
	logger    *zap.Logger
}

// NewResolver creates a resolver over the configured providers
func NewResolver(cfg *config.ResolverConfig, logger *zap.Logger) (*Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("at least one address provider is required")
	}

	providers := make([]Provider, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		schema := Schema(p.Schema)
		if !schema.Valid() {
			return nil, fmt.Errorf("provider %s: unknown schema %q", p.Name, p.Schema)
		}
		providers = append(providers, Provider{Name: p.Name, URL: p.URL, Schema: schema})
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Resolver{
		providers: providers,
		timeout:   timeout,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		},
		validate: validator.New(),
		logger:   logger.Named("resolver"),
	}, nil
}

// Providers returns the providers in the order they are tried
func (r *Resolver) Providers() []Provider {
	return append([]Provider(nil), r.providers...)
}

// Resolve returns the address reported by the first provider that
// answers usefully. Later providers are not contacted.
func (r *Resolver) Resolve(ctx context.Context) (types.Address, error) {
	var errs *multierror.Error

	for _, p := range r.providers {
		addr, err := r.fetch(ctx, p)
		if err != nil {
			r.logger.Warn("Address provider failed",
				zap.String("provider", p.Name),
				zap.String("url", p.URL),
				zap.Error(err))
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", p.Name, err))
			continue
		}

		r.logger.Debug("Resolved external address",
			zap.String("provider", p.Name),
			zap.String("address", addr.String()))
		return addr, nil
	}

	return "", fmt.Errorf("%w: %w", ErrNoAddress, errs.ErrorOrNil())
}

// fetch queries a single provider
func (r *Resolver) fetch(ctx context.Context, p Provider) (types.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			r.logger.Debug("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	value, err := p.Schema.Extract(body)
	if err != nil {
		return "", err
	}

	if !r.validate.IsIP(value) {
		return "", fmt.Errorf("invalid address: %q", value)
	}

	return types.Address(value), nil
}
