package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vertax/pkg/apperror"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// HTTPDoer is the subset of *http.Client the providers need.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPConfig is shared by every HTTP price source.
type HTTPConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	RateLimiter    *rate.Limiter
	Client         HTTPDoer
}

// DefaultHTTPConfig allows requestsPerSecond sustained calls with a small burst.
// A non-positive rate disables throttling.
func DefaultHTTPConfig(baseURL, apiKey string, requestsPerSecond float64, timeout time.Duration) HTTPConfig {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return HTTPConfig{
		BaseURL:        baseURL,
		APIKey:         apiKey,
		RequestTimeout: timeout,
		RateLimiter:    rate.NewLimiter(limit, 5),
		Client:         &http.Client{},
	}
}

// baseHTTPProvider throttles, bounds and decodes JSON GET requests.
type baseHTTPProvider struct {
	name string
	cfg  HTTPConfig
	log  zerolog.Logger
}

func newBaseHTTPProvider(name string, cfg HTTPConfig, log zerolog.Logger) baseHTTPProvider {
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.RateLimiter == nil {
		cfg.RateLimiter = rate.NewLimiter(rate.Inf, 1)
	}
	return baseHTTPProvider{name: name, cfg: cfg, log: log.With().Str("provider", name).Logger()}
}

// Name returns the provider name used in logs and config.
func (b *baseHTTPProvider) Name() string { return b.name }

// getJSON decodes the body of a 200 response into out.
// Every failure comes back as apperror.ErrProviderUnavailable.
func (b *baseHTTPProvider) getJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	if err := b.cfg.RateLimiter.Wait(ctx); err != nil {
		return b.unavailable(fmt.Errorf("rate limiter: %w", err))
	}

	if b.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.RequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return b.unavailable(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := b.cfg.Client.Do(req)
	if err != nil {
		return b.unavailable(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	b.log.Debug().
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("price request completed")

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return b.unavailable(fmt.Errorf("status %d: %s", resp.StatusCode, snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return b.unavailable(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func (b *baseHTTPProvider) unavailable(err error) error {
	return apperror.ErrProviderUnavailable(b.name, err)
}
