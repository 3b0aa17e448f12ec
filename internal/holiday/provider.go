package holiday

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Provider fetches the raw public-holiday response for one region and year.
// The body must be a JSON array of Records.
type Provider interface {
	Fetch(ctx context.Context, region string, year int) ([]byte, error)
}

// ErrUpstreamStatus is returned when the remote provider answers with a
// non-200 status.
var ErrUpstreamStatus = errors.New("unexpected upstream status")

const maxResponseBytes = 4 << 20

// HTTPProvider queries a Nager.Date compatible endpoint:
// GET {BaseURL}/{year}/{region}.
type HTTPProvider struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPProvider returns a provider with its own client bounded by timeout.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Fetch(ctx context.Context, region string, year int) ([]byte, error) {
	url := fmt.Sprintf("%s/%d/%s", p.BaseURL, year, region)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUpstreamStatus, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
