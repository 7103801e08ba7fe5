package distance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gigbooks/bookkeeping/engine"
)

// =============================================================================
// HTTP CLIENT - Routing service implementation
// =============================================================================

// Client calls the routing service's /distance endpoint.
type Client struct {
	http *resty.Client
}

// NewClient creates a Client for the given routing service base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond),
	}
}

var _ Calculator = (*Client)(nil)

// Distance resolves driving miles between two addresses. A non-2xx response
// or an "error" status from the service maps to ErrDistanceUnavailable.
func (c *Client) Distance(ctx context.Context, req Request) (Result, error) {
	var result Result
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/distance")
	if err != nil {
		return Result{Status: "error", Error: err.Error()},
			fmt.Errorf("%w: %v", engine.ErrDistanceUnavailable, err)
	}
	if resp.IsError() {
		return Result{Status: "error", Error: resp.Status()},
			fmt.Errorf("%w: routing service returned %s", engine.ErrDistanceUnavailable, resp.Status())
	}
	if result.Status != "success" {
		return result, fmt.Errorf("%w: %s", engine.ErrDistanceUnavailable, result.Error)
	}
	return result, nil
}

// =============================================================================
// STATIC CALCULATOR - Deterministic routes for dev/tests
// =============================================================================

// Static resolves distance from a fixed route table keyed by
// "start|end". Unknown routes fall back to DefaultMiles when positive,
// otherwise error.
type Static struct {
	Routes       map[string]float64
	DefaultMiles float64
}

var _ Calculator = (*Static)(nil)

func (s *Static) Distance(_ context.Context, req Request) (Result, error) {
	miles, ok := s.Routes[req.StartAddress+"|"+req.EndAddress]
	if !ok {
		if s.DefaultMiles <= 0 {
			return Result{Status: "error", Error: "address not found"},
				fmt.Errorf("%w: no route from %q to %q", engine.ErrDistanceUnavailable, req.StartAddress, req.EndAddress)
		}
		miles = s.DefaultMiles
	}
	if req.RoundTrip {
		miles *= 2
	}
	return Result{Status: "success", DistanceMiles: miles}, nil
}
