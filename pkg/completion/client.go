package completion

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Client wraps a Provider with an optional request rate limit so bursts of
// analyses stay inside provider quotas.
type Client struct {
	provider Provider
	limiter  *rate.Limiter
}

// NewClient builds a rate-limited completion client. A nil limiter disables
// throttling.
func NewClient(provider Provider, limiter *rate.Limiter) *Client {
	return &Client{provider: provider, limiter: limiter}
}

// Name reports the underlying provider's name.
func (c *Client) Name() string { return c.provider.Name() }

// Complete waits for rate-limit clearance, then delegates to the provider.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait aborted: %w", err)
		}
	}
	return c.provider.Complete(ctx, system, user)
}
