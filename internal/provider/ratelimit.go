package provider

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/threshold-labs/sentry/internal/core"
)

// RateLimited wraps a ValueProvider with a token-bucket limiter so that
// parallel signal evaluations collectively respect the upstream feed's
// rate limits. Waiting counts against the caller's fetch timeout: if the
// context expires while queued, the read fails transiently like any
// other timed-out fetch.
type RateLimited struct {
	inner   ValueProvider
	limiter *rate.Limiter
}

// NewRateLimited creates a rate-limited wrapper allowing rps requests per
// second with the given burst.
func NewRateLimited(inner ValueProvider, rps float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimited) Name() string { return r.inner.Name() }

func (r *RateLimited) Fetch(ctx context.Context, sig core.Signal) (float64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, core.WrapError(core.ErrTransientFetch, err)
	}
	return r.inner.Fetch(ctx, sig)
}
