package websocket

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff configures the retry delays of the delivery subscription.
type Backoff struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

var defaultBackoff = Backoff{
	InitialInterval:     200 * time.Millisecond,
	MaxInterval:         10 * time.Second,
	Multiplier:          2,
	RandomizationFactor: 0.5,
}

// newBackOff - an exponential policy that retries until ctx is done.
func (that Backoff) newBackOff(ctx context.Context) backoff.BackOffContext {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = that.InitialInterval
	policy.MaxInterval = that.MaxInterval
	policy.Multiplier = that.Multiplier
	policy.RandomizationFactor = that.RandomizationFactor
	policy.MaxElapsedTime = 0
	policy.Reset()

	return backoff.WithContext(policy, ctx)
}
