package waitfor

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Analytics beacons arrive out of band while the scenario keeps driving the
// UI, so callers poll the captured log with a bounded backoff before
// validating. The tracker itself never blocks; absence after the budget is
// a verdict, not an error.

type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	Multiplier      float64
}

func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		MaxElapsedTime:  15 * time.Second,
		Multiplier:      2.0,
	}
}

var errNoneYet = errors.New("waitfor: no matching events yet")

// Events polls query until it reports at least one match, the context is
// cancelled, or the policy's elapsed budget runs out. It returns the final
// count; zero means the budget expired with nothing captured.
func Events(ctx context.Context, policy Policy, query func() int) int {
	if policy.InitialInterval <= 0 {
		policy = DefaultPolicy()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval
	b.MaxElapsedTime = policy.MaxElapsedTime
	if policy.Multiplier > 0 {
		b.Multiplier = policy.Multiplier
	}

	var n int
	operation := func() error {
		n = query()
		if n == 0 {
			return errNoneYet
		}
		return nil
	}

	_ = backoff.Retry(operation, backoff.WithContext(b, ctx))
	return n
}
