package binanceclient

import (
	"context"
	"time"

	"cryptoPulseBot/internal/ports"

	"github.com/jpillora/backoff"
)

// withRetry runs call after waiting on the rate limiter, retrying transient
// failures with jittered exponential backoff. The returned error is classified.
func (c *Client) withRetry(ctx context.Context, op string, call func(ctx context.Context) error) error {
	b := &backoff.Backoff{
		Min:    c.retryMinDelay,
		Max:    c.retryMaxDelay,
		Factor: 2,
		Jitter: true,
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.handleError(ctx, err, op)
		}

		err := call(ctx)
		if err == nil {
			if attempt > 0 {
				c.logger.Info(ctx, op+" succeeded after retry", map[string]interface{}{"attempts": attempt + 1})
			}
			return nil
		}

		classified := classifyError(err, op)
		if !ports.IsTransient(classified) || attempt >= c.maxRetries {
			return c.handleError(ctx, err, op)
		}

		delay := b.Duration()
		c.logger.Warn(ctx, op+" failed, retrying", map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay.String(),
			"error":   err.Error(),
		})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return c.handleError(ctx, ctx.Err(), op)
		case <-timer.C:
		}
	}
}
