package ai

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"
)

// backoff paces retries of one Generate call: jittered exponential delays
// starting at base and capped at max.
type backoff struct {
	attempts int
	base     time.Duration
	max      time.Duration
}

func newBackoff(attempts int, base, max time.Duration) backoff {
	if attempts <= 0 {
		attempts = 1
	}
	return backoff{attempts: attempts, base: base, max: max}
}

// delay is the wait before retry n (0-based).
func (b backoff) delay(n int) time.Duration {
	d := withJitter(b.base << n)
	if b.max > 0 && d > b.max {
		return b.max
	}
	return d
}

// retryable marks an attempt error worth another try. after, when positive,
// replaces the computed delay (a server-sent Retry-After).
type retryable struct {
	err   error
	after time.Duration
}

func (r *retryable) Error() string { return r.err.Error() }
func (r *retryable) Unwrap() error { return r.err }

// run calls attempt until it succeeds, fails with an error not wrapped in
// *retryable, or runs out of attempts. last tells attempt it gets no
// further tries, so it can return its final classified error.
func (b backoff) run(ctx context.Context, attempt func(last bool) error) error {
	var err error
	for i := 0; i < b.attempts; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		last := i == b.attempts-1
		err = attempt(last)
		var r *retryable
		if !errors.As(err, &r) {
			return err
		}
		err = r.err
		if last {
			break
		}
		wait := r.after
		if wait <= 0 {
			wait = b.delay(i)
		}
		if serr := sleepCtx(ctx, wait); serr != nil {
			return serr
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	// EOF or connection reset
	return errors.Is(err, io.EOF)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// parseRetryAfter reads a Retry-After header given as seconds or an HTTP date.
func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if s, err := strconv.Atoi(v); err == nil && s >= 0 {
		return time.Duration(s) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(time.Until(t), 0), true
	}
	return 0, false
}

// withJitter applies +/- 20% jitter.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	out := time.Duration(float64(d) * (0.8 + rand.Float64()*0.4))
	if out <= 0 {
		return d
	}
	return out
}
