package analyses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"docreader-backend/internal/shared/config"
	"docreader-backend/internal/shared/metrics"
	"docreader-backend/internal/shared/telemetry"
)

// DefaultPollInterval is the wait between status queries of an in-progress job.
const DefaultPollInterval = 2 * time.Second

var errStillInProgress = errors.New("job still in progress")

// Checker performs a single status query.
type Checker interface {
	Check(ctx context.Context, jobID string) Result
}

// Policy controls the wait between queries. MaxAttempts of zero polls until a
// terminal state or cancellation. A Multiplier at or below 1 keeps the interval fixed.
type Policy struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
	MaxAttempts int
}

// PolicyFromConfig converts the configured poll settings.
func PolicyFromConfig(cfg config.PollConfig) Policy {
	return Policy{
		Interval:    cfg.Interval,
		MaxInterval: cfg.MaxInterval,
		Multiplier:  cfg.Multiplier,
		MaxAttempts: cfg.MaxAttempts,
	}
}

// Backoff returns the wait sequence between attempts.
func (p Policy) Backoff() retry.Backoff {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	next := interval
	var b retry.Backoff = retry.BackoffFunc(func() (time.Duration, bool) {
		wait := next
		if p.Multiplier > 1 {
			next = time.Duration(float64(next) * p.Multiplier)
			if p.MaxInterval > 0 && next > p.MaxInterval {
				next = p.MaxInterval
			}
		}
		return wait, false
	})
	if p.MaxAttempts > 0 {
		b = retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
	}
	return b
}

// Poller re-queries a job until it reaches a terminal state.
type Poller struct {
	Checker Checker
	Policy  Policy
	now     func() time.Time
}

// NewPoller constructs a Poller.
func NewPoller(checker Checker, policy Policy) *Poller {
	return &Poller{Checker: checker, Policy: policy, now: time.Now}
}

// Run queries jobID, passes every observed Result to emit, and returns the
// last one. Only IN_PROGRESS schedules another query, and queries never
// overlap. After ctx is cancelled nothing more is emitted, including the
// outcome of a query that was in flight.
func (p *Poller) Run(ctx context.Context, jobID string, emit func(Result)) Result {
	if emit == nil {
		emit = func(Result) {}
	}
	started := p.now()
	attempts := 0
	var last Result

	err := retry.Do(ctx, p.Policy.Backoff(), func(ctx context.Context) error {
		attempts++
		res := p.Checker.Check(ctx, jobID)
		if err := ctx.Err(); err != nil {
			return err
		}
		last = res
		emit(res)
		if res.State == StateInProgress {
			return retry.RetryableError(errStillInProgress)
		}
		return nil
	})

	fields := map[string]any{
		"request_id": requestIDFromContext(ctx),
		"job_id":     jobID,
		"attempts":   attempts,
	}
	switch {
	case ctx.Err() != nil:
		fields["state"] = string(last.State)
		telemetry.Info("poller.cancelled", fields)
		return last
	case errors.Is(err, errStillInProgress):
		last = Result{
			JobID:   jobID,
			State:   StateError,
			Message: fmt.Sprintf("polling stopped after %d attempts", attempts),
		}
		emit(last)
		telemetry.Warn("poller.capped", fields)
	}

	metrics.IncJobTerminal(string(last.State))
	metrics.ObserveJobWaitMs(float64(p.now().Sub(started).Milliseconds()))
	fields["state"] = string(last.State)
	telemetry.Info("poller.finished", fields)
	return last
}
