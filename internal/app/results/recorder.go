// Package results records finished matches and serves the aggregated
// leaderboard views built from them.
package results

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nukewar/internal/ports"

	"github.com/sethvargo/go-retry"
)

var ErrInvalidOutcome = errors.New("invalid outcome")

// Logger is the subset of the Nakama runtime logger the package needs.
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

const (
	defaultMaxRetries = 4
	defaultBaseDelay  = 100 * time.Millisecond
	defaultMaxDelay   = 2 * time.Second
	defaultTimeout    = 5 * time.Second

	// recordedCap bounds the duplicate guard; the sink itself is idempotent
	// so forgetting old match ids only costs a redundant write.
	recordedCap = 4096
)

// Recorder hands finished match outcomes to an OutcomeSink exactly once per
// match id, retrying transient failures with exponential backoff.
type Recorder struct {
	sink   ports.OutcomeSink
	logger Logger

	maxRetries uint64
	baseDelay  time.Duration
	timeout    time.Duration

	mu       sync.Mutex
	recorded map[string]struct{}
	order    []string
}

// RecorderOption customizes a Recorder.
type RecorderOption func(*Recorder)

// WithRetry sets the retry budget and first backoff delay.
func WithRetry(maxRetries uint64, baseDelay time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.maxRetries = maxRetries
		r.baseDelay = baseDelay
	}
}

// WithTimeout bounds a single Record call including retries.
func WithTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) { r.timeout = d }
}

// NewRecorder constructs a Recorder.
func NewRecorder(sink ports.OutcomeSink, logger Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		sink:       sink,
		logger:     logger,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		timeout:    defaultTimeout,
		recorded:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record persists outcome unless its match was already recorded. Failures
// are logged and returned for inspection; callers are free to ignore them,
// the match itself is never affected.
func (r *Recorder) Record(ctx context.Context, outcome ports.Outcome) error {
	if err := validate(outcome); err != nil {
		r.logger.Warn("Record: dropping outcome for match %s: %v", outcome.MatchID, err)
		return err
	}
	if r.seen(outcome.MatchID) {
		r.logger.Info("Record: match %s already recorded", outcome.MatchID)
		return nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	backoff := retry.NewExponential(r.baseDelay)
	backoff = retry.WithCappedDuration(defaultMaxDelay, backoff)
	backoff = retry.WithMaxRetries(r.maxRetries, backoff)

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := r.sink.RecordOutcome(ctx, outcome); err != nil {
			if errors.Is(err, ErrInvalidOutcome) {
				return err
			}
			r.logger.Warn("Record: attempt %d for match %s failed: %v", attempt, outcome.MatchID, err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Record: giving up on match %s after %d attempts: %v", outcome.MatchID, attempt, err)
		return fmt.Errorf("record outcome %s: %w", outcome.MatchID, err)
	}

	r.markRecorded(outcome.MatchID)
	r.logger.Info("Record: match %s recorded as %s for %s", outcome.MatchID, outcome.Result, outcome.PlayerID)
	return nil
}

func validate(o ports.Outcome) error {
	switch {
	case o.MatchID == "":
		return fmt.Errorf("%w: missing match id", ErrInvalidOutcome)
	case o.PlayerID == "":
		return fmt.Errorf("%w: missing player id", ErrInvalidOutcome)
	case !o.Result.Valid():
		return fmt.Errorf("%w: unknown result %q", ErrInvalidOutcome, o.Result)
	}
	return nil
}

func (r *Recorder) seen(matchID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.recorded[matchID]
	return ok
}

func (r *Recorder) markRecorded(matchID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recorded[matchID]; ok {
		return
	}
	if len(r.order) >= recordedCap {
		delete(r.recorded, r.order[0])
		r.order = r.order[1:]
	}
	r.recorded[matchID] = struct{}{}
	r.order = append(r.order, matchID)
}
