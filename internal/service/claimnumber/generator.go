// Package claimnumber assigns BHYT claim numbers from a per-month counter.
package claimnumber

import (
	"context"
	"time"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
	"github.com/truongngoctrac/claims-platform/pkg/logger"
	"github.com/truongngoctrac/claims-platform/pkg/metrics"
)

type Config struct {
	RetryAttempts int
	RetryDelay    time.Duration
}

type Generator struct {
	seq     repository.SequenceRepository
	config  Config
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewGenerator(seq repository.SequenceRepository, config Config, log *logger.Logger, m *metrics.Metrics) *Generator {
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 5
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 10 * time.Millisecond
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{seq: seq, config: config, logger: log, metrics: m}
}

// MonthKey returns the YYYYMM bucket of t.
func MonthKey(t time.Time) string { return model.MonthKey(t) }

func Format(monthKey string, seq int64) string { return model.FormatClaimNumber(monthKey, seq) }

func Parse(number string) (string, int64, error) { return model.ParseClaimNumber(number) }

// Next reserves the next number for monthKey. Store conflicts are retried
// with linear backoff; every other failure surfaces immediately.
func (g *Generator) Next(ctx context.Context, monthKey string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= g.config.RetryAttempts; attempt++ {
		seq, err := g.seq.Next(ctx, monthKey)
		if err == nil {
			if seq > model.MaxClaimSequence {
				return "", errors.SequenceExhausted(monthKey)
			}
			return Format(monthKey, seq), nil
		}
		if !errors.HasReason(err, errors.ReasonSequenceConflict) {
			return "", err
		}

		lastErr = err
		g.metrics.ObserveSequenceRetry(monthKey)
		g.logger.Warn("claim sequence conflict, retrying", "month_key", monthKey, "attempt", attempt)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.config.RetryDelay * time.Duration(attempt)):
		}
	}
	return "", lastErr
}
