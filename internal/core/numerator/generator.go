package numerator

import (
	"context"
	"time"
)

// Generator produces unique order codes.
// Pattern: PREFIX-YEAR-XXXXX (e.g., SO-2026-00001)
type Generator interface {
	// GetNextNumber generates the next code for cfg.Prefix.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber moves the sequence (used when importing historical orders).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
