package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Pruner deletes audit records that have aged out of the retention window.
type Pruner struct {
	sink   Sink
	config PrunerConfig
	logger *slog.Logger
}

// PrunerConfig contains configuration for the Pruner.
type PrunerConfig struct {
	// RetentionDays is how long audit records are kept.
	RetentionDays int

	// PruneSchedule is the cron expression used by the Scheduler. Empty
	// disables scheduled pruning.
	PruneSchedule string
}

// NewPruner creates a Pruner against the given sink.
func NewPruner(cfg PrunerConfig, sink Sink, logger *slog.Logger) (*Pruner, error) {
	if cfg.RetentionDays < 1 {
		return nil, fmt.Errorf("retention days must be at least 1, got %d", cfg.RetentionDays)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		sink:   sink,
		config: cfg,
		logger: logger.With("component", "audit.pruner"),
	}, nil
}

// Prune deletes records older than the retention window and returns the
// number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)

	deleted, err := p.sink.Prune(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit pruning failed: %w", err)
	}

	p.logger.Info("audit records pruned",
		"deleted", deleted,
		"retention_days", p.config.RetentionDays,
	)
	return deleted, nil
}
