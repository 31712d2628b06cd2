// Package cmdlog wraps a bot stage with timing, error counting and a log line.
package cmdlog

import (
	"log/slog"
	"time"

	"rugguard/internal/metrics"
)

func Run(logger *slog.Logger, stage string, f func() error) error {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	err := f()
	metrics.ObserveStage(stage, start)
	if err != nil {
		metrics.StageErrors.WithLabelValues(stage).Inc()
		logger.Warn(stage+"_error", "err", err, "elapsed", time.Since(start))
	} else {
		logger.Debug(stage+"_ok", "elapsed", time.Since(start))
	}
	return err
}
