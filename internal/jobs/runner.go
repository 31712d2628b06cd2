// Package jobs drives the poll, analyze, verify and reply loop.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"rugguard/internal/cmdlog"
	"rugguard/internal/metrics"
	"rugguard/internal/model"
	"rugguard/internal/xclient"
)

type Watcher interface {
	Poll(ctx context.Context) ([]model.TriggerEvent, error)
	ResolveSubject(ctx context.Context, ev model.TriggerEvent) (string, error)
	RateLimited(retryAfter time.Duration) time.Duration
	Remaining() time.Duration
}

type Analyzer interface {
	Analyze(ctx context.Context, accountID string) (model.AccountAnalysis, error)
}

type Verifier interface {
	Check(ctx context.Context, accountID string) model.VouchResult
}

type Publisher interface {
	Publish(ctx context.Context, inReplyTo string, r model.TrustReport)
}

// Runner handles triggers one at a time. Events interrupted by a rate limit are kept
// and handled first on the next cycle.
type Runner struct {
	Monitor  Watcher
	Analyzer Analyzer
	Verifier Verifier
	Reporter Publisher

	PollInterval time.Duration
	ErrorSleep   time.Duration
	Log          *slog.Logger
	// Sleep defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	pending []model.TriggerEvent
}

// RunOnce runs a single cycle and returns how long to wait before the next one.
func (r *Runner) RunOnce(ctx context.Context) time.Duration {
	log := r.logger()
	if d := r.Monitor.Remaining(); d > 0 {
		log.Info("rate limit window still open", "remaining", d, "pending", len(r.pending))
		return d
	}
	metrics.Polls.Inc()

	var events []model.TriggerEvent
	err := cmdlog.Run(log, "poll", func() error {
		var err error
		events, err = r.Monitor.Poll(ctx)
		return err
	})
	if err != nil {
		if rl, ok := xclient.AsRateLimit(err); ok {
			metrics.RateLimited.Inc()
			return r.Monitor.RateLimited(rl.RetryAfter)
		}
		log.Error("poll failed", "err", err)
		return r.ErrorSleep
	}

	queue := append(r.pending, events...)
	r.pending = nil
	for i, ev := range queue {
		if ctx.Err() != nil {
			r.pending = queue[i:]
			return 0
		}
		requeue, err := r.handle(ctx, ev)
		if err == nil {
			continue
		}
		var retryAfter time.Duration
		if rl, ok := xclient.AsRateLimit(err); ok {
			retryAfter = rl.RetryAfter
		}
		metrics.RateLimited.Inc()
		if requeue {
			r.pending = queue[i:]
		} else {
			r.pending = queue[i+1:]
		}
		log.Warn("rate limited while handling triggers", "tweet_id", ev.MessageID, "pending", len(r.pending))
		return r.Monitor.RateLimited(retryAfter)
	}
	return r.PollInterval
}

// handle serves one trigger. A non-nil error is always a rate limit; requeue reports
// whether ev still needs a reply.
func (r *Runner) handle(ctx context.Context, ev model.TriggerEvent) (requeue bool, err error) {
	log := r.logger().With("tweet_id", ev.MessageID)
	metrics.Triggers.Inc()

	var subject string
	if err := cmdlog.Run(log, "resolve", func() error {
		var err error
		subject, err = r.Monitor.ResolveSubject(ctx, ev)
		return err
	}); err != nil {
		return true, err
	}
	if subject == "" {
		log.Info("no subject for trigger, skipping")
		return false, nil
	}

	var rep model.TrustReport
	aerr := cmdlog.Run(log, "analyze", func() error {
		var err error
		rep.Analysis, err = r.Analyzer.Analyze(ctx, subject)
		return err
	})
	if aerr != nil {
		rep.Err = aerr
		r.publish(ctx, log, ev, rep)
		if _, ok := xclient.AsRateLimit(aerr); ok {
			return false, aerr
		}
		return false, nil
	}

	_ = cmdlog.Run(log, "verify", func() error {
		rep.Vouch = r.Verifier.Check(ctx, subject)
		return nil
	})
	r.publish(ctx, log, ev, rep)
	log.Info("trigger handled", "author_id", subject, "vouched", rep.Vouch.Vouched)
	return false, nil
}

func (r *Runner) publish(ctx context.Context, log *slog.Logger, ev model.TriggerEvent, rep model.TrustReport) {
	_ = cmdlog.Run(log, "report", func() error {
		r.Reporter.Publish(ctx, ev.MessageID, rep)
		return nil
	})
}

// Run cycles until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	log := r.logger()
	log.Info("trust loop started", "poll_interval", r.PollInterval)
	for {
		wait := r.RunOnce(ctx)
		if err := r.sleep(ctx, wait); err != nil {
			log.Info("trust loop stopped", "pending", len(r.pending))
			return err
		}
	}
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
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

func (r *Runner) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}
