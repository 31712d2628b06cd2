// Package report renders trust reports and posts them as replies.
package report

import (
	"context"
	"log/slog"

	"rugguard/internal/metrics"
	"rugguard/internal/model"
)

// Client is the slice of the platform API the reporter needs.
type Client interface {
	CreateReply(ctx context.Context, inReplyTo, text string) (string, error)
}

type Reporter struct {
	client Client
	maxLen int
	log    *slog.Logger
}

// New returns a Reporter whose replies are capped at maxLen characters.
func New(client Client, maxLen int, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{client: client, maxLen: maxLen, log: logger.With("component", "reporter")}
}

// Render formats r with the reporter's length limit.
func (p *Reporter) Render(r model.TrustReport) string { return Render(r, p.maxLen) }

// Publish replies to inReplyTo with the rendered report. If that fails it tries once
// with a generic apology. Failures are logged and never returned.
func (p *Reporter) Publish(ctx context.Context, inReplyTo string, r model.TrustReport) {
	text := p.Render(r)
	outcome := "report"
	if r.Err != nil {
		outcome = "error_reply"
	}
	id, err := p.client.CreateReply(ctx, inReplyTo, text)
	if err == nil {
		metrics.IncReport(outcome)
		p.log.Info("reply posted", "tweet_id", inReplyTo, "reply_id", id, "outcome", outcome)
		return
	}
	p.log.Error("posting reply failed", "tweet_id", inReplyTo, "err", err)
	if text == Apology {
		metrics.IncReport("failed")
		return
	}
	if _, err := p.client.CreateReply(ctx, inReplyTo, Apology); err != nil {
		metrics.IncReport("failed")
		p.log.Error("posting apology failed", "tweet_id", inReplyTo, "err", err)
		return
	}
	metrics.IncReport("fallback")
}
