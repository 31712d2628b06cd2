// Package monitor finds replies that ask the bot for a trust report.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rugguard/internal/model"
	"rugguard/internal/util"
	"rugguard/internal/xclient"
)

// Client is the slice of the platform API the monitor needs.
type Client interface {
	SearchRecentTweets(ctx context.Context, query string, limit int) ([]model.Tweet, error)
	GetTweet(ctx context.Context, tweetID string) (model.Tweet, error)
}

type Options struct {
	TargetHandle  string
	TriggerPhrase string
	SearchResults int
	SeenCapacity  int
	Backoff       Backoff
	// Now defaults to time.Now
	Now func() time.Time
}

// Monitor owns the seen-set and the backoff state. It is not safe for concurrent use.
type Monitor struct {
	client  Client
	log     *slog.Logger
	query   string
	phrase  string
	limit   int
	seen    *seenSet
	backoff Backoff
	now     func() time.Time
}

func New(client Client, opts Options, logger *slog.Logger) (*Monitor, error) {
	if opts.TriggerPhrase == "" {
		return nil, fmt.Errorf("monitor: empty trigger phrase")
	}
	handle := strings.TrimPrefix(opts.TargetHandle, "@")
	if handle == "" {
		return nil, fmt.Errorf("monitor: empty target handle")
	}
	seen, err := newSeenSet(opts.SeenCapacity)
	if err != nil {
		return nil, fmt.Errorf("monitor: seen set: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Monitor{
		client:  client,
		log:     logger.With("component", "monitor"),
		query:   "@" + handle + " -is:retweet",
		phrase:  opts.TriggerPhrase,
		limit:   opts.SearchResults,
		seen:    seen,
		backoff: opts.Backoff,
		now:     now,
	}, nil
}

// Poll fetches one page of recent mentions and returns the unseen replies containing
// the trigger phrase, oldest first. Rate limits are returned, never retried. Inside an
// open rate-limit window Poll makes no call and returns nothing. A search that gets an
// answer from the platform relaxes the backoff.
func (m *Monitor) Poll(ctx context.Context) ([]model.TriggerEvent, error) {
	if d := m.Remaining(); d > 0 {
		m.log.Info("rate limit window still open, skipping poll", "remaining", d)
		return nil, nil
	}
	tweets, err := m.client.SearchRecentTweets(ctx, m.query, m.limit)
	if err != nil && !xclient.IsNotFound(err) {
		return nil, err
	}
	m.backoff = m.backoff.Relaxed()
	var events []model.TriggerEvent
	for i := len(tweets) - 1; i >= 0; i-- {
		t := tweets[i]
		if !util.ContainsFold(t.Text, m.phrase) {
			continue
		}
		parent, ok := t.RepliedTo()
		if !ok {
			m.log.Debug("trigger is not a reply, skipping", "tweet_id", t.ID)
			continue
		}
		if !m.seen.Add(t.ID) {
			continue
		}
		events = append(events, model.TriggerEvent{
			MessageID:   t.ID,
			ThreadID:    t.ConversationID,
			ReplierID:   t.AuthorID,
			RepliedToID: parent,
		})
	}
	return events, nil
}

// ResolveSubject returns the author of the tweet the trigger replied to.
// An empty id with a nil error means the event should be skipped.
func (m *Monitor) ResolveSubject(ctx context.Context, ev model.TriggerEvent) (string, error) {
	if ev.RepliedToID == "" {
		return "", nil
	}
	parent, err := m.client.GetTweet(ctx, ev.RepliedToID)
	if err != nil {
		if _, ok := xclient.AsRateLimit(err); ok {
			return "", err
		}
		m.log.Warn("could not resolve original author", "tweet_id", ev.MessageID, "replied_to", ev.RepliedToID, "err", err)
		return "", nil
	}
	if parent.AuthorID == "" {
		m.log.Warn("original tweet has no author", "replied_to", ev.RepliedToID)
	}
	return parent.AuthorID, nil
}

// RateLimited records a rate limit and returns how long the caller should sleep.
func (m *Monitor) RateLimited(retryAfter time.Duration) time.Duration {
	wait, next := m.backoff.Next(retryAfter, m.now())
	m.backoff = next
	m.log.Warn("rate limit hit", "retry_after", retryAfter, "wait", wait)
	return wait
}

// Remaining is how long the current rate-limit window stays open.
func (m *Monitor) Remaining() time.Duration { return m.backoff.Remaining(m.now()) }

// Backoff returns a copy of the current backoff state.
func (m *Monitor) Backoff() Backoff { return m.backoff }
