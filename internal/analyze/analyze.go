// Package analyze turns an account's profile and recent posts into trust metrics.
package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rugguard/internal/model"
	"rugguard/internal/xclient"
)

// Client is the slice of the platform API the analyzer needs.
type Client interface {
	GetUserByID(ctx context.Context, userID string) (model.User, error)
	GetUserTweets(ctx context.Context, userID string, limit int) ([]model.Tweet, error)
}

type Analyzer struct {
	client Client
	log    *slog.Logger
	posts  int
	now    func() time.Time
}

// New returns an Analyzer that samples up to posts recent tweets per account.
func New(client Client, posts int, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{client: client, log: logger.With("component", "analyzer"), posts: posts, now: time.Now}
}

// Analyze fetches the profile and one page of recent tweets. It returns an error
// wrapping xclient.ErrNotFound when the account is gone, and *xclient.RateLimitError
// when throttled.
func (a *Analyzer) Analyze(ctx context.Context, accountID string) (model.AccountAnalysis, error) {
	u, err := a.client.GetUserByID(ctx, accountID)
	if err != nil {
		return model.AccountAnalysis{}, fmt.Errorf("get account %s: %w", accountID, err)
	}
	tweets, err := a.client.GetUserTweets(ctx, accountID, a.posts)
	switch {
	case xclient.IsNotFound(err):
		tweets = nil
	case err != nil:
		return model.AccountAnalysis{}, fmt.Errorf("get recent posts %s: %w", accountID, err)
	}
	if len(tweets) > a.posts {
		tweets = tweets[:a.posts]
	}
	out := model.Analyze(u, tweets, a.now())
	a.log.Debug("account analyzed", "author_id", accountID, "username", out.Username,
		"age_days", out.AccountAgeDays, "posts", out.PostsAnalyzed)
	return out, nil
}
