// Package trust checks whether an account is followed by known trusted accounts.
package trust

import (
	"context"
	"log/slog"

	"rugguard/internal/model"
)

// Client is the slice of the platform API the verifier needs.
type Client interface {
	GetFollowers(ctx context.Context, userID string, limit int) ([]model.User, error)
}

// Set is an immutable set of trusted handles. Matching is exact and case-sensitive.
type Set struct {
	handles map[string]struct{}
}

func NewSet(handles []string) Set {
	m := make(map[string]struct{}, len(handles))
	for _, h := range handles {
		if h != "" {
			m[h] = struct{}{}
		}
	}
	return Set{handles: m}
}

func (s Set) Contains(handle string) bool {
	_, ok := s.handles[handle]
	return ok
}

func (s Set) Len() int { return len(s.handles) }

type Verifier struct {
	client    Client
	trusted   Set
	followers int
	log       *slog.Logger
}

// New returns a Verifier that inspects one page of at most followers accounts.
func New(client Client, trusted Set, followers int, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{client: client, trusted: trusted, followers: followers, log: logger.With("component", "verifier")}
}

// Check reports which trusted accounts follow accountID. A fetch failure yields a
// zero, not-vouched result.
func (v *Verifier) Check(ctx context.Context, accountID string) model.VouchResult {
	followers, err := v.client.GetFollowers(ctx, accountID, v.followers)
	if err != nil {
		v.log.Warn("could not fetch followers", "author_id", accountID, "err", err)
		return model.NewVouchResult(nil)
	}
	if len(followers) > v.followers {
		followers = followers[:v.followers]
	}
	var matched []string
	seen := make(map[string]struct{})
	for _, f := range followers {
		if !v.trusted.Contains(f.Username) {
			continue
		}
		if _, dup := seen[f.Username]; dup {
			continue
		}
		seen[f.Username] = struct{}{}
		matched = append(matched, f.Username)
	}
	return model.NewVouchResult(matched)
}
