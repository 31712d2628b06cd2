package trust

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"rugguard/internal/model"
)

type fakeFollowers struct {
	users []model.User
	err   error
	limit int
}

func (f *fakeFollowers) GetFollowers(ctx context.Context, userID string, limit int) ([]model.User, error) {
	f.limit = limit
	return f.users, f.err
}

func users(handles ...string) []model.User {
	out := make([]model.User, 0, len(handles))
	for i, h := range handles {
		out = append(out, model.User{ID: string(rune('a' + i)), Username: h})
	}
	return out
}

var trusted = NewSet([]string{"JupiterExchange", "solana", "phantom", "MagicEden"})

func TestCheckTwoTrustedFollowersVouches(t *testing.T) {
	c := &fakeFollowers{users: users("JupiterExchange", "solana")}
	r := New(c, trusted, 1000, nil).Check(context.Background(), "42")
	assert.Equal(t, 1000, c.limit)
	assert.True(t, r.Vouched)
	assert.Equal(t, 2, r.VouchCount)
	assert.Equal(t, []string{"JupiterExchange", "solana"}, r.TrustedFollowers)
}

func TestCheckThreshold(t *testing.T) {
	for _, tc := range []struct {
		name    string
		page    []model.User
		count   int
		vouched bool
	}{
		{"none", users("random", "other"), 0, false},
		{"one", users("random", "phantom"), 1, false},
		{"two", users("phantom", "x", "solana"), 2, true},
		{"four", users("phantom", "solana", "MagicEden", "JupiterExchange"), 4, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := New(&fakeFollowers{users: tc.page}, trusted, 1000, nil).Check(context.Background(), "1")
			assert.Equal(t, tc.count, r.VouchCount)
			assert.Equal(t, tc.vouched, r.Vouched)
		})
	}
}

func TestCheckPreservesPageOrder(t *testing.T) {
	r := New(&fakeFollowers{users: users("solana", "x", "MagicEden", "JupiterExchange", "phantom")}, trusted, 1000, nil).
		Check(context.Background(), "1")
	assert.Equal(t, []string{"solana", "MagicEden", "JupiterExchange", "phantom"}, r.TrustedFollowers)
	assert.Equal(t, 4, r.VouchCount)
}

func TestCheckIsCaseSensitive(t *testing.T) {
	r := New(&fakeFollowers{users: users("SOLANA", "jupiterexchange")}, trusted, 1000, nil).Check(context.Background(), "1")
	assert.Zero(t, r.VouchCount)
}

func TestCheckFetchFailureIsNotVouched(t *testing.T) {
	r := New(&fakeFollowers{err: errors.New("boom")}, trusted, 1000, nil).Check(context.Background(), "1")
	assert.Equal(t, model.VouchResult{}, r)
}

func TestSet(t *testing.T) {
	s := NewSet([]string{"a", "b", "", "a"})
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("a"))
	assert.False(t, s.Contains(""))
}
