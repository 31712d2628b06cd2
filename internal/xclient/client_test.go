package xclient

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper to create a client pointed at a test server
func newTestClient(t *testing.T, h http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c := NewHTTPClient(Credentials{
		BearerToken:    "bearer",
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		AccessToken:    "at",
		AccessSecret:   "as",
	}, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.baseURL = ts.URL
	c.http.RetryWaitMin = time.Millisecond
	c.http.RetryWaitMax = 5 * time.Millisecond
	c.http.RetryMax = 2
	return c, ts
}

func TestRateLimitIsNotRetried(t *testing.T) {
	var attempts int32
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.Header().Set("x-rate-limit-reset", strconv.FormatInt(now.Add(120*time.Second).Unix(), 10))
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.now = func() time.Time { return now }

	_, err := c.SearchRecentTweets(context.Background(), "@projectrugguard", 10)
	rl, ok := AsRateLimit(err)
	require.True(t, ok, "expected rate limit error, got %v", err)
	assert.Equal(t, 120*time.Second, rl.RetryAfter)
	assert.EqualValues(t, 1, atomic.LoadInt32(&attempts))
}

func TestRetryAfterSecondsFallback(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "30")
	assert.Equal(t, 30*time.Second, retryAfter(h, time.Now()))
	assert.Zero(t, retryAfter(http.Header{}, time.Now()))
}

func TestServerErrorsAreRetried(t *testing.T) {
	var attempts int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":"7","username":"solana","public_metrics":{"followers_count":10}}}`))
	})
	u, err := c.GetUserByID(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "solana", u.Username)
	assert.Equal(t, 10, u.FollowersCount)
	assert.EqualValues(t, 2, atomic.LoadInt32(&attempts))
}

func TestPersistentServerErrorIsStatusError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.GetTweet(context.Background(), "1")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
}

func TestNotFoundProblemPayload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"title":"Not Found Error","detail":"Could not find user with id: [9].","type":"https://api.twitter.com/2/problems/resource-not-found"}]}`))
	})
	_, err := c.GetUserByID(context.Background(), "9")
	assert.True(t, IsNotFound(err), "got %v", err)
}

func TestNotFoundStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.GetTweet(context.Background(), "1")
	assert.True(t, IsNotFound(err))
}

func TestUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := c.GetMe(context.Background())
	assert.True(t, IsUnauthorized(err))
}

func TestSearchRecentTweetsParsesReferences(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tweets/search/recent", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("max_results"))
		assert.Equal(t, "@projectrugguard -is:retweet", r.URL.Query().Get("query"))
		assert.Equal(t, "Bearer bearer", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"id":"100","text":"riddle me this","author_id":"5","conversation_id":"90",
			"referenced_tweets":[{"type":"replied_to","id":"99"}]}],"meta":{"result_count":1}}`))
	})
	tweets, err := c.SearchRecentTweets(context.Background(), "@projectrugguard -is:retweet", 3)
	require.NoError(t, err)
	require.Len(t, tweets, 1)
	id, ok := tweets[0].RepliedTo()
	assert.True(t, ok)
	assert.Equal(t, "99", id)
	assert.Equal(t, "90", tweets[0].ConversationID)
}

func TestEmptySearchResult(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":{"result_count":0}}`))
	})
	tweets, err := c.SearchRecentTweets(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Empty(t, tweets)
}

func TestGetUserTweetsAndFollowersClampLimits(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/tweets"):
			assert.Equal(t, "100", r.URL.Query().Get("max_results"))
			_, _ = w.Write([]byte(`{"data":[{"id":"1","public_metrics":{"like_count":12,"retweet_count":3,"reply_count":1}}]}`))
		case strings.HasSuffix(r.URL.Path, "/followers"):
			assert.Equal(t, "1000", r.URL.Query().Get("max_results"))
			_, _ = w.Write([]byte(`{"data":[{"id":"2","username":"solana"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	tweets, err := c.GetUserTweets(context.Background(), "42", 500)
	require.NoError(t, err)
	require.Len(t, tweets, 1)
	assert.Equal(t, "42", tweets[0].AuthorID)
	assert.Equal(t, 12, tweets[0].LikeCount)

	users, err := c.GetFollowers(context.Background(), "42", 5000)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "solana", users[0].Username)
}

func TestCreateReplySignsAndPosts(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "OAuth "))
		assert.Contains(t, r.Header.Get("Authorization"), `oauth_consumer_key="ck"`)
		var body struct {
			Text  string `json:"text"`
			Reply struct {
				InReplyToTweetID string `json:"in_reply_to_tweet_id"`
			} `json:"reply"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body.Text)
		assert.Equal(t, "100", body.Reply.InReplyToTweetID)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"555","text":"hello"}}`))
	})
	id, err := c.CreateReply(context.Background(), "100", "hello")
	require.NoError(t, err)
	assert.Equal(t, "555", id)
}

func TestCreateReplyIsSentOnce(t *testing.T) {
	var posts int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&posts, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"99"}}`))
	})
	id, err := c.CreateReply(context.Background(), "1", "hello")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Empty(t, id)
	assert.EqualValues(t, 1, atomic.LoadInt32(&posts))
}

func TestCheckRetrySkipsMarkedRequests(t *testing.T) {
	ctx := context.WithValue(context.Background(), noRetryKey{}, true)
	retry, err := checkRetry(ctx, &http.Response{StatusCode: http.StatusBadGateway}, nil)
	assert.NoError(t, err)
	assert.False(t, retry)

	retry, err = checkRetry(context.Background(), &http.Response{StatusCode: http.StatusBadGateway}, nil)
	assert.NoError(t, err)
	assert.True(t, retry)
}
