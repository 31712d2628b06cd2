package xclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"rugguard/internal/metrics"
	"rugguard/internal/model"
)

// XClient defines methods we use from X API.
type XClient interface {
	GetMe(ctx context.Context) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	GetUserByID(ctx context.Context, userID string) (model.User, error)
	SearchRecentTweets(ctx context.Context, query string, limit int) ([]model.Tweet, error)
	GetTweet(ctx context.Context, tweetID string) (model.Tweet, error)
	GetUserTweets(ctx context.Context, userID string, limit int) ([]model.Tweet, error)
	GetFollowers(ctx context.Context, userID string, limit int) ([]model.User, error)
	CreateReply(ctx context.Context, inReplyTo, text string) (string, error)
}

// Credentials for the bearer-token (reads) and OAuth 1.0a (user context) paths.
type Credentials struct {
	BearerToken    string
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

const (
	userFields  = "created_at,description,public_metrics,verified"
	tweetFields = "author_id,conversation_id,created_at,referenced_tweets"
)

// HTTPClient is a client for X API v2.
type HTTPClient struct {
	baseURL     string
	bearerToken string
	signer      *oauth1Signer
	http        *retryablehttp.Client
	limiter     *rate.Limiter
	log         *slog.Logger
	now         func() time.Time
}

// NewHTTPClient builds a client that waits at least minInterval between calls.
// Transport errors and 5xx are retried; 429 is returned to the caller as *RateLimitError.
func NewHTTPClient(creds Credentials, minInterval time.Duration, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = getEnvInt("X_API_MAX_ATTEMPTS", 3)
	rc.RetryWaitMin = time.Duration(getEnvInt("X_API_BASE_BACKOFF_MS", 500)) * time.Millisecond
	rc.RetryWaitMax = 10 * time.Second
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledSlog{logger}
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			metrics.IncAPIRetry(endpointFrom(req.Context()))
		}
	}
	return &HTTPClient{
		baseURL:     "https://api.twitter.com/2",
		bearerToken: creds.BearerToken,
		signer:      newOAuth1Signer(creds.ConsumerKey, creds.ConsumerSecret, creds.AccessToken, creds.AccessSecret),
		http:        rc,
		limiter:     newDefaultLimiter(minInterval),
		log:         logger,
		now:         time.Now,
	}
}

// checkRetry is the default policy except that 429 is never retried here, and
// neither is anything marked with noRetryKey.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	if v, _ := ctx.Value(noRetryKey{}).(bool); v {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// leveledSlog rewrites client ERROR to WARN, since those are followed by retries.
type leveledSlog struct{ inner *slog.Logger }

func (l leveledSlog) Error(msg string, kv ...interface{}) { l.inner.Warn(msg, kv...) }
func (l leveledSlog) Warn(msg string, kv ...interface{})  { l.inner.Warn(msg, kv...) }
func (l leveledSlog) Info(msg string, kv ...interface{})  { l.inner.Info(msg, kv...) }
func (l leveledSlog) Debug(msg string, kv ...interface{}) { l.inner.Debug(msg, kv...) }

type endpointKey struct{}

// noRetryKey marks a request that must go out at most once. A write that failed
// with a 5xx may already have been applied.
type noRetryKey struct{}

func endpointFrom(ctx context.Context) string {
	if v, ok := ctx.Value(endpointKey{}).(string); ok {
		return v
	}
	return "unknown"
}

type call struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     any
	userAuth bool
}

// envelope is the v2 response shape.
type envelope[T any] struct {
	Data   T         `json:"data"`
	Errors []problem `json:"errors"`
}

func (c *HTTPClient) auth(req *http.Request) {
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	req.Header.Set("Accept", "application/json")
}

func (c *HTTPClient) do(ctx context.Context, k call, out any) error {
	ctx = context.WithValue(ctx, endpointKey{}, k.endpoint)
	if k.method != http.MethodGet {
		ctx = context.WithValue(ctx, noRetryKey{}, true)
	}
	u := c.baseURL + k.path
	if len(k.query) > 0 {
		u += "?" + k.query.Encode()
	}
	var payload any
	if k.body != nil {
		b, err := json.Marshal(k.body)
		if err != nil {
			return err
		}
		payload = b
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, k.method, u, payload)
	if err != nil {
		return err
	}
	if k.userAuth {
		c.signer.sign(req.Request)
	} else {
		c.auth(req.Request)
	}
	if k.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return fmt.Errorf("x api %s: %w", k.endpoint, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("x api %s: read body: %w", k.endpoint, err)
	}
	if err := classifyStatus(k.endpoint, resp, body, c.now()); err != nil {
		if rl, ok := AsRateLimit(err); ok {
			c.log.Warn("x api rate limited", "endpoint", k.endpoint, "retry_after", rl.RetryAfter)
		}
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("x api %s: decode: %w", k.endpoint, err)
	}
	return nil
}

type rawUser struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Username      string    `json:"username"`
	CreatedAt     time.Time `json:"created_at"`
	Verified      bool      `json:"verified"`
	Description   string    `json:"description"`
	PublicMetrics struct {
		FollowersCount int `json:"followers_count"`
		FollowingCount int `json:"following_count"`
		TweetCount     int `json:"tweet_count"`
	} `json:"public_metrics"`
}

func (d rawUser) toModel() model.User {
	return model.User{
		ID:             d.ID,
		Username:       d.Username,
		Name:           d.Name,
		CreatedAt:      d.CreatedAt,
		Verified:       d.Verified,
		Description:    d.Description,
		FollowersCount: d.PublicMetrics.FollowersCount,
		FollowingCount: d.PublicMetrics.FollowingCount,
		TweetCount:     d.PublicMetrics.TweetCount,
	}
}

type rawTweet struct {
	ID               string    `json:"id"`
	Text             string    `json:"text"`
	AuthorID         string    `json:"author_id"`
	ConversationID   string    `json:"conversation_id"`
	CreatedAt        time.Time `json:"created_at"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
	PublicMetrics struct {
		LikeCount    int `json:"like_count"`
		ReplyCount   int `json:"reply_count"`
		RetweetCount int `json:"retweet_count"`
		QuoteCount   int `json:"quote_count"`
	} `json:"public_metrics"`
}

func (d rawTweet) toModel() model.Tweet {
	t := model.Tweet{
		ID:             d.ID,
		AuthorID:       d.AuthorID,
		ConversationID: d.ConversationID,
		Text:           d.Text,
		CreatedAt:      d.CreatedAt,
		LikeCount:      d.PublicMetrics.LikeCount,
		ReplyCount:     d.PublicMetrics.ReplyCount,
		RetweetCount:   d.PublicMetrics.RetweetCount,
		QuoteCount:     d.PublicMetrics.QuoteCount,
	}
	for _, r := range d.ReferencedTweets {
		t.Referenced = append(t.Referenced, model.ReferencedTweet{Type: r.Type, ID: r.ID})
	}
	return t
}

func (c *HTTPClient) getUser(ctx context.Context, k call) (model.User, error) {
	var raw envelope[*rawUser]
	if err := c.do(ctx, k, &raw); err != nil {
		return model.User{}, err
	}
	if raw.Data == nil {
		return model.User{}, problemsError(k.endpoint, raw.Errors)
	}
	return raw.Data.toModel(), nil
}

func (c *HTTPClient) getUsers(ctx context.Context, k call) ([]model.User, error) {
	var raw envelope[[]rawUser]
	if err := c.do(ctx, k, &raw); err != nil {
		return nil, err
	}
	if raw.Data == nil && len(raw.Errors) > 0 {
		return nil, problemsError(k.endpoint, raw.Errors)
	}
	out := make([]model.User, 0, len(raw.Data))
	for _, d := range raw.Data {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (c *HTTPClient) getTweets(ctx context.Context, k call) ([]model.Tweet, error) {
	var raw envelope[[]rawTweet]
	if err := c.do(ctx, k, &raw); err != nil {
		return nil, err
	}
	if raw.Data == nil && len(raw.Errors) > 0 {
		return nil, problemsError(k.endpoint, raw.Errors)
	}
	out := make([]model.Tweet, 0, len(raw.Data))
	for _, d := range raw.Data {
		out = append(out, d.toModel())
	}
	return out, nil
}

// GetMe returns the authenticated account. It needs user-context credentials.
func (c *HTTPClient) GetMe(ctx context.Context) (model.User, error) {
	return c.getUser(ctx, call{
		endpoint: "users/me",
		method:   http.MethodGet,
		path:     "/users/me",
		query:    url.Values{"user.fields": {userFields}},
		userAuth: true,
	})
}

func (c *HTTPClient) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	if username == "" {
		return model.User{}, fmt.Errorf("empty username: %w", ErrNotFound)
	}
	return c.getUser(ctx, call{
		endpoint: "users/by/username",
		method:   http.MethodGet,
		path:     "/users/by/username/" + url.PathEscape(username),
		query:    url.Values{"user.fields": {userFields}},
	})
}

func (c *HTTPClient) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	if userID == "" {
		return model.User{}, fmt.Errorf("empty user id: %w", ErrNotFound)
	}
	return c.getUser(ctx, call{
		endpoint: "users",
		method:   http.MethodGet,
		path:     "/users/" + url.PathEscape(userID),
		query:    url.Values{"user.fields": {userFields}},
	})
}

// SearchRecentTweets searches the last seven days of public tweets.
func (c *HTTPClient) SearchRecentTweets(ctx context.Context, query string, limit int) ([]model.Tweet, error) {
	return c.getTweets(ctx, call{
		endpoint: "tweets/search/recent",
		method:   http.MethodGet,
		path:     "/tweets/search/recent",
		query: url.Values{
			"query":        {query},
			"max_results":  {strconv.Itoa(clamp(limit, 10, 100))},
			"tweet.fields": {tweetFields},
		},
	})
}

func (c *HTTPClient) GetTweet(ctx context.Context, tweetID string) (model.Tweet, error) {
	if tweetID == "" {
		return model.Tweet{}, fmt.Errorf("empty tweet id: %w", ErrNotFound)
	}
	k := call{
		endpoint: "tweets",
		method:   http.MethodGet,
		path:     "/tweets/" + url.PathEscape(tweetID),
		query:    url.Values{"tweet.fields": {tweetFields}},
	}
	var raw envelope[*rawTweet]
	if err := c.do(ctx, k, &raw); err != nil {
		return model.Tweet{}, err
	}
	if raw.Data == nil {
		return model.Tweet{}, problemsError(k.endpoint, raw.Errors)
	}
	return raw.Data.toModel(), nil
}

// GetUserTweets returns one page of a user's most recent tweets.
func (c *HTTPClient) GetUserTweets(ctx context.Context, userID string, limit int) ([]model.Tweet, error) {
	tweets, err := c.getTweets(ctx, call{
		endpoint: "users/tweets",
		method:   http.MethodGet,
		path:     "/users/" + url.PathEscape(userID) + "/tweets",
		query: url.Values{
			"max_results":  {strconv.Itoa(clamp(limit, 5, 100))},
			"tweet.fields": {"created_at,public_metrics"},
		},
	})
	for i := range tweets {
		tweets[i].AuthorID = userID
	}
	return tweets, err
}

// GetFollowers returns one page (up to 1000) of a user's followers.
func (c *HTTPClient) GetFollowers(ctx context.Context, userID string, limit int) ([]model.User, error) {
	return c.getUsers(ctx, call{
		endpoint: "users/followers",
		method:   http.MethodGet,
		path:     "/users/" + url.PathEscape(userID) + "/followers",
		query: url.Values{
			"max_results": {strconv.Itoa(clamp(limit, 1, 1000))},
		},
	})
}

// CreateReply posts text as a reply to inReplyTo and returns the new tweet id.
func (c *HTTPClient) CreateReply(ctx context.Context, inReplyTo, text string) (string, error) {
	type reply struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	}
	body := struct {
		Text  string `json:"text"`
		Reply reply  `json:"reply"`
	}{Text: text, Reply: reply{InReplyToTweetID: inReplyTo}}
	var raw envelope[*struct {
		ID string `json:"id"`
	}]
	if err := c.do(ctx, call{
		endpoint: "tweets/create",
		method:   http.MethodPost,
		path:     "/tweets",
		body:     body,
		userAuth: true,
	}, &raw); err != nil {
		return "", err
	}
	if raw.Data == nil {
		return "", problemsError("tweets/create", raw.Errors)
	}
	return raw.Data.ID, nil
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil && i >= 0 {
		return i
	}
	return def
}
