package xclient

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOAuth1SigningIsDeterministic(t *testing.T) {
	s := newOAuth1Signer("ck", "cs", "at", "as")
	s.nowFn = func() time.Time { return time.Unix(1700000000, 0) }
	s.nonceFn = func() string { return "nonce" }

	sign := func() string {
		req, _ := http.NewRequest(http.MethodGet, "https://api.twitter.com/2/users/me?user.fields=verified", nil)
		s.sign(req)
		return req.Header.Get("Authorization")
	}
	a, b := sign(), sign()
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "OAuth "))
	for _, k := range []string{"oauth_nonce=\"nonce\"", "oauth_timestamp=\"1700000000\"", "oauth_signature="} {
		assert.Contains(t, a, k)
	}
}

func TestOAuth1SignatureDependsOnQuery(t *testing.T) {
	s := newOAuth1Signer("ck", "cs", "at", "as")
	s.nowFn = func() time.Time { return time.Unix(1700000000, 0) }
	s.nonceFn = func() string { return "nonce" }
	r1, _ := http.NewRequest(http.MethodGet, "https://api.twitter.com/2/tweets?ids=1", nil)
	r2, _ := http.NewRequest(http.MethodGet, "https://api.twitter.com/2/tweets?ids=2", nil)
	s.sign(r1)
	s.sign(r2)
	assert.NotEqual(t, r1.Header.Get("Authorization"), r2.Header.Get("Authorization"))
}

func TestRFC3986(t *testing.T) {
	assert.Equal(t, "a%20b%2A~", rfc3986("a b*~"))
}

func TestDefaultNonceIsUnique(t *testing.T) {
	s := newOAuth1Signer("ck", "cs", "at", "as")
	a, b := s.nonceFn(), s.nonceFn()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "-")
}
