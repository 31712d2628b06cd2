package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"rugguard/internal/model"
	"rugguard/internal/util"
	"rugguard/internal/xclient"
)

// Apology is posted when the rendered reply itself could not be posted.
const Apology = "Error generating trust report. Please try again later."

const unavailable = "unavailable"

// Display limits.
const (
	maxTrustedShown = 3
	goodAvgLikes    = 10
	goodAvgRetweets = 5
)

type lineKind int

const (
	kindCore lineKind = iota
	kindBio
	kindTrustedList
)

type indicator struct {
	text string
	kind lineKind
}

// indicators returns the trust bullet lines in their fixed order.
func indicators(r model.TrustReport) []indicator {
	a := r.Analysis
	var out []indicator
	add := func(k lineKind, s string) { out = append(out, indicator{text: s, kind: k}) }

	switch {
	case a.CreatedAt.IsZero():
		add(kindCore, "Account age "+unavailable)
	case a.AccountAgeDays > 365:
		add(kindCore, "Account > 1 year old")
	case a.AccountAgeDays > 180:
		add(kindCore, "Account 6-12 months old")
	default:
		add(kindCore, "Account < 6 months old")
	}
	if a.Verified {
		add(kindCore, "Verified account")
	}
	switch {
	case a.FollowerRatio > 1:
		add(kindCore, "More followers than following")
	case a.FollowerRatio > 0.5:
		add(kindCore, "Moderate follower ratio")
	default:
		add(kindCore, "Low follower ratio")
	}
	if a.BioHasLinks {
		add(kindBio, "Bio contains links")
	}
	if a.BioHasNonASCII {
		add(kindBio, "Bio contains special characters")
	}
	if a.AvgLikes > goodAvgLikes {
		add(kindCore, "Good engagement (likes)")
	}
	if a.AvgRetweets > goodAvgRetweets {
		add(kindCore, "Good engagement (retweets)")
	}
	if r.Vouch.Vouched {
		add(kindCore, fmt.Sprintf("Vouched by %d trusted accounts", r.Vouch.VouchCount))
		if shown := r.Vouch.TrustedFollowers; len(shown) > 0 {
			if len(shown) > maxTrustedShown {
				shown = shown[:maxTrustedShown]
			}
			add(kindTrustedList, "Trusted followers: "+strings.Join(shown, ", "))
		}
	}
	return out
}

func header(a model.AccountAnalysis) string {
	handle := a.Username
	if handle == "" {
		handle = unavailable
	}
	return "Trust Report for @" + handle
}

func stats(a model.AccountAnalysis) string {
	age := unavailable
	if !a.CreatedAt.IsZero() {
		age = fmt.Sprintf("%d days", a.AccountAgeDays)
	}
	return "Stats:" +
		"\n• " + humanize.Comma(int64(a.FollowersCount)) + " followers" +
		"\n• " + humanize.Comma(int64(a.FollowingCount)) + " following" +
		"\n• " + humanize.Comma(int64(a.PostsAnalyzed)) + " tweets analyzed" +
		"\n• Account age: " + age
}

func compose(head string, lines []indicator, tail string) string {
	var b strings.Builder
	b.WriteString(head)
	b.WriteString("\n\n")
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(l.text)
	}
	b.WriteString("\n\n")
	b.WriteString(tail)
	return b.String()
}

func without(lines []indicator, k lineKind) []indicator {
	out := lines[:0:0]
	for _, l := range lines {
		if l.kind != k {
			out = append(out, l)
		}
	}
	return out
}

// Render formats a report as reply text whose weighted length is at most maxLen
// (no limit when maxLen <= 0). A report carrying an error renders as the error reply.
// Over the limit, the trusted-followers line goes first, then bio lines, then trailing
// indicators; the header and stats are kept.
func Render(r model.TrustReport, maxLen int) string {
	if r.Err != nil {
		return util.TruncateWeighted(ErrorText(r.Err), limitOr(maxLen))
	}
	head, tail := header(r.Analysis), stats(r.Analysis)
	lines := indicators(r)
	text := compose(head, lines, tail)
	if maxLen <= 0 || util.WeightedLen(text) <= maxLen {
		return text
	}
	for _, k := range []lineKind{kindTrustedList, kindBio} {
		lines = without(lines, k)
		if text = compose(head, lines, tail); util.WeightedLen(text) <= maxLen {
			return text
		}
	}
	for len(lines) > 1 {
		lines = lines[:len(lines)-1]
		if text = compose(head, lines, tail); util.WeightedLen(text) <= maxLen {
			return text
		}
	}
	return util.TruncateWeighted(text, maxLen)
}

// ErrorText is the reply for a failed analysis.
func ErrorText(err error) string {
	cause := "unknown error"
	switch _, limited := xclient.AsRateLimit(err); {
	case xclient.IsNotFound(err):
		cause = "User not found"
	case limited:
		cause = "rate limited, please try again later"
	case err != nil:
		cause = err.Error()
	}
	return "Error analyzing account: " + cause
}

func limitOr(n int) int {
	if n <= 0 {
		return int(^uint(0) >> 1)
	}
	return n
}
