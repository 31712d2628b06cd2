package model

import (
	"math"
	"time"
	"unicode/utf8"

	"rugguard/internal/util"
)

// AccountAgeDays returns whole days between created and now, never negative.
func AccountAgeDays(created, now time.Time) int {
	if created.IsZero() || now.Before(created) {
		return 0
	}
	return int(now.Sub(created) / (24 * time.Hour))
}

// FollowerRatio is followers/following rounded to two decimals, 0 when following is 0.
func FollowerRatio(followers, following int) float64 {
	if following <= 0 {
		return 0
	}
	return Round2(float64(followers) / float64(following))
}

// BioSignals derives length and content flags from a profile description.
// Non-ASCII is a rough stand-in for emoji and special characters.
func BioSignals(bio string) (length int, hasLinks, hasNonASCII bool) {
	return utf8.RuneCountInString(bio), util.ContainsFold(bio, "http"), util.HasNonASCII(bio)
}

// Engagement averages likes, retweets and replies over tweets; zeros when empty.
func Engagement(tweets []Tweet) (avgLikes, avgRetweets, avgReplies float64) {
	if len(tweets) == 0 {
		return 0, 0, 0
	}
	var likes, retweets, replies int
	for _, t := range tweets {
		likes += t.LikeCount
		retweets += t.RetweetCount
		replies += t.ReplyCount
	}
	n := float64(len(tweets))
	return Round2(float64(likes) / n), Round2(float64(retweets) / n), Round2(float64(replies) / n)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

// Analyze reduces a profile and its recent tweets into an AccountAnalysis.
func Analyze(u User, tweets []Tweet, now time.Time) AccountAnalysis {
	bioLen, links, nonASCII := BioSignals(u.Description)
	likes, retweets, replies := Engagement(tweets)
	return AccountAnalysis{
		AccountID:      u.ID,
		Username:       u.Username,
		CreatedAt:      u.CreatedAt,
		Verified:       u.Verified,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		AccountAgeDays: AccountAgeDays(u.CreatedAt, now),
		FollowerRatio:  FollowerRatio(u.FollowersCount, u.FollowingCount),
		BioLength:      bioLen,
		BioHasLinks:    links,
		BioHasNonASCII: nonASCII,
		AvgLikes:       likes,
		AvgRetweets:    retweets,
		AvgReplies:     replies,
		PostsAnalyzed:  len(tweets),
	}
}
