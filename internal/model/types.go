package model

import "time"

// User represents a subset of X user fields used by the bot.
type User struct {
	ID             string
	Username       string
	Name           string
	Description    string
	CreatedAt      time.Time
	FollowersCount int
	FollowingCount int
	TweetCount     int
	Verified       bool
}

// Reference types carried in a tweet's referenced_tweets list.
const (
	RefRepliedTo = "replied_to"
	RefQuoted    = "quoted"
	RefRetweeted = "retweeted"
)

// ReferencedTweet points at another tweet this one replies to, quotes or retweets.
type ReferencedTweet struct {
	Type string
	ID   string
}

// Tweet represents a subset of X tweet fields used by the bot.
type Tweet struct {
	ID             string
	AuthorID       string
	ConversationID string
	Text           string
	CreatedAt      time.Time
	LikeCount      int
	ReplyCount     int
	RetweetCount   int
	QuoteCount     int
	Referenced     []ReferencedTweet
}

// RepliedTo returns the id of the tweet this one replies to, if any.
func (t Tweet) RepliedTo() (string, bool) {
	for _, r := range t.Referenced {
		if r.Type == RefRepliedTo && r.ID != "" {
			return r.ID, true
		}
	}
	return "", false
}

// TriggerEvent is a reply that contained the trigger phrase.
type TriggerEvent struct {
	MessageID   string // the triggering reply
	ThreadID    string // conversation id
	ReplierID   string // author of the triggering reply
	RepliedToID string // tweet whose author gets evaluated
}

// AccountAnalysis holds the metrics derived from a profile and its recent posts.
type AccountAnalysis struct {
	AccountID      string
	Username       string
	CreatedAt      time.Time
	Verified       bool
	FollowersCount int
	FollowingCount int
	AccountAgeDays int
	FollowerRatio  float64
	BioLength      int
	BioHasLinks    bool
	BioHasNonASCII bool
	AvgLikes       float64
	AvgRetweets    float64
	AvgReplies     float64
	PostsAnalyzed  int
}

// VouchThreshold is the number of trusted followers required to vouch for an account.
const VouchThreshold = 2

// VouchResult reports which trusted accounts follow a subject.
type VouchResult struct {
	Vouched          bool
	VouchCount       int
	TrustedFollowers []string // in page order
}

// NewVouchResult builds a result from the matching handles; Vouched is derived.
func NewVouchResult(handles []string) VouchResult {
	return VouchResult{
		Vouched:          len(handles) >= VouchThreshold,
		VouchCount:       len(handles),
		TrustedFollowers: handles,
	}
}

// TrustReport is what gets rendered into a reply. Err marks a failed analysis.
type TrustReport struct {
	Analysis AccountAnalysis
	Vouch    VouchResult
	Err      error
}
