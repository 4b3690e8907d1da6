package feeds

import (
	"errors"
	"fmt"
	"strings"

	"journey/internal/registry"
)

// Feed identifies one upstream box-score source.
type Feed string

const (
	FeedCollegiate Feed = "collegiate"
	FeedMinor      Feed = "minor"
	FeedPartner    Feed = "partner"
	FeedMajor      Feed = "major"
)

// All returns every feed in ingestion order.
func All() []Feed {
	return []Feed{FeedCollegiate, FeedMinor, FeedPartner, FeedMajor}
}

// Level maps the feed to the competition level its appearances carry.
func (f Feed) Level() registry.Level {
	switch f {
	case FeedMinor:
		return registry.LevelMinor
	case FeedPartner:
		return registry.LevelPartner
	case FeedMajor:
		return registry.LevelMajor
	default:
		return registry.LevelCollegiate
	}
}

// ParseFeed accepts a feed name case-insensitively.
func ParseFeed(value string) (Feed, error) {
	needle := Feed(strings.ToLower(strings.TrimSpace(value)))
	for _, f := range All() {
		if f == needle {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown feed %q", value)
}

// ErrMalformedRecord marks a raw record that could not be decoded. The
// record is skipped and the rest of the feed continues.
var ErrMalformedRecord = errors.New("malformed source record")

// SkipReason classifies records that never reached the registry.
type SkipReason string

const (
	SkipMalformedFile SkipReason = "malformed_file"
	SkipMalformedGame SkipReason = "malformed_game"
	SkipMalformedLine SkipReason = "malformed_line"
	SkipMissingName   SkipReason = "missing_name"
	SkipDuplicateLine SkipReason = "duplicate_line"
	SkipDuplicateGame SkipReason = "duplicate_game"
	SkipRejected      SkipReason = "rejected"
)

// SkipReasons lists every reason in report order.
func SkipReasons() []SkipReason {
	return []SkipReason{
		SkipMalformedFile,
		SkipMalformedGame,
		SkipMalformedLine,
		SkipMissingName,
		SkipDuplicateLine,
		SkipDuplicateGame,
		SkipRejected,
	}
}

// Submission is one player line ready for Resolve and Attach.
type Submission struct {
	Name       string
	Hints      registry.Hints
	Appearance registry.Appearance
}

// Game is the decoded form of one raw game record.
type Game struct {
	Key         string
	Submissions []Submission
	Skipped     map[SkipReason]int
}

func (g *Game) skip(reason SkipReason) {
	if g.Skipped == nil {
		g.Skipped = map[SkipReason]int{}
	}
	g.Skipped[reason]++
}

// Adapter turns the bytes of one feed file into games.
type Adapter interface {
	Feed() Feed
	Decode(data []byte) ([]Game, []error, error)
}

// NewAdapter returns the adapter for feed. Names are passed through
// corrections before cleaning.
func NewAdapter(feed Feed, corrections Cleaner) (Adapter, error) {
	switch feed {
	case FeedCollegiate, FeedMinor, FeedPartner:
		return &boxScoreAdapter{feed: feed, cleaner: corrections}, nil
	case FeedMajor:
		return &majorAdapter{cleaner: corrections}, nil
	default:
		return nil, fmt.Errorf("unknown feed %q", feed)
	}
}
