package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScoreBreakdown holds the six independently capped sub-scores. The caps
// sum to 100, so Total() is always within [0,100] by construction.
type ScoreBreakdown struct {
	TopicalRelevance  int // [0,30]
	ArticleQuality    int // [0,20]
	Updateability     int // [0,20]
	AuthorCredibility int // [0,15]
	CompetitiveGap    int // [0,10]
	Reachability      int // [0,5]
}

// Total sums the six sub-scores.
func (s ScoreBreakdown) Total() int {
	return s.TopicalRelevance + s.ArticleQuality + s.Updateability +
		s.AuthorCredibility + s.CompetitiveGap + s.Reachability
}

// Priority is the five-way outreach band derived from a total score.
type Priority string

const (
	PriorityExcellent Priority = "excellent"
	PriorityStrong    Priority = "strong"
	PriorityModerate  Priority = "moderate"
	PriorityWeak      Priority = "weak"
	PrioritySkip      Priority = "skip"
)

// PriorityFor bands a total score: [80,100] excellent, [60,80) strong,
// [40,60) moderate, [20,40) weak, below 20 skip.
func PriorityFor(total int) Priority {
	switch {
	case total >= 80:
		return PriorityExcellent
	case total >= 60:
		return PriorityStrong
	case total >= 40:
		return PriorityModerate
	case total >= 20:
		return PriorityWeak
	default:
		return PrioritySkip
	}
}

// Sentiment is the aspect-level or overall polarity toward a competitor.
type Sentiment string

const (
	SentimentNegative Sentiment = "negative"
	SentimentMixed    Sentiment = "mixed"
	SentimentNeutral  Sentiment = "neutral"
	SentimentPositive Sentiment = "positive"
)

// Confidence grades how much keyword signal backed a sentiment call.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// AspectSentiment records one matched sentiment dimension for a competitor.
type AspectSentiment struct {
	Aspect          string
	Sentiment       Sentiment
	MatchedKeywords []string
	ContextQuote    string
}

// CompetitorSentiment is the full per-competitor judgment consumed by the
// scorer and by outreach angle selection.
type CompetitorSentiment struct {
	Competitor       string
	Mentioned        bool
	Sentiment        Sentiment
	Aspects          []AspectSentiment
	PositioningAngle string
	Confidence       Confidence
}

// Prospect is the ranked output record for one qualifying (URL, product)
// pair. NormalizedURL is the dedup identity the ID is derived from;
// persistence keys the seen-before check on it, never on the raw URL.
// Upsert semantics belong to the persistence sink.
type Prospect struct {
	ID             string
	NormalizedURL  string
	Article        Article
	Author         AuthorContact
	Breakdown      ScoreBreakdown
	TotalScore     int
	Priority       Priority
	Sentiment      []CompetitorSentiment
	DiscoveredFrom string
	ScoredAt       time.Time
}

// prospectNamespace scopes deterministic prospect IDs.
var prospectNamespace = uuid.MustParse("9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d")

// ProspectID derives a stable identifier for a (normalized URL, product)
// pair so that re-scoring the same page keeps the same ID.
func ProspectID(normalizedURL, product string) string {
	return uuid.NewSHA1(prospectNamespace, []byte(product+"|"+normalizedURL)).String()
}

// RunSummary is handed to the report layer together with the sorted
// prospect list.
type RunSummary struct {
	SearchDate        time.Time
	TotalFound        int
	TotalScored       int
	AverageScore      float64
	HighPriorityCount int
	ElapsedMs         int64
}
