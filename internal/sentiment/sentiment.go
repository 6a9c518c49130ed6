package sentiment

import (
	"regexp"
	"sort"
	"strings"

	"prospector/internal/config"
	"prospector/internal/domain"
)

const (
	contextWindow = 150
	quoteLimit    = 160
)

// aspectVocabulary binds an aspect name to its whole-word keyword list.
type aspectVocabulary struct {
	aspect   string
	keywords []string
}

// Negative aspects in fixed enumeration order; the first one found picks
// the positioning angle.
var negativeAspects = []aspectVocabulary{
	{"cost", []string{"expensive", "pricey", "overpriced", "costly", "pricing"}},
	{"experience", []string{"frustrating", "stressful", "impersonal", "awkward", "uncomfortable", "dehumanizing"}},
	{"usability", []string{"clunky", "confusing", "complicated", "buggy", "unintuitive", "slow"}},
	{"effectiveness", []string{"ineffective", "unreliable", "inaccurate", "biased", "flawed"}},
	{"support", []string{"unresponsive", "unhelpful", "slow support", "poor support"}},
	{"limitations", []string{"limited", "lacks", "missing", "restrictive", "rigid"}},
}

var positiveAspects = []aspectVocabulary{
	{"cost", []string{"affordable", "cheap", "good value", "reasonably priced"}},
	{"experience", []string{"enjoyable", "pleasant", "smooth", "seamless", "delightful"}},
	{"effectiveness", []string{"effective", "reliable", "accurate", "efficient"}},
	{"features", []string{"powerful", "feature-rich", "comprehensive", "flexible", "robust"}},
}

// defaultAngle is surfaced for competitors outside the configured set.
const defaultAngle = "a focused alternative worth a look"

// Classifier scans article text for named competitors, collects per-
// occurrence context windows, and classifies aspect-level polarity with a
// deterministic keyword rule table. It is deliberately not a statistical
// model so every decision stays unit-testable.
type Classifier struct {
	competitors []config.Competitor
	patterns    map[string]*regexp.Regexp
}

// New compiles whole-word patterns for every vocabulary keyword.
func New(competitors []config.Competitor) *Classifier {
	patterns := map[string]*regexp.Regexp{}
	for _, vocab := range append(append([]aspectVocabulary{}, negativeAspects...), positiveAspects...) {
		for _, keyword := range vocab.keywords {
			if _, ok := patterns[keyword]; !ok {
				patterns[keyword] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
			}
		}
	}
	return &Classifier{competitors: competitors, patterns: patterns}
}

// Analyze returns one judgment per competitor actually mentioned in the
// article body, sorted most exploitable first (negative before mixed
// before neutral before positive).
func (c *Classifier) Analyze(article domain.Article) []domain.CompetitorSentiment {
	var analyses []domain.CompetitorSentiment
	for _, competitor := range c.competitors {
		if analysis, ok := c.analyzeOne(article.BodyText, competitor); ok {
			analyses = append(analyses, analysis)
		}
	}

	sort.SliceStable(analyses, func(i, j int) bool {
		return sentimentRank(analyses[i].Sentiment) < sentimentRank(analyses[j].Sentiment)
	})
	return analyses
}

// BestAngle returns the positioning angle of the most exploitable
// mentioned competitor, or empty when nothing is mentioned.
func (c *Classifier) BestAngle(analyses []domain.CompetitorSentiment) string {
	if len(analyses) == 0 {
		return ""
	}
	return analyses[0].PositioningAngle
}

func (c *Classifier) analyzeOne(body string, competitor config.Competitor) (domain.CompetitorSentiment, bool) {
	context := mentionContext(body, competitor.Name)
	if context == "" {
		return domain.CompetitorSentiment{}, false
	}

	negatives, negCount := c.matchAspects(context, negativeAspects, domain.SentimentNegative)
	positives, posCount := c.matchAspects(context, positiveAspects, domain.SentimentPositive)

	analysis := domain.CompetitorSentiment{
		Competitor:       competitor.Name,
		Mentioned:        true,
		Sentiment:        decide(negCount, posCount),
		Aspects:          append(negatives, positives...),
		PositioningAngle: angleFor(competitor, negatives),
		Confidence:       confidenceFor(negCount + posCount),
	}
	return analysis, true
}

// mentionContext collects ±contextWindow characters around every literal
// occurrence of the competitor name and concatenates them, so repeated
// mentions accumulate more signal than a single one.
func mentionContext(body, name string) string {
	lowerBody := strings.ToLower(body)
	lowerName := strings.ToLower(name)

	var windows []string
	for from := 0; ; {
		idx := strings.Index(lowerBody[from:], lowerName)
		if idx < 0 {
			break
		}
		idx += from

		start := idx - contextWindow
		if start < 0 {
			start = 0
		}
		end := idx + len(lowerName) + contextWindow
		if end > len(body) {
			end = len(body)
		}
		windows = append(windows, body[start:end])
		from = idx + len(lowerName)
	}

	return strings.Join(windows, " ... ")
}

// matchAspects records, per aspect, every matched keyword and one
// illustrative quote. Matching is whole-word, not substring.
func (c *Classifier) matchAspects(context string, vocabularies []aspectVocabulary, polarity domain.Sentiment) ([]domain.AspectSentiment, int) {
	var aspects []domain.AspectSentiment
	total := 0

	for _, vocab := range vocabularies {
		var matched []string
		quote := ""
		for _, keyword := range vocab.keywords {
			loc := c.patterns[keyword].FindStringIndex(context)
			if loc == nil {
				continue
			}
			matched = append(matched, keyword)
			if quote == "" {
				quote = quoteAround(context, loc[0], loc[1])
			}
		}
		if len(matched) == 0 {
			continue
		}
		total += len(matched)
		aspects = append(aspects, domain.AspectSentiment{
			Aspect:          vocab.aspect,
			Sentiment:       polarity,
			MatchedKeywords: matched,
			ContextQuote:    quote,
		})
	}

	return aspects, total
}

func quoteAround(context string, start, end int) string {
	from := start - quoteLimit/2
	if from < 0 {
		from = 0
	}
	to := end + quoteLimit/2
	if to > len(context) {
		to = len(context)
	}
	return strings.TrimSpace(context[from:to])
}

// decide applies the keyword-count weighted rule: both sides with two or
// more matches is mixed, otherwise the larger side wins, a 1-1 tie is
// mixed, and no matches at all is neutral.
func decide(neg, pos int) domain.Sentiment {
	switch {
	case neg >= 2 && pos >= 2:
		return domain.SentimentMixed
	case neg > pos:
		return domain.SentimentNegative
	case pos > neg:
		return domain.SentimentPositive
	case neg > 0 && pos > 0:
		return domain.SentimentMixed
	default:
		return domain.SentimentNeutral
	}
}

// angleFor picks the angle mapped from the first negative aspect present,
// falling back to the competitor default and then to the generic default.
func angleFor(competitor config.Competitor, negatives []domain.AspectSentiment) string {
	for _, aspect := range negatives {
		if angle, ok := competitor.Angles[aspect.Aspect]; ok {
			return angle
		}
	}
	if competitor.DefaultAngle != "" {
		return competitor.DefaultAngle
	}
	return defaultAngle
}

func confidenceFor(matches int) domain.Confidence {
	switch {
	case matches >= 4:
		return domain.ConfidenceHigh
	case matches >= 2:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

func sentimentRank(s domain.Sentiment) int {
	switch s {
	case domain.SentimentNegative:
		return 0
	case domain.SentimentMixed:
		return 1
	case domain.SentimentNeutral:
		return 2
	default:
		return 3
	}
}
