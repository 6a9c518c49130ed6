package score

import (
	"strings"
	"time"

	"prospector/internal/config"
	"prospector/internal/domain"
)

// Engine computes the six bounded sub-scores for an article+author pair.
// It is fully deterministic and performs no I/O; the clock is injectable
// so freshness scoring is testable.
type Engine struct {
	product config.Product
	now     func() time.Time
}

// NewEngine builds a scorer for the configured product.
func NewEngine(product config.Product) *Engine {
	return &Engine{product: product, now: time.Now}
}

// WithClock overrides the freshness reference time.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Score computes the full breakdown. Each sub-score is independently
// capped; the caps sum to 100, so the total is bounded by construction.
func (e *Engine) Score(article domain.Article, author domain.AuthorContact) domain.ScoreBreakdown {
	return domain.ScoreBreakdown{
		TopicalRelevance:  e.topicalRelevance(article),
		ArticleQuality:    e.articleQuality(article),
		Updateability:     e.updateability(article),
		AuthorCredibility: e.authorCredibility(author),
		CompetitiveGap:    e.competitiveGap(article),
		Reachability:      reachability(author),
	}
}

// relevanceTier is one keyword strength level with its title/body values.
type relevanceTier struct {
	keywords   []string
	titleScore int
	bodyScore  int
}

// topicalRelevance checks keyword tiers in descending strength; the first
// tier that matches fixes the base score, and detected topics add up to
// +3 for breadth. Capped at 30.
func (e *Engine) topicalRelevance(article domain.Article) int {
	tiers := []relevanceTier{
		{keywords: e.product.Keywords.Perfect, titleScore: 30, bodyScore: 25},
		{keywords: e.product.Keywords.Strong, titleScore: 22, bodyScore: 18},
		{keywords: e.product.Keywords.Moderate, titleScore: 15, bodyScore: 12},
	}

	lowerTitle := strings.ToLower(article.Title)
	lowerBody := strings.ToLower(article.BodyText)

	base := 0
	for _, tier := range tiers {
		if containsAnyKeyword(lowerTitle, tier.keywords) {
			base = tier.titleScore
			break
		}
		if containsAnyKeyword(lowerBody, tier.keywords) {
			base = tier.bodyScore
			break
		}
	}

	bonus := len(article.DetectedTopics)
	if bonus > 3 {
		bonus = 3
	}

	return capAt(base+bonus, 30)
}

// articleQuality buckets word count and content type, plus a flat +5 when
// the article names concrete products or tools. Capped at 20.
func (e *Engine) articleQuality(article domain.Article) int {
	score := wordCountScore(article.WordCount) + qualityTypeScore(article.ContentType)
	if article.MentionsProduct || len(article.MentionedCompetitors) > 0 {
		score += 5
	}
	return capAt(score, 20)
}

func wordCountScore(words int) int {
	switch {
	case words >= 2500:
		return 8
	case words >= 1500:
		return 6
	case words >= 800:
		return 4
	default:
		return 2
	}
}

func qualityTypeScore(contentType domain.ContentType) int {
	switch contentType {
	case domain.TypeGuide, domain.TypeComparison:
		return 7
	case domain.TypeListicle:
		return 6
	case domain.TypeCaseStudy, domain.TypeTutorial:
		return 5
	case domain.TypeNews:
		return 4
	default:
		return 3
	}
}

// updateability rewards explicit update signals, revision-prone content
// types, and recent touches. Content older than 36 months with no
// recorded update takes a -10 penalty applied after the 20-point cap,
// floored at zero.
func (e *Engine) updateability(article domain.Article) int {
	score := 0

	if article.LastUpdatedDate != nil {
		score += 5
		if article.LastUpdatedDate.Year() >= e.now().Year()-1 {
			score += 5
		}
	}

	score += updateTypeScore(article.ContentType)
	score += e.freshnessScore(article)
	score = capAt(score, 20)

	// Penalty applies after the cap so it can zero out an otherwise
	// update-friendly content type.
	if article.LastUpdatedDate == nil && article.PublishDate != nil &&
		e.monthsSince(*article.PublishDate) > 36 {
		score -= 10
	}
	if score < 0 {
		score = 0
	}
	return score
}

func updateTypeScore(contentType domain.ContentType) int {
	switch contentType {
	case domain.TypeComparison:
		return 9
	case domain.TypeListicle:
		return 8
	case domain.TypeGuide:
		return 7
	case domain.TypeTutorial:
		return 5
	case domain.TypeCaseStudy:
		return 4
	default:
		return 3
	}
}

func (e *Engine) freshnessScore(article domain.Article) int {
	touched := article.LastUpdatedDate
	if touched == nil {
		touched = article.PublishDate
	}
	if touched == nil {
		return 0
	}

	switch months := e.monthsSince(*touched); {
	case months < 3:
		return 5
	case months < 6:
		return 4
	case months < 12:
		return 3
	case months < 18:
		return 2
	case months < 24:
		return 1
	default:
		return 0
	}
}

func (e *Engine) monthsSince(t time.Time) int {
	days := int(e.now().Sub(t).Hours() / 24)
	return days / 30
}

var (
	expertBioKeywords     = []string{"hr ", "recruit", "talent", "hiring", "people ops", "human resources"}
	techBioKeywords       = []string{"saas", "software", "b2b", "tech", "startup"}
	generalistBioKeywords = []string{"writer", "journalist", "content", "blogger"}

	prestigePublications = []string{
		"techcrunch", "forbes", "harvard business review", "fast company",
		"shrm", "hr dive", "wired",
	}
	nichePublications = []string{
		"hr", "recruit", "talent", "hiring", "workable", "lever", "greenhouse",
	}
)

// authorCredibility bases the score on role (freelancers publish most
// freely, editors least), adds the strongest matching bio keyword tier
// without stacking, and a publication-prestige bonus. Capped at 15.
func (e *Engine) authorCredibility(author domain.AuthorContact) int {
	score := 0
	switch {
	case author.IsEditor:
		score = 4
	case author.IsFreelance:
		score = 8
	default:
		score = 6
	}

	bio := strings.ToLower(author.Bio + " " + author.Title)
	switch {
	case containsAnyKeyword(bio, expertBioKeywords):
		score += 4
	case containsAnyKeyword(bio, techBioKeywords):
		score += 3
	case containsAnyKeyword(bio, generalistBioKeywords):
		score += 2
	}

	publication := strings.ToLower(author.Publication)
	switch {
	case containsAnyKeyword(publication, prestigePublications):
		score += 3
	case containsAnyKeyword(publication, nichePublications):
		score += 1
	}

	return capAt(score, 15)
}

// gapRule pairs a predicate with its score; rules run in order and the
// first match wins.
type gapRule struct {
	matches func(article domain.Article) bool
	score   int
}

var gapRules = []gapRule{
	{func(a domain.Article) bool { return len(a.MentionedCompetitors) > 0 }, 10},
	{func(a domain.Article) bool { return a.ContentType == domain.TypeComparison }, 8},
	{func(a domain.Article) bool { return mentionsGenericTools(a.BodyText) }, 5},
	{func(a domain.Article) bool { return a.ContentType == domain.TypeListicle }, 4},
}

// competitiveGap rewards articles that discuss rivals but omit the
// product. A product mention forces the score to zero regardless of any
// competitor mentions; that override is evaluated first.
func (e *Engine) competitiveGap(article domain.Article) int {
	if article.MentionsProduct {
		return 0
	}
	for _, rule := range gapRules {
		if rule.matches(article) {
			return rule.score
		}
	}
	return 2
}

func mentionsGenericTools(body string) bool {
	lower := strings.ToLower(body)
	return containsAnyKeyword(lower, []string{"software", "platform", " tool", "solution"})
}

// reachability scores only the best available channel; channels never stack.
func reachability(author domain.AuthorContact) int {
	switch author.BestContactMethod() {
	case domain.ContactEmail:
		return 5
	case domain.ContactForm:
		return 4
	case domain.ContactLinkedIn:
		return 3
	case domain.ContactTwitter:
		return 2
	default:
		return 0
	}
}

func containsAnyKeyword(haystack string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(haystack, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func capAt(score, limit int) int {
	if score > limit {
		return limit
	}
	return score
}
