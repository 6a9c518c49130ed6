package extract

import (
	"regexp"
	"strings"

	"prospector/internal/domain"
)

// typeRule pairs a predicate with its content type. Rules are evaluated
// in order and the first match wins, keeping tie-break order auditable.
type typeRule struct {
	matches func(title, path string) bool
	result  domain.ContentType
}

var listiclePrefixExpr = regexp.MustCompile(`(?i)^\d+\s|^\s*top\s+\d+`)

var typeRules = []typeRule{
	{
		matches: func(title, _ string) bool {
			return containsAny(title, " vs ", " vs. ", "versus", "comparison", "compared")
		},
		result: domain.TypeComparison,
	},
	{
		matches: func(title, _ string) bool {
			return listiclePrefixExpr.MatchString(title) ||
				containsAny(title, "best ", "top tools", "alternatives")
		},
		result: domain.TypeListicle,
	},
	{
		matches: func(title, path string) bool {
			return containsAny(title, "case study", "how we ", "success story") ||
				strings.Contains(path, "case-stud")
		},
		result: domain.TypeCaseStudy,
	},
	{
		matches: func(title, _ string) bool {
			return containsAny(title, "tutorial", "step by step", "step-by-step", "walkthrough")
		},
		result: domain.TypeTutorial,
	},
	{
		matches: func(title, _ string) bool {
			return containsAny(title, "guide", "how to", "complete", "everything you need")
		},
		result: domain.TypeGuide,
	},
	{
		matches: func(title, path string) bool {
			return containsAny(title, "announces", "launches", "raises", "acquires", "report:") ||
				strings.Contains(path, "/news/")
		},
		result: domain.TypeNews,
	},
}

// ClassifyContentType assigns the editorial shape of an article from its
// title and URL path. Unmatched articles fall through to opinion.
func ClassifyContentType(title, pageURL string) domain.ContentType {
	lowerTitle := strings.ToLower(title)
	lowerPath := strings.ToLower(pageURL)
	for _, rule := range typeRules {
		if rule.matches(lowerTitle, lowerPath) {
			return rule.result
		}
	}
	return domain.TypeOpinion
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
