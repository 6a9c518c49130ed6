package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"prospector/internal/config"
	"prospector/internal/domain"
)

const excerptLimit = 200

// ExtractionError marks a page that could not be turned into an article.
// The URL is skipped; the run continues.
type ExtractionError struct {
	URL    string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.URL, e.Reason)
}

// Extractor turns fetched HTML into normalized Article and AuthorContact
// records. Articles are immutable once returned.
type Extractor struct {
	product config.Product
}

// New builds an extractor for the configured product.
func New(product config.Product) *Extractor {
	return &Extractor{product: product}
}

var (
	updatedPhraseExpr = regexp.MustCompile(`(?i)(?:last updated|updated on|updated)[:\s]+([A-Za-z]+ \d{1,2},? \d{4}|\d{4}-\d{2}-\d{2}|\d{1,2} [A-Za-z]+ \d{4})`)
	whitespaceExpr    = regexp.MustCompile(`\s+`)
)

var dateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"2 January 2006",
}

// Extract parses one fetched page into an article and its author contact.
func (e *Extractor) Extract(pageURL string, body []byte) (domain.Article, domain.AuthorContact, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.Article{}, domain.AuthorContact{}, &ExtractionError{URL: pageURL, Reason: "empty body"}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.Article{}, domain.AuthorContact{}, &ExtractionError{URL: pageURL, Reason: err.Error()}
	}

	title := extractTitle(doc)
	bodyText := extractBodyText(doc)
	if title == "" && bodyText == "" {
		return domain.Article{}, domain.AuthorContact{}, &ExtractionError{URL: pageURL, Reason: "no title or body content"}
	}

	siteDomain := hostOf(pageURL)
	publication := strings.TrimSpace(doc.Find(`meta[property="og:site_name"]`).AttrOr("content", ""))
	if publication == "" {
		publication = siteDomain
	}

	words := strings.Fields(bodyText)
	lowerAll := strings.ToLower(title + " " + bodyText)

	article := domain.Article{
		Title:                title,
		URL:                  pageURL,
		PublicationName:      publication,
		PublishDate:          extractPublishDate(doc),
		LastUpdatedDate:      extractUpdatedDate(doc, bodyText),
		BodyText:             bodyText,
		Excerpt:              excerptOf(bodyText),
		WordCount:            len(words),
		DetectedTopics:       e.detectTopics(lowerAll),
		ContentType:          ClassifyContentType(title, pageURL),
		MentionsProduct:      e.mentionsProduct(lowerAll),
		MentionedCompetitors: e.mentionedCompetitors(lowerAll),
		Domain:               siteDomain,
	}

	author := extractAuthor(doc, publication)
	return article, author, nil
}

func extractTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", "")); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// bodyContainers are tried in order; the first match wins.
var bodyContainers = []string{"article", "main", ".post-content", ".entry-content", "#content", "body"}

func extractBodyText(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside, form, noscript").Remove()

	for _, sel := range bodyContainers {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(whitespaceExpr.ReplaceAllString(container.Text(), " "))
		if text != "" {
			return text
		}
	}
	return ""
}

func extractPublishDate(doc *goquery.Document) *time.Time {
	candidates := []string{
		doc.Find(`meta[property="article:published_time"]`).AttrOr("content", ""),
		doc.Find(`meta[name="date"]`).AttrOr("content", ""),
		doc.Find("time[datetime]").First().AttrOr("datetime", ""),
	}
	for _, raw := range candidates {
		if parsed := parseAnyDate(raw); parsed != nil {
			return parsed
		}
	}
	return nil
}

func extractUpdatedDate(doc *goquery.Document, bodyText string) *time.Time {
	if raw := doc.Find(`meta[property="article:modified_time"]`).AttrOr("content", ""); raw != "" {
		if parsed := parseAnyDate(raw); parsed != nil {
			return parsed
		}
	}
	if match := updatedPhraseExpr.FindStringSubmatch(bodyText); match != nil {
		if parsed := parseAnyDate(match[1]); parsed != nil {
			return parsed
		}
	}
	return nil
}

func parseAnyDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed
		}
	}
	return nil
}

// excerptOf returns a prefix of the body no longer than excerptLimit,
// preserving rune boundaries.
func excerptOf(bodyText string) string {
	runes := []rune(bodyText)
	if len(runes) <= excerptLimit {
		return bodyText
	}
	return string(runes[:excerptLimit])
}

func (e *Extractor) detectTopics(lowerAll string) []string {
	var topics []string
	for _, topic := range e.product.Topics {
		if strings.Contains(lowerAll, strings.ToLower(topic)) {
			topics = append(topics, topic)
		}
	}
	return topics
}

func (e *Extractor) mentionsProduct(lowerAll string) bool {
	if strings.Contains(lowerAll, strings.ToLower(e.product.Name)) {
		return true
	}
	for _, alias := range e.product.Aliases {
		if strings.Contains(lowerAll, strings.ToLower(alias)) {
			return true
		}
	}
	return false
}

func (e *Extractor) mentionedCompetitors(lowerAll string) []string {
	var mentioned []string
	for _, competitor := range e.product.Competitors {
		if strings.Contains(lowerAll, strings.ToLower(competitor.Name)) {
			mentioned = append(mentioned, competitor.Name)
		}
	}
	return mentioned
}

func hostOf(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
