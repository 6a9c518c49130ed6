package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"prospector/internal/domain"
)

// genericEmailPrefixes are shared mailboxes that never identify an author.
var genericEmailPrefixes = []string{
	"info", "contact", "support", "hello", "admin", "sales",
	"press", "team", "editorial", "editor", "noreply", "no-reply",
}

var bylineSelectors = []string{
	`meta[name="author"]`,
	`[rel="author"]`,
	".author-name",
	".byline a",
	".author a",
	".post-author",
}

var bioSelectors = []string{".author-bio", ".author-description", ".bio", ".about-author"}

// extractAuthor pulls the byline, bio, social links, and contact channels
// from a page. Email is only taken from text literally present on the
// page; it is never guessed or synthesized.
func extractAuthor(doc *goquery.Document, publication string) domain.AuthorContact {
	author := domain.AuthorContact{Publication: publication}

	for _, sel := range bylineSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		name := strings.TrimSpace(node.AttrOr("content", ""))
		if name == "" {
			name = strings.TrimSpace(node.Text())
		}
		name = strings.TrimSpace(strings.TrimPrefix(name, "By "))
		if name != "" {
			author.Name = name
			break
		}
	}

	for _, sel := range bioSelectors {
		bio := strings.TrimSpace(whitespaceExpr.ReplaceAllString(doc.Find(sel).First().Text(), " "))
		if bio != "" {
			author.Bio = bio
			break
		}
	}

	collectLinks(doc, &author)
	classifyRole(&author)
	return author
}

func collectLinks(doc *goquery.Document, author *domain.AuthorContact) {
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		lower := strings.ToLower(href)

		switch {
		case strings.HasPrefix(lower, "mailto:"):
			address := strings.SplitN(strings.TrimPrefix(href, "mailto:"), "?", 2)[0]
			if author.PublicEmail == "" && isPersonalEmail(address) {
				author.PublicEmail = address
			}
		case strings.Contains(lower, "linkedin.com/in/"):
			if author.LinkedIn == "" {
				author.LinkedIn = href
			}
		case strings.Contains(lower, "twitter.com/") || strings.Contains(lower, "x.com/"):
			if author.Twitter == "" {
				author.Twitter = href
			}
		case strings.Contains(lower, "github.com/"):
			if author.GitHub == "" {
				author.GitHub = href
			}
		case strings.Contains(lower, "contact"):
			if author.ContactFormURL == "" {
				author.ContactFormURL = href
			}
		}
	})
}

// isPersonalEmail rejects shared-mailbox addresses. Only clearly personal
// addresses qualify for outreach.
func isPersonalEmail(address string) bool {
	address = strings.ToLower(strings.TrimSpace(address))
	at := strings.Index(address, "@")
	if at <= 0 || at == len(address)-1 {
		return false
	}
	local := address[:at]
	for _, prefix := range genericEmailPrefixes {
		if local == prefix {
			return false
		}
	}
	return true
}

func classifyRole(author *domain.AuthorContact) {
	haystack := strings.ToLower(author.Bio + " " + author.Title)
	if containsAny(haystack, "freelance", "freelancer", "independent writer", "contributor") {
		author.IsFreelance = true
	}
	if containsAny(haystack, "editor", "editor-in-chief", "managing editor") {
		author.IsEditor = true
	}
	if author.Title == "" {
		switch {
		case author.IsEditor:
			author.Title = "Editor"
		case author.IsFreelance:
			author.Title = "Freelance Writer"
		}
	}
}
