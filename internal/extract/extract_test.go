package extract

import (
	"errors"
	"strings"
	"testing"
	"time"

	"prospector/internal/config"
	"prospector/internal/domain"
)

func testProduct() config.Product {
	return config.Product{
		Name:        "Screenloop",
		Aliases:     []string{"screen loop"},
		Topics:      []string{"remote hiring", "candidate experience"},
		Competitors: []config.Competitor{{Name: "HireVue"}, {Name: "Spark Hire"}},
	}
}

const articlePage = `<!DOCTYPE html>
<html>
<head>
<title>Fallback Title</title>
<meta property="og:title" content="10 Best Video Interview Tools">
<meta property="og:site_name" content="Hiring Weekly">
<meta property="article:published_time" content="2024-01-15T09:00:00Z">
<meta name="author" content="By Jane Doe">
</head>
<body>
<nav>Home | About | Subscribe</nav>
<article>
<p>Remote hiring teams lean on video screening. HireVue and Spark Hire
dominate the market, but candidate experience varies between them.</p>
<p>Last updated: March 3, 2024</p>
</article>
<div class="author-bio">Jane Doe is a freelance writer covering HR technology.</div>
<a href="mailto:jane@janedoe.dev">Email Jane</a>
<a href="https://linkedin.com/in/janedoe">LinkedIn</a>
<a href="https://twitter.com/janedoe">Twitter</a>
<footer>Copyright Hiring Weekly</footer>
</body>
</html>`

func TestExtractArticleFields(t *testing.T) {
	t.Parallel()

	extractor := New(testProduct())
	article, _, err := extractor.Extract("https://www.hiringweekly.com/best-tools", []byte(articlePage))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if article.Title != "10 Best Video Interview Tools" {
		t.Errorf("title = %q, og:title should win over <title>", article.Title)
	}
	if article.PublicationName != "Hiring Weekly" {
		t.Errorf("publication = %q", article.PublicationName)
	}
	if article.Domain != "hiringweekly.com" {
		t.Errorf("domain = %q, www prefix should be stripped", article.Domain)
	}
	if article.ContentType != domain.TypeListicle {
		t.Errorf("content type = %q, want listicle", article.ContentType)
	}

	if article.PublishDate == nil || !article.PublishDate.Equal(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("publish date = %v", article.PublishDate)
	}
	if article.LastUpdatedDate == nil || article.LastUpdatedDate.Month() != time.March {
		t.Errorf("updated date = %v, want parsed from body phrase", article.LastUpdatedDate)
	}

	if strings.Contains(article.BodyText, "Home | About") {
		t.Error("navigation chrome leaked into body text")
	}
	if article.WordCount != len(strings.Fields(article.BodyText)) {
		t.Errorf("word count %d does not match body %d", article.WordCount, len(strings.Fields(article.BodyText)))
	}
	if !strings.HasPrefix(article.BodyText, article.Excerpt) {
		t.Error("excerpt is not a prefix of the body")
	}
	if len([]rune(article.Excerpt)) > 200 {
		t.Errorf("excerpt length = %d runes", len([]rune(article.Excerpt)))
	}

	if article.MentionsProduct {
		t.Error("product is not mentioned on this page")
	}
	if want := []string{"HireVue", "Spark Hire"}; len(article.MentionedCompetitors) != 2 ||
		article.MentionedCompetitors[0] != want[0] || article.MentionedCompetitors[1] != want[1] {
		t.Errorf("competitors = %v, want %v", article.MentionedCompetitors, want)
	}
	if len(article.DetectedTopics) != 2 {
		t.Errorf("topics = %v, want both configured topics", article.DetectedTopics)
	}
}

func TestExtractAuthorContact(t *testing.T) {
	t.Parallel()

	extractor := New(testProduct())
	_, author, err := extractor.Extract("https://hiringweekly.com/best-tools", []byte(articlePage))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if author.Name != "Jane Doe" {
		t.Errorf("name = %q, byline prefix should be stripped", author.Name)
	}
	if author.PublicEmail != "jane@janedoe.dev" {
		t.Errorf("email = %q", author.PublicEmail)
	}
	if author.LinkedIn == "" || author.Twitter == "" {
		t.Errorf("social links missing: linkedin=%q twitter=%q", author.LinkedIn, author.Twitter)
	}
	if !author.IsFreelance {
		t.Error("bio says freelance; flag not set")
	}
	if author.Publication != "Hiring Weekly" {
		t.Errorf("publication = %q", author.Publication)
	}
	if author.BestContactMethod() != domain.ContactEmail {
		t.Errorf("best contact = %q, want email", author.BestContactMethod())
	}
}

func TestExtractGenericEmailRejected(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Post</title></head><body><article><p>Some content here.</p></article>
<a href="mailto:info@example.com">Write to us</a></body></html>`

	extractor := New(testProduct())
	_, author, err := extractor.Extract("https://example.com/post", []byte(page))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if author.PublicEmail != "" {
		t.Errorf("email = %q, shared mailboxes must never qualify", author.PublicEmail)
	}
}

func TestExtractMailtoQueryStripped(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Post</title></head><body><article><p>Some content here.</p></article>
<a href="mailto:jane@janedoe.dev?subject=Hi">Email</a></body></html>`

	extractor := New(testProduct())
	_, author, err := extractor.Extract("https://example.com/post", []byte(page))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if author.PublicEmail != "jane@janedoe.dev" {
		t.Errorf("email = %q, want query parameters stripped", author.PublicEmail)
	}
}

func TestExtractContactFormFallback(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Post</title></head><body><article><p>Some content here.</p></article>
<a href="/contact-us">Get in touch</a></body></html>`

	extractor := New(testProduct())
	_, author, err := extractor.Extract("https://example.com/post", []byte(page))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if author.ContactFormURL != "/contact-us" {
		t.Errorf("contact form = %q", author.ContactFormURL)
	}
	if author.BestContactMethod() != domain.ContactForm {
		t.Errorf("best contact = %q, want contact-form", author.BestContactMethod())
	}
}

func TestExtractEmptyBody(t *testing.T) {
	t.Parallel()

	extractor := New(testProduct())
	_, _, err := extractor.Extract("https://example.com/blank", []byte("   \n  "))

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("err = %v, want ExtractionError", err)
	}
}

func TestExtractNoContent(t *testing.T) {
	t.Parallel()

	extractor := New(testProduct())
	_, _, err := extractor.Extract("https://example.com/empty", []byte(`<html><head></head><body></body></html>`))
	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("err = %v, want ExtractionError", err)
	}
}

func TestExtractProductAliasDetection(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Review</title></head><body><article>
<p>We tried Screen Loop for our async screening rounds.</p></article></body></html>`

	extractor := New(testProduct())
	article, _, err := extractor.Extract("https://example.com/review", []byte(page))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !article.MentionsProduct {
		t.Error("alias mention should flag the product")
	}
}

func TestExtractExcerptTruncation(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 200)
	page := `<html><head><title>Long Post</title></head><body><article><p>` + long + `</p></article></body></html>`

	extractor := New(testProduct())
	article, _, err := extractor.Extract("https://example.com/long", []byte(page))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := len([]rune(article.Excerpt)); got != 200 {
		t.Errorf("excerpt runes = %d, want exactly 200", got)
	}
	if !strings.HasPrefix(article.BodyText, article.Excerpt) {
		t.Error("excerpt must be a prefix of the body")
	}
}

func TestClassifyContentType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		title string
		url   string
		want  domain.ContentType
	}{
		{"HireVue vs Spark Hire: Which Wins?", "https://x.com/a", domain.TypeComparison},
		{"10 Screening Tools Worth a Look", "https://x.com/a", domain.TypeListicle},
		{"Top 5 Interview Platforms", "https://x.com/a", domain.TypeListicle},
		{"Best Video Interview Software", "https://x.com/a", domain.TypeListicle},
		{"HireVue Alternatives This Year", "https://x.com/a", domain.TypeListicle},
		{"How We Cut Time-to-Hire in Half", "https://x.com/a", domain.TypeCaseStudy},
		{"Scaling Hiring", "https://x.com/case-studies/acme", domain.TypeCaseStudy},
		{"A Step-by-Step Walkthrough of Structured Interviews", "https://x.com/a", domain.TypeTutorial},
		{"The Complete Guide to Remote Hiring", "https://x.com/a", domain.TypeGuide},
		{"Acme Raises $20M for Hiring AI", "https://x.com/a", domain.TypeNews},
		{"Thoughts on Interviews", "https://x.com/news/opinion-piece", domain.TypeNews},
		{"Why I Stopped Doing Panel Interviews", "https://x.com/a", domain.TypeOpinion},
	}

	for _, tc := range cases {
		if got := ClassifyContentType(tc.title, tc.url); got != tc.want {
			t.Errorf("ClassifyContentType(%q, %q) = %q, want %q", tc.title, tc.url, got, tc.want)
		}
	}
}

func TestClassifyComparisonBeatsListicle(t *testing.T) {
	t.Parallel()

	// Title matches both rule sets; comparison is evaluated first.
	got := ClassifyContentType("Best Tools Compared: A Comparison", "https://x.com/a")
	if got != domain.TypeComparison {
		t.Errorf("got %q, want comparison", got)
	}
}

func TestIsPersonalEmail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		address string
		want    bool
	}{
		{"jane@janedoe.dev", true},
		{"j.doe@example.com", true},
		{"info@example.com", false},
		{"Support@Example.com", false},
		{"noreply@example.com", false},
		{"@example.com", false},
		{"jane@", false},
		{"not-an-email", false},
	}
	for _, tc := range cases {
		if got := isPersonalEmail(tc.address); got != tc.want {
			t.Errorf("isPersonalEmail(%q) = %v, want %v", tc.address, got, tc.want)
		}
	}
}
