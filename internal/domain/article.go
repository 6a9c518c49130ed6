package domain

import "time"

// SearchResult is an ephemeral hit produced by a search source. It carries
// no identity beyond its URL and is discarded once the page fetch is
// dispatched.
type SearchResult struct {
	Title    string
	URL      string
	Snippet  string
	SourceID string
}

// ContentType classifies the editorial shape of an article.
type ContentType string

const (
	TypeListicle   ContentType = "listicle"
	TypeGuide      ContentType = "guide"
	TypeComparison ContentType = "comparison"
	TypeCaseStudy  ContentType = "case-study"
	TypeNews       ContentType = "news"
	TypeOpinion    ContentType = "opinion"
	TypeTutorial   ContentType = "tutorial"
)

// Article is the normalized record extracted from one fetched page.
// It is immutable after extraction; re-scoring produces a new score
// record, never a mutated Article.
type Article struct {
	Title                string
	URL                  string
	PublicationName      string
	PublishDate          *time.Time
	LastUpdatedDate      *time.Time
	BodyText             string
	Excerpt              string
	WordCount            int
	DetectedTopics       []string
	ContentType          ContentType
	MentionsProduct      bool
	MentionedCompetitors []string
	Domain               string
}

// ContactMethod enumerates outreach channels in descending preference.
type ContactMethod string

const (
	ContactEmail    ContactMethod = "email"
	ContactForm     ContactMethod = "contact-form"
	ContactLinkedIn ContactMethod = "linkedin"
	ContactTwitter  ContactMethod = "twitter"
	ContactUnknown  ContactMethod = "unknown"
)

// AuthorContact describes the person behind an article. PublicEmail is
// only ever populated from an address literally present on a page
// (mailto link or a clearly personal pattern); it is never synthesized.
type AuthorContact struct {
	Name           string
	Bio            string
	Title          string
	Website        string
	LinkedIn       string
	Twitter        string
	GitHub         string
	PublicEmail    string
	ContactFormURL string
	IsFreelance    bool
	IsEditor       bool
	Publication    string
}

// BestContactMethod derives the preferred outreach channel from the
// populated contact fields. Priority: email > contact form > linkedin
// (freelancers only) > twitter.
func (a AuthorContact) BestContactMethod() ContactMethod {
	switch {
	case a.PublicEmail != "":
		return ContactEmail
	case a.ContactFormURL != "":
		return ContactForm
	case a.LinkedIn != "" && a.IsFreelance:
		return ContactLinkedIn
	case a.Twitter != "":
		return ContactTwitter
	default:
		return ContactUnknown
	}
}
