package domain

import "testing"

func TestBestContactMethodPriority(t *testing.T) {
	t.Parallel()

	full := AuthorContact{
		PublicEmail:    "jane@example.com",
		ContactFormURL: "https://example.com/contact",
		LinkedIn:       "https://linkedin.com/in/jane",
		Twitter:        "https://twitter.com/jane",
		IsFreelance:    true,
	}
	if got := full.BestContactMethod(); got != ContactEmail {
		t.Fatalf("email must win over every other channel, got %s", got)
	}

	full.PublicEmail = ""
	if got := full.BestContactMethod(); got != ContactForm {
		t.Fatalf("expected contact-form, got %s", got)
	}

	full.ContactFormURL = ""
	if got := full.BestContactMethod(); got != ContactLinkedIn {
		t.Fatalf("expected linkedin for freelancer, got %s", got)
	}

	full.IsFreelance = false
	if got := full.BestContactMethod(); got != ContactTwitter {
		t.Fatalf("linkedin only counts for freelancers, got %s", got)
	}

	full.Twitter = ""
	if got := full.BestContactMethod(); got != ContactUnknown {
		t.Fatalf("expected unknown with no channels, got %s", got)
	}
}

func TestPriorityBands(t *testing.T) {
	t.Parallel()

	cases := []struct {
		total int
		want  Priority
	}{
		{100, PriorityExcellent},
		{80, PriorityExcellent},
		{79, PriorityStrong},
		{60, PriorityStrong},
		{59, PriorityModerate},
		{40, PriorityModerate},
		{39, PriorityWeak},
		{20, PriorityWeak},
		{19, PrioritySkip},
		{0, PrioritySkip},
	}

	for _, tc := range cases {
		if got := PriorityFor(tc.total); got != tc.want {
			t.Fatalf("PriorityFor(%d) = %s, want %s", tc.total, got, tc.want)
		}
	}
}

func TestProspectIDStable(t *testing.T) {
	t.Parallel()

	first := ProspectID("example.com/article", "Screenloop")
	second := ProspectID("example.com/article", "Screenloop")
	if first != second {
		t.Fatalf("same URL and product must keep the same id: %s vs %s", first, second)
	}

	other := ProspectID("example.com/article", "OtherProduct")
	if first == other {
		t.Fatalf("different products must not collide on one URL")
	}
}

func TestScoreBreakdownTotal(t *testing.T) {
	t.Parallel()

	breakdown := ScoreBreakdown{
		TopicalRelevance:  30,
		ArticleQuality:    20,
		Updateability:     20,
		AuthorCredibility: 15,
		CompetitiveGap:    10,
		Reachability:      5,
	}
	if breakdown.Total() != 100 {
		t.Fatalf("caps must sum to 100, got %d", breakdown.Total())
	}
}
