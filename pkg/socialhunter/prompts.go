package socialhunter

import (
	"fmt"
	"strings"

	"github.com/jordanlanch/beautyos/pkg/googlemaps"
	"github.com/jordanlanch/beautyos/pkg/reddit"
	"github.com/jordanlanch/beautyos/pkg/tenant"
)

// DefaultKeywords seed every Reddit search.
var DefaultKeywords = []string{
	"wax recommendation",
	"lash tech",
	"nail salon",
	"beauty salon recommendation",
	"who does waxing",
	"looking for esthetician",
	"need a facial",
	"brow threading",
	"recommend beauty",
}

const evaluationSchema = `RESPOND WITH VALID JSON ONLY:
{
    "is_relevant": true/false,
    "match_score": 0.0-1.0,
    "reasoning": "%s",
    "drafted_reply": "%s"
}

If is_relevant is false, set match_score to the relevance level anyway (for analytics)
and drafted_reply to an empty string.`

func postPrompt(cfg *tenant.StudioConfig) string {
	name := cfg.Studio.Name
	personality := cfg.BrandVoice.Personality

	var b strings.Builder
	fmt.Fprintf(&b, "You are the Social Hunter AI for %q.\n\n", name)
	fmt.Fprintf(&b, "Your job is to evaluate social media posts to determine if the person is looking\n"+
		"for beauty services that %s offers, and if so, draft a helpful reply.\n\n", name)
	fmt.Fprintf(&b, "STUDIO SERVICES:\n%s\n\n", tenant.ServicesMenu(cfg))
	fmt.Fprintf(&b, "STUDIO PERSONALITY:\n%s\n\n", personality)
	b.WriteString("EVALUATION CRITERIA:\n" +
		"1. Is the person asking for or looking for a beauty service that this studio offers?\n" +
		"2. Do they seem to be in or near the studio's area? (If location is unclear, give benefit of the doubt.)\n" +
		"3. Is this a genuine recommendation request (not spam, ads, or self-promotion)?\n\n")
	b.WriteString("IMPORTANT RULES FOR THE DRAFTED REPLY:\n" +
		"- Be genuinely helpful FIRST. Answer their question, give useful advice.\n" +
		"- Mention the studio naturally as a recommendation, NOT as a hard sell.\n" +
		"- Do NOT sound like an ad or bot. Sound like a real person who happens to know a great place.\n" +
		"- Keep it concise (2-4 sentences max).\n")
	fmt.Fprintf(&b, "- Include the studio name: %q\n", name)
	fmt.Fprintf(&b, "- If the studio has a booking URL, you may include it naturally: %s\n", cfg.Studio.BookingURL)
	fmt.Fprintf(&b, "- Match the studio's tone: %s\n\n", truncate(personality, 100))
	fmt.Fprintf(&b, evaluationSchema,
		"Brief explanation of why this post is or isn't a match",
		"The Reddit comment to post (only if is_relevant is true, otherwise empty string)")
	return b.String()
}

func reviewPrompt(cfg *tenant.StudioConfig) string {
	name := cfg.Studio.Name

	var b strings.Builder
	fmt.Fprintf(&b, "You are the Social Hunter AI for %q.\n\n", name)
	b.WriteString("Your job is to evaluate NEGATIVE REVIEWS of competing beauty businesses to determine\n" +
		"if the reviewer is likely looking for a new provider and could be a potential client.\n\n")
	fmt.Fprintf(&b, "STUDIO SERVICES:\n%s\n\n", tenant.ServicesMenu(cfg))
	fmt.Fprintf(&b, "EVALUATION CRITERIA:\n"+
		"1. Does the review indicate the person is unhappy enough to switch providers?\n"+
		"2. Is the complaint about a service that %[1]s offers?\n"+
		"3. Does the review mention specific issues that %[1]s could solve\n"+
		"   (e.g., poor quality, rudeness, long waits, cancellation issues)?\n"+
		"4. Is this a recent review from a real person (not a fake/spam review)?\n\n", name)
	b.WriteString("IMPORTANT RULES FOR THE OUTREACH TEMPLATE:\n" +
		"- Draft a SHORT, empathetic outreach message (2-3 sentences max).\n" +
		"- Do NOT mention you read their negative review. That feels creepy.\n" +
		"- Instead, position as a friendly local recommendation or introduction.\n")
	fmt.Fprintf(&b, "- Mention %s naturally and what makes it different.\n", name)
	fmt.Fprintf(&b, "- Include booking URL if available: %s\n", cfg.Studio.BookingURL)
	fmt.Fprintf(&b, "- Match the studio's tone: %s\n", truncate(cfg.BrandVoice.Personality, 100))
	b.WriteString("- This message is for the studio owner to adapt and send themselves\n" +
		"  (via DM, comment, or local community). It is NOT auto-posted.\n\n")
	fmt.Fprintf(&b, evaluationSchema,
		"Brief explanation of why this reviewer is or isn't a potential client",
		"Outreach template for the studio owner (only if is_relevant, otherwise empty string)")
	return b.String()
}

func postMessage(p reddit.Post) string {
	return fmt.Sprintf("Subreddit: r/%s\nTitle: %s\nBody: %s\nAuthor: u/%s\nScore: %d upvotes, %d comments",
		p.Subreddit, p.Title, truncate(p.Body, 1000), p.Author, p.Score, p.NumComments)
}

func reviewMessage(r googlemaps.Review) string {
	posted := "unknown"
	if !r.Time.IsZero() {
		posted = r.Time.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("Business: %s\nLocation: %s\nReviewer: %s\nRating: %d star(s)\nReview: %s\nPosted: %s",
		r.PlaceName, r.PlaceAddress, r.Author, r.Rating, truncate(r.Text, 1000), posted)
}

// studioKeywords extends DefaultKeywords with each service name and its
// longer words.
func studioKeywords(cfg *tenant.StudioConfig) []string {
	keywords := append([]string(nil), DefaultKeywords...)
	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		seen[k] = true
	}
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			keywords = append(keywords, k)
		}
	}

	for _, svc := range cfg.Services {
		name := strings.ToLower(svc.Name)
		add(name)
		for _, word := range strings.Fields(name) {
			if len(word) > 3 {
				add(word)
			}
		}
	}
	return keywords
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
