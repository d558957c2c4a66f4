// Package testdata generates realistic demo data for a studio.
package testdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jordanlanch/beautyos/pkg/lifecycle"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/jordanlanch/beautyos/pkg/socialleads"
	"github.com/jordanlanch/beautyos/pkg/tenant"
)

// DemoConfig configures demo generation
type DemoConfig struct {
	Seed          int64
	Clients       int
	Bookings      int
	Waitlist      int
	SocialLeads   int
	BookingWindow time.Duration // bookings are spread over now..now+window
	Now           time.Time
}

// DefaultDemoConfig is a small but lively studio
func DefaultDemoConfig() DemoConfig {
	return DemoConfig{
		Seed:          42,
		Clients:       12,
		Bookings:      10,
		Waitlist:      4,
		SocialLeads:   6,
		BookingWindow: 72 * time.Hour,
	}
}

// DemoSummary counts what was inserted
type DemoSummary struct {
	Services    int `json:"services"`
	Addons      int `json:"addons"`
	Clients     int `json:"clients"`
	Bookings    int `json:"bookings"`
	Waitlist    int `json:"waitlist"`
	SocialLeads int `json:"social_leads"`
}

type menuItem struct {
	Name        string
	Price       float64
	DurationMin int
	Addons      []addonItem
}

type addonItem struct {
	Name        string
	Price       float64
	DurationMin int
	Pitch       string
}

// Menu is the demo service catalog
var Menu = []menuItem{
	{"Gel Manicure", 45, 60, []addonItem{
		{"Nail Art (2 nails)", 15, 15, "Add a little sparkle to your set"},
		{"Paraffin Dip", 10, 10, "Silky soft hands to match your nails"},
	}},
	{"Brazilian Wax", 60, 30, []addonItem{
		{"Brow Wax", 18, 15, "Clean up your brows while you're here"},
	}},
	{"Lash Lift & Tint", 85, 60, []addonItem{
		{"Brow Tint", 20, 10, "Frame those lifted lashes"},
	}},
	{"Classic Facial", 95, 60, []addonItem{
		{"LED Therapy", 25, 15, "Boost your glow with 15 minutes of LED"},
		{"Eye Treatment", 15, 10, "De-puff and brighten"},
	}},
	{"Balayage", 180, 150, nil},
}

// Studio name parts
var (
	studioPrefixes = []string{"Bella", "Glamour", "Luxe", "Divine", "Radiant", "Pure", "Chic", "Polished", "Serenity", "Glow"}
	studioSuffixes = []string{"Beauty Bar", "Beauty Studio", "Nail Lounge", "Lash Loft", "Day Spa", "Salon"}
)

var postPhrases = []string{
	"Looking for a good %s recommendation",
	"Anyone know where to get a great %s?",
	"Need a new place for %s, my old one closed",
	"Best spot for %s near downtown?",
}

var demoSubreddits = []string{"Austin", "askTO", "nyc", "BeautyGuruChatter"}

// GenerateStudioName builds a plausible studio name
func GenerateStudioName(f *gofakeit.Faker) string {
	return fmt.Sprintf("%s %s", f.RandomString(studioPrefixes), f.RandomString(studioSuffixes))
}

// GeneratePhone returns a dialable US number in E.164
func GeneratePhone(f *gofakeit.Faker) string {
	return fmt.Sprintf("+1512555%04d", f.Number(0, 9999))
}

// SeedStudio fills a studio with a menu, clients, bookings, a waitlist and
// social leads. It returns an error on the first failed insert.
func SeedStudio(ctx context.Context, tenants *tenant.Store, lc *lifecycle.Store, leads *socialleads.Store, studioID string, cfg DemoConfig) (*DemoSummary, error) {
	f := gofakeit.New(cfg.Seed)
	now := cfg.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if cfg.BookingWindow <= 0 {
		cfg.BookingWindow = 72 * time.Hour
	}

	summary := &DemoSummary{}

	for _, item := range Menu {
		serviceID, err := tenants.CreateService(ctx, studioID, item.Name, item.Price, item.DurationMin)
		if err != nil {
			return nil, err
		}
		summary.Services++
		for _, a := range item.Addons {
			if _, err := tenants.CreateAddon(ctx, serviceID, studioID, a.Name, a.Price, a.DurationMin, a.Pitch); err != nil {
				return nil, err
			}
			summary.Addons++
		}
	}

	clients := make([]string, 0, cfg.Clients)
	for i := 0; i < cfg.Clients; i++ {
		id, err := lc.CreateClient(ctx, lifecycle.NewClient{
			Name:            f.FirstName() + " " + f.LastName(),
			Phone:           GeneratePhone(f),
			InstagramHandle: strings.ToLower(f.Username()),
			StudioID:        studioID,
		})
		if err != nil {
			return nil, err
		}
		clients = append(clients, id)
	}
	summary.Clients = len(clients)
	if len(clients) == 0 {
		return summary, nil
	}

	sources := []string{string(models.SourceInstagram), string(models.SourceWeb), string(models.SourceReferral)}
	for i := 0; i < cfg.Bookings; i++ {
		item := Menu[f.Number(0, len(Menu)-1)]
		at := now.Add(time.Duration(f.Number(1, int(cfg.BookingWindow/time.Hour))) * time.Hour).Truncate(time.Hour)
		if _, err := lc.CreateBooking(ctx, lifecycle.NewBooking{
			ClientID:    clients[i%len(clients)],
			Service:     item.Name,
			Price:       item.Price,
			ScheduledAt: at,
			Source:      models.BookingSource(f.RandomString(sources)),
			StudioID:    studioID,
		}); err != nil {
			return nil, err
		}
		summary.Bookings++
	}

	for i := 0; i < cfg.Waitlist; i++ {
		item := Menu[f.Number(0, len(Menu)-1)]
		if _, err := lc.AddToWaitlist(ctx, lifecycle.NewWaitlistEntry{
			ClientID:    clients[len(clients)-1-i%len(clients)],
			Service:     item.Name,
			PreferredAt: f.RandomString([]string{"Weekday mornings", "Weekends", "Any time", "After 5pm"}),
			StudioID:    studioID,
		}); err != nil {
			return nil, err
		}
		summary.Waitlist++
	}

	for i := 0; i < cfg.SocialLeads; i++ {
		item := Menu[f.Number(0, len(Menu)-1)]
		subreddit := f.RandomString(demoSubreddits)
		postID := strings.ToLower(f.LetterN(7))
		if _, err := leads.SaveSocialLead(ctx, socialleads.NewSocialLead{
			StudioID:       studioID,
			Platform:       models.PlatformReddit,
			PostID:         postID,
			PostURL:        fmt.Sprintf("https://www.reddit.com/r/%s/comments/%s/", subreddit, postID),
			PostTitle:      fmt.Sprintf(f.RandomString(postPhrases), strings.ToLower(item.Name)),
			PostBody:       f.Sentence(18),
			Subreddit:      subreddit,
			Author:         f.Username(),
			MatchScore:     f.Float64Range(0.5, 1),
			MatchReasoning: "Demo lead asking for a local recommendation",
			DraftedReply:   fmt.Sprintf("We'd love to help with your %s! DM us for an opening this week.", strings.ToLower(item.Name)),
			Status:         models.LeadNew,
		}); err != nil {
			return nil, err
		}
		summary.SocialLeads++
	}

	return summary, nil
}
