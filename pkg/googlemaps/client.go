// Package googlemaps finds nearby competitors and their negative reviews.
package googlemaps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"github.com/jordanlanch/beautyos/pkg/logger"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("google maps api key not configured")

// ErrNoResults is returned when a location cannot be geocoded.
var ErrNoResults = errors.New("location not found")

// DefaultBusinessTypes are searched when none are given.
var DefaultBusinessTypes = []string{"beauty_salon", "hair_care", "spa"}

// LatLng is a coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Review is a low-rated review of a nearby business.
type Review struct {
	ReviewID     string    `json:"review_id"`
	PlaceID      string    `json:"place_id"`
	PlaceName    string    `json:"place_name"`
	PlaceAddress string    `json:"place_address"`
	Author       string    `json:"author"`
	Rating       int       `json:"rating"`
	Text         string    `json:"text"`
	Time         time.Time `json:"time"`
}

type placesAPI interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	NearbySearch(ctx context.Context, r *maps.NearbySearchRequest) (maps.PlacesSearchResponse, error)
	PlaceDetails(ctx context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error)
}

// Client wraps the Maps Geocoding and Places APIs.
type Client struct {
	api    placesAPI
	radius uint
	logger logger.Logger
}

// NewClient creates a client. An empty key yields an unconfigured client.
func NewClient(apiKey string, radiusMeters int, log logger.Logger) (*Client, error) {
	c := &Client{radius: uint(radiusMeters), logger: log.With("component", "googlemaps")}
	if apiKey == "" {
		return c, nil
	}

	mc, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	c.api = mc
	return c, nil
}

// Geocode converts a zip code or city to coordinates.
func (c *Client) Geocode(ctx context.Context, location string) (*LatLng, error) {
	if c.api == nil {
		return nil, ErrNotConfigured
	}

	results, err := c.api.Geocode(ctx, &maps.GeocodingRequest{Address: location})
	if err != nil {
		return nil, fmt.Errorf("failed to geocode %q: %w", location, err)
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	loc := results[0].Geometry.Location
	return &LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// NegativeReviews returns non-empty reviews rated maxRating or lower for
// businesses near the point. Places whose name contains excludeName are
// skipped.
func (c *Client) NegativeReviews(ctx context.Context, lat, lng float64, maxRating int, excludeName string, types []string) ([]Review, error) {
	out := make([]Review, 0)
	if c.api == nil {
		c.logger.Warn("google maps not configured, skipping review search")
		return out, nil
	}
	if len(types) == 0 {
		types = DefaultBusinessTypes
	}
	exclude := strings.ToLower(strings.TrimSpace(excludeName))

	seen := make(map[string]struct{})
	for _, t := range types {
		resp, err := c.api.NearbySearch(ctx, &maps.NearbySearchRequest{
			Location: &maps.LatLng{Lat: lat, Lng: lng},
			Radius:   c.radius,
			Type:     maps.PlaceType(t),
		})
		if err != nil {
			c.logger.Error("nearby search failed", "type", t, "error", err)
			continue
		}

		for _, place := range resp.Results {
			if _, ok := seen[place.PlaceID]; ok {
				continue
			}
			seen[place.PlaceID] = struct{}{}

			if exclude != "" && strings.Contains(strings.ToLower(place.Name), exclude) {
				continue
			}

			details, err := c.api.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
				PlaceID: place.PlaceID,
				Fields:  []maps.PlaceDetailsFieldMask{maps.PlaceDetailsFieldMaskReviews},
			})
			if err != nil {
				c.logger.Error("place details failed", "place_id", place.PlaceID, "error", err)
				continue
			}

			address := place.FormattedAddress
			if address == "" {
				address = place.Vicinity
			}
			for _, r := range details.Reviews {
				if r.Rating > maxRating || strings.TrimSpace(r.Text) == "" {
					continue
				}
				author := r.AuthorName
				if author == "" {
					author = "Anonymous"
				}
				out = append(out, Review{
					ReviewID:     ReviewID(place.PlaceID, author, r.Rating),
					PlaceID:      place.PlaceID,
					PlaceName:    place.Name,
					PlaceAddress: address,
					Author:       author,
					Rating:       r.Rating,
					Text:         r.Text,
					Time:         time.Unix(int64(r.Time), 0).UTC(),
				})
			}
		}
	}

	return out, nil
}

// ReviewID is the dedup key stored as a lead's post_id.
func ReviewID(placeID, author string, rating int) string {
	return fmt.Sprintf("gmaps_%s_%s_%d", placeID, author, rating)
}
