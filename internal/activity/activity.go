// Package activity holds the user-activity records badge evaluation reads
// and the Source contract that backing stores implement.
package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by stores for a missing or foreign-owned record.
var ErrNotFound = errors.New("activity: not found")

type Review struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	BusinessID string    `json:"businessId"`
	Rating     int       `json:"rating"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Location struct {
	Address      string `json:"address,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	ZipCode      string `json:"zipCode,omitempty"`
}

type Business struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Location   Location `json:"location"`
}

type Preferences struct {
	Food       []string `json:"food"`
	Activities []string `json:"activities"`
	Places     []string `json:"places"`
	Custom     []string `json:"custom"`
}

// Complete reports whether food, activities and places each hold at least
// one non-blank entry.
func (p Preferences) Complete() bool {
	return hasEntry(p.Food) && hasEntry(p.Activities) && hasEntry(p.Places)
}

func hasEntry(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

type Profile struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Username       string `json:"username"`
	ZipCode        string `json:"zipCode"`
	ProfilePicture string `json:"profilePicture"`
}

type Itinerary struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

// Source supplies the activity facts badge evaluation consumes. Every call
// may block on I/O.
type Source interface {
	ReviewCount(ctx context.Context, userID string) (int, error)
	Reviews(ctx context.Context, userID string) ([]Review, error)
	// BusinessesByID resolves a batch of ids. Unknown ids are absent from
	// the result rather than reported as errors.
	BusinessesByID(ctx context.Context, ids []string) (map[string]Business, error)
	Preferences(ctx context.Context, userID string) (Preferences, error)
	HasProfilePicture(ctx context.Context, userID string) (bool, error)
	ItineraryCount(ctx context.Context, userID string) (int, error)
}

// Store is the full backing store behind the HTTP API: the Source facts plus
// the writes whose completion fires badge events.
type Store interface {
	Source

	UpsertBusiness(ctx context.Context, b Business) error
	Business(ctx context.Context, id string) (Business, error)

	CreateReview(ctx context.Context, r Review) error
	DeleteReview(ctx context.Context, userID, reviewID string) error

	Profile(ctx context.Context, userID string) (Profile, error)
	UpdateProfile(ctx context.Context, userID string, p Profile) error
	SetProfilePicture(ctx context.Context, userID, url string) error
	SetPreferences(ctx context.Context, userID string, p Preferences) error

	CreateItinerary(ctx context.Context, it Itinerary) error
	Itineraries(ctx context.Context, userID string) ([]Itinerary, error)
	DeleteItinerary(ctx context.Context, userID, itineraryID string) error

	Ping(ctx context.Context) error
}
