// Package memstore keeps users, activity and badge collections in process
// memory. It backs the server when no database is configured and doubles as
// a reference implementation of the store contracts.
package memstore

import (
	"context"
	"sort"
	"sync"

	"nycexplorer/internal/activity"
	"nycexplorer/internal/badges"
	"nycexplorer/internal/engine"
)

type user struct {
	profile     activity.Profile
	prefs       activity.Preferences
	badges      badges.Collection
	version     int64
	itineraries map[string]activity.Itinerary
}

type Store struct {
	mu         sync.Mutex
	users      map[string]*user
	businesses map[string]activity.Business
	reviews    map[string]activity.Review
}

func New() *Store {
	return &Store{
		users:      make(map[string]*user),
		businesses: make(map[string]activity.Business),
		reviews:    make(map[string]activity.Review),
	}
}

// userLocked returns the user record, creating it on first use. s.mu must
// be held.
func (s *Store) userLocked(id string) *user {
	u, ok := s.users[id]
	if !ok {
		u = &user{itineraries: make(map[string]activity.Itinerary)}
		s.users[id] = u
	}
	return u
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) UpsertBusiness(_ context.Context, b activity.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.Categories = append([]string(nil), b.Categories...)
	s.businesses[b.ID] = b
	return nil
}

func (s *Store) Business(_ context.Context, id string) (activity.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.businesses[id]
	if !ok {
		return activity.Business{}, activity.ErrNotFound
	}
	return b, nil
}

func (s *Store) BusinessesByID(_ context.Context, ids []string) (map[string]activity.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]activity.Business, len(ids))
	for _, id := range ids {
		if b, ok := s.businesses[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

func (s *Store) CreateReview(_ context.Context, r activity.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userLocked(r.UserID)
	s.reviews[r.ID] = r
	return nil
}

func (s *Store) DeleteReview(_ context.Context, userID, reviewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[reviewID]
	if !ok || r.UserID != userID {
		return activity.ErrNotFound
	}
	delete(s.reviews, reviewID)
	return nil
}

func (s *Store) ReviewCount(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reviews {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

// Reviews lists the user's reviews oldest first.
func (s *Store) Reviews(_ context.Context, userID string) ([]activity.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []activity.Review
	for _, r := range s.reviews {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) Profile(_ context.Context, userID string) (activity.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return activity.Profile{}, activity.ErrNotFound
	}
	return u.profile, nil
}

// UpdateProfile replaces the editable profile fields; the picture is kept.
func (s *Store) UpdateProfile(_ context.Context, userID string, p activity.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userID)
	p.ProfilePicture = u.profile.ProfilePicture
	u.profile = p
	return nil
}

func (s *Store) SetProfilePicture(_ context.Context, userID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userLocked(userID).profile.ProfilePicture = url
	return nil
}

func (s *Store) HasProfilePicture(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	return ok && u.profile.ProfilePicture != "", nil
}

func (s *Store) SetPreferences(_ context.Context, userID string, p activity.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userLocked(userID).prefs = activity.Preferences{
		Food:       append([]string(nil), p.Food...),
		Activities: append([]string(nil), p.Activities...),
		Places:     append([]string(nil), p.Places...),
		Custom:     append([]string(nil), p.Custom...),
	}
	return nil
}

func (s *Store) Preferences(_ context.Context, userID string) (activity.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return activity.Preferences{}, nil
	}
	return u.prefs, nil
}

func (s *Store) CreateItinerary(_ context.Context, it activity.Itinerary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userLocked(it.UserID).itineraries[it.ID] = it
	return nil
}

func (s *Store) Itineraries(_ context.Context, userID string) ([]activity.Itinerary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	out := make([]activity.Itinerary, 0, len(u.itineraries))
	for _, it := range u.itineraries {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteItinerary(_ context.Context, userID, itineraryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return activity.ErrNotFound
	}
	if _, ok := u.itineraries[itineraryID]; !ok {
		return activity.ErrNotFound
	}
	delete(u.itineraries, itineraryID)
	return nil
}

func (s *Store) ItineraryCount(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, nil
	}
	return len(u.itineraries), nil
}

func (s *Store) LoadBadges(_ context.Context, userID string) (badges.Collection, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, 0, nil
	}
	return u.badges.Clone(), u.version, nil
}

func (s *Store) SaveBadges(_ context.Context, userID string, c badges.Collection, expected int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userID)
	if u.version != expected {
		return 0, engine.ErrVersionConflict
	}
	u.badges = c.Clone()
	u.version++
	return u.version, nil
}

var (
	_ activity.Store    = (*Store)(nil)
	_ engine.BadgeStore = (*Store)(nil)
)
