package engine

import (
	"context"
	"sync"

	"nycexplorer/internal/activity"
	"nycexplorer/internal/badges"
)

type storedBadges struct {
	c       badges.Collection
	version int64
}

type fakeStore struct {
	mu       sync.Mutex
	data     map[string]storedBadges
	saveErr  error
	loads    int
	saves    int
	attempts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]storedBadges)}
}

func (s *fakeStore) LoadBadges(_ context.Context, userID string) (badges.Collection, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	d := s.data[userID]
	return d.c.Clone(), d.version, nil
}

func (s *fakeStore) SaveBadges(_ context.Context, userID string, c badges.Collection, expected int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	d := s.data[userID]
	if d.version != expected {
		return 0, ErrVersionConflict
	}
	s.saves++
	d = storedBadges{c: c.Clone(), version: expected + 1}
	s.data[userID] = d
	return d.version, nil
}

func (s *fakeStore) put(userID string, c badges.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.data[userID]
	s.data[userID] = storedBadges{c: c.Clone(), version: d.version + 1}
}

func (s *fakeStore) get(userID string) (badges.Collection, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.data[userID]
	return d.c.Clone(), d.version
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type fakeSource struct {
	mu          sync.Mutex
	reviews     []activity.Review
	businesses  map[string]activity.Business
	prefs       activity.Preferences
	hasPicture  bool
	itineraries int

	countErr     error
	reviewsErr   error
	blockCount   bool
	calls        map[string]int
	lastBatchIDs []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		businesses: make(map[string]activity.Business),
		calls:      make(map[string]int),
	}
}

func (s *fakeSource) called(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *fakeSource) addReview(businessID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append(s.reviews, activity.Review{ID: "r-" + businessID, BusinessID: businessID})
}

func (s *fakeSource) addBusiness(id, neighborhood string, categories ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.businesses[id] = activity.Business{
		ID:         id,
		Categories: categories,
		Location:   activity.Location{Neighborhood: neighborhood},
	}
}

func (s *fakeSource) ReviewCount(ctx context.Context, _ string) (int, error) {
	s.mu.Lock()
	s.calls["ReviewCount"]++
	block, err, n := s.blockCount, s.countErr, len(s.reviews)
	s.mu.Unlock()
	if block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *fakeSource) Reviews(_ context.Context, _ string) ([]activity.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["Reviews"]++
	if s.reviewsErr != nil {
		return nil, s.reviewsErr
	}
	return append([]activity.Review(nil), s.reviews...), nil
}

func (s *fakeSource) BusinessesByID(_ context.Context, ids []string) (map[string]activity.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["BusinessesByID"]++
	s.lastBatchIDs = append([]string(nil), ids...)
	out := make(map[string]activity.Business, len(ids))
	for _, id := range ids {
		if b, ok := s.businesses[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

func (s *fakeSource) Preferences(_ context.Context, _ string) (activity.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["Preferences"]++
	return s.prefs, nil
}

func (s *fakeSource) HasProfilePicture(_ context.Context, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["HasProfilePicture"]++
	return s.hasPicture, nil
}

func (s *fakeSource) ItineraryCount(_ context.Context, _ string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["ItineraryCount"]++
	return s.itineraries, nil
}
