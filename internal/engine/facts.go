package engine

import (
	"context"
	"fmt"
	"time"

	"nycexplorer/internal/activity"
	"nycexplorer/internal/badges"
)

// factSet fetches activity facts for one event. Review lists and resolved
// businesses are memoized on success so the later review families reuse
// them; failures are not cached and the next family tries again.
type factSet struct {
	src     activity.Source
	userID  string
	timeout time.Duration

	reviews    []activity.Review
	hasReviews bool

	reviewed    []activity.Business
	hasReviewed bool
}

func newFactSet(src activity.Source, userID string, timeout time.Duration) *factSet {
	return &factSet{src: src, userID: userID, timeout: timeout}
}

func fetch[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx)
}

func (f *factSet) reviewCount(ctx context.Context) (int, error) {
	return fetch(ctx, f.timeout, func(ctx context.Context) (int, error) {
		return f.src.ReviewCount(ctx, f.userID)
	})
}

func (f *factSet) reviewList(ctx context.Context) ([]activity.Review, error) {
	if f.hasReviews {
		return f.reviews, nil
	}
	reviews, err := fetch(ctx, f.timeout, func(ctx context.Context) ([]activity.Review, error) {
		return f.src.Reviews(ctx, f.userID)
	})
	if err != nil {
		return nil, err
	}
	f.reviews, f.hasReviews = reviews, true
	return reviews, nil
}

// reviewedBusinesses resolves every distinct reviewed business in one batch.
// Businesses that no longer exist are skipped.
func (f *factSet) reviewedBusinesses(ctx context.Context) ([]activity.Business, error) {
	if f.hasReviewed {
		return f.reviewed, nil
	}
	reviews, err := f.reviewList(ctx)
	if err != nil {
		return nil, err
	}
	ids := badges.ReviewedBusinessIDs(reviews)
	if len(ids) == 0 {
		f.reviewed, f.hasReviewed = nil, true
		return nil, nil
	}
	found, err := fetch(ctx, f.timeout, func(ctx context.Context) (map[string]activity.Business, error) {
		return f.src.BusinessesByID(ctx, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("resolving %d businesses: %w", len(ids), err)
	}
	out := make([]activity.Business, 0, len(found))
	for _, id := range ids {
		if b, ok := found[id]; ok {
			out = append(out, b)
		}
	}
	f.reviewed, f.hasReviewed = out, true
	return out, nil
}

func (f *factSet) preferences(ctx context.Context) (activity.Preferences, error) {
	return fetch(ctx, f.timeout, func(ctx context.Context) (activity.Preferences, error) {
		return f.src.Preferences(ctx, f.userID)
	})
}

func (f *factSet) profile(ctx context.Context) (badges.ProfileFacts, error) {
	hasPicture, err := fetch(ctx, f.timeout, func(ctx context.Context) (bool, error) {
		return f.src.HasProfilePicture(ctx, f.userID)
	})
	if err != nil {
		return badges.ProfileFacts{}, err
	}
	if hasPicture {
		return badges.ProfileFacts{HasPicture: true}, nil
	}
	prefs, err := f.preferences(ctx)
	if err != nil {
		return badges.ProfileFacts{}, err
	}
	return badges.ProfileFacts{Preferences: prefs}, nil
}

func (f *factSet) itineraryCount(ctx context.Context) (int, error) {
	return fetch(ctx, f.timeout, func(ctx context.Context) (int, error) {
		return f.src.ItineraryCount(ctx, f.userID)
	})
}
