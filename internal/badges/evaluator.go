package badges

import (
	"time"

	"nycexplorer/internal/activity"
)

// Result is the outcome of evaluating one badge family against a
// collection. Badges is always a fresh copy; the input is never mutated.
type Result struct {
	Badges Collection
	// Unlocked is a snapshot of the entry that transitioned in this pass.
	// When several entries of one family unlock together it holds the one
	// declared last, which is the highest tier.
	Unlocked *State
	// Changed reports whether any progress or acquisition field moved.
	Changed bool
}

// ProfileFacts feeds the complete_profile check.
type ProfileFacts struct {
	HasPicture  bool
	Preferences activity.Preferences
}

// Complete is satisfied by an uploaded picture or by preferences in every
// required group.
func (f ProfileFacts) Complete() bool {
	return f.HasPicture || f.Preferences.Complete()
}

var reviewTiers = []BadgeID{BadgeFirstReview, BadgeFiveReviews, BadgeTenReviews}

// EvaluateReviewCount checks first_review, five_reviews and ten_reviews in
// one pass against the user's total review count.
func EvaluateReviewCount(c Collection, reviewCount int, now time.Time) Result {
	return evaluateCount(c, reviewCount, now, reviewTiers...)
}

func EvaluateCompleteProfile(c Collection, facts ProfileFacts, now time.Time) Result {
	return evaluateFlag(c, BadgeCompleteProfile, facts.Complete(), now)
}

func EvaluatePreferenceMaster(c Collection, prefs activity.Preferences, now time.Time) Result {
	return evaluateFlag(c, BadgePreferenceMaster, prefs.Complete(), now)
}

// EvaluateRestaurantExplorer counts distinct businesses across reviews.
func EvaluateRestaurantExplorer(c Collection, reviews []activity.Review, now time.Time) Result {
	return evaluateCount(c, DistinctBusinesses(reviews), now, BadgeRestaurantExplorer)
}

// EvaluateCoffeeLover expects the businesses the user has reviewed.
func EvaluateCoffeeLover(c Collection, reviewed []activity.Business, now time.Time) Result {
	return evaluateCount(c, CoffeeShopCount(reviewed), now, BadgeCoffeeLover)
}

func EvaluateDifferentCategories(c Collection, reviewed []activity.Business, now time.Time) Result {
	return evaluateCount(c, DistinctCategories(reviewed), now, BadgeDifferentCategories)
}

func EvaluateNYCWanderer(c Collection, reviewed []activity.Business, now time.Time) Result {
	return evaluateCount(c, DistinctNeighborhoods(reviewed), now, BadgeNYCWanderer)
}

func EvaluateFirstItinerary(c Collection, itineraryCount int, now time.Time) Result {
	return evaluateFlag(c, BadgeFirstItinerary, itineraryCount > 0, now)
}

func EvaluateMultipleItineraries(c Collection, itineraryCount int, now time.Time) Result {
	return evaluateCount(c, itineraryCount, now, BadgeMultipleItineraries)
}

func evaluateCount(c Collection, count int, now time.Time, ids ...BadgeID) Result {
	res := Result{Badges: c.Clone()}
	for _, id := range ids {
		changed, unlocked := track(res.Badges, id, count, now)
		if changed {
			res.Changed = true
		}
		if unlocked != nil {
			res.Unlocked = unlocked
		}
	}
	return res
}

func evaluateFlag(c Collection, id BadgeID, met bool, now time.Time) Result {
	res := Result{Badges: c.Clone()}
	i, ok := res.Badges.Find(id)
	if !ok || res.Badges[i].Acquired || !met {
		return res
	}
	res.Unlocked = unlock(&res.Badges[i], now)
	res.Changed = true
	return res
}

// track refreshes a progress-tracked entry from a live count and unlocks it
// once the count reaches the threshold. Acquired entries are left alone.
func track(c Collection, id BadgeID, count int, now time.Time) (bool, *State) {
	i, ok := c.Find(id)
	if !ok || c[i].Acquired {
		return false, nil
	}
	s := &c[i]
	changed := false
	if s.Progress != nil && s.Progress.Current != count {
		s.Progress.Current = count
		changed = true
	}
	threshold := s.threshold()
	if threshold <= 0 || count < threshold {
		return changed, nil
	}
	return true, unlock(s, now)
}

func unlock(s *State, now time.Time) *State {
	s.Acquired = true
	t := now
	s.DateAcquired = &t
	snap := s.Clone()
	return &snap
}
