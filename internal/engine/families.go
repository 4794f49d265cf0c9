package engine

import (
	"context"
	"time"

	"nycexplorer/internal/badges"
)

// family is one evaluator step: fetch its facts, then apply the pure
// evaluator to the working copy.
type family struct {
	name string
	run  func(ctx context.Context, f *factSet, c badges.Collection, now time.Time) (badges.Result, error)
}

var reviewCountFamily = family{
	name: "review_count",
	run: func(ctx context.Context, f *factSet, c badges.Collection, now time.Time) (badges.Result, error) {
		n, err := f.reviewCount(ctx)
		if err != nil {
			return badges.Result{}, err
		}
		return badges.EvaluateReviewCount(c, n, now), nil
	},
}

var restaurantExplorerFamily = family{
	name: string(badges.BadgeRestaurantExplorer),
	run: func(ctx context.Context, f *factSet, c badges.Collection, now time.Time) (badges.Result, error) {
		reviews, err := f.reviewList(ctx)
		if err != nil {
			return badges.Result{}, err
		}
		return badges.EvaluateRestaurantExplorer(c, reviews, now), nil
	},
}

var coffeeLoverFamily = family{
	name: string(badges.BadgeCoffeeLover),
	run: func(ctx context.Context, f *factSet, c badges.Collection, now time.Time) (badges.Result, error) {
		reviewed, err := f.reviewedBusinesses(ctx)
		if err != nil {
			return badges.Result{}, err
		}
		return badges.EvaluateCoffeeLover(c, reviewed, now), nil
	},
}

var differentCategoriesFamily = family{
	name: string(badges.BadgeDifferentCategories),
	run: func(ctx context.Context, f *factSet, c badges.Collection, now time.Time) (badges.Result, error) {
		reviewed, err := f.reviewedBusinesses(ctx)
		if err != nil {
			return badges.Result{}, err
		}
		return badges.EvaluateDifferentCategories(c, reviewed, now), nil
	},
}

var nycWandererFamily = family{
	name: string(badges.BadgeNYCWanderer),
	run: func(ctx context.Context, f *factSet, c badges.Collection, now time.Time) (badges.Result, error) {
		reviewed, err := f.reviewedBusinesses(ctx)
		if err != nil {
			return badges.Result{}, err
		}
		return badges.EvaluateNYCWanderer(c, reviewed, now), nil
	},
}

var completeProfileFamily = family{
	name: string(badges.BadgeCompleteProfile),
	run: func(ctx context.Context, f *factSet, c badges.Collection, now time.Time) (badges.Result, error) {
		facts, err := f.profile(ctx)
		if err != nil {
			return badges.Result{}, err
		}
		return badges.EvaluateCompleteProfile(c, facts, now), nil
	},
}

var preferenceMasterFamily = family{
	name: string(badges.BadgePreferenceMaster),
	run: func(ctx context.Context, f *factSet, c badges.Collection, now time.Time) (badges.Result, error) {
		prefs, err := f.preferences(ctx)
		if err != nil {
			return badges.Result{}, err
		}
		return badges.EvaluatePreferenceMaster(c, prefs, now), nil
	},
}

var firstItineraryFamily = family{
	name: string(badges.BadgeFirstItinerary),
	run: func(ctx context.Context, f *factSet, c badges.Collection, now time.Time) (badges.Result, error) {
		n, err := f.itineraryCount(ctx)
		if err != nil {
			return badges.Result{}, err
		}
		return badges.EvaluateFirstItinerary(c, n, now), nil
	},
}

var multipleItinerariesFamily = family{
	name: string(badges.BadgeMultipleItineraries),
	run: func(ctx context.Context, f *factSet, c badges.Collection, now time.Time) (badges.Result, error) {
		n, err := f.itineraryCount(ctx)
		if err != nil {
			return badges.Result{}, err
		}
		return badges.EvaluateMultipleItineraries(c, n, now), nil
	},
}
