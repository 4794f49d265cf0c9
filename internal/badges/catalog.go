package badges

type BadgeID string

const (
	BadgeFirstReview         BadgeID = "first_review"
	BadgeFiveReviews         BadgeID = "five_reviews"
	BadgeTenReviews          BadgeID = "ten_reviews"
	BadgeCompleteProfile     BadgeID = "complete_profile"
	BadgePreferenceMaster    BadgeID = "preference_master"
	BadgeRestaurantExplorer  BadgeID = "restaurant_explorer"
	BadgeCoffeeLover         BadgeID = "coffee_lover"
	BadgeDifferentCategories BadgeID = "different_categories"
	BadgeNYCWanderer         BadgeID = "nyc_wanderer"
	BadgeFirstItinerary      BadgeID = "first_itinerary"
	BadgeMultipleItineraries BadgeID = "multiple_itineraries"
)

// Category groups badges for display only; evaluation never looks at it.
type Category string

const (
	CategoryReviews     Category = "reviews"
	CategoryProfile     Category = "profile"
	CategoryFood        Category = "food"
	CategoryExploration Category = "exploration"
	CategorySocial      Category = "social"
)

// Definition is the immutable catalog entry for a badge. A zero
// RequirementCount marks a boolean badge with no progress bar.
type Definition struct {
	ID               BadgeID
	Name             string
	Description      string
	Icon             string
	Category         Category
	RequirementCount int
}

// Tracked reports whether the badge carries progress toward a threshold.
func (d Definition) Tracked() bool {
	return d.RequirementCount > 0
}

var catalog = []Definition{
	{ID: BadgeFirstReview, Name: "First Steps", Description: "Posted your first review", Icon: "📝", Category: CategoryReviews, RequirementCount: 1},
	{ID: BadgeFiveReviews, Name: "Regular Reviewer", Description: "Posted 5 reviews", Icon: "⭐️", Category: CategoryReviews, RequirementCount: 5},
	{ID: BadgeTenReviews, Name: "Review Expert", Description: "Posted 10 reviews", Icon: "🏆", Category: CategoryReviews, RequirementCount: 10},

	{ID: BadgeCompleteProfile, Name: "Profile Pro", Description: "Completed your profile information", Icon: "👤", Category: CategoryProfile},
	{ID: BadgePreferenceMaster, Name: "Preference Master", Description: "Added preferences in all categories", Icon: "🎯", Category: CategoryProfile},

	{ID: BadgeRestaurantExplorer, Name: "Restaurant Explorer", Description: "Reviewed 3 different restaurants", Icon: "🍽️", Category: CategoryFood, RequirementCount: 3},
	{ID: BadgeCoffeeLover, Name: "Coffee Enthusiast", Description: "Reviewed 3 coffee shops", Icon: "☕", Category: CategoryFood, RequirementCount: 3},

	{ID: BadgeDifferentCategories, Name: "Explorer", Description: "Visited 3 different business categories", Icon: "🧭", Category: CategoryExploration, RequirementCount: 3},
	{ID: BadgeNYCWanderer, Name: "NYC Wanderer", Description: "Visited businesses in 5 different NYC neighborhoods", Icon: "🗽", Category: CategoryExploration, RequirementCount: 5},

	{ID: BadgeFirstItinerary, Name: "Planner", Description: "Created your first itinerary", Icon: "📅", Category: CategorySocial},
	{ID: BadgeMultipleItineraries, Name: "Trip Master", Description: "Created 3 different itineraries", Icon: "✈️", Category: CategorySocial, RequirementCount: 3},
}

var byID = func() map[BadgeID]Definition {
	m := make(map[BadgeID]Definition, len(catalog))
	for _, d := range catalog {
		m[d.ID] = d
	}
	return m
}()

// Definitions returns every badge in catalog order.
func Definitions() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(id BadgeID) (Definition, bool) {
	d, ok := byID[id]
	return d, ok
}

// NewState materializes a fresh, unacquired entry for d.
func NewState(d Definition) State {
	s := State{
		ID:               d.ID,
		Name:             d.Name,
		Description:      d.Description,
		Icon:             d.Icon,
		Category:         d.Category,
		RequirementCount: d.RequirementCount,
	}
	if d.Tracked() {
		s.Progress = &Progress{Current: 0, Total: d.RequirementCount}
	}
	return s
}

// NewCollection returns one unacquired entry per catalog definition.
func NewCollection() Collection {
	c := make(Collection, 0, len(catalog))
	for _, d := range catalog {
		c = append(c, NewState(d))
	}
	return c
}

// Reconcile appends entries for catalog definitions missing from c. Entries
// whose id is not in the catalog are kept as they are. The returned flag
// reports whether anything was added.
func Reconcile(c Collection) (Collection, bool) {
	out := c.Clone()
	added := false
	for _, d := range catalog {
		if _, ok := out.Find(d.ID); ok {
			continue
		}
		out = append(out, NewState(d))
		added = true
	}
	return out, added
}
