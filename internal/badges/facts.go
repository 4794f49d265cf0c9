package badges

import (
	"strings"

	"nycexplorer/internal/activity"
)

var coffeeMarkers = []string{"coffee", "café", "cafe"}

// DistinctBusinesses counts the unique non-empty business ids across reviews.
func DistinctBusinesses(reviews []activity.Review) int {
	seen := make(map[string]struct{}, len(reviews))
	for _, r := range reviews {
		if r.BusinessID == "" {
			continue
		}
		seen[r.BusinessID] = struct{}{}
	}
	return len(seen)
}

// ReviewedBusinessIDs returns the unique business ids in first-seen order.
func ReviewedBusinessIDs(reviews []activity.Review) []string {
	seen := make(map[string]struct{}, len(reviews))
	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if r.BusinessID == "" {
			continue
		}
		if _, ok := seen[r.BusinessID]; ok {
			continue
		}
		seen[r.BusinessID] = struct{}{}
		ids = append(ids, r.BusinessID)
	}
	return ids
}

func IsCoffeeShop(b activity.Business) bool {
	for _, c := range b.Categories {
		lc := strings.ToLower(c)
		for _, m := range coffeeMarkers {
			if strings.Contains(lc, m) {
				return true
			}
		}
	}
	return false
}

// CoffeeShopCount counts distinct businesses with a coffee or cafe category.
func CoffeeShopCount(businesses []activity.Business) int {
	seen := make(map[string]struct{})
	for _, b := range businesses {
		if IsCoffeeShop(b) {
			seen[b.ID] = struct{}{}
		}
	}
	return len(seen)
}

// DistinctCategories counts category labels, trimmed and case-folded.
// Labels that are blank after trimming are not a category and never count.
func DistinctCategories(businesses []activity.Business) int {
	seen := make(map[string]struct{})
	for _, b := range businesses {
		for _, c := range b.Categories {
			if key := normalizeLabel(c); key != "" {
				seen[key] = struct{}{}
			}
		}
	}
	return len(seen)
}

// DistinctNeighborhoods counts neighborhood labels, trimmed and case-folded.
// A whitespace-only neighborhood is treated as missing.
func DistinctNeighborhoods(businesses []activity.Business) int {
	seen := make(map[string]struct{})
	for _, b := range businesses {
		if key := normalizeLabel(b.Location.Neighborhood); key != "" {
			seen[key] = struct{}{}
		}
	}
	return len(seen)
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
