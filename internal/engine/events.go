package engine

import (
	"fmt"
	"strings"
)

type EventType string

const (
	EventReviewAdded           EventType = "REVIEW_ADDED"
	EventReviewDeleted         EventType = "REVIEW_DELETED"
	EventProfileUpdated        EventType = "PROFILE_UPDATED"
	EventPreferencesUpdated    EventType = "PREFERENCES_UPDATED"
	EventProfilePictureUpdated EventType = "PROFILE_PICTURE_UPDATED"
	EventItineraryCreated      EventType = "ITINERARY_CREATED"
	EventItineraryDeleted      EventType = "ITINERARY_DELETED"
	EventManualCheck           EventType = "MANUAL_CHECK"
	EventInitialLoad           EventType = "INITIAL_LOAD"
)

// sweep is the full pass run on demand and when the badge page first loads.
var sweep = []family{
	reviewCountFamily,
	restaurantExplorerFamily,
	coffeeLoverFamily,
	differentCategoriesFamily,
	nycWandererFamily,
	preferenceMasterFamily,
	firstItineraryFamily,
	multipleItinerariesFamily,
}

var reviewSequence = []family{
	reviewCountFamily,
	restaurantExplorerFamily,
	coffeeLoverFamily,
	differentCategoriesFamily,
	nycWandererFamily,
}

var itinerarySequence = []family{
	firstItineraryFamily,
	multipleItinerariesFamily,
}

// sequences lists, per event, the families to evaluate in order. The first
// family that unlocks a badge ends the event.
// Replaying an event that stopped early may let a later family progress or
// unlock; repeating it until nothing changes reaches a fixed point.
var sequences = map[EventType][]family{
	EventReviewAdded:           reviewSequence,
	EventReviewDeleted:         reviewSequence,
	EventProfileUpdated:        {completeProfileFamily},
	EventPreferencesUpdated:    {preferenceMasterFamily, completeProfileFamily},
	EventProfilePictureUpdated: {completeProfileFamily},
	EventItineraryCreated:      itinerarySequence,
	EventItineraryDeleted:      itinerarySequence,
	EventManualCheck:           sweep,
	EventInitialLoad:           sweep,
}

// ParseEventType accepts the wire names case-insensitively.
func ParseEventType(s string) (EventType, error) {
	ev := EventType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := sequences[ev]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
	}
	return ev, nil
}

// Sequence returns the family names evaluated for ev, in order.
func Sequence(ev EventType) []string {
	seq := sequences[ev]
	names := make([]string, len(seq))
	for i, f := range seq {
		names[i] = f.name
	}
	return names
}
