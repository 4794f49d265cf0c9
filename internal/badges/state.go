package badges

import "time"

type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// State is a user's copy of a badge definition plus its acquisition status.
type State struct {
	ID               BadgeID    `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Icon             string     `json:"icon"`
	Category         Category   `json:"category"`
	RequirementCount int        `json:"requirementCount,omitempty"`
	Acquired         bool       `json:"acquired"`
	DateAcquired     *time.Time `json:"dateAcquired,omitempty"`
	Progress         *Progress  `json:"progress,omitempty"`
}

// Clone returns a deep copy so the caller can mutate it freely.
func (s State) Clone() State {
	if s.Progress != nil {
		p := *s.Progress
		s.Progress = &p
	}
	if s.DateAcquired != nil {
		t := *s.DateAcquired
		s.DateAcquired = &t
	}
	return s
}

// threshold resolves the unlock threshold, preferring the catalog over the
// stored copy so a stale entry cannot move the goalposts.
func (s State) threshold() int {
	if d, ok := Lookup(s.ID); ok {
		return d.RequirementCount
	}
	if s.RequirementCount > 0 {
		return s.RequirementCount
	}
	if s.Progress != nil {
		return s.Progress.Total
	}
	return 0
}

// Collection is the full set of badge entries for one user.
type Collection []State

func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, s := range c {
		out[i] = s.Clone()
	}
	return out
}

// Find returns the index of the entry with the given id.
func (c Collection) Find(id BadgeID) (int, bool) {
	for i := range c {
		if c[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (c Collection) Get(id BadgeID) (State, bool) {
	i, ok := c.Find(id)
	if !ok {
		return State{}, false
	}
	return c[i], true
}

// Acquired lists the ids of every acquired entry, in collection order.
func (c Collection) Acquired() []BadgeID {
	var ids []BadgeID
	for _, s := range c {
		if s.Acquired {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
