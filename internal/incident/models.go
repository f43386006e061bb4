// Package incident manages citizen pollution reports and their triage
// lifecycle.
package incident

import "time"

// Status is an incident's triage state.
type Status string

// Lifecycle states. Transitions move strictly forward:
// OPEN -> IN_PROGRESS -> RESOLVED.
const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
)

// allowedTransitions maps each state to the states it may move to.
var allowedTransitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress},
	StatusInProgress: {StatusResolved},
	StatusResolved:   {},
}

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Incident is a citizen-reported pollution event.
type Incident struct {
	ID          int64    `json:"incident_id"`
	UserID      int64    `json:"user_id"`
	LocationID  *int64   `json:"location_id,omitempty"`
	Type        string   `json:"incident_type"`
	Description string   `json:"description"`
	ImagePath   string   `json:"image_path,omitempty"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	PlaceName   string   `json:"place_name"`

	Status     Status    `json:"status"`
	ReportedAt time.Time `json:"reported_at"`

	// Joined display fields.
	CitizenName  string  `json:"citizen_name,omitempty"`
	LocationName *string `json:"location_name,omitempty"`
}
