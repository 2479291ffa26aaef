package project

import "time"

// Status is the lifecycle state of a project.
type Status string

const (
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusOnHold          Status = "ON_HOLD"
	StatusActive          Status = "ACTIVE"
	StatusCompleted       Status = "COMPLETED"
	StatusCancelled       Status = "CANCELLED"
)

// Holding reports whether a project in this status keeps its reservations
// live for conflict detection.
func (s Status) Holding() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusOnHold:
		return false
	}
	return true
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Project is a time-bounded consumer of equipment. The engine consumes
// projects, it does not manage their wider lifecycle; only status and the
// equipment set matter here.
type Project struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Status       Status     `json:"status"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	EquipmentIDs []string   `json:"equipment_ids,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// validTransitions is the project status machine.
var validTransitions = map[Status][]Status{
	StatusPendingApproval: {StatusApproved, StatusCancelled},
	StatusApproved:        {StatusActive, StatusOnHold, StatusCancelled},
	StatusOnHold:          {StatusActive, StatusCancelled},
	StatusActive:          {StatusOnHold, StatusCompleted, StatusCancelled},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
