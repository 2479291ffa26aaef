package audit

import "time"

// Action classifies an inventory log entry.
type Action string

const (
	ActionCheckIn          Action = "CHECK_IN"
	ActionCheckOut         Action = "CHECK_OUT"
	ActionMaintenanceStart Action = "MAINTENANCE_START"
	ActionMaintenanceEnd   Action = "MAINTENANCE_END"
	ActionMove             Action = "MOVE"
	ActionCountUpdate      Action = "COUNT_UPDATE"
)

// RefKind identifies what a location reference points at.
type RefKind string

const (
	RefWarehouse RefKind = "WAREHOUSE"
	RefProject   RefKind = "PROJECT"
)

// Ref points at the warehouse location or project on one side of a movement.
type Ref struct {
	Kind RefKind `json:"kind"`
	ID   string  `json:"id"`
}

// Entry is one immutable inventory log record. Entries are written exactly
// once, inside the same transaction as the mutation they describe, and are
// never updated afterwards.
type Entry struct {
	ID              int64     `json:"id"`
	EquipmentID     string    `json:"equipment_id"`
	Actor           string    `json:"actor,omitempty"`
	Action          Action    `json:"action"`
	QuantityChanged int       `json:"quantity_changed"`
	From            *Ref      `json:"from,omitempty"`
	To              *Ref      `json:"to,omitempty"`
	Note            string    `json:"note,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Filter narrows log queries. Zero values match everything.
type Filter struct {
	EquipmentID string
	ProjectID   string
	Action      *Action
	Limit       int
}
