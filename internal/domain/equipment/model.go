package equipment

import "time"

// TrackingType says whether an item is tracked per-unit or by count.
type TrackingType string

const (
	// TrackingSerialized marks a uniquely tracked physical unit. Its
	// quantity is always exactly 1.
	TrackingSerialized TrackingType = "SERIALIZED"
	// TrackingBulk marks a fungible count of interchangeable units.
	TrackingBulk TrackingType = "BULK"
)

// Status is the operational state of an equipment record.
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusInUse       Status = "IN_USE"
	StatusMaintenance Status = "MAINTENANCE"
	StatusRetired     Status = "RETIRED"
	StatusMissing     Status = "MISSING"
)

// HolderKind identifies the kind of party holding an equipment record.
type HolderKind string

const (
	HolderWarehouse HolderKind = "WAREHOUSE"
	HolderProject   HolderKind = "PROJECT"
)

// Holder is the single source of truth for where a record currently is:
// resident at a warehouse location, or out with a project. A record never
// has both.
type Holder struct {
	Kind HolderKind `json:"kind"`
	ID   string     `json:"id"`
}

// AtWarehouse builds a warehouse holder for the given location.
func AtWarehouse(locationID string) Holder {
	return Holder{Kind: HolderWarehouse, ID: locationID}
}

// AtProject builds a project holder.
func AtProject(projectID string) Holder {
	return Holder{Kind: HolderProject, ID: projectID}
}

// IsWarehouse reports whether the holder is a warehouse location.
func (h Holder) IsWarehouse() bool { return h.Kind == HolderWarehouse }

// Project returns the holding project id, if any.
func (h Holder) Project() (string, bool) {
	if h.Kind == HolderProject {
		return h.ID, true
	}
	return "", false
}

// Equipment is one ledger record. For SERIALIZED items there is exactly one
// record per physical unit. For BULK items the warehouse-resident record
// carries the on-hand count and per-project shadow records carry the counts
// currently out with each project; the sum over all records of one logical
// item (same name and model) is conserved by every allocation operation.
type Equipment struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Model         string       `json:"model,omitempty"`
	CategoryID    string       `json:"category_id,omitempty"`
	LocationID    string       `json:"location_id"` // home warehouse location
	TrackingType  TrackingType `json:"tracking_type"`
	SerialNumber  string       `json:"serial_number,omitempty"`
	Quantity      int          `json:"quantity"`
	Status        Status       `json:"status"`
	Holder        Holder       `json:"holder"`
	CriticalStock int          `json:"critical_stock"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// CurrentProject returns the project holding this record, or empty if it is
// warehouse-resident.
func (e *Equipment) CurrentProject() string {
	p, _ := e.Holder.Project()
	return p
}

// IsShadow reports whether this is a BULK record held by a project.
func (e *Equipment) IsShadow() bool {
	return e.TrackingType == TrackingBulk && e.Holder.Kind == HolderProject
}

// Category is a read-only reference entity grouping equipment.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Location is a read-only reference entity for physical warehouse places.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Filter narrows Find queries. Zero values match everything.
type Filter struct {
	Status        Status
	CategoryID    string
	LocationID    string
	ProjectID     string
	TrackingType  TrackingType
	BelowCritical bool
}
