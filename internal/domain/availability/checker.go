// Package availability detects overlapping time-bounded equipment
// reservations across projects. The check is advisory: the allocation
// engine's holder compare-and-swap is the enforcement point, so a result of
// "no conflict" must still be confirmed by the transaction it gates.
package availability

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Statuses that no longer hold a reservation.
const (
	statusCancelled = "CANCELLED"
	statusCompleted = "COMPLETED"
	statusOnHold    = "ON_HOLD"
)

// Window is a closed reservation interval. A nil bound is unbounded.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Overlaps reports whether two closed intervals intersect, treating absent
// bounds as infinite.
func (w Window) Overlaps(o Window) bool {
	startBeforeEnd := o.End == nil || w.Start == nil || !w.Start.After(*o.End)
	endAfterStart := w.End == nil || o.Start == nil || !o.Start.After(*w.End)
	return startBeforeEnd && endAfterStart
}

// Reservation is another project's claim on a piece of equipment.
type Reservation struct {
	ProjectID   string
	ProjectName string
	Status      string
	Window      Window
}

// ReservationSource lists the projects referencing a piece of equipment.
type ReservationSource interface {
	Reservations(ctx context.Context, equipmentID string) ([]Reservation, error)
}

// Conflict names the first overlapping reservation found.
type Conflict struct {
	EquipmentID string `json:"equipment_id"`
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name,omitempty"`
}

func (c *Conflict) Error() string {
	return fmt.Sprintf("equipment %s already reserved by project %s", c.EquipmentID, c.ProjectID)
}

// CheckRequest describes a candidate reservation.
type CheckRequest struct {
	ProjectID    string
	Window       Window
	EquipmentIDs []string
}

// Checker searches for reservation conflicts.
type Checker struct {
	source ReservationSource
	logger *slog.Logger
}

// NewChecker creates a new availability checker.
func NewChecker(source ReservationSource, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{source: source, logger: logger}
}

// Check returns the first conflicting reservation in candidate-id order, or
// nil when every listed equipment id is free for the requested window.
func (c *Checker) Check(ctx context.Context, req CheckRequest) (*Conflict, error) {
	for _, id := range req.EquipmentIDs {
		reservations, err := c.source.Reservations(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("listing reservations for %s: %w", id, err)
		}
		for _, r := range reservations {
			if r.ProjectID == req.ProjectID {
				continue
			}
			switch r.Status {
			case statusCancelled, statusCompleted, statusOnHold:
				continue
			}
			if req.Window.Overlaps(r.Window) {
				c.logger.Debug("reservation conflict",
					"equipment", id, "project", req.ProjectID, "holder", r.ProjectID)
				return &Conflict{EquipmentID: id, ProjectID: r.ProjectID, ProjectName: r.ProjectName}, nil
			}
		}
	}
	return nil, nil
}
