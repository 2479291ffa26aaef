package project

import (
	"context"
	"time"

	"github.com/stagekit/depot/internal/domain/availability"
	"github.com/stagekit/depot/internal/domain/equipment"
)

// Repository provides persistence for projects and their equipment sets.
type Repository interface {
	Create(ctx context.Context, p *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]Project, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdateWindow(ctx context.Context, id string, start, end *time.Time) error
	SetEquipment(ctx context.Context, id string, equipmentIDs []string) error
}

// AllocationEngine is the slice of the equipment engine the coordinator
// drives. Every equipment state change goes through it, never through
// direct field writes.
type AllocationEngine interface {
	AssignToProject(ctx context.Context, req equipment.AssignRequest) error
	ReturnToWarehouse(ctx context.Context, req equipment.ReturnRequest) error
	Get(ctx context.Context, id string) (*equipment.Equipment, error)
	HeldBy(ctx context.Context, projectID string) ([]equipment.Equipment, error)
}

// AvailabilityChecker gates activations and window changes.
type AvailabilityChecker interface {
	Check(ctx context.Context, req availability.CheckRequest) (*availability.Conflict, error)
}
