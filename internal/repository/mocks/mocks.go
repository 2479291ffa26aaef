// Package mocks holds hand-written testify mocks for the domain interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/stagekit/depot/internal/domain/availability"
	"github.com/stagekit/depot/internal/domain/equipment"
	"github.com/stagekit/depot/internal/domain/project"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, p *project.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*project.Project); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context) ([]project.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) UpdateStatus(ctx context.Context, id string, status project.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *ProjectRepository) UpdateWindow(ctx context.Context, id string, start, end *time.Time) error {
	args := m.Called(ctx, id, start, end)
	return args.Error(0)
}

func (m *ProjectRepository) SetEquipment(ctx context.Context, id string, equipmentIDs []string) error {
	args := m.Called(ctx, id, equipmentIDs)
	return args.Error(0)
}

// AllocationEngine is a mock for project.AllocationEngine.
type AllocationEngine struct {
	mock.Mock
}

func (m *AllocationEngine) AssignToProject(ctx context.Context, req equipment.AssignRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *AllocationEngine) ReturnToWarehouse(ctx context.Context, req equipment.ReturnRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *AllocationEngine) Get(ctx context.Context, id string) (*equipment.Equipment, error) {
	args := m.Called(ctx, id)
	if e, ok := args.Get(0).(*equipment.Equipment); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AllocationEngine) HeldBy(ctx context.Context, projectID string) ([]equipment.Equipment, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]equipment.Equipment); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// AvailabilityChecker is a mock for project.AvailabilityChecker.
type AvailabilityChecker struct {
	mock.Mock
}

func (m *AvailabilityChecker) Check(ctx context.Context, req availability.CheckRequest) (*availability.Conflict, error) {
	args := m.Called(ctx, req)
	if c, ok := args.Get(0).(*availability.Conflict); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// ReservationSource is a mock for availability.ReservationSource.
type ReservationSource struct {
	mock.Mock
}

func (m *ReservationSource) Reservations(ctx context.Context, equipmentID string) ([]availability.Reservation, error) {
	args := m.Called(ctx, equipmentID)
	if list, ok := args.Get(0).([]availability.Reservation); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
