package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stagekit/depot/internal/domain/availability"
	"github.com/stagekit/depot/internal/domain/equipment"
	"github.com/stagekit/depot/internal/metrics"
)

// Service coordinates project lifecycle changes and drives the resulting
// bulk allocation and release through the allocation engine.
type Service struct {
	repo    Repository
	engine  AllocationEngine
	checker AvailabilityChecker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService creates a new project lifecycle coordinator.
func NewService(repo Repository, engine AllocationEngine, checker AvailabilityChecker, m *metrics.Metrics, logger *slog.Logger) *Service {
	if m == nil {
		m = metrics.NewNop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, engine: engine, checker: checker, metrics: m, logger: logger}
}

// CreateRequest describes a new project.
type CreateRequest struct {
	Name         string
	StartsAt     *time.Time
	EndsAt       *time.Time
	EquipmentIDs []string
}

// Create registers a project in PENDING_APPROVAL.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if req.StartsAt != nil && req.EndsAt != nil && req.EndsAt.Before(*req.StartsAt) {
		return nil, fmt.Errorf("%w: project ends before it starts", ErrInvalidInput)
	}

	now := time.Now().UTC()
	p := &Project{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Status:       StatusPendingApproval,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
		EquipmentIDs: req.EquipmentIDs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return p, nil
}

// Get returns a project by id.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	return s.repo.Get(ctx, id)
}

// List returns all projects.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	return s.repo.List(ctx)
}

// Transition moves a project to a new status and applies the equipment
// effects: activation attaches the project's equipment set, completion and
// cancellation release everything the project holds.
func (s *Service) Transition(ctx context.Context, id string, to Status) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(p.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, to)
	}

	switch to {
	case StatusActive:
		if err := s.activate(ctx, p); err != nil {
			return err
		}
	case StatusCompleted, StatusCancelled:
		if err := s.releaseAll(ctx, p); err != nil {
			return err
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return fmt.Errorf("updating project status: %w", err)
	}
	s.logger.Info("project transitioned", "project", id, "from", p.Status, "to", to)
	return nil
}

// activate checks the reservation window, then attaches each listed
// equipment record. Records already held by another project are skipped
// with a warning rather than failing the whole activation.
func (s *Service) activate(ctx context.Context, p *Project) error {
	conflict, err := s.checker.Check(ctx, availability.CheckRequest{
		ProjectID:    p.ID,
		Window:       availability.Window{Start: p.StartsAt, End: p.EndsAt},
		EquipmentIDs: p.EquipmentIDs,
	})
	if err != nil {
		return fmt.Errorf("checking availability: %w", err)
	}
	if conflict != nil {
		return fmt.Errorf("%w: %w", ErrReservationConflict, conflict)
	}

	for _, eqID := range p.EquipmentIDs {
		if err := s.attach(ctx, p.ID, eqID); err != nil {
			return err
		}
	}
	return nil
}

// attach assigns one equipment record, whole, to the project.
func (s *Service) attach(ctx context.Context, projectID, equipmentID string) error {
	e, err := s.engine.Get(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, equipment.ErrNotFound) {
			s.logger.Warn("skipping unknown equipment", "project", projectID, "equipment", equipmentID)
			return nil
		}
		return err
	}
	if e.TrackingType == equipment.TrackingBulk && e.Quantity == 0 {
		// Drained warehouse record, e.g. fully checked out elsewhere; the
		// engine would reject a zero-quantity assignment.
		s.logger.Warn("skipping unavailable equipment",
			"project", projectID, "equipment", equipmentID, "reason", "no stock on hand")
		return nil
	}

	err = s.engine.AssignToProject(ctx, equipment.AssignRequest{
		EquipmentID: equipmentID,
		ProjectID:   projectID,
		Quantity:    e.Quantity,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, equipment.ErrConflict), errors.Is(err, equipment.ErrInsufficientStock):
		s.logger.Warn("skipping unavailable equipment",
			"project", projectID, "equipment", equipmentID, "reason", err)
		return nil
	default:
		return err
	}
}

// releaseAll returns every record the project holds to the warehouse.
func (s *Service) releaseAll(ctx context.Context, p *Project) error {
	held, err := s.engine.HeldBy(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("listing held equipment: %w", err)
	}
	for _, e := range held {
		err := s.engine.ReturnToWarehouse(ctx, equipment.ReturnRequest{
			EquipmentID: e.ID,
			Quantity:    e.Quantity,
		})
		if err != nil {
			return fmt.Errorf("releasing %s: %w", e.ID, err)
		}
		s.metrics.Releases.Inc()
	}
	return nil
}

// SetEquipment replaces the project's equipment set. While the project is
// active the difference is applied through the engine: added records are
// attached, removed ones returned.
func (s *Service) SetEquipment(ctx context.Context, id string, equipmentIDs []string) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if p.Status == StatusActive {
		added, removed := diff(p.EquipmentIDs, equipmentIDs)

		if len(added) > 0 {
			conflict, err := s.checker.Check(ctx, availability.CheckRequest{
				ProjectID:    p.ID,
				Window:       availability.Window{Start: p.StartsAt, End: p.EndsAt},
				EquipmentIDs: added,
			})
			if err != nil {
				return fmt.Errorf("checking availability: %w", err)
			}
			if conflict != nil {
				return fmt.Errorf("%w: %w", ErrReservationConflict, conflict)
			}
		}

		for _, eqID := range added {
			if err := s.attach(ctx, p.ID, eqID); err != nil {
				return err
			}
		}
		if len(removed) > 0 {
			if err := s.detach(ctx, p.ID, removed); err != nil {
				return err
			}
		}
	}

	if err := s.repo.SetEquipment(ctx, id, equipmentIDs); err != nil {
		return fmt.Errorf("updating equipment set: %w", err)
	}
	return nil
}

// detach returns the held records corresponding to removed set entries. For
// bulk items the set lists the warehouse record, so the project's shadow of
// the same logical item is what actually gets returned.
func (s *Service) detach(ctx context.Context, projectID string, removed []string) error {
	held, err := s.engine.HeldBy(ctx, projectID)
	if err != nil {
		return fmt.Errorf("listing held equipment: %w", err)
	}

	for _, eqID := range removed {
		e, err := s.engine.Get(ctx, eqID)
		if err != nil {
			if errors.Is(err, equipment.ErrNotFound) {
				continue
			}
			return err
		}

		target := ""
		qty := 0
		for _, h := range held {
			if h.ID == eqID || (h.IsShadow() && h.Name == e.Name && h.Model == e.Model) {
				target = h.ID
				qty = h.Quantity
				break
			}
		}
		if target == "" {
			continue
		}
		err = s.engine.ReturnToWarehouse(ctx, equipment.ReturnRequest{
			EquipmentID: target,
			Quantity:    qty,
		})
		if err != nil {
			return fmt.Errorf("returning %s: %w", target, err)
		}
	}
	return nil
}

// SetWindow changes the project's reservation window after re-checking the
// whole equipment set against it.
func (s *Service) SetWindow(ctx context.Context, id string, start, end *time.Time) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: project ends before it starts", ErrInvalidInput)
	}

	conflict, err := s.checker.Check(ctx, availability.CheckRequest{
		ProjectID:    p.ID,
		Window:       availability.Window{Start: start, End: end},
		EquipmentIDs: p.EquipmentIDs,
	})
	if err != nil {
		return fmt.Errorf("checking availability: %w", err)
	}
	if conflict != nil {
		return fmt.Errorf("%w: %w", ErrReservationConflict, conflict)
	}

	if err := s.repo.UpdateWindow(ctx, id, start, end); err != nil {
		return fmt.Errorf("updating project window: %w", err)
	}
	return nil
}

// diff returns the ids present only in next and only in prev.
func diff(prev, next []string) (added, removed []string) {
	prevSet := make(map[string]bool, len(prev))
	for _, id := range prev {
		prevSet[id] = true
	}
	nextSet := make(map[string]bool, len(next))
	for _, id := range next {
		nextSet[id] = true
		if !prevSet[id] {
			added = append(added, id)
		}
	}
	for _, id := range prev {
		if !nextSet[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}
