package project_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stagekit/depot/internal/domain/availability"
	"github.com/stagekit/depot/internal/domain/equipment"
	"github.com/stagekit/depot/internal/domain/project"
	"github.com/stagekit/depot/internal/repository/mocks"
	"github.com/stagekit/depot/internal/sqlite"
)

type deps struct {
	repo    *mocks.ProjectRepository
	engine  *mocks.AllocationEngine
	checker *mocks.AvailabilityChecker
	svc     *project.Service
}

func newDeps() *deps {
	d := &deps{
		repo:    new(mocks.ProjectRepository),
		engine:  new(mocks.AllocationEngine),
		checker: new(mocks.AvailabilityChecker),
	}
	d.svc = project.NewService(d.repo, d.engine, d.checker, nil, nil)
	return d
}

func stubProject(status project.Status, equipmentIDs ...string) *project.Project {
	now := time.Now().UTC()
	return &project.Project{
		ID:           "proj-1",
		Name:         "Winter tour",
		Status:       status,
		EquipmentIDs: equipmentIDs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCreate_Validation(t *testing.T) {
	d := newDeps()
	ctx := context.Background()

	_, err := d.svc.Create(ctx, project.CreateRequest{})
	require.ErrorIs(t, err, project.ErrInvalidInput)

	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	_, err = d.svc.Create(ctx, project.CreateRequest{Name: "x", StartsAt: &start, EndsAt: &end})
	require.ErrorIs(t, err, project.ErrInvalidInput)
}

func TestCreate_StartsPendingApproval(t *testing.T) {
	d := newDeps()
	d.repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	p, err := d.svc.Create(context.Background(), project.CreateRequest{
		Name:         "Winter tour",
		EquipmentIDs: []string{"eq-1"},
	})
	require.NoError(t, err)
	require.Equal(t, project.StatusPendingApproval, p.Status)
	require.NotEmpty(t, p.ID)
	d.repo.AssertExpectations(t)
}

func TestTransition_Invalid(t *testing.T) {
	d := newDeps()
	d.repo.On("Get", mock.Anything, "proj-1").Return(stubProject(project.StatusPendingApproval), nil)

	err := d.svc.Transition(context.Background(), "proj-1", project.StatusActive)
	require.ErrorIs(t, err, project.ErrInvalidTransition)
	d.engine.AssertNotCalled(t, "AssignToProject", mock.Anything, mock.Anything)
	d.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransition_ActivationBlockedByReservation(t *testing.T) {
	d := newDeps()
	d.repo.On("Get", mock.Anything, "proj-1").Return(stubProject(project.StatusApproved, "eq-1"), nil)
	d.checker.On("Check", mock.Anything, mock.Anything).Return(&availability.Conflict{
		EquipmentID: "eq-1",
		ProjectID:   "proj-other",
	}, nil)

	err := d.svc.Transition(context.Background(), "proj-1", project.StatusActive)
	require.ErrorIs(t, err, project.ErrReservationConflict)

	var conflict *availability.Conflict
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "proj-other", conflict.ProjectID)

	d.engine.AssertNotCalled(t, "AssignToProject", mock.Anything, mock.Anything)
	d.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransition_ActivationAttachesEquipment(t *testing.T) {
	d := newDeps()
	d.repo.On("Get", mock.Anything, "proj-1").Return(stubProject(project.StatusApproved, "eq-1", "eq-2"), nil)
	d.checker.On("Check", mock.Anything, mock.Anything).Return(nil, nil)

	d.engine.On("Get", mock.Anything, "eq-1").Return(&equipment.Equipment{ID: "eq-1", Quantity: 1}, nil)
	d.engine.On("Get", mock.Anything, "eq-2").Return(&equipment.Equipment{ID: "eq-2", Quantity: 40}, nil)
	d.engine.On("AssignToProject", mock.Anything, equipment.AssignRequest{
		EquipmentID: "eq-1", ProjectID: "proj-1", Quantity: 1,
	}).Return(nil)
	d.engine.On("AssignToProject", mock.Anything, equipment.AssignRequest{
		EquipmentID: "eq-2", ProjectID: "proj-1", Quantity: 40,
	}).Return(nil)
	d.repo.On("UpdateStatus", mock.Anything, "proj-1", project.StatusActive).Return(nil)

	err := d.svc.Transition(context.Background(), "proj-1", project.StatusActive)
	require.NoError(t, err)
	d.engine.AssertExpectations(t)
	d.repo.AssertExpectations(t)
}

func TestTransition_ActivationSkipsHeldEquipment(t *testing.T) {
	d := newDeps()
	d.repo.On("Get", mock.Anything, "proj-1").Return(stubProject(project.StatusApproved, "eq-1", "eq-2"), nil)
	d.checker.On("Check", mock.Anything, mock.Anything).Return(nil, nil)

	d.engine.On("Get", mock.Anything, "eq-1").Return(&equipment.Equipment{ID: "eq-1", Quantity: 1}, nil)
	d.engine.On("Get", mock.Anything, "eq-2").Return(&equipment.Equipment{ID: "eq-2", Quantity: 1}, nil)
	d.engine.On("AssignToProject", mock.Anything, mock.MatchedBy(func(req equipment.AssignRequest) bool {
		return req.EquipmentID == "eq-1"
	})).Return(&equipment.ConflictError{EquipmentID: "eq-1", ProjectID: "proj-other"})
	d.engine.On("AssignToProject", mock.Anything, mock.MatchedBy(func(req equipment.AssignRequest) bool {
		return req.EquipmentID == "eq-2"
	})).Return(nil)
	d.repo.On("UpdateStatus", mock.Anything, "proj-1", project.StatusActive).Return(nil)

	// A record already held elsewhere is skipped, not fatal.
	err := d.svc.Transition(context.Background(), "proj-1", project.StatusActive)
	require.NoError(t, err)
	d.repo.AssertExpectations(t)
}

func TestTransition_ActivationSkipsDrainedBulk(t *testing.T) {
	d := newDeps()
	d.repo.On("Get", mock.Anything, "proj-1").Return(stubProject(project.StatusApproved, "eq-drained", "eq-2"), nil)
	d.checker.On("Check", mock.Anything, mock.Anything).Return(nil, nil)

	d.engine.On("Get", mock.Anything, "eq-drained").Return(&equipment.Equipment{
		ID:           "eq-drained",
		TrackingType: equipment.TrackingBulk,
		Quantity:     0,
	}, nil)
	d.engine.On("Get", mock.Anything, "eq-2").Return(&equipment.Equipment{ID: "eq-2", Quantity: 1}, nil)
	d.engine.On("AssignToProject", mock.Anything, equipment.AssignRequest{
		EquipmentID: "eq-2", ProjectID: "proj-1", Quantity: 1,
	}).Return(nil)
	d.repo.On("UpdateStatus", mock.Anything, "proj-1", project.StatusActive).Return(nil)

	// A warehouse record with nothing on hand is skipped like any other
	// unavailable equipment; it must not wedge the activation.
	err := d.svc.Transition(context.Background(), "proj-1", project.StatusActive)
	require.NoError(t, err)
	d.engine.AssertNotCalled(t, "AssignToProject", mock.Anything, mock.MatchedBy(func(req equipment.AssignRequest) bool {
		return req.EquipmentID == "eq-drained"
	}))
	d.repo.AssertExpectations(t)
}

func TestTransition_CompletionReleasesHeld(t *testing.T) {
	d := newDeps()
	d.repo.On("Get", mock.Anything, "proj-1").Return(stubProject(project.StatusActive, "eq-1"), nil)
	d.engine.On("HeldBy", mock.Anything, "proj-1").Return([]equipment.Equipment{
		{ID: "shadow-1", Quantity: 30},
		{ID: "eq-serial", Quantity: 1},
	}, nil)
	d.engine.On("ReturnToWarehouse", mock.Anything, equipment.ReturnRequest{
		EquipmentID: "shadow-1", Quantity: 30,
	}).Return(nil)
	d.engine.On("ReturnToWarehouse", mock.Anything, equipment.ReturnRequest{
		EquipmentID: "eq-serial", Quantity: 1,
	}).Return(nil)
	d.repo.On("UpdateStatus", mock.Anything, "proj-1", project.StatusCompleted).Return(nil)

	err := d.svc.Transition(context.Background(), "proj-1", project.StatusCompleted)
	require.NoError(t, err)
	d.engine.AssertExpectations(t)
}

func TestSetEquipment_InactiveOnlyPersists(t *testing.T) {
	d := newDeps()
	d.repo.On("Get", mock.Anything, "proj-1").Return(stubProject(project.StatusApproved, "eq-1"), nil)
	d.repo.On("SetEquipment", mock.Anything, "proj-1", []string{"eq-2"}).Return(nil)

	err := d.svc.SetEquipment(context.Background(), "proj-1", []string{"eq-2"})
	require.NoError(t, err)
	d.engine.AssertNotCalled(t, "AssignToProject", mock.Anything, mock.Anything)
	d.engine.AssertNotCalled(t, "ReturnToWarehouse", mock.Anything, mock.Anything)
	d.repo.AssertExpectations(t)
}

func TestSetEquipment_ActiveAppliesDiff(t *testing.T) {
	d := newDeps()
	d.repo.On("Get", mock.Anything, "proj-1").Return(stubProject(project.StatusActive, "eq-old"), nil)
	d.checker.On("Check", mock.Anything, mock.MatchedBy(func(req availability.CheckRequest) bool {
		return len(req.EquipmentIDs) == 1 && req.EquipmentIDs[0] == "eq-new"
	})).Return(nil, nil)

	d.engine.On("Get", mock.Anything, "eq-new").Return(&equipment.Equipment{ID: "eq-new", Quantity: 1}, nil)
	d.engine.On("AssignToProject", mock.Anything, equipment.AssignRequest{
		EquipmentID: "eq-new", ProjectID: "proj-1", Quantity: 1,
	}).Return(nil)

	d.engine.On("Get", mock.Anything, "eq-old").Return(&equipment.Equipment{ID: "eq-old", Name: "Cable"}, nil)
	d.engine.On("HeldBy", mock.Anything, "proj-1").Return([]equipment.Equipment{
		{ID: "eq-old", Quantity: 1},
	}, nil)
	d.engine.On("ReturnToWarehouse", mock.Anything, equipment.ReturnRequest{
		EquipmentID: "eq-old", Quantity: 1,
	}).Return(nil)
	d.repo.On("SetEquipment", mock.Anything, "proj-1", []string{"eq-new"}).Return(nil)

	err := d.svc.SetEquipment(context.Background(), "proj-1", []string{"eq-new"})
	require.NoError(t, err)
	d.engine.AssertExpectations(t)
	d.repo.AssertExpectations(t)
}

func TestSetWindow_RechecksWholeSet(t *testing.T) {
	d := newDeps()
	d.repo.On("Get", mock.Anything, "proj-1").Return(stubProject(project.StatusApproved, "eq-1"), nil)
	d.checker.On("Check", mock.Anything, mock.Anything).Return(&availability.Conflict{
		EquipmentID: "eq-1", ProjectID: "proj-other",
	}, nil)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	err := d.svc.SetWindow(context.Background(), "proj-1", &start, &end)
	require.ErrorIs(t, err, project.ErrReservationConflict)
	d.repo.AssertNotCalled(t, "UpdateWindow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to project.Status
		ok       bool
	}{
		{project.StatusPendingApproval, project.StatusApproved, true},
		{project.StatusPendingApproval, project.StatusCancelled, true},
		{project.StatusPendingApproval, project.StatusActive, false},
		{project.StatusApproved, project.StatusActive, true},
		{project.StatusApproved, project.StatusOnHold, true},
		{project.StatusActive, project.StatusCompleted, true},
		{project.StatusActive, project.StatusOnHold, true},
		{project.StatusOnHold, project.StatusActive, true},
		{project.StatusCompleted, project.StatusActive, false},
		{project.StatusCancelled, project.StatusApproved, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.ok, project.CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

// End-to-end over real storage: completing a project returns bulk stock to
// the warehouse with a paired CHECK_IN entry.
func TestLifecycle_CompletionReleasesStock(t *testing.T) {
	db := sqlite.NewTestDB(t)
	store := sqlite.NewStore(db)
	projects := sqlite.NewProjectRepository(db)
	engine := equipment.NewService(store, projects, nil, nil)
	checker := availability.NewChecker(projects, nil)
	svc := project.NewService(projects, engine, checker, nil, nil)
	ctx := context.Background()

	loc, err := store.CreateLocation(ctx, "Main warehouse")
	require.NoError(t, err)
	cable, err := engine.CreateItem(ctx, equipment.CreateRequest{
		Name:         "Cable",
		LocationID:   loc.ID,
		TrackingType: equipment.TrackingBulk,
		Quantity:     100,
	})
	require.NoError(t, err)

	p, err := svc.Create(ctx, project.CreateRequest{
		Name:         "Winter tour",
		EquipmentIDs: []string{cable.ID},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Transition(ctx, p.ID, project.StatusApproved))
	require.NoError(t, svc.Transition(ctx, p.ID, project.StatusActive))

	got, err := engine.Get(ctx, cable.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Quantity, "activation attaches the whole record")
	held, err := engine.HeldBy(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	require.Equal(t, 100, held[0].Quantity)

	require.NoError(t, svc.Transition(ctx, p.ID, project.StatusCompleted))

	got, err = engine.Get(ctx, cable.ID)
	require.NoError(t, err)
	require.Equal(t, 100, got.Quantity, "completion restores warehouse stock")
	held, err = engine.HeldBy(ctx, p.ID)
	require.NoError(t, err)
	require.Empty(t, held)

	final, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, project.StatusCompleted, final.Status)
}
