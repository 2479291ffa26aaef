package equipment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stagekit/depot/internal/domain/audit"
	"github.com/stagekit/depot/internal/metrics"
)

// DefaultTxTimeout bounds a single allocation transaction.
const DefaultTxTimeout = 5 * time.Second

// Service is the allocation engine. Every mutating operation runs inside one
// store transaction together with exactly one inventory log entry; on any
// failure the whole transaction rolls back and no partial state survives.
type Service struct {
	store     Store
	projects  ProjectDirectory
	metrics   *metrics.Metrics
	logger    *slog.Logger
	txTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithTxTimeout overrides the per-transaction deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Service) { s.txTimeout = d }
}

// NewService creates a new allocation engine.
func NewService(store Store, projects ProjectDirectory, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Service {
	if m == nil {
		m = metrics.NewNop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:     store,
		projects:  projects,
		metrics:   m,
		logger:    logger,
		txTimeout: DefaultTxTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// inTx runs fn inside a deadline-bounded store transaction and records its
// duration. The callback gets the deadline-bounded context so every query in
// the transaction observes the timeout.
func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context, l Ledger) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	start := time.Now()
	err := s.store.InTx(ctx, fn)
	s.metrics.TxDuration.Observe(time.Since(start).Seconds())
	return err
}

// CreateRequest describes an equipment intake.
type CreateRequest struct {
	Name          string
	Model         string
	CategoryID    string
	LocationID    string
	TrackingType  TrackingType
	SerialNumber  string
	Quantity      int
	CriticalStock int
	Actor         string
	Note          string
}

// AssignRequest describes a checkout of equipment to a project.
type AssignRequest struct {
	EquipmentID string
	ProjectID   string
	Quantity    int
	Actor       string
	Note        string
}

// ReturnRequest describes a return of equipment to the warehouse.
type ReturnRequest struct {
	EquipmentID string
	Quantity    int
	Actor       string
	Note        string
}

// UpdateRequest carries administrative metadata edits. Status, quantity and
// holder have no fields here: those change only through typed engine
// operations so their invariants always hold.
type UpdateRequest struct {
	Name          *string
	Model         *string
	CategoryID    *string
	CriticalStock *int
}

// CreateItem registers a new equipment record at a warehouse location and
// writes its intake log entry. Serialized items are forced to quantity 1.
func (s *Service) CreateItem(ctx context.Context, req CreateRequest) (*Equipment, error) {
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}

	qty := req.Quantity
	if req.TrackingType == TrackingSerialized {
		qty = 1
	}

	now := time.Now().UTC()
	e := &Equipment{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Model:         req.Model,
		CategoryID:    req.CategoryID,
		LocationID:    req.LocationID,
		TrackingType:  req.TrackingType,
		SerialNumber:  req.SerialNumber,
		Quantity:      qty,
		Status:        StatusAvailable,
		Holder:        AtWarehouse(req.LocationID),
		CriticalStock: req.CriticalStock,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.inTx(ctx, func(ctx context.Context, l Ledger) error {
		if _, err := l.GetLocation(ctx, req.LocationID); err != nil {
			return fmt.Errorf("%w: location %s", ErrInvalidInput, req.LocationID)
		}
		if err := l.InsertEquipment(ctx, e); err != nil {
			return err
		}
		return l.AppendLog(ctx, &audit.Entry{
			EquipmentID:     e.ID,
			Actor:           req.Actor,
			Action:          audit.ActionCheckIn,
			QuantityChanged: qty,
			To:              &audit.Ref{Kind: audit.RefWarehouse, ID: req.LocationID},
			Note:            req.Note,
			CreatedAt:       now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("equipment created",
		"equipment", e.ID, "name", e.Name, "tracking", e.TrackingType, "quantity", qty)
	return e, nil
}

// AssignToProject checks equipment out to a project. Serialized items are
// claimed whole through a compare-and-swap on the holder; bulk items split
// the requested quantity off the warehouse record into the project's shadow
// record, creating it on first use.
func (s *Service) AssignToProject(ctx context.Context, req AssignRequest) error {
	if err := ValidateAssignInput(req); err != nil {
		return err
	}

	ok, err := s.projects.ProjectExists(ctx, req.ProjectID)
	if err != nil {
		return fmt.Errorf("checking project: %w", err)
	}
	if !ok {
		return fmt.Errorf("project %s: %w", req.ProjectID, ErrNotFound)
	}

	var noop bool
	err = s.inTx(ctx, func(ctx context.Context, l Ledger) error {
		e, err := l.GetEquipment(ctx, req.EquipmentID)
		if err != nil {
			return err
		}

		var from audit.Ref
		switch e.TrackingType {
		case TrackingSerialized:
			done, err := s.assignSerialized(ctx, l, e, req.ProjectID)
			if err != nil {
				return err
			}
			if done {
				noop = true
				return nil
			}
			from = audit.Ref{Kind: audit.RefWarehouse, ID: e.LocationID}
		case TrackingBulk:
			if err := s.assignBulk(ctx, l, e, req.ProjectID, req.Quantity); err != nil {
				return err
			}
			from = audit.Ref{Kind: audit.RefWarehouse, ID: e.LocationID}
		default:
			return fmt.Errorf("%w: unknown tracking type %q", ErrInvalidInput, e.TrackingType)
		}

		return l.AppendLog(ctx, &audit.Entry{
			EquipmentID:     e.ID,
			Actor:           req.Actor,
			Action:          audit.ActionCheckOut,
			QuantityChanged: req.Quantity,
			From:            &from,
			To:              &audit.Ref{Kind: audit.RefProject, ID: req.ProjectID},
			Note:            req.Note,
			CreatedAt:       time.Now().UTC(),
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrConflict):
			s.metrics.Conflicts.Inc()
		case errors.Is(err, ErrInsufficientStock):
			s.metrics.StockRejections.Inc()
		}
		return err
	}
	if noop {
		// Already held by this project: nothing moved, so neither the log
		// nor the checkout telemetry should say otherwise.
		return nil
	}

	s.metrics.Checkouts.Inc()
	s.logger.Info("equipment assigned",
		"equipment", req.EquipmentID, "project", req.ProjectID, "quantity", req.Quantity)
	return nil
}

// assignSerialized claims a serialized record for a project. The returned
// bool is true when the call was an idempotent no-op (already held by the
// same project) and no log entry should be written.
func (s *Service) assignSerialized(ctx context.Context, l Ledger, e *Equipment, projectID string) (bool, error) {
	if held, ok := e.Holder.Project(); ok {
		if held == projectID {
			return true, nil
		}
		return false, &ConflictError{EquipmentID: e.ID, ProjectID: held}
	}

	claimed, err := l.ClaimSerialized(ctx, e.ID, projectID)
	if err != nil {
		return false, err
	}
	if !claimed {
		// The guard didn't match: not AVAILABLE, or another writer got
		// there first. Re-read to report the actual holder.
		cur, err := l.GetEquipment(ctx, e.ID)
		if err != nil {
			return false, err
		}
		if held, ok := cur.Holder.Project(); ok {
			if held == projectID {
				return true, nil
			}
			return false, &ConflictError{EquipmentID: e.ID, ProjectID: held}
		}
		return false, fmt.Errorf("%w: equipment %s is %s", ErrConflict, e.ID, cur.Status)
	}
	return false, nil
}

// assignBulk moves qty units from the warehouse record onto the project's
// shadow record.
func (s *Service) assignBulk(ctx context.Context, l Ledger, e *Equipment, projectID string, qty int) error {
	if !e.Holder.IsWarehouse() {
		return fmt.Errorf("%w: bulk assignments draw from the warehouse record", ErrInvalidInput)
	}
	if e.Status != StatusAvailable {
		return fmt.Errorf("%w: equipment %s is %s", ErrConflict, e.ID, e.Status)
	}
	if e.Quantity < qty {
		return &InsufficientStockError{EquipmentID: e.ID, Have: e.Quantity, Need: qty}
	}

	ok, err := l.AdjustQuantity(ctx, e.ID, -qty)
	if err != nil {
		return err
	}
	if !ok {
		// A concurrent writer drained the stock between read and write.
		cur, err := l.GetEquipment(ctx, e.ID)
		if err != nil {
			return err
		}
		return &InsufficientStockError{EquipmentID: e.ID, Have: cur.Quantity, Need: qty}
	}

	shadow, err := l.FindHolderRecord(ctx, e.Name, e.Model, AtProject(projectID))
	if err != nil {
		return err
	}
	if shadow != nil {
		_, err := l.AdjustQuantity(ctx, shadow.ID, qty)
		return err
	}

	now := time.Now().UTC()
	return l.InsertEquipment(ctx, &Equipment{
		ID:            uuid.NewString(),
		Name:          e.Name,
		Model:         e.Model,
		CategoryID:    e.CategoryID,
		LocationID:    e.LocationID,
		TrackingType:  TrackingBulk,
		Quantity:      qty,
		Status:        StatusInUse,
		Holder:        AtProject(projectID),
		CriticalStock: e.CriticalStock,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

// ReturnToWarehouse checks equipment back in. Serialized items are released
// in place; for bulk items the id names the project's shadow record, whose
// quantity flows back to the warehouse record at the item's home location,
// creating it if intake stock was fully drained.
func (s *Service) ReturnToWarehouse(ctx context.Context, req ReturnRequest) error {
	if err := ValidateReturnInput(req); err != nil {
		return err
	}

	err := s.inTx(ctx, func(ctx context.Context, l Ledger) error {
		e, err := l.GetEquipment(ctx, req.EquipmentID)
		if err != nil {
			return err
		}
		projectID, ok := e.Holder.Project()
		if !ok {
			return fmt.Errorf("equipment %s: %w", e.ID, ErrNotInProject)
		}

		switch e.TrackingType {
		case TrackingSerialized:
			e.Status = StatusAvailable
			e.Holder = AtWarehouse(e.LocationID)
			if err := l.UpdateEquipment(ctx, e); err != nil {
				return err
			}
		case TrackingBulk:
			if err := s.returnBulk(ctx, l, e, req.Quantity); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown tracking type %q", ErrInvalidInput, e.TrackingType)
		}

		return l.AppendLog(ctx, &audit.Entry{
			EquipmentID:     e.ID,
			Actor:           req.Actor,
			Action:          audit.ActionCheckIn,
			QuantityChanged: req.Quantity,
			From:            &audit.Ref{Kind: audit.RefProject, ID: projectID},
			To:              &audit.Ref{Kind: audit.RefWarehouse, ID: e.LocationID},
			Note:            req.Note,
			CreatedAt:       time.Now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	s.metrics.Checkins.Inc()
	s.logger.Info("equipment returned", "equipment", req.EquipmentID, "quantity", req.Quantity)
	return nil
}

// returnBulk moves qty units from a shadow record back onto the warehouse
// record. The shadow is deleted when it reaches zero.
func (s *Service) returnBulk(ctx context.Context, l Ledger, shadow *Equipment, qty int) error {
	if qty > shadow.Quantity {
		return fmt.Errorf("%w: held %d, returning %d", ErrQuantityExceeded, shadow.Quantity, qty)
	}

	if qty == shadow.Quantity {
		if err := l.DeleteEquipment(ctx, shadow.ID); err != nil {
			return err
		}
	} else {
		if _, err := l.AdjustQuantity(ctx, shadow.ID, -qty); err != nil {
			return err
		}
	}

	wh, err := l.FindHolderRecord(ctx, shadow.Name, shadow.Model, AtWarehouse(shadow.LocationID))
	if err != nil {
		return err
	}
	if wh != nil {
		_, err := l.AdjustQuantity(ctx, wh.ID, qty)
		return err
	}

	now := time.Now().UTC()
	return l.InsertEquipment(ctx, &Equipment{
		ID:            uuid.NewString(),
		Name:          shadow.Name,
		Model:         shadow.Model,
		CategoryID:    shadow.CategoryID,
		LocationID:    shadow.LocationID,
		TrackingType:  TrackingBulk,
		Quantity:      qty,
		Status:        StatusAvailable,
		Holder:        AtWarehouse(shadow.LocationID),
		CriticalStock: shadow.CriticalStock,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

// AdjustCount applies an administrative stock correction to a bulk record
// and logs it. Serialized quantities never change.
func (s *Service) AdjustCount(ctx context.Context, id string, delta int, note, actor string) error {
	if delta == 0 {
		return fmt.Errorf("%w: delta must be non-zero", ErrInvalidInput)
	}

	return s.inTx(ctx, func(ctx context.Context, l Ledger) error {
		e, err := l.GetEquipment(ctx, id)
		if err != nil {
			return err
		}
		if e.TrackingType != TrackingBulk {
			return fmt.Errorf("%w: only bulk counts can be adjusted", ErrInvalidInput)
		}
		ok, err := l.AdjustQuantity(ctx, id, delta)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("equipment %s: %w", id, ErrNegativeQuantity)
		}

		var from, to *audit.Ref
		ref := audit.Ref{Kind: audit.RefKind(e.Holder.Kind), ID: e.Holder.ID}
		if delta > 0 {
			to = &ref
		} else {
			from = &ref
		}
		return l.AppendLog(ctx, &audit.Entry{
			EquipmentID:     id,
			Actor:           actor,
			Action:          audit.ActionCountUpdate,
			QuantityChanged: delta,
			From:            from,
			To:              to,
			Note:            note,
			CreatedAt:       time.Now().UTC(),
		})
	})
}

// StartMaintenance takes an available warehouse-resident record out of
// circulation.
func (s *Service) StartMaintenance(ctx context.Context, id, note, actor string) error {
	return s.setMaintenance(ctx, id, note, actor, true)
}

// EndMaintenance puts a record under maintenance back in circulation.
func (s *Service) EndMaintenance(ctx context.Context, id, note, actor string) error {
	return s.setMaintenance(ctx, id, note, actor, false)
}

func (s *Service) setMaintenance(ctx context.Context, id, note, actor string, start bool) error {
	return s.inTx(ctx, func(ctx context.Context, l Ledger) error {
		e, err := l.GetEquipment(ctx, id)
		if err != nil {
			return err
		}
		if !e.Holder.IsWarehouse() {
			return fmt.Errorf("%w: maintenance applies to warehouse-resident equipment", ErrConflict)
		}

		action := audit.ActionMaintenanceStart
		if start {
			if e.Status != StatusAvailable {
				return fmt.Errorf("%w: equipment %s is %s", ErrConflict, id, e.Status)
			}
			e.Status = StatusMaintenance
		} else {
			if e.Status != StatusMaintenance {
				return fmt.Errorf("%w: equipment %s is %s", ErrConflict, id, e.Status)
			}
			e.Status = StatusAvailable
			action = audit.ActionMaintenanceEnd
		}
		if err := l.UpdateEquipment(ctx, e); err != nil {
			return err
		}
		return l.AppendLog(ctx, &audit.Entry{
			EquipmentID: id,
			Actor:       actor,
			Action:      action,
			Note:        note,
			CreatedAt:   time.Now().UTC(),
		})
	})
}

// Move relocates a warehouse-resident record to another warehouse location.
func (s *Service) Move(ctx context.Context, id, toLocationID, actor string) error {
	return s.inTx(ctx, func(ctx context.Context, l Ledger) error {
		e, err := l.GetEquipment(ctx, id)
		if err != nil {
			return err
		}
		if !e.Holder.IsWarehouse() {
			return fmt.Errorf("%w: equipment %s is out with a project", ErrConflict, id)
		}
		if _, err := l.GetLocation(ctx, toLocationID); err != nil {
			return fmt.Errorf("%w: location %s", ErrInvalidInput, toLocationID)
		}

		from := e.LocationID
		e.LocationID = toLocationID
		e.Holder = AtWarehouse(toLocationID)
		if err := l.UpdateEquipment(ctx, e); err != nil {
			return err
		}
		return l.AppendLog(ctx, &audit.Entry{
			EquipmentID:     id,
			Actor:           actor,
			Action:          audit.ActionMove,
			QuantityChanged: e.Quantity,
			From:            &audit.Ref{Kind: audit.RefWarehouse, ID: from},
			To:              &audit.Ref{Kind: audit.RefWarehouse, ID: toLocationID},
			CreatedAt:       time.Now().UTC(),
		})
	})
}

// UpdateItem applies metadata edits. Allocation state is untouchable here.
func (s *Service) UpdateItem(ctx context.Context, id string, req UpdateRequest) (*Equipment, error) {
	var updated *Equipment
	err := s.inTx(ctx, func(ctx context.Context, l Ledger) error {
		e, err := l.GetEquipment(ctx, id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			if *req.Name == "" {
				return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
			}
			e.Name = *req.Name
		}
		if req.Model != nil {
			e.Model = *req.Model
		}
		if req.CategoryID != nil {
			e.CategoryID = *req.CategoryID
		}
		if req.CriticalStock != nil {
			if *req.CriticalStock < 0 {
				return fmt.Errorf("%w: critical stock must not be negative", ErrInvalidInput)
			}
			e.CriticalStock = *req.CriticalStock
		}
		if err := l.UpdateEquipment(ctx, e); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItem removes a warehouse-resident record and, with it, its log
// entries. Records held by a project must be returned first.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	return s.inTx(ctx, func(ctx context.Context, l Ledger) error {
		e, err := l.GetEquipment(ctx, id)
		if err != nil {
			return err
		}
		if _, held := e.Holder.Project(); held {
			return fmt.Errorf("equipment %s: %w", id, ErrStillAllocated)
		}
		if err := l.DeleteLogForEquipment(ctx, id); err != nil {
			return err
		}
		return l.DeleteEquipment(ctx, id)
	})
}

// Get returns a single equipment record.
func (s *Service) Get(ctx context.Context, id string) (*Equipment, error) {
	return s.store.GetEquipment(ctx, id)
}

// Find returns equipment matching the filter.
func (s *Service) Find(ctx context.Context, f Filter) ([]Equipment, error) {
	return s.store.FindEquipment(ctx, f)
}

// HeldBy returns every record a project currently holds.
func (s *Service) HeldBy(ctx context.Context, projectID string) ([]Equipment, error) {
	return s.store.HeldByProject(ctx, projectID)
}

// TotalQuantity totals a logical bulk item across warehouse and shadow
// records. Allocation operations conserve this number.
func (s *Service) TotalQuantity(ctx context.Context, name, model string) (int, error) {
	return s.store.SumQuantity(ctx, name, model)
}
