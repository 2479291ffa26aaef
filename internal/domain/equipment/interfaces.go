package equipment

import (
	"context"

	"github.com/stagekit/depot/internal/domain/audit"
)

// Ledger is the set of persistence operations the allocation engine needs.
// The same operations are available standalone (auto-committed) and inside a
// transaction passed to Store.InTx.
type Ledger interface {
	InsertEquipment(ctx context.Context, e *Equipment) error
	GetEquipment(ctx context.Context, id string) (*Equipment, error)
	FindEquipment(ctx context.Context, f Filter) ([]Equipment, error)
	UpdateEquipment(ctx context.Context, e *Equipment) error
	DeleteEquipment(ctx context.Context, id string) error

	// AdjustQuantity applies a guarded quantity delta. It reports false
	// without modifying the row when the delta would take the quantity
	// below zero.
	AdjustQuantity(ctx context.Context, id string, delta int) (bool, error)

	// ClaimSerialized atomically hands an AVAILABLE warehouse-resident
	// serialized record to a project. It reports false when the guard
	// did not match, i.e. the record was already claimed or unavailable.
	ClaimSerialized(ctx context.Context, id, projectID string) (bool, error)

	// FindHolderRecord returns the record of a logical bulk item held by
	// the given holder, or nil when none exists.
	FindHolderRecord(ctx context.Context, name, model string, holder Holder) (*Equipment, error)

	// HeldByProject returns every record currently held by a project.
	HeldByProject(ctx context.Context, projectID string) ([]Equipment, error)

	// SumQuantity totals the quantity of one logical bulk item across the
	// warehouse record and all shadow records.
	SumQuantity(ctx context.Context, name, model string) (int, error)

	GetLocation(ctx context.Context, id string) (*Location, error)

	AppendLog(ctx context.Context, entry *audit.Entry) error
	DeleteLogForEquipment(ctx context.Context, equipmentID string) error
}

// Store provides the ledger plus transactional execution. Everything done
// inside the InTx callback commits atomically or not at all. The callback
// receives the transaction-scoped context so its queries observe the
// transaction deadline.
type Store interface {
	Ledger
	InTx(ctx context.Context, fn func(ctx context.Context, l Ledger) error) error
}

// ProjectDirectory answers project existence checks without pulling in the
// full project domain.
type ProjectDirectory interface {
	ProjectExists(ctx context.Context, id string) (bool, error)
}
