package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stagekit/depot/internal/domain/equipment"
	"github.com/stagekit/depot/internal/repository"
)

func insertLocation(t *testing.T, s *Store, name string) string {
	t.Helper()
	loc, err := s.CreateLocation(context.Background(), name)
	require.NoError(t, err)
	return loc.ID
}

func testEquipment(locationID string) *equipment.Equipment {
	now := time.Now().UTC()
	return &equipment.Equipment{
		ID:           "eq1",
		Name:         "Mixer",
		Model:        "MX-8",
		LocationID:   locationID,
		TrackingType: equipment.TrackingSerialized,
		SerialNumber: "SN-001",
		Quantity:     1,
		Status:       equipment.StatusAvailable,
		Holder:       equipment.AtWarehouse(locationID),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestEquipmentLedger_InsertGet(t *testing.T) {
	db := NewTestDB(t)
	s := NewStore(db)
	ctx := context.Background()
	loc := insertLocation(t, s, "Main warehouse")

	e := testEquipment(loc)
	require.NoError(t, s.InsertEquipment(ctx, e))

	loaded, err := s.GetEquipment(ctx, "eq1")
	require.NoError(t, err)
	require.Equal(t, e.Name, loaded.Name)
	require.Equal(t, e.SerialNumber, loaded.SerialNumber)
	require.Equal(t, equipment.AtWarehouse(loc), loaded.Holder)
	require.Equal(t, 1, loaded.Quantity)
}

func TestEquipmentLedger_GetMissing(t *testing.T) {
	db := NewTestDB(t)
	s := NewStore(db)

	_, err := s.GetEquipment(context.Background(), "nope")
	require.ErrorIs(t, err, equipment.ErrNotFound)
}

func TestEquipmentLedger_DuplicateSerial(t *testing.T) {
	db := NewTestDB(t)
	s := NewStore(db)
	ctx := context.Background()
	loc := insertLocation(t, s, "Main warehouse")

	require.NoError(t, s.InsertEquipment(ctx, testEquipment(loc)))

	dup := testEquipment(loc)
	dup.ID = "eq2"
	err := s.InsertEquipment(ctx, dup)
	require.ErrorIs(t, err, equipment.ErrDuplicateSerial)
}

func TestEquipmentLedger_DuplicateBulkHolder(t *testing.T) {
	db := NewTestDB(t)
	s := NewStore(db)
	ctx := context.Background()
	loc := insertLocation(t, s, "Main warehouse")

	bulk := func(id string) *equipment.Equipment {
		e := testEquipment(loc)
		e.ID = id
		e.TrackingType = equipment.TrackingBulk
		e.SerialNumber = ""
		e.Quantity = 10
		return e
	}
	require.NoError(t, s.InsertEquipment(ctx, bulk("c1")))

	// Same logical bulk item at the same holder: conflict, not a raw
	// constraint error.
	err := s.InsertEquipment(ctx, bulk("c2"))
	require.ErrorIs(t, err, equipment.ErrConflict)
}

func TestEquipmentLedger_AdjustQuantityGuard(t *testing.T) {
	db := NewTestDB(t)
	s := NewStore(db)
	ctx := context.Background()
	loc := insertLocation(t, s, "Main warehouse")

	e := testEquipment(loc)
	e.TrackingType = equipment.TrackingBulk
	e.SerialNumber = ""
	e.Quantity = 10
	require.NoError(t, s.InsertEquipment(ctx, e))

	ok, err := s.AdjustQuantity(ctx, e.ID, -4)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.AdjustQuantity(ctx, e.ID, -7)
	require.NoError(t, err)
	require.False(t, ok, "adjustment below zero must not apply")

	loaded, err := s.GetEquipment(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, 6, loaded.Quantity)
}

func TestEquipmentLedger_ClaimSerialized(t *testing.T) {
	db := NewTestDB(t)
	s := NewStore(db)
	ctx := context.Background()
	loc := insertLocation(t, s, "Main warehouse")

	e := testEquipment(loc)
	require.NoError(t, s.InsertEquipment(ctx, e))

	claimed, err := s.ClaimSerialized(ctx, e.ID, "p1")
	require.NoError(t, err)
	require.True(t, claimed)

	// Second claim must lose: the holder guard no longer matches.
	claimed, err = s.ClaimSerialized(ctx, e.ID, "p2")
	require.NoError(t, err)
	require.False(t, claimed)

	loaded, err := s.GetEquipment(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, equipment.AtProject("p1"), loaded.Holder)
	require.Equal(t, equipment.StatusInUse, loaded.Status)
}

func TestEquipmentLedger_FindHolderRecord(t *testing.T) {
	db := NewTestDB(t)
	s := NewStore(db)
	ctx := context.Background()
	loc := insertLocation(t, s, "Main warehouse")

	e := testEquipment(loc)
	e.TrackingType = equipment.TrackingBulk
	e.SerialNumber = ""
	e.Quantity = 25
	require.NoError(t, s.InsertEquipment(ctx, e))

	found, err := s.FindHolderRecord(ctx, "Mixer", "MX-8", equipment.AtWarehouse(loc))
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, e.ID, found.ID)

	missing, err := s.FindHolderRecord(ctx, "Mixer", "MX-8", equipment.AtProject("p1"))
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestEquipmentLedger_SumQuantity(t *testing.T) {
	db := NewTestDB(t)
	s := NewStore(db)
	ctx := context.Background()
	loc := insertLocation(t, s, "Main warehouse")

	wh := testEquipment(loc)
	wh.TrackingType = equipment.TrackingBulk
	wh.SerialNumber = ""
	wh.Quantity = 70
	require.NoError(t, s.InsertEquipment(ctx, wh))

	shadow := testEquipment(loc)
	shadow.ID = "eq-shadow"
	shadow.TrackingType = equipment.TrackingBulk
	shadow.SerialNumber = ""
	shadow.Quantity = 30
	shadow.Status = equipment.StatusInUse
	shadow.Holder = equipment.AtProject("p1")
	require.NoError(t, s.InsertEquipment(ctx, shadow))

	total, err := s.SumQuantity(ctx, "Mixer", "MX-8")
	require.NoError(t, err)
	require.Equal(t, 100, total)
}

func TestEquipmentLedger_FindFilters(t *testing.T) {
	db := NewTestDB(t)
	s := NewStore(db)
	ctx := context.Background()
	loc := insertLocation(t, s, "Main warehouse")

	e := testEquipment(loc)
	e.TrackingType = equipment.TrackingBulk
	e.SerialNumber = ""
	e.Quantity = 2
	e.CriticalStock = 5
	require.NoError(t, s.InsertEquipment(ctx, e))

	low, err := s.FindEquipment(ctx, equipment.Filter{BelowCritical: true})
	require.NoError(t, err)
	require.Len(t, low, 1)

	byStatus, err := s.FindEquipment(ctx, equipment.Filter{Status: equipment.StatusInUse})
	require.NoError(t, err)
	require.Empty(t, byStatus)
}

func TestStore_InTxRollsBack(t *testing.T) {
	db := NewTestDB(t)
	s := NewStore(db)
	ctx := context.Background()
	loc := insertLocation(t, s, "Main warehouse")

	boom := context.Canceled
	err := s.InTx(ctx, func(ctx context.Context, l equipment.Ledger) error {
		if err := l.InsertEquipment(ctx, testEquipment(loc)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.GetEquipment(ctx, "eq1")
	require.ErrorIs(t, err, equipment.ErrNotFound)
}

func TestStore_InTxExpiredDeadlineIsRetryable(t *testing.T) {
	db := NewTestDB(t)
	s := NewStore(db)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.InTx(ctx, func(ctx context.Context, l equipment.Ledger) error {
		time.Sleep(50 * time.Millisecond)
		_, err := l.GetEquipment(ctx, "eq1")
		return err
	})
	require.ErrorIs(t, err, repository.ErrRetryable,
		"a transaction that outlives its deadline must surface as retryable")
}
