package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stagekit/depot/internal/domain/audit"
)

func TestAuditLedger_AppendAndList(t *testing.T) {
	db := NewTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []*audit.Entry{
		{
			EquipmentID:     "eq1",
			Action:          audit.ActionCheckIn,
			QuantityChanged: 100,
			To:              &audit.Ref{Kind: audit.RefWarehouse, ID: "w1"},
			CreatedAt:       base,
		},
		{
			EquipmentID:     "eq1",
			Action:          audit.ActionCheckOut,
			QuantityChanged: 30,
			From:            &audit.Ref{Kind: audit.RefWarehouse, ID: "w1"},
			To:              &audit.Ref{Kind: audit.RefProject, ID: "p1"},
			CreatedAt:       base.Add(time.Hour),
		},
		{
			EquipmentID:     "eq2",
			Action:          audit.ActionCheckOut,
			QuantityChanged: 1,
			To:              &audit.Ref{Kind: audit.RefProject, ID: "p2"},
			CreatedAt:       base.Add(2 * time.Hour),
		},
	}
	for _, e := range entries {
		require.NoError(t, s.AppendLog(ctx, e))
		require.NotZero(t, e.ID)
	}

	// Equipment history, newest first.
	history, err := s.ListLog(ctx, audit.Filter{EquipmentID: "eq1"})
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, audit.ActionCheckOut, history[0].Action)
	require.Equal(t, audit.ActionCheckIn, history[1].Action)
	require.True(t, history[0].CreatedAt.After(history[1].CreatedAt))

	// Project-scoped log matches either side of the movement.
	forP1, err := s.ListLog(ctx, audit.Filter{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, forP1, 1)
	require.Equal(t, "eq1", forP1[0].EquipmentID)

	// Action filter.
	action := audit.ActionCheckOut
	checkouts, err := s.ListLog(ctx, audit.Filter{Action: &action})
	require.NoError(t, err)
	require.Len(t, checkouts, 2)
}

func TestAuditLedger_DeleteForEquipment(t *testing.T) {
	db := NewTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	require.NoError(t, s.AppendLog(ctx, &audit.Entry{
		EquipmentID: "eq1",
		Action:      audit.ActionCheckIn,
	}))
	require.NoError(t, s.AppendLog(ctx, &audit.Entry{
		EquipmentID: "eq2",
		Action:      audit.ActionCheckIn,
	}))

	require.NoError(t, s.DeleteLogForEquipment(ctx, "eq1"))

	remaining, err := s.ListLog(ctx, audit.Filter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "eq2", remaining[0].EquipmentID)
}
