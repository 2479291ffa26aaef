package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stagekit/depot/internal/domain/audit"
)

// AppendLog inserts a new inventory log entry.
func (l *ledger) AppendLog(ctx context.Context, entry *audit.Entry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var fromType, fromID, toType, toID any
	if entry.From != nil {
		fromType, fromID = string(entry.From.Kind), entry.From.ID
	}
	if entry.To != nil {
		toType, toID = string(entry.To.Kind), entry.To.ID
	}

	result, err := l.q.ExecContext(ctx, `
		INSERT INTO inventory_log (
			equipment_id, actor, action, quantity_changed,
			from_type, from_id, to_type, to_id, note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.EquipmentID,
		nullString(entry.Actor),
		string(entry.Action),
		entry.QuantityChanged,
		fromType, fromID,
		toType, toID,
		nullString(entry.Note),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("appending log entry: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	entry.CreatedAt = createdAt
	return nil
}

// ListLog returns log entries matching the filter, newest first.
func (l *ledger) ListLog(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	query := `
		SELECT id, equipment_id, actor, action, quantity_changed,
		       from_type, from_id, to_type, to_id, note, created_at
		FROM inventory_log
		WHERE 1=1`
	var args []any

	if f.EquipmentID != "" {
		query += ` AND equipment_id = ?`
		args = append(args, f.EquipmentID)
	}
	if f.ProjectID != "" {
		query += ` AND ((from_type = 'PROJECT' AND from_id = ?) OR (to_type = 'PROJECT' AND to_id = ?))`
		args = append(args, f.ProjectID, f.ProjectID)
	}
	if f.Action != nil {
		query += ` AND action = ?`
		args = append(args, string(*f.Action))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := l.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing log entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var actor, note sql.NullString
		var fromType, fromID, toType, toID sql.NullString
		var action string
		err := rows.Scan(
			&e.ID,
			&e.EquipmentID,
			&actor,
			&action,
			&e.QuantityChanged,
			&fromType, &fromID,
			&toType, &toID,
			&note,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		e.Actor = actor.String
		e.Note = note.String
		e.Action = audit.Action(action)
		if fromType.Valid {
			e.From = &audit.Ref{Kind: audit.RefKind(fromType.String), ID: fromID.String}
		}
		if toType.Valid {
			e.To = &audit.Ref{Kind: audit.RefKind(toType.String), ID: toID.String}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteLogForEquipment removes the log entries of a deleted record. This is
// the only path that ever removes log rows.
func (l *ledger) DeleteLogForEquipment(ctx context.Context, equipmentID string) error {
	_, err := l.q.ExecContext(ctx, `DELETE FROM inventory_log WHERE equipment_id = ?`, equipmentID)
	if err != nil {
		return fmt.Errorf("deleting log entries: %w", err)
	}
	return nil
}
