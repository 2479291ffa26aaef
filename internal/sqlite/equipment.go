package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stagekit/depot/internal/domain/equipment"
)

const equipmentColumns = `id, name, model, category_id, location_id, tracking_type,
	serial_number, quantity, status, holder_type, holder_id, critical_stock,
	created_at, updated_at`

// InsertEquipment persists a new equipment record.
func (l *ledger) InsertEquipment(ctx context.Context, e *equipment.Equipment) error {
	query := `
		INSERT INTO equipment (` + equipmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := l.q.ExecContext(ctx, query,
		e.ID,
		e.Name,
		e.Model,
		nullString(e.CategoryID),
		e.LocationID,
		string(e.TrackingType),
		nullString(e.SerialNumber),
		e.Quantity,
		string(e.Status),
		string(e.Holder.Kind),
		e.Holder.ID,
		e.CriticalStock,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if isSerialViolation(err) {
		return fmt.Errorf("serial %q: %w", e.SerialNumber, equipment.ErrDuplicateSerial)
	}
	if isUniqueViolation(err) {
		// The logical-holder index: one bulk record per (name, model, holder).
		return fmt.Errorf("%w: bulk item %q already tracked by this holder, adjust its count instead",
			equipment.ErrConflict, e.Name)
	}
	if err != nil {
		return fmt.Errorf("inserting equipment: %w", err)
	}
	return nil
}

// GetEquipment retrieves an equipment record by id.
func (l *ledger) GetEquipment(ctx context.Context, id string) (*equipment.Equipment, error) {
	row := l.q.QueryRowContext(ctx,
		`SELECT `+equipmentColumns+` FROM equipment WHERE id = ?`, id)

	e, err := scanEquipment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("equipment %s: %w", id, equipment.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting equipment: %w", err)
	}
	return e, nil
}

// FindEquipment returns records matching the filter, ordered by name.
func (l *ledger) FindEquipment(ctx context.Context, f equipment.Filter) ([]equipment.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.LocationID != "" {
		query += ` AND location_id = ?`
		args = append(args, f.LocationID)
	}
	if f.ProjectID != "" {
		query += ` AND holder_type = 'PROJECT' AND holder_id = ?`
		args = append(args, f.ProjectID)
	}
	if f.TrackingType != "" {
		query += ` AND tracking_type = ?`
		args = append(args, string(f.TrackingType))
	}
	if f.BelowCritical {
		query += ` AND holder_type = 'WAREHOUSE' AND quantity < critical_stock`
	}
	query += ` ORDER BY name, model`

	rows, err := l.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding equipment: %w", err)
	}
	defer rows.Close()

	return scanEquipmentRows(rows)
}

// UpdateEquipment writes back every mutable field of a record.
func (l *ledger) UpdateEquipment(ctx context.Context, e *equipment.Equipment) error {
	e.UpdatedAt = time.Now().UTC()
	result, err := l.q.ExecContext(ctx, `
		UPDATE equipment
		SET name = ?, model = ?, category_id = ?, location_id = ?,
		    quantity = ?, status = ?, holder_type = ?, holder_id = ?,
		    critical_stock = ?, updated_at = ?
		WHERE id = ?`,
		e.Name,
		e.Model,
		nullString(e.CategoryID),
		e.LocationID,
		e.Quantity,
		string(e.Status),
		string(e.Holder.Kind),
		e.Holder.ID,
		e.CriticalStock,
		e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating equipment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating equipment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("equipment %s: %w", e.ID, equipment.ErrNotFound)
	}
	return nil
}

// DeleteEquipment removes a record.
func (l *ledger) DeleteEquipment(ctx context.Context, id string) error {
	_, err := l.q.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting equipment: %w", err)
	}
	return nil
}

// AdjustQuantity applies a guarded delta. The WHERE guard keeps the quantity
// from going below zero even when two writers raced between read and write.
func (l *ledger) AdjustQuantity(ctx context.Context, id string, delta int) (bool, error) {
	result, err := l.q.ExecContext(ctx, `
		UPDATE equipment
		SET quantity = quantity + ?, updated_at = ?
		WHERE id = ? AND quantity + ? >= 0`,
		delta, time.Now().UTC(), id, delta,
	)
	if err != nil {
		return false, fmt.Errorf("adjusting quantity: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("adjusting quantity: %w", err)
	}
	return n > 0, nil
}

// ClaimSerialized hands an available serialized record to a project. The
// guard is the compare-and-swap that makes serialized exclusivity hold under
// concurrent assignments.
func (l *ledger) ClaimSerialized(ctx context.Context, id, projectID string) (bool, error) {
	result, err := l.q.ExecContext(ctx, `
		UPDATE equipment
		SET status = 'IN_USE', holder_type = 'PROJECT', holder_id = ?, updated_at = ?
		WHERE id = ? AND tracking_type = 'SERIALIZED'
		  AND status = 'AVAILABLE' AND holder_type = 'WAREHOUSE'`,
		projectID, time.Now().UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("claiming equipment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claiming equipment: %w", err)
	}
	return n > 0, nil
}

// FindHolderRecord returns the bulk record of a logical item at the given
// holder, or nil when none exists.
func (l *ledger) FindHolderRecord(ctx context.Context, name, model string, holder equipment.Holder) (*equipment.Equipment, error) {
	row := l.q.QueryRowContext(ctx, `
		SELECT `+equipmentColumns+` FROM equipment
		WHERE name = ? AND model = ? AND tracking_type = 'BULK'
		  AND holder_type = ? AND holder_id = ?`,
		name, model, string(holder.Kind), holder.ID,
	)

	e, err := scanEquipment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding holder record: %w", err)
	}
	return e, nil
}

// HeldByProject returns every record currently held by a project.
func (l *ledger) HeldByProject(ctx context.Context, projectID string) ([]equipment.Equipment, error) {
	rows, err := l.q.QueryContext(ctx, `
		SELECT `+equipmentColumns+` FROM equipment
		WHERE holder_type = 'PROJECT' AND holder_id = ?
		ORDER BY name, model`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing held equipment: %w", err)
	}
	defer rows.Close()

	return scanEquipmentRows(rows)
}

// SumQuantity totals one logical bulk item across all holders.
func (l *ledger) SumQuantity(ctx context.Context, name, model string) (int, error) {
	var total int
	err := l.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM equipment
		WHERE name = ? AND model = ? AND tracking_type = 'BULK'`,
		name, model,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing quantity: %w", err)
	}
	return total, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEquipment(s scanner) (*equipment.Equipment, error) {
	var e equipment.Equipment
	var category, serial sql.NullString
	var tracking, status, holderKind string
	err := s.Scan(
		&e.ID,
		&e.Name,
		&e.Model,
		&category,
		&e.LocationID,
		&tracking,
		&serial,
		&e.Quantity,
		&status,
		&holderKind,
		&e.Holder.ID,
		&e.CriticalStock,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.CategoryID = category.String
	e.SerialNumber = serial.String
	e.TrackingType = equipment.TrackingType(tracking)
	e.Status = equipment.Status(status)
	e.Holder.Kind = equipment.HolderKind(holderKind)
	return &e, nil
}

func scanEquipmentRows(rows *sql.Rows) ([]equipment.Equipment, error) {
	var out []equipment.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning equipment: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
