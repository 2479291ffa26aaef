package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stagekit/depot/internal/domain/availability"
	"github.com/stagekit/depot/internal/domain/project"
)

// ProjectRepository implements project.Repository, plus the reservation and
// existence views the availability checker and allocation engine consume.
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create persists a project and its equipment set.
func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, status, starts_at, ends_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(p.Status), nullTime(p.StartsAt), nullTime(p.EndsAt),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating project: %w", err)
	}

	for _, eqID := range p.EquipmentIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO project_equipment (project_id, equipment_id) VALUES (?, ?)`,
			p.ID, eqID,
		)
		if err != nil {
			return fmt.Errorf("adding project equipment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing project: %w", err)
	}
	return nil
}

// Get retrieves a project with its equipment set.
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	var p project.Project
	var status string
	var startsAt, endsAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, status, starts_at, ends_at, created_at, updated_at
		FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &status, &startsAt, &endsAt, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s: %w", id, project.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	p.Status = project.Status(status)
	p.StartsAt = timePtr(startsAt)
	p.EndsAt = timePtr(endsAt)

	rows, err := r.db.QueryContext(ctx,
		`SELECT equipment_id FROM project_equipment WHERE project_id = ? ORDER BY equipment_id`, id)
	if err != nil {
		return nil, fmt.Errorf("listing project equipment: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eqID string
		if err := rows.Scan(&eqID); err != nil {
			return nil, fmt.Errorf("scanning project equipment: %w", err)
		}
		p.EquipmentIDs = append(p.EquipmentIDs, eqID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all projects, newest first, without their equipment sets.
func (r *ProjectRepository) List(ctx context.Context) ([]project.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, status, starts_at, ends_at, created_at, updated_at
		FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var out []project.Project
	for rows.Next() {
		var p project.Project
		var status string
		var startsAt, endsAt sql.NullTime
		err := rows.Scan(&p.ID, &p.Name, &status, &startsAt, &endsAt, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.Status = project.Status(status)
		p.StartsAt = timePtr(startsAt)
		p.EndsAt = timePtr(endsAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateStatus sets a project's status.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, id string, status project.Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating project status: %w", err)
	}
	return checkFound(result, id)
}

// UpdateWindow sets a project's reservation window.
func (r *ProjectRepository) UpdateWindow(ctx context.Context, id string, start, end *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET starts_at = ?, ends_at = ?, updated_at = ? WHERE id = ?`,
		nullTime(start), nullTime(end), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating project window: %w", err)
	}
	return checkFound(result, id)
}

// SetEquipment replaces a project's equipment set.
func (r *ProjectRepository) SetEquipment(ctx context.Context, id string, equipmentIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM project_equipment WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("clearing project equipment: %w", err)
	}
	for _, eqID := range equipmentIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO project_equipment (project_id, equipment_id) VALUES (?, ?)`,
			id, eqID,
		)
		if err != nil {
			return fmt.Errorf("adding project equipment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing equipment set: %w", err)
	}
	return nil
}

// Reservations lists every project referencing an equipment id, with status
// and window, for the availability checker.
func (r *ProjectRepository) Reservations(ctx context.Context, equipmentID string) ([]availability.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.status, p.starts_at, p.ends_at
		FROM project_equipment pe
		JOIN projects p ON p.id = pe.project_id
		WHERE pe.equipment_id = ?
		ORDER BY p.created_at`, equipmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	defer rows.Close()

	var out []availability.Reservation
	for rows.Next() {
		var res availability.Reservation
		var startsAt, endsAt sql.NullTime
		if err := rows.Scan(&res.ProjectID, &res.ProjectName, &res.Status, &startsAt, &endsAt); err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		res.Window = availability.Window{Start: timePtr(startsAt), End: timePtr(endsAt)}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ProjectExists reports whether a project id is known.
func (r *ProjectRepository) ProjectExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking project: %w", err)
	}
	return true, nil
}

func checkFound(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", id, project.ErrNotFound)
	}
	return nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
