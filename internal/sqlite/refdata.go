package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/stagekit/depot/internal/domain/equipment"
	"github.com/stagekit/depot/internal/repository"
)

// CreateCategory registers a new equipment category.
func (s *Store) CreateCategory(ctx context.Context, name string) (*equipment.Category, error) {
	c := &equipment.Category{ID: uuid.NewString(), Name: name}
	_, err := s.db.ExecContext(ctx, `INSERT INTO categories (id, name) VALUES (?, ?)`, c.ID, c.Name)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("category %q: %w", name, repository.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}
	return c, nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]equipment.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var out []equipment.Category
	for rows.Next() {
		var c equipment.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateLocation registers a new warehouse location.
func (s *Store) CreateLocation(ctx context.Context, name string) (*equipment.Location, error) {
	loc := &equipment.Location{ID: uuid.NewString(), Name: name}
	_, err := s.db.ExecContext(ctx, `INSERT INTO locations (id, name) VALUES (?, ?)`, loc.ID, loc.Name)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("location %q: %w", name, repository.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("creating location: %w", err)
	}
	return loc, nil
}

// ListLocations returns all locations ordered by name.
func (s *Store) ListLocations(ctx context.Context) ([]equipment.Location, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM locations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	var out []equipment.Location
	for rows.Next() {
		var loc equipment.Location
		if err := rows.Scan(&loc.ID, &loc.Name); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

// GetLocation retrieves a warehouse location by id.
func (l *ledger) GetLocation(ctx context.Context, id string) (*equipment.Location, error) {
	var loc equipment.Location
	err := l.q.QueryRowContext(ctx,
		`SELECT id, name FROM locations WHERE id = ?`, id,
	).Scan(&loc.ID, &loc.Name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("location %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting location: %w", err)
	}
	return &loc, nil
}
