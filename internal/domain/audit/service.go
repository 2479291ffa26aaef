package audit

import (
	"context"
	"fmt"
	"log/slog"
)

// Log provides read access to the append-only inventory log. Writes happen
// only inside allocation transactions and are not exposed here.
type Log interface {
	ListLog(ctx context.Context, f Filter) ([]Entry, error)
}

// Service answers history queries over the inventory log.
type Service struct {
	log    Log
	logger *slog.Logger
}

// NewService creates a new audit service.
func NewService(log Log, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{log: log, logger: logger}
}

// History returns all log entries for a piece of equipment, newest first.
func (s *Service) History(ctx context.Context, equipmentID string) ([]Entry, error) {
	entries, err := s.log.ListLog(ctx, Filter{EquipmentID: equipmentID})
	if err != nil {
		return nil, fmt.Errorf("listing equipment history: %w", err)
	}
	return entries, nil
}

// ForProject returns all log entries whose source or destination is the
// given project, newest first.
func (s *Service) ForProject(ctx context.Context, projectID string) ([]Entry, error) {
	entries, err := s.log.ListLog(ctx, Filter{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("listing project log: %w", err)
	}
	return entries, nil
}
