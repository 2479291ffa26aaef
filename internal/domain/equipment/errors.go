package equipment

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the equipment record doesn't exist.
	ErrNotFound = errors.New("equipment not found")
	// ErrInvalidInput indicates invalid input for an equipment operation.
	ErrInvalidInput = errors.New("invalid equipment input")
	// ErrDuplicateSerial indicates the serial number is already registered.
	ErrDuplicateSerial = errors.New("duplicate serial number")
	// ErrConflict indicates a serialized item is already held elsewhere.
	ErrConflict = errors.New("equipment already in use elsewhere")
	// ErrInsufficientStock indicates a bulk assignment exceeds on-hand stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrNotInProject indicates a return on a warehouse-resident record.
	ErrNotInProject = errors.New("equipment not held by a project")
	// ErrQuantityExceeded indicates a return larger than the held quantity.
	ErrQuantityExceeded = errors.New("return quantity exceeds held quantity")
	// ErrNegativeQuantity indicates an adjustment below zero.
	ErrNegativeQuantity = errors.New("quantity would become negative")
	// ErrStillAllocated indicates a delete of a record a project still holds.
	ErrStillAllocated = errors.New("equipment still allocated to a project")
)

// ConflictError reports which project already holds a serialized item.
type ConflictError struct {
	EquipmentID string `json:"equipment_id"`
	ProjectID   string `json:"project_id"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("equipment %s already in use by project %s", e.EquipmentID, e.ProjectID)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// InsufficientStockError reports how much stock was available versus needed.
type InsufficientStockError struct {
	EquipmentID string `json:"equipment_id"`
	Have        int    `json:"have"`
	Need        int    `json:"need"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: have %d, need %d", e.EquipmentID, e.Have, e.Need)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }
