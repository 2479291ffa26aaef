package equipment

import (
	"fmt"
	"strings"
)

// ValidateCreateInput validates fields required to create an equipment record.
func ValidateCreateInput(req CreateRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.LocationID) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	switch req.TrackingType {
	case TrackingSerialized:
		if strings.TrimSpace(req.SerialNumber) == "" {
			return fmt.Errorf("%w: serialized items require a serial number", ErrInvalidInput)
		}
		if req.Quantity > 1 {
			return fmt.Errorf("%w: serialized items have quantity 1", ErrInvalidInput)
		}
	case TrackingBulk:
		if req.Quantity < 0 {
			return fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
		}
		if strings.TrimSpace(req.SerialNumber) != "" {
			return fmt.Errorf("%w: bulk items carry no serial number", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown tracking type %q", ErrInvalidInput, req.TrackingType)
	}
	if req.CriticalStock < 0 {
		return fmt.Errorf("%w: critical stock must not be negative", ErrInvalidInput)
	}
	return nil
}

// ValidateAssignInput validates an assignment request.
func ValidateAssignInput(req AssignRequest) error {
	if strings.TrimSpace(req.EquipmentID) == "" {
		return fmt.Errorf("%w: equipment id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.ProjectID) == "" {
		return fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	return nil
}

// ValidateReturnInput validates a return request.
func ValidateReturnInput(req ReturnRequest) error {
	if strings.TrimSpace(req.EquipmentID) == "" {
		return fmt.Errorf("%w: equipment id is required", ErrInvalidInput)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	return nil
}
