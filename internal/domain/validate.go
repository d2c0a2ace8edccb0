package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidSnapshot is returned when a snapshot violates the input contract.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	// ErrNotFound is returned when a requested item or supplier is absent.
	ErrNotFound = errors.New("not found")
)

// ValidateSnapshot rejects inputs the engine is not required to handle:
// negative quantities or prices, out of range holding percentages, unknown
// statuses, duplicate part numbers and suppliers without a unique id.
func ValidateSnapshot(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("%w: snapshot is nil", ErrInvalidSnapshot)
	}

	if s.Settings.OrderingCost.IsNegative() {
		return fmt.Errorf("%w: ordering cost cannot be negative", ErrInvalidSnapshot)
	}
	if pct := s.Settings.HoldingCostPercentage; pct < 0 || pct > 100 {
		return fmt.Errorf("%w: holding cost percentage %v outside 0-100", ErrInvalidSnapshot, pct)
	}

	suppliers := make(map[uuid.UUID]struct{}, len(s.Suppliers))
	for _, supplier := range s.Suppliers {
		if supplier.ID == uuid.Nil {
			return fmt.Errorf("%w: supplier %q has no id", ErrInvalidSnapshot, supplier.Name)
		}
		if _, dup := suppliers[supplier.ID]; dup {
			return fmt.Errorf("%w: duplicate supplier id %s", ErrInvalidSnapshot, supplier.ID)
		}
		suppliers[supplier.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(s.Items))
	for _, item := range s.Items {
		if item.PartNumber == "" {
			return fmt.Errorf("%w: item %s has no part number", ErrInvalidSnapshot, item.ID)
		}
		if _, dup := seen[item.PartNumber]; dup {
			return fmt.Errorf("%w: duplicate part number %s", ErrInvalidSnapshot, item.PartNumber)
		}
		seen[item.PartNumber] = struct{}{}

		if item.Quantity < 0 || item.MinQuantity < 0 {
			return fmt.Errorf("%w: item %s has negative quantity", ErrInvalidSnapshot, item.PartNumber)
		}
		if item.CostPrice.IsNegative() || item.SellingPrice.IsNegative() {
			return fmt.Errorf("%w: item %s has negative price", ErrInvalidSnapshot, item.PartNumber)
		}
	}

	for _, order := range s.Orders {
		if !order.Status.Valid() {
			return fmt.Errorf("%w: order %s has unknown status %q", ErrInvalidSnapshot, order.ID, order.Status)
		}
		for _, line := range order.Items {
			if line.Quantity <= 0 {
				return fmt.Errorf("%w: order %s line %s has non-positive quantity", ErrInvalidSnapshot, order.ID, line.PartNumber)
			}
			if !line.Status.Valid() {
				return fmt.Errorf("%w: order %s line %s has unknown status %q", ErrInvalidSnapshot, order.ID, line.PartNumber, line.Status)
			}
		}
	}

	return nil
}
