package entities

import (
	"errors"
	"fmt"
)

// Inventory and order failures. Callers match them with errors.Is.
var (
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrRollbackFailure   = errors.New("rollback failure")
)

// RollbackError reports a fulfillment whose destination store failed and whose
// compensating re-store into the source failed as well. The retrieved quantity
// is no longer accounted for in any ledger, so this error is fatal.
type RollbackError struct {
	OrderID    OrderID
	ProductID  ProductID
	Quantity   Quantity
	StoreErr   error
	RestoreErr error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback of order %s failed: %d units of %s unaccounted for (store: %v, restore: %v)",
		e.OrderID, e.Quantity, e.ProductID, e.StoreErr, e.RestoreErr)
}

// Unwrap exposes the rollback sentinel and both underlying causes.
func (e *RollbackError) Unwrap() []error {
	return []error{ErrRollbackFailure, e.StoreErr, e.RestoreErr}
}
