package order

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository reads orders and applies item-level writes
type OrderRepository interface {
	// FindByID loads an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindContainingProducts loads every order having at least one Product
	// item whose item ID is in productIDs. An empty set matches nothing.
	FindContainingProducts(ctx context.Context, productIDs []uuid.UUID) ([]Order, error)

	// UpdateItem writes the item's status and cancellation fields only if the
	// stored status still equals change.ExpectedStatus.
	UpdateItem(ctx context.Context, change ItemChange) error
}
