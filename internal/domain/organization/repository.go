package organization

import "context"

// Repository defines the operations for persisting and retrieving Organization entities.
type Repository interface {
	Create(ctx context.Context, org *Organization) error
	// Upsert creates the organization or, when one already exists with org.ID
	// (or org.ID is zero and any organization exists), updates it in place.
	// The email list is replaced.
	Upsert(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id int64) (*Organization, error)
	GetFirst(ctx context.Context) (*Organization, error)
	ListAll(ctx context.Context) ([]*Organization, error)
}
