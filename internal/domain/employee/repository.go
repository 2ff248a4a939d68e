package employee

import (
	"context"
)

// Repository defines the operations for persisting and retrieving Employee entities.
type Repository interface {
	Create(ctx context.Context, e *Employee) error
	GetByID(ctx context.Context, id int64) (*Employee, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*Employee, error)
	ListByOrganization(ctx context.Context, organizationID int64) ([]*Employee, error)
}
