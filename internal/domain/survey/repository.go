package survey

import (
	"context"
	"time"
)

// Repository persists conversation progress, answers and extracted points.
type Repository interface {
	// GetState returns the stored state, or a StatusAwaitingFirstQuestion state
	// when the employee has not been sent anything yet.
	GetState(ctx context.Context, employeeID int64) (*State, error)
	// RecordBotMessage inserts msg and stores state in one transaction.
	RecordBotMessage(ctx context.Context, msg *BotMessage, state State) error
	// ResetConversation deletes all BotMessages and the state of the employee.
	ResetConversation(ctx context.Context, employeeID int64) error
	ListBotMessages(ctx context.Context, employeeID int64) ([]*BotMessage, error)

	CreateResponse(ctx context.Context, r *Response) error
	ListResponses(ctx context.Context, employeeID int64) ([]*Response, error)

	// SavePoints stores all points of one response atomically.
	SavePoints(ctx context.Context, responseID int64, points Points) error
	ListPointsByResponse(ctx context.Context, responseID int64) ([]*Point, error)
	ListPointsForOrganization(ctx context.Context, organizationID int64, since time.Time) ([]*Point, error)
	CountActivity(ctx context.Context, organizationID int64, since time.Time) (Activity, error)
}
