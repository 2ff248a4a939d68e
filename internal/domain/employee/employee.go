package employee

import "time"

// Employee is a survey participant identified by their Telegram user id.
type Employee struct {
	ID             int64
	TelegramID     int64
	Name           string
	OrganizationID int64
	CreatedAt      time.Time
}
