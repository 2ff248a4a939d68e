package organization

import (
	"time"
)

// Organization owns employees and carries the two independent schedules
// that drive survey broadcasts and periodic analysis.
type Organization struct {
	ID             int64
	Name           string
	Activity       string
	Emails         []string
	SurveySchedule Schedule
	ReportSchedule Schedule
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
