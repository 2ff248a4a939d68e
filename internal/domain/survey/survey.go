package survey

import "time"

// BotMessage records one question (or the final message) sent to an employee.
type BotMessage struct {
	ID         int64
	EmployeeID int64
	Text       string
	SentAt     time.Time
}

// Response is one raw answer from an employee to the question outstanding at the time.
type Response struct {
	ID         int64
	EmployeeID int64
	Question   string
	Text       string
	CreatedAt  time.Time
}

// PointKind separates positive from negative discussion points.
type PointKind string

const (
	PointPositive PointKind = "POSITIVE"
	PointNegative PointKind = "NEGATIVE"
)

// Point is a single standardized statement extracted from a Response.
type Point struct {
	ID         int64
	ResponseID int64
	Kind       PointKind
	Text       string
	CreatedAt  time.Time
}

// Status is the stored conversational position of an employee.
type Status string

const (
	StatusAwaitingFirstQuestion Status = "AWAITING_FIRST_QUESTION"
	StatusQuestionOutstanding   Status = "QUESTION_OUTSTANDING"
	StatusSurveyComplete        Status = "SURVEY_COMPLETE"
)

// State is written in the same transaction as every BotMessage, so it always
// describes the latest message the employee received.
type State struct {
	EmployeeID    int64
	Status        Status
	QuestionIndex int
	QuestionText  string
	UpdatedAt     time.Time
}

// Activity summarizes how many answers an organization collected in a window.
type Activity struct {
	Responses   int
	Respondents int
}
