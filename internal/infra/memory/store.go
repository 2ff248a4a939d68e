// Package memory keeps every repository in process memory. It backs
// STORAGE_DRIVER=memory and the service tests; data is lost on restart.
package memory

import (
	"sync"
	"time"

	"feedback_survey_bot/internal/domain/employee"
	"feedback_survey_bot/internal/domain/organization"
	"feedback_survey_bot/internal/domain/survey"
)

// Store is the shared state behind the repositories. One mutex serializes
// all writes, standing in for database transaction isolation.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	nextID int64

	organizations map[int64]*organization.Organization
	employees     map[int64]*employee.Employee
	botMessages   map[int64][]*survey.BotMessage
	states        map[int64]*survey.State
	responses     []*survey.Response
	points        []*survey.Point
}

func New() *Store {
	return &Store{
		now:           time.Now,
		organizations: make(map[int64]*organization.Organization),
		employees:     make(map[int64]*employee.Employee),
		botMessages:   make(map[int64][]*survey.BotMessage),
		states:        make(map[int64]*survey.State),
	}
}

// SetClock replaces the time source; tests use it to place records in time.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Organizations() *OrganizationRepository { return &OrganizationRepository{s: s} }
func (s *Store) Employees() *EmployeeRepository         { return &EmployeeRepository{s: s} }
func (s *Store) Surveys() *SurveyRepository             { return &SurveyRepository{s: s} }
