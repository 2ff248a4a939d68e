package memory

import (
	"context"
	"time"

	"feedback_survey_bot/internal/domain/survey"
	idb "feedback_survey_bot/internal/infra/database"
)

type SurveyRepository struct {
	s *Store
}

func (r *SurveyRepository) GetState(_ context.Context, employeeID int64) (*survey.State, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.states[employeeID]
	if !ok {
		return &survey.State{EmployeeID: employeeID, Status: survey.StatusAwaitingFirstQuestion}, nil
	}
	c := *st
	return &c, nil
}

func (r *SurveyRepository) RecordBotMessage(_ context.Context, msg *survey.BotMessage, state survey.State) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.employees[msg.EmployeeID]; !ok {
		return idb.ErrEmployeeNotFound
	}
	msg.ID = r.s.id()
	msg.SentAt = r.s.now()
	c := *msg
	r.s.botMessages[msg.EmployeeID] = append(r.s.botMessages[msg.EmployeeID], &c)

	state.EmployeeID = msg.EmployeeID
	state.UpdatedAt = msg.SentAt
	r.s.states[msg.EmployeeID] = &state
	return nil
}

func (r *SurveyRepository) ResetConversation(_ context.Context, employeeID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.botMessages, employeeID)
	delete(r.s.states, employeeID)
	return nil
}

func (r *SurveyRepository) ListBotMessages(_ context.Context, employeeID int64) ([]*survey.BotMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*survey.BotMessage, 0, len(r.s.botMessages[employeeID]))
	for _, m := range r.s.botMessages[employeeID] {
		c := *m
		out = append(out, &c)
	}
	return out, nil
}

func (r *SurveyRepository) CreateResponse(_ context.Context, resp *survey.Response) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.employees[resp.EmployeeID]; !ok {
		return idb.ErrEmployeeNotFound
	}
	resp.ID = r.s.id()
	resp.CreatedAt = r.s.now()
	c := *resp
	r.s.responses = append(r.s.responses, &c)
	return nil
}

func (r *SurveyRepository) ListResponses(_ context.Context, employeeID int64) ([]*survey.Response, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*survey.Response, 0)
	for _, resp := range r.s.responses {
		if resp.EmployeeID == employeeID {
			c := *resp
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *SurveyRepository) SavePoints(_ context.Context, responseID int64, points survey.Points) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	for _, text := range points.Positive {
		r.s.points = append(r.s.points, &survey.Point{ID: r.s.id(), ResponseID: responseID, Kind: survey.PointPositive, Text: text, CreatedAt: now})
	}
	for _, text := range points.Negative {
		r.s.points = append(r.s.points, &survey.Point{ID: r.s.id(), ResponseID: responseID, Kind: survey.PointNegative, Text: text, CreatedAt: now})
	}
	return nil
}

func (r *SurveyRepository) ListPointsByResponse(_ context.Context, responseID int64) ([]*survey.Point, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*survey.Point, 0)
	for _, p := range r.s.points {
		if p.ResponseID == responseID {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

// responsesInWindowLocked returns the organization's responses created at or after since, keyed by id.
func (r *SurveyRepository) responsesInWindowLocked(organizationID int64, since time.Time) map[int64]*survey.Response {
	out := make(map[int64]*survey.Response)
	for _, resp := range r.s.responses {
		e, ok := r.s.employees[resp.EmployeeID]
		if !ok || e.OrganizationID != organizationID || resp.CreatedAt.Before(since) {
			continue
		}
		out[resp.ID] = resp
	}
	return out
}

func (r *SurveyRepository) ListPointsForOrganization(_ context.Context, organizationID int64, since time.Time) ([]*survey.Point, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	window := r.responsesInWindowLocked(organizationID, since)
	out := make([]*survey.Point, 0)
	for _, p := range r.s.points {
		if _, ok := window[p.ResponseID]; ok {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *SurveyRepository) CountActivity(_ context.Context, organizationID int64, since time.Time) (survey.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	window := r.responsesInWindowLocked(organizationID, since)
	respondents := make(map[int64]bool)
	for _, resp := range window {
		respondents[resp.EmployeeID] = true
	}
	return survey.Activity{Responses: len(window), Respondents: len(respondents)}, nil
}
