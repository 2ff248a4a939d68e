package memory

import (
	"context"
	"testing"
	"time"

	"feedback_survey_bot/internal/domain/employee"
	"feedback_survey_bot/internal/domain/organization"
	"feedback_survey_bot/internal/domain/survey"
	idb "feedback_survey_bot/internal/infra/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*Store, *organization.Organization, *employee.Employee) {
	t.Helper()
	ctx := context.Background()
	s := New()
	org := &organization.Organization{Name: "Acme", Emails: []string{"hr@acme.test"}}
	require.NoError(t, s.Organizations().Upsert(ctx, org))
	e := &employee.Employee{TelegramID: 10, Name: "Alice", OrganizationID: org.ID}
	require.NoError(t, s.Employees().Create(ctx, e))
	return s, org, e
}

func TestOrganizationRepository_UpsertKeepsSingleDefault(t *testing.T) {
	s, org, _ := seed(t)
	ctx := context.Background()

	update := &organization.Organization{Name: "Acme 2", Emails: []string{"a@acme.test"}}
	require.NoError(t, s.Organizations().Upsert(ctx, update))
	assert.Equal(t, org.ID, update.ID)

	// Callers cannot mutate stored emails through the returned value.
	got, err := s.Organizations().GetFirst(ctx)
	require.NoError(t, err)
	got.Emails[0] = "changed"
	again, err := s.Organizations().GetByID(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@acme.test"}, again.Emails)

	err = s.Organizations().Upsert(ctx, &organization.Organization{ID: 999})
	assert.ErrorIs(t, err, idb.ErrOrganizationNotFound)
}

func TestEmployeeRepository_Create(t *testing.T) {
	s, org, e := seed(t)
	ctx := context.Background()

	err := s.Employees().Create(ctx, &employee.Employee{TelegramID: e.TelegramID, OrganizationID: org.ID})
	assert.ErrorIs(t, err, idb.ErrDuplicateTelegramID)

	err = s.Employees().Create(ctx, &employee.Employee{TelegramID: 11, OrganizationID: 999})
	assert.ErrorIs(t, err, idb.ErrOrganizationNotFound)

	_, err = s.Employees().GetByID(ctx, 999)
	assert.ErrorIs(t, err, idb.ErrEmployeeNotFound)
}

func TestSurveyRepository_StateFollowsBotMessages(t *testing.T) {
	s, _, e := seed(t)
	ctx := context.Background()
	repo := s.Surveys()

	st, err := repo.GetState(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, survey.StatusAwaitingFirstQuestion, st.Status)

	msg := &survey.BotMessage{EmployeeID: e.ID, Text: "Q1"}
	require.NoError(t, repo.RecordBotMessage(ctx, msg, survey.State{Status: survey.StatusQuestionOutstanding, QuestionText: "Q1"}))
	assert.NotZero(t, msg.ID)

	st, err = repo.GetState(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, st.EmployeeID)
	assert.Equal(t, "Q1", st.QuestionText)

	err = repo.RecordBotMessage(ctx, &survey.BotMessage{EmployeeID: 999, Text: "Q1"}, survey.State{})
	assert.ErrorIs(t, err, idb.ErrEmployeeNotFound)

	require.NoError(t, repo.ResetConversation(ctx, e.ID))
	msgs, err := repo.ListBotMessages(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSurveyRepository_OrganizationWindow(t *testing.T) {
	s, org, e := seed(t)
	ctx := context.Background()
	repo := s.Surveys()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	s.SetClock(func() time.Time { return base.Add(-10 * 24 * time.Hour) })
	old := &survey.Response{EmployeeID: e.ID, Question: "Q1", Text: "old"}
	require.NoError(t, repo.CreateResponse(ctx, old))
	require.NoError(t, repo.SavePoints(ctx, old.ID, survey.Points{Positive: []string{"Old"}, Negative: []string{}}))

	s.SetClock(func() time.Time { return base })
	fresh := &survey.Response{EmployeeID: e.ID, Question: "Q1", Text: "fresh"}
	require.NoError(t, repo.CreateResponse(ctx, fresh))
	require.NoError(t, repo.SavePoints(ctx, fresh.ID, survey.Points{Positive: []string{"Team"}, Negative: []string{"Pay"}}))

	points, err := repo.ListPointsForOrganization(ctx, org.ID, base.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, survey.PointPositive, points[0].Kind)
	assert.Equal(t, survey.PointNegative, points[1].Kind)

	activity, err := repo.CountActivity(ctx, org.ID, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, survey.Activity{Responses: 1, Respondents: 1}, activity)

	activity, err = repo.CountActivity(ctx, org.ID+1, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, activity.Responses)
}
