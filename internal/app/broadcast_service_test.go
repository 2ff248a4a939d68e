package app

import (
	"context"
	"testing"

	"feedback_survey_bot/internal/domain/organization"
	"feedback_survey_bot/internal/domain/survey"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func (f *fixture) broadcaster() *BroadcastService {
	return NewBroadcastService(f.store.Organizations(), f.store.Employees(), f.store.Surveys(), f.q, f.telegram, rate.NewLimiter(rate.Inf, 1), testLogger())
}

func TestBroadcastService_ResetsAndSendsFirstQuestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.addEmployee(t, 100, f.org.ID)
	require.NoError(t, recordPrompt(ctx, f.store.Surveys(), e.ID, survey.Prompt{
		Text:  testFinal,
		State: survey.State{Status: survey.StatusSurveyComplete, QuestionIndex: len(testQuestions)},
	}))

	summary, err := f.broadcaster().BroadcastSurvey(ctx, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, BroadcastSummary{Employees: 1, Sent: 1}, summary)

	assert.Equal(t, []string{testQuestions[0]}, f.botMessageTexts(t, e.ID))
	assert.Equal(t, []string{testQuestions[0]}, f.telegram.textsTo(100))

	st, err := f.store.Surveys().GetState(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, survey.StatusQuestionOutstanding, st.Status)
	assert.Equal(t, testQuestions[0], st.QuestionText)
}

func TestBroadcastService_FailureIsolatedAcrossEmployeesAndOrganizations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := &organization.Organization{
		Name:           "Globex",
		SurveySchedule: organization.Schedule{DayOfWeek: 1, Hour: 9},
		ReportSchedule: organization.Schedule{DayOfWeek: 2, Hour: 17},
	}
	require.NoError(t, f.store.Organizations().Create(ctx, other))

	a1 := f.addEmployee(t, 1, f.org.ID)
	a2 := f.addEmployee(t, 2, f.org.ID)
	a3 := f.addEmployee(t, 3, f.org.ID)
	b1 := f.addEmployee(t, 4, other.ID)
	f.telegram.failFor[2] = true

	b := f.broadcaster()
	summaryA, err := b.BroadcastSurvey(ctx, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, BroadcastSummary{Employees: 3, Sent: 2, Failed: 1}, summaryA)

	summaryB, err := b.BroadcastSurvey(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, BroadcastSummary{Employees: 1, Sent: 1}, summaryB)

	assert.Equal(t, []string{testQuestions[0]}, f.telegram.textsTo(1))
	assert.Empty(t, f.telegram.textsTo(2))
	assert.Equal(t, []string{testQuestions[0]}, f.telegram.textsTo(3))
	assert.Equal(t, []string{testQuestions[0]}, f.telegram.textsTo(4))

	for _, e := range []int64{a1.ID, a3.ID, b1.ID} {
		assert.Equal(t, []string{testQuestions[0]}, f.botMessageTexts(t, e))
	}
	// Nothing is recorded for a question that never reached the employee.
	assert.Empty(t, f.botMessageTexts(t, a2.ID))
	st, err := f.store.Surveys().GetState(ctx, a2.ID)
	require.NoError(t, err)
	assert.Equal(t, survey.StatusAwaitingFirstQuestion, st.Status)
}

func TestBroadcastService_FailedDeliveryDoesNotAdvanceSurvey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.addEmployee(t, 7, f.org.ID)
	f.telegram.failFor[7] = true

	summary, err := f.broadcaster().BroadcastSurvey(ctx, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, f.botMessageTexts(t, e.ID))

	// The chat recovers and the employee writes before the next broadcast.
	f.telegram.failFor[7] = false
	require.NoError(t, f.conv.HandleText(ctx, 7, "hello"))

	assert.Equal(t, []string{testNotices.NoQuestionsPending}, f.telegram.textsTo(7))
	assert.Empty(t, f.botMessageTexts(t, e.ID))
}

func TestBroadcastService_UnknownOrganization(t *testing.T) {
	f := newFixture(t)
	_, err := f.broadcaster().BroadcastSurvey(context.Background(), 9999)
	assert.Error(t, err)
}

func TestBroadcastService_CancelledContextStops(t *testing.T) {
	f := newFixture(t)
	f.addEmployee(t, 1, f.org.ID)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBroadcastService(f.store.Organizations(), f.store.Employees(), f.store.Surveys(), f.q, f.telegram, rate.NewLimiter(1, 1), testLogger())
	_, err := b.BroadcastSurvey(ctx, f.org.ID)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.telegram.textsTo(1))
}
