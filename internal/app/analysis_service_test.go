package app

import (
	"context"
	"testing"
	"time"

	"feedback_survey_bot/internal/domain/survey"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const managerID = 9000

func (f *fixture) seedAnswer(t *testing.T, employeeID int64, createdAt time.Time, points survey.Points) {
	t.Helper()
	ctx := context.Background()
	f.store.SetClock(func() time.Time { return createdAt })
	resp := &survey.Response{EmployeeID: employeeID, Question: testQuestions[0], Text: "answer"}
	require.NoError(t, f.store.Surveys().CreateResponse(ctx, resp))
	require.NoError(t, f.store.Surveys().SavePoints(ctx, resp.ID, points))
}

func TestAnalysisService_Analyze(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2024, 3, 12, 17, 0, 0, 0, time.UTC)
	e1 := f.addEmployee(t, 1, f.org.ID)
	e2 := f.addEmployee(t, 2, f.org.ID)

	f.seedAnswer(t, e1.ID, now.Add(-48*time.Hour), survey.Points{
		Positive: []string{"Friendly team", "Flexible schedule"},
		Negative: []string{"Low salary"},
	})
	f.seedAnswer(t, e2.ID, now.Add(-24*time.Hour), survey.Points{
		Positive: []string{"friendly team."},
		Negative: []string{},
	})
	// Outside the window.
	f.seedAnswer(t, e2.ID, now.Add(-30*24*time.Hour), survey.Points{
		Positive: []string{"Old news"},
		Negative: []string{"Old complaint"},
	})

	svc := NewAnalysisService(f.store.Organizations(), f.store.Surveys(), f.telegram, managerID, testLogger())
	svc.now = func() time.Time { return now }

	report, err := svc.Analyze(context.Background(), f.org.ID, 7*24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "Acme", report.OrganizationName)
	assert.Equal(t, survey.Activity{Responses: 2, Respondents: 2}, report.Activity)
	assert.Equal(t, []PointCount{{Text: "Friendly team", Count: 2}, {Text: "Flexible schedule", Count: 1}}, report.Positive)
	assert.Equal(t, []PointCount{{Text: "Low salary", Count: 1}}, report.Negative)

	delivered := f.telegram.textsTo(managerID)
	require.Len(t, delivered, 1)
	assert.Contains(t, delivered[0], "1. Friendly team (2)")
	assert.Contains(t, delivered[0], "Responses: 2 from 2 employees")
	assert.NotContains(t, delivered[0], "Old news")
}

func TestAnalysisService_NoManagerOnlyLogs(t *testing.T) {
	f := newFixture(t)
	svc := NewAnalysisService(f.store.Organizations(), f.store.Surveys(), f.telegram, 0, testLogger())

	report, err := svc.Analyze(context.Background(), f.org.ID, 24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, report.Positive)
	assert.Empty(t, report.Negative)
	assert.Contains(t, report.Text(), "none")
	assert.Empty(t, f.telegram.sent)
}

func TestRankPoints_TopN(t *testing.T) {
	var points []*survey.Point
	for i, text := range []string{"a", "b", "b", "c", "c", "c"} {
		points = append(points, &survey.Point{ID: int64(i), Kind: survey.PointPositive, Text: text})
	}
	assert.Equal(t, []PointCount{{Text: "c", Count: 3}, {Text: "b", Count: 2}}, rankPoints(points, 2))
}
