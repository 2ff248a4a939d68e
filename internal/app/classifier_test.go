package app

import (
	"context"
	"testing"

	"feedback_survey_bot/internal/domain/survey"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseClassifier_Classify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.addEmployee(t, 1, f.org.ID)
	resp := &survey.Response{EmployeeID: e.ID, Question: "Q?", Text: "Nice team but low pay"}
	require.NoError(t, f.store.Surveys().CreateResponse(ctx, resp))

	classifier := NewResponseClassifier(f.completion, f.store.Surveys(), ClassifierSettings{
		SystemPrompt: "system",
		Markers:      survey.DefaultMarkers,
		MaxTokens:    200,
		Temperature:  0.2,
	}, testLogger())

	points, err := classifier.Classify(ctx, resp)
	require.NoError(t, err)
	assert.Equal(t, []string{"Friendly team"}, points.Positive)
	assert.Equal(t, []string{"Low salary"}, points.Negative)

	require.Len(t, f.completion.requests, 1)
	req := f.completion.requests[0]
	assert.Equal(t, "system", req.System)
	assert.Equal(t, 200, req.MaxTokens)
	assert.InDelta(t, 0.2, req.Temperature, 0.0001)
}

func TestResponseClassifier_MalformedCompletionStoresNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.completion.reply = "Pros:\n1. ok\xff\xfe"
	e := f.addEmployee(t, 1, f.org.ID)
	resp := &survey.Response{EmployeeID: e.ID, Question: "Q?", Text: "text"}
	require.NoError(t, f.store.Surveys().CreateResponse(ctx, resp))

	classifier := NewResponseClassifier(f.completion, f.store.Surveys(), ClassifierSettings{Markers: survey.DefaultMarkers}, testLogger())
	points, err := classifier.Classify(ctx, resp)
	require.NoError(t, err)
	assert.True(t, points.Empty())

	stored, err := f.store.Surveys().ListPointsByResponse(ctx, resp.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
