package app

import (
	"context"
	"errors"
	"fmt"

	"feedback_survey_bot/internal/domain/completion"
	"feedback_survey_bot/internal/domain/survey"

	"github.com/sirupsen/logrus"
)

const classificationPromptFormat = "Split the following text into positive and negative points. " +
	"Present them as a list of pros and cons:\n\n" +
	"Question: %s\n" +
	"Answer: %s"

// ClassifierSettings is the frozen instruction and decoding setup for classification.
type ClassifierSettings struct {
	SystemPrompt string
	Markers      survey.Markers
	MaxTokens    int
	Temperature  float32
}

// Classifier turns a stored response into persisted discussion points.
type Classifier interface {
	Classify(ctx context.Context, resp *survey.Response) (survey.Points, error)
}

type ResponseClassifier struct {
	client     completion.Client
	surveyRepo survey.Repository
	settings   ClassifierSettings
	logger     *logrus.Entry
}

func NewResponseClassifier(client completion.Client, sr survey.Repository, settings ClassifierSettings, logger *logrus.Entry) *ResponseClassifier {
	return &ResponseClassifier{
		client:     client,
		surveyRepo: sr,
		settings:   settings,
		logger:     logger,
	}
}

// Classify asks the completion service for pros and cons of resp and stores them.
// An unparseable completion is logged and yields no points without an error;
// service and storage failures are returned.
func (c *ResponseClassifier) Classify(ctx context.Context, resp *survey.Response) (survey.Points, error) {
	log := c.logger.WithFields(logrus.Fields{
		"response_id": resp.ID,
		"employee_id": resp.EmployeeID,
	})

	text, err := c.client.Complete(ctx, completion.Request{
		System:      c.settings.SystemPrompt,
		User:        fmt.Sprintf(classificationPromptFormat, resp.Question, resp.Text),
		MaxTokens:   c.settings.MaxTokens,
		Temperature: c.settings.Temperature,
	})
	if err != nil {
		return survey.Points{}, fmt.Errorf("completion request failed: %w", err)
	}
	log.WithField("completion", text).Debug("Completion received")

	points, err := survey.ExtractPoints(text, c.settings.Markers)
	if err != nil {
		if errors.Is(err, survey.ErrMalformedCompletion) {
			log.WithError(err).Warn("Completion could not be parsed, no points stored")
			return survey.Points{}, nil
		}
		return survey.Points{}, err
	}

	if err := c.surveyRepo.SavePoints(ctx, resp.ID, points); err != nil {
		return survey.Points{}, fmt.Errorf("failed to save points for response %d: %w", resp.ID, err)
	}

	log.WithFields(logrus.Fields{
		"positive": len(points.Positive),
		"negative": len(points.Negative),
	}).Info("Response classified")
	return points, nil
}
