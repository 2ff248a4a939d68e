package app

import (
	"context"
	"fmt"

	"feedback_survey_bot/internal/domain/employee"
	"feedback_survey_bot/internal/domain/organization"
	"feedback_survey_bot/internal/domain/survey"
	domainTelegram "feedback_survey_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// BroadcastSummary counts the outcome of one survey broadcast.
type BroadcastSummary struct {
	Employees int
	Sent      int
	Failed    int
}

// Broadcaster starts a new survey cycle for an organization.
type Broadcaster interface {
	BroadcastSurvey(ctx context.Context, organizationID int64) (BroadcastSummary, error)
}

type BroadcastService struct {
	orgRepo        organization.Repository
	employeeRepo   employee.Repository
	surveyRepo     survey.Repository
	questionnaire  *survey.Questionnaire
	telegramClient domainTelegram.Client
	limiter        *rate.Limiter
	logger         *logrus.Entry
}

func NewBroadcastService(
	or organization.Repository,
	er employee.Repository,
	sr survey.Repository,
	q *survey.Questionnaire,
	tc domainTelegram.Client,
	limiter *rate.Limiter,
	logger *logrus.Entry,
) *BroadcastService {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &BroadcastService{
		orgRepo:        or,
		employeeRepo:   er,
		surveyRepo:     sr,
		questionnaire:  q,
		telegramClient: tc,
		limiter:        limiter,
		logger:         logger,
	}
}

// BroadcastSurvey resets every employee of the organization, sends the first
// question and records it after a successful send. A failure for one
// employee is logged and skipped.
func (s *BroadcastService) BroadcastSurvey(ctx context.Context, organizationID int64) (BroadcastSummary, error) {
	log := s.logger.WithFields(logrus.Fields{"organization_id": organizationID, "job": "survey_broadcast"})
	log.Info("Starting survey broadcast")

	var summary BroadcastSummary
	if _, err := s.orgRepo.GetByID(ctx, organizationID); err != nil {
		return summary, fmt.Errorf("failed to load organization %d: %w", organizationID, err)
	}

	employees, err := s.employeeRepo.ListByOrganization(ctx, organizationID)
	if err != nil {
		return summary, fmt.Errorf("failed to list employees: %w", err)
	}
	summary.Employees = len(employees)
	if len(employees) == 0 {
		log.Info("No employees registered, nothing to send")
		return summary, nil
	}

	first := s.questionnaire.First()
	for _, e := range employees {
		if err := s.limiter.Wait(ctx); err != nil {
			return summary, fmt.Errorf("broadcast interrupted: %w", err)
		}

		empLog := log.WithFields(logrus.Fields{"employee_id": e.ID, "telegram_id": e.TelegramID})
		if err := s.startSurveyFor(ctx, e, first); err != nil {
			summary.Failed++
			empLog.WithError(err).Error("Failed to deliver survey to employee")
			continue
		}
		summary.Sent++
		empLog.Info("Survey question sent")
	}

	log.WithFields(logrus.Fields{
		"employees": summary.Employees,
		"sent":      summary.Sent,
		"failed":    summary.Failed,
	}).Info("Survey broadcast finished")
	return summary, nil
}

func (s *BroadcastService) startSurveyFor(ctx context.Context, e *employee.Employee, first survey.Prompt) error {
	if err := s.surveyRepo.ResetConversation(ctx, e.ID); err != nil {
		return fmt.Errorf("failed to reset conversation: %w", err)
	}
	if err := s.telegramClient.SendMessage(e.TelegramID, first.Text); err != nil {
		return fmt.Errorf("failed to send first question: %w", err)
	}
	return recordPrompt(ctx, s.surveyRepo, e.ID, first)
}
