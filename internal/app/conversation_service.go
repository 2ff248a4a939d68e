package app

import (
	"context"
	"errors"
	"fmt"

	"feedback_survey_bot/internal/domain/employee"
	"feedback_survey_bot/internal/domain/organization"
	"feedback_survey_bot/internal/domain/survey"
	domainTelegram "feedback_survey_bot/internal/domain/telegram"
	idb "feedback_survey_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// Notices are the fixed user-facing texts of the conversation.
type Notices struct {
	NotRegistered      string
	AlreadyRegistered  string
	Registered         string
	NoQuestionsPending string
	ProcessingFailed   string
}

// ConversationService handles employee registration and free-text answers.
type ConversationService struct {
	employeeRepo   employee.Repository
	orgRepo        organization.Repository
	surveyRepo     survey.Repository
	questionnaire  *survey.Questionnaire
	classifier     Classifier
	telegramClient domainTelegram.Client
	notices        Notices
	logger         *logrus.Entry
}

func NewConversationService(
	er employee.Repository,
	or organization.Repository,
	sr survey.Repository,
	q *survey.Questionnaire,
	classifier Classifier,
	tc domainTelegram.Client,
	notices Notices,
	logger *logrus.Entry,
) *ConversationService {
	return &ConversationService{
		employeeRepo:   er,
		orgRepo:        or,
		surveyRepo:     sr,
		questionnaire:  q,
		classifier:     classifier,
		telegramClient: tc,
		notices:        notices,
		logger:         logger,
	}
}

// Register enrolls the sender in the default organization and sends the
// first question. A known sender only gets a notice; their history is untouched.
func (s *ConversationService) Register(ctx context.Context, telegramID int64, name string) error {
	log := s.logger.WithFields(logrus.Fields{"telegram_id": telegramID, "operation": "register"})

	existing, err := s.employeeRepo.GetByTelegramID(ctx, telegramID)
	if err == nil {
		log.WithField("employee_id", existing.ID).Info("Employee tried to register again")
		return s.telegramClient.SendMessage(telegramID, s.notices.AlreadyRegistered)
	}
	if !errors.Is(err, idb.ErrEmployeeNotFound) {
		return fmt.Errorf("failed to check existing employee: %w", err)
	}

	org, err := s.orgRepo.GetFirst(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve default organization: %w", err)
	}

	newEmployee := &employee.Employee{
		TelegramID:     telegramID,
		Name:           name,
		OrganizationID: org.ID,
	}
	if err := s.employeeRepo.Create(ctx, newEmployee); err != nil {
		if errors.Is(err, idb.ErrDuplicateTelegramID) { // lost a race with a concurrent registration
			log.Info("Employee registered concurrently, treating as duplicate")
			return s.telegramClient.SendMessage(telegramID, s.notices.AlreadyRegistered)
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}
	log = log.WithFields(logrus.Fields{"employee_id": newEmployee.ID, "organization_id": org.ID})
	log.Info("New employee registered")

	if err := s.telegramClient.SendMessage(telegramID, s.notices.Registered); err != nil {
		log.WithError(err).Warn("Failed to send registration confirmation")
	}

	if err := s.surveyRepo.ResetConversation(ctx, newEmployee.ID); err != nil {
		return fmt.Errorf("failed to reset conversation of employee %d: %w", newEmployee.ID, err)
	}
	return s.sendPrompt(ctx, log, newEmployee, s.questionnaire.First())
}

// sendPrompt delivers the prompt and records it only once it was sent, so a
// BotMessage always names a question the employee actually received.
func (s *ConversationService) sendPrompt(ctx context.Context, log *logrus.Entry, e *employee.Employee, p survey.Prompt) error {
	if err := s.telegramClient.SendMessage(e.TelegramID, p.Text); err != nil {
		return fmt.Errorf("failed to send question to employee %d: %w", e.ID, err)
	}
	if err := recordPrompt(ctx, s.surveyRepo, e.ID, p); err != nil {
		return err
	}
	log.WithField("question_index", p.State.QuestionIndex).Info("Survey message sent")
	return nil
}

func recordPrompt(ctx context.Context, repo survey.Repository, employeeID int64, p survey.Prompt) error {
	p.State.EmployeeID = employeeID
	msg := &survey.BotMessage{EmployeeID: employeeID, Text: p.Text}
	if err := repo.RecordBotMessage(ctx, msg, p.State); err != nil {
		return fmt.Errorf("failed to record bot message for employee %d: %w", employeeID, err)
	}
	return nil
}

// HandleText processes one free-text message. The answer is stored and the
// next question recorded before classification runs, so a classification
// failure never loses the answer or stalls the survey.
func (s *ConversationService) HandleText(ctx context.Context, telegramID int64, text string) error {
	log := s.logger.WithFields(logrus.Fields{"telegram_id": telegramID, "operation": "answer"})

	e, err := s.employeeRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, idb.ErrEmployeeNotFound) {
			log.Info("Message from unregistered user")
			return s.telegramClient.SendMessage(telegramID, s.notices.NotRegistered)
		}
		return fmt.Errorf("failed to look up employee: %w", err)
	}
	log = log.WithField("employee_id", e.ID)

	state, err := s.surveyRepo.GetState(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("failed to load survey state: %w", err)
	}
	tr := s.questionnaire.Decide(*state)
	log = log.WithField("phase", tr.Phase)

	var resp *survey.Response
	if tr.Record {
		resp = &survey.Response{EmployeeID: e.ID, Question: tr.Question, Text: text}
		if err := s.surveyRepo.CreateResponse(ctx, resp); err != nil {
			return fmt.Errorf("failed to save response: %w", err)
		}
		log.WithField("response_id", resp.ID).Info("Response saved")
	} else {
		log.Info("Answer acknowledged without recording")
	}

	if tr.Next != nil {
		if err := recordPrompt(ctx, s.surveyRepo, e.ID, *tr.Next); err != nil {
			return err
		}
	}

	if resp != nil {
		if _, err := s.classifier.Classify(ctx, resp); err != nil {
			log.WithError(err).WithField("response_id", resp.ID).Error("Failed to classify response")
			if sendErr := s.telegramClient.SendMessage(telegramID, s.notices.ProcessingFailed); sendErr != nil {
				log.WithError(sendErr).Warn("Failed to send processing failure notice")
			}
		}
	}

	if tr.Next == nil {
		return s.telegramClient.SendMessage(telegramID, s.notices.NoQuestionsPending)
	}
	if err := s.telegramClient.SendMessage(telegramID, tr.Next.Text); err != nil {
		return fmt.Errorf("failed to send next question: %w", err)
	}
	log.WithField("question_index", tr.Next.State.QuestionIndex).Info("Next survey message sent")
	return nil
}
