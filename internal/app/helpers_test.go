package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"feedback_survey_bot/internal/domain/completion"
	"feedback_survey_bot/internal/domain/employee"
	"feedback_survey_bot/internal/domain/organization"
	"feedback_survey_bot/internal/domain/survey"
	"feedback_survey_bot/internal/infra/memory"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var (
	testQuestions = []string{"What do you like about your work?", "What would you change?", "How is your team?"}
	testFinal     = "Thank you, that is all for now."
	testNotices   = Notices{
		NotRegistered:      "not registered",
		AlreadyRegistered:  "already registered",
		Registered:         "registered",
		NoQuestionsPending: "no questions pending",
		ProcessingFailed:   "processing failed",
	}
)

type sentMessage struct {
	ChatID int64
	Text   string
}

// fakeTelegram records every message and fails for chats listed in failFor.
type fakeTelegram struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]bool
}

func newFakeTelegram() *fakeTelegram {
	return &fakeTelegram{failFor: make(map[int64]bool)}
}

func (f *fakeTelegram) SendMessage(chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[chatID] {
		return errors.New("chat unavailable")
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeTelegram) textsTo(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0)
	for _, m := range f.sent {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

// fakeCompletion returns reply, or err when set.
type fakeCompletion struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []completion.Request
}

func (f *fakeCompletion) Complete(_ context.Context, req completion.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fixture struct {
	store      *memory.Store
	org        *organization.Organization
	telegram   *fakeTelegram
	completion *fakeCompletion
	q          *survey.Questionnaire
	conv       *ConversationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	org := &organization.Organization{
		Name:           "Acme",
		SurveySchedule: organization.Schedule{DayOfWeek: 1, Hour: 9},
		ReportSchedule: organization.Schedule{DayOfWeek: 2, Hour: 17},
	}
	require.NoError(t, store.Organizations().Upsert(ctx, org))

	q, err := survey.NewQuestionnaire(testQuestions, testFinal, survey.DefaultLateAnswerPolicy)
	require.NoError(t, err)

	tg := newFakeTelegram()
	cc := &fakeCompletion{reply: "Pros:\n1. Friendly team\nCons:\n1. Low salary"}
	classifier := NewResponseClassifier(cc, store.Surveys(), ClassifierSettings{
		SystemPrompt: "system",
		Markers:      survey.DefaultMarkers,
		MaxTokens:    500,
		Temperature:  0.5,
	}, testLogger())
	conv := NewConversationService(store.Employees(), store.Organizations(), store.Surveys(), q, classifier, tg, testNotices, testLogger())

	return &fixture{store: store, org: org, telegram: tg, completion: cc, q: q, conv: conv}
}

// addEmployee creates an employee without sending anything.
func (f *fixture) addEmployee(t *testing.T, telegramID int64, orgID int64) *employee.Employee {
	t.Helper()
	e := &employee.Employee{TelegramID: telegramID, Name: "Employee", OrganizationID: orgID}
	require.NoError(t, f.store.Employees().Create(context.Background(), e))
	return e
}

func (f *fixture) botMessageTexts(t *testing.T, employeeID int64) []string {
	t.Helper()
	msgs, err := f.store.Surveys().ListBotMessages(context.Background(), employeeID)
	require.NoError(t, err)
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}
