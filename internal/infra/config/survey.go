package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"feedback_survey_bot/internal/domain/organization"
	"feedback_survey_bot/internal/domain/survey"

	"gopkg.in/yaml.v3"
)

const defaultSystemPrompt = `You are an analytical assistant that reviews employee feedback about working at the company.
Extract and standardize the positive and negative aspects of the given answer.
Reply strictly in this format:
Pros:
1.
2.
Cons:
1.
2.
Rules:
- List only positive aspects of working at the company under "Pros:".
- List only aspects that could be improved under "Cons:".
- Standardize wording so similar points read the same ("flexible schedule" and "flexible hours" become one phrasing).
- Keep each point short and clear.
- Use a numbered list.
- Avoid personal judgements.`

// ScheduleConfig is the YAML shape of an organization schedule.
type ScheduleConfig struct {
	DayOfWeek *int   `yaml:"day_of_week"`
	Hour      *int   `yaml:"hour"`
	Minute    *int   `yaml:"minute"`
	Frequency string `yaml:"frequency"`
}

type OrganizationConfig struct {
	Name           string         `yaml:"name"`
	Activity       string         `yaml:"activity"`
	Emails         []string       `yaml:"emails"`
	SurveySchedule ScheduleConfig `yaml:"survey_schedule"`
	ReportSchedule ScheduleConfig `yaml:"report_schedule"`
}

type NoticesConfig struct {
	Greeting           string `yaml:"greeting"`
	NotRegistered      string `yaml:"not_registered"`
	AlreadyRegistered  string `yaml:"already_registered"`
	Registered         string `yaml:"registered"`
	NoQuestionsPending string `yaml:"no_questions_pending"`
	ProcessingFailed   string `yaml:"processing_failed"`
	Help               string `yaml:"help"`
}

type ClassifierConfig struct {
	SystemPrompt   string   `yaml:"system_prompt"`
	PositiveMarker string   `yaml:"positive_marker"`
	NegativeMarker string   `yaml:"negative_marker"`
	MaxTokens      int      `yaml:"max_tokens"`
	Temperature    *float32 `yaml:"temperature"`
}

type LateAnswersConfig struct {
	RecordAfterComplete *bool `yaml:"record_after_complete"`
	RecordStale         *bool `yaml:"record_stale"`
}

// SurveyConfig is the survey definition file: questions, texts, the
// organization and its schedules.
type SurveyConfig struct {
	Messages     []string           `yaml:"messages"`
	FinalMessage string             `yaml:"final_message"`
	Notices      NoticesConfig      `yaml:"notices"`
	Organization OrganizationConfig `yaml:"organization"`
	Classifier   ClassifierConfig   `yaml:"classifier"`
	LateAnswers  LateAnswersConfig  `yaml:"late_answers"`
}

// LoadSurvey reads and validates the survey definition at path.
func LoadSurvey(path string) (*SurveyConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read survey config: %w", err)
	}
	return ParseSurvey(b)
}

func ParseSurvey(b []byte) (*SurveyConfig, error) {
	var cfg SurveyConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse survey config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *SurveyConfig) applyDefaults() {
	if c.FinalMessage == "" {
		c.FinalMessage = "No more questions for now. Thank you for participating in the survey!"
	}
	n := &c.Notices
	setDefault(&n.Greeting, "Hi! I am the feedback bot. I will ask you a few questions about your work from time to time.")
	setDefault(&n.NotRegistered, "You are not registered yet.\nPlease register with the command:\n/register")
	setDefault(&n.AlreadyRegistered, "You are already registered. Thank you for using the bot!")
	setDefault(&n.Registered, "You have been registered in the company. Thank you!")
	setDefault(&n.NoQuestionsPending, "Sorry, I have no questions for you right now. I will come back with the next one.")
	setDefault(&n.ProcessingFailed, "Something went wrong while processing your answer. Please try again later.")
	setDefault(&n.Help, "Answer my questions with a free-text message.\n\n/register - join the survey\n/help - show this message")

	cl := &c.Classifier
	setDefault(&cl.SystemPrompt, defaultSystemPrompt)
	setDefault(&cl.PositiveMarker, survey.DefaultMarkers.Positive)
	setDefault(&cl.NegativeMarker, survey.DefaultMarkers.Negative)
	if cl.MaxTokens == 0 {
		cl.MaxTokens = 500
	}
	if cl.Temperature == nil {
		defaultTemperature := float32(0.5)
		cl.Temperature = &defaultTemperature
	}
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

func (c *SurveyConfig) validate() error {
	if _, err := c.Questionnaire(); err != nil {
		return fmt.Errorf("invalid survey messages: %w", err)
	}
	if c.Organization.Name == "" {
		return errors.New("organization.name is required")
	}
	if _, err := c.Organization.SurveySchedule.Schedule(1, 9, 0); err != nil {
		return fmt.Errorf("organization.survey_schedule: %w", err)
	}
	if _, err := c.Organization.ReportSchedule.Schedule(2, 17, 0); err != nil {
		return fmt.Errorf("organization.report_schedule: %w", err)
	}
	if c.Classifier.MaxTokens < 0 {
		return errors.New("classifier.max_tokens must be positive")
	}
	if t := *c.Classifier.Temperature; t < 0 || t > 2 {
		return errors.New("classifier.temperature must be within 0-2")
	}
	return nil
}

// Questionnaire builds the survey state machine from the configured texts.
func (c *SurveyConfig) Questionnaire() (*survey.Questionnaire, error) {
	policy := survey.DefaultLateAnswerPolicy
	if c.LateAnswers.RecordAfterComplete != nil {
		policy.RecordAfterComplete = *c.LateAnswers.RecordAfterComplete
	}
	if c.LateAnswers.RecordStale != nil {
		policy.RecordStale = *c.LateAnswers.RecordStale
	}
	return survey.NewQuestionnaire(c.Messages, c.FinalMessage, policy)
}

func (c *SurveyConfig) Markers() survey.Markers {
	return survey.Markers{Positive: c.Classifier.PositiveMarker, Negative: c.Classifier.NegativeMarker}
}

// Schedule converts the YAML schedule, filling unset fields from the defaults.
func (s ScheduleConfig) Schedule(defaultDay, defaultHour, defaultMinute int) (organization.Schedule, error) {
	sch := organization.Schedule{DayOfWeek: defaultDay, Hour: defaultHour, Minute: defaultMinute}
	if s.DayOfWeek != nil {
		sch.DayOfWeek = *s.DayOfWeek
	}
	if s.Hour != nil {
		sch.Hour = *s.Hour
	}
	if s.Minute != nil {
		sch.Minute = *s.Minute
	}
	freq, err := organization.ParseFrequency(s.Frequency)
	if err != nil {
		return organization.Schedule{}, err
	}
	sch.Frequency = freq
	if err := sch.Validate(); err != nil {
		return organization.Schedule{}, err
	}
	return sch, nil
}

// OrganizationModel turns the organization section into a domain value.
func (c *SurveyConfig) OrganizationModel() (*organization.Organization, error) {
	surveySchedule, err := c.Organization.SurveySchedule.Schedule(1, 9, 0)
	if err != nil {
		return nil, err
	}
	reportSchedule, err := c.Organization.ReportSchedule.Schedule(2, 17, 0)
	if err != nil {
		return nil, err
	}
	return &organization.Organization{
		Name:           c.Organization.Name,
		Activity:       c.Organization.Activity,
		Emails:         append([]string(nil), c.Organization.Emails...),
		SurveySchedule: surveySchedule,
		ReportSchedule: reportSchedule,
	}, nil
}
