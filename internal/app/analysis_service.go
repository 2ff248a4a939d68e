package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"feedback_survey_bot/internal/domain/organization"
	"feedback_survey_bot/internal/domain/survey"
	domainTelegram "feedback_survey_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

const reportTopN = 10

// PointCount is one distinct point and how often it was mentioned.
type PointCount struct {
	Text  string
	Count int
}

// Report aggregates the points an organization collected over a window.
type Report struct {
	OrganizationID   int64
	OrganizationName string
	Since            time.Time
	Until            time.Time
	Activity         survey.Activity
	Positive         []PointCount
	Negative         []PointCount
}

// Text renders the report for a chat message.
func (r *Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Feedback report for %s\n", r.OrganizationName)
	fmt.Fprintf(&b, "Period: %s - %s\n", r.Since.Format("2006-01-02"), r.Until.Format("2006-01-02"))
	fmt.Fprintf(&b, "Responses: %d from %d employees\n", r.Activity.Responses, r.Activity.Respondents)

	writeSection := func(title string, items []PointCount) {
		fmt.Fprintf(&b, "\n%s\n", title)
		if len(items) == 0 {
			b.WriteString("none\n")
			return
		}
		for i, pc := range items {
			fmt.Fprintf(&b, "%d. %s (%d)\n", i+1, pc.Text, pc.Count)
		}
	}
	writeSection("Pros:", r.Positive)
	writeSection("Cons:", r.Negative)
	return b.String()
}

// Analyzer produces the periodic report for an organization.
type Analyzer interface {
	Analyze(ctx context.Context, organizationID int64, lookback time.Duration) (*Report, error)
}

type AnalysisService struct {
	orgRepo           organization.Repository
	surveyRepo        survey.Repository
	telegramClient    domainTelegram.Client
	managerTelegramID int64
	now               func() time.Time
	logger            *logrus.Entry
}

func NewAnalysisService(
	or organization.Repository,
	sr survey.Repository,
	tc domainTelegram.Client,
	managerID int64,
	logger *logrus.Entry,
) *AnalysisService {
	return &AnalysisService{
		orgRepo:           or,
		surveyRepo:        sr,
		telegramClient:    tc,
		managerTelegramID: managerID,
		now:               time.Now,
		logger:            logger,
	}
}

// Analyze aggregates the points of the last lookback period and, when a
// manager is configured, delivers the report to them.
func (s *AnalysisService) Analyze(ctx context.Context, organizationID int64, lookback time.Duration) (*Report, error) {
	log := s.logger.WithFields(logrus.Fields{"organization_id": organizationID, "job": "analysis"})

	org, err := s.orgRepo.GetByID(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization %d: %w", organizationID, err)
	}

	until := s.now()
	since := until.Add(-lookback)

	points, err := s.surveyRepo.ListPointsForOrganization(ctx, organizationID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list points: %w", err)
	}
	activity, err := s.surveyRepo.CountActivity(ctx, organizationID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count activity: %w", err)
	}

	var positive, negative []*survey.Point
	for _, p := range points {
		if p.Kind == survey.PointPositive {
			positive = append(positive, p)
		} else {
			negative = append(negative, p)
		}
	}

	report := &Report{
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		Since:            since,
		Until:            until,
		Activity:         activity,
		Positive:         rankPoints(positive, reportTopN),
		Negative:         rankPoints(negative, reportTopN),
	}
	log.WithFields(logrus.Fields{
		"responses": activity.Responses,
		"positive":  len(positive),
		"negative":  len(negative),
	}).Info("Analysis completed")

	if s.managerTelegramID != 0 {
		if err := s.telegramClient.SendMessage(s.managerTelegramID, report.Text()); err != nil {
			log.WithError(err).Error("Failed to deliver report to manager")
		}
	} else {
		log.Debug("Manager Telegram ID not configured, report only logged")
	}
	return report, nil
}

func normalizePoint(text string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(text)), ".!;")
}

// rankPoints groups points with the same normalized text and returns the
// top n by count, ties broken alphabetically.
func rankPoints(points []*survey.Point, n int) []PointCount {
	index := make(map[string]int)
	counts := make([]PointCount, 0)
	for _, p := range points {
		key := normalizePoint(p.Text)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			counts[i].Count++
			continue
		}
		index[key] = len(counts)
		counts = append(counts, PointCount{Text: strings.TrimSpace(p.Text), Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return strings.ToLower(counts[i].Text) < strings.ToLower(counts[j].Text)
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
