package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"feedback_survey_bot/internal/app"
	"feedback_survey_bot/internal/domain/organization"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	broadcastJobTimeout = 30 * time.Minute
	analysisJobTimeout  = 10 * time.Minute
)

// OrganizationScheduler registers a survey broadcast and an analysis job for
// every organization. A failing run of one organization never affects another.
type OrganizationScheduler struct {
	cronEngine  *cron.Cron
	orgRepo     organization.Repository
	broadcaster app.Broadcaster
	analyzer    app.Analyzer
	lookback    time.Duration
	location    *time.Location
	logger      *logrus.Entry
	now         func() time.Time

	mu      sync.Mutex
	entries []cron.EntryID
}

func NewOrganizationScheduler(
	or organization.Repository,
	broadcaster app.Broadcaster,
	analyzer app.Analyzer,
	lookback time.Duration,
	location *time.Location,
	logger *logrus.Entry,
) *OrganizationScheduler {
	if location == nil {
		location = time.Local
	}
	cronLogger := cron.PrintfLogger(logger)
	return &OrganizationScheduler{
		cronEngine: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger)),
		),
		orgRepo:     or,
		broadcaster: broadcaster,
		analyzer:    analyzer,
		lookback:    lookback,
		location:    location,
		logger:      logger,
		now:         time.Now,
	}
}

// Start registers the jobs of all stored organizations and starts the cron engine.
func (s *OrganizationScheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting organization scheduler...")
	if err := s.register(ctx); err != nil {
		return err
	}
	s.cronEngine.Start()
	s.logger.WithField("jobs", len(s.cronEngine.Entries())).Info("Organization scheduler started with jobs.")
	return nil
}

// Reload drops every registered job and registers the current organizations again.
func (s *OrganizationScheduler) Reload(ctx context.Context) error {
	s.logger.Info("Reloading organization schedules...")
	return s.register(ctx)
}

func (s *OrganizationScheduler) register(ctx context.Context) error {
	orgs, err := s.orgRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.entries {
		s.cronEngine.Remove(id)
	}
	s.entries = s.entries[:0]

	for _, org := range orgs {
		if err := s.addOrganizationJobs(org); err != nil {
			// A broken schedule disables only this organization.
			s.logger.WithError(err).WithField("organization_id", org.ID).Error("Could not schedule organization jobs")
		}
	}
	return nil
}

func (s *OrganizationScheduler) addOrganizationJobs(org *organization.Organization) error {
	orgID := org.ID
	surveySchedule := org.SurveySchedule
	reportSchedule := org.ReportSchedule

	surveyEntry, err := s.cronEngine.AddFunc(surveySchedule.CronSpec(), func() {
		if !surveySchedule.Due(s.now().In(s.location)) {
			s.logger.WithField("organization_id", orgID).Debug("Survey broadcast not due this period, skipping")
			return
		}
		s.runSurvey(orgID)
	})
	if err != nil {
		return fmt.Errorf("survey schedule %q: %w", surveySchedule.CronSpec(), err)
	}

	reportEntry, err := s.cronEngine.AddFunc(reportSchedule.CronSpec(), func() {
		if !reportSchedule.Due(s.now().In(s.location)) {
			s.logger.WithField("organization_id", orgID).Debug("Analysis not due this period, skipping")
			return
		}
		s.runAnalysis(orgID)
	})
	if err != nil {
		s.cronEngine.Remove(surveyEntry)
		return fmt.Errorf("report schedule %q: %w", reportSchedule.CronSpec(), err)
	}

	s.entries = append(s.entries, surveyEntry, reportEntry)
	s.logger.WithFields(logrus.Fields{
		"organization_id": orgID,
		"survey_schedule": surveySchedule.String(),
		"report_schedule": reportSchedule.String(),
	}).Info("Organization jobs scheduled")
	return nil
}

func (s *OrganizationScheduler) runSurvey(orgID int64) {
	log := s.logger.WithFields(logrus.Fields{"organization_id": orgID, "job": "survey_broadcast"})
	log.Info("Cron job triggered for survey broadcast.")
	ctx, cancel := context.WithTimeout(context.Background(), broadcastJobTimeout)
	defer cancel()
	if _, err := s.broadcaster.BroadcastSurvey(ctx, orgID); err != nil {
		log.WithError(err).Error("Error during survey broadcast")
	}
}

func (s *OrganizationScheduler) runAnalysis(orgID int64) {
	log := s.logger.WithFields(logrus.Fields{"organization_id": orgID, "job": "analysis"})
	log.Info("Cron job triggered for analysis.")
	ctx, cancel := context.WithTimeout(context.Background(), analysisJobTimeout)
	defer cancel()
	if _, err := s.analyzer.Analyze(ctx, orgID, s.lookback); err != nil {
		log.WithError(err).Error("Error during analysis")
	}
}

func (s *OrganizationScheduler) Stop() {
	s.logger.Info("Stopping organization scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Organization scheduler gracefully stopped.")
}
