package app

import (
	"context"
	"errors"
	"fmt"

	"feedback_survey_bot/internal/domain/organization"
	idb "feedback_survey_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

type OrganizationService struct {
	orgRepo organization.Repository
	logger  *logrus.Entry
}

func NewOrganizationService(or organization.Repository, logger *logrus.Entry) *OrganizationService {
	return &OrganizationService{orgRepo: or, logger: logger}
}

// Sync writes the configured organization over the stored default one so
// schedule and email changes in the config take effect on restart. On an
// empty store the organization is created.
func (s *OrganizationService) Sync(ctx context.Context, org *organization.Organization) (*organization.Organization, error) {
	if err := org.SurveySchedule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid survey schedule: %w", err)
	}
	if err := org.ReportSchedule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report schedule: %w", err)
	}
	created := false
	if org.ID == 0 {
		existing, err := s.orgRepo.GetFirst(ctx)
		switch {
		case errors.Is(err, idb.ErrOrganizationNotFound):
			if err := s.orgRepo.Create(ctx, org); err != nil {
				return nil, fmt.Errorf("failed to create organization: %w", err)
			}
			created = true
			s.logger.WithField("organization_id", org.ID).Info("Default organization created")
		case err != nil:
			return nil, fmt.Errorf("failed to look up default organization: %w", err)
		default:
			org.ID = existing.ID
		}
	}
	if !created {
		if err := s.orgRepo.Upsert(ctx, org); err != nil {
			return nil, fmt.Errorf("failed to store organization: %w", err)
		}
	}
	s.logger.WithFields(logrus.Fields{
		"organization_id": org.ID,
		"name":            org.Name,
		"survey_schedule": org.SurveySchedule.String(),
		"report_schedule": org.ReportSchedule.String(),
		"emails":          len(org.Emails),
	}).Info("Organization synchronized from config")
	return org, nil
}
