package app

import (
	"context"
	"fmt"
	"time"

	"feedback_survey_bot/internal/domain/employee"
	"feedback_survey_bot/internal/domain/organization"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrInvalidLookback = fmt.Errorf("lookback must be positive")

type AdminService struct {
	orgRepo         organization.Repository
	employeeRepo    employee.Repository
	broadcaster     Broadcaster
	analyzer        Analyzer
	adminTelegramID int64
}

func NewAdminService(or organization.Repository, er employee.Repository, b Broadcaster, a Analyzer, adminID int64) *AdminService {
	return &AdminService{
		orgRepo:         or,
		employeeRepo:    er,
		broadcaster:     b,
		analyzer:        a,
		adminTelegramID: adminID,
	}
}

func (s *AdminService) authorize(performingAdminID int64) error {
	if s.adminTelegramID == 0 || performingAdminID != s.adminTelegramID {
		return ErrAdminNotAuthorized
	}
	return nil
}

// ListEmployees returns the employees of the default organization.
func (s *AdminService) ListEmployees(ctx context.Context, performingAdminID int64) ([]*employee.Employee, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	org, err := s.orgRepo.GetFirst(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve default organization: %w", err)
	}
	employees, err := s.employeeRepo.ListByOrganization(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// TriggerBroadcast runs a survey broadcast for the default organization immediately.
func (s *AdminService) TriggerBroadcast(ctx context.Context, performingAdminID int64) (BroadcastSummary, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return BroadcastSummary{}, err
	}
	org, err := s.orgRepo.GetFirst(ctx)
	if err != nil {
		return BroadcastSummary{}, fmt.Errorf("failed to resolve default organization: %w", err)
	}
	return s.broadcaster.BroadcastSurvey(ctx, org.ID)
}

// TriggerAnalysis builds the report for the default organization immediately.
func (s *AdminService) TriggerAnalysis(ctx context.Context, performingAdminID int64, lookback time.Duration) (*Report, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	if lookback <= 0 {
		return nil, ErrInvalidLookback
	}
	org, err := s.orgRepo.GetFirst(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve default organization: %w", err)
	}
	return s.analyzer.Analyze(ctx, org.ID, lookback)
}
