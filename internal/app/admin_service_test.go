package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminID = 1

func (f *fixture) adminService() *AdminService {
	analyzer := NewAnalysisService(f.store.Organizations(), f.store.Surveys(), f.telegram, 0, testLogger())
	return NewAdminService(f.store.Organizations(), f.store.Employees(), f.broadcaster(), analyzer, adminID)
}

func TestAdminService_RejectsNonAdmin(t *testing.T) {
	f := newFixture(t)
	s := f.adminService()
	ctx := context.Background()

	_, err := s.ListEmployees(ctx, 2)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = s.TriggerBroadcast(ctx, 2)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = s.TriggerAnalysis(ctx, 2, time.Hour)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
}

func TestAdminService_Operations(t *testing.T) {
	f := newFixture(t)
	s := f.adminService()
	ctx := context.Background()
	f.addEmployee(t, 100, f.org.ID)
	f.addEmployee(t, 101, f.org.ID)

	employees, err := s.ListEmployees(ctx, adminID)
	require.NoError(t, err)
	assert.Len(t, employees, 2)

	summary, err := s.TriggerBroadcast(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Sent)

	report, err := s.TriggerAnalysis(ctx, adminID, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, f.org.ID, report.OrganizationID)

	_, err = s.TriggerAnalysis(ctx, adminID, 0)
	assert.ErrorIs(t, err, ErrInvalidLookback)
}
