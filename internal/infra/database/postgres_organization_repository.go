package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"feedback_survey_bot/internal/domain/organization"

	"github.com/lib/pq"
)

var ErrOrganizationNotFound = fmt.Errorf("organization not found")

type PostgresOrganizationRepository struct {
	db *sql.DB
}

func NewPostgresOrganizationRepository(db *sql.DB) *PostgresOrganizationRepository {
	return &PostgresOrganizationRepository{db: db}
}

const organizationColumns = `o.id, o.name, o.activity,
       o.survey_day_of_week, o.survey_hour, o.survey_minute, o.survey_frequency,
       o.report_day_of_week, o.report_hour, o.report_minute, o.report_frequency,
       o.created_at, o.updated_at,
       ARRAY(SELECT e.email_address FROM organization_emails e WHERE e.organization_id = o.id ORDER BY e.id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*organization.Organization, error) {
	o := &organization.Organization{}
	var surveyFreq, reportFreq string
	var emails pq.StringArray
	err := row.Scan(
		&o.ID, &o.Name, &o.Activity,
		&o.SurveySchedule.DayOfWeek, &o.SurveySchedule.Hour, &o.SurveySchedule.Minute, &surveyFreq,
		&o.ReportSchedule.DayOfWeek, &o.ReportSchedule.Hour, &o.ReportSchedule.Minute, &reportFreq,
		&o.CreatedAt, &o.UpdatedAt,
		&emails,
	)
	if err != nil {
		return nil, err
	}
	o.SurveySchedule.Frequency = organization.Frequency(surveyFreq)
	o.ReportSchedule.Frequency = organization.Frequency(reportFreq)
	o.Emails = []string(emails)
	return o, nil
}

// Create always inserts a new organization.
func (r *PostgresOrganizationRepository) Create(ctx context.Context, org *organization.Organization) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for organization create: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	if err := insertOrganization(ctx, txn, org); err != nil {
		return err
	}
	if err := replaceEmails(ctx, txn, org); err != nil {
		return err
	}
	return txn.Commit()
}

func insertOrganization(ctx context.Context, txn *sql.Tx, org *organization.Organization) error {
	s, rep := org.SurveySchedule, org.ReportSchedule
	query := `INSERT INTO organizations (name, activity,
                  survey_day_of_week, survey_hour, survey_minute, survey_frequency,
                  report_day_of_week, report_hour, report_minute, report_frequency)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
              RETURNING id, created_at, updated_at`
	err := txn.QueryRowContext(ctx, query, org.Name, org.Activity,
		s.DayOfWeek, s.Hour, s.Minute, string(s.Frequency),
		rep.DayOfWeek, rep.Hour, rep.Minute, string(rep.Frequency),
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating organization: %w", err)
	}
	return nil
}

func replaceEmails(ctx context.Context, txn *sql.Tx, org *organization.Organization) error {
	if _, err := txn.ExecContext(ctx, `DELETE FROM organization_emails WHERE organization_id = $1`, org.ID); err != nil {
		return fmt.Errorf("error clearing organization emails: %w", err)
	}
	if len(org.Emails) > 0 {
		_, err := txn.ExecContext(ctx,
			`INSERT INTO organization_emails (organization_id, email_address)
             SELECT $1, unnest($2::text[])`,
			org.ID, pq.Array(org.Emails))
		if err != nil {
			return fmt.Errorf("error inserting organization emails: %w", err)
		}
	}
	return nil
}

// Upsert stores org. With a zero ID the first existing organization is
// updated, matching the single-organization deployment.
func (r *PostgresOrganizationRepository) Upsert(ctx context.Context, org *organization.Organization) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for organization upsert: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	if org.ID == 0 {
		err := txn.QueryRowContext(ctx, `SELECT id FROM organizations ORDER BY id LIMIT 1`).Scan(&org.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("error looking up existing organization: %w", err)
		}
	}

	s, rep := org.SurveySchedule, org.ReportSchedule
	if org.ID == 0 {
		if err := insertOrganization(ctx, txn, org); err != nil {
			return err
		}
	} else {
		query := `UPDATE organizations
                  SET name = $1, activity = $2,
                      survey_day_of_week = $3, survey_hour = $4, survey_minute = $5, survey_frequency = $6,
                      report_day_of_week = $7, report_hour = $8, report_minute = $9, report_frequency = $10,
                      updated_at = NOW()
                  WHERE id = $11
                  RETURNING created_at, updated_at`
		err = txn.QueryRowContext(ctx, query, org.Name, org.Activity,
			s.DayOfWeek, s.Hour, s.Minute, string(s.Frequency),
			rep.DayOfWeek, rep.Hour, rep.Minute, string(rep.Frequency),
			org.ID,
		).Scan(&org.CreatedAt, &org.UpdatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrganizationNotFound
			}
			return fmt.Errorf("error updating organization: %w", err)
		}
	}

	if err := replaceEmails(ctx, txn, org); err != nil {
		return err
	}

	return txn.Commit()
}

func (r *PostgresOrganizationRepository) GetByID(ctx context.Context, id int64) (*organization.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations o WHERE o.id = $1`
	o, err := scanOrganization(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("error getting organization by ID: %w", err)
	}
	return o, nil
}

func (r *PostgresOrganizationRepository) GetFirst(ctx context.Context) (*organization.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations o ORDER BY o.id LIMIT 1`
	o, err := scanOrganization(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("error getting first organization: %w", err)
	}
	return o, nil
}

func (r *PostgresOrganizationRepository) ListAll(ctx context.Context) ([]*organization.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations o ORDER BY o.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing organizations: %w", err)
	}
	defer rows.Close()

	orgs := make([]*organization.Organization, 0)
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}
	return orgs, nil
}
