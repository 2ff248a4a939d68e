package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"feedback_survey_bot/internal/domain/employee"

	"github.com/lib/pq"
)

// Custom errors
var ErrEmployeeNotFound = fmt.Errorf("employee not found")
var ErrDuplicateTelegramID = fmt.Errorf("employee with this Telegram ID already exists")

const uniqueViolation = "23505"

type PostgresEmployeeRepository struct {
	db *sql.DB
}

func NewPostgresEmployeeRepository(db *sql.DB) *PostgresEmployeeRepository {
	return &PostgresEmployeeRepository{db: db}
}

func (r *PostgresEmployeeRepository) Create(ctx context.Context, e *employee.Employee) error {
	query := `INSERT INTO employees (telegram_id, name, organization_id)
              VALUES ($1, $2, $3)
              RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, e.TelegramID, e.Name, e.OrganizationID).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == "employees_telegram_id_key" {
			return ErrDuplicateTelegramID
		}
		return fmt.Errorf("error creating employee: %w", err)
	}
	return nil
}

func (r *PostgresEmployeeRepository) GetByID(ctx context.Context, id int64) (*employee.Employee, error) {
	query := `SELECT id, telegram_id, name, organization_id, created_at FROM employees WHERE id = $1`
	e := &employee.Employee{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.TelegramID, &e.Name, &e.OrganizationID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("error getting employee by ID: %w", err)
	}
	return e, nil
}

func (r *PostgresEmployeeRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*employee.Employee, error) {
	query := `SELECT id, telegram_id, name, organization_id, created_at FROM employees WHERE telegram_id = $1`
	e := &employee.Employee{}
	err := r.db.QueryRowContext(ctx, query, telegramID).Scan(&e.ID, &e.TelegramID, &e.Name, &e.OrganizationID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("error getting employee by Telegram ID: %w", err)
	}
	return e, nil
}

func (r *PostgresEmployeeRepository) ListByOrganization(ctx context.Context, organizationID int64) ([]*employee.Employee, error) {
	query := `SELECT id, telegram_id, name, organization_id, created_at
              FROM employees WHERE organization_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("error listing employees of organization %d: %w", organizationID, err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0)
	for rows.Next() {
		e := &employee.Employee{}
		if err := rows.Scan(&e.ID, &e.TelegramID, &e.Name, &e.OrganizationID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}
	return employees, nil
}
