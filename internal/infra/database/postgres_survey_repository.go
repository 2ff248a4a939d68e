package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feedback_survey_bot/internal/domain/survey"
)

type PostgresSurveyRepository struct {
	db *sql.DB
}

func NewPostgresSurveyRepository(db *sql.DB) *PostgresSurveyRepository {
	return &PostgresSurveyRepository{db: db}
}

// --- Conversation state ---

func (r *PostgresSurveyRepository) GetState(ctx context.Context, employeeID int64) (*survey.State, error) {
	query := `SELECT employee_id, status, question_index, question_text, updated_at
              FROM survey_states WHERE employee_id = $1`
	st := &survey.State{}
	var status string
	err := r.db.QueryRowContext(ctx, query, employeeID).Scan(&st.EmployeeID, &status, &st.QuestionIndex, &st.QuestionText, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &survey.State{EmployeeID: employeeID, Status: survey.StatusAwaitingFirstQuestion}, nil
		}
		return nil, fmt.Errorf("error getting survey state for employee %d: %w", employeeID, err)
	}
	st.Status = survey.Status(status)
	return st, nil
}

func (r *PostgresSurveyRepository) RecordBotMessage(ctx context.Context, msg *survey.BotMessage, state survey.State) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for bot message: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	err = txn.QueryRowContext(ctx,
		`INSERT INTO bot_messages (employee_id, message_text) VALUES ($1, $2) RETURNING id, sent_at`,
		msg.EmployeeID, msg.Text,
	).Scan(&msg.ID, &msg.SentAt)
	if err != nil {
		return fmt.Errorf("error creating bot message for employee %d: %w", msg.EmployeeID, err)
	}

	_, err = txn.ExecContext(ctx,
		`INSERT INTO survey_states (employee_id, status, question_index, question_text, updated_at)
         VALUES ($1, $2, $3, $4, $5)
         ON CONFLICT (employee_id) DO UPDATE
         SET status = EXCLUDED.status, question_index = EXCLUDED.question_index,
             question_text = EXCLUDED.question_text, updated_at = EXCLUDED.updated_at`,
		msg.EmployeeID, string(state.Status), state.QuestionIndex, state.QuestionText, msg.SentAt,
	)
	if err != nil {
		return fmt.Errorf("error storing survey state for employee %d: %w", msg.EmployeeID, err)
	}

	return txn.Commit()
}

func (r *PostgresSurveyRepository) ResetConversation(ctx context.Context, employeeID int64) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for conversation reset: %w", err)
	}
	defer txn.Rollback()

	if _, err := txn.ExecContext(ctx, `DELETE FROM bot_messages WHERE employee_id = $1`, employeeID); err != nil {
		return fmt.Errorf("error deleting bot messages of employee %d: %w", employeeID, err)
	}
	if _, err := txn.ExecContext(ctx, `DELETE FROM survey_states WHERE employee_id = $1`, employeeID); err != nil {
		return fmt.Errorf("error deleting survey state of employee %d: %w", employeeID, err)
	}
	return txn.Commit()
}

func (r *PostgresSurveyRepository) ListBotMessages(ctx context.Context, employeeID int64) ([]*survey.BotMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, employee_id, message_text, sent_at FROM bot_messages
         WHERE employee_id = $1 ORDER BY sent_at, id`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("error querying bot messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]*survey.BotMessage, 0)
	for rows.Next() {
		m := &survey.BotMessage{}
		if err := rows.Scan(&m.ID, &m.EmployeeID, &m.Text, &m.SentAt); err != nil {
			return nil, fmt.Errorf("error scanning bot message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bot message rows: %w", err)
	}
	return msgs, nil
}

// --- Responses ---

func (r *PostgresSurveyRepository) CreateResponse(ctx context.Context, resp *survey.Response) error {
	query := `INSERT INTO responses (employee_id, question, response_text)
              VALUES ($1, $2, $3)
              RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, resp.EmployeeID, resp.Question, resp.Text).Scan(&resp.ID, &resp.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating response: %w", err)
	}
	return nil
}

func (r *PostgresSurveyRepository) ListResponses(ctx context.Context, employeeID int64) ([]*survey.Response, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, employee_id, question, response_text, created_at FROM responses
         WHERE employee_id = $1 ORDER BY created_at, id`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("error querying responses: %w", err)
	}
	defer rows.Close()

	out := make([]*survey.Response, 0)
	for rows.Next() {
		resp := &survey.Response{}
		if err := rows.Scan(&resp.ID, &resp.EmployeeID, &resp.Question, &resp.Text, &resp.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning response row: %w", err)
		}
		out = append(out, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating response rows: %w", err)
	}
	return out, nil
}

// --- Points ---

func (r *PostgresSurveyRepository) SavePoints(ctx context.Context, responseID int64, points survey.Points) error {
	if points.Empty() {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for points: %w", err)
	}
	defer txn.Rollback()

	insert := func(table string, texts []string) error {
		if len(texts) == 0 {
			return nil
		}
		stmt, err := txn.PrepareContext(ctx, `INSERT INTO `+table+` (response_id, point_text) VALUES ($1, $2)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement for %s: %w", table, err)
		}
		defer stmt.Close()
		for _, text := range texts {
			if _, err := stmt.ExecContext(ctx, responseID, text); err != nil {
				return fmt.Errorf("error inserting into %s (response %d): %w", table, responseID, err)
			}
		}
		return nil
	}

	if err := insert("positive_points", points.Positive); err != nil {
		return err
	}
	if err := insert("negative_points", points.Negative); err != nil {
		return err
	}
	return txn.Commit()
}

const pointsUnion = `SELECT id, response_id, 'POSITIVE' AS kind, point_text, created_at FROM positive_points
                     UNION ALL
                     SELECT id, response_id, 'NEGATIVE' AS kind, point_text, created_at FROM negative_points`

func scanPoints(rows *sql.Rows) ([]*survey.Point, error) {
	points := make([]*survey.Point, 0)
	for rows.Next() {
		p := &survey.Point{}
		var kind string
		if err := rows.Scan(&p.ID, &p.ResponseID, &kind, &p.Text, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning point row: %w", err)
		}
		p.Kind = survey.PointKind(kind)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating point rows: %w", err)
	}
	return points, nil
}

func (r *PostgresSurveyRepository) ListPointsByResponse(ctx context.Context, responseID int64) ([]*survey.Point, error) {
	query := `SELECT p.id, p.response_id, p.kind, p.point_text, p.created_at
              FROM (` + pointsUnion + `) p
              WHERE p.response_id = $1 ORDER BY p.kind DESC, p.id`
	rows, err := r.db.QueryContext(ctx, query, responseID)
	if err != nil {
		return nil, fmt.Errorf("error querying points by response: %w", err)
	}
	defer rows.Close()
	return scanPoints(rows)
}

func (r *PostgresSurveyRepository) ListPointsForOrganization(ctx context.Context, organizationID int64, since time.Time) ([]*survey.Point, error) {
	query := `SELECT p.id, p.response_id, p.kind, p.point_text, p.created_at
              FROM (` + pointsUnion + `) p
              JOIN responses r ON r.id = p.response_id
              JOIN employees e ON e.id = r.employee_id
              WHERE e.organization_id = $1 AND r.created_at >= $2
              ORDER BY p.created_at, p.id`
	rows, err := r.db.QueryContext(ctx, query, organizationID, since)
	if err != nil {
		return nil, fmt.Errorf("error querying points for organization %d: %w", organizationID, err)
	}
	defer rows.Close()
	return scanPoints(rows)
}

func (r *PostgresSurveyRepository) CountActivity(ctx context.Context, organizationID int64, since time.Time) (survey.Activity, error) {
	query := `SELECT COUNT(*), COUNT(DISTINCT r.employee_id)
              FROM responses r
              JOIN employees e ON e.id = r.employee_id
              WHERE e.organization_id = $1 AND r.created_at >= $2`
	var a survey.Activity
	if err := r.db.QueryRowContext(ctx, query, organizationID, since).Scan(&a.Responses, &a.Respondents); err != nil {
		return survey.Activity{}, fmt.Errorf("error counting survey activity: %w", err)
	}
	return a, nil
}
