package pg

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/mailroom/internal/domain/repository"
)

// AttemptRepo implementa repository.AttemptRepository sobre la tabla
// email_attempt.
type AttemptRepo struct {
	pool *pgxpool.Pool
}

const attemptColumns = `id, tenant_id, recipient, scenario, subject, body_preview,
	status, sent_at, error_detail, retry_count, idempotency_key, idempotency_expiry, created_at`

func (r *AttemptRepo) Create(ctx context.Context, a *repository.EmailAttempt) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO email_attempt
			(id, tenant_id, recipient, scenario, subject, body_preview,
			 status, sent_at, error_detail, retry_count, idempotency_key, idempotency_expiry, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		a.ID, a.TenantID, a.Recipient, a.Scenario, a.Subject, a.BodyPreview,
		string(a.Status), a.SentAt, a.ErrorDetail, a.RetryCount,
		a.IdempotencyKey, a.IdempotencyExpiry, a.CreatedAt,
	)
	return err
}

func (r *AttemptRepo) GetByID(ctx context.Context, tenantID, attemptID string) (*repository.EmailAttempt, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM email_attempt
		WHERE id = $1 AND tenant_id = $2
	`
	a, err := scanAttempt(r.pool.QueryRow(ctx, query, attemptID, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return a, err
}

func (r *AttemptRepo) MarkSent(ctx context.Context, tenantID, attemptID string, sentAt time.Time, subject, bodyPreview string, retryCount int) error {
	// La guarda status='pending' asegura una única transición terminal.
	query := `
		UPDATE email_attempt
		SET status = 'sent', sent_at = $3, subject = $4, body_preview = $5, retry_count = $6
		WHERE id = $1 AND tenant_id = $2 AND status = 'pending'
	`
	tag, err := r.pool.Exec(ctx, query, attemptID, tenantID, sentAt, subject, bodyPreview, retryCount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AttemptRepo) MarkFailed(ctx context.Context, tenantID, attemptID, errorDetail string, retryCount int) error {
	query := `
		UPDATE email_attempt
		SET status = 'failed', error_detail = $3, retry_count = $4
		WHERE id = $1 AND tenant_id = $2 AND status = 'pending'
	`
	tag, err := r.pool.Exec(ctx, query, attemptID, tenantID, errorDetail, retryCount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AttemptRepo) List(ctx context.Context, tenantID string, f repository.AttemptFilter) ([]repository.EmailAttempt, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM email_attempt
		WHERE tenant_id = $1
	`
	args := []any{tenantID}
	idx := 2

	if f.Status != nil {
		query += ` AND status = $` + strconv.Itoa(idx)
		args = append(args, string(*f.Status))
		idx++
	}
	if f.Recipient != "" {
		query += ` AND recipient = $` + strconv.Itoa(idx)
		args = append(args, f.Recipient)
		idx++
	}
	if f.From != nil {
		query += ` AND created_at >= $` + strconv.Itoa(idx)
		args = append(args, *f.From)
		idx++
	}
	if f.To != nil {
		query += ` AND created_at <= $` + strconv.Itoa(idx)
		args = append(args, *f.To)
		idx++
	}

	query += ` ORDER BY created_at DESC`

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += ` LIMIT $` + strconv.Itoa(idx)
	args = append(args, limit)
	idx++
	if f.Offset > 0 {
		query += ` OFFSET $` + strconv.Itoa(idx)
		args = append(args, f.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.EmailAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (*repository.EmailAttempt, error) {
	var a repository.EmailAttempt
	var status string
	err := row.Scan(
		&a.ID, &a.TenantID, &a.Recipient, &a.Scenario, &a.Subject, &a.BodyPreview,
		&status, &a.SentAt, &a.ErrorDetail, &a.RetryCount,
		&a.IdempotencyKey, &a.IdempotencyExpiry, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = repository.AttemptStatus(status)
	return &a, nil
}

