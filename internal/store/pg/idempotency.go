package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/mailroom/internal/domain/repository"
)

// IdempotencyRepo implementa repository.IdempotencyRepository sobre la
// tabla email_idempotency. Un registro vencido se trata como ausente;
// la limpieza física queda a cargo de un job externo.
type IdempotencyRepo struct {
	pool *pgxpool.Pool
}

func (r *IdempotencyRepo) Get(ctx context.Context, tenantID, key string) (*repository.IdempotencyRecord, error) {
	query := `
		SELECT tenant_id, key, attempt_id, created_at, expires_at
		FROM email_idempotency
		WHERE tenant_id = $1 AND key = $2 AND expires_at > NOW()
	`
	var rec repository.IdempotencyRecord
	err := r.pool.QueryRow(ctx, query, tenantID, key).Scan(
		&rec.TenantID, &rec.Key, &rec.AttemptID, &rec.CreatedAt, &rec.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *IdempotencyRepo) Put(ctx context.Context, rec *repository.IdempotencyRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	// Un registro vencido para la misma dupla se pisa en lugar de chocar
	// contra la PK.
	query := `
		INSERT INTO email_idempotency (tenant_id, key, attempt_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, key) DO UPDATE
		SET attempt_id = EXCLUDED.attempt_id,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at
		WHERE email_idempotency.expires_at <= NOW()
	`
	_, err := r.pool.Exec(ctx, query, rec.TenantID, rec.Key, rec.AttemptID, rec.CreatedAt, rec.ExpiresAt)
	return err
}
