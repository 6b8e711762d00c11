package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/mailroom/internal/domain/repository"
)

// SMTPConfigRepo implementa repository.SMTPConfigRepository sobre la
// tabla tenant_smtp_config.
type SMTPConfigRepo struct {
	pool *pgxpool.Pool
}

const configColumns = `id, tenant_id, host, port, username, password_enc,
	from_email, from_name, tls_mode, timeout_seconds, active, created_at, updated_at`

func (r *SMTPConfigRepo) GetEffective(ctx context.Context, tenantID string) (*repository.TenantSMTPConfig, error) {
	// Empates de created_at se resuelven por seq (orden de inserción).
	query := `
		SELECT ` + configColumns + `
		FROM tenant_smtp_config
		WHERE tenant_id = $1 AND active = TRUE
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`
	var c repository.TenantSMTPConfig
	err := r.pool.QueryRow(ctx, query, tenantID).Scan(
		&c.ID, &c.TenantID, &c.Host, &c.Port, &c.Username, &c.PasswordEnc,
		&c.FromEmail, &c.FromName, &c.TLSMode, &c.TimeoutSeconds, &c.Active,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SMTPConfigRepo) Create(ctx context.Context, cfg *repository.TenantSMTPConfig) error {
	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	query := `
		INSERT INTO tenant_smtp_config
			(id, tenant_id, host, port, username, password_enc,
			 from_email, from_name, tls_mode, timeout_seconds, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		cfg.ID, cfg.TenantID, cfg.Host, cfg.Port, cfg.Username, cfg.PasswordEnc,
		cfg.FromEmail, cfg.FromName, cfg.TLSMode, cfg.TimeoutSeconds, cfg.Active,
		cfg.CreatedAt, cfg.UpdatedAt,
	)
	return err
}

func (r *SMTPConfigRepo) Update(ctx context.Context, cfg *repository.TenantSMTPConfig) error {
	cfg.UpdatedAt = time.Now().UTC()

	// El update está scoped por tenant además de por id.
	query := `
		UPDATE tenant_smtp_config
		SET host = $3, port = $4, username = $5, password_enc = $6,
		    from_email = $7, from_name = $8, tls_mode = $9,
		    timeout_seconds = $10, active = $11, updated_at = $12
		WHERE id = $1 AND tenant_id = $2
	`
	tag, err := r.pool.Exec(ctx, query,
		cfg.ID, cfg.TenantID, cfg.Host, cfg.Port, cfg.Username, cfg.PasswordEnc,
		cfg.FromEmail, cfg.FromName, cfg.TLSMode, cfg.TimeoutSeconds, cfg.Active,
		cfg.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *SMTPConfigRepo) Deactivate(ctx context.Context, tenantID, configID string) error {
	query := `
		UPDATE tenant_smtp_config
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND active = TRUE
	`
	tag, err := r.pool.Exec(ctx, query, configID, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
