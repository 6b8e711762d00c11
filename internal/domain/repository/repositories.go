package repository

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound se retorna cuando la entidad no existe (o, para registros
// de idempotencia, cuando ya venció).
var ErrNotFound = errors.New("repository: not found")

// SMTPConfigRepository persiste configuraciones SMTP por tenant.
type SMTPConfigRepository interface {
	// GetEffective retorna la config efectiva del tenant: la fila activa
	// con created_at máximo; empates se resuelven por orden de inserción.
	// ErrNotFound si el tenant no tiene ninguna activa.
	GetEffective(ctx context.Context, tenantID string) (*TenantSMTPConfig, error)

	// Create inserta una nueva fila.
	Create(ctx context.Context, cfg *TenantSMTPConfig) error

	// Update reemplaza los campos mutables de una fila existente.
	Update(ctx context.Context, cfg *TenantSMTPConfig) error

	// Deactivate apaga una fila (rollback del flujo save-then-test).
	Deactivate(ctx context.Context, tenantID, configID string) error
}

// AttemptFilter filtra el listado de attempts (visor de logs).
type AttemptFilter struct {
	Status    *AttemptStatus
	Recipient string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// AttemptRepository persiste los registros de auditoría de envío.
// Toda operación está scoped por tenant: un tenant jamás ve filas de otro.
type AttemptRepository interface {
	Create(ctx context.Context, a *EmailAttempt) error
	GetByID(ctx context.Context, tenantID, attemptID string) (*EmailAttempt, error)

	// MarkSent finaliza el attempt como enviado. Sólo válido desde pending.
	MarkSent(ctx context.Context, tenantID, attemptID string, sentAt time.Time, subject, bodyPreview string, retryCount int) error

	// MarkFailed finaliza el attempt como fallido. Sólo válido desde pending.
	MarkFailed(ctx context.Context, tenantID, attemptID, errorDetail string, retryCount int) error

	List(ctx context.Context, tenantID string, f AttemptFilter) ([]EmailAttempt, error)
}

// IdempotencyRepository persiste registros de deduplicación con TTL.
type IdempotencyRepository interface {
	// Get retorna el registro vigente para (tenant, key).
	// ErrNotFound si no existe o si ya venció.
	Get(ctx context.Context, tenantID, key string) (*IdempotencyRecord, error)

	// Put guarda el registro. La dupla (tenant, key) es única.
	Put(ctx context.Context, rec *IdempotencyRecord) error
}
