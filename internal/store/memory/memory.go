// Package memory implementa los repositorios del dominio en memoria.
// Se usa en tests y en modo dev (sin Postgres). La idempotencia usa
// go-cache para el manejo de TTL; el resto son maps bajo mutex.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/mailroom/internal/domain/repository"
)

// Store agrupa los repositorios en memoria.
type Store struct {
	Configs     *SMTPConfigRepo
	Attempts    *AttemptRepo
	Idempotency *IdempotencyRepo
}

// New construye un Store vacío.
func New() *Store {
	return &Store{
		Configs:     &SMTPConfigRepo{byTenant: map[string][]*repository.TenantSMTPConfig{}},
		Attempts:    &AttemptRepo{byID: map[string]*repository.EmailAttempt{}},
		Idempotency: NewIdempotencyRepo(),
	}
}

// ─── SMTPConfigRepo ───

type SMTPConfigRepo struct {
	mu       sync.RWMutex
	byTenant map[string][]*repository.TenantSMTPConfig // orden de inserción
}

func (r *SMTPConfigRepo) GetEffective(ctx context.Context, tenantID string) (*repository.TenantSMTPConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *repository.TenantSMTPConfig
	// El slice preserva orden de inserción: ante empate de created_at
	// gana la fila insertada más tarde, determinísticamente.
	for _, c := range r.byTenant[tenantID] {
		if !c.Active {
			continue
		}
		if best == nil || !c.CreatedAt.Before(best.CreatedAt) {
			best = c
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (r *SMTPConfigRepo) Create(ctx context.Context, cfg *repository.TenantSMTPConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC()
	}
	cfg.UpdatedAt = cfg.CreatedAt
	cp := *cfg
	r.byTenant[cfg.TenantID] = append(r.byTenant[cfg.TenantID], &cp)
	return nil
}

func (r *SMTPConfigRepo) Update(ctx context.Context, cfg *repository.TenantSMTPConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.byTenant[cfg.TenantID] {
		if c.ID == cfg.ID {
			cp := *cfg
			cp.CreatedAt = c.CreatedAt
			cp.UpdatedAt = time.Now().UTC()
			r.byTenant[cfg.TenantID][i] = &cp
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *SMTPConfigRepo) Deactivate(ctx context.Context, tenantID, configID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.byTenant[tenantID] {
		if c.ID == configID && c.Active {
			c.Active = false
			c.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return repository.ErrNotFound
}

// ─── AttemptRepo ───

type AttemptRepo struct {
	mu   sync.RWMutex
	byID map[string]*repository.EmailAttempt
}

func (r *AttemptRepo) Create(ctx context.Context, a *repository.EmailAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	cp := *a
	r.byID[a.ID] = &cp
	return nil
}

func (r *AttemptRepo) GetByID(ctx context.Context, tenantID, attemptID string) (*repository.EmailAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[attemptID]
	if !ok || a.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *AttemptRepo) MarkSent(ctx context.Context, tenantID, attemptID string, sentAt time.Time, subject, bodyPreview string, retryCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[attemptID]
	if !ok || a.TenantID != tenantID || a.Status != repository.AttemptPending {
		return repository.ErrNotFound
	}
	a.Status = repository.AttemptSent
	a.SentAt = &sentAt
	a.Subject = subject
	a.BodyPreview = bodyPreview
	a.RetryCount = retryCount
	return nil
}

func (r *AttemptRepo) MarkFailed(ctx context.Context, tenantID, attemptID, errorDetail string, retryCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[attemptID]
	if !ok || a.TenantID != tenantID || a.Status != repository.AttemptPending {
		return repository.ErrNotFound
	}
	a.Status = repository.AttemptFailed
	a.ErrorDetail = errorDetail
	a.RetryCount = retryCount
	return nil
}

func (r *AttemptRepo) List(ctx context.Context, tenantID string, f repository.AttemptFilter) ([]repository.EmailAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []repository.EmailAttempt
	for _, a := range r.byID {
		if a.TenantID != tenantID {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		if f.Recipient != "" && a.Recipient != f.Recipient {
			continue
		}
		if f.From != nil && a.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && a.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ─── IdempotencyRepo ───

type IdempotencyRepo struct {
	c *gocache.Cache
}

// NewIdempotencyRepo construye el repo de idempotencia con limpieza
// periódica de vencidos.
func NewIdempotencyRepo() *IdempotencyRepo {
	return &IdempotencyRepo{c: gocache.New(gocache.NoExpiration, time.Minute)}
}

func idemKey(tenantID, key string) string { return tenantID + "\x00" + key }

func (r *IdempotencyRepo) Get(ctx context.Context, tenantID, key string) (*repository.IdempotencyRecord, error) {
	v, ok := r.c.Get(idemKey(tenantID, key))
	if !ok {
		return nil, repository.ErrNotFound
	}
	rec, ok := v.(repository.IdempotencyRecord)
	if !ok || rec.Expired(time.Now()) {
		return nil, repository.ErrNotFound
	}
	cp := rec
	return &cp, nil
}

func (r *IdempotencyRepo) Put(ctx context.Context, rec *repository.IdempotencyRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	r.c.Set(idemKey(rec.TenantID, rec.Key), *rec, ttl)
	return nil
}
