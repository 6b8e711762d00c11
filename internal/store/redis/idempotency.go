// Package redis implementa el repositorio de idempotencia sobre Redis.
// El TTL nativo de SET EX hace el vencimiento sin limpieza aparte; útil
// cuando corren varias réplicas del servicio contra el mismo Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/mailroom/internal/domain/repository"
)

// IdempotencyRepo implementa repository.IdempotencyRepository.
type IdempotencyRepo struct {
	rdb    *goredis.Client
	prefix string
}

// New construye el repo sobre un cliente existente. prefix namespacia
// las claves (ej: "mailroom").
func New(rdb *goredis.Client, prefix string) *IdempotencyRepo {
	if prefix == "" {
		prefix = "mailroom"
	}
	return &IdempotencyRepo{rdb: rdb, prefix: prefix}
}

func (r *IdempotencyRepo) key(tenantID, key string) string {
	return fmt.Sprintf("%s:idem:%s:%s", r.prefix, tenantID, key)
}

func (r *IdempotencyRepo) Get(ctx context.Context, tenantID, key string) (*repository.IdempotencyRecord, error) {
	b, err := r.rdb.Get(ctx, r.key(tenantID, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis idempotency get: %w", err)
	}
	var rec repository.IdempotencyRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("redis idempotency decode: %w", err)
	}
	if rec.Expired(time.Now()) {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *IdempotencyRepo) Put(ctx context.Context, rec *repository.IdempotencyRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis idempotency encode: %w", err)
	}
	// NX: el primer writer gana; un replay concurrente no pisa el attempt
	// ya registrado.
	ok, err := r.rdb.SetNX(ctx, r.key(rec.TenantID, rec.Key), b, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis idempotency put: %w", err)
	}
	if !ok {
		return nil
	}
	return nil
}
