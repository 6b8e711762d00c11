// Package pg implementa los repositorios del dominio sobre PostgreSQL
// usando pgxpool. Cada unidad de background usa el pool compartido pero
// adquiere su propia conexión por operación; ninguna sesión se comparte
// entre attempts concurrentes.
package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store agrupa los repositorios PostgreSQL sobre un único pool.
type Store struct {
	pool *pgxpool.Pool

	Configs     *SMTPConfigRepo
	Attempts    *AttemptRepo
	Idempotency *IdempotencyRepo
}

// New abre un pool contra dsn y construye los repositorios.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return NewWithPool(pool), nil
}

// NewWithPool construye los repositorios sobre un pool existente.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:        pool,
		Configs:     &SMTPConfigRepo{pool: pool},
		Attempts:    &AttemptRepo{pool: pool},
		Idempotency: &IdempotencyRepo{pool: pool},
	}
}

// Close libera el pool.
func (s *Store) Close() {
	s.pool.Close()
}
