package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// tenantLimiter acota las transmisiones simultáneas por tenant para no
// saturar el servidor de mail de ese tenant. Es un límite de admisión
// por tenant, no global: un tenant al tope no frena a los demás.
type tenantLimiter struct {
	mu    sync.Mutex
	limit int64
	sems  map[string]*semaphore.Weighted
}

func newTenantLimiter(limit int) *tenantLimiter {
	if limit <= 0 {
		limit = 10
	}
	return &tenantLimiter{
		limit: int64(limit),
		sems:  make(map[string]*semaphore.Weighted),
	}
}

func (l *tenantLimiter) sem(tenantID string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sems[tenantID]
	if !ok {
		s = semaphore.NewWeighted(l.limit)
		l.sems[tenantID] = s
	}
	return s
}

// acquire bloquea hasta obtener un slot de transmisión para el tenant.
func (l *tenantLimiter) acquire(ctx context.Context, tenantID string) error {
	return l.sem(tenantID).Acquire(ctx, 1)
}

// release devuelve el slot. Siempre en defer de la unidad que lo tomó.
func (l *tenantLimiter) release(tenantID string) {
	l.sem(tenantID).Release(1)
}

// idle reporta si el tenant no tiene ninguna transmisión en vuelo.
// Usado en tests para verificar que ningún slot quedó colgado.
func (l *tenantLimiter) idle(tenantID string) bool {
	s := l.sem(tenantID)
	if !s.TryAcquire(l.limit) {
		return false
	}
	s.Release(l.limit)
	return true
}
