package engine

import "sync"

// Scheduler despacha unidades de background. La implementación de
// producción usa goroutines trackeadas; los tests inyectan la síncrona
// para que el procesamiento sea determinístico.
type Scheduler interface {
	Go(fn func())
}

// GoScheduler corre cada unidad en su propia goroutine y permite
// drenar el trabajo pendiente en el shutdown.
type GoScheduler struct {
	wg sync.WaitGroup
}

// NewGoScheduler construye el scheduler de producción.
func NewGoScheduler() *GoScheduler {
	return &GoScheduler{}
}

func (s *GoScheduler) Go(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// Wait bloquea hasta que todas las unidades despachadas terminen.
func (s *GoScheduler) Wait() {
	s.wg.Wait()
}

// SyncScheduler ejecuta cada unidad inline. Sólo para tests.
type SyncScheduler struct{}

func (SyncScheduler) Go(fn func()) { fn() }
