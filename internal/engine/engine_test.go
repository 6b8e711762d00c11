package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailroom/internal/domain/repository"
	"github.com/dropDatabas3/mailroom/internal/email"
	"github.com/dropDatabas3/mailroom/internal/security/secretbox"
	"github.com/dropDatabas3/mailroom/internal/store/memory"
)

// ─── Stubs ───

type stubResolver struct {
	cfg email.SMTPConfig
	err error
}

func (s stubResolver) GetDecryptedConfig(ctx context.Context, tenantID string) (email.SMTPConfig, error) {
	return s.cfg, s.err
}

// scriptedSender responde con la secuencia de errores dada, en orden;
// agotada la secuencia, responde éxito. Cuenta llamadas.
type scriptedSender struct {
	mu     sync.Mutex
	script []error
	calls  int
}

func (s *scriptedSender) Send(to, subject, htmlBody, textBody string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i < len(s.script) {
		return s.script[i]
	}
	return nil
}

func (s *scriptedSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type panicSender struct{}

func (panicSender) Send(to, subject, htmlBody, textBody string) error {
	panic("smtp client exploded")
}

// blockingSender no retorna hasta que se cierre release.
type blockingSender struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingSender) Send(to, subject, htmlBody, textBody string) error {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return nil
}

// ─── Harness ───

type harness struct {
	eng    *Engine
	store  *memory.Store
	sender *scriptedSender
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	st := memory.New()
	sender := &scriptedSender{}

	renderer, err := email.NewRenderer()
	require.NoError(t, err)

	if opts.Attempts == nil {
		opts.Attempts = st.Attempts
	}
	if opts.Idempotency == nil {
		opts.Idempotency = st.Idempotency
	}
	if opts.Resolver == nil {
		opts.Resolver = stubResolver{cfg: email.SMTPConfig{Host: "smtp.test", Port: 587}}
	}
	if opts.Renderer == nil {
		opts.Renderer = renderer
	}
	if opts.SenderFactory == nil {
		opts.SenderFactory = func(cfg email.SMTPConfig) email.Sender { return sender }
	}
	if opts.Scheduler == nil {
		opts.Scheduler = SyncScheduler{}
	}
	if opts.Backoff == nil {
		// Sin esperas reales en tests.
		opts.Backoff = []time.Duration{0, 0, 0}
	}

	eng, err := New(opts)
	require.NoError(t, err)
	return &harness{eng: eng, store: st, sender: sender}
}

func testRequest() EnqueueRequest {
	return EnqueueRequest{
		TenantID:  "t1",
		Scenario:  "test",
		Recipient: "dest@example.com",
	}
}

// ─── Enqueue ───

func TestEnqueueRejectsInvalidRequests(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	_, err := h.eng.Enqueue(ctx, EnqueueRequest{Scenario: "test", Recipient: "a@b.com"})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = h.eng.Enqueue(ctx, EnqueueRequest{TenantID: "t1", Scenario: "test", Recipient: "not-an-email"})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = h.eng.Enqueue(ctx, EnqueueRequest{TenantID: "t1", Scenario: "nope", Recipient: "a@b.com"})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestEnqueueReturnsPendingBeforeTransmission(t *testing.T) {
	sender := &blockingSender{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	sched := NewGoScheduler()
	h := newHarness(t, Options{
		SenderFactory: func(cfg email.SMTPConfig) email.Sender { return sender },
		Scheduler:     sched,
	})
	ctx := context.Background()

	id, err := h.eng.Enqueue(ctx, testRequest())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// La transmisión está bloqueada adentro del sender: el attempt sigue
	// pending y el caller ya tiene su ID.
	<-sender.entered
	a, err := h.store.Attempts.GetByID(ctx, "t1", id)
	require.NoError(t, err)
	require.Equal(t, repository.AttemptPending, a.Status)

	close(sender.release)
	sched.Wait()

	a, err = h.store.Attempts.GetByID(ctx, "t1", id)
	require.NoError(t, err)
	require.Equal(t, repository.AttemptSent, a.Status)
}

// ─── Retry semantics ───

func TestRetryableFailuresThenSuccess(t *testing.T) {
	h := newHarness(t, Options{})
	h.sender.script = []error{
		errors.New("dial tcp 10.0.0.1:587: connect: connection refused"),
		errors.New("read tcp 10.0.0.1:587: i/o timeout"),
	}
	ctx := context.Background()

	id, err := h.eng.Enqueue(ctx, testRequest())
	require.NoError(t, err)

	a, err := h.store.Attempts.GetByID(ctx, "t1", id)
	require.NoError(t, err)
	require.Equal(t, repository.AttemptSent, a.Status)
	require.Equal(t, 2, a.RetryCount, "two retries consumed before success")
	require.Equal(t, 3, h.sender.callCount())
	require.NotNil(t, a.SentAt)
	require.NotEmpty(t, a.Subject)
	require.NotEmpty(t, a.BodyPreview)
}

func TestPermanentFailureDoesNotRetry(t *testing.T) {
	h := newHarness(t, Options{})
	h.sender.script = []error{
		errors.New("535 5.7.8 authentication failed"),
		errors.New("should never be reached"),
	}
	ctx := context.Background()

	id, err := h.eng.Enqueue(ctx, testRequest())
	require.NoError(t, err)

	a, err := h.store.Attempts.GetByID(ctx, "t1", id)
	require.NoError(t, err)
	require.Equal(t, repository.AttemptFailed, a.Status)
	require.Equal(t, 0, a.RetryCount)
	require.Equal(t, 1, h.sender.callCount(), "permanent failures stop immediately")
	require.Contains(t, a.ErrorDetail, "authentication rejected")
}

func TestRetriesExhausted(t *testing.T) {
	h := newHarness(t, Options{})
	retryable := errors.New("451 4.7.0 try again later")
	h.sender.script = []error{retryable, retryable, retryable, retryable, retryable}
	ctx := context.Background()

	id, err := h.eng.Enqueue(ctx, testRequest())
	require.NoError(t, err)

	a, err := h.store.Attempts.GetByID(ctx, "t1", id)
	require.NoError(t, err)
	require.Equal(t, repository.AttemptFailed, a.Status)
	require.Equal(t, 3, a.RetryCount, "initial attempt plus three retries")
	require.Equal(t, 4, h.sender.callCount())
}

// ─── Terminal pre-transmission failures ───

func TestRenderFailureIsTerminal(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	req := testRequest()
	req.Scenario = "password_reset" // requeridas ausentes

	id, err := h.eng.Enqueue(ctx, req)
	require.NoError(t, err, "Enqueue accepts the request; validation happens in background")

	a, err := h.store.Attempts.GetByID(ctx, "t1", id)
	require.NoError(t, err)
	require.Equal(t, repository.AttemptFailed, a.Status)
	require.Equal(t, 0, a.RetryCount)
	require.Contains(t, a.ErrorDetail, "missing variables")
	require.Equal(t, 0, h.sender.callCount(), "no network I/O after a render failure")
}

func TestDecryptionFailureIsTerminal(t *testing.T) {
	h := newHarness(t, Options{
		Resolver: stubResolver{err: &secretbox.DecryptionError{Reason: "authentication tag mismatch"}},
	})
	ctx := context.Background()

	id, err := h.eng.Enqueue(ctx, testRequest())
	require.NoError(t, err)

	a, err := h.store.Attempts.GetByID(ctx, "t1", id)
	require.NoError(t, err)
	require.Equal(t, repository.AttemptFailed, a.Status)
	require.Equal(t, 0, h.sender.callCount())
}

func TestPanicInSenderIsContained(t *testing.T) {
	h := newHarness(t, Options{
		SenderFactory: func(cfg email.SMTPConfig) email.Sender { return panicSender{} },
	})
	ctx := context.Background()

	var id string
	require.NotPanics(t, func() {
		var err error
		id, err = h.eng.Enqueue(ctx, testRequest())
		require.NoError(t, err)
	})

	a, err := h.store.Attempts.GetByID(ctx, "t1", id)
	require.NoError(t, err)
	require.Equal(t, repository.AttemptFailed, a.Status)
	require.Contains(t, a.ErrorDetail, "unexpected internal error")
	require.True(t, h.eng.limits.idle("t1"), "panic must not leak an admission slot")
}

// ─── Idempotency ───

func TestIdempotentReplayReturnsSameAttempt(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	req := testRequest()
	req.IdempotencyKey = "welcome-user-42"

	first, err := h.eng.Enqueue(ctx, req)
	require.NoError(t, err)
	second, err := h.eng.Enqueue(ctx, req)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, h.sender.callCount(), "replay must not transmit again")
}

func TestIdempotencyKeysAreTenantScoped(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	req := testRequest()
	req.IdempotencyKey = "same-key"
	a, err := h.eng.Enqueue(ctx, req)
	require.NoError(t, err)

	req.TenantID = "t2"
	b, err := h.eng.Enqueue(ctx, req)
	require.NoError(t, err)
	require.NotEqual(t, a, b, "the same key under another tenant is a different request")
}

func TestExpiredIdempotencyRecordIsIgnored(t *testing.T) {
	h := newHarness(t, Options{IdempotencyTTL: time.Millisecond})
	ctx := context.Background()

	req := testRequest()
	req.IdempotencyKey = "short-lived"

	first, err := h.eng.Enqueue(ctx, req)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	second, err := h.eng.Enqueue(ctx, req)
	require.NoError(t, err)
	require.NotEqual(t, first, second, "an expired record no longer deduplicates")
}

// ─── Tenant isolation ───

func TestAttemptsAreTenantScoped(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	id, err := h.eng.Enqueue(ctx, testRequest())
	require.NoError(t, err)

	_, err = h.store.Attempts.GetByID(ctx, "t2", id)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLimiterIdleAfterDelivery(t *testing.T) {
	h := newHarness(t, Options{TenantConcurrency: 2})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := h.eng.Enqueue(ctx, testRequest())
		require.NoError(t, err)
	}
	require.True(t, h.eng.limits.idle("t1"), "all admission slots must be returned")
}
