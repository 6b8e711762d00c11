// Package engine orquesta la entrega de emails: acepta un request,
// renderiza, resuelve config descifrada, transmite por SMTP con
// reintentos acotados y deja un registro de auditoría inmutable —
// siempre bajo contexto de tenant explícito, nunca ambiente.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/mailroom/internal/domain/repository"
	"github.com/dropDatabas3/mailroom/internal/email"
	"github.com/dropDatabas3/mailroom/internal/metrics"
	"github.com/dropDatabas3/mailroom/internal/observability/logger"
	"github.com/dropDatabas3/mailroom/internal/security/secretbox"
)

// ─── Errors ───

var (
	ErrInvalidRequest = errors.New("engine: invalid request")
)

// DefaultBackoff son las demoras fijas entre intentos de transmisión:
// exactamente estos tres valores, hasta 3 reintentos.
var DefaultBackoff = []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}

// DefaultIdempotencyTTL es la ventana de deduplicación.
const DefaultIdempotencyTTL = 24 * time.Hour

// DefaultTenantConcurrency acota las transmisiones simultáneas por tenant.
const DefaultTenantConcurrency = 10

// ─── Collaborator interfaces ───

// ConfigResolver resuelve la config SMTP descifrada de un tenant.
// Implementada por smtpconfig.Resolver.
type ConfigResolver interface {
	GetDecryptedConfig(ctx context.Context, tenantID string) (email.SMTPConfig, error)
}

// Renderer renderiza un mensaje por escenario e idioma.
// Implementada por email.Renderer.
type Renderer interface {
	Render(scenario, language string, vars map[string]any) (*email.RenderedMessage, error)
}

// SenderFactory construye un Sender desde una config resuelta.
// En producción es email.NewSMTPSender; los tests inyectan stubs.
type SenderFactory func(cfg email.SMTPConfig) email.Sender

// ─── Engine ───

// Options configura el Engine. Los ceros toman defaults.
type Options struct {
	Attempts    repository.AttemptRepository
	Idempotency repository.IdempotencyRepository
	Resolver    ConfigResolver
	Renderer    Renderer

	SenderFactory     SenderFactory
	Scheduler         Scheduler
	Backoff           []time.Duration
	IdempotencyTTL    time.Duration
	TenantConcurrency int
}

// Engine es el motor de entrega. Seguro para uso concurrente.
type Engine struct {
	attempts repository.AttemptRepository
	idem     repository.IdempotencyRepository
	resolver ConfigResolver
	renderer Renderer

	senderFor SenderFactory
	sched     Scheduler
	limits    *tenantLimiter
	backoff   []time.Duration
	idemTTL   time.Duration
}

// New construye el Engine.
func New(opts Options) (*Engine, error) {
	if opts.Attempts == nil || opts.Idempotency == nil || opts.Resolver == nil || opts.Renderer == nil {
		return nil, errors.New("engine: attempts, idempotency, resolver and renderer are required")
	}
	e := &Engine{
		attempts:  opts.Attempts,
		idem:      opts.Idempotency,
		resolver:  opts.Resolver,
		renderer:  opts.Renderer,
		senderFor: opts.SenderFactory,
		sched:     opts.Scheduler,
		limits:    newTenantLimiter(opts.TenantConcurrency),
		backoff:   opts.Backoff,
		idemTTL:   opts.IdempotencyTTL,
	}
	if e.senderFor == nil {
		e.senderFor = func(cfg email.SMTPConfig) email.Sender { return email.NewSMTPSender(cfg) }
	}
	if e.sched == nil {
		e.sched = NewGoScheduler()
	}
	if e.backoff == nil {
		e.backoff = DefaultBackoff
	}
	if e.idemTTL <= 0 {
		e.idemTTL = DefaultIdempotencyTTL
	}
	return e, nil
}

// EnqueueRequest es un pedido de envío.
type EnqueueRequest struct {
	TenantID       string
	Scenario       string
	Recipient      string
	Variables      map[string]any
	Language       string
	IdempotencyKey string // opcional
}

// Enqueue acepta el request, crea el attempt en pending y agenda la
// transmisión como unidad de background independiente. Retorna el ID
// del attempt antes de cualquier render o I/O de red: el costo visible
// para el caller es una escritura de store.
//
// Si hay IdempotencyKey y existe un registro vigente para
// (tenant, key), retorna el attempt ya registrado sin crear nada.
func (e *Engine) Enqueue(ctx context.Context, req EnqueueRequest) (string, error) {
	start := time.Now()
	defer func() {
		metrics.EnqueueLatency.Observe(float64(time.Since(start).Milliseconds()))
	}()

	if err := validateRequest(req); err != nil {
		return "", err
	}

	if req.IdempotencyKey != "" {
		rec, err := e.idem.Get(ctx, req.TenantID, req.IdempotencyKey)
		if err == nil {
			logger.From(ctx).Debug("idempotent replay",
				logger.Component("engine"),
				logger.TenantID(req.TenantID),
				logger.AttemptID(rec.AttemptID),
			)
			return rec.AttemptID, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("engine: idempotency lookup: %w", err)
		}
	}

	now := time.Now().UTC()
	attempt := &repository.EmailAttempt{
		ID:        uuid.NewString(),
		TenantID:  req.TenantID,
		Recipient: req.Recipient,
		Scenario:  req.Scenario,
		Status:    repository.AttemptPending,
		CreatedAt: now,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		expiry := now.Add(e.idemTTL)
		attempt.IdempotencyKey = &key
		attempt.IdempotencyExpiry = &expiry
	}

	if err := e.attempts.Create(ctx, attempt); err != nil {
		return "", fmt.Errorf("engine: create attempt: %w", err)
	}

	if req.IdempotencyKey != "" {
		rec := &repository.IdempotencyRecord{
			TenantID:  req.TenantID,
			Key:       req.IdempotencyKey,
			AttemptID: attempt.ID,
			CreatedAt: now,
			ExpiresAt: now.Add(e.idemTTL),
		}
		if err := e.idem.Put(ctx, rec); err != nil {
			// El attempt ya existe; un fallo acá sólo degrada la
			// deduplicación, no el envío.
			logger.From(ctx).Warn("idempotency record write failed",
				logger.Component("engine"),
				logger.TenantID(req.TenantID),
				logger.Err(err),
			)
		}
	}

	metrics.EmailsEnqueued.Inc()

	// El tenant viaja como parámetro explícito: la unidad de background
	// no lee nada de estado ambiente.
	tenantID, attemptID := req.TenantID, attempt.ID
	e.sched.Go(func() {
		e.process(tenantID, attemptID, req)
	})

	return attempt.ID, nil
}

// TestConnection valida una config conectando y autenticando contra el
// servidor, sin enviar ningún mensaje.
func (e *Engine) TestConnection(cfg email.SMTPConfig) (bool, string) {
	return email.TestConnection(cfg)
}

func validateRequest(req EnqueueRequest) error {
	if req.TenantID == "" {
		return fmt.Errorf("%w: tenant id is required", ErrInvalidRequest)
	}
	if _, err := mail.ParseAddress(req.Recipient); err != nil {
		return fmt.Errorf("%w: recipient %q is not a valid email", ErrInvalidRequest, req.Recipient)
	}
	if _, ok := email.LookupScenario(req.Scenario); !ok {
		return fmt.Errorf("%w: unknown scenario %q", ErrInvalidRequest, req.Scenario)
	}
	return nil
}

// ─── Background unit ───

// process ejecuta la transmisión de un attempt hasta estado terminal.
// Corre una sola vez por attempt, en su propia unidad de background,
// con contexto fresco: nada del caller ni de otros attempts se filtra.
func (e *Engine) process(tenantID, attemptID string, req EnqueueRequest) {
	log := logger.L().With(
		logger.Component("engine"),
		logger.TenantID(tenantID),
		logger.AttemptID(attemptID),
		logger.Scenario(req.Scenario),
	)
	ctx := logger.ToContext(context.Background(), log)

	// Pase lo que pase (éxito, falla terminal o panic), el attempt llega
	// a estado terminal y ningún estado de tenant sobrevive a la unidad.
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in delivery unit", logger.String("panic", fmt.Sprint(r)))
			e.finalizeFailed(ctx, tenantID, attemptID, fmt.Sprintf("unexpected internal error: %v", r), 0, "unexpected")
		}
	}()

	// 1. Config descifrada del tenant (o fallback global).
	cfg, err := e.resolver.GetDecryptedConfig(ctx, tenantID)
	if err != nil {
		reason := "config"
		var derr *secretbox.DecryptionError
		if errors.As(err, &derr) {
			reason = "decryption"
		}
		log.Error("config resolution failed", logger.Err(err))
		e.finalizeFailed(ctx, tenantID, attemptID, err.Error(), 0, reason)
		return
	}

	// 2. Render. Una falla acá es terminal: no se toca la red.
	msg, err := e.renderer.Render(req.Scenario, req.Language, req.Variables)
	if err != nil {
		log.Warn("render failed", logger.Err(err))
		e.finalizeFailed(ctx, tenantID, attemptID, err.Error(), 0, "validation")
		return
	}

	// 3. Admisión por tenant: a lo sumo N transmisiones simultáneas
	// contra el servidor de este tenant.
	if err := e.limits.acquire(ctx, tenantID); err != nil {
		e.finalizeFailed(ctx, tenantID, attemptID, "admission wait aborted: "+err.Error(), 0, "unexpected")
		return
	}
	defer e.limits.release(tenantID)

	sender := e.senderFor(cfg)

	// 4. Transmitir con reintentos acotados. retry es zero-based: 0
	// significa que salió al primer intento.
	var lastErr error
	for retry := 0; ; retry++ {
		err := sender.Send(req.Recipient, msg.Subject, msg.HTML, msg.Text)
		if err == nil {
			e.finalizeSent(ctx, tenantID, attemptID, msg, retry)
			log.Info("email sent",
				logger.Recipient(req.Recipient),
				logger.Retry(retry),
			)
			return
		}
		lastErr = err

		diag := email.Diagnose(err)
		log.Warn("transmission failed",
			logger.Err(err),
			logger.String("diag_code", diag.Code),
			logger.Bool("retryable", diag.Retryable),
			logger.Retry(retry),
		)

		if !diag.Retryable || retry >= len(e.backoff) {
			detail := fmt.Sprintf("%s: %v", diag.Describe(), lastErr)
			e.finalizeFailed(ctx, tenantID, attemptID, detail, retry, diag.Code)
			return
		}

		metrics.EmailRetries.Inc()
		time.Sleep(e.backoff[retry])
	}
}

func (e *Engine) finalizeSent(ctx context.Context, tenantID, attemptID string, msg *email.RenderedMessage, retryCount int) {
	sentAt := time.Now().UTC()
	preview := repository.TruncatePreview(msg.Text)
	if err := e.attempts.MarkSent(ctx, tenantID, attemptID, sentAt, msg.Subject, preview, retryCount); err != nil {
		logger.From(ctx).Error("mark sent failed", logger.Err(err))
		return
	}
	metrics.EmailsSent.Inc()
}

func (e *Engine) finalizeFailed(ctx context.Context, tenantID, attemptID, detail string, retryCount int, reason string) {
	if err := e.attempts.MarkFailed(ctx, tenantID, attemptID, detail, retryCount); err != nil {
		logger.From(ctx).Error("mark failed failed", logger.Err(err))
		return
	}
	metrics.EmailsFailed.WithLabelValues(reason).Inc()
}
