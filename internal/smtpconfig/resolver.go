// Package smtpconfig resuelve la configuración SMTP efectiva de un
// tenant, con fallback global y secretos cifrados en reposo.
package smtpconfig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/mailroom/internal/domain/repository"
	"github.com/dropDatabas3/mailroom/internal/email"
	"github.com/dropDatabas3/mailroom/internal/observability/logger"
	"github.com/dropDatabas3/mailroom/internal/security/secretbox"
)

// ErrInvalidInput se retorna cuando Upsert recibe una config que no pasa
// la validación dura.
var ErrInvalidInput = errors.New("smtpconfig: invalid input")

// Fallback es la configuración SMTP global de proceso, usada para
// tenants sin config propia. Se carga una vez al inicio y se pasa por
// valor: nunca se relee de estado mutable.
type Fallback struct {
	Host           string
	Port           int
	Username       string
	Password       string
	FromEmail      string
	FromName       string
	TLSMode        string
	TimeoutSeconds int
}

// Input es el payload de Upsert. Password vacío significa "conservar el
// secreto actual" cuando ya existe una fila activa.
type Input struct {
	Host           string
	Port           int
	Username       string
	Password       string
	FromEmail      string
	FromName       string
	TLSMode        string
	TimeoutSeconds int
}

// Resolver implementa la resolución de config por tenant.
type Resolver struct {
	repo     repository.SMTPConfigRepository
	cipher   *secretbox.Cipher
	fallback Fallback
}

// NewResolver construye el resolver. fallback se copia por valor.
func NewResolver(repo repository.SMTPConfigRepository, cipher *secretbox.Cipher, fallback Fallback) *Resolver {
	return &Resolver{repo: repo, cipher: cipher, fallback: fallback}
}

// GetEffectiveConfig retorna la config efectiva del tenant o nil si no
// tiene ninguna activa. El secreto viene cifrado.
func (r *Resolver) GetEffectiveConfig(ctx context.Context, tenantID string) (*repository.TenantSMTPConfig, error) {
	cfg, err := r.repo.GetEffective(ctx, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("smtpconfig: get effective: %w", err)
	}
	return cfg, nil
}

// GetDecryptedConfig resuelve la config lista para transmitir: la
// efectiva del tenant con el secreto descifrado, o el fallback global si
// el tenant no configuró servidor propio. El correo saliente nunca deja
// de funcionar por falta de config propia.
func (r *Resolver) GetDecryptedConfig(ctx context.Context, tenantID string) (email.SMTPConfig, error) {
	cfg, err := r.GetEffectiveConfig(ctx, tenantID)
	if err != nil {
		return email.SMTPConfig{}, err
	}

	if cfg == nil {
		logger.From(ctx).Debug("using global fallback SMTP config",
			logger.Component("smtpconfig"),
			logger.TenantID(tenantID),
		)
		return email.SMTPConfig{
			Host:      r.fallback.Host,
			Port:      r.fallback.Port,
			Username:  r.fallback.Username,
			Password:  r.fallback.Password,
			FromEmail: r.fallback.FromEmail,
			FromName:  r.fallback.FromName,
			TLSMode:   r.fallback.TLSMode,
			Timeout:   clampTimeout(r.fallback.TimeoutSeconds),
		}, nil
	}

	plain, err := r.cipher.Decrypt(cfg.PasswordEnc)
	if err != nil {
		// *secretbox.DecryptionError llega tal cual al caller: es una
		// clase de error distinta y no reintentable.
		return email.SMTPConfig{}, fmt.Errorf("smtpconfig: tenant %s: %w", tenantID, err)
	}

	return email.SMTPConfig{
		Host:      cfg.Host,
		Port:      cfg.Port,
		Username:  cfg.Username,
		Password:  plain,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
		TLSMode:   cfg.TLSMode,
		Timeout:   clampTimeout(cfg.TimeoutSeconds),
	}, nil
}

// Upsert cifra el secreto entrante y lo persiste. Si el tenant ya tiene
// una fila activa, sus campos mutables se reemplazan en esa misma fila
// (el secreto sólo si vino uno nuevo); si no, se inserta una nueva fila
// activa.
func (r *Resolver) Upsert(ctx context.Context, tenantID string, in Input) (*repository.TenantSMTPConfig, error) {
	applyDefaults(&in)
	if ok, reason := Validate(in); !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, reason)
	}

	existing, err := r.GetEffectiveConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.Host = in.Host
		existing.Port = in.Port
		existing.Username = in.Username
		existing.FromEmail = in.FromEmail
		existing.FromName = in.FromName
		existing.TLSMode = in.TLSMode
		existing.TimeoutSeconds = in.TimeoutSeconds
		if in.Password != "" {
			enc, err := r.cipher.Encrypt(in.Password)
			if err != nil {
				return nil, fmt.Errorf("smtpconfig: encrypt secret: %w", err)
			}
			existing.PasswordEnc = enc
		}
		if err := r.repo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("smtpconfig: update: %w", err)
		}
		return existing, nil
	}

	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required for a new configuration", ErrInvalidInput)
	}
	enc, err := r.cipher.Encrypt(in.Password)
	if err != nil {
		return nil, fmt.Errorf("smtpconfig: encrypt secret: %w", err)
	}

	cfg := &repository.TenantSMTPConfig{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		Host:           in.Host,
		Port:           in.Port,
		Username:       in.Username,
		PasswordEnc:    enc,
		FromEmail:      in.FromEmail,
		FromName:       in.FromName,
		TLSMode:        in.TLSMode,
		TimeoutSeconds: in.TimeoutSeconds,
		Active:         true,
	}
	if err := r.repo.Create(ctx, cfg); err != nil {
		return nil, fmt.Errorf("smtpconfig: create: %w", err)
	}
	return cfg, nil
}

// Deactivate apaga una config guardada. Lo usa el flujo save-then-test
// para hacer rollback de una fila que no pasó TestConnection.
func (r *Resolver) Deactivate(ctx context.Context, tenantID, configID string) error {
	if err := r.repo.Deactivate(ctx, tenantID, configID); err != nil {
		return fmt.Errorf("smtpconfig: deactivate: %w", err)
	}
	logger.From(ctx).Info("smtp config deactivated",
		logger.Component("smtpconfig"),
		logger.TenantID(tenantID),
		logger.String("config_id", configID),
	)
	return nil
}

func applyDefaults(in *Input) {
	if in.Port == 0 {
		in.Port = 587
	}
	if in.TLSMode == "" {
		in.TLSMode = repository.TLSModeAuto
	}
	if in.TimeoutSeconds == 0 {
		in.TimeoutSeconds = 30
	}
}

func clampTimeout(seconds int) time.Duration {
	if seconds < 5 {
		seconds = 5
	}
	if seconds > 120 {
		seconds = 120
	}
	return time.Duration(seconds) * time.Second
}
