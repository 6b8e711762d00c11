// Package repository define los tipos de dominio y las interfaces de
// persistencia del motor de envío. Las implementaciones viven en
// internal/store (pg, memory, redis).
package repository

import "time"

// TLS modes soportados por la capa de transporte SMTP.
const (
	TLSModeAuto     = "auto"     // negocia STARTTLS si el servidor lo ofrece
	TLSModeSSL      = "ssl"      // TLS implícito (convencionalmente puerto 465)
	TLSModeStartTLS = "starttls" // upgrade explícito
	TLSModeNone     = "none"
)

// TenantSMTPConfig es la identidad de correo saliente de un tenant.
// El password se persiste únicamente cifrado (PasswordEnc); el engine
// nunca muta estas filas.
type TenantSMTPConfig struct {
	ID             string
	TenantID       string
	Host           string
	Port           int
	Username       string
	PasswordEnc    string // blob secretbox, nunca plaintext
	FromEmail      string
	FromName       string
	TLSMode        string // auto | ssl | starttls | none
	TimeoutSeconds int
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AttemptStatus es el estado de ciclo de vida de un EmailAttempt.
type AttemptStatus string

const (
	AttemptPending AttemptStatus = "pending"
	AttemptSent    AttemptStatus = "sent"
	AttemptFailed  AttemptStatus = "failed"
)

// BodyPreviewLen es el largo máximo del preview de cuerpo persistido.
const BodyPreviewLen = 500

// EmailAttempt es el registro de auditoría: una fila por request lógico
// de envío, no por reintento de red. Transiciona exactamente una vez de
// pending a sent o failed; sólo la unidad de background dueña lo muta.
type EmailAttempt struct {
	ID          string
	TenantID    string
	Recipient   string
	Scenario    string
	Subject     string // poblado después del render
	BodyPreview string // primeros 500 chars del cuerpo de texto
	Status      AttemptStatus
	SentAt      *time.Time
	ErrorDetail string
	// RetryCount cuenta los intentos de transmisión extra consumidos:
	// 0 = salió (o falló definitivo) al primer intento.
	RetryCount int

	IdempotencyKey    *string
	IdempotencyExpiry *time.Time

	CreatedAt time.Time
}

// IdempotencyRecord deduplica reenvíos del mismo request lógico.
// La dupla (TenantID, Key) es única; un registro vencido se trata como
// ausente.
type IdempotencyRecord struct {
	TenantID  string
	Key       string
	AttemptID string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reporta si el registro ya venció respecto de now.
func (r *IdempotencyRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// TruncatePreview recorta un cuerpo de texto al largo de preview persistible.
func TruncatePreview(textBody string) string {
	runes := []rune(textBody)
	if len(runes) <= BodyPreviewLen {
		return textBody
	}
	return string(runes[:BodyPreviewLen])
}
