package email

import (
	"net"
	"strings"
)

// Códigos de diagnóstico de errores de transporte.
const (
	DiagTimeout          = "timeout"
	DiagDial             = "dial"
	DiagTLS              = "tls"
	DiagAuth             = "auth"
	DiagRateLimited      = "rate_limited"
	DiagInvalidRecipient = "invalid_recipient"
	DiagRejected         = "rejected"
	DiagNetwork          = "network"
	DiagUnknown          = "unknown"
)

// Diag clasifica un error SMTP para decidir el reintento.
type Diag struct {
	Code      string
	Retryable bool
}

// Describe retorna una descripción corta y legible del código.
func (d Diag) Describe() string {
	switch d.Code {
	case DiagTimeout:
		return "connection timed out"
	case DiagDial:
		return "could not connect to server"
	case DiagTLS:
		return "TLS handshake failed"
	case DiagAuth:
		return "authentication rejected"
	case DiagRateLimited:
		return "server is throttling (temporary)"
	case DiagInvalidRecipient:
		return "recipient rejected"
	case DiagRejected:
		return "message rejected by policy"
	case DiagNetwork:
		return "network error"
	default:
		return "unclassified error"
	}
}

// Diagnose clasifica un error de transporte según la taxonomía del
// engine: timeouts, conexión y throttling 4xx son reintentables; auth,
// TLS, destinatario inválido y rechazos 5xx son permanentes. Lo no
// clasificado se trata como permanente para no reintentar a ciegas.
func Diagnose(err error) Diag {
	if err == nil {
		return Diag{Code: DiagUnknown}
	}
	s := strings.ToLower(err.Error())

	// timeouts
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return Diag{Code: DiagTimeout, Retryable: true}
	}
	if strings.Contains(s, "timeout") || strings.Contains(s, "i/o timeout") {
		return Diag{Code: DiagTimeout, Retryable: true}
	}

	// dial/conn/dns
	if strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connectex:") || // windows
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "dial tcp") {
		return Diag{Code: DiagDial, Retryable: true}
	}

	// tls/handshake/cert
	if strings.Contains(s, "x509:") ||
		strings.Contains(s, "tls") && (strings.Contains(s, "handshake") || strings.Contains(s, "certificate")) {
		return Diag{Code: DiagTLS, Retryable: false}
	}

	// auth (credenciales/permiso)
	if strings.Contains(s, "5.7.8") || strings.Contains(s, "535") ||
		strings.Contains(s, "username and password not accepted") ||
		strings.Contains(s, "authentication failed") ||
		strings.Contains(s, "auth") && strings.Contains(s, "failed") {
		return Diag{Code: DiagAuth, Retryable: false}
	}

	// throttling temporal (4.x.x)
	if strings.Contains(s, "4.7.0") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "try again later") ||
		strings.Contains(s, "temporarily unavailable") ||
		strings.Contains(s, "451") || strings.Contains(s, "421") {
		return Diag{Code: DiagRateLimited, Retryable: true}
	}

	// destinatario inválido
	if strings.Contains(s, "5.1.1") || strings.Contains(s, "user unknown") ||
		strings.Contains(s, "mailbox not found") {
		return Diag{Code: DiagInvalidRecipient, Retryable: false}
	}

	// políticas/DMARC/SPF/rechazos 5.7.1
	if strings.Contains(s, "5.7.1") ||
		strings.Contains(s, "message rejected") ||
		strings.Contains(s, "policy") ||
		strings.Contains(s, "dmarc") || strings.Contains(s, "spf") {
		return Diag{Code: DiagRejected, Retryable: false}
	}

	// resto de errores de red
	if _, ok := err.(net.Error); ok {
		return Diag{Code: DiagNetwork, Retryable: true}
	}
	return Diag{Code: DiagUnknown, Retryable: false}
}
