package smtpconfig

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/dropDatabas3/mailroom/internal/domain/repository"
)

// Validate chequea una config de entrada y retorna (false, motivo) en
// lugar de un error, para que el caller pueda mostrar feedback por campo.
//
// Las advertencias de convención de puerto (ssl↔465, starttls↔587/25)
// NO bloquean: retornan ok=true con el motivo en reason, y queda en el
// caller decidir si mostrarlas.
func Validate(in Input) (bool, string) {
	if strings.TrimSpace(in.Host) == "" {
		return false, "host must not be empty"
	}
	if in.Port < 1 || in.Port > 65535 {
		return false, fmt.Sprintf("port %d out of range [1, 65535]", in.Port)
	}
	if in.TimeoutSeconds < 5 || in.TimeoutSeconds > 120 {
		return false, fmt.Sprintf("timeout %ds out of range [5, 120]", in.TimeoutSeconds)
	}
	if _, err := mail.ParseAddress(in.FromEmail); err != nil {
		return false, fmt.Sprintf("from address %q is not a valid email", in.FromEmail)
	}
	switch in.TLSMode {
	case repository.TLSModeAuto, repository.TLSModeSSL, repository.TLSModeStartTLS, repository.TLSModeNone:
	default:
		return false, fmt.Sprintf("unknown tls mode %q", in.TLSMode)
	}

	// Advertencias de convención, no bloqueantes.
	if in.TLSMode == repository.TLSModeSSL && in.Port != 465 {
		return true, fmt.Sprintf("implicit TLS conventionally uses port 465, got %d", in.Port)
	}
	if in.TLSMode == repository.TLSModeStartTLS && in.Port != 587 && in.Port != 25 {
		return true, fmt.Sprintf("STARTTLS conventionally uses port 587 or 25, got %d", in.Port)
	}

	return true, ""
}
