package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar del dominio de entrega de mail. Centralizarlos acá
// mantiene los nombres de campo consistentes entre engine, resolver y store.

// TenantID crea un campo para el ID del tenant.
func TenantID(v string) zap.Field {
	return zap.String("tenant_id", v)
}

// AttemptID crea un campo para el ID del attempt de envío.
func AttemptID(v string) zap.Field {
	return zap.String("attempt_id", v)
}

// Scenario crea un campo para el escenario de email (password_reset, etc).
func Scenario(v string) zap.Field {
	return zap.String("scenario", v)
}

// Recipient crea un campo para el destinatario.
func Recipient(v string) zap.Field {
	return zap.String("to", v)
}

// Host crea un campo para el host SMTP.
func Host(v string) zap.Field {
	return zap.String("smtp_host", v)
}

// Retry crea un campo para el número de reintento (zero-based).
func Retry(v int) zap.Field {
	return zap.Int("retry", v)
}

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Security marca un evento con severidad de seguridad (tamper, key mismatch).
func Security() zap.Field {
	return zap.Bool("security", true)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Duration crea un campo para una duración.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
