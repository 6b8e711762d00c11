package email

import (
	"crypto/tls"
	"fmt"
	"time"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/mailroom/internal/observability/logger"
)

// SMTPConfig son los parámetros de conexión ya resueltos y descifrados
// para un envío. Nunca se persiste en esta forma.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string // plain, ya descifrada
	FromEmail string
	FromName  string
	TLSMode   string // auto | ssl | starttls | none
	Timeout   time.Duration
}

// Sender envía un mensaje ya renderizado. La implementación de
// producción es SMTPSender; los tests inyectan stubs.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPSender implementa Sender sobre go-mail.
type SMTPSender struct {
	cfg SMTPConfig

	// InsecureSkipVerify sólo para dev contra servidores self-signed.
	InsecureSkipVerify bool
}

// NewSMTPSender construye un sender desde una config resuelta.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.TLSMode == "" {
		cfg.TLSMode = "auto"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) dialer() *mail.Dialer {
	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.Timeout = s.cfg.Timeout
	d.TLSConfig = &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: s.InsecureSkipVerify,
	}

	switch s.cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.StartTLSPolicy = mail.NoStartTLS
	case "starttls":
		d.StartTLSPolicy = mail.MandatoryStartTLS
	default:
		// "auto": go-mail negocia STARTTLS si el servidor lo ofrece
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	}
	return d
}

// Send envía un mensaje MIME de dos partes (texto + HTML).
func (s *SMTPSender) Send(to, subject, htmlBody, textBody string) error {
	log := logger.L().With(
		logger.Component("smtp"),
		logger.Host(s.cfg.Host),
		logger.Int("port", s.cfg.Port),
		logger.Recipient(to),
	)

	m := mail.NewMessage()
	if s.cfg.FromName != "" {
		m.SetAddressHeader("From", s.cfg.FromEmail, s.cfg.FromName)
	} else {
		m.SetHeader("From", s.cfg.FromEmail)
	}
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer().DialAndSend(m); err != nil {
		log.Debug("smtp send failed", logger.Err(err))
		return fmt.Errorf("smtp send: %w", err)
	}

	log.Debug("smtp send ok")
	return nil
}

// TestConnection conecta y autentica contra el servidor sin enviar
// ningún mensaje. Retorna (false, motivo legible) en caso de falla; se
// usa para validar una config antes de activarla.
func TestConnection(cfg SMTPConfig) (bool, string) {
	s := NewSMTPSender(cfg)
	sc, err := s.dialer().Dial()
	if err != nil {
		diag := Diagnose(err)
		return false, fmt.Sprintf("%s: %v", diag.Describe(), err)
	}
	_ = sc.Close()
	return true, ""
}
