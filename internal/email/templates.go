package email

// Templates embebidos por idioma. El archivo es largo pero plano:
// un set (subject, html, text) por escenario y por idioma.
//
// El HTML de cada escenario es sólo el cuerpo; el wrapper compartido
// (header + footer) se aplica en el render. Las variables se interpolan
// vía html/template, que escapa todo por defecto.

// FallbackLanguage es el idioma al que se cae, silenciosamente, cuando
// el solicitado no tiene set de templates.
const FallbackLanguage = "en"

type templateSet struct {
	Subject string
	HTML    string
	Text    string
}

const htmlHeader = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:0;background:#f4f5f7;font-family:Arial,Helvetica,sans-serif;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0">
<tr><td align="center" style="padding:24px 12px;">
<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:6px;padding:32px;">
<tr><td>
`

const htmlFooter = `
</td></tr>
</table>
<p style="color:#8a94a6;font-size:12px;margin-top:16px;">
Este es un mensaje automático, por favor no responder. /
This is an automated message, please do not reply.
</p>
</td></tr>
</table>
</body>
</html>`

var templateSets = map[string]map[string]templateSet{
	"en": {
		"password_reset": {
			Subject: "Reset your password",
			HTML: `<h2>Hi {{.user_name}},</h2>
<p>We received a request to reset your password. Click the link below to choose a new one:</p>
<p><a href="{{.reset_link}}">Reset my password</a></p>
<p>The link expires in {{.expires_in_hours}} hours. If you did not request this, you can ignore this email.</p>
{{if .support_email}}<p>Questions? Write to {{.support_email}}.</p>{{end}}`,
			Text: `Hi {{.user_name}},

We received a request to reset your password. Open the link below to choose a new one:

{{.reset_link}}

The link expires in {{.expires_in_hours}} hours. If you did not request this, ignore this email.
{{if .support_email}}
Questions? Write to {{.support_email}}.
{{end}}`,
		},
		"welcome": {
			Subject: "Welcome aboard, {{.user_name}}",
			HTML: `<h2>Welcome, {{.user_name}}!</h2>
<p>Your account is ready.</p>
{{if .login_url}}<p><a href="{{.login_url}}">Sign in to get started</a></p>{{end}}`,
			Text: `Welcome, {{.user_name}}!

Your account is ready.
{{if .login_url}}
Sign in to get started: {{.login_url}}
{{end}}`,
		},
		"invoice_created": {
			Subject: "Invoice {{.invoice_number}}",
			HTML: `<h2>Hello {{.customer_name}},</h2>
<p>Invoice <strong>{{.invoice_number}}</strong> for {{.amount}} has been issued.</p>
<p>Due date: {{.due_date}}</p>
{{if .payment_link}}<p><a href="{{.payment_link}}">Pay online</a></p>{{end}}`,
			Text: `Hello {{.customer_name}},

Invoice {{.invoice_number}} for {{.amount}} has been issued.
Due date: {{.due_date}}
{{if .payment_link}}
Pay online: {{.payment_link}}
{{end}}`,
		},
		"appointment_reminder": {
			Subject: "Appointment reminder - {{.clinic_name}}",
			HTML: `<h2>Hello {{.patient_name}},</h2>
<p>This is a reminder of your appointment at <strong>{{.clinic_name}}</strong> on {{.appointment_date}}.</p>
{{if .notes}}<p>{{.notes}}</p>{{end}}`,
			Text: `Hello {{.patient_name}},

This is a reminder of your appointment at {{.clinic_name}} on {{.appointment_date}}.
{{if .notes}}
{{.notes}}
{{end}}`,
		},
		"device_alert": {
			Subject: "[{{.severity}}] Alert on {{.device_name}}",
			HTML: `<h2>Device alert</h2>
<p>Device <strong>{{.device_name}}</strong> reported:</p>
<p>{{.alert_message}}</p>`,
			Text: `Device alert

Device {{.device_name}} reported:
{{.alert_message}}`,
		},
		"test": {
			Subject: "Mail configuration test",
			HTML: `<h2>It works!</h2>
<p>Your outbound mail configuration is correct.</p>
{{if .tenant_name}}<p>Tenant: {{.tenant_name}}</p>{{end}}`,
			Text: `It works!

Your outbound mail configuration is correct.
{{if .tenant_name}}
Tenant: {{.tenant_name}}
{{end}}`,
		},
	},
	"es": {
		"password_reset": {
			Subject: "Restablecé tu contraseña",
			HTML: `<h2>Hola {{.user_name}},</h2>
<p>Recibimos un pedido para restablecer tu contraseña. Hacé click en el link para elegir una nueva:</p>
<p><a href="{{.reset_link}}">Restablecer mi contraseña</a></p>
<p>El link vence en {{.expires_in_hours}} horas. Si no lo pediste, ignorá este email.</p>
{{if .support_email}}<p>¿Dudas? Escribinos a {{.support_email}}.</p>{{end}}`,
			Text: `Hola {{.user_name}},

Recibimos un pedido para restablecer tu contraseña. Abrí el link para elegir una nueva:

{{.reset_link}}

El link vence en {{.expires_in_hours}} horas. Si no lo pediste, ignorá este email.
{{if .support_email}}
¿Dudas? Escribinos a {{.support_email}}.
{{end}}`,
		},
		"welcome": {
			Subject: "Bienvenido/a, {{.user_name}}",
			HTML: `<h2>¡Bienvenido/a, {{.user_name}}!</h2>
<p>Tu cuenta ya está lista.</p>
{{if .login_url}}<p><a href="{{.login_url}}">Ingresá para empezar</a></p>{{end}}`,
			Text: `¡Bienvenido/a, {{.user_name}}!

Tu cuenta ya está lista.
{{if .login_url}}
Ingresá para empezar: {{.login_url}}
{{end}}`,
		},
		"invoice_created": {
			Subject: "Factura {{.invoice_number}}",
			HTML: `<h2>Hola {{.customer_name}},</h2>
<p>Se emitió la factura <strong>{{.invoice_number}}</strong> por {{.amount}}.</p>
<p>Vencimiento: {{.due_date}}</p>
{{if .payment_link}}<p><a href="{{.payment_link}}">Pagar online</a></p>{{end}}`,
			Text: `Hola {{.customer_name}},

Se emitió la factura {{.invoice_number}} por {{.amount}}.
Vencimiento: {{.due_date}}
{{if .payment_link}}
Pagar online: {{.payment_link}}
{{end}}`,
		},
		"appointment_reminder": {
			Subject: "Recordatorio de turno - {{.clinic_name}}",
			HTML: `<h2>Hola {{.patient_name}},</h2>
<p>Te recordamos tu turno en <strong>{{.clinic_name}}</strong> el {{.appointment_date}}.</p>
{{if .notes}}<p>{{.notes}}</p>{{end}}`,
			Text: `Hola {{.patient_name}},

Te recordamos tu turno en {{.clinic_name}} el {{.appointment_date}}.
{{if .notes}}
{{.notes}}
{{end}}`,
		},
		"device_alert": {
			Subject: "[{{.severity}}] Alerta en {{.device_name}}",
			HTML: `<h2>Alerta de dispositivo</h2>
<p>El dispositivo <strong>{{.device_name}}</strong> reportó:</p>
<p>{{.alert_message}}</p>`,
			Text: `Alerta de dispositivo

El dispositivo {{.device_name}} reportó:
{{.alert_message}}`,
		},
		"test": {
			Subject: "Prueba de configuración de mail",
			HTML: `<h2>¡Funciona!</h2>
<p>Tu configuración de correo saliente es correcta.</p>
{{if .tenant_name}}<p>Tenant: {{.tenant_name}}</p>{{end}}`,
			Text: `¡Funciona!

Tu configuración de correo saliente es correcta.
{{if .tenant_name}}
Tenant: {{.tenant_name}}
{{end}}`,
		},
	},
}
