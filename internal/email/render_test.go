package email

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func mustRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestRenderUnknownScenario(t *testing.T) {
	r := mustRenderer(t)
	_, err := r.Render("no_such_scenario", "en", nil)
	if !errors.Is(err, ErrUnknownScenario) {
		t.Fatalf("expected ErrUnknownScenario, got %v", err)
	}
}

func TestRenderReportsAllMissingVariables(t *testing.T) {
	r := mustRenderer(t)
	_, err := r.Render("password_reset", "en", map[string]any{})

	var mv *MissingVarsError
	if !errors.As(err, &mv) {
		t.Fatalf("expected MissingVarsError, got %v", err)
	}
	want := []string{"expires_in_hours", "reset_link", "user_name"}
	if len(mv.Missing) != len(want) {
		t.Fatalf("missing = %v, want %v", mv.Missing, want)
	}
	for i, name := range want {
		if mv.Missing[i] != name {
			t.Fatalf("missing = %v, want %v (sorted)", mv.Missing, want)
		}
	}
	// El mensaje nombra las tres de una vez.
	for _, name := range want {
		if !strings.Contains(mv.Error(), name) {
			t.Errorf("error message %q does not mention %q", mv.Error(), name)
		}
	}
}

func TestRenderReportsMistypedVariables(t *testing.T) {
	r := mustRenderer(t)
	_, err := r.Render("password_reset", "en", map[string]any{
		"reset_link":       "https://example.com/r/abc",
		"user_name":        "Ana",
		"expires_in_hours": true, // ni número ni string numérico
	})

	var mv *MissingVarsError
	if !errors.As(err, &mv) {
		t.Fatalf("expected MissingVarsError, got %v", err)
	}
	if len(mv.Mistyped) != 1 || mv.Mistyped[0] != "expires_in_hours" {
		t.Fatalf("mistyped = %v, want [expires_in_hours]", mv.Mistyped)
	}
}

func TestRenderEscapesHTMLInVariables(t *testing.T) {
	r := mustRenderer(t)
	msg, err := r.Render("welcome", "en", map[string]any{
		"user_name": `<script>alert(1)</script>`,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(msg.HTML, "<script>alert(1)</script>") {
		t.Fatal("raw script tag leaked into HTML body")
	}
	if !strings.Contains(msg.HTML, "&lt;script&gt;") {
		t.Fatalf("expected escaped markup in HTML body, got: %s", msg.HTML)
	}
	// El cuerpo de texto no es HTML: va tal cual.
	if !strings.Contains(msg.Text, "<script>alert(1)</script>") {
		t.Fatal("text body should carry the value verbatim")
	}
}

func TestRenderProducesBothBodiesAndWrapper(t *testing.T) {
	r := mustRenderer(t)
	msg, err := r.Render("test", "en", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if msg.Subject == "" || msg.HTML == "" || msg.Text == "" {
		t.Fatalf("incomplete message: %+v", msg)
	}
	if !strings.HasPrefix(msg.HTML, "<!DOCTYPE html>") {
		t.Fatal("HTML body missing shared header")
	}
	if !strings.HasSuffix(msg.HTML, "</html>") {
		t.Fatal("HTML body missing shared footer")
	}
}

func TestRenderLanguageFallback(t *testing.T) {
	r := mustRenderer(t)

	// Idioma desconocido cae al fallback sin error.
	got, err := r.Render("password_reset", "fr", map[string]any{
		"reset_link":       "https://example.com/r/abc",
		"user_name":        "Ana",
		"expires_in_hours": 24,
	})
	if err != nil {
		t.Fatalf("Render(fr): %v", err)
	}
	if got.Subject != "Reset your password" {
		t.Fatalf("subject = %q, want english fallback", got.Subject)
	}

	// Idioma soportado se respeta.
	es, err := r.Render("password_reset", "es", map[string]any{
		"reset_link":       "https://example.com/r/abc",
		"user_name":        "Ana",
		"expires_in_hours": 24,
	})
	if err != nil {
		t.Fatalf("Render(es): %v", err)
	}
	if es.Subject != "Restablecé tu contraseña" {
		t.Fatalf("subject = %q, want spanish", es.Subject)
	}
}

func TestRenderOptionalDefault(t *testing.T) {
	r := mustRenderer(t)
	msg, err := r.Render("password_reset", "en", map[string]any{
		"reset_link":       "https://example.com/r/abc",
		"user_name":        "Ana",
		"expires_in_hours": 24,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// support_email ausente: el bloque condicional no aparece.
	if strings.Contains(msg.Text, "Questions?") {
		t.Fatal("optional block rendered without a value")
	}

	withSupport, err := r.Render("password_reset", "en", map[string]any{
		"reset_link":       "https://example.com/r/abc",
		"user_name":        "Ana",
		"expires_in_hours": 24,
		"support_email":    "help@example.com",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(withSupport.Text, "help@example.com") {
		t.Fatal("optional value not interpolated")
	}
}

func TestRenderNumberAcceptsNumericString(t *testing.T) {
	r := mustRenderer(t)
	msg, err := r.Render("password_reset", "en", map[string]any{
		"reset_link":       "https://example.com/r/abc",
		"user_name":        "Ana",
		"expires_in_hours": "48",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(msg.Text, "48 hours") {
		t.Fatalf("numeric string not interpolated: %s", msg.Text)
	}
}

func TestRenderDateNormalization(t *testing.T) {
	r := mustRenderer(t)

	base := map[string]any{
		"customer_name":  "ACME",
		"invoice_number": "F-0042",
		"amount":         "$ 1.250,00",
	}

	cases := []struct {
		name string
		due  any
		want string
	}{
		{"time.Time", time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC), "01 Mar 2026 09:30"},
		{"date-only string", "2026-03-01", "01 Mar 2026"},
		{"rfc3339 string", "2026-03-01T09:30:00Z", "01 Mar 2026 09:30"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vars := map[string]any{"due_date": tc.due}
			for k, v := range base {
				vars[k] = v
			}
			msg, err := r.Render("invoice_created", "en", vars)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if !strings.Contains(msg.Text, tc.want) {
				t.Fatalf("text %q does not contain %q", msg.Text, tc.want)
			}
		})
	}

	t.Run("garbage string", func(t *testing.T) {
		vars := map[string]any{"due_date": "next tuesday"}
		for k, v := range base {
			vars[k] = v
		}
		_, err := r.Render("invoice_created", "en", vars)
		var mv *MissingVarsError
		if !errors.As(err, &mv) {
			t.Fatalf("expected MissingVarsError, got %v", err)
		}
		if len(mv.Mistyped) != 1 || mv.Mistyped[0] != "due_date" {
			t.Fatalf("mistyped = %v, want [due_date]", mv.Mistyped)
		}
	})
}
