package smtpconfig

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailroom/internal/domain/repository"
	"github.com/dropDatabas3/mailroom/internal/security/secretbox"
	"github.com/dropDatabas3/mailroom/internal/store/memory"
)

func testCipher(t *testing.T) *secretbox.Cipher {
	t.Helper()
	k := make([]byte, 32)
	if _, err := rand.Read(k); err != nil {
		t.Fatal(err)
	}
	c, err := secretbox.New(base64.StdEncoding.EncodeToString(k))
	require.NoError(t, err)
	return c
}

func testFallback() Fallback {
	return Fallback{
		Host:           "fallback.example.com",
		Port:           587,
		Username:       "global",
		Password:       "global-secret",
		FromEmail:      "no-reply@example.com",
		FromName:       "Example CRM",
		TLSMode:        "starttls",
		TimeoutSeconds: 30,
	}
}

func newTestResolver(t *testing.T) (*Resolver, *memory.Store, *secretbox.Cipher) {
	t.Helper()
	st := memory.New()
	cipher := testCipher(t)
	return NewResolver(st.Configs, cipher, testFallback()), st, cipher
}

func TestGetEffectiveConfigNoneIsNil(t *testing.T) {
	r, _, _ := newTestResolver(t)
	cfg, err := r.GetEffectiveConfig(context.Background(), "t1")
	require.NoError(t, err)
	require.Nil(t, cfg)
}

func TestGetDecryptedConfigFallsBackToGlobal(t *testing.T) {
	r, _, _ := newTestResolver(t)
	cfg, err := r.GetDecryptedConfig(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, "fallback.example.com", cfg.Host)
	require.Equal(t, "global-secret", cfg.Password)
	require.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestUpsertCreatesAndDecrypts(t *testing.T) {
	r, _, _ := newTestResolver(t)
	ctx := context.Background()

	created, err := r.Upsert(ctx, "t1", Input{
		Host:      "smtp.t1.example.com",
		Port:      465,
		Username:  "t1-mailer",
		Password:  "t1-secret",
		FromEmail: "ventas@t1.example.com",
		FromName:  "T1",
		TLSMode:   "ssl",
	})
	require.NoError(t, err)
	require.True(t, created.Active)
	require.NotEqual(t, "t1-secret", created.PasswordEnc, "secret must not be stored in plaintext")

	cfg, err := r.GetDecryptedConfig(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "smtp.t1.example.com", cfg.Host)
	require.Equal(t, "t1-secret", cfg.Password)
}

func TestUpsertRequiresPasswordForNewConfig(t *testing.T) {
	r, _, _ := newTestResolver(t)
	_, err := r.Upsert(context.Background(), "t1", Input{
		Host:      "smtp.t1.example.com",
		FromEmail: "ventas@t1.example.com",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpsertUpdatesInPlaceAndKeepsSecret(t *testing.T) {
	r, _, _ := newTestResolver(t)
	ctx := context.Background()

	first, err := r.Upsert(ctx, "t1", Input{
		Host:      "smtp.t1.example.com",
		Password:  "t1-secret",
		FromEmail: "ventas@t1.example.com",
	})
	require.NoError(t, err)

	// Sin password: misma fila, mismo secreto.
	second, err := r.Upsert(ctx, "t1", Input{
		Host:      "smtp2.t1.example.com",
		FromEmail: "ventas@t1.example.com",
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "update must reuse the active row")
	require.Equal(t, first.PasswordEnc, second.PasswordEnc, "empty password keeps the stored secret")

	cfg, err := r.GetDecryptedConfig(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "smtp2.t1.example.com", cfg.Host)
	require.Equal(t, "t1-secret", cfg.Password)

	// Con password nuevo: mismo row, secreto re-cifrado.
	third, err := r.Upsert(ctx, "t1", Input{
		Host:      "smtp2.t1.example.com",
		Password:  "rotated",
		FromEmail: "ventas@t1.example.com",
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, third.ID)
	require.NotEqual(t, first.PasswordEnc, third.PasswordEnc)

	cfg, err = r.GetDecryptedConfig(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "rotated", cfg.Password)
}

func TestUpsertRejectsInvalidInput(t *testing.T) {
	r, _, _ := newTestResolver(t)
	_, err := r.Upsert(context.Background(), "t1", Input{
		Host:      "",
		Password:  "x",
		FromEmail: "ventas@t1.example.com",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestEffectiveConfigIsLatestActive(t *testing.T) {
	r, st, cipher := newTestResolver(t)
	ctx := context.Background()

	enc := func(s string) string {
		out, err := cipher.Encrypt(s)
		require.NoError(t, err)
		return out
	}

	old := &repository.TenantSMTPConfig{
		ID: "cfg-old", TenantID: "t1",
		Host: "old.example.com", Port: 587,
		PasswordEnc: enc("old"),
		FromEmail:   "a@example.com", TLSMode: "auto", TimeoutSeconds: 30,
		Active:    true,
		CreatedAt: time.Now().Add(-time.Hour).UTC(),
	}
	latest := &repository.TenantSMTPConfig{
		ID: "cfg-new", TenantID: "t1",
		Host: "new.example.com", Port: 587,
		PasswordEnc: enc("new"),
		FromEmail:   "a@example.com", TLSMode: "auto", TimeoutSeconds: 30,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Configs.Create(ctx, old))
	require.NoError(t, st.Configs.Create(ctx, latest))

	cfg, err := r.GetDecryptedConfig(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "new.example.com", cfg.Host)
	require.Equal(t, "new", cfg.Password)

	// Desactivar la última vuelve a la anterior.
	require.NoError(t, r.Deactivate(ctx, "t1", "cfg-new"))
	cfg, err = r.GetDecryptedConfig(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "old.example.com", cfg.Host)
}

func TestGetDecryptedConfigSurfacesDecryptionError(t *testing.T) {
	r, st, _ := newTestResolver(t)
	ctx := context.Background()

	require.NoError(t, st.Configs.Create(ctx, &repository.TenantSMTPConfig{
		ID: "cfg-bad", TenantID: "t1",
		Host: "smtp.t1.example.com", Port: 587,
		PasswordEnc: "not|a-valid-blob",
		FromEmail:   "a@example.com", TLSMode: "auto", TimeoutSeconds: 30,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}))

	_, err := r.GetDecryptedConfig(ctx, "t1")
	var derr *secretbox.DecryptionError
	require.True(t, errors.As(err, &derr), "decryption failures keep their error class: %v", err)
}

func TestClampTimeout(t *testing.T) {
	require.Equal(t, 5*time.Second, clampTimeout(1))
	require.Equal(t, 30*time.Second, clampTimeout(30))
	require.Equal(t, 120*time.Second, clampTimeout(999))
}
