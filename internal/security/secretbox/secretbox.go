// Package secretbox cifra secretos en reposo (passwords SMTP de tenants)
// con AES-256-GCM. El blob resultante es autodescriptivo:
// base64(nonce)|base64(ciphertext) — una sola columna, sin nonce aparte.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dropDatabas3/mailroom/internal/observability/logger"
)

const (
	nonceSizeGCM      = 12  // AES-GCM nonce recomendado (96 bits)
	requiredKeyLength = 32  // 32 bytes => AES-256
	sep               = "|" // nonce|ciphertext (ambos en base64)
)

// DecryptionError indica que un blob no pudo descifrarse: formato inválido,
// tag de autenticación incorrecto (tamper) o clave equivocada.
// Nunca incluye el plaintext ni material de clave.
type DecryptionError struct {
	Reason string
}

func (e *DecryptionError) Error() string {
	return "secretbox: decryption failed: " + e.Reason
}

// ErrMissingKey se retorna cuando la clave maestra no está configurada.
// El proceso no debe arrancar sin ella.
var ErrMissingKey = errors.New("secretbox: master key not set; generate one with: openssl rand -base64 32")

// Cipher cifra y descifra con una clave maestra fija cargada al inicio.
type Cipher struct {
	key []byte
}

// New construye un Cipher desde la clave maestra en base64.
// La clave debe decodificar a exactamente 32 bytes.
func New(masterKeyB64 string) (*Cipher, error) {
	kb64 := strings.TrimSpace(masterKeyB64)
	if kb64 == "" {
		return nil, ErrMissingKey
	}
	k, err := base64.StdEncoding.DecodeString(kb64)
	if err != nil {
		return nil, fmt.Errorf("secretbox: decode master key: %w", err)
	}
	if len(k) != requiredKeyLength {
		return nil, fmt.Errorf("secretbox: master key must decode to %d bytes, got %d", requiredKeyLength, len(k))
	}
	key := make([]byte, len(k))
	copy(key, k)
	return &Cipher{key: key}, nil
}

// Encrypt cifra plainText y devuelve base64(nonce)|base64(ciphertext).
// Cada llamada usa un nonce aleatorio fresco: cifrar el mismo plaintext
// dos veces produce blobs distintos.
func (c *Cipher) Encrypt(plainText string) (string, error) {
	aesgcm, err := c.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secretbox: nonce random: %w", err)
	}

	ct := aesgcm.Seal(nil, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt recibe base64(nonce)|base64(ciphertext) y devuelve el texto plano.
// Verifica el tag de autenticación antes de retornar; un mismatch se loguea
// con severidad de seguridad y retorna *DecryptionError.
func (c *Cipher) Decrypt(cipherText string) (string, error) {
	fail := func(reason string) (string, error) {
		logger.L().Error("secret decryption failed",
			logger.Component("secretbox"),
			logger.Security(),
			logger.String("reason", reason),
		)
		return "", &DecryptionError{Reason: reason}
	}

	parts := strings.Split(cipherText, sep)
	if len(parts) != 2 {
		return fail("invalid format: expected base64(nonce)|base64(ciphertext)")
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return fail("invalid nonce encoding")
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return fail("invalid ciphertext encoding")
	}
	if len(nonce) != nonceSizeGCM {
		return fail(fmt.Sprintf("invalid nonce size: expected %d bytes, got %d", nonceSizeGCM, len(nonce)))
	}

	aesgcm, err := c.aead()
	if err != nil {
		return "", err
	}

	pt, err := aesgcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return fail("authentication tag mismatch")
	}
	return string(pt), nil
}

func (c *Cipher) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("secretbox: aes.NewCipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secretbox: cipher.NewGCM: %w", err)
	}
	return aesgcm, nil
}
