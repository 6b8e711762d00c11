package repository

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestTruncatePreview(t *testing.T) {
	short := "hola"
	if got := TruncatePreview(short); got != short {
		t.Fatalf("short body altered: %q", got)
	}

	long := strings.Repeat("x", BodyPreviewLen+100)
	if got := TruncatePreview(long); len([]rune(got)) != BodyPreviewLen {
		t.Fatalf("len = %d, want %d", len([]rune(got)), BodyPreviewLen)
	}

	// El corte es por runas: nunca parte un carácter multibyte.
	accented := strings.Repeat("ñ", BodyPreviewLen+10)
	got := TruncatePreview(accented)
	if !utf8.ValidString(got) {
		t.Fatal("truncation produced invalid UTF-8")
	}
	if len([]rune(got)) != BodyPreviewLen {
		t.Fatalf("rune len = %d, want %d", len([]rune(got)), BodyPreviewLen)
	}
}

func TestIdempotencyRecordExpired(t *testing.T) {
	now := time.Now()
	rec := IdempotencyRecord{ExpiresAt: now.Add(time.Minute)}
	if rec.Expired(now) {
		t.Fatal("record expiring in a minute reported as expired")
	}
	if !rec.Expired(now.Add(2 * time.Minute)) {
		t.Fatal("past-expiry record reported as live")
	}
}
