package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.App.Env != "dev" || c.Log.Level != "info" {
		t.Fatalf("ambient defaults: %+v", c)
	}
	if c.Storage.Driver != "postgres" {
		t.Fatalf("storage driver = %q, want postgres", c.Storage.Driver)
	}
	if c.Idempotency.Backend != "store" || c.Idempotency.TTL != 24*time.Hour {
		t.Fatalf("idempotency defaults: %+v", c.Idempotency)
	}
	if c.Engine.TenantConcurrency != 10 {
		t.Fatalf("tenant concurrency = %d, want 10", c.Engine.TenantConcurrency)
	}
	if c.SMTP.Port != 587 || c.SMTP.TLS != "auto" || c.SMTP.TimeoutSeconds != 30 {
		t.Fatalf("smtp defaults: %+v", c.SMTP)
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
app:
  env: prod
storage:
  driver: memory
smtp:
  host: smtp.yaml.example.com
  port: 465
  tls: ssl
engine:
  tenant_concurrency: 3
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	// El entorno pisa al YAML.
	t.Setenv("SMTP_HOST", "smtp.env.example.com")
	t.Setenv("IDEMPOTENCY_TTL", "1h")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.App.Env != "prod" {
		t.Fatalf("env = %q, want prod (from yaml)", c.App.Env)
	}
	if c.Storage.Driver != "memory" {
		t.Fatalf("driver = %q, want memory", c.Storage.Driver)
	}
	if c.SMTP.Host != "smtp.env.example.com" {
		t.Fatalf("host = %q, env must win over yaml", c.SMTP.Host)
	}
	if c.SMTP.Port != 465 || c.SMTP.TLS != "ssl" {
		t.Fatalf("smtp yaml values lost: %+v", c.SMTP)
	}
	if c.Idempotency.TTL != time.Hour {
		t.Fatalf("ttl = %v, want 1h from env", c.Idempotency.TTL)
	}
	if c.Engine.TenantConcurrency != 3 {
		t.Fatalf("concurrency = %d, want 3", c.Engine.TenantConcurrency)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
