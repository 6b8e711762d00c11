package smtpconfig

import (
	"strings"
	"testing"
)

func validInput() Input {
	return Input{
		Host:           "smtp.example.com",
		Port:           587,
		Username:       "mailer",
		Password:       "secret",
		FromEmail:      "no-reply@example.com",
		FromName:       "Example",
		TLSMode:        "starttls",
		TimeoutSeconds: 30,
	}
}

func TestValidateAcceptsConventionalConfig(t *testing.T) {
	ok, reason := Validate(validInput())
	if !ok || reason != "" {
		t.Fatalf("Validate = (%v, %q), want (true, \"\")", ok, reason)
	}

	in := validInput()
	in.TLSMode = "ssl"
	in.Port = 465
	if ok, reason := Validate(in); !ok || reason != "" {
		t.Fatalf("ssl/465 = (%v, %q), want (true, \"\")", ok, reason)
	}
}

func TestValidateHardFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Input)
		want   string
	}{
		{"empty host", func(in *Input) { in.Host = "  " }, "host"},
		{"port zero", func(in *Input) { in.Port = 0 }, "port"},
		{"port too high", func(in *Input) { in.Port = 70000 }, "port"},
		{"timeout too low", func(in *Input) { in.TimeoutSeconds = 3 }, "timeout"},
		{"timeout too high", func(in *Input) { in.TimeoutSeconds = 600 }, "timeout"},
		{"bad from", func(in *Input) { in.FromEmail = "not-an-address" }, "from address"},
		{"bad tls mode", func(in *Input) { in.TLSMode = "tlsv9" }, "tls mode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			ok, reason := Validate(in)
			if ok {
				t.Fatalf("expected hard failure, got ok with reason %q", reason)
			}
			if !strings.Contains(reason, tc.want) {
				t.Fatalf("reason %q does not mention %q", reason, tc.want)
			}
		})
	}
}

func TestValidatePortConventionWarningsDoNotBlock(t *testing.T) {
	in := validInput()
	in.TLSMode = "ssl"
	in.Port = 587
	ok, reason := Validate(in)
	if !ok {
		t.Fatal("port convention mismatch must not block")
	}
	if !strings.Contains(reason, "465") {
		t.Fatalf("reason %q should mention the conventional port", reason)
	}

	in = validInput()
	in.TLSMode = "starttls"
	in.Port = 2525
	ok, reason = Validate(in)
	if !ok {
		t.Fatal("port convention mismatch must not block")
	}
	if reason == "" {
		t.Fatal("expected an advisory reason")
	}
}
