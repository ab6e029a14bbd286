package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfig = `
server:
  port: 9000
google:
  calendar_id: cal@group.calendar.google.com
  sheet_id: sheet-id
  oauth_client_id: client-id
  oauth_client_secret: ${TEST_OAUTH_SECRET}
  oauth_refresh_token: refresh-token
studio:
  name: Vanessa Nails Studio
  owner_email: owner@example.com
  whatsapp_phone: "56991744464"
  bank_lines:
    - "VANESSA MORALES - Cuenta RUT 27774310-8 - Banco Estado"
mail:
  brevo_api_key: brevo-key
  sender_name: Vanessa Nails Studio
  sender_email: owner@example.com
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_OAUTH_SECRET", "expanded-secret")

	cfg, err := Load(writeTestConfig(t, testConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Google.ClientSecret != "expanded-secret" {
		t.Errorf("env placeholder not expanded: %q", cfg.Google.ClientSecret)
	}

	// Defaults
	if cfg.Google.SheetName != "Reservas" {
		t.Errorf("sheet name default = %q, want Reservas", cfg.Google.SheetName)
	}
	if cfg.Studio.Timezone != "America/Santiago" {
		t.Errorf("timezone default = %q, want America/Santiago", cfg.Studio.Timezone)
	}
	if cfg.Server.RatePerSecond != 5 || cfg.Server.RateBurst != 10 {
		t.Errorf("rate defaults = %v/%v", cfg.Server.RatePerSecond, cfg.Server.RateBurst)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
	if _, err := cfg.Location(); err != nil {
		t.Errorf("location: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateMissingFields(t *testing.T) {
	t.Setenv("TEST_OAUTH_SECRET", "s")

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"calendar id", func(c *Config) { c.Google.CalendarID = "" }},
		{"sheet id", func(c *Config) { c.Google.SheetID = "" }},
		{"refresh token", func(c *Config) { c.Google.RefreshToken = "" }},
		{"owner email", func(c *Config) { c.Studio.OwnerEmail = "" }},
		{"whatsapp phone", func(c *Config) { c.Studio.WhatsappPhone = "" }},
		{"bank lines", func(c *Config) { c.Studio.BankLines = nil }},
		{"brevo key", func(c *Config) { c.Mail.BrevoAPIKey = "" }},
		{"timezone", func(c *Config) { c.Studio.Timezone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeTestConfig(t, testConfig))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
