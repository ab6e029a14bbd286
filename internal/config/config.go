package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port          int     `yaml:"port"`
		RatePerSecond float64 `yaml:"rate_per_second"`
		RateBurst     int     `yaml:"rate_burst"`
	} `yaml:"server"`

	Google struct {
		CalendarID   string `yaml:"calendar_id"`
		SheetID      string `yaml:"sheet_id"`
		SheetName    string `yaml:"sheet_name"`
		ClientID     string `yaml:"oauth_client_id"`
		ClientSecret string `yaml:"oauth_client_secret"`
		RefreshToken string `yaml:"oauth_refresh_token"`
	} `yaml:"google"`

	Studio struct {
		Name          string   `yaml:"name"`
		Timezone      string   `yaml:"timezone"`
		OwnerEmail    string   `yaml:"owner_email"`
		WhatsappPhone string   `yaml:"whatsapp_phone"`
		DepositLine   string   `yaml:"deposit_line"`
		BankLines     []string `yaml:"bank_lines"`
	} `yaml:"studio"`

	Mail struct {
		BrevoAPIKey string `yaml:"brevo_api_key"`
		SenderName  string `yaml:"sender_name"`
		SenderEmail string `yaml:"sender_email"`
	} `yaml:"mail"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RatePerSecond <= 0 {
		cfg.Server.RatePerSecond = 5
	}
	if cfg.Server.RateBurst <= 0 {
		cfg.Server.RateBurst = 10
	}
	if cfg.Google.SheetName == "" {
		cfg.Google.SheetName = "Reservas"
	}
	if cfg.Studio.Timezone == "" {
		cfg.Studio.Timezone = "America/Santiago"
	}
	if cfg.Studio.DepositLine == "" {
		cfg.Studio.DepositLine = "Para apartar tu hora debes enviar una reserva de $5.000 pesos, la cual se descuenta del valor total del servicio."
	}

	return &cfg, nil
}

// Validate fails fast on any missing required option so a misconfigured
// process never reaches the point of serving requests.
func (c *Config) Validate() error {
	required := []struct {
		value, name string
	}{
		{c.Google.CalendarID, "google.calendar_id"},
		{c.Google.SheetID, "google.sheet_id"},
		{c.Google.ClientID, "google.oauth_client_id"},
		{c.Google.ClientSecret, "google.oauth_client_secret"},
		{c.Google.RefreshToken, "google.oauth_refresh_token"},
		{c.Studio.Name, "studio.name"},
		{c.Studio.OwnerEmail, "studio.owner_email"},
		{c.Studio.WhatsappPhone, "studio.whatsapp_phone"},
		{c.Mail.BrevoAPIKey, "mail.brevo_api_key"},
		{c.Mail.SenderName, "mail.sender_name"},
		{c.Mail.SenderEmail, "mail.sender_email"},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("config: %s is required", r.name)
		}
	}
	if len(c.Studio.BankLines) == 0 {
		return fmt.Errorf("config: studio.bank_lines is required")
	}
	if _, err := time.LoadLocation(c.Studio.Timezone); err != nil {
		return fmt.Errorf("config: invalid studio.timezone %q: %w", c.Studio.Timezone, err)
	}
	return nil
}

// Location returns the studio's time zone. Call Validate first.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Studio.Timezone)
}

func (c *Config) CacheTTL() time.Duration {
	if c.Redis.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}
