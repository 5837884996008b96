package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	defaultQuestionsPerPage = 10
	defaultAnswersPerPage   = 10
	defaultConfirmationTTL  = time.Hour
)

// MailConfig describes outgoing mail delivery. An empty Server together with an empty
// SendGridAPIKey disables mail.
type MailConfig struct {
	Server         string
	Port           int
	UseTLS         bool
	UseSSL         bool
	DefaultSender  string
	Username       string
	Password       string
	SendGridAPIKey string
}

// Enabled reports whether any mail transport is configured.
func (m MailConfig) Enabled() bool {
	return m.Server != "" || m.SendGridAPIKey != ""
}

// Config is the application configuration read once at startup.
type Config struct {
	Env              string
	SecretKey        string
	Mail             MailConfig
	AdminEmail       string
	QuestionsPerPage int
	AnswersPerPage   int
	ConfirmationTTL  time.Duration
	// TrustedProxies lists the proxy addresses or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies   []string
	Database         *DatabaseConfig
}

// Load reads the configuration of the environment selected by ASK_ENV.
func Load() (*Config, error) {
	env := GetEnv()
	if env != EnvDevelopment && env != EnvProduction {
		return nil, fmt.Errorf("unknown environment %q", env)
	}

	dbConfig, err := LoadDatabaseConfig(env)
	if err != nil {
		return nil, err
	}

	c := &Config{
		Env:              env,
		SecretKey:        os.Getenv("SECRET_KEY"),
		AdminEmail:       strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		QuestionsPerPage: defaultQuestionsPerPage,
		AnswersPerPage:   defaultAnswersPerPage,
		ConfirmationTTL:  defaultConfirmationTTL,
		TrustedProxies:   splitList(os.Getenv("ASK_TRUSTED_PROXIES")),
		Database:         dbConfig,
		Mail: MailConfig{
			Server:         strings.TrimSpace(os.Getenv("MAIL_SERVER")),
			DefaultSender:  os.Getenv("MAIL_DEFAULT_SENDER"),
			Username:       os.Getenv("MAIL_USERNAME"),
			Password:       os.Getenv("MAIL_PASSWORD"),
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		},
	}

	if v := os.Getenv("MAIL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAIL_PORT %q: %w", v, err)
		}
		c.Mail.Port = port
	}
	if c.Mail.UseTLS, err = parseFlag("MAIL_USE_TLS"); err != nil {
		return nil, err
	}
	if c.Mail.UseSSL, err = parseFlag("MAIL_USE_SSL"); err != nil {
		return nil, err
	}
	if v := os.Getenv("ASK_CONFIRM_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ASK_CONFIRM_TTL %q: %w", v, err)
		}
		c.ConfirmationTTL = ttl
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the settings that have no safe default.
func (c *Config) Validate() error {
	if c.Mail.Server != "" && (c.Mail.Port <= 0 || c.Mail.Port > 65535) {
		return errors.New("MAIL_PORT must be between 1 and 65535 when MAIL_SERVER is set")
	}
	if c.Mail.UseTLS && c.Mail.UseSSL {
		return errors.New("MAIL_USE_TLS and MAIL_USE_SSL are mutually exclusive")
	}
	if c.QuestionsPerPage <= 0 || c.AnswersPerPage <= 0 {
		return errors.New("page sizes must be positive")
	}
	if c.ConfirmationTTL <= 0 {
		return errors.New("confirmation token lifetime must be positive")
	}
	if c.Database == nil {
		return errors.New("database config is missing")
	}
	return c.Database.ValidateConfig()
}

// RequireSecret fails when no SECRET_KEY was provided. Sessions and confirmation
// tokens cannot be signed without it.
func (c *Config) RequireSecret() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is not set")
	}
	return nil
}

// parseFlag reads the integer flags used by the MAIL_USE_* variables: "0" is false,
// any other integer is true and an empty value is false.
func parseFlag(key string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: expected 0 or 1", key, v)
	}
	return n != 0, nil
}

// splitList splits a comma separated value, dropping blank items. It returns nil for an
// empty value.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
