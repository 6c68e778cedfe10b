// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the submission relay.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shineum/submission-relay/internal/submission"
)

// defaultMaxBodyBytes bounds the submission request body (64 KiB).
const defaultMaxBodyBytes = 65536

// Config holds the complete application configuration.
type Config struct {
	Provider   string           `yaml:"provider"`
	HTTP       HTTPConfig       `yaml:"http"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Submission SubmissionConfig `yaml:"submission"`
	Compose    ComposeConfig    `yaml:"compose"`
	Graph      GraphConfig      `yaml:"graph"`
	SES        SESConfig        `yaml:"ses"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Spool      SpoolConfig      `yaml:"spool"`
	TLS        TLSConfig        `yaml:"tls"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// HTTPConfig holds HTTP listener configuration.
type HTTPConfig struct {
	Listen       string        `yaml:"listen"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// GatewayConfig holds the connectors mailer configuration.
type GatewayConfig struct {
	Hostname        string `yaml:"hostname"`
	IdentityCommand string `yaml:"identity_command"`
	// Token, when set, replaces the identity command with a fixed token.
	Token string `yaml:"token"`
}

// SubmissionConfig addresses relayed submissions.
type SubmissionConfig struct {
	Recipient      string `yaml:"recipient"`
	Bcc            string `yaml:"bcc"`
	Subject        string `yaml:"subject"`
	AttachmentName string `yaml:"attachment_name"`
}

// ComposeConfig addresses the browser compose links.
type ComposeConfig struct {
	Recipient string `yaml:"recipient"`
	Bcc       string `yaml:"bcc"`
	Subject   string `yaml:"subject"`
}

// GraphConfig holds Microsoft Graph API configuration.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Sender       string `yaml:"sender"`
}

// SESConfig holds AWS SES configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Sender          string `yaml:"sender"`
}

// SMTPConfig holds outbound SMTP relay configuration.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Sender   string `yaml:"sender"`
}

// SpoolConfig holds the .eml spool configuration.
type SpoolConfig struct {
	Dir string `yaml:"dir"`
}

// TLSConfig holds listener TLS settings.
type TLSConfig struct {
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SubmissionAddressing returns the fixed addressing handed to the
// submission composer.
func (c *Config) SubmissionAddressing() submission.Config {
	return submission.Config{
		Recipient:      c.Submission.Recipient,
		Bcc:            c.Submission.Bcc,
		Subject:        c.Submission.Subject,
		AttachmentName: c.Submission.AttachmentName,
		Compose: submission.ComposeConfig{
			Recipient: c.Compose.Recipient,
			Bcc:       c.Compose.Bcc,
			Subject:   c.Compose.Subject,
		},
	}
}

// GatewayConfigured returns true if the connectors hostname is set.
func (c *Config) GatewayConfigured() bool {
	return c.Gateway.Hostname != ""
}

// GraphConfigured returns true if all required Graph API fields are set.
func (c *Config) GraphConfigured() bool {
	return c.Graph.TenantID != "" &&
		c.Graph.ClientID != "" &&
		c.Graph.ClientSecret != "" &&
		c.Graph.Sender != ""
}

// SESConfigured returns true if the SES region and sender are set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != "" && c.SES.Sender != ""
}

// SMTPConfigured returns true if the SMTP host and sender are set.
func (c *Config) SMTPConfigured() bool {
	return c.SMTP.Host != "" && c.SMTP.Sender != ""
}

// SpoolConfigured returns true if a spool directory is set.
func (c *Config) SpoolConfigured() bool {
	return c.Spool.Dir != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.HTTP.Listen = ":5000"
	c.HTTP.ReadTimeout = 15 * time.Second
	c.HTTP.WriteTimeout = 30 * time.Second
	c.HTTP.MaxBodyBytes = defaultMaxBodyBytes

	c.Gateway.IdentityCommand = "replit"

	defaults := submission.DefaultConfig()
	c.Submission.Recipient = defaults.Recipient
	c.Submission.Bcc = defaults.Bcc
	c.Submission.Subject = defaults.Subject
	c.Submission.AttachmentName = defaults.AttachmentName
	c.Compose.Recipient = defaults.Compose.Recipient
	c.Compose.Bcc = defaults.Compose.Bcc
	c.Compose.Subject = defaults.Compose.Subject

	c.SMTP.Port = 587
	c.TLS.Mode = "off"
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() error {
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	setString(&c.HTTP.Listen, "HTTP_LISTEN")
	if err := setDuration(&c.HTTP.ReadTimeout, "HTTP_READ_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.HTTP.WriteTimeout, "HTTP_WRITE_TIMEOUT"); err != nil {
		return err
	}
	if v := os.Getenv("HTTP_MAX_BODY_BYTES"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.HTTP.MaxBodyBytes = size
		}
	}

	setString(&c.Gateway.Hostname, "REPLIT_CONNECTORS_HOSTNAME")
	setString(&c.Gateway.IdentityCommand, "GATEWAY_IDENTITY_COMMAND")
	setString(&c.Gateway.Token, "GATEWAY_TOKEN")

	setString(&c.Submission.Recipient, "SUBMISSION_RECIPIENT")
	setString(&c.Submission.Bcc, "SUBMISSION_BCC")
	setString(&c.Submission.Subject, "SUBMISSION_SUBJECT")
	setString(&c.Submission.AttachmentName, "SUBMISSION_ATTACHMENT_NAME")

	setString(&c.Compose.Recipient, "COMPOSE_RECIPIENT")
	setString(&c.Compose.Bcc, "COMPOSE_BCC")
	setString(&c.Compose.Subject, "COMPOSE_SUBJECT")

	setString(&c.Graph.TenantID, "GRAPH_TENANT_ID")
	setString(&c.Graph.ClientID, "GRAPH_CLIENT_ID")
	setString(&c.Graph.ClientSecret, "GRAPH_CLIENT_SECRET")
	setString(&c.Graph.Sender, "GRAPH_SENDER")

	setString(&c.SES.Region, "SES_REGION")
	setString(&c.SES.AccessKeyID, "SES_ACCESS_KEY_ID")
	setString(&c.SES.SecretAccessKey, "SES_SECRET_ACCESS_KEY")
	setString(&c.SES.Sender, "SES_SENDER")

	setString(&c.SMTP.Host, "SMTP_HOST")
	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		c.SMTP.Port = port
	}
	setString(&c.SMTP.Username, "SMTP_USERNAME")
	setString(&c.SMTP.Password, "SMTP_PASSWORD")
	setString(&c.SMTP.Sender, "SMTP_SENDER")

	setString(&c.Spool.Dir, "SPOOL_DIR")

	if v := os.Getenv("TLS_MODE"); v != "" {
		c.TLS.Mode = strings.ToLower(v)
	}
	setString(&c.TLS.CertFile, "TLS_CERT_FILE")
	setString(&c.TLS.KeyFile, "TLS_KEY_FILE")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
