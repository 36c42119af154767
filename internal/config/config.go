package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
}

type SMSGatewayConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	SenderID string `yaml:"sender_id"`
	DryRun   bool   `yaml:"dry_run"`

	// connection pool bounds
	MaxConnections        int `yaml:"max_connections"`
	MaxIdleConnections    int `yaml:"max_idle_connections"`
	IdleTimeoutSeconds    int `yaml:"idle_timeout_seconds"`
	AcquireTimeoutSeconds int `yaml:"acquire_timeout_seconds"`
}

type VerificationConfig struct {
	CodeLength               int `yaml:"code_length"`
	MaxRetry                 int `yaml:"max_retry"`
	VerifiedExtensionSeconds int `yaml:"verified_extension_seconds"`
	EmailTTLSeconds          int `yaml:"email_ttl_seconds"`
	SMSTTLSeconds            int `yaml:"sms_ttl_seconds"`
}

func (c VerificationConfig) VerifiedExtension() time.Duration {
	return time.Duration(c.VerifiedExtensionSeconds) * time.Second
}

func (c VerificationConfig) EmailTTL() time.Duration {
	return time.Duration(c.EmailTTLSeconds) * time.Second
}

func (c VerificationConfig) SMSTTL() time.Duration {
	return time.Duration(c.SMSTTLSeconds) * time.Second
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`
	Email        EmailConfig        `yaml:"email"`
	SMSGateway   SMSGatewayConfig   `yaml:"sms_gateway"`
	Verification VerificationConfig `yaml:"verification"`
}

func LoadConfig() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}

	f, err := os.Open(path)
	if err != nil {
		panic("Failed to open " + path + ": " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse " + path + ": " + err.Error())
	}
	return &cfg
}
