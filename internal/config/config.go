package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Port  string `mapstructure:"PORT"`
	Env   string `mapstructure:"ENV"`
	Store string `mapstructure:"BOARD_STORE"`

	SeedFile        string        `mapstructure:"BOARD_SEED_FILE"`
	RefreshInterval time.Duration `mapstructure:"BOARD_REFRESH_INTERVAL"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBSchema    string `mapstructure:"DB_SCHEMA"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string `mapstructure:"AUTH_AUDIENCE"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
	LogFile     string   `mapstructure:"LOG_FILE"`
	LogLevel    string   `mapstructure:"LOG_LEVEL"`

	MQTTBrokerURL string `mapstructure:"MQTT_BROKER_URL"`
	MQTTClientID  string `mapstructure:"MQTT_CLIENT_ID"`
	MQTTTopic     string `mapstructure:"MQTT_TOPIC"`
	MQTTUsername  string `mapstructure:"MQTT_USERNAME"`
	MQTTPassword  string `mapstructure:"MQTT_PASSWORD"`
	MQTTQoS       byte   `mapstructure:"MQTT_QOS"`

	SMSProviderURL string   `mapstructure:"SMS_PROVIDER_URL"`
	SMSAccountSID  string   `mapstructure:"SMS_ACCOUNT_SID"`
	SMSAuthToken   string   `mapstructure:"SMS_AUTH_TOKEN"`
	SMSFromNumber  string   `mapstructure:"SMS_FROM_NUMBER"`
	AlertSMSTo     []string `mapstructure:"ALERT_SMS_TO"`
}

var keys = []string{
	"PORT", "ENV", "BOARD_STORE", "BOARD_SEED_FILE", "BOARD_REFRESH_INTERVAL",
	"DATABASE_URL", "DB_SCHEMA", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"AUTH_SIGNING_KEY", "AUTH_ISSUER", "AUTH_AUDIENCE",
	"CORS_ORIGINS", "LOG_FILE", "LOG_LEVEL",
	"MQTT_BROKER_URL", "MQTT_CLIENT_ID", "MQTT_TOPIC", "MQTT_USERNAME", "MQTT_PASSWORD", "MQTT_QOS",
	"SMS_PROVIDER_URL", "SMS_ACCOUNT_SID", "SMS_AUTH_TOKEN", "SMS_FROM_NUMBER", "ALERT_SMS_TO",
}

// Load reads configuration from the environment and an optional .env file
// in the working directory. It does not validate; call Validate.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("BOARD_STORE", StoreMemory)
	v.SetDefault("BOARD_REFRESH_INTERVAL", "30s")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("AUTH_ISSUER", "trackboard")
	v.SetDefault("AUTH_AUDIENCE", "trackboard")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MQTT_CLIENT_ID", "trackboard-server")
	v.SetDefault("MQTT_TOPIC", "trackboard/snapshot")
	v.SetDefault("MQTT_QOS", 1)

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// a missing .env is fine
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.AlertSMSTo = splitList(v.GetString("ALERT_SMS_TO"))
	return cfg, nil
}

// splitList parses a comma separated env value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// FeedEnabled reports whether the MQTT snapshot feed should run.
func (c *Config) FeedEnabled() bool {
	return c.MQTTBrokerURL != ""
}

// SMSEnabled reports whether a real messaging provider is configured.
func (c *Config) SMSEnabled() bool {
	return c.SMSProviderURL != ""
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when BOARD_STORE=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("BOARD_STORE must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store)
	}

	if c.RefreshInterval < time.Second {
		return fmt.Errorf("BOARD_REFRESH_INTERVAL must be at least 1s, got %s", c.RefreshInterval)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}

	if !c.IsDev() && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY of at least 32 bytes is required when ENV=%q", c.Env)
	}

	if c.MQTTQoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", c.MQTTQoS)
	}
	if c.FeedEnabled() {
		if _, err := url.Parse(c.MQTTBrokerURL); err != nil {
			return fmt.Errorf("MQTT_BROKER_URL: %w", err)
		}
	}

	if c.SMSEnabled() && (c.SMSAccountSID == "" || c.SMSAuthToken == "" || c.SMSFromNumber == "") {
		return fmt.Errorf("SMS_ACCOUNT_SID, SMS_AUTH_TOKEN and SMS_FROM_NUMBER are required with SMS_PROVIDER_URL")
	}
	return nil
}
