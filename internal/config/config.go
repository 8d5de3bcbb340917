package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		Driver string
		DSN    string
	}
	Auth struct {
		PublicKey  string
		HMACSecret string
		Issuer     string
		Audience   string
	}
	Log struct {
		Level  string
		Format string
	}
	OTel struct {
		Endpoint string
	}
	Metrics struct {
		Enabled bool
	}
}

// Load reads config from environment (BOOKSWAP_ prefix) and optional bookswap.yaml.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKSWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("bookswap")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics.enabled", true)

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Auth.PublicKey = v.GetString("auth.public_key")
	cfg.Auth.HMACSecret = v.GetString("auth.hmac_secret")
	cfg.Auth.Issuer = v.GetString("auth.issuer")
	cfg.Auth.Audience = v.GetString("auth.audience")
	cfg.Log.Level = strings.ToLower(v.GetString("log.level"))
	cfg.Log.Format = strings.ToLower(v.GetString("log.format"))
	cfg.OTel.Endpoint = v.GetString("otel.endpoint")
	cfg.Metrics.Enabled = v.GetBool("metrics.enabled")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "sqlite3", "mysql", "postgres", "pgx":
	case "":
		return fmt.Errorf("BOOKSWAP_DB_DRIVER is required (sqlite3, mysql, postgres, pgx)")
	default:
		return fmt.Errorf("unsupported BOOKSWAP_DB_DRIVER %q (sqlite3, mysql, postgres, pgx)", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("BOOKSWAP_DB_DSN is required")
	}

	modes := 0
	for _, s := range []string{c.Auth.PublicKey, c.Auth.HMACSecret, c.Auth.Issuer} {
		if s != "" {
			modes++
		}
	}
	if modes != 1 {
		return fmt.Errorf("exactly one of BOOKSWAP_AUTH_PUBLIC_KEY, BOOKSWAP_AUTH_HMAC_SECRET, BOOKSWAP_AUTH_ISSUER is required")
	}
	if c.Auth.HMACSecret != "" && len(c.Auth.HMACSecret) < 32 {
		return fmt.Errorf("BOOKSWAP_AUTH_HMAC_SECRET must be at least 32 characters")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid BOOKSWAP_LOG_LEVEL %q (debug, info, warn, error)", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid BOOKSWAP_LOG_FORMAT %q (json, text)", c.Log.Format)
	}
	return nil
}
