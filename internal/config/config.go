package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

type PostgresConfig struct {
	DSN      string `env:"DATABASE_URL"`
	Host     string `env:"POSTGRES_HOST"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	Database string `env:"POSTGRES_DB" envDefault:"baldsphere_db"`
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	MaxOpenConns   int           `env:"POSTGRES_MAX_CONNS" envDefault:"20"`
	IdleTimeout    time.Duration `env:"POSTGRES_IDLE_TIMEOUT" envDefault:"30s"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" envDefault:"2s"`
}

// Configured reports whether enough credentials are present to reach a local
// database. No connection is attempted.
func (c PostgresConfig) Configured() bool {
	return c.DSN != "" || (c.Host != "" && c.Password != "")
}

func (c PostgresConfig) URL() string {
	if c.DSN != "" {
		return c.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Database,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	q.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	u.RawQuery = q.Encode()
	return u.String()
}

const (
	placeholderSupabaseURL        = "your_supabase_url_here"
	placeholderSupabaseServiceKey = "your_supabase_service_role_key_here"
)

type SupabaseConfig struct {
	URL        string        `env:"SUPABASE_URL"`
	AnonKey    string        `env:"SUPABASE_ANON_KEY"`
	ServiceKey string        `env:"SUPABASE_SERVICE_ROLE_KEY"`
	Timeout    time.Duration `env:"SUPABASE_TIMEOUT" envDefault:"10s"`
}

func (c SupabaseConfig) Configured() bool {
	return c.URL != "" && c.AnonKey != "" && c.URL != placeholderSupabaseURL
}

// PrivilegedKey returns the service role key when one is set, else the anon key.
func (c SupabaseConfig) PrivilegedKey() string {
	if c.ServiceKey != "" && c.ServiceKey != placeholderSupabaseServiceKey {
		return c.ServiceKey
	}
	return c.AnonKey
}

type StorageConfig struct {
	Mode     string `env:"DB_MODE" envDefault:"hybrid"`
	Postgres PostgresConfig
	Supabase SupabaseConfig
}

type OllamaConfig struct {
	URL     string        `env:"OLLAMA_URL"`
	Model   string        `env:"OLLAMA_MODEL" envDefault:"llama3.2"`
	Timeout time.Duration `env:"OLLAMA_TIMEOUT" envDefault:"30s"`
}

func (c OllamaConfig) Enabled() bool {
	return c.URL != ""
}

type LogConfig struct {
	Mode   string `env:"LOG_MODE" envDefault:"development"`
	Redact bool   `env:"LOG_REDACTION_ENABLED" envDefault:"true"`
}

type APIConfig struct {
	Port           int      `env:"API_PORT" envDefault:"8001"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RabbitMQURL    string   `env:"RABBITMQ_URL"`

	Storage StorageConfig
	Ollama  OllamaConfig
	Log     LogConfig
}

type LocalConfig struct {
	Port           int           `env:"PORT" envDefault:"3001"`
	Root           string        `env:"ROOT" envDefault:"./baldsphere"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	WebhookURL     string        `env:"CONTACT_WEBHOOK_URL"`
	WebhookTimeout time.Duration `env:"CONTACT_WEBHOOK_TIMEOUT" envDefault:"10s"`

	Ollama OllamaConfig
	Log    LogConfig
}

type WorkerConfig struct {
	RabbitMQURL string        `env:"RABBITMQ_URL,notEmpty,required"`
	WebhookURL  string        `env:"CONTACT_WEBHOOK_URL,notEmpty,required"`
	Timeout     time.Duration `env:"CONTACT_WEBHOOK_TIMEOUT" envDefault:"10s"`

	Log LogConfig
}

func Parse[T any]() (T, error) {
	var cfg T
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}
