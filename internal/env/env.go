package env

import (
	"fmt"
	"strings"
	"time"

	goenv "github.com/Netflix/go-env"
)

type Config struct {
	Port     int    `env:"PORT,default=5000"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`
	// Comma-separated list of allowed origins, "*" allows any.
	CORSAllow string `env:"CORS_ALLOW,default=*"`

	ExecuteURL         string        `env:"EXECUTE_URL,default=https://emkc.org/api/v2/piston/execute"`
	ExecuteTimeout     time.Duration `env:"EXECUTE_TIMEOUT,default=20s"`
	ExecutionWorkers   int           `env:"EXECUTION_WORKERS,default=8"`
	ExecutionQueueSize int           `env:"EXECUTION_QUEUE_SIZE,default=64"`

	HTTPWorkers   int `env:"HTTP_WORKERS,default=10"`
	HTTPQueueSize int `env:"HTTP_QUEUE_SIZE,default=10"`

	ClientBufferSize int `env:"CLIENT_BUFFER_SIZE,default=256"`
	MaxMessageSize   int `env:"MAX_MESSAGE_SIZE,default=1048576"`

	ChatRedisURL  string `env:"CHAT_REDIS_URL"`
	ChatRedisPass string `env:"CHAT_REDIS_PASS"`
}

// Load reads the process environment into a Config and checks the values
// that the zero-config defaults cannot guard.
func Load() (Config, error) {
	var cfg Config
	if _, err := goenv.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("env: PORT out of range: %d", c.Port)
	case c.ExecuteTimeout <= 0:
		return fmt.Errorf("env: EXECUTE_TIMEOUT must be positive, got %s", c.ExecuteTimeout)
	case c.ExecutionWorkers <= 0:
		return fmt.Errorf("env: EXECUTION_WORKERS must be positive, got %d", c.ExecutionWorkers)
	case c.ExecutionQueueSize < 0:
		return fmt.Errorf("env: EXECUTION_QUEUE_SIZE must not be negative, got %d", c.ExecutionQueueSize)
	case c.HTTPWorkers <= 0:
		return fmt.Errorf("env: HTTP_WORKERS must be positive, got %d", c.HTTPWorkers)
	case c.HTTPQueueSize < 0:
		return fmt.Errorf("env: HTTP_QUEUE_SIZE must not be negative, got %d", c.HTTPQueueSize)
	case c.ClientBufferSize <= 0:
		return fmt.Errorf("env: CLIENT_BUFFER_SIZE must be positive, got %d", c.ClientBufferSize)
	case c.MaxMessageSize <= 0:
		return fmt.Errorf("env: MAX_MESSAGE_SIZE must be positive, got %d", c.MaxMessageSize)
	case strings.TrimSpace(c.ExecuteURL) == "":
		return fmt.Errorf("env: EXECUTE_URL is empty")
	}
	return nil
}

func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// AllowedOrigins splits CORS_ALLOW, dropping blanks.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, s := range strings.Split(c.CORSAllow, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func (c Config) RedisEnabled() bool {
	return strings.TrimSpace(c.ChatRedisURL) != ""
}
