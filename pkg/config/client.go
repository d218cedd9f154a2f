package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/securedash/authflow/pkg/throttle"
)

// ClientConfig holds everything the login client needs: where the backend
// lives, where local state is persisted, and the attempt throttle settings.
type ClientConfig struct {
	BaseURL          string        `env:"AUTH_BASE_URL" env-default:"https://localhost:8081"`
	DataDir          string        `env:"AUTH_DATA_DIR" env-default:".authflow"`
	MaxLoginAttempts int           `env:"AUTH_MAX_LOGIN_ATTEMPTS" env-default:"5"`
	LockoutDuration  time.Duration `env:"AUTH_LOCKOUT_DURATION" env-default:"1m"`
	RequestTimeout   time.Duration `env:"AUTH_REQUEST_TIMEOUT" env-default:"30s"`
}

// LoadClientConfig reads ClientConfig from environment variables.
func LoadClientConfig() (ClientConfig, error) {
	var cfg ClientConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

// ThrottleConfig maps the attempt settings into the throttle package.
func (c ClientConfig) ThrottleConfig() throttle.Config {
	return throttle.Config{
		MaxAttempts:     c.MaxLoginAttempts,
		LockoutDuration: c.LockoutDuration,
	}
}
