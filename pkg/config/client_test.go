package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClientConfig_Defaults(t *testing.T) {
	cfg, err := LoadClientConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://localhost:8081", cfg.BaseURL)
	assert.Equal(t, ".authflow", cfg.DataDir)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, time.Minute, cfg.LockoutDuration)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoadClientConfig_EnvOverrides(t *testing.T) {
	t.Setenv("AUTH_BASE_URL", "http://127.0.0.1:9000")
	t.Setenv("AUTH_MAX_LOGIN_ATTEMPTS", "3")
	t.Setenv("AUTH_LOCKOUT_DURATION", "5m")

	cfg, err := LoadClientConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9000", cfg.BaseURL)
	assert.Equal(t, 3, cfg.MaxLoginAttempts)
	assert.Equal(t, 5*time.Minute, cfg.LockoutDuration)

	tc := cfg.ThrottleConfig()
	assert.Equal(t, 3, tc.MaxAttempts)
	assert.Equal(t, 5*time.Minute, tc.LockoutDuration)
}
