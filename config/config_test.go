package config

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://backend:3000")
	t.Setenv("PUBLIC_API_URL", "")

	cfg, err := LoadConfig(quietLogger())
	require.NoError(t, err)

	assert.Equal(t, "http://backend:3000", cfg.APIBaseURL)
	assert.Equal(t, ":8080", cfg.GatewayPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, EnvProduction, cfg.AppEnv)
	assert.Equal(t, 15*time.Second, cfg.JSONTimeout)
	assert.Equal(t, 30*time.Second, cfg.MultipartTimeout)
	assert.Equal(t, 10000, cfg.MaxSessions)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadConfig_MissingBackend(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("PUBLIC_API_URL", "")

	_, err := LoadConfig(quietLogger())
	assert.ErrorIs(t, err, ErrNoBackendURL)
}

func TestProductFallbackEnabled(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		fallback bool
		want     bool
	}{
		{"dev with flag", EnvDevelopment, true, true},
		{"dev without flag", EnvDevelopment, false, false},
		{"prod with flag", EnvProduction, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{AppEnv: tt.env, ProductFallback: tt.fallback}
			assert.Equal(t, tt.want, cfg.ProductFallbackEnabled())
		})
	}
}
