package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "clickhouse", cfg.StorageDriver)
	assert.Equal(t, 10, cfg.Analytics.FetchMultiplier)
	assert.Equal(t, 10*time.Second, cfg.Analytics.QueryTimeout)
	assert.Equal(t, "localhost:9000", cfg.ClickHouse.Addr())
	assert.Equal(t, ":8080", cfg.ServerAddr())
	assert.False(t, cfg.IsRelease())
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SESSION_FETCH_MULTIPLIER", "4")
	t.Setenv("ANALYTICS_TIMEZONE", "Asia/Kolkata")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.UseMemoryStorage())
	assert.Equal(t, 4, cfg.Analytics.FetchMultiplier)

	loc, err := cfg.Analytics.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown driver",
			env:     map[string]string{"STORAGE_DRIVER": "firestore"},
			wantErr: "unsupported STORAGE_DRIVER",
		},
		{
			name:    "short secret in release",
			env:     map[string]string{"GIN_MODE": "release", "JWT_SECRET_KEY": "short"},
			wantErr: "JWT_SECRET_KEY",
		},
		{
			name:    "zero multiplier",
			env:     map[string]string{"SESSION_FETCH_MULTIPLIER": "0"},
			wantErr: "SESSION_FETCH_MULTIPLIER",
		},
		{
			name:    "bad timezone",
			env:     map[string]string{"ANALYTICS_TIMEZONE": "Mars/Olympus"},
			wantErr: "ANALYTICS_TIMEZONE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
