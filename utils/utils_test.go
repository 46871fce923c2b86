package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aadinath/api/models"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)

	token, err := issuer.GenerateJWT(&models.AdminUser{ID: 3, Email: "admin@aadinath.in"})
	require.NoError(t, err)

	claims, err := issuer.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, 3, claims.UserID)
	assert.Equal(t, "admin@aadinath.in", claims.Email)
	assert.Equal(t, "3", claims.Subject)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("secret-secret-secret-secret-secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.GenerateJWT(&models.AdminUser{ID: 1})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.ValidateJWT(token)
	assert.Error(t, err)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("first-secret", time.Hour).GenerateJWT(&models.AdminUser{ID: 1})
	require.NoError(t, err)

	_, err = NewTokenIssuer("second-secret", time.Hour).ValidateJWT(token)
	assert.Error(t, err)
}

func TestTokenIssuer_NoSecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour).GenerateJWT(&models.AdminUser{ID: 1})
	assert.Error(t, err)
}

func TestParseDateRange(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)

	tests := []struct {
		name       string
		start, end string
		wantStart  *time.Time
		wantEnd    *time.Time
		wantErr    bool
	}{
		{name: "empty"},
		{
			name:      "rfc3339",
			start:     "2026-03-01T00:00:00Z",
			end:       "2026-03-02T00:00:00Z",
			wantStart: ptr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
			wantEnd:   ptr(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:      "dates cover whole end day",
			start:     "2026-03-01",
			end:       "2026-03-01",
			wantStart: ptr(time.Date(2026, 3, 1, 0, 0, 0, 0, ist)),
			wantEnd:   ptr(time.Date(2026, 3, 1, 23, 59, 59, 999999999, ist)),
		},
		{name: "garbage", start: "yesterday", wantErr: true},
		{name: "inverted", start: "2026-03-02", end: "2026-03-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := ParseDateRange(tt.start, tt.end, ist)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assertTime(t, tt.wantStart, start)
			assertTime(t, tt.wantEnd, end)
		})
	}
}

func TestParsePositiveInt(t *testing.T) {
	n, err := ParsePositiveInt("", 100)
	require.NoError(t, err)
	assert.Equal(t, 100, n)

	n, err = ParsePositiveInt("25", 100)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	_, err = ParsePositiveInt("0", 100)
	assert.Error(t, err)
	_, err = ParsePositiveInt("ten", 100)
	assert.Error(t, err)
}

func assertTime(t *testing.T, want, got *time.Time) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got), "want %s got %s", want, got)
}

func ptr(t time.Time) *time.Time { return &t }
