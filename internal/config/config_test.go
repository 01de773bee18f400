package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 10*time.Minute, cfg.App.OTPTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Security.AccessTokenTTL)
	assert.Equal(t, "002", cfg.Security.CookiePrefixes[RoleManager])
	assert.Equal(t, "mgr", cfg.Security.RoleSuffixes[RoleManager])
	assert.Equal(t, ".indibus.net", cfg.Cookie.ProductionDomain)
	assert.Equal(t, 6, cfg.App.MinPasswordLength)
}

func TestLoad_FileWithDurationStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
  "app": {"env": "production", "otp_ttl": "5m", "client_url": "https://tracker.example.com"},
  "security": {"access_token_secret": "a-secret", "role_token_secret": "r-secret", "access_token_ttl": "2d", "role_token_ttl": "3600", "role_suffixes": {"manager": "zz"}},
  "cookie": {"max_age": "48h"}
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 5*time.Minute, cfg.App.OTPTTL)
	assert.Equal(t, "https://tracker.example.com", cfg.App.ClientURL)
	assert.Equal(t, 48*time.Hour, cfg.Security.AccessTokenTTL)
	assert.Equal(t, time.Hour, cfg.Security.RoleTokenTTL)
	assert.Equal(t, 48*time.Hour, cfg.Cookie.MaxAge)
	assert.Equal(t, "zz", cfg.Security.RoleSuffixes[RoleManager])
	// Missing roles fall back to defaults.
	assert.Equal(t, "usr", cfg.Security.RoleSuffixes[RoleUser])
	assert.Equal(t, ":9000", cfg.App.HTTPAddr)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"app": {"otp_ttl": "soon"}}`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Setenv("NODE_ENV", "production")
	t.Setenv("MAN_SUFFIX", "msfx")
	t.Setenv("MAN_KEY_NAME", "777")
	t.Setenv("ROLE_JWT_SECRET", "role-secret")
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "1d")
	t.Setenv("CLIENT_URL", "https://app.example.com")
	t.Setenv("EMAIL_USER", "mailer@example.com")
	t.Setenv("EMAIL_PASS", "app-password")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "msfx", cfg.Security.RoleSuffixes[RoleManager])
	assert.Equal(t, "777", cfg.Security.CookiePrefixes[RoleManager])
	assert.Equal(t, "role-secret", cfg.Security.RoleTokenSecret)
	assert.Equal(t, "access-secret", cfg.Security.AccessTokenSecret)
	assert.Equal(t, 24*time.Hour, cfg.Security.RoleTokenTTL)
	assert.Equal(t, "https://app.example.com", cfg.App.ClientURL)
	assert.Equal(t, "mailer@example.com", cfg.Email.SMTPUser)
	assert.Equal(t, "mailer@example.com", cfg.Email.FromEmail)
	assert.Equal(t, "app-password", cfg.Email.SMTPPass)
}

func TestLoad_DBEnvComposesDSN(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "tracker")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "tracker_prod")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	parsed := parseMySQLDSN(cfg.MySQL.DSN)
	assert.Equal(t, "db.internal:3306", parsed.Addr)
	assert.Equal(t, "tracker", parsed.User)
	assert.Equal(t, "pw", parsed.Passwd)
	assert.Equal(t, "tracker_prod", parsed.DBName)
	assert.True(t, parsed.ParseTime)
}

func TestParseExpiry(t *testing.T) {
	cases := map[string]time.Duration{
		"90m":  90 * time.Minute,
		"7d":   7 * 24 * time.Hour,
		"3600": time.Hour,
	}
	for in, want := range cases {
		got, err := parseExpiry(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseExpiry("xd")
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := getDefaultConfig()
	cfg.App.OTPTTL = 3 * time.Minute
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, loaded.App.OTPTTL)
	assert.Equal(t, cfg.Security.RoleTokenTTL, loaded.Security.RoleTokenTTL)
}

func TestLoad_ProductionRejectsDevSecrets(t *testing.T) {
	t.Setenv("NODE_ENV", "production")

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_token_secret")

	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role_token_secret")

	t.Setenv("ROLE_JWT_SECRET", "role-secret")
	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	cfg := getDefaultConfig()
	require.NoError(t, cfg.Validate(), "development keeps the dev secrets")

	cfg.App.Env = "production"
	require.Error(t, cfg.Validate())

	cfg.Security.AccessTokenSecret = "a"
	cfg.Security.RoleTokenSecret = ""
	require.Error(t, cfg.Validate())

	cfg.Security.RoleTokenSecret = "r"
	require.NoError(t, cfg.Validate())
}
