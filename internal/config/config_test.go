package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		APIBaseURL:        "https://api.example.org",
		Session:           SessionConfig{Role: "leader", MemberID: "ana"},
		PendingWindowDays: 90,
		RecordsPageLimit:  200,
		Reminders: RemindersConfig{
			RRule:       "FREQ=WEEKLY;BYDAY=MO",
			GmailUserID: "me",
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_MinimalConfig(t *testing.T) {
	cfg := &Config{
		APIBaseURL: "http://localhost:3000",
		Session:    SessionConfig{Role: "member"},
	}
	assert.NoError(t, Validate(cfg))
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing base url", func(c *Config) { c.APIBaseURL = "" }, "validation failed"},
		{"invalid base url", func(c *Config) { c.APIBaseURL = "not a url" }, "validation failed"},
		{"missing role", func(c *Config) { c.Session.Role = "" }, "validation failed"},
		{"unknown role", func(c *Config) { c.Session.Role = "owner" }, "validation failed"},
		{"negative window", func(c *Config) { c.PendingWindowDays = -1 }, "validation failed"},
		{"page limit too large", func(c *Config) { c.RecordsPageLimit = 5000 }, "validation failed"},
		{"invalid rrule", func(c *Config) { c.Reminders.RRule = "INVALID_RRULE_SYNTAX" }, "invalid rrule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromPath_AppliesDefaults(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	path := filepath.Join(t.TempDir(), "attendance_config.yaml")
	content := `apiBaseURL: https://api.example.org
accessToken: from-file
session:
  role: admin
export:
  sheetID: sheet123
  sheetTab: Attendance
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.org", cfg.APIBaseURL)
	assert.Equal(t, "from-file", cfg.AccessToken)
	assert.Equal(t, "admin", cfg.Session.Role)
	assert.Equal(t, DefaultPendingWindowDays, cfg.PendingWindowDays)
	assert.Equal(t, DefaultRecordsPageLimit, cfg.RecordsPageLimit)
	assert.Equal(t, "sheet123", cfg.Export.SheetID)
	assert.Equal(t, "Attendance", cfg.Export.SheetTab)
}

func TestLoadFromPath_TokenFromEnvironment(t *testing.T) {
	t.Setenv(TokenEnvVar, "from-env")
	path := filepath.Join(t.TempDir(), "attendance_config.yaml")
	content := `apiBaseURL: https://api.example.org
accessToken: from-file
session:
  role: leader
  memberID: ana
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AccessToken)
	assert.Equal(t, "ana", cfg.Session.MemberID)
}

func TestLoadFromPath_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromPath(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("apiBaseURL: [unclosed"), 0644))
	_, err = LoadFromPath(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("apiBaseURL: https://api.example.org\n"), 0644))
	_, err = LoadFromPath(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadWithEnv_FindsEnvFileInCurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(TokenEnvVar, "")

	content := "apiBaseURL: https://staging.example.org\nsession:\n  role: member\n"
	require.NoError(t, os.WriteFile("attendance_config.staging.yaml", []byte(content), 0644))

	cfg, err := LoadWithEnv("staging")
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.org", cfg.APIBaseURL)
}
