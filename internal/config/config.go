package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPendingWindowDays = 90
	DefaultRecordsPageLimit  = 200

	// TokenEnvVar overrides accessToken when set
	TokenEnvVar = "MINISTRY_API_TOKEN"
)

// SessionConfig identifies who the console acts as
type SessionConfig struct {
	Role     string `yaml:"role" validate:"required,oneof=admin leader member"`
	MemberID string `yaml:"memberID,omitempty"`
}

// RemindersConfig controls pending reminder emails
type RemindersConfig struct {
	RRule       string `yaml:"rrule,omitempty"`
	GmailUserID string `yaml:"gmailUserID,omitempty"`
	GmailSender string `yaml:"gmailSender,omitempty"`
}

// ExportConfig holds the export targets of the attendance sheet
type ExportConfig struct {
	SheetID     string `yaml:"sheetID,omitempty"`
	SheetTab    string `yaml:"sheetTab,omitempty"`
	PostgresURL string `yaml:"postgresURL,omitempty"`
}

// GoogleConfig locates the OAuth client used by the sheets export and reminders
type GoogleConfig struct {
	OAuthClientFile string `yaml:"oauthClientFile,omitempty"`
}

// Config represents the application configuration
type Config struct {
	APIBaseURL        string          `yaml:"apiBaseURL" validate:"required,url"`
	AccessToken       string          `yaml:"accessToken,omitempty"`
	Session           SessionConfig   `yaml:"session" validate:"required"`
	PendingWindowDays int             `yaml:"pendingWindowDays,omitempty" validate:"min=0"`
	RecordsPageLimit  int             `yaml:"recordsPageLimit,omitempty" validate:"min=0,max=1000"`
	Reminders         RemindersConfig `yaml:"reminders,omitempty"`
	Export            ExportConfig    `yaml:"export,omitempty"`
	Google            GoogleConfig    `yaml:"google,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from attendance_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment.
// For example, env="test" will look for "attendance_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if token := os.Getenv(TokenEnvVar); token != "" {
		cfg.AccessToken = token
	}
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.PendingWindowDays == 0 {
		cfg.PendingWindowDays = DefaultPendingWindowDays
	}
	if cfg.RecordsPageLimit == 0 {
		cfg.RecordsPageLimit = DefaultRecordsPageLimit
	}
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Reminders.RRule != "" {
		if _, err := rrule.StrToRRule(cfg.Reminders.RRule); err != nil {
			return fmt.Errorf("invalid rrule in reminders: %w", err)
		}
	}

	return nil
}

// findConfigFile searches for attendance_config[.env].yaml
func findConfigFile(env string) (string, error) {
	return findEnvFile("attendance_config", "yaml", env)
}

// findEnvFile looks for <name>[.env].<ext> in the current directory, then in
// the home directory
func findEnvFile(name, ext, env string) (string, error) {
	fileName := name + "." + ext
	if env != "" {
		fileName = name + "." + env + "." + ext
	}

	if _, err := os.Stat(fileName); err == nil {
		return fileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, fileName)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", fileName)
}
