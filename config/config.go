package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	BackendNotion   = "notion"
	BackendPostgres = "postgres"

	DefaultTimezone = "America/New_York"
	DefaultSchedule = "*/5 * * * *"
	DefaultModel    = "gpt-4"
	DefaultBaseURL  = "https://api.openai.com/v1"
)

type Config struct {
	StoreBackend string

	NotionAPIKey     string
	NotionDatabaseID string

	// DatabaseURL backs the postgres store and the dispatch audit log.
	// Optional when the notion backend is used.
	DatabaseURL string

	OpenAIAPIKey         string
	OpenAIOrganizationID string
	OpenAIProjectID      string
	OpenAIModel          string
	OpenAIBaseURL        string

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	Location *time.Location
	Schedule string

	HTTP HTTPConfig

	LogLevel string
}

// HTTPConfig drives the ops API. Admin routes are only mounted when both
// JWTSecret and AdminPasswordHash are set.
type HTTPConfig struct {
	Port              string
	JWTSecret         string
	JWTExpiryHours    int
	AdminPasswordHash string
}

func (h HTTPConfig) AdminEnabled() bool {
	return h.JWTSecret != "" && h.AdminPasswordHash != ""
}

// Load reads the process environment. Every missing required variable is
// reported in a single error.
func Load() (*Config, error) {
	cfg := &Config{
		StoreBackend:         strings.ToLower(getenv("STORE_BACKEND", BackendNotion)),
		NotionAPIKey:         os.Getenv("NOTION_API_KEY"),
		NotionDatabaseID:     os.Getenv("NOTION_DATABASE_ID"),
		DatabaseURL:          os.Getenv("DB_URL"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIOrganizationID: os.Getenv("OPENAI_ORGANIZATION_ID"),
		OpenAIProjectID:      os.Getenv("OPENAI_PROJECT_ID"),
		OpenAIModel:          getenv("OPENAI_MODEL", DefaultModel),
		OpenAIBaseURL:        getenv("OPENAI_BASE_URL", DefaultBaseURL),
		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber:    os.Getenv("TWILIO_PHONE_NUMBER"),
		Schedule:             getenv("REMINDER_SCHEDULE", DefaultSchedule),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		HTTP: HTTPConfig{
			Port:              getenv("PORT", "8080"),
			JWTSecret:         os.Getenv("JWT_SECRET"),
			JWTExpiryHours:    24,
			AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		},
	}

	var errs []error

	required := map[string]string{
		"OPENAI_API_KEY":         cfg.OpenAIAPIKey,
		"OPENAI_ORGANIZATION_ID": cfg.OpenAIOrganizationID,
		"OPENAI_PROJECT_ID":      cfg.OpenAIProjectID,
		"TWILIO_ACCOUNT_SID":     cfg.TwilioAccountSID,
		"TWILIO_AUTH_TOKEN":      cfg.TwilioAuthToken,
		"TWILIO_PHONE_NUMBER":    cfg.TwilioPhoneNumber,
	}
	switch cfg.StoreBackend {
	case BackendNotion:
		required["NOTION_API_KEY"] = cfg.NotionAPIKey
		required["NOTION_DATABASE_ID"] = cfg.NotionDatabaseID
	case BackendPostgres:
		required["DB_URL"] = cfg.DatabaseURL
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendNotion, BackendPostgres, cfg.StoreBackend))
	}

	var missing []string
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		errs = append(errs, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", ")))
	}

	tz := getenv("REMINDER_TIMEZONE", DefaultTimezone)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone '%s': %w", tz, err))
	}
	cfg.Location = loc

	if env := os.Getenv("JWT_EXPIRY_HOURS"); env != "" {
		h, err := strconv.Atoi(env)
		if err != nil || h <= 0 {
			errs = append(errs, fmt.Errorf("JWT_EXPIRY_HOURS must be a positive integer, got %q", env))
		} else {
			cfg.HTTP.JWTExpiryHours = h
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
