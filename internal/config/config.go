package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	// Embedded zone database for hosts without /usr/share/zoneinfo.
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendMongoDB  = "mongodb"
	BackendSheets   = "sheets"
	BackendExcel    = "excel"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	Production ProductionConfig
	Storage    StorageConfig
	Sheets     SheetsConfig
	MongoDB    MongoDBConfig
	Redis      RedisConfig
	Reporting  ReportingConfig
	WhatsApp   WhatsAppConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port               string
	LogLevel           string
	CORSAllowedOrigins []string
}

// ProductionConfig holds the rules applied to production entries.
type ProductionConfig struct {
	EditWindow time.Duration
	Timezone   string
}

// StorageConfig selects the repository backend.
type StorageConfig struct {
	Backend       string
	ExcelFilePath string
	DatabaseDSN   string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// RedisConfig enables distributed entry locks when Address is set.
type RedisConfig struct {
	Address  string
	Password string
	LockTTL  time.Duration
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	SummaryCronSchedule string
	DigestCronSchedule  string
}

// WhatsAppConfig contains credentials for the Meta WhatsApp Cloud API. The daily digest is only
// sent when AccessToken, PhoneNumberID and DigestRecipient are all set.
type WhatsAppConfig struct {
	AccessToken     string
	PhoneNumberID   string
	BaseURL         string
	APIVersion      string
	DigestRecipient string
}

// DigestEnabled reports whether the WhatsApp digest has everything it needs.
func (w WhatsAppConfig) DigestEnabled() bool {
	return w.AccessToken != "" && w.PhoneNumberID != "" && w.DigestRecipient != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	editWindow, err := getDurationWithDefault("EDIT_WINDOW", time.Hour)
	if err != nil {
		return nil, err
	}
	lockTTL, err := getDurationWithDefault("ENTRY_LOCK_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getenvWithDefault("APP_PORT", "8080"),
			LogLevel:           getenvWithDefault("LOG_LEVEL", "info"),
			CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
		Production: ProductionConfig{
			EditWindow: editWindow,
			Timezone:   getenvWithDefault("TIMEZONE", "Europe/Istanbul"),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(getenvWithDefault("STORAGE_BACKEND", BackendMemory)),
			ExcelFilePath: getenvWithDefault("EXCEL_FILE_PATH", "data/ProductionEntries.xlsx"),
			DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "prodtracker"),
		},
		Redis: RedisConfig{
			Address:  os.Getenv("REDIS_ADDRESS"),
			Password: os.Getenv("REDIS_PASSWORD"),
			LockTTL:  lockTTL,
		},
		Reporting: ReportingConfig{
			SummaryCronSchedule: getenvWithDefault("SUMMARY_CRON_SCHEDULE", "0 * * * *"),
			DigestCronSchedule:  getenvWithDefault("DIGEST_CRON_SCHEDULE", "0 20 * * *"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:     os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:   os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:         getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:      getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			DigestRecipient: os.Getenv("WHATSAPP_DIGEST_RECIPIENT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated. Backend specific settings
// are only required for the selected backend.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Production.EditWindow <= 0 {
		return errors.New("EDIT_WINDOW must be a positive duration")
	}

	if c.Production.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Production.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is invalid: %w", c.Production.Timezone, err)
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided for the mongodb backend")
		}
	case BackendSheets:
		if c.Sheets.CredentialsPath == "" {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided for the sheets backend")
		}
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided for the sheets backend")
		}
	case BackendExcel:
		if c.Storage.ExcelFilePath == "" {
			return errors.New("EXCEL_FILE_PATH must not be empty for the excel backend")
		}
	case BackendMySQL, BackendPostgres:
		if c.Storage.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN must be provided for the %s backend", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND %q is not supported", c.Storage.Backend)
	}

	if c.Redis.Address != "" && c.Redis.LockTTL <= 0 {
		return errors.New("ENTRY_LOCK_TTL must be a positive duration")
	}

	if c.Reporting.SummaryCronSchedule == "" {
		return errors.New("SUMMARY_CRON_SCHEDULE must be provided")
	}

	if c.WhatsApp.DigestEnabled() {
		if c.Reporting.DigestCronSchedule == "" {
			return errors.New("DIGEST_CRON_SCHEDULE must be provided when the digest is enabled")
		}
		if c.WhatsApp.BaseURL == "" {
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		}
		if c.WhatsApp.APIVersion == "" {
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationWithDefault(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
