// Package config handles application configuration from environment variables
// and the Pterodactyl panel .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultBackupDirectory is where Wings writes local backups.
	DefaultBackupDirectory = "/var/lib/pterodactyl/backups"

	// DefaultPanelEnvFile is the panel's Laravel environment file.
	DefaultPanelEnvFile = "/var/www/pterodactyl/.env"
)

// ErrInvalidConfig is returned for missing or malformed configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

var tablePrefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// Config holds all application configuration.
type Config struct {
	// Backup location
	BackupDirectory string
	PanelEnvFile    string

	// Panel database
	Database DatabaseConfig

	// Reconciliation options
	VerifyHash    bool
	VerifyHashSet bool // true when VerifyHash was given explicitly
	MinArchiveAge time.Duration

	// Storage provider configuration
	StorageProvider string // "local", "s3" or "gcs"
	StoragePrefix   string

	// S3 configuration
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	S3Bucket           string
	S3Region           string
	S3Endpoint         string // Optional custom endpoint

	// GCS configuration
	GCSBucket                string
	GoogleProjectID          string
	GoogleServiceAccountJSON string

	// Runtime
	MetricsPort     int
	MetricsTextfile string
	AllowNonRoot    bool
	NonInteractive  bool
}

// DatabaseConfig holds the panel database connection parameters.
type DatabaseConfig struct {
	Connection  string // "mysql", "mariadb" or "pgsql"
	Host        string
	Port        string
	Name        string
	Username    string
	Password    string
	TablePrefix string
}

// Load reads configuration from environment variables. Database parameters not
// present in the environment are taken from the panel .env file when it exists.
// Callers apply their own overrides and then call Validate.
func Load() (*Config, error) {
	cfg := &Config{
		BackupDirectory: getEnv("BACKUP_DIRECTORY", DefaultBackupDirectory),
		PanelEnvFile:    getEnv("PANEL_ENV_FILE", DefaultPanelEnvFile),

		Database: DatabaseConfig{
			Connection:  os.Getenv("DB_CONNECTION"),
			Host:        os.Getenv("DB_HOST"),
			Port:        os.Getenv("DB_PORT"),
			Name:        os.Getenv("DB_DATABASE"),
			Username:    os.Getenv("DB_USERNAME"),
			Password:    os.Getenv("DB_PASSWORD"),
			TablePrefix: os.Getenv("DB_PREFIX"),
		},

		StorageProvider: getEnv("STORAGE_PROVIDER", "local"),
		StoragePrefix:   os.Getenv("STORAGE_PREFIX"),

		// S3
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3Region:           os.Getenv("S3_REGION"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),

		// GCS
		GCSBucket:                os.Getenv("GCS_BUCKET"),
		GoogleProjectID:          os.Getenv("GOOGLE_PROJECT_ID"),
		GoogleServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),

		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
	}

	if os.Getenv("CHECK_SHA1") != "" {
		cfg.VerifyHash = getEnvBool("CHECK_SHA1", false)
		cfg.VerifyHashSet = true
	}
	cfg.MinArchiveAge = time.Duration(getEnvInt("MIN_ARCHIVE_AGE_MINUTES", 0)) * time.Minute
	cfg.MetricsPort = getEnvInt("METRICS_PORT", 0)
	cfg.AllowNonRoot = getEnvBool("ALLOW_NON_ROOT", false)
	cfg.NonInteractive = getEnvBool("NON_INTERACTIVE", false)

	if err := cfg.ApplyPanelEnv(cfg.PanelEnvFile); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyPanelEnv fills database parameters that are still empty from the panel
// .env file at path. A missing file is not an error. A file whose
// DB_CONNECTION names an unsupported driver contributes nothing.
func (c *Config) ApplyPanelEnv(path string) error {
	if path == "" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("%w: failed to parse panel env file %s: %v", ErrInvalidConfig, path, err)
	}

	if conn := values["DB_CONNECTION"]; conn != "" && !SupportedConnection(conn) {
		return nil
	}

	db := &c.Database
	fill(&db.Connection, values["DB_CONNECTION"])
	fill(&db.Host, values["DB_HOST"])
	fill(&db.Port, values["DB_PORT"])
	fill(&db.Name, values["DB_DATABASE"])
	fill(&db.Username, values["DB_USERNAME"])
	fill(&db.Password, values["DB_PASSWORD"])
	fill(&db.TablePrefix, values["DB_PREFIX"])

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}

	switch c.StorageProvider {
	case "local", "":
		if c.BackupDirectory == "" {
			return fmt.Errorf("%w: BACKUP_DIRECTORY is required for local storage", ErrInvalidConfig)
		}
	case "s3":
		if err := c.validateS3(); err != nil {
			return err
		}
	case "gcs":
		if err := c.validateGCS(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: invalid STORAGE_PROVIDER: %s (must be 'local', 's3' or 'gcs')", ErrInvalidConfig, c.StorageProvider)
	}

	if c.MinArchiveAge < 0 {
		return fmt.Errorf("%w: minimum archive age must be non-negative", ErrInvalidConfig)
	}

	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("%w: METRICS_PORT out of range: %d", ErrInvalidConfig, c.MetricsPort)
	}

	return nil
}

// Validate checks that every connection parameter is present and well formed.
func (d DatabaseConfig) Validate() error {
	if d.Connection != "" && !SupportedConnection(d.Connection) {
		return fmt.Errorf("%w: unsupported DB_CONNECTION %q", ErrInvalidConfig, d.Connection)
	}

	for _, required := range []struct{ key, value string }{
		{"DB_HOST", d.Host},
		{"DB_PORT", d.Port},
		{"DB_DATABASE", d.Name},
		{"DB_USERNAME", d.Username},
		{"DB_PASSWORD", d.Password},
	} {
		if required.value == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidConfig, required.key)
		}
	}

	if _, err := d.PortNumber(); err != nil {
		return err
	}

	if !tablePrefixPattern.MatchString(d.TablePrefix) {
		return fmt.Errorf("%w: DB_PREFIX %q contains invalid characters", ErrInvalidConfig, d.TablePrefix)
	}

	return nil
}

// Missing reports whether any connection parameter is still empty.
func (d DatabaseConfig) Missing() bool {
	return d.Host == "" || d.Port == "" || d.Name == "" || d.Username == "" || d.Password == ""
}

// PortNumber parses the configured port.
func (d DatabaseConfig) PortNumber() (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(d.Port))
	if err != nil {
		return 0, fmt.Errorf("%w: the database port '%s' is not a valid integer", ErrInvalidConfig, d.Port)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%w: the database port %d is out of range", ErrInvalidConfig, port)
	}
	return port, nil
}

// Driver returns the database/sql driver name for the connection.
func (d DatabaseConfig) Driver() string {
	if strings.EqualFold(d.Connection, "pgsql") {
		return "postgres"
	}
	return "mysql"
}

// SupportedConnection reports whether the panel DB_CONNECTION value can be used.
func SupportedConnection(conn string) bool {
	switch strings.ToLower(strings.TrimSpace(conn)) {
	case "mysql", "mariadb", "pgsql":
		return true
	}
	return false
}

func (c *Config) validateS3() error {
	if c.AWSAccessKeyID == "" {
		return fmt.Errorf("%w: AWS_ACCESS_KEY_ID is required for S3 storage", ErrInvalidConfig)
	}
	if c.AWSSecretAccessKey == "" {
		return fmt.Errorf("%w: AWS_SECRET_ACCESS_KEY is required for S3 storage", ErrInvalidConfig)
	}
	if c.S3Bucket == "" {
		return fmt.Errorf("%w: S3_BUCKET is required for S3 storage", ErrInvalidConfig)
	}
	if c.S3Region == "" && c.S3Endpoint == "" {
		return fmt.Errorf("%w: S3_REGION is required for S3 storage (unless S3_ENDPOINT is set)", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) validateGCS() error {
	if c.GCSBucket == "" {
		return fmt.Errorf("%w: GCS_BUCKET is required for GCS storage", ErrInvalidConfig)
	}
	if c.GoogleProjectID == "" {
		return fmt.Errorf("%w: GOOGLE_PROJECT_ID is required for GCS storage", ErrInvalidConfig)
	}
	if c.GoogleServiceAccountJSON == "" {
		return fmt.Errorf("%w: GOOGLE_SERVICE_ACCOUNT_JSON is required for GCS storage", ErrInvalidConfig)
	}
	return nil
}

func fill(dst *string, value string) {
	if *dst == "" {
		*dst = strings.TrimSpace(value)
	}
}

// getEnv gets a string from environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer from environment variable with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean from environment variable with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
