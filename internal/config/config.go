package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/oas-auditor/internal/audit"
	"github.com/garyjia/oas-auditor/internal/crosstab"
	"github.com/garyjia/oas-auditor/internal/workbook"
)

// EnvPrefix prefixes every environment override, e.g. AUDITOR_AUDIT_WORKERS
const EnvPrefix = "AUDITOR"

// Config holds all application configuration
type Config struct {
	Audit     AuditConfig     `mapstructure:"audit"`
	Frame     FrameConfig     `mapstructure:"frame"`
	Resources ResourcesConfig `mapstructure:"resources"`
	Report    ReportConfig    `mapstructure:"report"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// AuditConfig holds the rule engine settings
type AuditConfig struct {
	Workers                 int    `mapstructure:"workers"`
	BlankRowPolicy          string `mapstructure:"blank_row_policy"`
	POPTolerance            int    `mapstructure:"pop_tolerance"`
	POPNetOfHighlightedInel bool   `mapstructure:"pop_net_of_highlighted_inel"`
	MinAge                  int    `mapstructure:"min_age"`
}

// FrameConfig holds the FRAME tab block locator parameters
type FrameConfig struct {
	DenseThreshold      int `mapstructure:"dense_threshold"`
	MinBlockRows        int `mapstructure:"min_block_rows"`
	MaxBlankWithinBlock int `mapstructure:"max_blank_within_block"`
}

// ResourcesConfig points at the reference data files
type ResourcesConfig struct {
	CPTConfigPath   string `mapstructure:"cpt_config_path"`
	SIDRegistryPath string `mapstructure:"sid_registry_path"`
}

// ReportConfig holds report output settings
type ReportConfig struct {
	// OutputDir receives the audits folder; empty means next to each audited file
	OutputDir string `mapstructure:"output_dir"`
	// UploadDir stands in for the directory of workbooks uploaded over HTTP
	UploadDir string `mapstructure:"upload_dir"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from defaults, an optional YAML file, a .env file
// in the working directory and AUDITOR_* environment variables, in rising
// order of precedence. An empty configPath skips the file.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	defaults := audit.DefaultOptions()

	// Audit defaults
	v.SetDefault("audit.workers", defaults.Workers)
	v.SetDefault("audit.blank_row_policy", string(defaults.BlankRows))
	v.SetDefault("audit.pop_tolerance", defaults.POPTolerance)
	v.SetDefault("audit.pop_net_of_highlighted_inel", false)
	v.SetDefault("audit.min_age", defaults.MinAge)

	// FRAME locator defaults
	v.SetDefault("frame.dense_threshold", defaults.Frame.DenseThreshold)
	v.SetDefault("frame.min_block_rows", defaults.Frame.MinBlockRows)
	v.SetDefault("frame.max_blank_within_block", defaults.Frame.MaxBlankWithinBlock)

	// Reference data defaults
	v.SetDefault("resources.cpt_config_path", "configs/cpt_rules.yaml")
	v.SetDefault("resources.sid_registry_path", defaultRegistryPath())

	v.SetDefault("report.output_dir", "")
	v.SetDefault("report.upload_dir", "data/uploads")

	// Database defaults
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.path", "data/audit_history.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.max_upload_mb", 50)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stderr")
	v.SetDefault("logger.format", "console")
}

// bindEnvVars binds the short aliases accepted alongside the AUDITOR_* names
func bindEnvVars(v *viper.Viper) error {
	bindings := [][]string{
		{"resources.sid_registry_path", "AUDITOR_RESOURCES_SID_REGISTRY_PATH", "AUDITOR_SID_REGISTRY"},
		{"resources.cpt_config_path", "AUDITOR_RESOURCES_CPT_CONFIG_PATH", "AUDITOR_CPT_CONFIG"},
		{"database.path", "AUDITOR_DATABASE_PATH", "AUDITOR_DB_PATH"},
		{"report.output_dir", "AUDITOR_REPORT_OUTPUT_DIR", "AUDITOR_OUTPUT_DIR"},
		{"report.upload_dir", "AUDITOR_REPORT_UPLOAD_DIR", "AUDITOR_UPLOAD_DIR"},
	}
	for _, b := range bindings {
		if err := v.BindEnv(b...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

// defaultRegistryPath places sid_registry.csv next to the executable
func defaultRegistryPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "sid_registry.csv"
	}
	return filepath.Join(filepath.Dir(exe), "sid_registry.csv")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Audit.Workers < 1 {
		return fmt.Errorf("audit.workers must be at least 1")
	}
	if _, err := workbook.ParseBlankRowPolicy(c.Audit.BlankRowPolicy); err != nil {
		return fmt.Errorf("audit.blank_row_policy: %w", err)
	}
	if c.Audit.POPTolerance < 0 {
		return fmt.Errorf("audit.pop_tolerance must not be negative")
	}
	if c.Audit.MinAge < 0 {
		return fmt.Errorf("audit.min_age must not be negative")
	}

	if c.Frame.DenseThreshold < 1 || c.Frame.MinBlockRows < 1 {
		return fmt.Errorf("frame.dense_threshold and frame.min_block_rows must be at least 1")
	}
	if c.Frame.MaxBlankWithinBlock < 0 {
		return fmt.Errorf("frame.max_blank_within_block must not be negative")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		return fmt.Errorf("database.path is required when the database is enabled")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be at least 1")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	return nil
}

// AuditOptions converts the audit and frame sections into auditor options
func (c *Config) AuditOptions() audit.Options {
	policy, err := workbook.ParseBlankRowPolicy(c.Audit.BlankRowPolicy)
	if err != nil {
		policy = workbook.BlankRowsMixed
	}
	return audit.Options{
		Workers:                 c.Audit.Workers,
		BlankRows:               policy,
		POPTolerance:            c.Audit.POPTolerance,
		POPNetOfHighlightedInel: c.Audit.POPNetOfHighlightedInel,
		MinAge:                  c.Audit.MinAge,
		Frame: crosstab.FrameParams{
			DenseThreshold:      c.Frame.DenseThreshold,
			MinBlockRows:        c.Frame.MinBlockRows,
			MaxBlankWithinBlock: c.Frame.MaxBlankWithinBlock,
		},
	}
}

// MaxUploadBytes is the upload size limit in bytes
func (c *ServerConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
