package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/event-regform/internal/domain/entity"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Lark      LarkConfig      `mapstructure:"lark"`
	Email     EmailConfig     `mapstructure:"email"`
	Event     EventConfig     `mapstructure:"event"`
	Document  DocumentConfig  `mapstructure:"document"`
	Downloads DownloadsConfig `mapstructure:"downloads"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Mode         string        `mapstructure:"mode"` // gin mode: debug, release, test
	SessionTTL   time.Duration `mapstructure:"session_ttl"` // idle sessions older than this are dropped; 0 keeps them
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig holds dispatch log configuration. An empty path disables the log.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"` // empty uses the embedded schema
}

// OpenAIConfig holds the draft model configuration
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LarkConfig holds the share path configuration. Sharing is offered only when
// credentials and a receive id are present.
type LarkConfig struct {
	AppID         string `mapstructure:"app_id"`
	AppSecret     string `mapstructure:"app_secret"`
	BaseURL       string `mapstructure:"base_url"`
	ReceiveIDType string `mapstructure:"receive_id_type"`
	ReceiveID     string `mapstructure:"receive_id"`
}

// EmailConfig holds the recipient of every compose window
type EmailConfig struct {
	OrganizerAddress     string `mapstructure:"organizer_address"`
	InstitutionalBaseURL string `mapstructure:"institutional_base_url"`
}

// EventConfig holds the identity fields every new form starts with
type EventConfig struct {
	ProjectName string `mapstructure:"project_name"`
	EventDate   string `mapstructure:"event_date"`
	Location    string `mapstructure:"location"`
	Organizer   string `mapstructure:"organizer"`
}

// Defaults converts the event section into record defaults
func (e EventConfig) Defaults() entity.EventDefaults {
	return entity.EventDefaults{
		ProjectName: e.ProjectName,
		EventDate:   e.EventDate,
		Location:    e.Location,
		Organizer:   e.Organizer,
	}
}

// DocumentConfig holds renderer settings
type DocumentConfig struct {
	FontRegular string  `mapstructure:"font_regular"`
	FontBold    string  `mapstructure:"font_bold"`
	PreviewDPI  float64 `mapstructure:"preview_dpi"`
}

// DownloadsConfig holds where finished PDFs go
type DownloadsConfig struct {
	Dir     string        `mapstructure:"dir"`      // CLI output directory
	LinkTTL time.Duration `mapstructure:"link_ttl"` // lifetime of one-shot HTTP links
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
// A .env file in the working directory is applied to the environment first.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

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
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.session_ttl", 2*time.Hour)
	v.SetDefault("server.max_body_bytes", 8<<20)

	// Database defaults
	v.SetDefault("database.path", "data/regform.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.max_tokens", 800)
	v.SetDefault("openai.timeout", 30*time.Second)

	// Lark defaults
	v.SetDefault("lark.receive_id_type", "email")

	// Document defaults
	v.SetDefault("document.preview_dpi", 72)

	// Downloads defaults
	v.SetDefault("downloads.dir", "downloads")
	v.SetDefault("downloads.link_ttl", 5*time.Minute)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("lark.app_id", "LARK_APP_ID")
	_ = v.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	_ = v.BindEnv("email.organizer_address", "ORGANIZER_EMAIL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Email.OrganizerAddress == "" {
		return fmt.Errorf("email.organizer_address is required")
	}
	if !strings.Contains(c.Email.OrganizerAddress, "@") {
		return fmt.Errorf("email.organizer_address is not an address: %q", c.Email.OrganizerAddress)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.SessionTTL < 0 {
		return fmt.Errorf("server.session_ttl must not be negative: %s", c.Server.SessionTTL)
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must not be negative: %d", c.Server.MaxBodyBytes)
	}

	if c.Downloads.LinkTTL <= 0 {
		return fmt.Errorf("downloads.link_ttl must be positive")
	}

	if (c.Lark.AppID == "") != (c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret must be set together")
	}

	return nil
}
