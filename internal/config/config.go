package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/cronica/internal/locale"
	"github.com/crimson-sun/cronica/internal/model"
)

// Version is the cronica release.
const Version = "0.3.0"

// DateLayout is the layout of filter date bounds.
const DateLayout = "2006-01-02"

// Config holds all cronica configuration.
type Config struct {
	Mode            string        `yaml:"mode" validate:"oneof=report watch serve"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
	ShowVersion     bool          `yaml:"-"`

	Source SourceConfig `yaml:"source"`
	Engine EngineConfig `yaml:"engine"`
	Filter FilterConfig `yaml:"filter"`
	Output OutputConfig `yaml:"output"`
	Server ServerConfig `yaml:"server"`
}

// SourceConfig selects where a session's event log comes from.
type SourceConfig struct {
	Provider  string        `yaml:"provider" validate:"required"`
	Path      string        `yaml:"path"`
	Endpoint  string        `yaml:"endpoint"`
	APIKey    string        `yaml:"api_key"`
	SessionID string        `yaml:"session_id"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
	// PollInterval paces watch mode for polling sources (supabase).
	PollInterval time.Duration `yaml:"poll_interval" validate:"gte=0"`
}

// EngineConfig holds timeline engine settings.
type EngineConfig struct {
	Locale     string `yaml:"locale" validate:"required"`
	Timezone   string `yaml:"timezone"`
	IDStrategy string `yaml:"id_strategy" validate:"omitempty,oneof=positional content"`
	Verbosity  string `yaml:"verbosity" validate:"oneof=minimal standard full"`
}

// FilterConfig is the default filter state applied by report and watch.
type FilterConfig struct {
	EventTypes          []string `yaml:"event_types"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold" validate:"gte=0,lte=1"`
	Start               string   `yaml:"start"`
	End                 string   `yaml:"end"`
	SearchText          string   `yaml:"search_text"`
}

// OutputConfig holds output destination settings. Format is the primary
// sink; FilePath and WebhookURL add further sinks when set.
type OutputConfig struct {
	Format      string            `yaml:"format" validate:"oneof=stdout file webhook"`
	Pretty      bool              `yaml:"pretty"`
	FilePath    string            `yaml:"file_path"`
	MaxFileSize int64             `yaml:"max_file_size" validate:"gte=0"`
	WebhookURL  string            `yaml:"webhook_url" validate:"omitempty,url"`
	Headers     map[string]string `yaml:"headers"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr" validate:"required"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout   time.Duration `yaml:"write_timeout" validate:"gte=0"`
	Metrics        bool          `yaml:"metrics"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Mode:            "report",
		LogLevel:        "info",
		ShutdownTimeout: 10 * time.Second,
		Source: SourceConfig{
			Provider: "file",
			Timeout:  30 * time.Second,
		},
		Engine: EngineConfig{
			Locale:     "es",
			IDStrategy: "positional",
			Verbosity:  "standard",
		},
		Output: OutputConfig{
			Format: "stdout",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			Metrics:      true,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty) and CRONICA_* environment variables, in that order.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Mode = getenv("CRONICA_MODE", cfg.Mode)
	cfg.LogLevel = getenv("CRONICA_LOG_LEVEL", cfg.LogLevel)
	cfg.ShutdownTimeout = getenvDuration("CRONICA_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	cfg.Source.Provider = getenv("CRONICA_SOURCE", cfg.Source.Provider)
	cfg.Source.Path = getenv("CRONICA_SOURCE_PATH", cfg.Source.Path)
	cfg.Source.Endpoint = getenv("CRONICA_ENDPOINT", cfg.Source.Endpoint)
	cfg.Source.APIKey = getenv("CRONICA_API_KEY", cfg.Source.APIKey)
	cfg.Source.SessionID = getenv("CRONICA_SESSION_ID", cfg.Source.SessionID)
	cfg.Source.Timeout = getenvDuration("CRONICA_SOURCE_TIMEOUT", cfg.Source.Timeout)
	cfg.Source.PollInterval = getenvDuration("CRONICA_POLL_INTERVAL", cfg.Source.PollInterval)

	cfg.Engine.Locale = getenv("CRONICA_LOCALE", cfg.Engine.Locale)
	cfg.Engine.Timezone = getenv("CRONICA_TIMEZONE", cfg.Engine.Timezone)
	cfg.Engine.IDStrategy = getenv("CRONICA_ID_STRATEGY", cfg.Engine.IDStrategy)
	cfg.Engine.Verbosity = getenv("CRONICA_VERBOSITY", cfg.Engine.Verbosity)

	cfg.Filter.EventTypes = getenvList("CRONICA_FILTER_TYPES", cfg.Filter.EventTypes)
	cfg.Filter.ConfidenceThreshold = getenvFloat("CRONICA_FILTER_CONFIDENCE", cfg.Filter.ConfidenceThreshold)
	cfg.Filter.Start = getenv("CRONICA_FILTER_START", cfg.Filter.Start)
	cfg.Filter.End = getenv("CRONICA_FILTER_END", cfg.Filter.End)
	cfg.Filter.SearchText = getenv("CRONICA_FILTER_SEARCH", cfg.Filter.SearchText)

	cfg.Output.Format = getenv("CRONICA_OUTPUT", cfg.Output.Format)
	cfg.Output.Pretty = getenvBool("CRONICA_OUTPUT_PRETTY", cfg.Output.Pretty)
	cfg.Output.FilePath = getenv("CRONICA_OUTPUT_FILE", cfg.Output.FilePath)
	cfg.Output.MaxFileSize = int64(getenvInt("CRONICA_OUTPUT_MAX_SIZE", int(cfg.Output.MaxFileSize)))
	cfg.Output.WebhookURL = getenv("CRONICA_WEBHOOK_URL", cfg.Output.WebhookURL)

	cfg.Server.Addr = getenv("CRONICA_ADDR", cfg.Server.Addr)
	cfg.Server.AllowedOrigins = getenvList("CRONICA_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Server.Metrics = getenvBool("CRONICA_METRICS", cfg.Server.Metrics)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration and returns every problem found,
// joined into one error.
func (c Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s: failed %q (got %v)", strings.ToLower(fe.Namespace()), fe.Tag(), fe.Value()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	if _, err := locale.Lookup(c.Engine.Locale); err != nil && c.Engine.Locale != "" {
		errs = append(errs, fmt.Errorf("engine.locale: %w", err))
	}
	if c.Engine.Timezone != "" {
		if _, err := time.LoadLocation(c.Engine.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("engine.timezone: %w", err))
		}
	}

	for name, v := range map[string]string{"filter.start": c.Filter.Start, "filter.end": c.Filter.End} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: want YYYY-MM-DD, got %q", name, v))
		}
	}

	switch c.Source.Provider {
	case "file":
		if c.Source.Path == "" && c.Mode != "serve" {
			errs = append(errs, errors.New("source.path: CRONICA_SOURCE_PATH is required for the file source"))
		}
	case "http", "supabase":
		if c.Source.Endpoint == "" {
			errs = append(errs, fmt.Errorf("source.endpoint: CRONICA_ENDPOINT is required for the %s source", c.Source.Provider))
		}
		if c.Source.SessionID == "" && c.Mode != "serve" {
			errs = append(errs, fmt.Errorf("source.session_id: CRONICA_SESSION_ID is required for the %s source", c.Source.Provider))
		}
		if c.Source.Provider == "supabase" && c.Source.APIKey == "" {
			errs = append(errs, errors.New("source.api_key: CRONICA_API_KEY is required for the supabase source"))
		}
	case "":
	default:
		errs = append(errs, fmt.Errorf("source.provider: unknown provider %q", c.Source.Provider))
	}

	if c.Output.Format == "file" && c.Output.FilePath == "" {
		errs = append(errs, errors.New("output.file_path: required when output format is file"))
	}
	if c.Output.Format == "webhook" && c.Output.WebhookURL == "" {
		errs = append(errs, errors.New("output.webhook_url: required when output format is webhook"))
	}

	return errors.Join(errs...)
}

// Location returns the configured viewer time zone, time.Local when unset.
func (c Config) Location() (*time.Location, error) {
	if c.Engine.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Engine.Timezone)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// getenvList reads a comma-separated list, dropping empty items.
func getenvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// State converts the filter section into a FilterState with date bounds
// in loc.
func (f FilterConfig) State(loc *time.Location) (model.FilterState, error) {
	fs := model.FilterState{
		EventTypes:          f.EventTypes,
		ConfidenceThreshold: f.ConfidenceThreshold,
		SearchText:          f.SearchText,
	}
	if f.Start != "" {
		t, err := time.ParseInLocation(DateLayout, f.Start, loc)
		if err != nil {
			return model.FilterState{}, fmt.Errorf("filter.start: %w", err)
		}
		fs.DateRange.Start = &t
	}
	if f.End != "" {
		t, err := time.ParseInLocation(DateLayout, f.End, loc)
		if err != nil {
			return model.FilterState{}, fmt.Errorf("filter.end: %w", err)
		}
		fs.DateRange.End = &t
	}
	return fs, nil
}
