package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultLogLevel        = "info"
	defaultContentDir      = "content"
	defaultContentCacheTTL = 5 * time.Minute
	defaultPublicDir       = "public"
	defaultSiteTitle       = "Safetag guide"
	defaultGuideLinger     = time.Second
	defaultGuideRenderer   = "html"
	defaultGuideTimeout    = 2 * time.Minute
	defaultGuideOutputDir  = "var/guides"
	defaultArtifactTTL     = 24 * time.Hour
	defaultDownloadIdleTTL = 30 * time.Minute
	defaultHousekeeping    = "@every 10m"
	defaultMetricsPath     = "/metrics"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Content  ContentConfig
	Site     SiteConfig
	Session  SessionConfig
	Guide    GuideConfig
	Download DownloadConfig
	Metrics  MetricsConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string        `validate:"required,numeric"`
	ReadTimeout  time.Duration `validate:"gt=0"`
	WriteTimeout time.Duration `validate:"gt=0"`
	IdleTimeout  time.Duration `validate:"gt=0"`
	Dev          bool
}

// Addr returns the listen address for the configured port.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

// ContentConfig locates the markdown content directory.
type ContentConfig struct {
	Dir      string        `validate:"required"`
	CacheTTL time.Duration `validate:"gt=0"`
	Watch    bool
}

// SiteConfig holds presentation settings shared by every page.
type SiteConfig struct {
	Title     string `validate:"required"`
	BaseURL   string `validate:"omitempty,url"`
	PublicDir string `validate:"required"`
}

// SessionConfig controls the signed view-session cookie.
type SessionConfig struct {
	SigningKey string
	Secure     bool
}

// GuideConfig controls guide preparation and artifact storage.
type GuideConfig struct {
	Linger      time.Duration `validate:"gte=0"`
	Renderer    string        `validate:"oneof=html chromedp"`
	Timeout     time.Duration `validate:"gt=0"`
	OutputDir   string        `validate:"required_without=Bucket"`
	Bucket      string
	ArtifactTTL time.Duration `validate:"gt=0"`
}

// DownloadConfig controls download state housekeeping.
type DownloadConfig struct {
	IdleTTL  time.Duration `validate:"gt=0"`
	Schedule string        `validate:"required"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string `validate:"required,startswith=/"`
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides. An empty path disables it.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load assembles the application configuration by combining defaults, .env overrides,
// environment variables, and explicit maps, in increasing order of precedence.
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	dev := boolWithDefault(lookup, "SAFETAG_DEV", false)
	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "SAFETAG_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "SAFETAG_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SAFETAG_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SAFETAG_IDLE_TIMEOUT", defaultIdleTimeout),
			Dev:          dev,
		},
		Log: LogConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "SAFETAG_LOG_LEVEL", defaultLogLevel)),
		},
		Content: ContentConfig{
			Dir:      stringWithDefault(lookup, "SAFETAG_CONTENT_DIR", defaultContentDir),
			CacheTTL: durationWithDefault(lookup, "SAFETAG_CONTENT_CACHE_TTL", defaultContentCacheTTL),
			Watch:    boolWithDefault(lookup, "SAFETAG_CONTENT_WATCH", dev),
		},
		Site: SiteConfig{
			Title:     stringWithDefault(lookup, "SAFETAG_SITE_TITLE", defaultSiteTitle),
			BaseURL:   strings.TrimRight(stringWithDefault(lookup, "SAFETAG_BASE_URL", ""), "/"),
			PublicDir: stringWithDefault(lookup, "SAFETAG_PUBLIC_DIR", defaultPublicDir),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, "SAFETAG_SESSION_SIGNING_KEY", ""),
			Secure:     boolWithDefault(lookup, "SAFETAG_SESSION_SECURE", false),
		},
		Guide: GuideConfig{
			Linger:      durationWithDefault(lookup, "SAFETAG_GUIDE_LINGER", defaultGuideLinger),
			Renderer:    strings.ToLower(stringWithDefault(lookup, "SAFETAG_GUIDE_RENDERER", defaultGuideRenderer)),
			Timeout:     durationWithDefault(lookup, "SAFETAG_GUIDE_TIMEOUT", defaultGuideTimeout),
			OutputDir:   stringWithDefault(lookup, "SAFETAG_GUIDE_OUTPUT_DIR", defaultGuideOutputDir),
			Bucket:      stringWithDefault(lookup, "SAFETAG_GUIDE_BUCKET", ""),
			ArtifactTTL: durationWithDefault(lookup, "SAFETAG_GUIDE_ARTIFACT_TTL", defaultArtifactTTL),
		},
		Download: DownloadConfig{
			IdleTTL:  durationWithDefault(lookup, "SAFETAG_DOWNLOAD_IDLE_TTL", defaultDownloadIdleTTL),
			Schedule: stringWithDefault(lookup, "SAFETAG_HOUSEKEEPING_SCHEDULE", defaultHousekeeping),
		},
		Metrics: MetricsConfig{
			Enabled: boolWithDefault(lookup, "SAFETAG_METRICS_ENABLED", true),
			Path:    stringWithDefault(lookup, "SAFETAG_METRICS_PATH", defaultMetricsPath),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: validate: %w", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.TrimPrefix(fe.Namespace(), "Config."))
	}
	return &ValidationError{fields: fields}
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return parsed
		}
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "yes", "on":
			return true
		case "no", "off":
			return false
		}
	}
	return fallback
}
