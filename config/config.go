package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr    string
	MongoURI      string
	MongoDatabase string
	UploadDir     string
	MaxUploadMB   int64

	JWTSecret    string
	PasswordHash string

	// DailyZone decides which calendar day "today" is for the daily pick.
	DailyZone *time.Location
	// ExifZone is applied to EXIF timestamps, which carry no offset.
	ExifZone *time.Location

	NominatimURL       string
	NominatimUserAgent string
	NominatimLanguage  string
	GeocodeTimeout     time.Duration
	GeocodeInterval    time.Duration

	OEmbedURL string

	LogDev bool
}

// Load reads .env files when present and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var errs []error
	zone := func(key string) *time.Location {
		loc, err := time.LoadLocation(get(key, "UTC"))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return time.UTC
		}
		return loc
	}
	duration := func(key string, def time.Duration) time.Duration {
		raw := get(key, "")
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, raw))
			return def
		}
		return d
	}

	cfg := &Config{
		ListenAddr:         get("LISTEN_ADDR", ":8080"),
		MongoURI:           get("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:      get("MONGO_DATABASE", "photo_vault"),
		UploadDir:          get("UPLOAD_DIR", "./.uploads"),
		MaxUploadMB:        200,
		JWTSecret:          getenv("JWT_SECRET"),
		PasswordHash:       getenv("PW"),
		DailyZone:          zone("DAILY_TIMEZONE"),
		ExifZone:           zone("EXIF_TIMEZONE"),
		NominatimURL:       get("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: get("NOMINATIM_USER_AGENT", "PhotoVault/1.0"),
		NominatimLanguage:  get("NOMINATIM_LANGUAGE", "fr"),
		GeocodeTimeout:     duration("GEOCODE_TIMEOUT", 5*time.Second),
		GeocodeInterval:    duration("GEOCODE_INTERVAL", 1100*time.Millisecond),
		OEmbedURL:          get("OEMBED_URL", "https://www.youtube.com/oembed"),
	}

	if raw := get("MAX_UPLOAD_MB", ""); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("MAX_UPLOAD_MB: invalid size %q", raw))
		} else {
			cfg.MaxUploadMB = n
		}
	}
	if raw := get("LOG_DEV", ""); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("LOG_DEV: %w", err))
		}
		cfg.LogDev = v
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateServe checks the settings only the HTTP server needs.
func (c *Config) ValidateServe() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.PasswordHash == "" {
		errs = append(errs, errors.New("PW (bcrypt hash) is required"))
	}
	return errors.Join(errs...)
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}
