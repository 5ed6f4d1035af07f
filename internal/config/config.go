// Package config loads sheetmap settings from a TOML file, a .env file and
// the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/beetlebugorg/sheetmap/pkg/colorcache"
	"github.com/beetlebugorg/sheetmap/pkg/label"
	"github.com/beetlebugorg/sheetmap/pkg/pipeline"
)

// Config is the full set of settings.
type Config struct {
	Data     Data           `toml:"data"`
	Store    Store          `toml:"store"`
	Labels   Labels         `toml:"labels"`
	Zoom     map[string]int `toml:"zoom"` // Minimum zoom per layer name
	Interval Duration       `toml:"interval"`
}

// Data locates the sheet directory.
type Data struct {
	Dir        string `toml:"dir"`
	CacheBytes int64  `toml:"cache_bytes"`
}

// Store configures the color cache.
type Store struct {
	Kind          string `toml:"kind"`
	Dir           string `toml:"dir"`
	RedisHost     string `toml:"redis_host"`
	RedisPort     int    `toml:"redis_port"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	PostgresDSN   string `toml:"postgres_dsn"`
}

// Labels tunes label placement.
type Labels struct {
	Gap             float64    `toml:"gap"`
	ExclusionRadius float64    `toml:"exclusion_radius"`
	PointSize       float64    `toml:"point_size"`
	InteriorSize    float64    `toml:"interior_size"`
	LineSize        float64    `toml:"line_size"`
	ReadingSize     float64    `toml:"reading_size"`
	TownSizes       [3]float64 `toml:"town_sizes"`
	RequireFit      bool       `toml:"require_fit"`
}

// Duration decodes TOML strings such as "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the settings used when no file is given.
func Default() *Config {
	lo := label.DefaultOptions()
	zoom := make(map[string]int)
	for l, z := range pipeline.DefaultThresholds() {
		zoom[l.String()] = z
	}
	return &Config{
		Data: Data{Dir: "data"},
		Store: Store{
			Kind:      string(colorcache.KindFile),
			Dir:       "colors",
			RedisHost: "127.0.0.1",
			RedisPort: 6379,
		},
		Labels: Labels{
			Gap:             lo.Gap,
			ExclusionRadius: lo.ExclusionRadius,
			PointSize:       lo.PointSize,
			InteriorSize:    lo.InteriorSize,
			LineSize:        lo.LineSize,
			ReadingSize:     lo.ReadingSize,
			TownSizes:       lo.TownSizes,
			RequireFit:      lo.RequireFit,
		},
		Zoom:     zoom,
		Interval: Duration{time.Second},
	}
}

// Load reads path (if non-empty) over the defaults, then applies .env and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	_ = godotenv.Load(".env")
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from environment variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("SHEETMAP_DATA"); v != "" {
		c.Data.Dir = v
	}
	if v := getenv("SHEETMAP_STORE"); v != "" {
		c.Store.Kind = v
	}
	if v := getenv("SHEETMAP_STORE_DIR"); v != "" {
		c.Store.Dir = v
	}
	if v := getenv("REDIS_HOST"); v != "" {
		c.Store.RedisHost = v
	}
	if v := getenv("REDIS_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_PORT: %w", err)
		}
		c.Store.RedisPort = n
	}
	if v := getenv("REDIS_PASS"); v != "" {
		c.Store.RedisPassword = v
	}
	if v := getenv("REDIS_DB"); v != "" {
		// Unparsable values fall back to database 0.
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Store.RedisDB = n
		} else {
			c.Store.RedisDB = 0
		}
	}
	if v := getenv("SHEETMAP_PG_DSN"); v != "" {
		c.Store.PostgresDSN = v
	}
	return nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Data.Dir == "" {
		errs = append(errs, errors.New("data.dir is empty"))
	}
	switch colorcache.Kind(c.Store.Kind) {
	case colorcache.KindNone, colorcache.KindMemory:
	case colorcache.KindFile:
		if c.Store.Dir == "" {
			errs = append(errs, errors.New("store.dir is required for the file store"))
		}
	case colorcache.KindRedis:
		if c.Store.RedisPort <= 0 || c.Store.RedisPort > 65535 {
			errs = append(errs, fmt.Errorf("store.redis_port %d out of range", c.Store.RedisPort))
		}
	case colorcache.KindPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("store.postgres_dsn is required for the postgres store"))
		}
	default:
		errs = append(errs, &colorcache.ErrUnknownStore{Kind: colorcache.Kind(c.Store.Kind)})
	}

	l := c.Labels
	for name, size := range map[string]float64{
		"point_size": l.PointSize, "interior_size": l.InteriorSize,
		"line_size": l.LineSize, "reading_size": l.ReadingSize,
	} {
		if size <= 0 {
			errs = append(errs, fmt.Errorf("labels.%s must be positive, got %g", name, size))
		}
	}
	for i, size := range l.TownSizes {
		if size <= 0 {
			errs = append(errs, fmt.Errorf("labels.town_sizes[%d] must be positive, got %g", i, size))
		}
		if i > 0 && size > l.TownSizes[i-1] {
			errs = append(errs, errors.New("labels.town_sizes must be ordered largest first"))
		}
	}
	if l.Gap < 0 || l.ExclusionRadius < 0 {
		errs = append(errs, errors.New("labels.gap and labels.exclusion_radius must not be negative"))
	}

	if _, err := pipeline.ParseThresholds(c.Zoom); err != nil {
		errs = append(errs, fmt.Errorf("zoom: %w", err))
	}
	if c.Interval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval.Duration))
	}
	return errors.Join(errs...)
}

// StoreConfig converts the store settings for colorcache.Open.
func (c *Config) StoreConfig() colorcache.Config {
	return colorcache.Config{
		Kind:          colorcache.Kind(c.Store.Kind),
		Dir:           c.Store.Dir,
		RedisAddr:     fmt.Sprintf("%s:%d", c.Store.RedisHost, c.Store.RedisPort),
		RedisPassword: c.Store.RedisPassword,
		RedisDB:       c.Store.RedisDB,
		PostgresDSN:   c.Store.PostgresDSN,
	}
}

// LabelOptions converts the label settings for the placer.
func (c *Config) LabelOptions() label.Options {
	return label.Options{
		Gap:             c.Labels.Gap,
		ExclusionRadius: c.Labels.ExclusionRadius,
		PointSize:       c.Labels.PointSize,
		InteriorSize:    c.Labels.InteriorSize,
		LineSize:        c.Labels.LineSize,
		ReadingSize:     c.Labels.ReadingSize,
		TownSizes:       c.Labels.TownSizes,
		RequireFit:      c.Labels.RequireFit,
	}
}

// Thresholds converts the zoom table. Validate must have succeeded.
func (c *Config) Thresholds() pipeline.Thresholds {
	t, err := pipeline.ParseThresholds(c.Zoom)
	if err != nil {
		return pipeline.DefaultThresholds()
	}
	return t
}
