// Package config loads pipeline settings from a YAML file with
// environment-variable overrides, validated once at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all pipeline settings.
type Config struct {
	// Raster intake and outputs.
	RasterDir        string `yaml:"raster_dir"`
	ProcessedDir     string `yaml:"processed_dir"`
	OutputCSV        string `yaml:"output_csv"`
	LowConfidenceCSV string `yaml:"low_confidence_csv"`
	WorkDir          string `yaml:"work_dir"`

	// Tiling geometry.
	TileSize int `yaml:"tile_size"`
	Stride   int `yaml:"stride"`

	// Empty-tile skip heuristic.
	SkipEmptyTiles   bool    `yaml:"skip_empty_tiles"`
	SkipThreshold    float64 `yaml:"skip_threshold"`
	SkipSampleStep   int     `yaml:"skip_sample_step"`

	// Detection filtering and clustering.
	ConfidenceThreshold  float64 `yaml:"confidence_threshold"`
	StaticCutoffPixels   float64 `yaml:"static_cutoff_pixels"`
	MovingCutoffPixels   float64 `yaml:"moving_cutoff_pixels"`
	StaticCutoffDegrees  float64 `yaml:"static_cutoff_degrees"`
	MovingCutoffDegrees  float64 `yaml:"moving_cutoff_degrees"`

	// External detector process.
	DetectorCommand []string      `yaml:"detector_command"`
	DetectorTimeout time.Duration `yaml:"detector_timeout"`
	DetectorRetries int           `yaml:"detector_retries"`

	// Georeferencing.
	GDALInfoBinary string `yaml:"gdalinfo_binary"`
	DefaultEPSG    int    `yaml:"default_epsg"`
	AOIPath        string `yaml:"aoi_path"`

	// Optional Kafka sink for condensed detections.
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`

	// Serving and scheduling.
	HTTPAddr        string        `yaml:"http_addr"`
	Schedule        string        `yaml:"schedule"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
}

// KafkaEnabled reports whether a Kafka sink is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaTopic != ""
}

// Load reads the YAML file at path (or CONFIG_PATH, or ./config.yaml if it
// exists), applies environment-variable overrides and defaults, and validates
// the result.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	envOverride(&c.RasterDir, "RASTER_DIR")
	envOverride(&c.ProcessedDir, "PROCESSED_DIR")
	envOverride(&c.OutputCSV, "OUTPUT_CSV")
	envOverride(&c.LowConfidenceCSV, "LOW_CONFIDENCE_CSV")
	envOverride(&c.WorkDir, "WORK_DIR")
	envOverride(&c.GDALInfoBinary, "GDALINFO_BINARY")
	envOverride(&c.AOIPath, "AOI_PATH")
	envOverride(&c.KafkaTopic, "KAFKA_TOPIC")
	envOverride(&c.HTTPAddr, "HTTP_ADDR")
	envOverride(&c.Schedule, "SCHEDULE")
	envOverride(&c.LogLevel, "LOG_LEVEL")
	envOverride(&c.LogFormat, "LOG_FORMAT")

	if err := envOverrideInt(&c.TileSize, "TILE_SIZE"); err != nil {
		return err
	}
	if err := envOverrideInt(&c.Stride, "STRIDE"); err != nil {
		return err
	}
	if err := envOverrideInt(&c.DetectorRetries, "DETECTOR_RETRIES"); err != nil {
		return err
	}
	if err := envOverrideInt(&c.DefaultEPSG, "DEFAULT_EPSG"); err != nil {
		return err
	}
	if err := envOverrideFloat(&c.ConfidenceThreshold, "CONFIDENCE_THRESHOLD"); err != nil {
		return err
	}
	if err := envOverrideFloat(&c.StaticCutoffPixels, "STATIC_CUTOFF_PIXELS"); err != nil {
		return err
	}
	if err := envOverrideFloat(&c.MovingCutoffPixels, "MOVING_CUTOFF_PIXELS"); err != nil {
		return err
	}
	if err := envOverrideFloat(&c.StaticCutoffDegrees, "STATIC_CUTOFF_DEGREES"); err != nil {
		return err
	}
	if err := envOverrideFloat(&c.MovingCutoffDegrees, "MOVING_CUTOFF_DEGREES"); err != nil {
		return err
	}
	if err := envOverrideDuration(&c.DetectorTimeout, "DETECTOR_TIMEOUT"); err != nil {
		return err
	}
	if err := envOverrideDuration(&c.ShutdownTimeout, "SHUTDOWN_TIMEOUT"); err != nil {
		return err
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("DETECTOR_COMMAND"); v != "" {
		c.DetectorCommand = strings.Fields(v)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ProcessedDir == "" && c.RasterDir != "" {
		c.ProcessedDir = c.RasterDir + "/processed"
	}
	if c.WorkDir == "" {
		c.WorkDir = os.TempDir()
	}
	if c.TileSize == 0 {
		c.TileSize = 416
	}
	if c.Stride == 0 {
		c.Stride = 104
	}
	if c.SkipThreshold == 0 {
		c.SkipThreshold = 0.93
	}
	if c.SkipSampleStep == 0 {
		c.SkipSampleStep = 8
	}
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = 0.5
	}
	if c.StaticCutoffPixels == 0 {
		c.StaticCutoffPixels = 10
	}
	if c.MovingCutoffPixels == 0 {
		c.MovingCutoffPixels = 25
	}
	if c.StaticCutoffDegrees == 0 {
		c.StaticCutoffDegrees = 0.0001
	}
	if c.MovingCutoffDegrees == 0 {
		c.MovingCutoffDegrees = 0.0003
	}
	if c.DetectorTimeout == 0 {
		c.DetectorTimeout = 10 * time.Minute
	}
	if c.DetectorRetries == 0 {
		c.DetectorRetries = 3
	}
	if c.GDALInfoBinary == "" {
		c.GDALInfoBinary = "gdalinfo"
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
}

func (c *Config) validate() error {
	if c.RasterDir == "" {
		return errors.New("raster_dir is required")
	}
	if c.OutputCSV == "" {
		return errors.New("output_csv is required")
	}
	if len(c.DetectorCommand) == 0 {
		return errors.New("detector_command is required")
	}
	if c.TileSize <= 0 || c.Stride <= 0 {
		return fmt.Errorf("tile_size and stride must be positive, got %d and %d", c.TileSize, c.Stride)
	}
	if c.TileSize%c.Stride != 0 {
		return fmt.Errorf("tile_size %d must be a multiple of stride %d", c.TileSize, c.Stride)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in [0, 1], got %g", c.ConfidenceThreshold)
	}
	if c.SkipThreshold < 0 || c.SkipThreshold > 1 {
		return fmt.Errorf("skip_threshold must be in [0, 1], got %g", c.SkipThreshold)
	}
	for name, v := range map[string]float64{
		"static_cutoff_pixels":  c.StaticCutoffPixels,
		"moving_cutoff_pixels":  c.MovingCutoffPixels,
		"static_cutoff_degrees": c.StaticCutoffDegrees,
		"moving_cutoff_degrees": c.MovingCutoffDegrees,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %g", name, v)
		}
	}
	if c.DetectorRetries < 1 {
		return fmt.Errorf("detector_retries must be >= 1, got %d", c.DetectorRetries)
	}
	if c.KafkaTopic != "" && len(c.KafkaBrokers) == 0 {
		return errors.New("kafka_topic is set but kafka_brokers is empty")
	}
	if c.Schedule != "" && !strings.HasPrefix(c.Schedule, "@") && len(strings.Fields(c.Schedule)) < 5 {
		return fmt.Errorf("schedule %q is not a cron expression", c.Schedule)
	}
	return nil
}

func envOverride(field *string, key string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}

func envOverrideInt(field *int, key string) error {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*field = n
	}
	return nil
}

func envOverrideFloat(field *float64, key string) error {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*field = f
	}
	return nil
}

func envOverrideDuration(field *time.Duration, key string) error {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*field = d
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
