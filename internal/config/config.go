// Package config loads balootcheck settings. Values come from built-in
// defaults, then an optional YAML file, then the environment (a .env file is
// loaded first and never overrides variables already set).
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment key.
const EnvPrefix = "BALOOT_"

// Config is the full set of knobs.
type Config struct {
	Observer   string `yaml:"observer"`
	ArchiveDir string `yaml:"archive_dir"`
	NoCaptures bool   `yaml:"no_captures"`

	Workers       int     `yaml:"workers"` // 0 uses GOMAXPROCS
	SystemicRatio float64 `yaml:"systemic_ratio"`
	MaxFindings   int     `yaml:"max_findings"` // negative keeps all

	MaxFrameSize int `yaml:"max_frame_size"` // decompressed body cap
	MaxDepth     int `yaml:"max_depth"`
	MaxRecord    int `yaml:"max_record"` // capture file record cap

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text or json

	ReportPath   string `yaml:"report_path"` // empty writes to stdout
	ReportFormat string `yaml:"report_format"`

	CaptureURL    string        `yaml:"capture_url"`
	CaptureSecret string        `yaml:"capture_secret"`
	DecideTimeout time.Duration `yaml:"decide_timeout"`

	RedisURL     string `yaml:"redis_url"`
	RedisChannel string `yaml:"redis_channel"`

	RelayAddr     string        `yaml:"relay_addr"`
	RelayInterval time.Duration `yaml:"relay_interval"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		ArchiveDir:    "archives",
		SystemicRatio: 0.5,
		MaxFindings:   200,
		MaxFrameSize:  1 << 20,
		MaxDepth:      32,
		MaxRecord:     4 << 20,
		LogLevel:      "info",
		LogFormat:     "text",
		ReportFormat:  "table",
		DecideTimeout: 2 * time.Second,
		RedisChannel:  "baloot:view",
		RelayAddr:     ":8089",
		RelayInterval: 50 * time.Millisecond,
	}
}

// Load builds a Config. envFile and path may be empty; a missing envFile is
// ignored, a missing path is an error. When path is empty BALOOT_CONFIG is
// consulted.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays BALOOT_* variables. lookup is os.LookupEnv outside tests.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	str("OBSERVER", &c.Observer)
	str("ARCHIVE_DIR", &c.ArchiveDir)
	if v, ok := lookup(EnvPrefix + "NO_CAPTURES"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%sNO_CAPTURES: %w", EnvPrefix, err))
		} else {
			c.NoCaptures = b
		}
	}
	num("WORKERS", &c.Workers)
	if v, ok := lookup(EnvPrefix + "SYSTEMIC_RATIO"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSYSTEMIC_RATIO: %w", EnvPrefix, err))
		} else {
			c.SystemicRatio = f
		}
	}
	num("MAX_FINDINGS", &c.MaxFindings)
	num("MAX_FRAME_SIZE", &c.MaxFrameSize)
	num("MAX_DEPTH", &c.MaxDepth)
	num("MAX_RECORD", &c.MaxRecord)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("REPORT_PATH", &c.ReportPath)
	str("REPORT_FORMAT", &c.ReportFormat)
	str("CAPTURE_URL", &c.CaptureURL)
	str("CAPTURE_SECRET", &c.CaptureSecret)
	dur("DECIDE_TIMEOUT", &c.DecideTimeout)
	str("REDIS_URL", &c.RedisURL)
	str("REDIS_CHANNEL", &c.RedisChannel)
	str("RELAY_ADDR", &c.RelayAddr)
	dur("RELAY_INTERVAL", &c.RelayInterval)
	return errors.Join(errs...)
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.SystemicRatio <= 0 || c.SystemicRatio > 1 {
		errs = append(errs, fmt.Errorf("systemic_ratio must be in (0,1], got %g", c.SystemicRatio))
	}
	if c.MaxFrameSize < 0 || c.MaxDepth < 0 || c.MaxRecord < 0 {
		errs = append(errs, errors.New("size limits must be >= 0"))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q: want text or json", c.LogFormat))
	}
	return errors.Join(errs...)
}

// NewLogger builds the logger described by c, writing to w.
func (c *Config) NewLogger(w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	}
	return log, nil
}
