package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/vxverify/vxverify/internal/safefile"
	"github.com/vxverify/vxverify/internal/vx"
	"gopkg.in/yaml.v3"
)

// maxConfigBytes caps the size of a config file.
const maxConfigBytes = 1 << 20

// Config is the top-level vxverify configuration.
type Config struct {
	Version string        `yaml:"version"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Server  ServerConfig  `yaml:"server"`
	Batch   BatchConfig   `yaml:"batch"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Tracing TracingConfig `yaml:"tracing,omitempty"`
}

// OracleConfig pins the game series and oracle key being verified.
type OracleConfig struct {
	AppSlug    string `yaml:"app_slug"`
	Salt       string `yaml:"salt"`
	Commitment string `yaml:"commitment"`
	PublicKey  string `yaml:"public_key"`
	Curve      string `yaml:"curve"`
	Suite      string `yaml:"suite"`
}

// ServerConfig holds VX GraphQL endpoint settings.
type ServerConfig struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries uint64        `yaml:"max_retries"` // 0 = fail on first transport error
}

// BatchConfig tunes the batch command.
type BatchConfig struct {
	Concurrency int     `yaml:"concurrency"`
	RatePerSec  float64 `yaml:"rate_per_sec"` // 0 = unlimited
}

// LogConfig selects log level and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// MetricsConfig configures Prometheus Pushgateway export for batch runs.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url,omitempty"`
	Job            string `yaml:"job,omitempty"`
}

// TracingConfig enables OpenTelemetry spans written to stderr.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Production values for bustabit's VX commitment.
const (
	DefaultAppSlug    = "bustabit"
	DefaultSalt       = "000000000000000000011f6e135efe67d7463dfe7bb955663ef88b1243b2deea"
	DefaultCommitment = "567a98370fb7545137ddb53687723cf0b8a1f5e93b1f76f4a1da29416930fa59"
	DefaultPublicKey  = "b40c94495f6e6e73619aeb54ec2fc84c5333f7a88ace82923946fc5b6c8635b08f9130888dd96e1749a1d5aab00020e4"
	DefaultServerURL  = "https://server.actuallyfair.com/graphql"
)

// Defaults returns a config for bustabit with sensible defaults.
func Defaults() *Config {
	return &Config{
		Version: "1",
		Oracle: OracleConfig{
			AppSlug:    DefaultAppSlug,
			Salt:       DefaultSalt,
			Commitment: DefaultCommitment,
			PublicKey:  DefaultPublicKey,
			Curve:      vx.Curve,
			Suite:      vx.Suite,
		},
		Server: ServerConfig{
			URL:     DefaultServerURL,
			Timeout: 30 * time.Second,
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Job: "vxverify",
		},
	}
}

// Load reads and parses a vxverify config file on top of Defaults.
// Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := safefile.ReadFileMax(path, maxConfigBytes)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply zero-value defaults after unmarshal
	if cfg.Oracle.Curve == "" {
		cfg.Oracle.Curve = vx.Curve
	}
	if cfg.Oracle.Suite == "" {
		cfg.Oracle.Suite = vx.Suite
	}
	if cfg.Batch.Concurrency == 0 {
		cfg.Batch.Concurrency = 4
	}

	return cfg, nil
}

// LoadOrDefault loads path, falling back to Defaults when the file does not
// exist. Any other read or parse error is returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	return cfg, err
}

// Save writes the config to a YAML file at the given path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := safefile.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// envPrefix prefixes every environment override.
const envPrefix = "VXVERIFY_"

// ApplyEnv loads the optional dotenv files (".env" when none are given) and
// overrides fields from VXVERIFY_* variables. Variables already set in the
// process environment win over dotenv values.
func (c *Config) ApplyEnv(dotenvFiles ...string) error {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}

	strs := map[string]*string{
		"APP_SLUG":    &c.Oracle.AppSlug,
		"SALT":        &c.Oracle.Salt,
		"COMMITMENT":  &c.Oracle.Commitment,
		"PUBLIC_KEY":  &c.Oracle.PublicKey,
		"SERVER_URL":  &c.Server.URL,
		"LOG_LEVEL":   &c.Log.Level,
		"LOG_FORMAT":  &c.Log.Format,
		"PUSHGATEWAY": &c.Metrics.PushgatewayURL,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", envPrefix, err)
		}
		c.Server.Timeout = d
	}
	if v, ok := os.LookupEnv(envPrefix + "MAX_RETRIES"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_RETRIES: %w", envPrefix, err)
		}
		c.Server.MaxRetries = n
	}
	if v, ok := os.LookupEnv(envPrefix + "TRACING"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sTRACING: %w", envPrefix, err)
		}
		c.Tracing.Enabled = b
	}
	return nil
}

// Validate checks that the config is consistent.
func (c *Config) Validate() error {
	if c.Oracle.AppSlug == "" {
		return fmt.Errorf("oracle.app_slug is required")
	}
	if c.Oracle.Curve != vx.Curve {
		return fmt.Errorf("oracle.curve %q is not supported (want %q)", c.Oracle.Curve, vx.Curve)
	}
	if c.Oracle.Suite != vx.Suite {
		return fmt.Errorf("oracle.suite %q is not supported (want %q)", c.Oracle.Suite, vx.Suite)
	}
	if _, err := c.Params(); err != nil {
		return err
	}
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("invalid server.timeout: %s", c.Server.Timeout)
	}
	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 64 {
		return fmt.Errorf("invalid batch.concurrency: %d", c.Batch.Concurrency)
	}
	if c.Batch.RatePerSec < 0 {
		return fmt.Errorf("invalid batch.rate_per_sec: %v", c.Batch.RatePerSec)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
		// valid
	default:
		return fmt.Errorf("invalid log.format %q", c.Log.Format)
	}
	return nil
}

// Params converts the oracle section into verification parameters.
func (c *Config) Params() (vx.Params, error) {
	p, err := vx.ParseParams(c.Oracle.Salt, c.Oracle.Commitment, c.Oracle.PublicKey)
	if err != nil {
		return vx.Params{}, fmt.Errorf("oracle: %w", err)
	}
	return p, nil
}
