package ioc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds container settings read from the environment.
type Config struct {
	// Timing is read from IOC_TIMING: "construction" enables timing, anything
	// else disables it.
	Timing TimingMode

	// LogLevel is read from IOC_LOG_LEVEL. Empty means no logging.
	LogLevel string

	// BindingsFiles is read from IOC_BINDINGS_FILE, a comma separated list
	// of dotenv files loaded with LoadBindings.
	BindingsFiles []string
}

// LoadConfig reads the given .env files (".env" when none are given) into the
// environment, without overriding variables that are already set, and builds
// a Config from it. Missing files are skipped; a file that exists but cannot
// be read or parsed is an error.
func LoadConfig(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{
		LogLevel: os.Getenv("IOC_LOG_LEVEL"),
	}
	if strings.EqualFold(os.Getenv("IOC_TIMING"), "construction") {
		cfg.Timing = TimingConstruction
	}
	for _, f := range strings.Split(os.Getenv("IOC_BINDINGS_FILE"), ",") {
		if f = strings.TrimSpace(f); f != "" {
			cfg.BindingsFiles = append(cfg.BindingsFiles, f)
		}
	}
	return cfg, nil
}

// Options converts the configuration into container options.
func (cfg *Config) Options() ([]Option, error) {
	opts := []Option{WithTiming(cfg.Timing)}
	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		logger, err := zapCfg.Build()
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithLogger(logger))
	}
	return opts, nil
}

// NewFromConfig creates a container configured by cfg, with its bindings
// files already loaded. Extra options are applied after the configured ones.
func NewFromConfig(types Introspector, cfg *Config, opts ...Option) (*Container, error) {
	cfgOpts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	c := New(types, append(cfgOpts, opts...)...)
	if len(cfg.BindingsFiles) > 0 {
		if err := c.LoadBindings(cfg.BindingsFiles...); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadBindings reads dotenv formatted files of `abstract=concrete` lines and
// binds each pair. Identifiers in these files are limited to letters, digits,
// '_' and '.', so register types under such ids with WithID to bind them
// this way.
func (c *Container) LoadBindings(files ...string) error {
	pairs, err := godotenv.Read(files...)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(pairs))
	for id := range pairs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		c.Bind(id, pairs[id])
	}
	return nil
}
