package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/limaJavier/dropadd/internal/logger"
	"github.com/limaJavier/dropadd/pkg/reassign"
)

const envPrefix = "DROPADD_"

type Config struct {
	Engine  EngineConfig  `json:"engine"`
	Logging LoggingConfig `json:"logging"`
	Output  OutputConfig  `json:"output"`
}

// EngineConfig mirrors the reassignment options. Zero values fall back to the engine defaults.
type EngineConfig struct {
	Seed       int64 `json:"seed"`
	MaxDepth   int   `json:"max_depth"`
	MainWeight int   `json:"main_weight"`
	AltWeight  int   `json:"alt_weight"`
}

type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level"`
	// Format is "json" or "console".
	Format string `json:"format"`
}

// OutputConfig holds destination paths. An empty report path prints the report to the Standard Output,
// the other outputs are skipped when empty.
type OutputConfig struct {
	Report  string `json:"report"`
	Changes string `json:"changes"`
	Metrics string `json:"metrics"`
}

// Load reads the configuration file, if any, and applies environment overrides such as DROPADD_ENGINE__MAX_DEPTH
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("cannot load config file: %w", err)
		}
	}

	// Optional environment overrides. The callback already maps "__" to the "." key delimiter
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}
	cfg.Engine.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the engine defaults to unset fields.
func (c *EngineConfig) SetDefaults() {
	if c.MaxDepth == 0 {
		c.MaxDepth = reassign.DefaultMaxDepth
	}
	if c.MainWeight == 0 {
		c.MainWeight = reassign.DefaultMainWeight
	}
	if c.AltWeight == 0 {
		c.AltWeight = reassign.DefaultAltWeight
	}
}

func (c EngineConfig) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("engine.max_depth must not be negative: %d", c.MaxDepth)
	}
	if c.MainWeight < 0 || c.AltWeight < 0 {
		return fmt.Errorf("engine weights must not be negative: main %d, alternate %d", c.MainWeight, c.AltWeight)
	}
	return nil
}

// Options converts the engine section into reassignment options
func (c EngineConfig) Options(log logger.Logger, observer reassign.Observer) reassign.Options {
	return reassign.Options{
		Seed:       c.Seed,
		MaxDepth:   c.MaxDepth,
		MainWeight: c.MainWeight,
		AltWeight:  c.AltWeight,
		Logger:     log,
		Observer:   observer,
	}
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
}

func (c LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %s", c.Level)
	}
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("unknown log format %s", c.Format)
	}
	return nil
}

// LoggerOptions converts the logging section into zerolog options
func (c LoggingConfig) LoggerOptions() logger.Options {
	return logger.Options{Level: c.Level, Format: c.Format}
}
