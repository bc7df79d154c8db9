// Package config loads the service configuration from YAML, expanding
// ${VAR} references against the environment so secrets stay out of
// config files.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig              `yaml:"server"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Store     StoreConfig               `yaml:"store"`
	Cache     CacheConfig               `yaml:"cache"`
	Schedules []ScheduleConfig          `yaml:"schedules"`
	Log       LogConfig                 `yaml:"log"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// ProviderConfig describes one LLM backend. The api field selects the
// wire flavor: openai, openrouter, or stub.
type ProviderConfig struct {
	API     string `yaml:"api"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	DSN    string `yaml:"dsn"`
}

type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTL      Duration `yaml:"ttl"`
}

// Duration decodes YAML strings like "30s" or "1h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// ScheduleConfig is one recurring agent run: analyze the input, plan
// against the goal, then execute the message on the resulting agent.
type ScheduleConfig struct {
	Name     string `yaml:"name"`
	Cron     string `yaml:"cron"`
	APIInput string `yaml:"api_input"`
	Goal     string `yaml:"goal"`
	Message  string `yaml:"message"`
	Provider string `yaml:"provider"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)}`)

func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func expandEnvInConfig(cfg *Config) {
	for name, p := range cfg.Providers {
		p.BaseURL = expandEnv(p.BaseURL)
		p.APIKey = expandEnv(p.APIKey)
		cfg.Providers[name] = p
	}
	cfg.Store.DSN = expandEnv(cfg.Store.DSN)
	cfg.Cache.Addr = expandEnv(cfg.Cache.Addr)
	cfg.Cache.Password = expandEnv(cfg.Cache.Password)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.DSN == "" {
		cfg.Store.DSN = "agentsmith.db"
	}
	if cfg.Cache.Addr == "" {
		cfg.Cache.Addr = "localhost:6379"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate rejects configurations the service cannot start with.
func (cfg *Config) Validate() error {
	if cfg.Store.Driver != "sqlite" && cfg.Store.Driver != "postgres" {
		return fmt.Errorf("store.driver must be sqlite or postgres, got %q", cfg.Store.Driver)
	}
	if cfg.Store.Driver == "postgres" && cfg.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for postgres")
	}
	for name, p := range cfg.Providers {
		switch p.API {
		case "", "openai", "openrouter", "stub":
		default:
			return fmt.Errorf("provider %s: unknown api %q", name, p.API)
		}
	}
	for i, s := range cfg.Schedules {
		if s.Cron == "" {
			return fmt.Errorf("schedule %d (%s): cron expression is required", i, s.Name)
		}
		if s.APIInput == "" {
			return fmt.Errorf("schedule %d (%s): api_input is required", i, s.Name)
		}
	}
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	expandEnvInConfig(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
