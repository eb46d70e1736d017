package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ProviderConfig overrides how a provider adapter reaches its upstream.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	KeyEnv  string `yaml:"key_env"`
}

// ServerConfig holds configuration for the llmrouter server.
type ServerConfig struct {
	Port           int                       `yaml:"port"`
	MetricsAddr    string                    `yaml:"metrics_addr"`
	AllowedOrigins []string                  `yaml:"allowed_origins"`
	ConfigFile     string                    `yaml:"-"`
	EnvFile        string                    `yaml:"env_file"`
	LogLevel       string                    `yaml:"log_level"`
	RedisAddr      string                    `yaml:"redis_addr"`
	DrainTimeout   time.Duration             `yaml:"drain_timeout"`
	Providers      map[string]ProviderConfig `yaml:"providers"`
}

// SetDefaults fills unset fields with built-in defaults.
func (c *ServerConfig) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = 30 * time.Second
	}
	if c.ConfigFile == "" {
		c.ConfigFile = DefaultConfigPath("server.yaml")
	}
	if c.EnvFile == "" {
		c.EnvFile = ".env"
	}
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
}

// ApplyEnv overlays environment variables onto the current config values.
func (c *ServerConfig) ApplyEnv() {
	if v := GetEnv("CONFIG_FILE", ""); v != "" {
		c.ConfigFile = v
	}
	if v := GetEnv("ENV_FILE", ""); v != "" {
		c.EnvFile = v
	}
	if v := GetEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := GetEnv("PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := GetEnv("METRICS_PORT", ""); v != "" {
		c.MetricsAddr = listenAddr(v)
	}
	if v := GetEnv("REDIS_ADDR", ""); v != "" {
		c.RedisAddr = v
	}
	if v := GetEnv("DRAIN_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DrainTimeout = d
		}
	}
	if v := GetEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitComma(v)
	}
	for _, name := range []string{"openai", "groq", "google"} {
		if v := GetEnv(strings.ToUpper(name)+"_BASE_URL", ""); v != "" {
			c.SetProviderBaseURL(name, v)
		}
	}
}

// BindFlags binds command line flags using the current config values as defaults.
func (c *ServerConfig) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "server config file path")
	fs.StringVar(&c.EnvFile, "env-file", c.EnvFile, "dotenv file holding provider credentials")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
	fs.IntVar(&c.Port, "port", c.Port, "HTTP listen port")
	fs.Func("metrics-port", "Prometheus metrics listen address or port; defaults to the value of --port", func(v string) error {
		c.MetricsAddr = listenAddr(v)
		return nil
	})
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "redis connection URL for shared server state")
	fs.DurationVar(&c.DrainTimeout, "drain-timeout", c.DrainTimeout, "time to wait for in-flight streams on shutdown (-1 to wait indefinitely, 0 to exit immediately)")
	fs.Func("allowed-origins", "comma separated list of allowed CORS origins", func(v string) error {
		c.AllowedOrigins = splitComma(v)
		return nil
	})
}

// LoadFile populates the config from a YAML file.
func (c *ServerConfig) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

// LoadEnvFile loads provider credentials from a dotenv file. Variables already
// present in the process environment win. A missing file is not an error.
func (c *ServerConfig) LoadEnvFile() error {
	if c.EnvFile == "" {
		return nil
	}
	if err := godotenv.Load(c.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", c.EnvFile, err)
	}
	return nil
}

// SetProviderBaseURL overrides the upstream base URL of a provider.
func (c *ServerConfig) SetProviderBaseURL(name, baseURL string) {
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	pc := c.Providers[name]
	pc.BaseURL = baseURL
	c.Providers[name] = pc
}

// Provider returns the overrides for a provider; zero fields mean "use the
// adapter's default".
func (c *ServerConfig) Provider(name string) ProviderConfig {
	return c.Providers[name]
}

// Load resolves the configuration with precedence flags > environment > file
// > defaults. A missing config file is ignored.
func Load(fs *flag.FlagSet, args []string) (*ServerConfig, error) {
	c := &ServerConfig{}
	c.SetDefaults()
	c.ApplyEnv()
	c.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.ConfigFile != "" {
		if err := c.LoadFile(c.ConfigFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("load config %s: %w", c.ConfigFile, err)
			}
		} else {
			// the file may not override what env or flags already decided
			c.ApplyEnv()
			if err := fs.Parse(args); err != nil {
				return nil, err
			}
		}
	}
	c.SetDefaults()
	if c.MetricsAddr == "" {
		c.MetricsAddr = fmt.Sprintf(":%d", c.Port)
	}
	return c, nil
}

// MetricsOnMainPort reports whether /metrics is served by the public listener.
func (c *ServerConfig) MetricsOnMainPort() bool {
	return c.MetricsAddr == "" || c.MetricsAddr == fmt.Sprintf(":%d", c.Port)
}

func listenAddr(v string) string {
	if strings.Contains(v, ":") {
		return v
	}
	return ":" + v
}

func splitComma(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
