// Package config assembles relay settings from defaults, an optional YAML
// file, the environment (including a .env file) and command line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port            int           `yaml:"port"`
	PublicURL       string        `yaml:"public_url"`
	LogLevel        string        `yaml:"log_level"`
	WebDir          string        `yaml:"web_dir"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	SendBuffer      int           `yaml:"send_buffer"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func Default() Config {
	return Config{
		Port:            8080,
		LogLevel:        "info",
		AllowedOrigins:  []string{"*"},
		SendBuffer:      256,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load parses args (without the program name) and returns the merged
// configuration. A missing .env file is not an error.
func Load(args []string) (Config, error) {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("scrum-poker-relay", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to a YAML config file")
	port := fs.IntP("port", "p", 0, "listen port")
	publicURL := fs.String("public-url", "", "externally reachable base URL reported to hosts")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	webDir := fs.String("web-dir", "", "directory holding the participant web UI")
	origins := fs.StringSlice("allowed-origins", nil, "accepted websocket origins")
	sendBuffer := fs.Int("send-buffer", 0, "outbound frames queued per connection")
	shutdown := fs.Duration("shutdown-timeout", 0, "graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()

	path := *configPath
	if path == "" {
		path = os.Getenv("RELAY_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if fs.Changed("port") {
		cfg.Port = *port
	}
	if fs.Changed("public-url") {
		cfg.PublicURL = *publicURL
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if fs.Changed("web-dir") {
		cfg.WebDir = *webDir
	}
	if fs.Changed("allowed-origins") {
		cfg.AllowedOrigins = *origins
	}
	if fs.Changed("send-buffer") {
		cfg.SendBuffer = *sendBuffer
	}
	if fs.Changed("shutdown-timeout") {
		cfg.ShutdownTimeout = *shutdown
	}

	if cfg.PublicURL == "" {
		cfg.PublicURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("invalid PORT env variable")
		}
		cfg.Port = port
	}
	if v := os.Getenv("RELAY_PUBLIC_URL"); v != "" {
		cfg.PublicURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WEB_DIR"); v != "" {
		cfg.WebDir = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("SEND_BUFFER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("invalid SEND_BUFFER env variable")
		}
		cfg.SendBuffer = n
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.New("invalid SHUTDOWN_TIMEOUT env variable")
		}
		cfg.ShutdownTimeout = d
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

func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.SendBuffer < 1 {
		return fmt.Errorf("send buffer must be positive, got %d", c.SendBuffer)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
