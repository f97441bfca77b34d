package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TASKTRACK"

type Config struct {
	DBPath    string
	Listen    string
	ServerURL string
	Session   SessionConfig
	Log       LogConfig
	Client    ClientConfig
}

type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

type ClientConfig struct {
	SessionFile string
	Timeout     time.Duration
}

// fileConfig is the on-disk shape; durations are written as "24h0m0s".
type fileConfig struct {
	DBPath    string `yaml:"db_path,omitempty"`
	Listen    string `yaml:"listen"`
	ServerURL string `yaml:"server_url"`
	Session   struct {
		Secret       string `yaml:"secret,omitempty"`
		TTL          string `yaml:"ttl"`
		CookieName   string `yaml:"cookie_name"`
		CookieSecure bool   `yaml:"cookie_secure"`
	} `yaml:"session"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file,omitempty"`
	} `yaml:"log"`
	Client struct {
		SessionFile string `yaml:"session_file,omitempty"`
		Timeout     string `yaml:"timeout"`
	} `yaml:"client"`
}

func Default() Config {
	return Config{
		Listen:    ":8080",
		ServerURL: "http://localhost:8080",
		Session: SessionConfig{
			TTL:        24 * time.Hour,
			CookieName: "token",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "tasktrack", "config.yaml"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// Load reads the YAML config at path. A missing file yields the defaults.
// TASKTRACK_* environment variables override file values, e.g.
// TASKTRACK_SESSION_SECRET for session.secret.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("listen", cfg.Listen)
	v.SetDefault("server_url", cfg.ServerURL)
	v.SetDefault("session.secret", cfg.Session.Secret)
	v.SetDefault("session.ttl", cfg.Session.TTL)
	v.SetDefault("session.cookie_name", cfg.Session.CookieName)
	v.SetDefault("session.cookie_secure", cfg.Session.CookieSecure)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("client.session_file", cfg.Client.SessionFile)
	v.SetDefault("client.timeout", cfg.Client.Timeout)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	cfg.DBPath = v.GetString("db_path")
	cfg.Listen = v.GetString("listen")
	cfg.ServerURL = strings.TrimRight(v.GetString("server_url"), "/")
	cfg.Session.Secret = v.GetString("session.secret")
	cfg.Session.TTL = v.GetDuration("session.ttl")
	cfg.Session.CookieName = v.GetString("session.cookie_name")
	cfg.Session.CookieSecure = v.GetBool("session.cookie_secure")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.Log.File = v.GetString("log.file")
	cfg.Client.SessionFile = v.GetString("client.session_file")
	cfg.Client.Timeout = v.GetDuration("client.timeout")

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if cfg.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must not be negative")
	}
	if cfg.Client.Timeout < 0 {
		return fmt.Errorf("client.timeout must not be negative")
	}
	if strings.TrimSpace(cfg.Session.CookieName) == "" {
		return fmt.Errorf("session.cookie_name is required")
	}
	return nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	var out fileConfig
	out.DBPath = cfg.DBPath
	out.Listen = cfg.Listen
	out.ServerURL = cfg.ServerURL
	out.Session.Secret = cfg.Session.Secret
	out.Session.TTL = cfg.Session.TTL.String()
	out.Session.CookieName = cfg.Session.CookieName
	out.Session.CookieSecure = cfg.Session.CookieSecure
	out.Log.Level = cfg.Log.Level
	out.Log.Format = cfg.Log.Format
	out.Log.File = cfg.Log.File
	out.Client.SessionFile = cfg.Client.SessionFile
	out.Client.Timeout = cfg.Client.Timeout.String()

	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}

	// The file may hold the session secret.
	return os.WriteFile(path, data, 0o600)
}
