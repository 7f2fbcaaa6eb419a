// Package config loads service settings from the environment.
//
// Values are looked up in this order: the process environment, a .env file
// in the working directory, then the YAML file named by ATTENDANCE_CONFIG_FILE.
// YAML keys are the variable names without the ATTENDANCE_ prefix, in lower
// case (http_port, sqlite_dsn, ...).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix      = "ATTENDANCE_"
	configFileKey  = envPrefix + "CONFIG_FILE"
	defaultEnvFile = ".env"
	minSecretBytes = 32
)

// Config captures the settings of the attendance API server.
type Config struct {
	HTTPPort           int
	SQLiteDSN          string
	SessionTTL         time.Duration
	SecureCookies      bool
	ResetSecret        string
	ResetTokenTTL      time.Duration
	ResetURL           string
	GoogleClientID     string
	Location           *time.Location
	WorkspaceCacheSize int
	LogLevel           slog.Level
}

// DevServerConfig captures the settings of the local front end server.
type DevServerConfig struct {
	Port      int
	StaticDir string
	APIOrigin string
	LogLevel  slog.Level
}

// Load reads the API server configuration. Missing and invalid values are
// reported together in a single localized error.
func Load() (Config, error) {
	src, err := newSource(defaultEnvFile, os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	return loadServer(src)
}

// LoadDevServer reads the development server configuration.
func LoadDevServer() (DevServerConfig, error) {
	src, err := newSource(defaultEnvFile, os.LookupEnv)
	if err != nil {
		return DevServerConfig{}, err
	}
	return loadDevServer(src)
}

func loadServer(src source) (Config, error) {
	cfg := Config{
		HTTPPort:           5000,
		SQLiteDSN:          "attendance.db",
		SessionTTL:         24 * time.Hour,
		SecureCookies:      true,
		ResetTokenTTL:      time.Hour,
		ResetURL:           "http://localhost:3000/reset-password",
		WorkspaceCacheSize: 256,
		LogLevel:           slog.LevelInfo,
	}
	p := parser{src: src}

	p.port("HTTP_PORT", &cfg.HTTPPort)
	p.text("SQLITE_DSN", &cfg.SQLiteDSN)
	p.duration("SESSION_TTL", &cfg.SessionTTL)
	p.boolean("SECURE_COOKIES", &cfg.SecureCookies)
	p.duration("RESET_TOKEN_TTL", &cfg.ResetTokenTTL)
	p.text("GOOGLE_CLIENT_ID", &cfg.GoogleClientID)
	p.positiveInt("WORKSPACE_CACHE_SIZE", &cfg.WorkspaceCacheSize)
	p.logLevel("LOG_LEVEL", &cfg.LogLevel)

	if secret, ok := p.lookup("RESET_SECRET"); !ok {
		p.missing = append(p.missing, envPrefix+"RESET_SECRET")
	} else if len(secret) < minSecretBytes {
		p.invalid = append(p.invalid, envPrefix+"RESET_SECRET")
	} else {
		cfg.ResetSecret = secret
	}

	if value, ok := p.lookup("RESET_URL"); ok {
		if u, err := url.Parse(value); err != nil || u.Scheme == "" || u.Host == "" {
			p.invalid = append(p.invalid, envPrefix+"RESET_URL")
		} else {
			cfg.ResetURL = value
		}
	}

	cfg.Location = time.UTC
	zone := "Asia/Jerusalem"
	if value, ok := p.lookup("TIMEZONE"); ok {
		zone = value
	}
	if loc, err := time.LoadLocation(zone); err != nil {
		p.invalid = append(p.invalid, envPrefix+"TIMEZONE")
	} else {
		cfg.Location = loc
	}

	if err := p.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDevServer(src source) (DevServerConfig, error) {
	cfg := DevServerConfig{
		Port:      3000,
		StaticDir: "web/dist",
		APIOrigin: "http://localhost:5000",
		LogLevel:  slog.LevelDebug,
	}
	p := parser{src: src}

	p.port("DEV_PORT", &cfg.Port)
	p.text("DEV_STATIC_DIR", &cfg.StaticDir)
	p.logLevel("LOG_LEVEL", &cfg.LogLevel)
	if value, ok := p.lookup("DEV_API_ORIGIN"); ok {
		if u, err := url.Parse(value); err != nil || u.Scheme == "" || u.Host == "" {
			p.invalid = append(p.invalid, envPrefix+"DEV_API_ORIGIN")
		} else {
			cfg.APIOrigin = value
		}
	}

	if err := p.err(); err != nil {
		return DevServerConfig{}, err
	}
	return cfg, nil
}

// source resolves a variable name (without prefix) through the configured layers.
type source struct {
	layers []func(string) (string, bool)
}

func (s source) get(name string) (string, bool) {
	for _, layer := range s.layers {
		if value, ok := layer(envPrefix + name); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed, true
			}
		}
	}
	return "", false
}

func newSource(envFile string, environ func(string) (string, bool)) (source, error) {
	src := source{layers: []func(string) (string, bool){environ}}

	dotenv, err := readDotEnv(envFile)
	if err != nil {
		return source{}, err
	}
	if dotenv != nil {
		src.layers = append(src.layers, mapLookup(dotenv))
	}

	if path, ok := src.get(strings.TrimPrefix(configFileKey, envPrefix)); ok {
		values, err := readYAML(path)
		if err != nil {
			return source{}, err
		}
		src.layers = append(src.layers, mapLookup(values))
	}
	return src, nil
}

func readDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("הקובץ %s לא נקרא: %w", path, err)
	}
	return values, nil
}

// readYAML flattens a top-level YAML mapping into prefixed variable names.
func readYAML(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("קובץ התצורה %s לא נקרא: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("קובץ התצורה %s אינו YAML תקין: %w", path, err)
	}
	values := make(map[string]string, len(raw))
	for key, value := range raw {
		if value == nil {
			continue
		}
		values[envPrefix+strings.ToUpper(key)] = fmt.Sprint(value)
	}
	return values, nil
}

func mapLookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

// parser collects missing and invalid variable names while filling a config.
type parser struct {
	src     source
	missing []string
	invalid []string
}

func (p *parser) lookup(name string) (string, bool) {
	return p.src.get(name)
}

func (p *parser) text(name string, dst *string) {
	if value, ok := p.lookup(name); ok {
		*dst = value
	}
}

func (p *parser) port(name string, dst *int) {
	value, ok := p.lookup(name)
	if !ok {
		return
	}
	port, err := strconv.Atoi(value)
	if err != nil || port <= 0 || port > 65535 {
		p.invalid = append(p.invalid, envPrefix+name)
		return
	}
	*dst = port
}

func (p *parser) positiveInt(name string, dst *int) {
	value, ok := p.lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		p.invalid = append(p.invalid, envPrefix+name)
		return
	}
	*dst = n
}

func (p *parser) duration(name string, dst *time.Duration) {
	value, ok := p.lookup(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		p.invalid = append(p.invalid, envPrefix+name)
		return
	}
	*dst = d
}

func (p *parser) boolean(name string, dst *bool) {
	value, ok := p.lookup(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.invalid = append(p.invalid, envPrefix+name)
		return
	}
	*dst = b
}

func (p *parser) logLevel(name string, dst *slog.Level) {
	value, ok := p.lookup(name)
	if !ok {
		return
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		p.invalid = append(p.invalid, envPrefix+name)
		return
	}
	*dst = level
}

func (p *parser) err() error {
	var parts []string
	if len(p.missing) > 0 {
		parts = append(parts, "חסרים משתני סביבה חובה: "+strings.Join(p.missing, ", "))
	}
	if len(p.invalid) > 0 {
		parts = append(parts, "ערכים לא תקינים במשתני הסביבה: "+strings.Join(p.invalid, ", "))
	}
	if len(parts) == 0 {
		return nil
	}
	return errors.New(strings.Join(parts, "; "))
}
