// Package config loads layered settings: defaults, the XDG config file and VIDBLOG_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/alnah/go-vidblog/internal/llm"
)

// Config keys.
const (
	KeyProvider         = "provider"
	KeyModel            = "model"
	KeyOutputDir        = "output-dir"
	KeyLogLevel         = "log-level"
	KeyListen           = "listen"
	KeyRatePerMinute    = "rate-per-minute"
	KeyWhisperScript    = "whisper-script"
	KeyPythonPath       = "python-path"
	KeyFFmpegPath       = "ffmpeg-path"
	KeyTranscriptAPIURL = "transcript-api-url"
	KeyTranscriptAPIKey = "transcript-api-key"
	KeyParallelSections = "parallel-sections"
)

// EnvPrefix prefixes every environment override, e.g. VIDBLOG_OUTPUT_DIR.
const EnvPrefix = "VIDBLOG"

const (
	appDir   = "go-vidblog"
	fileName = "config.yaml"
)

// Defaults.
const (
	DefaultOutputDir        = "posts"
	DefaultLogLevel         = "info"
	DefaultListen           = ":8080"
	DefaultRatePerMinute    = 10
	DefaultParallelSections = 1
	DefaultPython           = "python3"
)

// Keys lists every supported key in display order.
var Keys = []string{
	KeyProvider,
	KeyModel,
	KeyOutputDir,
	KeyLogLevel,
	KeyListen,
	KeyRatePerMinute,
	KeyWhisperScript,
	KeyPythonPath,
	KeyFFmpegPath,
	KeyTranscriptAPIURL,
	KeyTranscriptAPIKey,
	KeyParallelSections,
}

// ErrUnknownKey indicates a key outside Keys.
var ErrUnknownKey = errors.New("unknown config key")

// ErrInvalidValue indicates a value that fails key-specific validation.
var ErrInvalidValue = errors.New("invalid config value")

// Config holds resolved settings.
type Config struct {
	Provider         string
	Model            string
	OutputDir        string
	LogLevel         string
	Listen           string
	RatePerMinute    int
	WhisperScript    string
	PythonPath       string
	FFmpegPath       string
	TranscriptAPIURL string
	TranscriptAPIKey string
	ParallelSections int
}

// Manager reads and writes the config file.
type Manager struct {
	path string
}

// Option configures a Manager.
type Option func(*Manager)

// WithPath overrides the config file location.
func WithPath(p string) Option {
	return func(m *Manager) {
		if p != "" {
			m.path = p
		}
	}
}

// NewManager locates the config file under XDG_CONFIG_HOME or ~/.config.
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	if m.path == "" {
		d, err := Dir()
		if err != nil {
			return nil, err
		}
		m.path = filepath.Join(d, fileName)
	}
	return m, nil
}

// Path returns the config file location.
func (m *Manager) Path() string { return m.path }

// Dir returns the configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-vidblog.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDir), nil
}

// layered returns a viper with defaults, the file and env overrides.
func (m *Manager) layered() (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(KeyProvider, llm.ProviderOpenAI)
	v.SetDefault(KeyModel, "")
	v.SetDefault(KeyOutputDir, DefaultOutputDir)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyListen, DefaultListen)
	v.SetDefault(KeyRatePerMinute, DefaultRatePerMinute)
	v.SetDefault(KeyWhisperScript, "")
	v.SetDefault(KeyPythonPath, DefaultPython)
	v.SetDefault(KeyFFmpegPath, "")
	v.SetDefault(KeyTranscriptAPIURL, "")
	v.SetDefault(KeyTranscriptAPIKey, "")
	v.SetDefault(KeyParallelSections, DefaultParallelSections)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readFile(v, m.path); err != nil {
		return nil, err
	}
	return v, nil
}

// fileOnly returns a viper holding only what the config file contains.
func (m *Manager) fileOnly() (*viper.Viper, error) {
	v := viper.New()
	if err := readFile(v, m.path); err != nil {
		return nil, err
	}
	return v, nil
}

// readFile loads p into v. A missing file is not an error.
func readFile(v *viper.Viper, p string) error {
	v.SetConfigFile(p)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load resolves every key. Precedence: env, then file, then defaults.
func (m *Manager) Load() (Config, error) {
	v, err := m.layered()
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Provider:         v.GetString(KeyProvider),
		Model:            v.GetString(KeyModel),
		OutputDir:        ExpandPath(v.GetString(KeyOutputDir)),
		LogLevel:         v.GetString(KeyLogLevel),
		Listen:           v.GetString(KeyListen),
		RatePerMinute:    v.GetInt(KeyRatePerMinute),
		WhisperScript:    ExpandPath(v.GetString(KeyWhisperScript)),
		PythonPath:       v.GetString(KeyPythonPath),
		FFmpegPath:       ExpandPath(v.GetString(KeyFFmpegPath)),
		TranscriptAPIURL: v.GetString(KeyTranscriptAPIURL),
		TranscriptAPIKey: v.GetString(KeyTranscriptAPIKey),
		ParallelSections: v.GetInt(KeyParallelSections),
	}
	if cfg.RatePerMinute < 0 {
		return Config{}, fmt.Errorf("%s=%d: %w", KeyRatePerMinute, cfg.RatePerMinute, ErrInvalidValue)
	}
	if cfg.ParallelSections < 0 {
		return Config{}, fmt.Errorf("%s=%d: %w", KeyParallelSections, cfg.ParallelSections, ErrInvalidValue)
	}
	return cfg, nil
}

// Set validates value and persists it to the config file.
// Defaults and env values are never written.
func (m *Manager) Set(key, value string) (string, error) {
	value, err := Validate(key, value)
	if err != nil {
		return "", err
	}

	v, err := m.fileOnly()
	if err != nil {
		return "", err
	}
	if n, convErr := strconv.Atoi(value); convErr == nil && isIntKey(key) {
		v.Set(key, n)
	} else {
		v.Set(key, value)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o750); err != nil { // #nosec G301 -- user config dir
		return "", fmt.Errorf("cannot create config directory: %w", err)
	}
	if err := v.WriteConfigAs(m.path); err != nil {
		return "", fmt.Errorf("cannot write config file: %w", err)
	}
	return value, nil
}

// Get returns the file value of key, or "" when unset.
func (m *Manager) Get(key string) (string, error) {
	if !IsValidKey(key) {
		return "", unknownKey(key)
	}
	v, err := m.fileOnly()
	if err != nil {
		return "", err
	}
	return v.GetString(key), nil
}

// List returns every key set in the file.
func (m *Manager) List() (map[string]string, error) {
	v, err := m.fileOnly()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, key := range Keys {
		if v.IsSet(key) {
			out[key] = v.GetString(key)
		}
	}
	return out, nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// IsValidKey reports whether key is supported.
func IsValidKey(key string) bool {
	return slices.Contains(Keys, key)
}

func isIntKey(key string) bool {
	return key == KeyRatePerMinute || key == KeyParallelSections
}

func unknownKey(key string) error {
	return fmt.Errorf("%q (valid keys: %s): %w", key, strings.Join(Keys, ", "), ErrUnknownKey)
}

// Validate checks and normalizes a value for key.
func Validate(key, value string) (string, error) {
	if !IsValidKey(key) {
		return "", unknownKey(key)
	}
	value = strings.TrimSpace(value)

	switch key {
	case KeyProvider:
		p, err := llm.ParseProvider(value)
		if err != nil {
			return "", fmt.Errorf("%s: %w", key, err)
		}
		return p.String(), nil
	case KeyLogLevel:
		switch strings.ToLower(value) {
		case "trace", "debug", "info", "warn", "error":
			return strings.ToLower(value), nil
		}
		return "", fmt.Errorf("%s=%q (use trace, debug, info, warn or error): %w", key, value, ErrInvalidValue)
	case KeyRatePerMinute, KeyParallelSections:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return "", fmt.Errorf("%s=%q (must be a non-negative integer): %w", key, value, ErrInvalidValue)
		}
		return strconv.Itoa(n), nil
	case KeyOutputDir:
		expanded := ExpandPath(value)
		if err := ValidOutputDir(expanded); err != nil {
			return "", fmt.Errorf("%s: %v: %w", key, err, ErrInvalidValue)
		}
		return expanded, nil
	case KeyWhisperScript, KeyFFmpegPath:
		if value == "" {
			return "", fmt.Errorf("%s cannot be empty: %w", key, ErrInvalidValue)
		}
		return ExpandPath(value), nil
	}
	return value, nil
}

// ValidOutputDir checks that d is, or can become, a writable directory.
func ValidOutputDir(d string) error {
	if d == "" {
		return errors.New("output-dir cannot be empty")
	}

	info, err := os.Stat(d)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(d, 0o750); err != nil { // #nosec G301 -- user output dir
				return fmt.Errorf("cannot create directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", d)
	}

	f, err := os.CreateTemp(d, ".go-vidblog-write-test-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
