// Package config loads user settings from the environment and from the
// key=value file at ~/.config/go-videocut/config.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/alnah/go-videocut/internal/pipeline"
)

// ErrUnknownKey indicates a config key that is not in Keys.
var ErrUnknownKey = errors.New("unknown config key")

// ErrInvalidValue indicates a config value that cannot be parsed.
var ErrInvalidValue = errors.New("invalid config value")

// Config holds user settings. Every field can be set by its environment
// variable or by its key in the config file; the file wins.
type Config struct {
	SilenceThresholdDB float64       `env:"VIDEOCUT_SILENCE_DB" envDefault:"-30"`
	MinSilence         float64       `env:"VIDEOCUT_MIN_SILENCE" envDefault:"0.5"`
	CutMargin          float64       `env:"VIDEOCUT_CUT_MARGIN" envDefault:"0.2"`
	Enhance            bool          `env:"VIDEOCUT_ENHANCE" envDefault:"true"`
	CutSilences        bool          `env:"VIDEOCUT_CUT" envDefault:"true"`
	Language           string        `env:"VIDEOCUT_LANGUAGE"`
	Cleanup            bool          `env:"VIDEOCUT_CLEANUP" envDefault:"false"`
	CleanupTimeout     time.Duration `env:"VIDEOCUT_CLEANUP_TIMEOUT" envDefault:"60s"`

	// Recognizer selects the speech backend: "openai", "whisper", or empty
	// for openai when OPENAI_API_KEY is set and whisper otherwise.
	Recognizer string `env:"VIDEOCUT_RECOGNIZER"`

	CleanupBaseURL string `env:"VIDEOCUT_CLEANUP_BASE_URL"`
	CleanupModel   string `env:"VIDEOCUT_CLEANUP_MODEL"`
	VideoCodec     string `env:"VIDEOCUT_VIDEO_CODEC"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
}

// Key is a config file key and the environment variable it shadows.
type Key struct {
	Name string
	Env  string
	Help string
}

// Keys lists every supported setting in display order.
var Keys = []Key{
	{Name: "silence-db", Env: "VIDEOCUT_SILENCE_DB", Help: "Silence noise floor in dBFS, negative (default -30)"},
	{Name: "min-silence", Env: "VIDEOCUT_MIN_SILENCE", Help: "Shortest silence to cut, seconds (default 0.5)"},
	{Name: "cut-margin", Env: "VIDEOCUT_CUT_MARGIN", Help: "Speech padding kept around each cut, seconds (default 0.2)"},
	{Name: "enhance", Env: "VIDEOCUT_ENHANCE", Help: "Denoise and normalize audio (default true)"},
	{Name: "cut", Env: "VIDEOCUT_CUT", Help: "Cut silences (default true)"},
	{Name: "language", Env: "VIDEOCUT_LANGUAGE", Help: "Speech language hint, ISO 639-1"},
	{Name: "cleanup", Env: "VIDEOCUT_CLEANUP", Help: "Run the transcript cleanup pass (default false)"},
	{Name: "cleanup-timeout", Env: "VIDEOCUT_CLEANUP_TIMEOUT", Help: "Cleanup time limit (default 60s)"},
	{Name: "recognizer", Env: "VIDEOCUT_RECOGNIZER", Help: "Speech backend: openai or whisper"},
	{Name: "cleanup-base-url", Env: "VIDEOCUT_CLEANUP_BASE_URL", Help: "OpenAI-compatible endpoint for cleanup"},
	{Name: "cleanup-model", Env: "VIDEOCUT_CLEANUP_MODEL", Help: "Chat model for cleanup"},
	{Name: "video-codec", Env: "VIDEOCUT_VIDEO_CODEC", Help: "H.264 encoder for cut exports"},
	{Name: "log-level", Env: "LOG_LEVEL", Help: "debug, info, warn, or error (default info)"},
}

// LookupKey returns the Key named name.
func LookupKey(name string) (Key, error) {
	i := slices.IndexFunc(Keys, func(k Key) bool { return k.Name == name })
	if i < 0 {
		names := make([]string, len(Keys))
		for j, k := range Keys {
			names[j] = k.Name
		}
		return Key{}, fmt.Errorf("%w %q (valid keys: %s)", ErrUnknownKey, name, strings.Join(names, ", "))
	}
	return Keys[i], nil
}

// Pipeline returns the run configuration these settings describe.
func (c Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		SilenceThresholdDB: c.SilenceThresholdDB,
		MinSilence:         c.MinSilence,
		CutMargin:          c.CutMargin,
		Enhance:            c.Enhance,
		CutSilences:        c.CutSilences,
		Language:           c.Language,
		Cleanup:            c.Cleanup,
		CleanupTimeout:     c.CleanupTimeout,
	}
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-videocut.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "go-videocut"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "go-videocut"), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the environment, then the config file over it.
// A missing config file is not an error.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Config{}, err
	}

	values, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	environ := environMap(os.Environ())
	for name, value := range values {
		if k, err := LookupKey(name); err == nil {
			environ[k.Env] = value
		}
	}
	return parse(environ)
}

// parse decodes environ into a Config using the struct tags.
func parse(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return cfg, nil
}

// Check reports whether value is acceptable for key, without touching the
// config file.
func Check(name, value string) error {
	k, err := LookupKey(name)
	if err != nil {
		return err
	}
	_, err = parse(map[string]string{k.Env: value})
	return err
}

func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid syntax at line %d: %q", lineNum, line)
		}
		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return data, nil
}

// Save writes a single key=value to the config file after checking it.
// Creates the config directory and file if they don't exist.
// Preserves the other known keys; comments and unknown keys are dropped.
func Save(key, value string) error {
	if err := Check(key, value); err != nil {
		return err
	}

	p, err := Path()
	if err != nil {
		return err
	}

	d := filepath.Dir(p)
	if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, _ := parseFile(p)
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = value

	return writeFile(p, existing)
}

// writeFile writes the config map to a file, keys in Keys order.
func writeFile(p string, data map[string]string) error {
	// #nosec G302 G304 -- config file with standard permissions, path from home dir
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for _, k := range Keys {
		value, ok := data[k.Name]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(f, "%s=%s\n", k.Name, value); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	if _, err := LookupKey(key); err != nil {
		return "", err
	}

	p, err := Path()
	if err != nil {
		return "", err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return data[key], nil
}

// List returns all config file values as a map.
func List() (map[string]string, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	return data, nil
}
