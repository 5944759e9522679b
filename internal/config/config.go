package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// Config is the resolved neuroglove configuration.
type Config struct {
	DataDir  string
	LogLevel logrus.Level
	Serial   SerialConfig
	Wireless WirelessConfig
	GenAI    GenAIConfig
}

// SerialConfig selects the wired transport.
type SerialConfig struct {
	Device   string // empty: enumerate and pick
	BaudRate int
}

// WirelessConfig selects the RFCOMM transport.
type WirelessConfig struct {
	Device  string
	Address string
}

// GenAIConfig points at the text-generation service.
type GenAIConfig struct {
	BaseURL      string
	Model        string
	SummaryModel string
	Timeout      time.Duration
}

const (
	defaultConfigPath     = "~/.config/neuroglove/config.toml"
	defaultDataDir        = "~/.local/share/neuroglove"
	defaultBaudRate       = 9600
	defaultWirelessDevice = "/dev/rfcomm0"
	defaultModel          = "llama3.2"
	defaultTimeout        = 60 * time.Second

	// ollamaHostEnv is consulted when base_url is not set.
	ollamaHostEnv = "OLLAMA_HOST"
)

type rawConfig struct {
	DataDir  string `toml:"data_dir"`
	LogLevel string `toml:"log_level"`
	Serial   struct {
		Device   string `toml:"device"`
		BaudRate int    `toml:"baud_rate"`
	} `toml:"serial"`
	Wireless struct {
		Device  string `toml:"device"`
		Address string `toml:"address"`
	} `toml:"wireless"`
	GenAI struct {
		BaseURL        string `toml:"base_url"`
		Model          string `toml:"model"`
		SummaryModel   string `toml:"summary_model"`
		TimeoutSeconds int    `toml:"timeout_seconds"`
	} `toml:"genai"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DataDir:  mustExpand(defaultDataDir),
		LogLevel: logrus.InfoLevel,
		Serial:   SerialConfig{BaudRate: defaultBaudRate},
		Wireless: WirelessConfig{Device: defaultWirelessDevice},
		GenAI: GenAIConfig{
			BaseURL: strings.TrimSpace(os.Getenv(ollamaHostEnv)),
			Model:   defaultModel,
			Timeout: defaultTimeout,
		},
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return raw.resolve()
}

func (raw rawConfig) resolve() (Config, error) {
	cfg := Default()

	if dir := strings.TrimSpace(raw.DataDir); dir != "" {
		expanded, err := expandPath(dir)
		if err != nil {
			return Config{}, fmt.Errorf("data_dir: %w", err)
		}
		cfg.DataDir = expanded
	}
	if lvl := strings.TrimSpace(raw.LogLevel); lvl != "" {
		parsed, err := logrus.ParseLevel(lvl)
		if err != nil {
			return Config{}, fmt.Errorf("log_level: %w", err)
		}
		cfg.LogLevel = parsed
	}

	cfg.Serial.Device = strings.TrimSpace(raw.Serial.Device)
	switch {
	case raw.Serial.BaudRate < 0:
		return Config{}, fmt.Errorf("serial.baud_rate must be positive, got %d", raw.Serial.BaudRate)
	case raw.Serial.BaudRate > 0:
		cfg.Serial.BaudRate = raw.Serial.BaudRate
	}

	if dev := strings.TrimSpace(raw.Wireless.Device); dev != "" {
		cfg.Wireless.Device = dev
	}
	cfg.Wireless.Address = strings.ToUpper(strings.TrimSpace(raw.Wireless.Address))

	if u := strings.TrimSpace(raw.GenAI.BaseURL); u != "" {
		cfg.GenAI.BaseURL = u
	}
	if m := strings.TrimSpace(raw.GenAI.Model); m != "" {
		cfg.GenAI.Model = m
	}
	cfg.GenAI.SummaryModel = strings.TrimSpace(raw.GenAI.SummaryModel)
	if raw.GenAI.TimeoutSeconds > 0 {
		cfg.GenAI.Timeout = time.Duration(raw.GenAI.TimeoutSeconds) * time.Second
	}
	return cfg, nil
}

// DatabasePath is the SQLite file holding day records.
func (c Config) DatabasePath() string {
	return filepath.Join(c.dataDir(), "neuroglove.db")
}

// LogPath is the diagnostics log file.
func (c Config) LogPath() string {
	return filepath.Join(c.dataDir(), "neuroglove.log")
}

func (c Config) dataDir() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir)
	}
	return c.DataDir
}

// SummaryModelOrDefault returns the model used for session summaries.
func (c GenAIConfig) SummaryModelOrDefault() string {
	if c.SummaryModel != "" {
		return c.SummaryModel
	}
	return c.Model
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
