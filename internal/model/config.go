package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultBaseURL is the attendance API host used when none is configured.
const DefaultBaseURL = "https://apigatekeeper.cloudgentechnologies.com"

// APIConfig holds settings for the attendance backend.
type APIConfig struct {
	// BaseURL is the root URL of the attendance API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// CameraConfig holds capture device settings.
type CameraConfig struct {
	// Device is a device index ("0") or a stream URL understood by OpenCV.
	Device      string `mapstructure:"device" yaml:"device"`
	Width       int    `mapstructure:"width" yaml:"width"`
	Height      int    `mapstructure:"height" yaml:"height"`
	JPEGQuality int    `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
}

// DetectorConfig holds face detector settings.
type DetectorConfig struct {
	CascadePath    string `mapstructure:"cascade_path" yaml:"cascade_path"`
	PollIntervalMs int    `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
}

// JournalConfig controls where submission attempts are recorded.
type JournalConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls the kiosk log file.
type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API      APIConfig      `mapstructure:"api" yaml:"api"`
	Camera   CameraConfig   `mapstructure:"camera" yaml:"camera"`
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector"`
	Journal  JournalConfig  `mapstructure:"journal" yaml:"journal"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// Timeout returns the configured request timeout.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// PollInterval returns the detection cadence.
func (c DetectorConfig) PollInterval() time.Duration {
	if c.PollIntervalMs <= 0 {
		return time.Second
	}
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// ConfigDir returns the directory holding the kiosk's config, journal
// and log, ~/.config/attendance-kiosk.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "attendance-kiosk")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL:    DefaultBaseURL,
			TimeoutSec: 30,
		},
		Camera: CameraConfig{
			Device:      "0",
			Width:       1920,
			Height:      1080,
			JPEGQuality: 90,
		},
		Detector: DetectorConfig{
			CascadePath:    "haarcascade_frontalface_default.xml",
			PollIntervalMs: 1000,
		},
		Journal: JournalConfig{
			Path: filepath.Join(dir, "journal.db"),
		},
		Log: LogConfig{
			File:  filepath.Join(dir, "kiosk.log"),
			Level: "info",
		},
	}
}

// setDefaults registers every default on v so that missing keys and
// environment overrides resolve the same way.
func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("camera.device", d.Camera.Device)
	v.SetDefault("camera.width", d.Camera.Width)
	v.SetDefault("camera.height", d.Camera.Height)
	v.SetDefault("camera.jpeg_quality", d.Camera.JPEGQuality)
	v.SetDefault("detector.cascade_path", d.Detector.CascadePath)
	v.SetDefault("detector.poll_interval_ms", d.Detector.PollIntervalMs)
	v.SetDefault("journal.path", d.Journal.Path)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
}

// NewViper returns a Viper instance bound to the config file at path,
// with defaults and KIOSK_ environment overrides applied.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("KIOSK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus environment overrides) are used.
func LoadConfig(path string) (*AppConfig, error) {
	return LoadConfigFrom(NewViper(path))
}

// LoadConfigFrom decodes an AppConfig out of an already-prepared Viper
// instance, which lets callers bind command-line flags first.
func LoadConfigFrom(v *viper.Viper) (*AppConfig, error) {
	if err := v.ReadInConfig(); err != nil && !isMissingConfig(err) {
		return nil, fmt.Errorf("reading config %s: %w", v.ConfigFileUsed(), err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", v.ConfigFileUsed(), err)
	}
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")

	return cfg, nil
}

// isMissingConfig reports whether err only means the file is absent.
func isMissingConfig(err error) bool {
	if _, ok := err.(*os.PathError); ok {
		return true
	}
	_, ok := err.(viper.ConfigFileNotFoundError)
	return ok
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("camera", cfg.Camera)
	v.Set("detector", cfg.Detector)
	v.Set("journal", cfg.Journal)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
