package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// ConfigPathEnvVar names an alternative config file when no .env sits
	// next to the executable.
	ConfigPathEnvVar = "SCREEN_PIN"

	DefaultHotkey             = "Ctrl+Alt+A"
	DefaultMinSelectionPx     = 5
	DefaultCaptureDeadlineSec = 10

	BackendGDI        = "gdi"
	BackendScreenshot = "screenshot"
)

type LoadOptions struct {
	BackendOverride string
	HotkeyOverride  string
	// EnvPath, when set, replaces the .env lookup.
	EnvPath string
}

type Config struct {
	EnableFileLogging  bool
	Hotkey             string
	CaptureBackend     string
	DPIPreferWindow    bool
	MinSelectionPx     int
	CaptureDeadlineSec int
	CopyToClipboard    bool
	// EnvPath is the config file that was loaded, if any.
	EnvPath string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use SCREEN_PIN env var as a path to a config file
	// Process environment wins over file values; LoadOptions win over both.
	envPath := strings.TrimSpace(opts.EnvPath)
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, err
		}
	}

	backend := resolveBackend(os.Getenv("CAPTURE_BACKEND"))
	if o := strings.TrimSpace(opts.BackendOverride); o != "" {
		backend = resolveBackend(o)
	}
	hotkey := getEnvWithDefault("HOTKEY", DefaultHotkey)
	if o := strings.TrimSpace(opts.HotkeyOverride); o != "" {
		hotkey = o
	}

	cfg := &Config{
		EnableFileLogging:  getBool("ENABLE_FILE_LOGGING", false),
		Hotkey:             hotkey,
		CaptureBackend:     backend,
		DPIPreferWindow:    getBool("DPI_PREFER_WINDOW", false),
		MinSelectionPx:     getPositiveInt("MIN_SELECTION_PX", DefaultMinSelectionPx),
		CaptureDeadlineSec: getPositiveInt("CAPTURE_DEADLINE_SEC", DefaultCaptureDeadlineSec),
		CopyToClipboard:    getBool("COPY_TO_CLIPBOARD", true),
		EnvPath:            envPath,
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(ConfigPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

// resolveBackend maps a configured name onto a known backend; empty or
// unknown values yield the empty string, meaning the platform default.
func resolveBackend(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case BackendGDI, "bitblt":
		return BackendGDI
	case BackendScreenshot, "kbinani":
		return BackendScreenshot
	default:
		return ""
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return defaultValue
	}
	return b
}

func getPositiveInt(key string, defaultValue int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
