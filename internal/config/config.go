package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Project identifies the music project the render stage operates on.
type Project struct {
	Path      string `toml:"path"`
	SoundFont string `toml:"soundfont"`
}

// Render contains configuration for the per-marker render stage.
type Render struct {
	// Tracks are the annotated tracks that get segmented and scanned for onsets.
	Tracks []string `toml:"tracks"`
	// IgnorePitches are MIDI note numbers never considered as onsets.
	IgnorePitches   []int    `toml:"ignore_pitches"`
	FilenamePattern string   `toml:"filename_pattern"`
	BaseIndex       int      `toml:"base_index"`
	OutputDir       string   `toml:"output_dir"`
	MetadataFile    string   `toml:"metadata_file"`
	Extension       string   `toml:"extension"`
	Command         []string `toml:"command"`
	TimeoutSeconds  int      `toml:"timeout_seconds"`
	AdvisoryMarkers bool     `toml:"advisory_markers"`
	LockRun         bool     `toml:"lock_run"`
}

// Fade contains configuration for the post-marker automation fade.
type Fade struct {
	Track    string  `toml:"track"`
	Lane     string  `toml:"lane"`
	BarCount float64 `toml:"bar_count"`
	Shape    string  `toml:"shape"`
}

// Trim contains configuration for the trim stage.
type Trim struct {
	MetadataFile   string `toml:"metadata_file"`
	Dir            string `toml:"dir"`
	Extension      string `toml:"extension"`
	Backend        string `toml:"backend"`
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	Ledger         bool   `toml:"ledger"`
	LedgerPath     string `toml:"ledger_path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// ToFile mirrors log output into paths.log_dir/hitcut.log.
	ToFile bool `toml:"to_file"`
}

// Config encapsulates all configuration values for hitcut.
//
// Configuration sections by subsystem:
//   - Paths: log and state directories
//   - Project: MIDI project file and synthesizer soundfont
//   - Render: tracks, naming, output and render command
//   - Fade: automation fade appended after each marker
//   - Trim: metadata log consumption and the trim tool
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Project Project `toml:"project"`
	Render  Render  `toml:"render"`
	Fade    Fade    `toml:"fade"`
	Trim    Trim    `toml:"trim"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/hitcut/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/hitcut/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hitcut.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the stages write into.
// The log directory is only required when file logging is enabled.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir}
	if c.Logging.ToFile {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the trim tool executable.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Trim.FFmpegBinary); bin != "" {
		return bin
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable used as the duration probe fallback.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Trim.FFprobeBinary); bin != "" {
		return bin
	}
	return "ffprobe"
}

// RenderCommandBinary returns the first element of the render command, or
// the empty string when renders only emit MIDI snapshots.
func (c *Config) RenderCommandBinary() string {
	if len(c.Render.Command) == 0 {
		return ""
	}
	return strings.TrimSpace(c.Render.Command[0])
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "hitcut")
	}
	return defaultStateDirFallback
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
