package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeProject(); err != nil {
		return err
	}
	if err := c.normalizeRender(); err != nil {
		return err
	}
	c.normalizeFade()
	if err := c.normalizeTrim(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProject() error {
	var err error
	if c.Project.Path, err = expandPath(strings.TrimSpace(c.Project.Path)); err != nil {
		return fmt.Errorf("project.path: %w", err)
	}
	if strings.TrimSpace(c.Project.SoundFont) == "" {
		if value, ok := os.LookupEnv("HITCUT_SOUNDFONT"); ok {
			c.Project.SoundFont = strings.TrimSpace(value)
		}
	}
	if c.Project.SoundFont, err = expandPath(strings.TrimSpace(c.Project.SoundFont)); err != nil {
		return fmt.Errorf("project.soundfont: %w", err)
	}
	return nil
}

func (c *Config) normalizeRender() error {
	var err error
	tracks := make([]string, 0, len(c.Render.Tracks))
	seen := make(map[string]struct{}, len(c.Render.Tracks))
	for _, name := range c.Render.Tracks {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		tracks = append(tracks, name)
	}
	c.Render.Tracks = tracks

	c.Render.FilenamePattern = strings.TrimSpace(c.Render.FilenamePattern)
	if c.Render.FilenamePattern == "" {
		c.Render.FilenamePattern = defaultFilenamePattern
	}
	c.Render.Extension = normalizeExtension(c.Render.Extension)
	if c.Render.OutputDir, err = expandPath(strings.TrimSpace(c.Render.OutputDir)); err != nil {
		return fmt.Errorf("render.output_dir: %w", err)
	}
	if c.Render.MetadataFile, err = expandPath(strings.TrimSpace(c.Render.MetadataFile)); err != nil {
		return fmt.Errorf("render.metadata_file: %w", err)
	}
	if c.Render.TimeoutSeconds <= 0 {
		c.Render.TimeoutSeconds = defaultRenderTimeoutSeconds
	}
	command := make([]string, 0, len(c.Render.Command))
	for _, arg := range c.Render.Command {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			command = append(command, trimmed)
		}
	}
	c.Render.Command = command
	return nil
}

func (c *Config) normalizeFade() {
	c.Fade.Track = strings.TrimSpace(c.Fade.Track)
	if c.Fade.Track == "" {
		c.Fade.Track = defaultFadeTrack
	}
	c.Fade.Lane = strings.TrimSpace(c.Fade.Lane)
	if c.Fade.Lane == "" {
		c.Fade.Lane = defaultFadeLane
	}
	c.Fade.Shape = strings.ToLower(strings.TrimSpace(c.Fade.Shape))
	if c.Fade.Shape == "" {
		c.Fade.Shape = defaultFadeShape
	}
}

func (c *Config) normalizeTrim() error {
	var err error
	if strings.TrimSpace(c.Trim.MetadataFile) == "" {
		c.Trim.MetadataFile = defaultMetadataFile
	}
	if c.Trim.MetadataFile, err = expandPath(strings.TrimSpace(c.Trim.MetadataFile)); err != nil {
		return fmt.Errorf("trim.metadata_file: %w", err)
	}
	if c.Trim.Dir, err = expandPath(strings.TrimSpace(c.Trim.Dir)); err != nil {
		return fmt.Errorf("trim.dir: %w", err)
	}
	c.Trim.Extension = normalizeExtension(c.Trim.Extension)
	c.Trim.Backend = strings.ToLower(strings.TrimSpace(c.Trim.Backend))
	if c.Trim.Backend == "" {
		c.Trim.Backend = defaultTrimBackend
	}
	c.Trim.FFmpegBinary = strings.TrimSpace(c.Trim.FFmpegBinary)
	if c.Trim.FFmpegBinary == "" {
		if value, ok := os.LookupEnv("HITCUT_FFMPEG"); ok {
			c.Trim.FFmpegBinary = strings.TrimSpace(value)
		}
	}
	c.Trim.FFprobeBinary = strings.TrimSpace(c.Trim.FFprobeBinary)
	if strings.TrimSpace(c.Trim.LedgerPath) == "" {
		c.Trim.LedgerPath = filepath.Join(c.Paths.StateDir, defaultLedgerFile)
	}
	if c.Trim.LedgerPath, err = expandPath(strings.TrimSpace(c.Trim.LedgerPath)); err != nil {
		return fmt.Errorf("trim.ledger_path: %w", err)
	}
	if c.Trim.TimeoutSeconds <= 0 {
		c.Trim.TimeoutSeconds = defaultTrimTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeExtension(ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		return defaultExtension
	}
	return ext
}
