package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var filenameVerbPattern = regexp.MustCompile(`%[0-9]*d`)

var knownFadeShapes = []string{"linear", "square", "slow", "fast-start", "fast-end", "bezier"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateFade(); err != nil {
		return err
	}
	if err := c.validateTrim(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.BaseIndex < 0 {
		return errors.New("render.base_index must not be negative")
	}
	verbs := filenameVerbPattern.FindAllString(c.Render.FilenamePattern, -1)
	if len(verbs) != 1 || strings.Count(c.Render.FilenamePattern, "%") != 1 {
		return fmt.Errorf("render.filename_pattern %q must contain exactly one integer verb such as %%d", c.Render.FilenamePattern)
	}
	if strings.ContainsAny(c.Render.FilenamePattern, `/\`) {
		return fmt.Errorf("render.filename_pattern %q must not contain path separators", c.Render.FilenamePattern)
	}
	for _, pitch := range c.Render.IgnorePitches {
		if pitch < 0 || pitch > 127 {
			return fmt.Errorf("render.ignore_pitches: %d is not a MIDI note number (0-127)", pitch)
		}
	}
	if len(c.Render.Command) > 0 {
		if !slices.ContainsFunc(c.Render.Command, func(arg string) bool { return strings.Contains(arg, "{input}") }) ||
			!slices.ContainsFunc(c.Render.Command, func(arg string) bool { return strings.Contains(arg, "{output}") }) {
			return fmt.Errorf("render.command must reference the %s placeholders it needs; {input} and {output} are required", renderBackendPlaceholderHelp)
		}
	}
	return nil
}

func (c *Config) validateFade() error {
	if c.Fade.BarCount <= 0 {
		return errors.New("fade.bar_count must be positive")
	}
	if !slices.Contains(knownFadeShapes, c.Fade.Shape) {
		return fmt.Errorf("fade.shape %q is not one of %s", c.Fade.Shape, strings.Join(knownFadeShapes, ", "))
	}
	return nil
}

func (c *Config) validateTrim() error {
	switch c.Trim.Backend {
	case "ffmpeg", "native":
	default:
		return fmt.Errorf("trim.backend %q must be ffmpeg or native", c.Trim.Backend)
	}
	if c.Trim.Backend == "native" && c.Trim.Extension != "wav" {
		return fmt.Errorf("trim.backend native only supports wav files, got extension %q", c.Trim.Extension)
	}
	return nil
}

// ValidateRenderInputs checks the settings only the render stage needs. The
// trim stage can run without a project, so these are not part of Validate.
func (c *Config) ValidateRenderInputs() error {
	if strings.TrimSpace(c.Project.Path) == "" {
		return errors.New("project.path is required for rendering (pass a project file or set it in the config)")
	}
	if len(c.Render.Tracks) == 0 {
		return errors.New("render.tracks must list at least one track")
	}
	if strings.TrimSpace(c.Project.SoundFont) == "" && slices.ContainsFunc(c.Render.Command, func(arg string) bool {
		return strings.Contains(arg, "{soundfont}")
	}) {
		return errors.New("project.soundfont is required by render.command (set it or export HITCUT_SOUNDFONT)")
	}
	return nil
}
