// Package config loads the application configuration: quality presets, the
// character set and default trim bounds, from a JSON file with a built-in
// fallback.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"charcoal/internal/ascii"
)

// FileName is the config file looked up in the data dir and then the
// working directory.
const FileName = "charcoal.json"

// Preset bundles the quality knobs a conversion needs.
type Preset struct {
	Columns   int     `json:"columns"`
	FPS       int     `json:"fps"`
	FontRatio float64 `json:"font_ratio"`
	Luminance uint8   `json:"luminance"`
}

// AppConfig is the full configuration file shape.
type AppConfig struct {
	Presets       map[string]Preset `json:"presets"`
	DefaultPreset string            `json:"default_preset"`
	ASCIIChars    string            `json:"ascii_chars"`
	DefaultStart  string            `json:"default_start"`
	DefaultEnd    string            `json:"default_end"`
}

// Default returns the built-in configuration used when no file exists.
func Default() *AppConfig {
	return &AppConfig{
		Presets: map[string]Preset{
			"default": {Columns: 400, FPS: 30, FontRatio: 0.7, Luminance: 20},
			"small":   {Columns: 80, FPS: 24, FontRatio: 0.44, Luminance: 20},
			"large":   {Columns: 800, FPS: 60, FontRatio: 0.7, Luminance: 20},
		},
		DefaultPreset: "default",
		ASCIIChars:    ascii.DefaultCharset,
		DefaultStart:  "0",
		DefaultEnd:    "",
	}
}

// Load reads the config from the user data dir or the working directory,
// falling back to Default when neither has a file.
func Load() (*AppConfig, error) {
	var tried []string
	if dataDir, err := os.UserConfigDir(); err == nil {
		tried = append(tried, filepath.Join(dataDir, "charcoal", FileName))
	}
	tried = append(tried, FileName)

	for _, p := range tried {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		return LoadFile(p)
	}
	return Default(), nil
}

// LoadFile parses and validates one specific config file.
func LoadFile(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %v", path, err)
	}
	cfg := Default()
	// A file that defines presets replaces the built-in set instead of
	// merging into it.
	cfg.Presets = nil
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %v", path, err)
	}
	if cfg.Presets == nil {
		cfg.Presets = Default().Presets
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %v", path, err)
	}
	return cfg, nil
}

// Validate checks structural soundness: a resolvable default preset, sane
// preset numbers and a usable character set.
func (c *AppConfig) Validate() error {
	if len(c.Presets) == 0 {
		return fmt.Errorf("no presets defined")
	}
	if _, ok := c.Presets[c.DefaultPreset]; !ok {
		return fmt.Errorf("default preset %q not defined, available: %v",
			c.DefaultPreset, c.PresetNames())
	}
	for name, p := range c.Presets {
		if p.Columns <= 0 {
			return fmt.Errorf("preset %q: columns must be positive, got %d", name, p.Columns)
		}
		if p.FPS <= 0 {
			return fmt.Errorf("preset %q: fps must be positive, got %d", name, p.FPS)
		}
		if p.FontRatio <= 0 {
			return fmt.Errorf("preset %q: font ratio must be positive, got %g", name, p.FontRatio)
		}
	}
	if _, err := ascii.NewPalette(c.ASCIIChars); err != nil {
		return fmt.Errorf("ascii_chars: %v", err)
	}
	return nil
}

// PresetNames lists configured presets in stable order.
func (c *AppConfig) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset resolves a preset by name, empty meaning the configured default.
func (c *AppConfig) Preset(name string) (Preset, error) {
	if name == "" {
		name = c.DefaultPreset
	}
	p, ok := c.Presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q, available: %v", name, c.PresetNames())
	}
	return p, nil
}

// Options converts a preset into mapper options using the configured
// character set.
func (c *AppConfig) Options(p Preset) (ascii.Options, error) {
	pal, err := ascii.NewPalette(c.ASCIIChars)
	if err != nil {
		return ascii.Options{}, err
	}
	return ascii.Options{
		Columns:   p.Columns,
		FontRatio: p.FontRatio,
		Threshold: p.Luminance,
		Palette:   pal,
	}, nil
}
