// Package config loads murmur settings: compiled defaults, then the
// TOML file, then MURMUR_* environment variables. Flags are applied by
// main on top of the result.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
)

type Settings struct {
	// DoubleTapThreshold is the tap pairing window in seconds. The
	// gesture machine clamps it to [0.2, 0.5].
	DoubleTapThreshold float64 `toml:"double_tap_threshold" env:"MURMUR_DOUBLE_TAP_THRESHOLD"`
	// TriggerModifier names the key whose taps drive recording:
	// left-alt, right-alt, left-ctrl, right-ctrl, left-super or
	// right-super.
	TriggerModifier string `toml:"trigger_modifier" env:"MURMUR_TRIGGER_MODIFIER"`
	// ModelPath locates the ggml speech model file.
	ModelPath string `toml:"model_path" env:"MURMUR_MODEL_PATH"`
	// Language hints the decoder; empty lets the model auto-detect.
	Language string `toml:"language" env:"MURMUR_LANGUAGE"`
	// Device picks the capture device by name; empty means system
	// default.
	Device string `toml:"device" env:"MURMUR_DEVICE"`

	Punctuate     bool `toml:"punctuate" env:"MURMUR_PUNCTUATE"`
	ClipboardOnly bool `toml:"clipboard_only" env:"MURMUR_CLIPBOARD_ONLY"`
	Bullets       bool `toml:"bullets" env:"MURMUR_BULLETS"`

	// Profiles override the delivery switches per application id. The
	// id is resolved from the focused window once, at session start.
	Profiles map[string]Profile `toml:"profiles"`
}

// Profile is a tri-state overlay: nil fields inherit the global value.
type Profile struct {
	Punctuate     *bool `toml:"punctuate"`
	ClipboardOnly *bool `toml:"clipboard_only"`
	Bullets       *bool `toml:"bullets"`
}

// Modes are the delivery switches after profile resolution.
type Modes struct {
	Punctuate     bool
	ClipboardOnly bool
	Bullets       bool
}

func Defaults() Settings {
	return Settings{
		DoubleTapThreshold: 0.3,
		TriggerModifier:    "right-ctrl",
		Punctuate:          true,
	}
}

// DefaultPath is <user config dir>/murmur/config.toml.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(base, "murmur", "config.toml"), nil
}

// Load reads path over the defaults and overlays the environment. A
// missing file is not an error; the defaults stand.
func Load(path string) (Settings, error) {
	s := Defaults()
	if path != "" {
		switch _, err := os.Stat(path); {
		case err == nil:
			if _, err := toml.DecodeFile(path, &s); err != nil {
				return Defaults(), fmt.Errorf("decoding %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return Defaults(), fmt.Errorf("reading %s: %w", path, err)
		}
	}
	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("parsing environment: %w", err)
	}
	return s, nil
}

// Save writes the settings as TOML, creating the directory first.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Threshold is the tap window as a duration.
func (s Settings) Threshold() time.Duration {
	return time.Duration(s.DoubleTapThreshold * float64(time.Second))
}

// ModesFor resolves the delivery switches for one application id.
func (s Settings) ModesFor(appID string) Modes {
	m := Modes{
		Punctuate:     s.Punctuate,
		ClipboardOnly: s.ClipboardOnly,
		Bullets:       s.Bullets,
	}
	p, ok := s.Profiles[appID]
	if !ok {
		return m
	}
	if p.Punctuate != nil {
		m.Punctuate = *p.Punctuate
	}
	if p.ClipboardOnly != nil {
		m.ClipboardOnly = *p.ClipboardOnly
	}
	if p.Bullets != nil {
		m.Bullets = *p.Bullets
	}
	return m
}
