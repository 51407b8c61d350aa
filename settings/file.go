package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for settings files whose extension is
// neither TOML nor YAML.
var ErrUnknownFormat = errors.New("settings: unknown file format")

// Format is a settings file encoding.
type Format int

// Supported formats.
const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatFor picks the encoding from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// File is the on-disk settings layout. Absent fields leave the
// corresponding store values untouched.
type File struct {
	Mode   *int `toml:"mode,omitempty" yaml:"mode,omitempty"`
	Preset *int `toml:"preset,omitempty" yaml:"preset,omitempty"`

	Default  *ProfileValues `toml:"default,omitempty" yaml:"default,omitempty"`
	Profile1 *ProfileValues `toml:"profile1,omitempty" yaml:"profile1,omitempty"`
	Profile2 *ProfileValues `toml:"profile2,omitempty" yaml:"profile2,omitempty"`
	Profile3 *ProfileValues `toml:"profile3,omitempty" yaml:"profile3,omitempty"`
}

// ProfileValues holds the tunables of one profile.
type ProfileValues struct {
	Contrast   *int `toml:"contrast,omitempty" yaml:"contrast,omitempty"`
	Brightness *int `toml:"brightness,omitempty" yaml:"brightness,omitempty"`
	Exposure   *int `toml:"exposure,omitempty" yaml:"exposure,omitempty"`
	Saturation *int `toml:"saturation,omitempty" yaml:"saturation,omitempty"`
	ColorGainR *int `toml:"color_gain_r,omitempty" yaml:"color_gain_r,omitempty"`
	ColorGainG *int `toml:"color_gain_g,omitempty" yaml:"color_gain_g,omitempty"`
	ColorGainB *int `toml:"color_gain_b,omitempty" yaml:"color_gain_b,omitempty"`
	Highlights *int `toml:"highlights,omitempty" yaml:"highlights,omitempty"`
	Shadows    *int `toml:"shadows,omitempty" yaml:"shadows,omitempty"`
	Vibrance   *int `toml:"vibrance,omitempty" yaml:"vibrance,omitempty"`
}

func (pv *ProfileValues) fields() [NumTunables]*int {
	return [NumTunables]*int{
		TunableContrast:   pv.Contrast,
		TunableBrightness: pv.Brightness,
		TunableExposure:   pv.Exposure,
		TunableSaturation: pv.Saturation,
		TunableColorGainR: pv.ColorGainR,
		TunableColorGainG: pv.ColorGainG,
		TunableColorGainB: pv.ColorGainB,
		TunableHighlights: pv.Highlights,
		TunableShadows:    pv.Shadows,
		TunableVibrance:   pv.Vibrance,
	}
}

func (f *File) profiles() [NumProfiles]*ProfileValues {
	return [NumProfiles]*ProfileValues{
		ProfileDefault: f.Default,
		Profile1:       f.Profile1,
		Profile2:       f.Profile2,
		Profile3:       f.Profile3,
	}
}

// values flattens f into store keys, skipping absent fields.
func (f *File) values() map[Key]int {
	out := make(map[Key]int)
	if f.Mode != nil {
		out[KeyMode] = *f.Mode
	}
	if f.Preset != nil {
		out[KeyPreset] = *f.Preset
	}
	for p, pv := range f.profiles() {
		if pv == nil {
			continue
		}
		for t, v := range pv.fields() {
			if v != nil {
				out[Tunable(t).Key(Profile(p))] = *v
			}
		}
	}
	return out
}

// Validate reports an ErrEnumRange error for an out-of-range mode or
// preset. Tunables are clamped on apply and need no check.
func (f *File) Validate() error {
	var errs []error
	if f.Mode != nil {
		errs = append(errs, ValidateEnum(KeyMode, *f.Mode))
	}
	if f.Preset != nil {
		errs = append(errs, ValidateEnum(KeyPreset, *f.Preset))
	}
	return errors.Join(errs...)
}

// Decode parses settings data in the given format and validates the enum
// settings. A file that fails validation is rejected as a whole.
func Decode(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("settings: decode toml: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("settings: decode yaml: %w", err)
		}
	default:
		return nil, ErrUnknownFormat
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("settings: validate: %w", err)
	}
	return &f, nil
}

// Load reads and decodes a settings file, choosing the format by extension.
func Load(path string) (*File, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	return Decode(data, format)
}

// LoadFile reads path and applies it to the store.
func (s *Store) LoadFile(path string) error {
	f, err := Load(path)
	if err != nil {
		return err
	}
	n := s.Apply(f)
	slogger().Info("settings: loaded file", "path", path, "changed", n)
	return nil
}
