package settings

import (
	"errors"
	"fmt"
	"strconv"
)

// Key names a single integer setting in a Source.
type Key string

// Enum settings shared by every profile.
const (
	// KeyMode selects the active grading mode (off, on, alternate profiles).
	KeyMode Key = "mode"

	// KeyPreset selects the active bias preset ("none", "sunglasses-light", ...).
	KeyPreset Key = "preset"
)

// Ordinal counts of the enum settings. colorgrade decodes exactly these
// ranges and panics outside them, so files are validated on decode.
const (
	NumModes   = 5
	NumPresets = 4
)

// ErrEnumRange is returned for a mode or preset ordinal outside its range.
var ErrEnumRange = errors.New("settings: enum ordinal out of range")

// EnumRange returns the number of ordinals key accepts. ok is false when
// key is not an enum setting.
func EnumRange(key Key) (n int, ok bool) {
	switch key {
	case KeyMode:
		return NumModes, true
	case KeyPreset:
		return NumPresets, true
	default:
		return 0, false
	}
}

// ValidateEnum checks v against the range of the enum key. Non-enum keys
// always pass.
func ValidateEnum(key Key, v int) error {
	n, ok := EnumRange(key)
	if !ok || (v >= 0 && v < n) {
		return nil
	}
	return fmt.Errorf("%w: %s = %d, want [0, %d)", ErrEnumRange, key, v, n)
}

// Raw tunables are user-facing integers in [MinValue, MaxValue].
const (
	MinValue = 0
	MaxValue = 1000

	// NeutralValue is the midpoint the signed tunables default to.
	NeutralValue = 500
)

// Profile selects one of the alternate tunable sets. The default profile
// uses unsuffixed keys; the others append ".1" to ".3".
type Profile uint8

// Available profiles.
const (
	ProfileDefault Profile = iota
	Profile1
	Profile2
	Profile3

	// NumProfiles is the number of tunable sets a Source carries.
	NumProfiles = 4
)

// Valid reports whether p names one of the NumProfiles sets.
func (p Profile) Valid() bool { return p < NumProfiles }

// Suffix returns the key suffix for p ("" for the default profile).
func (p Profile) Suffix() string {
	if p == ProfileDefault {
		return ""
	}
	return "." + strconv.Itoa(int(p))
}

func (p Profile) String() string {
	if p == ProfileDefault {
		return "default"
	}
	return "profile" + strconv.Itoa(int(p))
}

// Tunable identifies one of the user-facing grading controls.
type Tunable uint8

// Tunables in parameter-block order.
const (
	TunableContrast Tunable = iota
	TunableBrightness
	TunableExposure
	TunableSaturation
	TunableColorGainR
	TunableColorGainG
	TunableColorGainB
	TunableHighlights
	TunableShadows
	TunableVibrance

	// NumTunables counts the tunables above.
	NumTunables = 10
)

var tunableNames = [NumTunables]string{
	TunableContrast:   "contrast",
	TunableBrightness: "brightness",
	TunableExposure:   "exposure",
	TunableSaturation: "saturation",
	TunableColorGainR: "color_gain_r",
	TunableColorGainG: "color_gain_g",
	TunableColorGainB: "color_gain_b",
	TunableHighlights: "highlights",
	TunableShadows:    "shadows",
	TunableVibrance:   "vibrance",
}

func (t Tunable) String() string {
	if t >= NumTunables {
		return "tunable(" + strconv.Itoa(int(t)) + ")"
	}
	return tunableNames[t]
}

// Default returns the neutral raw value of t. Highlights, shadows and
// vibrance are zero at rest; every other tunable sits at NeutralValue.
func (t Tunable) Default() int {
	switch t {
	case TunableHighlights, TunableShadows, TunableVibrance:
		return MinValue
	default:
		return NeutralValue
	}
}

// Key returns the setting key of t within profile p.
func (t Tunable) Key(p Profile) Key {
	return Key(t.String() + p.Suffix())
}

// Tunables returns every tunable in parameter-block order.
func Tunables() []Tunable {
	out := make([]Tunable, NumTunables)
	for i := range out {
		out[i] = Tunable(i)
	}
	return out
}

// Source is the raw setting store consumed by the grading processor.
//
// HasChanged reports whether key was modified since the previous
// HasChanged call for the same key, and clears that flag.
type Source interface {
	EnumValue(key Key) int
	Value(key Key) int
	HasChanged(key Key) bool
}

// tunableKeys maps every profile-qualified tunable key to its tunable.
var tunableKeys = func() map[Key]Tunable {
	m := make(map[Key]Tunable, NumTunables*NumProfiles)
	for p := Profile(0); p < NumProfiles; p++ {
		for _, t := range Tunables() {
			m[t.Key(p)] = t
		}
	}
	return m
}()

// IsTunable reports whether key names a tunable in any profile.
func IsTunable(key Key) bool {
	_, ok := tunableKeys[key]
	return ok
}

// Clamp saturates v to [MinValue, MaxValue].
func Clamp(v int) int {
	if v < MinValue {
		return MinValue
	}
	if v > MaxValue {
		return MaxValue
	}
	return v
}
