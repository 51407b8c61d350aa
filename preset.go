package colorgrade

import (
	"fmt"

	"github.com/gogpu/colorgrade/settings"
)

// Preset is a discrete bias preset read from [settings.KeyPreset].
// Ordinals run from neutral to the most extreme adjustment.
type Preset uint8

// Presets.
const (
	PresetNone Preset = iota
	PresetSunglassesLight
	PresetSunglassesDark
	PresetDeepNight

	numPresets
)

func (p Preset) String() string {
	switch p {
	case PresetNone:
		return "none"
	case PresetSunglassesLight:
		return "sunglasses-light"
	case PresetSunglassesDark:
		return "sunglasses-dark"
	case PresetDeepNight:
		return "deep-night"
	default:
		return fmt.Sprintf("Preset(%d)", uint8(p))
	}
}

// PresetFromOrdinal decodes a raw enum value.
func PresetFromOrdinal(v int) (Preset, bool) {
	if v < 0 || v >= int(numPresets) {
		return PresetNone, false
	}
	return Preset(v), true
}

// Presets returns every preset in ordinal order.
func Presets() []Preset {
	out := make([]Preset, numPresets)
	for i := range out {
		out[i] = Preset(i)
	}
	return out
}

// PresetEntry holds the integer bias a preset adds to each raw group,
// in the same thousandths the raw settings use.
type PresetEntry struct {
	Tone      [4]int
	ColorGain [4]int
	Detail    [4]int
}

// GainTable holds the fixed per-group multipliers applied after range
// remapping.
type GainTable struct {
	Tone      [4]float32
	ColorGain [4]float32
	Detail    [4]float32
}

// presetTable is indexed by Preset. PresetNone must stay all zero.
// Detail biases raise the highlight reduction and shadow lift, so the
// darker presets carry large positive highlight values.
var presetTable = [numPresets]PresetEntry{
	PresetNone: {},
	// +2.5 contrast, -5 brightness, -5 exposure, 2% highlight reduction.
	PresetSunglassesLight: {
		Tone:   [4]int{25, -50, -50, 0},
		Detail: [4]int{20, 0, 0, 0},
	},
	// +2.5 contrast, -10 brightness, -10 exposure, 40% highlight
	// reduction, 5% shadow lift.
	PresetSunglassesDark: {
		Tone:   [4]int{25, -100, -100, 0},
		Detail: [4]int{400, 50, 0, 0},
	},
	// +0.5 contrast, -40 brightness, +20 exposure, -15 saturation,
	// 75% highlight reduction, 15% shadow lift, +2.5 vibrance.
	PresetDeepNight: {
		Tone:   [4]int{5, -400, 200, -150},
		Detail: [4]int{750, 150, 25, 0},
	},
}

// gains narrows brightness, amplifies exposure threefold and limits the
// shadow range. Products are not re-clamped: exposure reaches +-3.
var gains = GainTable{
	Tone:      [4]float32{1.0, 0.8, 3.0, 1.0},
	ColorGain: [4]float32{1.0, 1.0, 1.0, 1.0},
	Detail:    [4]float32{1.0, 0.5, 1.0, 1.0},
}

// Gains returns the gain table shared by every preset.
func Gains() GainTable { return gains }

// PresetFor returns the bias entry of p. It panics if p is not a
// defined preset: the enum space is closed and validated upstream.
func PresetFor(p Preset) PresetEntry {
	if p >= numPresets {
		panic(fmt.Sprintf("colorgrade: preset ordinal %d out of range [0, %d)", p, numPresets))
	}
	return presetTable[p]
}

// readPreset decodes the preset setting, panicking on unknown ordinals.
func readPreset(src settings.Source) Preset {
	v := src.EnumValue(settings.KeyPreset)
	p, ok := PresetFromOrdinal(v)
	if !ok {
		panic(fmt.Sprintf("colorgrade: preset ordinal %d out of range [0, %d)", v, numPresets))
	}
	return p
}
