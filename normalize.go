package colorgrade

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/colorgrade/gpucore"
	"github.com/gogpu/colorgrade/settings"
)

// RawSettings holds the three raw setting groups in thousandths:
//
//	Tone:      contrast, brightness, exposure, saturation
//	ColorGain: red, green, blue, unused
//	Detail:    highlights, shadows, vibrance, unused
type RawSettings struct {
	Tone      [4]int
	ColorGain [4]int
	Detail    [4]int
}

// rawLayout maps each group component to its tunable; unused slots are -1.
var rawLayout = [3][4]int{
	{int(settings.TunableContrast), int(settings.TunableBrightness), int(settings.TunableExposure), int(settings.TunableSaturation)},
	{int(settings.TunableColorGainR), int(settings.TunableColorGainG), int(settings.TunableColorGainB), -1},
	{int(settings.TunableHighlights), int(settings.TunableShadows), int(settings.TunableVibrance), -1},
}

// ReadRawSettings reads the tunables of profile from src.
func ReadRawSettings(src settings.Source, profile settings.Profile) RawSettings {
	var raw RawSettings
	groups := [3]*[4]int{&raw.Tone, &raw.ColorGain, &raw.Detail}
	for g, layout := range rawLayout {
		for i, t := range layout {
			if t < 0 {
				continue
			}
			groups[g][i] = src.Value(settings.Tunable(t).Key(profile))
		}
	}
	return raw
}

// Normalize maps raw settings biased by entry into the shader parameter
// block using the shared gain table.
//
// Per component the biased value is divided by 1000 and saturated to
// [0, 1]. Tone and colour gain are then remapped to [-1, 1]; all groups
// are finally multiplied by their gain. The product is not re-clamped.
func Normalize(raw RawSettings, entry PresetEntry) gpucore.Params {
	return gpucore.Params{
		Tone:      normalizeSigned(raw.Tone, entry.Tone, gains.Tone),
		ColorGain: normalizeSigned(raw.ColorGain, entry.ColorGain, gains.ColorGain),
		Detail:    normalizeUnsigned(raw.Detail, entry.Detail, gains.Detail),
	}
}

// NormalizeProfile reads the tunables of profile and normalizes them
// with preset.
func NormalizeProfile(src settings.Source, profile settings.Profile, preset Preset) gpucore.Params {
	return Normalize(ReadRawSettings(src, profile), PresetFor(preset))
}

func normalizeSigned(raw, bias [4]int, gain [4]float32) [4]float32 {
	var out [4]float32
	for i := range out {
		out[i] = (biased(raw[i], bias[i])*2 - 1) * gain[i]
	}
	return out
}

func normalizeUnsigned(raw, bias [4]int, gain [4]float32) [4]float32 {
	var out [4]float32
	for i := range out {
		out[i] = biased(raw[i], bias[i]) * gain[i]
	}
	return out
}

// biased returns saturate((raw + bias) / 1000). The sum is formed in
// floating point so extreme inputs clamp instead of wrapping.
func biased(raw, bias int) float32 {
	return saturate((float32(raw) + float32(bias)) / settings.MaxValue)
}

func saturate(v float32) float32 {
	return math32.Min(math32.Max(v, 0), 1)
}
