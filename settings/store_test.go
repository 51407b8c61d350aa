package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTunableKey(t *testing.T) {
	assert.Equal(t, Key("contrast"), TunableContrast.Key(ProfileDefault))
	assert.Equal(t, Key("contrast.1"), TunableContrast.Key(Profile1))
	assert.Equal(t, Key("color_gain_b.3"), TunableColorGainB.Key(Profile3))
	assert.Equal(t, "tunable(42)", Tunable(42).String())
}

func TestTunablesCoverEveryProfile(t *testing.T) {
	assert.Len(t, Tunables(), NumTunables)
	for p := Profile(0); p < NumProfiles; p++ {
		for _, tn := range Tunables() {
			assert.True(t, IsTunable(tn.Key(p)), "key %s", tn.Key(p))
		}
	}
	assert.False(t, IsTunable(KeyMode))
	assert.False(t, IsTunable(KeyPreset))
}

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 0, s.EnumValue(KeyMode))
	assert.Equal(t, 0, s.EnumValue(KeyPreset))
	assert.Equal(t, NeutralValue, s.Value(TunableExposure.Key(Profile2)))
	assert.Equal(t, MinValue, s.Value(TunableHighlights.Key(Profile1)))
	assert.Equal(t, MinValue, s.Value(TunableVibrance.Key(ProfileDefault)))
	assert.Empty(t, s.Pending(), "defaults must not be flagged as changed")
}

func TestTunableDefault(t *testing.T) {
	tests := []struct {
		tn   Tunable
		want int
	}{
		{TunableContrast, NeutralValue},
		{TunableExposure, NeutralValue},
		{TunableColorGainB, NeutralValue},
		{TunableHighlights, MinValue},
		{TunableShadows, MinValue},
		{TunableVibrance, MinValue},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.tn.Default(), "tunable %s", tt.tn)
	}
}

func TestStoreSetClampsTunables(t *testing.T) {
	s := NewStore()
	require.True(t, s.SetTunable(TunableContrast, ProfileDefault, 5000))
	assert.Equal(t, MaxValue, s.Value(TunableContrast.Key(ProfileDefault)))

	require.True(t, s.SetTunable(TunableSaturation, Profile1, -20))
	assert.Equal(t, MinValue, s.Value(TunableSaturation.Key(Profile1)))

	// Enum keys are stored as given.
	require.True(t, s.Set(KeyPreset, 7))
	assert.Equal(t, 7, s.EnumValue(KeyPreset))
}

func TestStoreHasChangedClearsFlag(t *testing.T) {
	s := NewStore()
	key := TunableVibrance.Key(ProfileDefault)

	assert.False(t, s.HasChanged(key))
	s.Set(key, 800)
	assert.Equal(t, []Key{key}, s.Pending())
	assert.True(t, s.HasChanged(key))
	assert.False(t, s.HasChanged(key), "flag must be cleared after the first check")
}

func TestStoreSetSameValueIsNotAChange(t *testing.T) {
	s := NewStore()
	key := TunableBrightness.Key(ProfileDefault)
	assert.False(t, s.Set(key, NeutralValue))
	assert.False(t, s.HasChanged(key))

	// Clamped to the value already stored.
	s.Set(key, MaxValue)
	require.True(t, s.HasChanged(key))
	assert.False(t, s.Set(key, MaxValue+1))
	assert.False(t, s.HasChanged(key))
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	snap := s.Snapshot()
	snap[KeyMode] = 3
	assert.Equal(t, 0, s.EnumValue(KeyMode))
	assert.Len(t, snap, NumTunables*NumProfiles+2)
}

func TestStoreApply(t *testing.T) {
	s := NewStore()
	mode, contrast, shadows := 1, 650, 1200
	f := &File{
		Mode:     &mode,
		Default:  &ProfileValues{Contrast: &contrast},
		Profile2: &ProfileValues{Shadows: &shadows},
	}

	assert.Equal(t, 3, s.Apply(f))
	assert.Equal(t, 1, s.EnumValue(KeyMode))
	assert.Equal(t, 650, s.Value(TunableContrast.Key(ProfileDefault)))
	assert.Equal(t, MaxValue, s.Value(TunableShadows.Key(Profile2)))
	assert.ElementsMatch(t, []Key{KeyMode, "contrast", "shadows.2"}, s.Pending())

	// Re-applying the same file changes nothing.
	assert.Equal(t, 0, s.Apply(f))
	assert.Equal(t, 0, s.Apply(nil))
}
