package colorgrade

import (
	"fmt"

	"github.com/gogpu/colorgrade/settings"
)

// Mode is the active grading mode read from [settings.KeyMode].
//
// ModeOff disables grading (the pass-through program still runs). Every
// other mode enables grading with the tunables of one profile.
type Mode uint8

// Grading modes.
const (
	ModeOff Mode = iota
	ModeOn
	ModeProfile1
	ModeProfile2
	ModeProfile3

	numModes
)

// ModeFromOrdinal decodes a raw enum value.
func ModeFromOrdinal(v int) (Mode, bool) {
	if v < 0 || v >= int(numModes) {
		return ModeOff, false
	}
	return Mode(v), true
}

// Enabled reports whether grading runs in mode m.
func (m Mode) Enabled() bool { return m != ModeOff }

// Profile returns the tunable set read in mode m. ModeOff and ModeOn both
// use the default profile.
func (m Mode) Profile() settings.Profile {
	switch m {
	case ModeProfile1:
		return settings.Profile1
	case ModeProfile2:
		return settings.Profile2
	case ModeProfile3:
		return settings.Profile3
	default:
		return settings.ProfileDefault
	}
}

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeOn:
		return "on"
	case ModeProfile1:
		return "profile1"
	case ModeProfile2:
		return "profile2"
	case ModeProfile3:
		return "profile3"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// readMode decodes the mode setting. The enum space is closed and
// validated by the setting source, so an unknown ordinal is a
// programming error.
func readMode(src settings.Source) Mode {
	v := src.EnumValue(settings.KeyMode)
	m, ok := ModeFromOrdinal(v)
	if !ok {
		panic(fmt.Sprintf("colorgrade: mode ordinal %d out of range [0, %d)", v, numModes))
	}
	return m
}
