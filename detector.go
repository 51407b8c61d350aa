package colorgrade

import "github.com/gogpu/colorgrade/settings"

// ChangeDetector reports whether any setting that feeds the parameter
// block changed since the previous check. It holds no state of its own;
// change tracking is delegated to the Source.
type ChangeDetector struct {
	src settings.Source
}

// NewChangeDetector returns a detector over src.
func NewChangeDetector(src settings.Source) *ChangeDetector {
	return &ChangeDetector{src: src}
}

// HasRelevantChange reports whether the preset or any tunable of the
// profile selected by mode changed. It always returns false for ModeOff
// and leaves the flags untouched in that case.
//
// Every flag is consulted, so a batch of edits is consumed by a single
// call and triggers a single recomputation.
func (d *ChangeDetector) HasRelevantChange(mode Mode) bool {
	if !mode.Enabled() {
		return false
	}
	changed := d.src.HasChanged(settings.KeyPreset)
	profile := mode.Profile()
	for _, t := range settings.Tunables() {
		if d.src.HasChanged(t.Key(profile)) {
			changed = true
		}
	}
	return changed
}
