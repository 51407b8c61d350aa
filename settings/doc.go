// Package settings provides the raw setting source for colour grading.
//
// A Source exposes named integer settings: two enums ([KeyMode],
// [KeyPreset]) and ten tunables per profile, each in [MinValue, MaxValue].
// Every key carries a change flag that is cleared by reading it through
// HasChanged, which lets the grading processor skip recomputation on
// frames where nothing moved.
//
// [Store] is the in-memory implementation. It can be populated from a
// TOML or YAML file and kept in sync with it:
//
//	store := settings.NewStore()
//	if err := store.LoadFile("grading.toml"); err != nil {
//	    return err
//	}
//	go store.Watch(ctx, "grading.toml")
//
// File layout:
//
//	mode = 1
//	preset = 2
//
//	[default]
//	contrast = 550
//	exposure = 600
//
//	[profile1]
//	shadows = 700
package settings
