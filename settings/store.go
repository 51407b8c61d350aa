package settings

import (
	"sort"
	"sync"
)

// Store is an in-memory Source with per-key change tracking.
//
// Set marks a key changed only when its stored value actually differs, so
// re-applying an unchanged settings file does not trigger recomputation.
// Store is safe for concurrent use: a file watcher may write while the
// render thread reads.
type Store struct {
	mu      sync.Mutex
	values  map[Key]int
	changed map[Key]bool
}

var _ Source = (*Store)(nil)

// NewStore returns a store populated with Defaults. No key starts out
// flagged as changed.
func NewStore() *Store {
	s := &Store{
		values:  make(map[Key]int, len(tunableKeys)+2),
		changed: make(map[Key]bool),
	}
	for k, v := range Defaults() {
		s.values[k] = v
	}
	return s
}

// Defaults returns the neutral value of every key: mode and preset zero,
// every tunable of every profile at its Tunable.Default.
func Defaults() map[Key]int {
	m := make(map[Key]int, len(tunableKeys)+2)
	m[KeyMode] = 0
	m[KeyPreset] = 0
	for k, t := range tunableKeys {
		m[k] = t.Default()
	}
	return m
}

// Set stores v under key and reports whether the stored value changed.
// Tunable values are clamped to [MinValue, MaxValue].
func (s *Store) Set(key Key, v int) bool {
	if IsTunable(key) {
		v = Clamp(v)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(key, v)
}

func (s *Store) setLocked(key Key, v int) bool {
	old, ok := s.values[key]
	if ok && old == v {
		return false
	}
	s.values[key] = v
	s.changed[key] = true
	return true
}

// SetTunable stores the value of t in profile p.
func (s *Store) SetTunable(t Tunable, p Profile, v int) bool {
	return s.Set(t.Key(p), v)
}

// Value returns the integer stored under key, or zero if key is unknown.
func (s *Store) Value(key Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// EnumValue returns the enum ordinal stored under key.
func (s *Store) EnumValue(key Key) int {
	return s.Value(key)
}

// HasChanged reports whether key changed since the last HasChanged call
// for it and clears the flag.
func (s *Store) HasChanged(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.changed[key] {
		return false
	}
	delete(s.changed, key)
	return true
}

// Pending returns the keys currently flagged as changed, sorted.
// Flags are not cleared.
func (s *Store) Pending() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]Key, 0, len(s.changed))
	for k := range s.changed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Snapshot returns a copy of every stored value.
func (s *Store) Snapshot() map[Key]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Key]int, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Apply writes every value present in f and returns the number of keys
// whose stored value changed.
func (s *Store) Apply(f *File) int {
	if f == nil {
		return 0
	}
	values := f.values()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, v := range values {
		if IsTunable(k) {
			v = Clamp(v)
		}
		if s.setLocked(k, v) {
			n++
		}
	}
	return n
}
