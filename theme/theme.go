// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

package theme

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultVibraDuration is the effect length in ms used when a vibra
// entry does not carry one.
const DefaultVibraDuration = 250

// Theme maps (profile level, event name) to one feedback spec. A theme
// may name a parent; Merge flattens the chain with child entries
// shadowing parent entries on the same key.
type Theme struct {
	Name       string
	ParentName string

	profiles map[Level]map[string]*Entry
}

// Entry is a single feedback definition inside a theme profile
type Entry struct {
	EventName string
	Spec      Spec
	// Level is the profile slice the entry was defined in. Events keep
	// it so a profile switch can end feedbacks that are no longer
	// allowed at the new level.
	Level Level
}

// Spec is the type-specific part of a theme entry
type Spec interface {
	Type() string
	validate() error
}

// DummySpec is a no-op feedback, useful to shadow a parent entry
type DummySpec struct{}

func (DummySpec) Type() string    { return "Dummy" }
func (DummySpec) validate() error { return nil }

// SoundSpec plays a sound theme event or an explicit file
type SoundSpec struct {
	Effect    string `json:"effect"`
	FileName  string `json:"file-name"`
	MediaRole string `json:"media-role"`
}

func (SoundSpec) Type() string { return "Sound" }

func (s SoundSpec) validate() error {
	return nil
}

// RumbleSpec plays a rumble effect count times with pauses in between
type RumbleSpec struct {
	Duration  uint32  `json:"duration"`
	Count     uint32  `json:"count"`
	Pause     uint32  `json:"pause"`
	Magnitude float64 `json:"magnitude"`
}

func (RumbleSpec) Type() string { return "VibraRumble" }

func (s RumbleSpec) validate() error {
	if s.Magnitude < 0.0 || s.Magnitude > 1.0 {
		return fmt.Errorf("rumble magnitude %f out of range", s.Magnitude)
	}
	return nil
}

// PeriodicSpec plays a sine effect with an optional fade-in envelope
type PeriodicSpec struct {
	Duration    uint32  `json:"duration"`
	Magnitude   float64 `json:"magnitude"`
	FadeInLevel float64 `json:"fade-in-level"`
	FadeInTime  uint32  `json:"fade-in-time"`
}

func (PeriodicSpec) Type() string { return "VibraPeriodic" }

func (s PeriodicSpec) validate() error {
	if s.Magnitude < 0.0 || s.Magnitude > 1.0 {
		return fmt.Errorf("periodic magnitude %f out of range", s.Magnitude)
	}
	return nil
}

// PatternSpec sequences rumbles of the given magnitudes and durations
type PatternSpec struct {
	Magnitudes []float64 `json:"magnitudes"`
	Durations  []uint32  `json:"durations"`
}

func (PatternSpec) Type() string { return "VibraPattern" }

func (s PatternSpec) validate() error {
	if len(s.Magnitudes) == 0 || len(s.Magnitudes) != len(s.Durations) {
		return fmt.Errorf("pattern needs equal, non-empty magnitudes (%d) and durations (%d)",
			len(s.Magnitudes), len(s.Durations))
	}
	for _, m := range s.Magnitudes {
		if m < 0.0 || m > 1.0 {
			return fmt.Errorf("pattern magnitude %f out of range", m)
		}
	}
	return nil
}

// TotalDuration returns the summed step durations in ms
func (s PatternSpec) TotalDuration() uint32 {
	var total uint32
	for _, d := range s.Durations {
		total += d
	}
	return total
}

// LedSpec blinks a LED of the given color at a frequency in mHz
type LedSpec struct {
	ColorName     string  `json:"color"`
	FrequencyMHz  uint32  `json:"frequency"`
	MaxBrightness *uint32 `json:"max-brightness"`
	Priority      uint32  `json:"priority"`
}

func (LedSpec) Type() string { return "Led" }

func (s LedSpec) validate() error {
	if _, _, err := ParseLedColor(s.ColorName); err != nil {
		return err
	}
	if s.MaxBrightness != nil && *s.MaxBrightness > 100 {
		return fmt.Errorf("led max-brightness %d out of range", *s.MaxBrightness)
	}
	return nil
}

// Color returns the parsed color and rgb value of the entry
func (s LedSpec) Color() (LedColor, RGB) {
	c, rgb, err := ParseLedColor(s.ColorName)
	if err != nil {
		return LedColorWhite, RGB{255, 255, 255}
	}
	return c, rgb
}

// BrightnessPct returns the configured max brightness percentage,
// defaulting to 100.
func (s LedSpec) BrightnessPct() uint32 {
	if s.MaxBrightness == nil {
		return 100
	}
	return *s.MaxBrightness
}

// New creates an empty theme
func New(name string) *Theme {
	return &Theme{
		Name:     name,
		profiles: make(map[Level]map[string]*Entry),
	}
}

// Add inserts (or replaces) an entry for (level, entry.EventName)
func (t *Theme) Add(level Level, entry *Entry) {
	if t.profiles[level] == nil {
		t.profiles[level] = make(map[string]*Entry)
	}
	entry.Level = level
	t.profiles[level][entry.EventName] = entry
}

// Lookup returns the entry for (level, event), nil if absent
func (t *Theme) Lookup(level Level, event string) *Entry {
	return t.profiles[level][event]
}

// Resolve returns the feedback entries for event at the given level:
// one entry per profile slice the level covers, most specific slice
// first. All of them run.
func (t *Theme) Resolve(level Level, event string) []*Entry {
	var entries []*Entry
	for _, slice := range level.Slices() {
		if e := t.profiles[slice][event]; e != nil {
			entries = append(entries, e)
		}
	}
	return entries
}

// Events returns the entries defined at level, in no particular order,
// used by the theme show CLI.
func (t *Theme) Events(level Level) []*Entry {
	entries := make([]*Entry, 0, len(t.profiles[level]))
	for _, e := range t.profiles[level] {
		entries = append(entries, e)
	}
	return entries
}

// Merge folds child entries over t, child winning on equal
// (level, event) keys. The receiver keeps its name.
func (t *Theme) Merge(child *Theme) {
	for level, events := range child.profiles {
		for _, entry := range events {
			t.Add(level, entry)
		}
	}
}

// Wire format of a theme file

type themeFile struct {
	Name       string        `json:"name"`
	ParentName string        `json:"parent-name"`
	Profiles   []profileFile `json:"profiles"`
}

type profileFile struct {
	Name      string            `json:"name"`
	Feedbacks []json.RawMessage `json:"feedbacks"`
}

type entryHeader struct {
	EventName string `json:"event-name"`
	Kind      string `json:"type"`
}

// Parse parses theme JSON
func Parse(data []byte) (*Theme, error) {
	var file themeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("malformed theme: %w", err)
	}

	theme := New(file.Name)
	theme.ParentName = file.ParentName

	for _, profile := range file.Profiles {
		level := ParseLevel(profile.Name)
		if level == LevelUnknown {
			return nil, fmt.Errorf("unknown profile %q in theme %q", profile.Name, file.Name)
		}

		for _, raw := range profile.Feedbacks {
			entry, err := parseEntry(raw)
			if err != nil {
				return nil, fmt.Errorf("theme %q, profile %q: %w", file.Name, profile.Name, err)
			}
			theme.Add(level, entry)
		}
	}

	return theme, nil
}

func parseEntry(raw json.RawMessage) (*Entry, error) {
	var header entryHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, fmt.Errorf("malformed feedback: %w", err)
	}
	if header.EventName == "" {
		return nil, fmt.Errorf("feedback without event-name")
	}

	var spec Spec
	switch header.Kind {
	case "Dummy":
		spec = DummySpec{}
	case "Sound":
		var s SoundSpec
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s.Effect == "" && s.FileName == "" {
			s.Effect = header.EventName
		}
		if s.MediaRole == "" {
			s.MediaRole = "event"
		}
		spec = s
	case "VibraRumble":
		s := RumbleSpec{Duration: DefaultVibraDuration, Count: 1}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s.Count == 0 {
			s.Count = 1
		}
		spec = s
	case "VibraPeriodic":
		s := PeriodicSpec{Duration: DefaultVibraDuration}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		spec = s
	case "VibraPattern":
		var s PatternSpec
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		spec = s
	case "Led":
		var s LedSpec
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		spec = s
	default:
		return nil, fmt.Errorf("unknown feedback type %q for event %q", header.Kind, header.EventName)
	}

	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("event %q: %w", header.EventName, err)
	}

	return &Entry{EventName: header.EventName, Spec: spec}, nil
}

// LoadFile parses the theme file at path
func LoadFile(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme: %w", err)
	}
	return Parse(data)
}
