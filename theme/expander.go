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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvThemeFile overrides theme selection with an explicit file,
	// mainly for testing.
	EnvThemeFile = "FEEDBACK_THEME"

	// DeviceParent is the reserved parent-name resolving to the
	// device-specific compatible-driven theme.
	DeviceParent = "$device"

	themeSubdir = "feedbackd/themes"

	// maxChainDepth bounds the parent chain
	maxChainDepth = 8

	compatiblePath = "/proc/device-tree/compatible"
)

var (
	// ErrThemeMissing means no theme file was found, including the
	// default one.
	ErrThemeMissing = errors.New("no theme found")

	// ErrThemeCycle means the parent chain loops or is too deep
	ErrThemeCycle = errors.New("theme parent chain loops or exceeds depth limit")
)

// Expander selects and loads a theme including its parent chain.
// Custom theme name wins over device themes which win over "default".
type Expander struct {
	Compatibles []string // device-tree compatible strings, most specific first
	ThemeName   string   // theme name from settings, may be empty
	ThemeFile   string   // explicit file override (FEEDBACK_THEME), may be empty

	// Search path, user config dir first. Overridable for tests.
	ConfigDir string
	DataDirs  []string
}

// NewExpander creates an expander with the XDG default search path
func NewExpander(compatibles []string, themeName, themeFile string) *Expander {
	e := &Expander{
		Compatibles: compatibles,
		ThemeName:   themeName,
		ThemeFile:   themeFile,
	}

	if dir, err := os.UserConfigDir(); err == nil {
		e.ConfigDir = dir
	}
	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	e.DataDirs = strings.Split(dataDirs, ":")

	return e
}

// DeviceCompatibles reads the device-tree compatible strings of the
// running machine. Returns nil on machines without a device tree.
func DeviceCompatibles() []string {
	data, err := os.ReadFile(compatiblePath)
	if err != nil {
		return nil
	}

	var compatibles []string
	for _, s := range strings.Split(string(data), "\x00") {
		if s != "" {
			compatibles = append(compatibles, s)
		}
	}
	return compatibles
}

// findFile locates the theme file for name on the search path
func (e *Expander) findFile(name string) (string, bool) {
	var dirs []string
	if e.ConfigDir != "" {
		dirs = append(dirs, e.ConfigDir)
	}
	dirs = append(dirs, e.DataDirs...)

	for _, dir := range dirs {
		path := filepath.Join(dir, themeSubdir, name+".json")
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// deviceThemeName returns the name of the first compatible with an
// existing theme file.
func (e *Expander) deviceThemeName() (string, bool) {
	for _, name := range e.Compatibles {
		if _, ok := e.findFile(name); ok {
			return name, true
		}
	}
	return "", false
}

// chooseFile picks the top theme file: explicit override, then custom
// name, then device themes, then default.
func (e *Expander) chooseFile() (string, error) {
	if e.ThemeFile != "" {
		return e.ThemeFile, nil
	}

	var candidates []string
	if e.ThemeName != "" {
		candidates = append(candidates, e.ThemeName)
	}
	candidates = append(candidates, e.Compatibles...)
	candidates = append(candidates, "default")

	for _, name := range candidates {
		if path, ok := e.findFile(name); ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrThemeMissing, strings.Join(candidates, ", "))
}

// Load loads the chosen theme and flattens its parent chain, children
// shadowing parents on (profile, event) keys.
func (e *Expander) Load() (*Theme, error) {
	path, err := e.chooseFile()
	if err != nil {
		return nil, err
	}

	chain := []*Theme{} // child first
	seen := map[string]bool{}

	for {
		if len(chain) >= maxChainDepth {
			return nil, ErrThemeCycle
		}

		t, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("%w: %q seen twice", ErrThemeCycle, t.Name)
		}
		seen[t.Name] = true
		chain = append(chain, t)

		parent := t.ParentName
		if parent == "" {
			break
		}
		if parent == DeviceParent {
			name, ok := e.deviceThemeName()
			if !ok {
				// No device theme on this machine, chain ends here
				break
			}
			parent = name
		}

		parentPath, ok := e.findFile(parent)
		if !ok {
			return nil, fmt.Errorf("%w: parent %q", ErrThemeMissing, parent)
		}
		path = parentPath
	}

	// Fold ancestors first so children override
	merged := New(chain[0].Name)
	for i := len(chain) - 1; i >= 0; i-- {
		merged.Merge(chain[i])
	}
	return merged, nil
}
