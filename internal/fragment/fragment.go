// Package fragment discovers and tracks the optional kernel configuration
// fragments shipped with the Titan tree.
//
// Fragments live in one directory and follow the naming convention
// "titan<+|->(name).conf": a leading '+' marks the fragment as enabled by
// default, '-' as disabled by default. The bare "titan.conf" file is the
// unconditional baseline and is never part of the toggle set.
package fragment

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Prefix is the common filename prefix of all fragment files.
const Prefix = "titan"

// BaseFile is the unconditional baseline fragment, always merged.
const BaseFile = Prefix + ".conf"

// MagiskName is the one fragment carrying the extra canary-variant flag.
const MagiskName = "magisk"

// Fragment is one toggle-able configuration unit.
type Fragment struct {
	Name           string
	Path           string
	DefaultEnabled bool
	Enabled        bool

	// Canary selects the pre-release Magisk channel. Only meaningful on
	// the fragment named MagiskName.
	Canary bool
}

// Set is the universe of discovered fragments, keyed by name.
type Set struct {
	dir     string
	byName  map[string]*Fragment
	ordered []string
}

// Discover scans dir for fragment files and returns the resulting Set with
// every fragment at its default enabled state.
func Discover(dir string) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read fragment directory %q: %w", dir, err)
	}

	set := &Set{dir: dir, byName: make(map[string]*Fragment)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, defaultEnabled, ok := classify(entry.Name())
		if !ok {
			continue
		}
		if existing, dup := set.byName[name]; dup {
			return nil, fmt.Errorf("fragment %q defined by both %s and %s",
				name, filepath.Base(existing.Path), entry.Name())
		}
		set.byName[name] = &Fragment{
			Name:           name,
			Path:           filepath.Join(dir, entry.Name()),
			DefaultEnabled: defaultEnabled,
			Enabled:        defaultEnabled,
		}
		set.ordered = append(set.ordered, name)
	}
	sort.Strings(set.ordered)
	return set, nil
}

// classify maps a filename to a fragment name and default state. The second
// return is the default state; ok is false for files outside the convention,
// including the baseline file.
func classify(filename string) (name string, defaultEnabled, ok bool) {
	if filename == BaseFile {
		return "", false, false
	}
	rest, found := strings.CutPrefix(filename, Prefix)
	if !found {
		return "", false, false
	}
	rest, found = strings.CutSuffix(rest, ".conf")
	if !found || len(rest) < 2 {
		return "", false, false
	}
	switch rest[0] {
	case '+':
		return rest[1:], true, true
	case '-':
		return rest[1:], false, true
	default:
		return "", false, false
	}
}

// BasePath returns the path of the unconditional baseline fragment.
func (s *Set) BasePath() string {
	return filepath.Join(s.dir, BaseFile)
}

// Get returns the fragment with the given name.
func (s *Set) Get(name string) (*Fragment, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Names returns all fragment names in sorted order.
func (s *Set) Names() []string {
	return append([]string(nil), s.ordered...)
}

// Enabled returns the currently enabled fragments in name-sorted order.
func (s *Set) Enabled() []*Fragment {
	var enabled []*Fragment
	for _, name := range s.ordered {
		if f := s.byName[name]; f.Enabled {
			enabled = append(enabled, f)
		}
	}
	return enabled
}

// Changed returns the fragments whose current state differs from their
// default, in name-sorted order.
func (s *Set) Changed() []*Fragment {
	var changed []*Fragment
	for _, name := range s.ordered {
		if f := s.byName[name]; f.Enabled != f.DefaultEnabled {
			changed = append(changed, f)
		}
	}
	return changed
}
