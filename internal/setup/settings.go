// Package setup loads the tool's settings file and derives the filesystem
// locations the rest of the pipeline works with. Everything has a sensible
// default so running from a kernel tree root needs no settings file at all.
package setup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSettingsFile is looked up relative to the working directory.
const DefaultSettingsFile = "titan-build.yaml"

// Settings are the tool's own knobs, all optional. The zero value is not
// usable; start from Defaults.
type Settings struct {
	// TreeRoot is the kernel source tree the tool operates on.
	TreeRoot string `yaml:"tree_root"`

	// ConfigDir holds the configuration fragments, relative to TreeRoot.
	ConfigDir string `yaml:"config_dir"`

	// Image and Archive are the fixed output filenames inside TreeRoot.
	Image   string `yaml:"image"`
	Archive string `yaml:"archive"`

	// RecordFile is the build summary, recreated each config stage.
	RecordFile string `yaml:"record_file"`

	// Jobs overrides build parallelism; 0 means one job per host CPU.
	Jobs int `yaml:"jobs"`

	Magisk MagiskSettings `yaml:"magisk"`
}

// MagiskSettings locate the payload update channels.
type MagiskSettings struct {
	StableURL string `yaml:"stable_url"`
	CanaryURL string `yaml:"canary_url"`
	Dest      string `yaml:"dest"`
}

// Defaults returns the settings used when no settings file exists.
func Defaults() Settings {
	return Settings{
		TreeRoot:   ".",
		ConfigDir:  filepath.Join("kernel", "configs"),
		Image:      "boot.img",
		Archive:    "boot.tar",
		RecordFile: "build_info.txt",
		Magisk: MagiskSettings{
			StableURL: "https://raw.githubusercontent.com/topjohnwu/magisk-files/master/stable.json",
			CanaryURL: "https://raw.githubusercontent.com/topjohnwu/magisk-files/master/canary.json",
			Dest:      filepath.Join("usr", "magisk", "magisk.apk"),
		},
	}
}

// Load reads settings from path, overlaying the defaults. A missing file is
// not an error: the defaults apply unchanged.
func Load(path string) (Settings, error) {
	settings := Defaults()

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings %q: %w", path, err)
	}
	if err := yaml.Unmarshal(contents, &settings); err != nil {
		return settings, fmt.Errorf("parse settings %q: %w", path, err)
	}
	if settings.TreeRoot == "" {
		settings.TreeRoot = "."
	}
	return settings, nil
}

// FragmentDir returns the absolute-ish fragment directory.
func (s Settings) FragmentDir() string {
	return filepath.Join(s.TreeRoot, s.ConfigDir)
}

// MagiskDest returns where the payload apk is written.
func (s Settings) MagiskDest() string {
	return filepath.Join(s.TreeRoot, s.Magisk.Dest)
}

// RecordPath returns the build record location.
func (s Settings) RecordPath() string {
	return filepath.Join(s.TreeRoot, s.RecordFile)
}
