package fragment

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFragments(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("# test fragment\n"), 0o644); err != nil {
			t.Fatalf("write fragment %s: %v", name, err)
		}
	}
	return dir
}

func TestDiscoverClassifiesByFilename(t *testing.T) {
	t.Parallel()

	dir := writeFragments(t,
		"titan.conf",        // baseline, not a toggle
		"titan+magisk.conf", // default on
		"titan-wireguard.conf",
		"titan+bfq.conf",
		"notes.txt",         // ignored
		"other+thing.conf",  // wrong prefix, ignored
		"titan+.conf",       // empty name, ignored
	)

	set, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if got, want := set.Names(), []string{"bfq", "magisk", "wireguard"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}

	magisk, ok := set.Get("magisk")
	if !ok {
		t.Fatal("Get(magisk) ok = false, want true")
	}
	if !magisk.DefaultEnabled || !magisk.Enabled {
		t.Fatalf("magisk default/current = %t/%t, want true/true", magisk.DefaultEnabled, magisk.Enabled)
	}

	wireguard, _ := set.Get("wireguard")
	if wireguard.DefaultEnabled || wireguard.Enabled {
		t.Fatalf("wireguard default/current = %t/%t, want false/false", wireguard.DefaultEnabled, wireguard.Enabled)
	}

	if got, want := set.BasePath(), filepath.Join(dir, "titan.conf"); got != want {
		t.Fatalf("BasePath() = %q, want %q", got, want)
	}
}

func TestDiscoverRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	dir := writeFragments(t, "titan+ttl.conf", "titan-ttl.conf")
	if _, err := Discover(dir); err == nil {
		t.Fatal("Discover() error = nil, want duplicate-name error")
	}
}

func TestDiscoverMissingDirectory(t *testing.T) {
	t.Parallel()

	if _, err := Discover(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("Discover() error = nil, want error")
	}
}

func TestEnabledAndChangedAreNameSorted(t *testing.T) {
	t.Parallel()

	dir := writeFragments(t, "titan-wireguard.conf", "titan-cifs.conf", "titan-bfq.conf")
	set, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	// Toggle in reverse order; output order must not depend on it.
	for _, name := range []string{"cifs", "bfq"} {
		f, _ := set.Get(name)
		f.Enabled = true
	}

	var names []string
	for _, f := range set.Enabled() {
		names = append(names, f.Name)
	}
	if want := []string{"bfq", "cifs"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("Enabled() = %v, want %v", names, want)
	}

	names = names[:0]
	for _, f := range set.Changed() {
		names = append(names, f.Name)
	}
	if want := []string{"bfq", "cifs"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("Changed() = %v, want %v", names, want)
	}
}
