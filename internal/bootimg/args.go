// Package bootimg packages the compiled kernel into a flashable boot image
// by driving the external mkbootimg tool with per-model metadata.
package bootimg

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// PatchLevelKey is the metadata key carrying the Android OS patch level.
const PatchLevelKey = "os_patch_level"

// inputKeys are the metadata keys whose values reference input files that
// must exist before mkbootimg runs.
var inputKeys = map[string]bool{
	"kernel":  true,
	"ramdisk": true,
	"dtb":     true,
	"dt":      true,
	"second":  true,
}

type pair struct {
	key   string
	value string
}

// Args is the ordered contents of a mkbootimg metadata file. The on-disk
// format is one "key=value" per line; blank lines and '#' comments are
// ignored. Order is preserved so the tool sees arguments as authored.
type Args struct {
	pairs []pair
}

// ParseArgsFile reads and parses a metadata file.
func ParseArgsFile(path string) (*Args, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open boot image metadata: %w", err)
	}
	defer file.Close()

	args := &Args{}
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("metadata %s:%d: malformed line %q", path, lineNo, line)
		}
		args.pairs = append(args.pairs, pair{
			key:   strings.TrimSpace(key),
			value: strings.TrimSpace(value),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read boot image metadata: %w", err)
	}
	return args, nil
}

// Get returns the value of the first occurrence of key.
func (a *Args) Get(key string) (string, bool) {
	for _, p := range a.pairs {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// Set replaces the value of key, appending the pair if absent.
func (a *Args) Set(key, value string) {
	for i, p := range a.pairs {
		if p.key == key {
			a.pairs[i].value = value
			return
		}
	}
	a.pairs = append(a.pairs, pair{key: key, value: value})
}

// InputFiles returns the values of all keys referencing input files, in
// file order.
func (a *Args) InputFiles() []string {
	var files []string
	for _, p := range a.pairs {
		if inputKeys[p.key] && p.value != "" {
			files = append(files, p.value)
		}
	}
	return files
}

// CommandLine renders the metadata as mkbootimg flags, preserving order.
func (a *Args) CommandLine() []string {
	flags := make([]string, 0, len(a.pairs)*2)
	for _, p := range a.pairs {
		flags = append(flags, "--"+p.key, p.value)
	}
	return flags
}
