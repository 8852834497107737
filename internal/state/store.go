// Package state manages the two pieces of on-disk state shared across
// titan-build invocations: the model pointer and the build record.
//
// The model pointer is a symlink named "mkbootimg.args" inside the kernel
// tree, pointing at the per-model metadata file (for example
// "mkbootimg.G973F.args"). Reading the link recovers the last-used model;
// writing it records a new one. There is no locking: concurrent invocations
// against the same tree race on this state.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/titankernel/titan-build/internal/device"
)

// PointerName is the symlink acting as the cross-invocation model pointer.
const PointerName = "mkbootimg.args"

// Store accesses the persisted state rooted in a kernel tree.
type Store struct {
	root string
}

// NewStore returns a Store over the given kernel tree root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// PointerPath returns the path of the model pointer symlink.
func (s *Store) PointerPath() string {
	return filepath.Join(s.root, PointerName)
}

// ArgsFile returns the path of the given model's metadata file.
func (s *Store) ArgsFile(m device.Model) string {
	return filepath.Join(s.root, m.ArgsFile())
}

// ModelPointer recovers the last-used model from the pointer symlink. The
// second return is false when no pointer exists.
func (s *Store) ModelPointer() (device.Model, bool, error) {
	target, err := os.Readlink(s.PointerPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read model pointer: %w", err)
	}

	name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(target), "mkbootimg."), ".args")
	model, ok := device.Lookup(name)
	if !ok {
		return "", false, fmt.Errorf("model pointer targets unknown metadata file %q", target)
	}
	return model, true, nil
}

// SetModelPointer points the pointer symlink at the model's metadata file,
// replacing any previous pointer.
func (s *Store) SetModelPointer(m device.Model) error {
	path := s.PointerPath()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace model pointer: %w", err)
	}
	if err := os.Symlink(m.ArgsFile(), path); err != nil {
		return fmt.Errorf("write model pointer: %w", err)
	}
	return nil
}
