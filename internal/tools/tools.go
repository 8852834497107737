// Package tools defines the narrow interfaces titan-build needs from the
// external toolchain (kernel make system, mkbootimg, heimdall, adb) together
// with exec-backed implementations. The rest of the code depends only on the
// interfaces so the pipeline can be exercised with fakes.
package tools

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotFound reports that a required external tool is not installed.
var ErrNotFound = errors.New("required tool not found")

// Kernel drives the kernel tree's own build machinery.
type Kernel interface {
	// MergeConfig merges the given fragment files, in order, into the
	// tree's active configuration. Later files win on conflicting keys.
	MergeConfig(ctx context.Context, fragments []string) error

	// SetString sets a string-valued config symbol on the merged
	// configuration.
	SetString(ctx context.Context, symbol, value string) error

	// Enable switches a boolean config symbol on.
	Enable(ctx context.Context, symbol string) error

	// Build compiles the kernel image with the given parallelism.
	Build(ctx context.Context, jobs int) error
}

// BootImager assembles a flashable boot image from a kernel binary plus
// metadata arguments.
type BootImager interface {
	Available() error
	Make(ctx context.Context, args []string, output string) error
}

// Heimdall talks the Samsung download-mode protocol.
type Heimdall interface {
	Available() error

	// Detect reports whether a device currently responds in download mode.
	Detect(ctx context.Context) bool

	// FlashBoot writes the boot image to the BOOT partition and reboots
	// the device.
	FlashBoot(ctx context.Context, image string) error
}

// ADB talks to a device booted into the normal operating system.
type ADB interface {
	Available() error

	// WaitForDevice blocks until a device responds in normal mode.
	WaitForDevice(ctx context.Context) error

	// RebootDownload asks the running system to reboot into download mode.
	RebootDownload(ctx context.Context) error

	// KernelVersion returns the running kernel's release string.
	KernelVersion(ctx context.Context) (string, error)
}

// lookPath is a seam for tests.
var lookPath = exec.LookPath

func requireTool(name string) error {
	if _, err := lookPath(name); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// run executes a command and returns its combined output, wrapping failures
// with the command line and the output for diagnostics.
func run(cmd *exec.Cmd) ([]byte, error) {
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w (output: %s)",
			strings.Join(cmd.Args, " "), err, strings.TrimSpace(string(output)))
	}
	return output, nil
}
