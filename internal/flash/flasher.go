// Package flash drives a connected device through the download-mode
// transition and flashes the packaged boot image.
package flash

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/titankernel/titan-build/internal/request"
	"github.com/titankernel/titan-build/internal/tools"
)

// State of the flashing state machine.
type State int

const (
	StateUnknown State = iota
	StateNormal
	StateDownload
	StateFlashing
	StateVerified
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal-mode"
	case StateDownload:
		return "download-mode"
	case StateFlashing:
		return "flashing"
	case StateVerified:
		return "verified"
	default:
		return "unknown"
	}
}

const defaultPollInterval = 2 * time.Second

// Flasher flashes the boot image onto whatever device is connected. Device
// waits have no timeout: the only way out is cancelling the context, which
// the CLI wires to process interruption.
type Flasher struct {
	Heimdall tools.Heimdall
	ADB      tools.ADB

	// Image is the boot image path to flash.
	Image string

	// PollInterval paces the download-mode probes. Defaults to 2s.
	PollInterval time.Duration

	// Out receives the verified kernel version line. Defaults to stdout.
	Out io.Writer

	Logger *slog.Logger

	state State
}

// CurrentState exposes the machine state for observation.
func (f *Flasher) CurrentState() State {
	return f.state
}

func (f *Flasher) pollInterval() time.Duration {
	if f.PollInterval > 0 {
		return f.PollInterval
	}
	return defaultPollInterval
}

func (f *Flasher) out() io.Writer {
	if f.Out != nil {
		return f.Out
	}
	return os.Stdout
}

// Run executes the full flash sequence for req's pipeline. Both external
// tools must be installed before the state machine starts.
func (f *Flasher) Run(ctx context.Context, _ *request.Request) error {
	if err := f.Heimdall.Available(); err != nil {
		return err
	}
	if err := f.ADB.Available(); err != nil {
		return err
	}

	f.state = StateUnknown
	if err := f.enterDownloadMode(ctx); err != nil {
		return err
	}

	f.transition(StateFlashing)
	if err := f.Heimdall.FlashBoot(ctx, f.Image); err != nil {
		return err
	}

	f.Logger.Info("waiting for device to boot the new kernel")
	if err := f.ADB.WaitForDevice(ctx); err != nil {
		return err
	}
	version, err := f.ADB.KernelVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(f.out(), "Running kernel: %s\n", version)
	f.transition(StateVerified)
	return nil
}

// enterDownloadMode gets the device into download mode, rebooting it from
// normal mode when necessary.
func (f *Flasher) enterDownloadMode(ctx context.Context) error {
	if f.Heimdall.Detect(ctx) {
		f.transition(StateDownload)
		return nil
	}

	f.Logger.Info("no device in download mode, waiting for normal mode")
	if err := f.ADB.WaitForDevice(ctx); err != nil {
		return err
	}
	f.transition(StateNormal)

	if err := f.ADB.RebootDownload(ctx); err != nil {
		return err
	}

	f.Logger.Info("waiting for download mode")
	for !f.Heimdall.Detect(ctx) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.pollInterval()):
		}
	}
	f.transition(StateDownload)
	return nil
}

func (f *Flasher) transition(next State) {
	f.Logger.Debug("flasher state transition", "from", f.state.String(), "to", next.String())
	f.state = next
}
