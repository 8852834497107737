package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecADB shells out to the adb device bridge.
type ExecADB struct{}

const adbTool = "adb"

func (a *ExecADB) Available() error {
	return requireTool(adbTool)
}

// WaitForDevice blocks until a device responds in normal mode. adb itself
// polls indefinitely; cancellation comes from the context.
func (a *ExecADB) WaitForDevice(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, adbTool, "wait-for-device")
	if _, err := run(cmd); err != nil {
		return fmt.Errorf("wait for device: %w", err)
	}
	return nil
}

func (a *ExecADB) RebootDownload(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, adbTool, "reboot", "download")
	if _, err := run(cmd); err != nil {
		return fmt.Errorf("reboot to download mode: %w", err)
	}
	return nil
}

func (a *ExecADB) KernelVersion(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, adbTool, "shell", "uname", "-r")
	output, err := run(cmd)
	if err != nil {
		return "", fmt.Errorf("query kernel version: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}
