package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// ExecHeimdall shells out to the heimdall flashing tool.
type ExecHeimdall struct {
	Logger *slog.Logger
}

const heimdallTool = "heimdall"

func (h *ExecHeimdall) Available() error {
	return requireTool(heimdallTool)
}

// Detect probes for a device in download mode. heimdall exits non-zero when
// no device responds, which is an expected state rather than a failure.
func (h *ExecHeimdall) Detect(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, heimdallTool, "detect")
	if err := cmd.Run(); err != nil {
		return false
	}
	return true
}

func (h *ExecHeimdall) FlashBoot(ctx context.Context, image string) error {
	cmd := exec.CommandContext(ctx, heimdallTool, "flash", "--BOOT", image)
	if h.Logger != nil {
		h.Logger.Info("flashing boot partition", "image", image)
	}
	if _, err := run(cmd); err != nil {
		return fmt.Errorf("flash boot partition: %w", err)
	}
	return nil
}
