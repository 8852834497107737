package tools

import (
	"context"
	"fmt"
	"os/exec"
)

// ExecBootImager shells out to the mkbootimg packaging tool.
type ExecBootImager struct {
	// Tool is the mkbootimg executable name or path.
	Tool string

	// Dir is the working directory; metadata paths are relative to it.
	Dir string
}

func (b *ExecBootImager) tool() string {
	if b.Tool != "" {
		return b.Tool
	}
	return "mkbootimg"
}

func (b *ExecBootImager) Available() error {
	return requireTool(b.tool())
}

func (b *ExecBootImager) Make(ctx context.Context, args []string, output string) error {
	full := append(append([]string(nil), args...), "--output", output)
	cmd := exec.CommandContext(ctx, b.tool(), full...)
	cmd.Dir = b.Dir
	if _, err := run(cmd); err != nil {
		return fmt.Errorf("package boot image: %w", err)
	}
	return nil
}
