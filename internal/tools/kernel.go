package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
)

// ExecKernel implements Kernel against a kernel source tree on disk, using
// the tree's scripts/kconfig helpers and make.
type ExecKernel struct {
	// Root is the kernel tree root; all commands run from here.
	Root string

	// Env holds extra KEY=VALUE entries appended to the inherited
	// environment for every invocation (ARCH, ANDROID_MAJOR_VERSION).
	Env []string

	Logger *slog.Logger
}

const (
	mergeScript  = "scripts/kconfig/merge_config.sh"
	configScript = "scripts/config"
)

func (k *ExecKernel) MergeConfig(ctx context.Context, fragments []string) error {
	args := append([]string{"-m", "-O", k.Root}, fragments...)
	cmd := k.command(ctx, mergeScript, args...)
	if _, err := run(cmd); err != nil {
		return fmt.Errorf("merge config fragments: %w", err)
	}
	// Resolve the merged symbols against the full Kconfig universe.
	olddefconfig := k.command(ctx, "make", "olddefconfig")
	if _, err := run(olddefconfig); err != nil {
		return fmt.Errorf("finalize merged config: %w", err)
	}
	return nil
}

func (k *ExecKernel) SetString(ctx context.Context, symbol, value string) error {
	cmd := k.command(ctx, configScript, "--set-str", symbol, value)
	if _, err := run(cmd); err != nil {
		return fmt.Errorf("set %s: %w", symbol, err)
	}
	return nil
}

func (k *ExecKernel) Enable(ctx context.Context, symbol string) error {
	cmd := k.command(ctx, configScript, "--enable", symbol)
	if _, err := run(cmd); err != nil {
		return fmt.Errorf("enable %s: %w", symbol, err)
	}
	return nil
}

// Build runs make with the image output streaming to the caller's terminal.
func (k *ExecKernel) Build(ctx context.Context, jobs int) error {
	if jobs < 1 {
		jobs = 1
	}
	cmd := k.command(ctx, "make", "-j"+strconv.Itoa(jobs))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if k.Logger != nil {
		k.Logger.Info("invoking kernel build", "jobs", jobs, "dir", k.Root)
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("make -j%d: %w", jobs, err)
	}
	return nil
}

func (k *ExecKernel) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = k.Root
	cmd.Env = append(os.Environ(), k.Env...)
	return cmd
}
