// Package kconfig materializes the kernel configuration for a build request:
// it computes the fragment merge order, issues the merge, and applies the
// post-merge name and model overrides.
package kconfig

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/titankernel/titan-build/internal/bootimg"
	"github.com/titankernel/titan-build/internal/fragment"
	"github.com/titankernel/titan-build/internal/magisk"
	"github.com/titankernel/titan-build/internal/request"
	"github.com/titankernel/titan-build/internal/state"
	"github.com/titankernel/titan-build/internal/tools"
)

// localVersionSymbol carries the kernel name override.
const localVersionSymbol = "CONFIG_LOCALVERSION"

// Materializer runs the config stage.
type Materializer struct {
	Kernel tools.Kernel
	Magisk magisk.Syncer
	Store  *state.Store

	// RecordPath is where the build record is (re)created.
	RecordPath string

	// Out receives the console half of the build record. Defaults to
	// os.Stdout.
	Out io.Writer

	Logger *slog.Logger

	// Now is a seam for record timestamps; defaults to time.Now.
	Now func() time.Time
}

func (m *Materializer) out() io.Writer {
	if m.Out != nil {
		return m.Out
	}
	return os.Stdout
}

func (m *Materializer) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Run materializes the configuration described by req. The magisk payload is
// synchronized before anything touches the build tree, so a sync failure
// leaves the previous configuration intact.
func (m *Materializer) Run(ctx context.Context, req *request.Request) error {
	if !req.HasModel {
		return request.ErrMissingModel
	}

	magiskVersion := ""
	if frag, ok := req.Fragments.Get(fragment.MagiskName); ok && frag.Enabled {
		version, err := m.Magisk.Sync(ctx, frag.Canary)
		if err != nil {
			return err
		}
		magiskVersion = version
	}

	merge := []string{req.Model.Defconfig(), req.Fragments.BasePath()}
	for _, frag := range req.Fragments.Enabled() {
		merge = append(merge, frag.Path)
	}
	m.Logger.Info("merging configuration fragments", "count", len(merge), "model", string(req.Model))
	if err := m.Kernel.MergeConfig(ctx, merge); err != nil {
		return err
	}

	if req.Name != "" {
		if err := m.Kernel.SetString(ctx, localVersionSymbol, "-"+req.Name); err != nil {
			return err
		}
	}
	if err := m.Kernel.Enable(ctx, req.Model.ConfigFlag()); err != nil {
		return err
	}

	return m.writeRecord(req, magiskVersion)
}

// writeRecord emits the build summary, teeing every line to the console and
// the record file in the same order.
func (m *Materializer) writeRecord(req *request.Request, magiskVersion string) error {
	record, err := state.CreateRecord(m.RecordPath, m.out())
	if err != nil {
		return err
	}
	defer record.Close()

	record.Printf("Build date: %s", m.now().UTC().Format("2006-01-02 15:04:05 MST"))
	name := req.Name
	if name == "" {
		name = "(tree default)"
	}
	record.Printf("Name: %s", name)
	record.Printf("Model: %s", req.Model)
	if magiskVersion != "" {
		record.Printf("Magisk: %s", magiskVersion)
	}
	for _, frag := range req.Fragments.Enabled() {
		record.Printf("Config %s: on (default %s)", frag.Name, onOff(frag.DefaultEnabled))
	}
	record.Printf("OS patch level: %s", m.resolvePatchLevel(req))
	return nil
}

// resolvePatchLevel prefers the explicit request value and otherwise reads
// the model's metadata file for visibility. The metadata file itself is
// never modified here.
func (m *Materializer) resolvePatchLevel(req *request.Request) string {
	if req.PatchLevel != "" {
		return req.PatchLevel
	}
	args, err := bootimg.ParseArgsFile(m.Store.ArgsFile(req.Model))
	if err != nil {
		m.Logger.Warn("cannot read boot image metadata for patch level", "error", err)
		return "unknown"
	}
	level, ok := args.Get(bootimg.PatchLevelKey)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s (from %s)", level, req.Model.ArgsFile())
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
