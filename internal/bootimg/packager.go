package bootimg

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/titankernel/titan-build/internal/request"
	"github.com/titankernel/titan-build/internal/state"
	"github.com/titankernel/titan-build/internal/tools"
)

// ErrMissingInput reports an input file referenced by the metadata that does
// not exist on disk.
var ErrMissingInput = errors.New("missing boot image input file")

// lz4Command compresses src to dst. Seam for tests.
var lz4Command = func(ctx context.Context, src, dst string) error {
	output, err := exec.CommandContext(ctx, "lz4", "-f", src, dst).CombinedOutput()
	if err != nil {
		return fmt.Errorf("lz4 %s: %w (output: %s)", src, err, string(output))
	}
	return nil
}

// haveLz4 reports whether the optional lz4 compressor is installed.
var haveLz4 = func() bool {
	_, err := exec.LookPath("lz4")
	return err == nil
}

// Packager runs the mkimg stage: it validates the metadata file the model
// pointer designates, drives mkbootimg, and wraps the result into an
// Odin-flashable tar.
type Packager struct {
	Imager tools.BootImager
	Store  *state.Store

	// Root is the kernel tree root; relative metadata paths resolve
	// against it and outputs are written into it.
	Root string

	// Image is the boot image filename, fixed and caller-visible.
	Image string

	// Archive is the Odin tar filename.
	Archive string

	Logger *slog.Logger
}

// ImagePath returns the location of the produced boot image.
func (p *Packager) ImagePath() string {
	return filepath.Join(p.Root, p.Image)
}

// ArchivePath returns the location of the produced Odin archive.
func (p *Packager) ArchivePath() string {
	return filepath.Join(p.Root, p.Archive)
}

func (p *Packager) Run(ctx context.Context, req *request.Request) error {
	if err := p.Imager.Available(); err != nil {
		return err
	}

	pointer := p.Store.PointerPath()
	if _, err := os.Lstat(pointer); err != nil {
		return fmt.Errorf("%w: %s (run the config stage with model=<model> first)",
			ErrMissingInput, state.PointerName)
	}
	args, err := ParseArgsFile(pointer)
	if err != nil {
		return err
	}

	for _, input := range args.InputFiles() {
		path := input
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.Root, path)
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingInput, input)
		}
	}

	// The explicit patch level replaces only the os_patch_level line;
	// every other metadata value passes through verbatim.
	if req.PatchLevel != "" {
		args.Set(PatchLevelKey, req.PatchLevel)
	}

	p.Logger.Info("packaging boot image", "output", p.Image)
	if err := p.Imager.Make(ctx, args.CommandLine(), p.Image); err != nil {
		return err
	}
	return p.archive(ctx)
}

// archive wraps the boot image into a tar for Odin. When the external lz4
// tool is present the image is compressed first, matching what stock
// firmware packages carry.
func (p *Packager) archive(ctx context.Context) error {
	member := p.ImagePath()
	if haveLz4() {
		compressed := member + ".lz4"
		if err := lz4Command(ctx, member, compressed); err != nil {
			return err
		}
		member = compressed
	} else {
		p.Logger.Warn("lz4 not installed, archiving uncompressed image")
	}

	if err := tarSingle(p.ArchivePath(), member); err != nil {
		return fmt.Errorf("write flashable archive: %w", err)
	}
	p.Logger.Info("flashable archive ready", "archive", p.Archive)
	return nil
}

func tarSingle(archivePath, memberPath string) error {
	info, err := os.Stat(memberPath)
	if err != nil {
		return err
	}
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	writer := tar.NewWriter(out)
	header := &tar.Header{
		Name: filepath.Base(memberPath),
		Mode: 0o644,
		Size: info.Size(),
	}
	if err := writer.WriteHeader(header); err != nil {
		return err
	}
	in, err := os.Open(memberPath)
	if err != nil {
		return err
	}
	defer in.Close()
	if _, err := io.Copy(writer, in); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return out.Close()
}
