package state

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/titankernel/titan-build/internal/device"
)

func TestModelPointerRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	if _, ok, err := store.ModelPointer(); err != nil || ok {
		t.Fatalf("ModelPointer() on fresh tree = ok %t, err %v; want false, nil", ok, err)
	}

	model, _ := device.Lookup("G973F")
	if err := store.SetModelPointer(model); err != nil {
		t.Fatalf("SetModelPointer() error = %v", err)
	}

	got, ok, err := store.ModelPointer()
	if err != nil {
		t.Fatalf("ModelPointer() error = %v", err)
	}
	if !ok || got != model {
		t.Fatalf("ModelPointer() = %q, %t; want %q, true", got, ok, model)
	}

	// Repointing must replace the previous link.
	other, _ := device.Lookup("N975F")
	if err := store.SetModelPointer(other); err != nil {
		t.Fatalf("SetModelPointer() repoint error = %v", err)
	}
	got, _, err = store.ModelPointer()
	if err != nil {
		t.Fatalf("ModelPointer() after repoint error = %v", err)
	}
	if got != other {
		t.Fatalf("ModelPointer() after repoint = %q, want %q", got, other)
	}
}

func TestModelPointerUnknownTarget(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)
	if err := os.Symlink("mkbootimg.X000Z.args", store.PointerPath()); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if _, _, err := store.ModelPointer(); err == nil {
		t.Fatal("ModelPointer() error = nil, want unknown-model error")
	}
}

func TestRecordTeesToConsoleAndFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "build_info.txt")
	var console bytes.Buffer

	record, err := CreateRecord(path, &console)
	if err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}
	record.Printf("Name: %s", "Titan")
	record.Printf("Model: %s", "G973F")
	if err := record.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	persisted, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if console.String() != string(persisted) {
		t.Fatalf("record file differs from console output:\nfile: %q\nconsole: %q", persisted, console.String())
	}
	if !strings.Contains(string(persisted), "Model: G973F") {
		t.Fatalf("record missing model line: %q", persisted)
	}
}

func TestCreateRecordDiscardsPrevious(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "build_info.txt")
	if err := os.WriteFile(path, []byte("stale contents\n"), 0o644); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	record, err := CreateRecord(path, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}
	record.Printf("fresh")
	record.Close()

	persisted, _ := os.ReadFile(path)
	if strings.Contains(string(persisted), "stale") {
		t.Fatalf("record retained stale contents: %q", persisted)
	}
}
