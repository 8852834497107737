package magisk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newChannelServer(t *testing.T, version string, payload []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/stable.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"magisk":{"version":"` + version + `","link":"` + server.URL + `/magisk.apk"}}`))
	})
	mux.HandleFunc("/magisk.apk", func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})
	return server
}

func TestSyncDownloadsPayloadAndReportsVersion(t *testing.T) {
	t.Parallel()

	server := newChannelServer(t, "26.4", []byte("apk-bytes"))
	dest := filepath.Join(t.TempDir(), "usr", "magisk", "magisk.apk")

	syncer := &HTTPSyncer{
		StableURL: server.URL + "/stable.json",
		CanaryURL: server.URL + "/missing.json",
		Dest:      dest,
	}

	version, err := syncer.Sync(context.Background(), false)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if version != "26.4" {
		t.Fatalf("Sync() version = %q, want 26.4", version)
	}

	payload, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read payload: %v", err)
	}
	if string(payload) != "apk-bytes" {
		t.Fatalf("payload = %q, want apk-bytes", payload)
	}
}

func TestSyncCanaryChannelSelection(t *testing.T) {
	t.Parallel()

	server := newChannelServer(t, "27.0", []byte("canary"))
	syncer := &HTTPSyncer{
		// Channels swapped: only the canary URL resolves.
		StableURL: server.URL + "/missing.json",
		CanaryURL: server.URL + "/stable.json",
		Dest:      filepath.Join(t.TempDir(), "magisk.apk"),
	}

	if _, err := syncer.Sync(context.Background(), false); !errors.Is(err, ErrSyncFailed) {
		t.Fatalf("Sync(stable) error = %v, want ErrSyncFailed", err)
	}
	version, err := syncer.Sync(context.Background(), true)
	if err != nil {
		t.Fatalf("Sync(canary) error = %v", err)
	}
	if version != "27.0" {
		t.Fatalf("Sync(canary) version = %q, want 27.0", version)
	}
}

func TestSyncFailsOnMalformedManifest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"magisk":{}}`))
	}))
	t.Cleanup(server.Close)

	syncer := &HTTPSyncer{
		StableURL: server.URL,
		Dest:      filepath.Join(t.TempDir(), "magisk.apk"),
	}
	if _, err := syncer.Sync(context.Background(), false); !errors.Is(err, ErrSyncFailed) {
		t.Fatalf("Sync() error = %v, want ErrSyncFailed", err)
	}
}
