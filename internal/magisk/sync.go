// Package magisk synchronizes the Magisk payload that gets embedded into the
// kernel's initramfs when the magisk fragment is enabled.
package magisk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
)

// ErrSyncFailed reports that the payload could not be brought up to date.
// The config stage aborts before any merge when this happens.
var ErrSyncFailed = errors.New("magisk payload sync failed")

// Syncer downloads or updates the payload for the requested channel and
// reports the resulting version string.
type Syncer interface {
	Sync(ctx context.Context, canary bool) (version string, err error)
}

// channelInfo mirrors the relevant part of the Magisk update channel JSON.
type channelInfo struct {
	Magisk struct {
		Version string `json:"version"`
		Link    string `json:"link"`
	} `json:"magisk"`
}

// HTTPSyncer fetches the channel manifest and payload over HTTP.
type HTTPSyncer struct {
	// StableURL and CanaryURL point at the channel manifest JSON files.
	StableURL string
	CanaryURL string

	// Dest is where the payload apk is written.
	Dest string

	// Client defaults to http.DefaultClient.
	Client *http.Client

	Logger *slog.Logger
}

func (s *HTTPSyncer) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

func (s *HTTPSyncer) Sync(ctx context.Context, canary bool) (string, error) {
	url := s.StableURL
	channel := "stable"
	if canary {
		url = s.CanaryURL
		channel = "canary"
	}

	info, err := s.fetchChannel(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	if s.Logger != nil {
		s.Logger.Info("syncing magisk payload", "channel", channel, "version", info.Magisk.Version)
	}
	if err := s.download(ctx, info.Magisk.Link); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	return info.Magisk.Version, nil
}

func (s *HTTPSyncer) fetchChannel(ctx context.Context, url string) (*channelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected HTTP status %d for %s", resp.StatusCode, url)
	}

	var info channelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode channel manifest: %w", err)
	}
	if info.Magisk.Version == "" || info.Magisk.Link == "" {
		return nil, fmt.Errorf("channel manifest %s is missing version or link", url)
	}
	return &info, nil
}

func (s *HTTPSyncer) download(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status %d for %s", resp.StatusCode, url)
	}

	if err := os.MkdirAll(filepath.Dir(s.Dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(s.Dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
