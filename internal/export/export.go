package export

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	fileutil "deskmate/internal/file"
)

const defaultRevokeDelay = 30 * time.Second

// Options configures an Exporter.
type Options struct {
	StageDir    string
	RevokeDelay time.Duration
}

// Exporter hands a binary payload to the user under a file name. In a plain
// browser context the payload is staged under a short-lived object URL; in
// a native context it is saved to the document area and offered to the
// share sheet, with a browser fallback chain when that fails. Outcome is
// signaled through logs only.
type Exporter struct {
	platform    Platform
	stageDir    string
	revokeDelay time.Duration

	mu     sync.Mutex
	staged map[string]string
}

// NewExporter creates an exporter over the given platform.
func NewExporter(platform Platform, opts Options) *Exporter {
	if opts.StageDir == "" {
		opts.StageDir = filepath.Join("data", "exports")
	}
	if opts.RevokeDelay <= 0 {
		opts.RevokeDelay = defaultRevokeDelay
	}
	return &Exporter{
		platform:    platform,
		stageDir:    opts.StageDir,
		revokeDelay: opts.RevokeDelay,
		staged:      make(map[string]string),
	}
}

// Export delivers the payload and returns the locator handed to the user:
// the staged object URL in a browser context, the saved document URI in a
// native context, or empty when every path failed. Callers do not gate
// further processing on the outcome.
func (e *Exporter) Export(ctx context.Context, data []byte, filename string) string {
	if !e.platform.IsNative() {
		url, err := e.stage(data, filename)
		if err != nil {
			log.Error().Str("file", filename).Err(err).Msg("staging download failed")
			return ""
		}
		log.Info().Str("file", filename).Str("url", url).Msg("download staged")
		return url
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	uri, err := e.platform.SaveDocument(filename, encoded)
	if err == nil {
		err = e.platform.Share(filename, "Exported from deskmate", uri)
		if err == nil {
			log.Info().Str("file", filename).Str("uri", uri).Msg("saved and shared")
			return uri
		}
	}
	log.Warn().Str("file", filename).Err(err).Msg("native save/share failed, falling back to browser")
	return e.browserFallback(ctx, data, filename)
}

// browserFallback stages the payload and opens it outside the embedded
// view; downloads must not be trapped inside the webview. A failed open
// falls back further to a plain same-window navigation.
func (e *Exporter) browserFallback(_ context.Context, data []byte, filename string) string {
	url, err := e.stage(data, filename)
	if err != nil {
		log.Error().Str("file", filename).Err(err).Msg("fallback staging failed")
		return ""
	}
	if err := e.platform.OpenBrowser(url); err != nil {
		log.Warn().Str("url", url).Err(err).Msg("system browser open failed, navigating in place")
		if err := e.platform.Navigate(url); err != nil {
			log.Error().Str("url", url).Err(err).Msg("navigation fallback failed")
		}
	}
	return url
}

// stage writes the payload under a fresh object id and schedules its
// revocation. The delay is bounded but not immediate so the download can
// start before the object disappears.
func (e *Exporter) stage(data []byte, filename string) (string, error) {
	id := uuid.NewString()
	path := filepath.Join(e.stageDir, id, filename)
	if err := fileutil.WriteBytesAtomic(path, data); err != nil {
		return "", err
	}

	e.mu.Lock()
	e.staged[id] = path
	e.mu.Unlock()

	time.AfterFunc(e.revokeDelay, func() { e.Revoke(id) })
	return "/objects/" + id + "/" + filename, nil
}

// StagedPath resolves an object id to its staged file, when still live.
func (e *Exporter) StagedPath(id string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	path, ok := e.staged[id]
	return path, ok
}

// Revoke removes a staged object and its backing file. Idempotent.
func (e *Exporter) Revoke(id string) {
	e.mu.Lock()
	path, ok := e.staged[id]
	delete(e.staged, id)
	e.mu.Unlock()
	if !ok {
		return
	}
	if err := os.RemoveAll(filepath.Dir(path)); err != nil {
		log.Warn().Str("object_id", id).Err(err).Msg("revoking staged object failed")
	}
}
