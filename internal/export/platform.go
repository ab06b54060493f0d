package export

import (
	"encoding/base64"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	fileutil "deskmate/internal/file"
)

// Platform is the capability surface the hosting shell must answer: whether
// the process runs inside a wrapped native shell, plus the native save,
// share and browser hooks used on that path.
type Platform interface {
	IsNative() bool
	// SaveDocument persists a base64-encoded payload to the app document
	// area and returns a locator usable by Share.
	SaveDocument(name, base64Data string) (string, error)
	Share(title, text, uri string) error
	// OpenBrowser opens the URL outside the embedded view.
	OpenBrowser(url string) error
	// Navigate is the last-resort plain same-window navigation.
	Navigate(url string) error
}

// LocalPlatform is the default host: a plain browser context unless Native
// is set, with the document area on the local filesystem. Share and browser
// hooks only log, since a headless host has no share sheet to raise.
type LocalPlatform struct {
	Native       bool
	DocumentsDir string
}

func (p *LocalPlatform) IsNative() bool { return p.Native }

func (p *LocalPlatform) SaveDocument(name, base64Data string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}
	dir := p.DocumentsDir
	if dir == "" {
		dir = "data/documents"
	}
	path := filepath.Join(dir, name)
	if err := fileutil.WriteBytesAtomic(path, data); err != nil {
		return "", fmt.Errorf("save document: %w", err)
	}
	return path, nil
}

func (p *LocalPlatform) Share(title, text, uri string) error {
	log.Info().Str("title", title).Str("text", text).Str("uri", uri).Msg("share requested")
	return nil
}

func (p *LocalPlatform) OpenBrowser(url string) error {
	log.Info().Str("url", url).Msg("open in system browser requested")
	return nil
}

func (p *LocalPlatform) Navigate(url string) error {
	log.Info().Str("url", url).Msg("same-window navigation requested")
	return nil
}
