package export

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	native      bool
	saveErr     error
	shareErr    error
	openErr     error
	savedName   string
	savedData   []byte
	sharedURI   string
	openedURL   string
	navigateURL string
}

func (f *fakePlatform) IsNative() bool { return f.native }

func (f *fakePlatform) SaveDocument(name, base64Data string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	data, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return "", err
	}
	f.savedName = name
	f.savedData = data
	return "documents://" + name, nil
}

func (f *fakePlatform) Share(title, text, uri string) error {
	if f.shareErr != nil {
		return f.shareErr
	}
	f.sharedURI = uri
	return nil
}

func (f *fakePlatform) OpenBrowser(url string) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.openedURL = url
	return nil
}

func (f *fakePlatform) Navigate(url string) error {
	f.navigateURL = url
	return nil
}

func newTestExporter(t *testing.T, p Platform) *Exporter {
	t.Helper()
	return NewExporter(p, Options{StageDir: t.TempDir(), RevokeDelay: time.Hour})
}

func TestBrowserContextStagesObject(t *testing.T) {
	p := &fakePlatform{}
	e := newTestExporter(t, p)

	url := e.Export(context.Background(), []byte("payload"), "out.zip")
	require.NotEmpty(t, url)
	assert.True(t, strings.HasPrefix(url, "/objects/"))
	assert.True(t, strings.HasSuffix(url, "/out.zip"))

	id := strings.Split(url, "/")[2]
	path, ok := e.StagedPath(id)
	require.True(t, ok)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))

	// browser context never touches native hooks
	assert.Empty(t, p.savedName)
	assert.Empty(t, p.sharedURI)
}

func TestNativeContextSavesAndShares(t *testing.T) {
	p := &fakePlatform{native: true}
	e := newTestExporter(t, p)

	uri := e.Export(context.Background(), []byte{0x01, 0x02}, "doc.pdf")
	assert.Equal(t, "documents://doc.pdf", uri)
	assert.Equal(t, "doc.pdf", p.savedName)
	assert.Equal(t, []byte{0x01, 0x02}, p.savedData, "payload survives the base64 transfer")
	assert.Equal(t, uri, p.sharedURI)
}

func TestNativeSaveFailureFallsBackToBrowser(t *testing.T) {
	p := &fakePlatform{native: true, saveErr: errors.New("disk full")}
	e := newTestExporter(t, p)

	url := e.Export(context.Background(), []byte("x"), "doc.pdf")
	require.NotEmpty(t, url)
	assert.Equal(t, url, p.openedURL, "payload opened outside the embedded view")
	assert.Empty(t, p.navigateURL)
}

func TestShareFailureFallsBackToBrowser(t *testing.T) {
	p := &fakePlatform{native: true, shareErr: errors.New("no share sheet")}
	e := newTestExporter(t, p)

	url := e.Export(context.Background(), []byte("x"), "doc.pdf")
	require.NotEmpty(t, url)
	assert.Equal(t, url, p.openedURL)
}

func TestOpenBrowserFailureNavigatesInPlace(t *testing.T) {
	p := &fakePlatform{native: true, saveErr: errors.New("nope"), openErr: errors.New("no browser")}
	e := newTestExporter(t, p)

	url := e.Export(context.Background(), []byte("x"), "doc.pdf")
	require.NotEmpty(t, url)
	assert.Equal(t, url, p.navigateURL)
}

func TestRevokeRemovesStagedObject(t *testing.T) {
	e := newTestExporter(t, &fakePlatform{})

	url := e.Export(context.Background(), []byte("payload"), "out.zip")
	id := strings.Split(url, "/")[2]
	path, ok := e.StagedPath(id)
	require.True(t, ok)

	e.Revoke(id)
	_, ok = e.StagedPath(id)
	assert.False(t, ok)
	_, err := os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(err), "backing directory removed")

	e.Revoke(id) // idempotent
}

func TestRevokeDelayIsBoundedNotImmediate(t *testing.T) {
	e := NewExporter(&fakePlatform{}, Options{StageDir: t.TempDir(), RevokeDelay: 20 * time.Millisecond})

	url := e.Export(context.Background(), []byte("payload"), "out.zip")
	id := strings.Split(url, "/")[2]

	// live right after export so the download can start
	_, ok := e.StagedPath(id)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := e.StagedPath(id)
		return !ok
	}, time.Second, 5*time.Millisecond)
}
