package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const bundleDirPerm os.FileMode = 0o750

// Input names one file to place into the bundle. Name is the entry name
// inside the zip; Path points at the staged file on disk.
type Input struct {
	Name string
	Path string
}

// Result describes the outcome for a single input. A failed input leaves
// its Err set and the entry is omitted from the archive.
type Result struct {
	Filename string
	Err      string
}

// BundleFiles writes the inputs into a zip at destZipPath. It always
// returns a results slice of the same length as inputs; onProgress, when
// non-nil, is invoked after each entry with (done, total).
func BundleFiles(ctx context.Context, destZipPath string, inputs []Input, onProgress func(done, total int)) ([]Result, error) {
	if len(inputs) == 0 {
		return nil, errors.New("no inputs provided")
	}

	zipFile, err := createFile(destZipPath)
	if err != nil {
		return nil, err
	}
	zipWriter := zip.NewWriter(zipFile)
	defer func() { _ = zipWriter.Close() }()
	defer func() { _ = zipFile.Close() }()

	results := make([]Result, len(inputs))
	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			results[i].Filename = entryName(input, i)
			results[i].Err = err.Error()
			continue
		}
		results[i] = addEntry(zipWriter, input, i)
		if onProgress != nil {
			onProgress(i+1, len(inputs))
		}
	}

	if err := zipWriter.Close(); err != nil {
		log.Error().Err(err).Msg("closing zip writer failed")
		return results, fmt.Errorf("close zip writer: %w", err)
	}
	if err := zipFile.Close(); err != nil {
		log.Error().Err(err).Msg("closing zip file failed")
		return results, fmt.Errorf("close zip file: %w", err)
	}
	return results, nil
}

// addEntry copies a single staged file into the zip.
func addEntry(zipWriter *zip.Writer, input Input, index int) Result {
	result := Result{Filename: entryName(input, index)}

	inputFile, err := os.Open(input.Path) //nolint:gosec // staged under the app data dir
	if err != nil {
		result.Err = err.Error()
		log.Warn().Str("path", input.Path).Err(err).Msg("open input failed")
		return result
	}
	defer func() { _ = inputFile.Close() }()

	entryWriter, err := zipWriter.Create(result.Filename)
	if err != nil {
		result.Err = err.Error()
		log.Warn().Str("entry", result.Filename).Err(err).Msg("zip entry create failed")
		return result
	}
	if _, err := io.Copy(entryWriter, inputFile); err != nil {
		result.Err = err.Error()
		log.Warn().Str("entry", result.Filename).Err(err).Msg("copy into zip failed")
		return result
	}
	return result
}

// entryName picks the zip entry name, falling back to index-based naming.
func entryName(input Input, index int) string {
	if input.Name != "" {
		return input.Name
	}
	base := filepath.Base(input.Path)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return fmt.Sprintf("file-%d", index+1)
	}
	return base
}

// createFile creates or truncates the destination, ensuring the parent dir.
func createFile(destinationPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(destinationPath), bundleDirPerm); err != nil { //nolint:gosec // directory created by application under controlled path
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	outputFile, err := os.Create(destinationPath) //nolint:gosec // path is constructed by the application
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	return outputFile, nil
}
