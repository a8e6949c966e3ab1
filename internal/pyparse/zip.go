package pyparse

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/docforgehq/docforge/internal/model"
)

// excludedDirs are directory names skipped during archive extraction.
var excludedDirs = map[string]bool{
	"venv":         true,
	"__pycache__":  true,
	"tests":        true,
	"node_modules": true,
}

// maxEntrySize caps how much of a single archive entry is read, guarding
// against decompression bombs.
const maxEntrySize = 8 << 20

// ParsedFile is one Python file recovered from an archive, with its
// extracted symbol inventory.
type ParsedFile struct {
	Filename  string
	Functions []model.Symbol
	Classes   []model.ClassSymbol
}

// ExtractZip parses every .py file in the archive, preserving relative
// paths with forward slashes. Files under venv, __pycache__, tests, or
// node_modules directories are skipped. Unparseable files are skipped
// rather than failing the whole upload.
func (p *Parser) ExtractZip(data []byte) ([]ParsedFile, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip archive: %w", err)
	}

	var files []ParsedFile
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		name := path.Clean(strings.ReplaceAll(entry.Name, "\\", "/"))
		if !strings.HasSuffix(name, ".py") || inExcludedDir(name) {
			continue
		}

		source, err := readEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		functions, classes, err := p.ParseSource(source)
		if err != nil {
			continue
		}
		files = append(files, ParsedFile{
			Filename:  name,
			Functions: functions,
			Classes:   classes,
		})
	}
	return files, nil
}

func inExcludedDir(name string) bool {
	parts := strings.Split(name, "/")
	for _, part := range parts[:len(parts)-1] {
		if excludedDirs[part] {
			return true
		}
	}
	return false
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxEntrySize))
}
