package avc

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/beetlebugorg/avc/internal/parser"
)

const zipScheme = "zip://"

// openFromZip opens a coverage stored in a zip archive.
// Format: zip:///path/to/file.zip!path/within/zip
//
// The entry may name an E00 file or an AVCBin coverage directory. Entries
// are extracted to a temporary workspace that Coverage.Close removes; a
// coverage directory needs its sibling info directory, so the entry's whole
// workspace directory is extracted.
func openFromZip(zipURL string, opts parser.OpenOptions) (*Coverage, error) {
	parts := strings.SplitN(strings.TrimPrefix(zipURL, zipScheme), "!", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid zip URL format: %s (expected zip://path!entry)", zipURL)
	}
	zipPath := parts[0]
	entry := strings.Trim(path.Clean(strings.ReplaceAll(parts[1], `\`, "/")), "/")

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	prefix := path.Dir(entry)
	if prefix == "." {
		prefix = ""
	} else {
		prefix += "/"
	}

	found := false
	for _, f := range r.File {
		name := strings.TrimSuffix(f.Name, "/")
		if strings.EqualFold(name, entry) || strings.HasPrefix(strings.ToLower(name), strings.ToLower(entry)+"/") {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("file not found in zip: %s", entry)
	}

	tmpDir, err := os.MkdirTemp("", "avc-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		if err := extractEntry(f, tmpDir); err != nil {
			os.RemoveAll(tmpDir)
			return nil, err
		}
	}

	local := filepath.Join(tmpDir, filepath.FromSlash(entry))
	pc, err := parser.Open(local, opts)
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, err
	}
	c := newCoverage(pc, zipURL, opts.Logger)
	c.cleanup = removeAll(tmpDir)
	return c, nil
}

func extractEntry(f *zip.File, dir string) error {
	target := filepath.Join(dir, filepath.FromSlash(f.Name))
	if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
		return fmt.Errorf("illegal path in zip: %s", f.Name)
	}
	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open zip entry: %w", err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Close()
}
