package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vbonduro/spaceaccess/internal/domain"
	"github.com/vbonduro/spaceaccess/internal/export"
)

// partialPattern names in-flight snapshots. Keys never start with a dot, so
// a partial file is unreachable through Get.
const partialPattern = ".partial-*"

// LocalExportStore keeps export snapshots as flat files in one directory.
// A snapshot becomes visible under its key only once fully written.
type LocalExportStore struct {
	dir string
	now func() time.Time
}

func NewLocalExportStore(dir string) (*LocalExportStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &LocalExportStore{dir: dir, now: time.Now}, nil
}

// Save streams r into a new snapshot named prefix_<unix nanos><ext>. An
// existing snapshot with the same key is never replaced.
func (s *LocalExportStore) Save(ctx context.Context, prefix string, format export.Format, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := prefix + "_" + fmt.Sprint(s.now().UnixNano()) + format.Ext()
	if err := checkKey(key); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, partialPattern)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer removeQuietly(tmp.Name())

	_, err = io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write export %s: %w", key, err)
	}

	// Link fails with fs.ErrExist instead of clobbering a concurrent save.
	if err := os.Link(tmp.Name(), filepath.Join(s.dir, key)); err != nil {
		return "", fmt.Errorf("failed to publish export %s: %w", key, err)
	}
	return key, nil
}

// Get opens the snapshot and reports its content type.
func (s *LocalExportStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", notFoundOr(key, "open", err)
	}
	return f, contentType(key), nil
}

func (s *LocalExportStore) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return notFoundOr(key, "delete", err)
	}
	return nil
}

func (s *LocalExportStore) path(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, key), nil
}

// checkKey admits plain file names only: no separators, no parent
// references and no hidden names.
func checkKey(key string) error {
	if !filepath.IsLocal(key) || filepath.Base(key) != key || strings.HasPrefix(key, ".") {
		return &domain.ValidationError{Field: "key", Message: "must not leave the export directory"}
	}
	return nil
}

func notFoundOr(key, op string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &domain.NotFoundError{Entity: "export", ID: key}
	}
	return fmt.Errorf("failed to %s export %s: %w", op, key, err)
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to remove partial export", "path", path, "error", err)
	}
}

var formats = []export.Format{export.FormatCSV, export.FormatPDF}

func contentType(key string) string {
	ext := strings.ToLower(filepath.Ext(key))
	for _, f := range formats {
		if f.Ext() == ext {
			return f.ContentType()
		}
	}
	return "application/octet-stream"
}
