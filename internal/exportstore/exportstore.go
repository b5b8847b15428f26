// Package exportstore keeps rendered export snapshots addressable by key.
package exportstore

import (
	"context"
	"io"

	"github.com/vbonduro/spaceaccess/internal/export"
)

type ExportStore interface {
	Save(ctx context.Context, prefix string, format export.Format, r io.Reader) (key string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}
