package storage

import (
	"context"
	"io"
)

// ObjectStore abstracts the blob backend that hosts listing artifacts
// (cover images, promo videos, downloadable builds). The core services only
// ever store the returned URL; no file bytes flow through them.
type ObjectStore interface {
	Upload(ctx context.Context, folder, name string, r io.Reader) (string, error)
}
