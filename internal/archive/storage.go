package archive

import (
	"context"
	"io"
)

// StorageDriver writes archived final reports to durable storage. Reports
// are small JSON documents written once per terminal workflow, so the
// contract carries only the write path; re-archiving the same workflow
// overwrites the previous document.
type StorageDriver interface {
	Save(ctx context.Context, key string, body io.Reader, contentType string) error
}
