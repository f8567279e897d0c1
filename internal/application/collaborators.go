package application

import (
	"context"
	"io"
)

// Notifier delivers a message to a recipient. Fire-and-forget: a failure
// surfaces to the caller as a delivery error but never rolls back the state
// change that triggered the notification.
type Notifier interface {
	Send(ctx context.Context, recipientEmail, subject, body string) error
}

// BlobStore is opaque file storage addressed by path reference. Release
// errors are treated as non-fatal by callers; the database record stays
// authoritative and blobs are reclaimed best-effort.
type BlobStore interface {
	Store(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Release(ctx context.Context, pathRef string) error
}
