// Package store provides blob storage for staged page images and template files.
//
// The store is a single flat namespace (one bucket) of opaque string keys.
// "Folders" are only a key-prefix convention: staged pages for a document live
// under "{documentName}/" and are removed as a group with DeletePrefix once
// extraction has finished.
//
// Required Environment Variables (GCS backend):
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GCS_BUCKET: Bucket holding templates and staged pages
package store

import "context"

// BlobStore defines the object store operations the tool depends on.
//
// All operations are synchronous point reads/writes. There is no built-in
// retry; callers decide whether to re-trigger a failed operation.
type BlobStore interface {
	// Put writes data at key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the object at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// ListPrefix returns all keys beginning with prefix, sorted.
	ListPrefix(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the object at key, or returns ErrNotFound.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every object under prefix, then the prefix
	// marker object itself if the store holds one.
	DeletePrefix(ctx context.Context, prefix string) error
}
