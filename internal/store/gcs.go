package store

import (
	"context"
	"errors"
	"io"
	"os"
	"sort"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStore implements BlobStore against a Google Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore creates a blob store with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	const op = "NewGCSStore"

	var clientOptions []option.ClientOption
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := gcs.NewClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapStoreError(op, "", ErrMissingCredentials)
		}
		return nil, WrapStoreError(op, "", err)
	}

	return &GCSStore{client: client, bucket: bucket}, nil
}

// NewGCSStoreWithClient creates a blob store with an explicit client (for testing).
func NewGCSStoreWithClient(client *gcs.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

// Put writes data at key, overwriting any existing object.
func (s *GCSStore) Put(ctx context.Context, key string, data []byte) error {
	const op = "Put"

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return WrapStoreError(op, key, s.mapError(err))
	}
	if err := w.Close(); err != nil {
		return WrapStoreError(op, key, s.mapError(err))
	}
	return nil
}

// Get returns the object at key.
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "Get"

	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, WrapStoreError(op, key, s.mapError(err))
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, WrapStoreError(op, key, s.mapError(err))
	}
	return data, nil
}

// ListPrefix returns all keys beginning with prefix, sorted.
func (s *GCSStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	const op = "ListPrefix"

	var keys []string
	it := s.client.Bucket(s.bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, WrapStoreError(op, prefix, s.mapError(err))
		}
		keys = append(keys, attrs.Name)
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes the object at key.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	const op = "Delete"

	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		return WrapStoreError(op, key, s.mapError(err))
	}
	return nil
}

// DeletePrefix removes every object under prefix, then the folder marker
// object itself if one exists. Objects already gone are not an error.
func (s *GCSStore) DeletePrefix(ctx context.Context, prefix string) error {
	const op = "DeletePrefix"

	keys, err := s.ListPrefix(ctx, prefix)
	if err != nil {
		return WrapStoreError(op, prefix, err)
	}
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			return WrapStoreError(op, key, err)
		}
	}

	// Some tools create a zero-byte object for the "folder" itself.
	marker := strings.TrimSuffix(prefix, "/")
	if err := s.Delete(ctx, marker); err != nil && !errors.Is(err, ErrNotFound) {
		return WrapStoreError(op, marker, err)
	}
	return nil
}

// Close closes the underlying GCS client.
func (s *GCSStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// mapError converts GCS client errors to store sentinel errors.
func (s *GCSStore) mapError(err error) error {
	switch {
	case errors.Is(err, gcs.ErrObjectNotExist):
		return ErrNotFound
	case errors.Is(err, gcs.ErrBucketNotExist):
		return ErrStoreUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return err
	default:
		return err
	}
}
