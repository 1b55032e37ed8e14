package template

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"invoiceocr/internal/logger"
	"invoiceocr/internal/store"
)

// Store persists templates as CSV blobs in a blob store. The namespace is
// shared: saving under an existing name overwrites it, last write wins.
type Store struct {
	blobs store.BlobStore
	log   zerolog.Logger
}

// NewStore creates a template store over the given blob store.
func NewStore(blobs store.BlobStore) *Store {
	return &Store{
		blobs: blobs,
		log:   logger.WithComponent("template-store"),
	}
}

// key normalizes a template name to its blob key, appending the extension
// when the caller passed a bare name.
func key(name string) string {
	if strings.HasSuffix(name, Ext) {
		return name
	}
	return name + Ext
}

// Save serializes rows and writes them at "{name}.csv", overwriting any
// existing template of that name.
func (s *Store) Save(ctx context.Context, name string, rows []Row) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}

	data, err := EncodeRows(rows)
	if err != nil {
		return fmt.Errorf("encode template %q: %w", name, err)
	}
	if err := s.blobs.Put(ctx, key(name), data); err != nil {
		return err
	}

	s.log.Info().Str("template", key(name)).Int("rows", len(rows)).Msg("saved template")
	return nil
}

// Load reads the template back. A missing or malformed blob yields
// ErrTemplateNotFound.
func (s *Store) Load(ctx context.Context, name string) ([]Row, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}

	data, err := s.blobs.Get(ctx, key(name))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, key(name))
		}
		return nil, err
	}

	rows, err := DecodeRows(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, key(name), err)
	}
	return rows, nil
}

// List returns the identifiers of all stored templates: every key in the
// bucket ending with the template extension, extension included.
func (s *Store) List(ctx context.Context) ([]string, error) {
	keys, err := s.blobs.ListPrefix(ctx, "")
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, k := range keys {
		// Staged page images live under "{document}/" prefixes and are
		// not templates.
		if strings.HasSuffix(k, Ext) && !strings.Contains(k, "/") {
			names = append(names, k)
		}
	}
	return names, nil
}

// Delete removes a stored template. A missing template yields
// ErrTemplateNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}

	if err := s.blobs.Delete(ctx, key(name)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrTemplateNotFound, key(name))
		}
		return err
	}

	s.log.Info().Str("template", key(name)).Msg("deleted template")
	return nil
}
