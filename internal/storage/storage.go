// Package storage persists image blobs. Two variants exist per image: the
// original bytes and a derived PNG thumbnail, each written and read
// independently.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrBlobNotFound = errors.New("blob not found")

const (
	VariantOriginal  = "original"
	VariantThumbnail = "thumbnail"
)

// Store is the blob store contract. Puts are idempotent overwrites keyed by
// image id.
type Store interface {
	PutOriginal(ctx context.Context, imageID string, contentType string, data []byte) error
	PutThumbnail(ctx context.Context, imageID string, data []byte) error
	GetThumbnail(ctx context.Context, imageID string) ([]byte, error)
	OriginalURL(ctx context.Context, imageID string, ttl time.Duration) (string, error)
}

// BuildKey constructs the blob key for a variant of an image.
func BuildKey(variant, imageID string) string {
	return fmt.Sprintf("%s/%s", variant, imageID)
}
