package domain

import "context"

// Repository persists image metadata. Soft-deleted rows are invisible to
// every method.
type Repository interface {
	Create(ctx context.Context, image *Image) error
	FindByExternalID(ctx context.Context, externalID string) (*Image, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]any) error
	ListExternalIDs(ctx context.Context, q ListQuery) ([]string, error)
}
