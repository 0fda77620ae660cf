package domain

import "context"

// UploadRequest carries a validated multipart upload.
type UploadRequest struct {
	OwnerID          int64
	Title            string
	OriginalFileName string
	ContentType      string
	Labels           []string
	Data             []byte
}

// UploadResult carries the new image's external id.
type UploadResult struct {
	ImageUID string `json:"image_uid"`
}

// Service exposes the ingestion pipeline and read paths.
type Service interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
	OriginalURL(ctx context.Context, externalID string) (string, error)
	Thumbnail(ctx context.Context, externalID string) ([]byte, error)
	Info(ctx context.Context, externalID string) (*Image, error)
	ListUserImages(ctx context.Context, q ListQuery) ([]string, error)
}
