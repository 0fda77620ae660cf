package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Image is a stored media row. The two completion flags track blob writes
// independently; a row with either flag unset is degraded, not failed.
type Image struct {
	ID                  int64          `gorm:"primaryKey" json:"-"`
	ExternalID          string         `gorm:"size:64;uniqueIndex" json:"image_uid"`
	OwnerID             int64          `gorm:"index" json:"-"`
	Title               string         `gorm:"size:255" json:"title"`
	OriginalFileName    string         `gorm:"size:255" json:"original_file_name"`
	ContentType         string         `gorm:"size:64" json:"content_type"`
	SizeBytes           int64          `json:"size_bytes"`
	Labels              datatypes.JSON `json:"labels"`
	IsUploaded          bool           `json:"is_uploaded"`
	IsThumbnailUploaded bool           `json:"is_thumbnail_uploaded"`
	IsDeleted           bool           `gorm:"index" json:"-"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

func (Image) TableName() string {
	return "images"
}

// PageSize is the fixed listing page size.
const PageSize = 50

// ListQuery selects a page of an owner's images.
type ListQuery struct {
	OwnerID int64
	Page    int
	SortBy  string
	SortDir string
	Labels  []string
}
