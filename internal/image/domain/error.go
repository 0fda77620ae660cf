package domain

import "errors"

var (
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrMetadataPersistFailed  = errors.New("image metadata persist failed")
	ErrImageNotFound          = errors.New("image not found")
	ErrNotYetAvailable        = errors.New("image not yet available")
	ErrInvalidQuery           = errors.New("invalid list query")
)
