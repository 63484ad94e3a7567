package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores binary assets (logos) and resolves their public URLs.
type FileUploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}
