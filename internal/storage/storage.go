package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string     `json:"key"`
	Size         int64      `json:"size"`
	LastModified *time.Time `json:"lastModified,omitempty"`
}

// PutOptions conveys object metadata for an upload.
type PutOptions struct {
	ContentType string
}

// Service stores character exports in remote object storage.
type Service interface {
	PutObject(ctx context.Context, bucket, key string, body io.Reader, opts PutOptions) error
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	DeletePrefix(ctx context.Context, bucket, prefix string) error
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}
