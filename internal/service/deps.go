package service

import (
	"context"
	"time"
)

// mediaStore is the slice of the object-storage adapter the services need.
type mediaStore interface {
	CurrentVersion(ctx context.Context, publicID, kind string) (string, error)
	PresignUpload(ctx context.Context, publicID, kind, version string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, publicID, kind string) error
}

// keyStore is the slice of the durable per-asset keystore the services need.
type keyStore interface {
	Put(ctx context.Context, publicID, keyHex string) error
	Get(ctx context.Context, publicID string) (string, error)
	Delete(ctx context.Context, publicID string) error
}
