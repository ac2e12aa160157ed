package object

import (
	"context"
	"io"
)

// Store defines the contract for saving and retrieving binary objects.
// Objects live under a logical bucket and a caller-chosen key; a stored
// object can be resolved to a durable, publicly dereferenceable URL.
type Store interface {
	Put(ctx context.Context, bucket, key, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	PublicURL(bucket, key string) (string, error)
}
