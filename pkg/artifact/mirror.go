package artifact

import "context"

// Mirror is a secondary copy of the artifact directory in an object store.
// Mirror failures never fail the primary operation; callers log and count
// them.
type Mirror interface {
	// Name identifies the backend in logs and metrics ("nats", "s3").
	Name() string

	// Put stores data under the artifact file name.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes the named object. A missing object is not an error.
	Delete(ctx context.Context, name string) error

	// Close releases backend resources.
	Close() error
}
