// Package archive persists notification events to cold storage as
// day-partitioned JSONL files, behind a backend interface with local
// filesystem and S3 implementations.
package archive

import "context"

// Storage defines the interface for archive storage backends.
type Storage interface {
	// Write stores data at the given path, replacing any existing object.
	Write(ctx context.Context, path string, data []byte) error

	// Append adds data to the end of the object at path, creating it if
	// absent.
	Append(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path.
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)
}
