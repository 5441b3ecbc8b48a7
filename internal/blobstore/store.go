// Package blobstore abstracts retrieval and storage of invoice packages and
// their extracted files. The processing core only ever sees raw bytes by
// path; backends cover the local filesystem and S3.
package blobstore

import "context"

// Store supplies raw bytes by path and accepts uploads.
type Store interface {
	// Download returns the full content at path.
	Download(ctx context.Context, path string) ([]byte, error)
	// Upload writes content at path, replacing any existing blob.
	Upload(ctx context.Context, path string, content []byte) error
	// Exists reports whether a blob is present at path.
	Exists(ctx context.Context, path string) (bool, error)
	// List returns the paths under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
