package port

import "context"

// ArtifactStore keeps generated files (payment batches, report exports) on disk,
// one folder per sale
type ArtifactStore interface {
	// Save writes content as folder/name and returns the stored relative path
	Save(ctx context.Context, folder, name string, content []byte) (string, error)
	Read(ctx context.Context, path string) ([]byte, error)
	FullPath(path string) string
}
