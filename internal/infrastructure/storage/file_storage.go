// Package storage keeps generated artifacts on the local filesystem, one
// folder per sale.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/auctify/settlement-engine/internal/application/port"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// LocalArtifactStore implements port.ArtifactStore for the local filesystem
type LocalArtifactStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalArtifactStore creates a new LocalArtifactStore
func NewLocalArtifactStore(baseDir string, logger *zap.Logger) port.ArtifactStore {
	return &LocalArtifactStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes content as folder/name and returns the relative path
func (s *LocalArtifactStore) Save(ctx context.Context, folder, name string, content []byte) (string, error) {
	safeFolder, safeName := SanitizeName(folder), SanitizeName(name)
	if safeFolder == "" || safeName == "" {
		return "", fmt.Errorf("cannot store artifact %q in folder %q: empty name", name, folder)
	}

	relPath := filepath.Join(safeFolder, safeName)
	fullPath := s.FullPath(relPath)
	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create artifact folder",
			zap.String("folder", safeFolder),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	// write then rename so readers never see a partial file
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		s.logger.Error("Failed to write artifact",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	s.logger.Debug("Artifact saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))

	return relPath, nil
}

// Read reads an artifact by its relative path
func (s *LocalArtifactStore) Read(ctx context.Context, path string) ([]byte, error) {
	fullPath := s.FullPath(path)
	if err := s.validatePath(fullPath); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		s.logger.Error("Failed to read artifact",
			zap.String("path", fullPath),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// FullPath converts a relative path to a path under the base directory
func (s *LocalArtifactStore) FullPath(relativePath string) string {
	return filepath.Join(s.baseDir, relativePath)
}

// validatePath checks that the path stays within baseDir
func (s *LocalArtifactStore) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}
	return nil
}

// SanitizeName returns a filesystem-safe version of a folder or file name.
// Separators and parent references are removed, so are characters outside
// letters, digits, '-', '_' and '.'.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	return strings.Trim(unsafeChars.ReplaceAllString(name, ""), ".")
}

// Verify interface compliance
var _ port.ArtifactStore = (*LocalArtifactStore)(nil)
