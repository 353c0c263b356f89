// Package yaml holds the shared file helpers for the YAML-backed stores.
package yaml

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Extension is the suffix of every persisted cassette file.
const Extension = ".yaml"

// ValidatePath rejects paths that escape the storage directory.
func ValidatePath(path string) (string, error) {
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("invalid storage path %q: directory traversal is not allowed", path)
	}
	return filepath.Clean(path), nil
}

// WriteFile rewrites the whole document at dir/name.yaml, creating the
// directory if needed.
func WriteFile(ctx context.Context, logger *zap.Logger, dir, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := ValidatePath(filepath.Join(dir, name+Extension))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, fs.ModePerm); err != nil {
		logger.Error("failed to create a directory for the yaml file", zap.Error(err), zap.Any("path directory", dir))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Error("failed to write the yaml document", zap.Error(err), zap.Any("yaml file name", name))
		return err
	}
	return nil
}

// ReadFile reads the document at dir/name.yaml.
func ReadFile(dir, name string) ([]byte, error) {
	path, err := ValidatePath(filepath.Join(dir, name+Extension))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read the file: %w", err)
	}
	return data, nil
}

// FileExists reports whether dir/name.yaml exists. Side-effect free.
func FileExists(dir, name string) bool {
	path, err := ValidatePath(filepath.Join(dir, name+Extension))
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
