package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSStore keeps uploads on local disk under a root directory, the way the
// original deployment served them from a static file mount.
type FSStore struct {
	root string
}

var _ Store = (*FSStore)(nil)

func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("media: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("media: create root: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) Save(ctx context.Context, dir, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyUpload
	}

	targetDir := filepath.Join(s.root, dir)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("media: create dir: %w", err)
	}

	name := objectName(filename)
	target := filepath.Join(targetDir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("media: write file: %w", err)
	}

	// References use forward slashes regardless of platform.
	return filepath.ToSlash(filepath.Join(dir, name)), nil
}

func (s *FSStore) Remove(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cleaned := filepath.Clean(filepath.FromSlash(ref))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return fmt.Errorf("media: invalid reference %q", ref)
	}

	if err := os.Remove(filepath.Join(s.root, cleaned)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("media: remove file: %w", err)
	}
	return nil
}
