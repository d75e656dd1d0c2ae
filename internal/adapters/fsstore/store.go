// Package fsstore keeps origin textures and generated assets on local disk.
package fsstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cocopam/binny-buddy-ai/internal/core/domain"
	"github.com/cocopam/binny-buddy-ai/internal/imageutil"
)

var originExts = []string{".png", ".jpg", ".jpeg"}

// Store implements ports.AssetStore on a directory with an origin/ and a
// created/ subdirectory.
type Store struct {
	originDir  string
	createdDir string
}

func New(root string) *Store {
	return &Store{
		originDir:  filepath.Join(root, "origin"),
		createdDir: filepath.Join(root, "created"),
	}
}

// Origin reads origin/{model}_{assetType}.{png,jpg,jpeg}, in that order.
func (s *Store) Origin(model domain.PlasticType, assetType domain.AssetType) (domain.OriginImage, error) {
	base := fmt.Sprintf("%s_%s", model, assetType)
	for _, ext := range originExts {
		name := base + ext
		data, err := os.ReadFile(filepath.Join(s.originDir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return domain.OriginImage{}, fmt.Errorf("failed to read origin %s: %w", name, err)
		}

		format, ok := imageutil.Format(data)
		if !ok {
			return domain.OriginImage{}, fmt.Errorf("origin %s is not an image", name)
		}
		return domain.OriginImage{Name: name, Data: data, MIMEType: imageutil.MIMEType(format)}, nil
	}
	return domain.OriginImage{}, fmt.Errorf("%w: %s", domain.ErrOriginNotFound, base)
}

func (s *Store) SaveCreated(name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.createdDir, 0755); err != nil {
		return fmt.Errorf("failed to create asset dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.createdDir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write asset: %w", err)
	}
	return nil
}

// ListCreated returns the file names in created/. A missing directory is
// reported as empty.
func (s *Store) ListCreated() ([]string, error) {
	entries, err := os.ReadDir(s.createdDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (s *Store) ReadCreated(name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.createdDir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read asset: %w", err)
	}
	return data, nil
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid asset name %q", name)
	}
	return nil
}
