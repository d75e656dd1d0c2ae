package fsstore

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/cocopam/binny-buddy-ai/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return buf.Bytes()
}

func TestOrigin(t *testing.T) {
	t.Run("reads matching origin", func(t *testing.T) {
		root := t.TempDir()
		data := writePNG(t, filepath.Join(root, "origin", "cup_texture.png"))

		origin, err := New(root).Origin(domain.PlasticCup, domain.AssetTexture)
		require.NoError(t, err)
		assert.Equal(t, "cup_texture.png", origin.Name)
		assert.Equal(t, "image/png", origin.MIMEType)
		assert.Equal(t, data, origin.Data)
	})

	t.Run("falls back to other extensions", func(t *testing.T) {
		root := t.TempDir()
		writePNG(t, filepath.Join(root, "origin", "bottle_accessory.jpeg"))

		origin, err := New(root).Origin(domain.PlasticBottle, domain.AssetAccessory)
		require.NoError(t, err)
		assert.Equal(t, "bottle_accessory.jpeg", origin.Name)
	})

	t.Run("reports missing origin", func(t *testing.T) {
		_, err := New(t.TempDir()).Origin(domain.PlasticCup, domain.AssetTexture)
		assert.ErrorIs(t, err, domain.ErrOriginNotFound)
	})

	t.Run("rejects non-image origin", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "origin"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "origin", "cup_texture.png"), []byte("text"), 0644))

		_, err := New(root).Origin(domain.PlasticCup, domain.AssetTexture)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrOriginNotFound)
	})
}

func TestCreated(t *testing.T) {
	t.Run("missing dir lists empty", func(t *testing.T) {
		names, err := New(t.TempDir()).ListCreated()
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("save then list and read", func(t *testing.T) {
		root := t.TempDir()
		s := New(root)

		require.NoError(t, s.SaveCreated("cup_texture_2025-04-01 09:30:15.000001.jpg", []byte("one")))
		require.NoError(t, s.SaveCreated("cup_texture_2025-04-01 09:30:16.000001.jpg", []byte("two")))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "created", "subdir"), 0755))

		names, err := s.ListCreated()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			"cup_texture_2025-04-01 09:30:15.000001.jpg",
			"cup_texture_2025-04-01 09:30:16.000001.jpg",
		}, names)

		data, err := s.ReadCreated("cup_texture_2025-04-01 09:30:16.000001.jpg")
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), data)
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		s := New(t.TempDir())

		assert.Error(t, s.SaveCreated("../escape.jpg", []byte("x")))
		_, err := s.ReadCreated("../../etc/passwd")
		assert.Error(t, err)
	})
}
