package domain

import (
	"errors"
	"fmt"
)

// AssetType selects which kind of 3D model asset is generated or served.
type AssetType string

const (
	AssetTexture   AssetType = "texture"
	AssetAccessory AssetType = "accessory"
)

var (
	ErrInvalidAssetType = errors.New("invalid asset type")
	ErrOriginNotFound   = errors.New("origin asset not found")
)

// ParseAssetType returns the AssetType named by s. An empty string selects
// the texture type.
func ParseAssetType(s string) (AssetType, error) {
	switch AssetType(s) {
	case "", AssetTexture:
		return AssetTexture, nil
	case AssetAccessory:
		return AssetAccessory, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAssetType, s)
}

// AssetFile is an asset image encoded for transport.
type AssetFile struct {
	Filename      string `json:"filename"`
	ContentBase64 string `json:"content_base64"`
	Size          *int64 `json:"size"`
}

type AssetResponse struct {
	Success bool       `json:"success"`
	File    *AssetFile `json:"file"`
}

// OriginImage is the base texture a generated variant is derived from.
type OriginImage struct {
	Name     string
	Data     []byte
	MIMEType string
}
