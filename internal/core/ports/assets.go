package ports

import "github.com/cocopam/binny-buddy-ai/internal/core/domain"

// AssetStore holds origin textures and the variants generated from them.
type AssetStore interface {
	Origin(model domain.PlasticType, assetType domain.AssetType) (domain.OriginImage, error)
	SaveCreated(name string, data []byte) error
	ListCreated() ([]string, error)
	ReadCreated(name string) ([]byte, error)
}
