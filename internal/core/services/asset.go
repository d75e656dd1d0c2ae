package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/cocopam/binny-buddy-ai/internal/core/domain"
	"github.com/cocopam/binny-buddy-ai/internal/core/ports"
	"github.com/sirupsen/logrus"
)

const assetPrompt = "This is a texture for a 3D model. " +
	"Please generate cute variations of this texture " +
	"Do not change the shape or structure of the texture. " +
	"Only modify the center red section, while keeping " +
	"the rest of the texture the same. "

// createdTimeLayout stamps generated file names.
const createdTimeLayout = "2006-01-02 15:04:05.000000"

type AssetService struct {
	model ports.VisionModel
	store ports.AssetStore
	log   logrus.FieldLogger
	now   func() time.Time
	pick  func(n int) int
}

func NewAssetService(model ports.VisionModel, store ports.AssetStore, log logrus.FieldLogger) *AssetService {
	return &AssetService{model: model, store: store, log: log, now: time.Now, pick: rand.IntN}
}

func createdPrefix(model domain.PlasticType, assetType domain.AssetType) string {
	return fmt.Sprintf("%s_%s", model, assetType)
}

// Create generates a new variant of the origin texture for model and saves
// it. The only error returned is domain.ErrOriginNotFound; generation
// failures produce an unsuccessful response.
func (s *AssetService) Create(ctx context.Context, model domain.PlasticType, assetType domain.AssetType) (domain.AssetResponse, error) {
	origin, err := s.store.Origin(model, assetType)
	if err != nil {
		if errors.Is(err, domain.ErrOriginNotFound) {
			return domain.AssetResponse{}, err
		}
		s.log.WithError(err).Error("failed to read origin asset")
		return domain.AssetResponse{Success: false}, nil
	}

	data, err := s.model.GenerateImage(ctx, assetPrompt, origin.Data, origin.MIMEType)
	if err != nil {
		s.log.WithError(err).Debug("asset generation failed")
		return domain.AssetResponse{Success: false}, nil
	}
	if len(data) == 0 {
		s.log.Debug("model returned no image")
		return domain.AssetResponse{Success: false}, nil
	}

	name := fmt.Sprintf("%s_%s.jpg", createdPrefix(model, assetType), s.now().Format(createdTimeLayout))
	if err := s.store.SaveCreated(name, data); err != nil {
		s.log.WithError(err).Error("failed to save created asset")
		return domain.AssetResponse{Success: false}, nil
	}

	s.log.WithField("file", name).Info("asset created")
	return domain.AssetResponse{Success: true, File: encodeAsset(name, data)}, nil
}

// Random returns one of the previously created assets for model, chosen
// uniformly. When none exist the response is unsuccessful with no file.
func (s *AssetService) Random(model domain.PlasticType, assetType domain.AssetType) domain.AssetResponse {
	names, err := s.store.ListCreated()
	if err != nil {
		s.log.WithError(err).Error("failed to list created assets")
		return domain.AssetResponse{Success: false}
	}

	prefix := createdPrefix(model, assetType)
	var matches []string
	for _, n := range names {
		if strings.HasPrefix(n, prefix) && strings.HasSuffix(n, ".jpg") {
			matches = append(matches, n)
		}
	}
	if len(matches) == 0 {
		return domain.AssetResponse{Success: false}
	}

	name := matches[s.pick(len(matches))]
	data, err := s.store.ReadCreated(name)
	if err != nil {
		s.log.WithError(err).WithField("file", name).Error("failed to read created asset")
		return domain.AssetResponse{Success: false}
	}
	return domain.AssetResponse{Success: true, File: encodeAsset(name, data)}
}

func encodeAsset(name string, data []byte) *domain.AssetFile {
	size := int64(len(data))
	return &domain.AssetFile{
		Filename:      name,
		ContentBase64: base64.StdEncoding.EncodeToString(data),
		Size:          &size,
	}
}
