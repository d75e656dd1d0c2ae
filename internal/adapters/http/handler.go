package http

import (
	"context"
	"errors"
	"io"

	"github.com/cocopam/binny-buddy-ai/internal/core/domain"
	"github.com/cocopam/binny-buddy-ai/internal/imageutil"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Detector is implemented by services.DetectionService.
type Detector interface {
	Detect(ctx context.Context, image []byte) domain.DetectionResponse
	History(ctx context.Context, limit int) ([]domain.DetectionRecord, error)
}

// AssetProvider is implemented by services.AssetService.
type AssetProvider interface {
	Create(ctx context.Context, model domain.PlasticType, assetType domain.AssetType) (domain.AssetResponse, error)
	Random(model domain.PlasticType, assetType domain.AssetType) domain.AssetResponse
}

type Handler struct {
	detector Detector
	assets   AssetProvider
	log      logrus.FieldLogger
}

func NewHandler(detector Detector, assets AssetProvider, log logrus.FieldLogger) *Handler {
	return &Handler{detector: detector, assets: assets, log: log}
}

func unprocessable(c *fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(domain.NewUnprocessableEntity(detail))
}

func (h *Handler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Welcome to Object Detection API with Gemini"})
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Detect reads the multipart "image" field and reports the plastic waste
// found in it.
func (h *Handler) Detect(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		h.log.Info("No image provided")
		return unprocessable(c, "No image provided")
	}

	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if !imageutil.Validate(data) {
		h.log.Info("Invalid image format")
		return unprocessable(c, "Invalid image format")
	}

	return c.JSON(h.detector.Detect(c.UserContext(), data))
}

func parseAssetQuery(c *fiber.Ctx) (domain.PlasticType, domain.AssetType, error) {
	model, err := domain.ParsePlasticType(c.Query("model"))
	if err != nil {
		return "", "", err
	}
	assetType, err := domain.ParseAssetType(c.Query("asset_type"))
	if err != nil {
		return "", "", err
	}
	return model, assetType, nil
}

// CreateAsset generates a new variant of the origin texture named by the
// model and asset_type query parameters.
func (h *Handler) CreateAsset(c *fiber.Ctx) error {
	model, assetType, err := parseAssetQuery(c)
	if err != nil {
		return unprocessable(c, err.Error())
	}

	resp, err := h.assets.Create(c.UserContext(), model, assetType)
	if errors.Is(err, domain.ErrOriginNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": err.Error(),
		})
	}
	if err != nil {
		h.log.WithError(err).Error("Error during asset creation")
		return c.JSON(domain.AssetResponse{Success: false})
	}
	return c.JSON(resp)
}

func (h *Handler) GetAsset(c *fiber.Ctx) error {
	model, assetType, err := parseAssetQuery(c)
	if err != nil {
		return unprocessable(c, err.Error())
	}
	return c.JSON(h.assets.Random(model, assetType))
}

func (h *Handler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	recs, err := h.detector.History(c.UserContext(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(recs)
}
