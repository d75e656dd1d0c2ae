package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cocopam/binny-buddy-ai/internal/core/domain"
	"github.com/cocopam/binny-buddy-ai/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDetector struct {
	resp     domain.DetectionResponse
	records  []domain.DetectionRecord
	histErr  error
	images   [][]byte
	gotLimit int
}

func (f *fakeDetector) Detect(ctx context.Context, image []byte) domain.DetectionResponse {
	f.images = append(f.images, image)
	return f.resp
}

func (f *fakeDetector) History(ctx context.Context, limit int) ([]domain.DetectionRecord, error) {
	f.gotLimit = limit
	return f.records, f.histErr
}

type fakeAssets struct {
	created   domain.AssetResponse
	createErr error
	random    domain.AssetResponse

	model     domain.PlasticType
	assetType domain.AssetType
}

func (f *fakeAssets) Create(ctx context.Context, model domain.PlasticType, assetType domain.AssetType) (domain.AssetResponse, error) {
	f.model, f.assetType = model, assetType
	return f.created, f.createErr
}

func (f *fakeAssets) Random(model domain.PlasticType, assetType domain.AssetType) domain.AssetResponse {
	f.model, f.assetType = model, assetType
	return f.random
}

func newTestApp(d *fakeDetector, a *fakeAssets, rate int) *fiber.App {
	log := testutil.Logger()
	return NewApp(RouterConfig{BodyLimit: 1 << 20, RateLimitPerMinute: rate}, NewHandler(d, a, log), log)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, "photo.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/detect", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestRootAndHealth(t *testing.T) {
	app := newTestApp(&fakeDetector{}, &fakeAssets{}, 0)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Welcome to Object Detection API with Gemini", decode[map[string]string](t, resp)["message"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
}

func TestDetect(t *testing.T) {
	t.Run("returns detection result", func(t *testing.T) {
		d := &fakeDetector{resp: domain.NewDetectionResponse([]domain.DetectedObject{
			{Label: domain.PlasticCup, Confidence: 0.9, Status: domain.StatusClean},
		})}
		app := newTestApp(d, &fakeAssets{}, 0)
		img := pngBytes(t)

		resp, err := app.Test(uploadRequest(t, "image", img), -1)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[domain.DetectionResponse](t, resp)
		assert.True(t, got.Success)
		assert.Equal(t, 1, got.TotalObjects)
		require.Len(t, d.images, 1)
		assert.Equal(t, img, d.images[0])
	})

	t.Run("failed detection is still 200", func(t *testing.T) {
		app := newTestApp(&fakeDetector{resp: domain.FailedDetection()}, &fakeAssets{}, 0)

		resp, err := app.Test(uploadRequest(t, "image", pngBytes(t)), -1)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("missing image is 422", func(t *testing.T) {
		d := &fakeDetector{}
		app := newTestApp(d, &fakeAssets{}, 0)

		resp, err := app.Test(uploadRequest(t, "file", pngBytes(t)), -1)
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, domain.NewUnprocessableEntity("No image provided"), decode[domain.UnprocessableEntityResponse](t, resp))
		assert.Empty(t, d.images)
	})

	t.Run("non multipart body is 422", func(t *testing.T) {
		app := newTestApp(&fakeDetector{}, &fakeAssets{}, 0)

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/detect", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("invalid image is 422", func(t *testing.T) {
		d := &fakeDetector{}
		app := newTestApp(d, &fakeAssets{}, 0)

		resp, err := app.Test(uploadRequest(t, "image", []byte("definitely not a png")), -1)
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		got := decode[domain.UnprocessableEntityResponse](t, resp)
		assert.Equal(t, "Invalid image format", got.Detail)
		assert.Equal(t, 422, got.ErrorCode)
		assert.Empty(t, d.images)
	})

	t.Run("rate limit is 429", func(t *testing.T) {
		app := newTestApp(&fakeDetector{resp: domain.FailedDetection()}, &fakeAssets{}, 1)

		resp, err := app.Test(uploadRequest(t, "image", pngBytes(t)), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp, err = app.Test(uploadRequest(t, "image", pngBytes(t)), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		got := decode[domain.TooManyRequestsResponse](t, resp)
		assert.Equal(t, 429, got.ErrorCode)
		assert.Equal(t, "Too Many Requests", got.ErrorMessage)
	})

	t.Run("body over the limit is rejected", func(t *testing.T) {
		d := &fakeDetector{resp: domain.FailedDetection()}
		app := newTestApp(d, &fakeAssets{}, 0)

		resp, err := app.Test(uploadRequest(t, "image", make([]byte, 2<<20)), -1)
		if err != nil {
			assert.ErrorContains(t, err, "body size exceeds the given limit")
		} else {
			resp.Body.Close()
			assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		}
		assert.Empty(t, d.images)
	})
}

func TestCreateAsset(t *testing.T) {
	t.Run("passes query to service", func(t *testing.T) {
		size := int64(3)
		a := &fakeAssets{created: domain.AssetResponse{Success: true, File: &domain.AssetFile{Filename: "cup_accessory_x.jpg", ContentBase64: "YWJj", Size: &size}}}
		app := newTestApp(&fakeDetector{}, a, 0)

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/assets/create?model=cup&asset_type=accessory", nil), -1)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[domain.AssetResponse](t, resp)
		assert.True(t, got.Success)
		assert.Equal(t, "cup_accessory_x.jpg", got.File.Filename)
		assert.Equal(t, domain.PlasticCup, a.model)
		assert.Equal(t, domain.AssetAccessory, a.assetType)
	})

	t.Run("asset type defaults to texture", func(t *testing.T) {
		a := &fakeAssets{}
		app := newTestApp(&fakeDetector{}, a, 0)

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/assets/create?model=bottle", nil), -1)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, domain.AssetTexture, a.assetType)
	})

	t.Run("unknown model is 422", func(t *testing.T) {
		app := newTestApp(&fakeDetector{}, &fakeAssets{}, 0)

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/assets/create?model=can", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("missing origin is 404", func(t *testing.T) {
		app := newTestApp(&fakeDetector{}, &fakeAssets{createErr: domain.ErrOriginNotFound}, 0)

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/assets/create?model=cup", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("other errors are unsuccessful", func(t *testing.T) {
		app := newTestApp(&fakeDetector{}, &fakeAssets{createErr: errors.New("boom")}, 0)

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/assets/create?model=cup", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[domain.AssetResponse](t, resp)
		assert.False(t, got.Success)
		assert.Nil(t, got.File)
	})
}

func TestGetAsset(t *testing.T) {
	t.Run("trailing slash is accepted", func(t *testing.T) {
		a := &fakeAssets{random: domain.AssetResponse{Success: true, File: &domain.AssetFile{Filename: "container_texture_1.jpg"}}}
		app := newTestApp(&fakeDetector{}, a, 0)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/asset/?model=container", nil), -1)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "container_texture_1.jpg", decode[domain.AssetResponse](t, resp).File.Filename)
		assert.Equal(t, domain.PlasticContainer, a.model)
	})

	t.Run("nothing created yet", func(t *testing.T) {
		app := newTestApp(&fakeDetector{}, &fakeAssets{random: domain.AssetResponse{}}, 0)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/asset?model=cup&asset_type=texture", nil), -1)
		require.NoError(t, err)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"success": false, "file": null}`, string(body))
	})

	t.Run("unknown asset type is 422", func(t *testing.T) {
		app := newTestApp(&fakeDetector{}, &fakeAssets{}, 0)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/asset?model=cup&asset_type=mesh", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestHistory(t *testing.T) {
	t.Run("clamps limit", func(t *testing.T) {
		d := &fakeDetector{records: []domain.DetectionRecord{{ID: 7, TotalObjects: 1}}}
		app := newTestApp(d, &fakeAssets{}, 0)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/history?limit=500", nil), -1)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, maxHistoryLimit, d.gotLimit)
		got := decode[[]domain.DetectionRecord](t, resp)
		require.Len(t, got, 1)
		assert.Equal(t, int64(7), got[0].ID)
	})

	t.Run("defaults limit", func(t *testing.T) {
		d := &fakeDetector{records: []domain.DetectionRecord{}}
		app := newTestApp(d, &fakeAssets{}, 0)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/history", nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, defaultHistoryLimit, d.gotLimit)
	})

	t.Run("store errors are 500", func(t *testing.T) {
		app := newTestApp(&fakeDetector{histErr: errors.New("locked")}, &fakeAssets{}, 0)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/history", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "locked", decode[map[string]string](t, resp)["error"])
	})
}

func TestCORS(t *testing.T) {
	app := newTestApp(&fakeDetector{}, &fakeAssets{}, 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.com")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(&fakeDetector{}, &fakeAssets{}, 0)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, decode[map[string]string](t, resp)["error"], "Cannot GET /nope")
}

func TestPanicIsLoggedAs500(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	useMiddleware(app, log)
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "boom", decode[map[string]string](t, resp)["error"])

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "/boom", entry.Data["path"])
	assert.Equal(t, http.StatusInternalServerError, entry.Data["status"])
}
