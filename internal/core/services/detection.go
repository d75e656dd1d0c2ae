package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cocopam/binny-buddy-ai/internal/core/domain"
	"github.com/cocopam/binny-buddy-ai/internal/core/ports"
	"github.com/cocopam/binny-buddy-ai/internal/imageutil"
	"github.com/sirupsen/logrus"
)

// ConfidenceThreshold is the minimum confidence of a reported object.
const ConfidenceThreshold = 0.6

var jsonListPattern = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)

// DetectionPrompt is the instruction sent along with every uploaded image.
func DetectionPrompt() string {
	labels := make([]string, len(domain.PlasticTypes))
	for i, t := range domain.PlasticTypes {
		labels[i] = string(t)
	}
	return "Detect all plastic waste in the image. " +
		"Label will be one of the following: " +
		strings.Join(labels, ", ") + ". " +
		"The box_2d should be [ymin, xmin, ymax, xmax] " +
		fmt.Sprintf("Describe its status as either %s or %s. ", domain.StatusClean, domain.StatusDirty) +
		"Provide a how_to_recycle description for each detected object. "
}

type DetectionService struct {
	model   ports.VisionModel
	history ports.HistoryRecorder
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewDetectionService creates a detection service. history may be nil.
func NewDetectionService(model ports.VisionModel, history ports.HistoryRecorder, log logrus.FieldLogger) *DetectionService {
	return &DetectionService{model: model, history: history, log: log, now: time.Now}
}

// Detect finds plastic waste in image. Model and parsing failures are
// reported as an unsuccessful response rather than an error.
func (s *DetectionService) Detect(ctx context.Context, image []byte) domain.DetectionResponse {
	start := s.now()
	resp := s.detect(ctx, image)
	s.record(ctx, start, resp)
	return resp
}

func (s *DetectionService) detect(ctx context.Context, image []byte) domain.DetectionResponse {
	image, mimeType, ok := imageutil.Prepare(image, imageutil.MaxWidth, imageutil.MaxHeight)
	if !ok {
		s.log.Debug("detection failed: unreadable image")
		return domain.FailedDetection()
	}

	text, err := s.model.DetectObjects(ctx, DetectionPrompt(), image, mimeType)
	if err != nil {
		s.log.WithError(err).Debug("detection failed")
		return domain.FailedDetection()
	}

	objects := ParseDetections(text, s.log)
	if len(objects) == 0 {
		s.log.Debug("detection failed: No plastic waste detected.")
		return domain.FailedDetection()
	}
	return domain.NewDetectionResponse(objects)
}

func (s *DetectionService) record(ctx context.Context, start time.Time, resp domain.DetectionResponse) {
	if s.history == nil {
		return
	}
	labels := make([]domain.PlasticType, 0, len(resp.Objects))
	for _, o := range resp.Objects {
		labels = append(labels, o.Label)
	}
	rec := domain.DetectionRecord{
		CreatedAt:    start,
		Success:      resp.Success,
		TotalObjects: resp.TotalObjects,
		Labels:       labels,
		DurationMs:   s.now().Sub(start).Milliseconds(),
	}
	if err := s.history.Record(ctx, rec); err != nil {
		s.log.WithError(err).Warn("failed to record detection")
	}
}

// History returns up to limit of the most recent detection runs.
func (s *DetectionService) History(ctx context.Context, limit int) ([]domain.DetectionRecord, error) {
	if s.history == nil {
		return []domain.DetectionRecord{}, nil
	}
	return s.history.Recent(ctx, limit)
}

type rawObject struct {
	Label        string    `json:"label"`
	Confidence   *float64  `json:"confidence"`
	Status       string    `json:"status"`
	HowToRecycle *string   `json:"how_to_recycle"`
	Box2D        []float64 `json:"box_2d"`

	hasBox bool
}

// UnmarshalJSON records whether box_2d was present. The key is required, its
// value may be null.
func (r *rawObject) UnmarshalJSON(data []byte) error {
	type plain rawObject
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, r.hasBox = keys["box_2d"]
	return nil
}

// ParseDetections extracts the JSON object list from a model answer. If any
// entry is malformed no objects are returned. Entries below
// ConfidenceThreshold are dropped.
func ParseDetections(text string, log logrus.FieldLogger) []domain.DetectedObject {
	match := jsonListPattern.FindString(text)
	if match == "" {
		log.Debug("no JSON object list found in model response")
		return nil
	}

	var raw []rawObject
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		log.WithError(err).Debug("failed to parse model response")
		return nil
	}

	objects := make([]domain.DetectedObject, 0, len(raw))
	for i, r := range raw {
		obj, err := r.validate()
		if err != nil {
			log.WithError(err).WithField("index", i).Debug("failed to parse model response")
			return nil
		}
		if obj.Confidence >= ConfidenceThreshold {
			objects = append(objects, obj)
		}
	}
	return objects
}

func (r rawObject) validate() (domain.DetectedObject, error) {
	label, err := domain.ParsePlasticType(r.Label)
	if err != nil {
		return domain.DetectedObject{}, err
	}
	status := domain.WasteStatus(r.Status)
	if !status.Valid() {
		return domain.DetectedObject{}, fmt.Errorf("invalid waste status %q", r.Status)
	}
	if r.Confidence == nil {
		return domain.DetectedObject{}, errors.New("missing confidence")
	}
	if !r.hasBox {
		return domain.DetectedObject{}, errors.New("missing box_2d")
	}
	if r.Box2D != nil && len(r.Box2D) != 4 {
		return domain.DetectedObject{}, fmt.Errorf("box_2d must have 4 values, got %d", len(r.Box2D))
	}
	return domain.DetectedObject{
		Label:        label,
		Confidence:   *r.Confidence,
		Status:       status,
		HowToRecycle: r.HowToRecycle,
		Box2D:        r.Box2D,
	}, nil
}
