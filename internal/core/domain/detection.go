package domain

import (
	"errors"
	"fmt"
)

// PlasticType is the kind of plastic item a detection can report.
type PlasticType string

const (
	PlasticCup       PlasticType = "cup"
	PlasticBottle    PlasticType = "bottle"
	PlasticContainer PlasticType = "container"
)

// PlasticTypes lists every known plastic type in prompt order.
var PlasticTypes = []PlasticType{PlasticCup, PlasticBottle, PlasticContainer}

var ErrInvalidPlasticType = errors.New("invalid plastic type")

// ParsePlasticType returns the PlasticType named by s.
func ParsePlasticType(s string) (PlasticType, error) {
	for _, t := range PlasticTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPlasticType, s)
}

// WasteStatus describes whether a detected item is ready for recycling.
type WasteStatus string

const (
	StatusClean WasteStatus = "clean"
	StatusDirty WasteStatus = "dirty"
)

func (s WasteStatus) Valid() bool {
	return s == StatusClean || s == StatusDirty
}

// DetectedObject is a single item found in an uploaded image.
type DetectedObject struct {
	Label        PlasticType `json:"label"`
	Confidence   float64     `json:"confidence"`
	Status       WasteStatus `json:"status"`
	HowToRecycle *string     `json:"how_to_recycle"`
	Box2D        []float64   `json:"box_2d"` // [ymin, xmin, ymax, xmax], normalized to 0-1000
}

// DetectionResponse is the body returned by the detect endpoint.
type DetectionResponse struct {
	Success      bool             `json:"success"`
	Objects      []DetectedObject `json:"objects"`
	TotalObjects int              `json:"total_objects"`
}

// NewDetectionResponse builds a response for objects. An empty slice is
// reported as a failed detection.
func NewDetectionResponse(objects []DetectedObject) DetectionResponse {
	if len(objects) == 0 {
		return FailedDetection()
	}
	return DetectionResponse{Success: true, Objects: objects, TotalObjects: len(objects)}
}

func FailedDetection() DetectionResponse {
	return DetectionResponse{Success: false, Objects: []DetectedObject{}, TotalObjects: 0}
}
