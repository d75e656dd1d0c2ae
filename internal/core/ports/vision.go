package ports

import "context"

// VisionModel is a multimodal model that can read and generate images.
// This keeps the services independent from the Gemini SDK.
type VisionModel interface {
	// DetectObjects sends prompt and image to the model and returns its raw
	// text answer, constrained to a JSON list of detected objects.
	DetectObjects(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)

	// GenerateImage asks the model for an image variant of image. It returns
	// nil data without error when the model answered without an image.
	GenerateImage(ctx context.Context, prompt string, image []byte, mimeType string) ([]byte, error)
}
