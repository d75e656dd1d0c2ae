// Package gemini implements ports.VisionModel on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cocopam/binny-buddy-ai/internal/core/domain"
	"google.golang.org/genai"
)

const (
	DetectionModel  = "gemini-2.0-flash"
	GenerationModel = "gemini-2.0-flash-exp-image-generation"
)

var ErrEmptyResponse = errors.New("gemini returned no candidates")

// generator is the subset of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models generator
}

// NewClient connects to the Gemini API with apiKey.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{models: c.Models}, nil
}

func userContent(prompt string, image []byte, mimeType string) []*genai.Content {
	return []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}
}

func (c *Client) DetectObjects(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	resp, err := c.models.GenerateContent(ctx, DetectionModel, userContent(prompt, image, mimeType), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   DetectionSchema(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to detect objects: %w", err)
	}

	parts, err := firstParts(resp)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

func (c *Client) GenerateImage(ctx context.Context, prompt string, image []byte, mimeType string) ([]byte, error) {
	resp, err := c.models.GenerateContent(ctx, GenerationModel, userContent(prompt, image, mimeType), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	parts, err := firstParts(resp)
	if err != nil {
		return nil, err
	}
	// Only the first image is used.
	for _, p := range parts {
		if p.InlineData != nil && len(p.InlineData.Data) > 0 {
			return p.InlineData.Data, nil
		}
	}
	return nil, nil
}

func firstParts(resp *genai.GenerateContentResponse) ([]*genai.Part, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}
	return resp.Candidates[0].Content.Parts, nil
}

// DetectionSchema constrains the detection answer to a list of objects.
func DetectionSchema() *genai.Schema {
	labels := make([]string, len(domain.PlasticTypes))
	for i, t := range domain.PlasticTypes {
		labels[i] = string(t)
	}
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"label":          {Type: genai.TypeString, Enum: labels},
				"confidence":     {Type: genai.TypeNumber},
				"status":         {Type: genai.TypeString, Enum: []string{string(domain.StatusClean), string(domain.StatusDirty)}},
				"how_to_recycle": {Type: genai.TypeString},
				"box_2d":         {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeNumber}},
			},
			Required:         []string{"label", "confidence", "status", "box_2d"},
			PropertyOrdering: []string{"label", "confidence", "status", "how_to_recycle", "box_2d"},
		},
	}
}
