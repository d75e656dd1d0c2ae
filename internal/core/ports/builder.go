package ports

import "context"

// BuildRequest describes one image build of the service.
type BuildRequest struct {
	ContextDir string
	Dockerfile string
	Tag        string
	Platforms  []string
	Labels     map[string]string
}

// ImageBuilder builds the service image for the local daemon.
type ImageBuilder interface {
	// BuildImage builds req.ContextDir and tags the result with req.Tag.
	// It returns the ID of the built image or an error.
	BuildImage(ctx context.Context, req BuildRequest) (string, error)
}

// ImagePublisher builds req for every platform in req.Platforms and pushes
// them as a single multi-platform reference.
type ImagePublisher interface {
	Publish(ctx context.Context, req BuildRequest) (string, error)
}
