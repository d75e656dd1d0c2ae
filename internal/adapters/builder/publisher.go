package builder

import (
	"context"
	"fmt"
	"io"

	"dagger.io/dagger"
	"github.com/cocopam/binny-buddy-ai/internal/core/ports"
)

// Publisher implements ports.ImagePublisher with a Dagger engine, which can
// build every platform variant and push them as one manifest list.
type Publisher struct {
	logOutput io.Writer
}

func NewPublisher(logOutput io.Writer) *Publisher {
	return &Publisher{logOutput: logOutput}
}

// Publish builds req for each platform and pushes the result to req.Tag.
// It fails if any platform fails to build.
func (p *Publisher) Publish(ctx context.Context, req ports.BuildRequest) (string, error) {
	if len(req.Platforms) == 0 {
		return "", fmt.Errorf("no platforms to publish")
	}

	client, err := dagger.Connect(ctx, dagger.WithLogOutput(p.logOutput))
	if err != nil {
		return "", fmt.Errorf("failed to connect to dagger: %w", err)
	}
	defer client.Close()

	src := client.Host().Directory(req.ContextDir, dagger.HostDirectoryOpts{
		Exclude: ContextExcludes,
	})

	variants := make([]*dagger.Container, 0, len(req.Platforms))
	for _, platform := range req.Platforms {
		ctr := client.Container(dagger.ContainerOpts{Platform: dagger.Platform(platform)}).
			Build(src, dagger.ContainerBuildOpts{Dockerfile: req.Dockerfile})
		for k, v := range req.Labels {
			ctr = ctr.WithLabel(k, v)
		}
		variants = append(variants, ctr)
	}

	ref, err := client.Container().Publish(ctx, req.Tag, dagger.ContainerPublishOpts{
		PlatformVariants: variants,
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish %s: %w", req.Tag, err)
	}
	return ref, nil
}
