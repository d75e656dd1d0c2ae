package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cocopam/binny-buddy-ai/internal/core/ports"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
)

// ContextExcludes are left out of every build context.
var ContextExcludes = []string{".git", "_examples", "assets/created", "*.db"}

// Adapter implements ports.ImageBuilder against the local Docker daemon.
type Adapter struct {
	cli *client.Client
	out io.Writer
}

// NewBuilderAdapter returns an adapter that streams build output to out.
func NewBuilderAdapter(out io.Writer) (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Adapter{cli: cli, out: out}, nil
}

func (a *Adapter) Close() error {
	return a.cli.Close()
}

// BuildImage builds req.ContextDir with the daemon. Only the first entry of
// req.Platforms is honoured; multi-platform builds go through the publisher.
func (a *Adapter) BuildImage(ctx context.Context, req ports.BuildRequest) (string, error) {
	// 1. Create Build Context (Tar)
	tar, err := archive.TarWithOptions(req.ContextDir, &archive.TarOptions{
		ExcludePatterns: ContextExcludes,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create build context: %w", err)
	}
	defer tar.Close()

	opts := types.ImageBuildOptions{
		Tags:       []string{req.Tag},
		Dockerfile: req.Dockerfile,
		Labels:     req.Labels,
		Remove:     true, // Remove intermediate containers
	}
	if len(req.Platforms) > 0 {
		opts.Platform = req.Platforms[0]
	}

	// 2. Build Docker Image
	resp, err := a.cli.ImageBuild(ctx, tar, opts)
	if err != nil {
		return "", fmt.Errorf("failed to build image: %w", err)
	}
	defer resp.Body.Close()

	// 3. Wait for the build to finish, surfacing step errors
	var imageID string
	err = jsonmessage.DisplayJSONMessagesStream(resp.Body, a.out, 0, false, func(msg jsonmessage.JSONMessage) {
		var aux struct {
			ID string `json:"ID"`
		}
		if msg.Aux != nil && json.Unmarshal(*msg.Aux, &aux) == nil && aux.ID != "" {
			imageID = aux.ID
		}
	})
	if err != nil {
		return "", fmt.Errorf("failed to build image: %w", err)
	}
	if imageID == "" {
		imageID = req.Tag
	}
	return imageID, nil
}
