// Package release builds, publishes and smoke-checks the service image.
package release

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cocopam/binny-buddy-ai/internal/core/ports"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTag        = "cocopam/binny-buddy-ai:latest"
	DefaultDockerfile = "Dockerfile"
)

// DefaultPlatforms are the targets of a published image.
var DefaultPlatforms = []string{"linux/arm64", "linux/amd64"}

// Options selects what and where to build.
type Options struct {
	ContextDir string
	Dockerfile string
	Tag        string
	Platforms  []string
}

type Releaser struct {
	builder   ports.ImageBuilder
	publisher ports.ImagePublisher
	revision  func(dir string) (string, error)
	now       func() time.Time
	log       logrus.FieldLogger
}

// New returns a Releaser. builder or publisher may be nil when the
// corresponding command is not used.
func New(builder ports.ImageBuilder, publisher ports.ImagePublisher, log logrus.FieldLogger) *Releaser {
	return &Releaser{
		builder:   builder,
		publisher: publisher,
		revision:  Revision,
		now:       time.Now,
		log:       log,
	}
}

// ParsePlatforms splits a comma separated os/arch list.
func ParsePlatforms(s string) ([]string, error) {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.Split(p, "/")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid platform %q, want os/arch[/variant]", p)
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no platforms given")
	}
	return out, nil
}

func (r *Releaser) request(opts Options) ports.BuildRequest {
	req := ports.BuildRequest{
		ContextDir: opts.ContextDir,
		Dockerfile: opts.Dockerfile,
		Tag:        opts.Tag,
		Platforms:  opts.Platforms,
		Labels: map[string]string{
			"org.opencontainers.image.created": r.now().UTC().Format(time.RFC3339),
			"org.opencontainers.image.title":   "binny-buddy-ai",
		},
	}
	if req.ContextDir == "" {
		req.ContextDir = "."
	}
	if req.Dockerfile == "" {
		req.Dockerfile = DefaultDockerfile
	}
	if req.Tag == "" {
		req.Tag = DefaultTag
	}

	rev, err := r.revision(req.ContextDir)
	if err != nil {
		r.log.WithError(err).Warn("could not determine git revision")
	} else {
		req.Labels["org.opencontainers.image.revision"] = rev
	}
	return req
}

// Build builds the image for the local daemon.
func (r *Releaser) Build(ctx context.Context, opts Options) (string, error) {
	if r.builder == nil {
		return "", fmt.Errorf("no image builder configured")
	}
	req := r.request(opts)
	r.log.WithFields(logrus.Fields{"tag": req.Tag, "context": req.ContextDir}).Info("building image")

	id, err := r.builder.BuildImage(ctx, req)
	if err != nil {
		return "", err
	}
	r.log.WithField("id", id).Info("image built")
	return id, nil
}

// Publish builds every platform and pushes the multi-platform image.
func (r *Releaser) Publish(ctx context.Context, opts Options) (string, error) {
	if r.publisher == nil {
		return "", fmt.Errorf("no image publisher configured")
	}
	if len(opts.Platforms) == 0 {
		opts.Platforms = DefaultPlatforms
	}
	req := r.request(opts)
	r.log.WithFields(logrus.Fields{
		"tag":       req.Tag,
		"platforms": strings.Join(req.Platforms, ","),
	}).Info("publishing image")

	ref, err := r.publisher.Publish(ctx, req)
	if err != nil {
		return "", err
	}
	r.log.WithField("ref", ref).Info("image published")
	return ref, nil
}
