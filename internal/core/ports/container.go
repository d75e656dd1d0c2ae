package ports

import (
	"context"
	"io"
)

// RunOptions configures a throwaway container started from the service image.
type RunOptions struct {
	Image         string
	ContainerPort string
	HostPort      string
	Env           []string
}

// RunningContainer is what a ContainerRunner reports about a started container.
type RunningContainer struct {
	ID       string
	HostPort string
	Env      []string
}

// ContainerRunner starts and tears down containers for smoke checks.
// This allows us to switch between Docker, Podman, or a fake in tests.
type ContainerRunner interface {
	StartContainer(ctx context.Context, opts RunOptions) (RunningContainer, error)
	StopContainer(ctx context.Context, id string) error
	GetContainerLogs(ctx context.Context, id string) (io.ReadCloser, error)
}
