package docker

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cocopam/binny-buddy-ai/internal/core/ports"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

// Adapter implements ports.ContainerRunner using Docker SDK
type Adapter struct {
	cli *client.Client
}

// NewAdapter creates a new Docker adapter instance
func NewAdapter() (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Adapter{cli: cli}, nil
}

func (a *Adapter) Close() error {
	return a.cli.Close()
}

// StartContainer creates and starts a container from a local image and
// publishes opts.ContainerPort on the loopback interface.
func (a *Adapter) StartContainer(ctx context.Context, opts ports.RunOptions) (ports.RunningContainer, error) {
	port, err := nat.NewPort(nat.SplitProtoPort(opts.ContainerPort))
	if err != nil {
		return ports.RunningContainer{}, fmt.Errorf("invalid container port %q: %w", opts.ContainerPort, err)
	}

	// 1. Create Container
	resp, err := a.cli.ContainerCreate(ctx, &container.Config{
		Image:        opts.Image,
		Env:          opts.Env,
		ExposedPorts: nat.PortSet{port: struct{}{}},
	}, &container.HostConfig{
		PortBindings: nat.PortMap{
			port: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: opts.HostPort}},
		},
	}, nil, nil, "")
	if err != nil {
		return ports.RunningContainer{}, fmt.Errorf("failed to create container: %w", err)
	}

	// 2. Start Container
	if err := a.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		a.remove(resp.ID)
		return ports.RunningContainer{}, fmt.Errorf("failed to start container: %w", err)
	}

	// 3. Inspect for the effective env and the bound host port
	info, err := a.cli.ContainerInspect(ctx, resp.ID)
	if err != nil {
		a.remove(resp.ID)
		return ports.RunningContainer{}, fmt.Errorf("failed to inspect container: %w", err)
	}

	running := ports.RunningContainer{ID: resp.ID, HostPort: opts.HostPort}
	if info.Config != nil {
		running.Env = info.Config.Env
	}
	if info.NetworkSettings != nil {
		if b := info.NetworkSettings.Ports[port]; len(b) > 0 {
			running.HostPort = b[0].HostPort
		}
	}
	return running, nil
}

// StopContainer stops and removes a container
func (a *Adapter) StopContainer(ctx context.Context, id string) error {
	timeout := 10
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := a.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	if err := a.cli.ContainerRemove(ctx, id, container.RemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// GetContainerLogs returns the container's combined output so far
func (a *Adapter) GetContainerLogs(ctx context.Context, id string) (io.ReadCloser, error) {
	return a.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Timestamps: true,
	})
}

func (a *Adapter) remove(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = a.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
}
