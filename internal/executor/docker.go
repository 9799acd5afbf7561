package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

type DockerExecutor struct {
	client *client.Client
}

func NewDockerExecutor() (*DockerExecutor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	return &DockerExecutor{client: cli}, nil
}

func (e *DockerExecutor) Run(ctx context.Context, spec Spec) error {
	if spec.Image == "" {
		return fmt.Errorf("no image specified")
	}
	logger := slog.With("image", spec.Image)

	logger.Info("creating container")

	// Host networking so a storage endpoint on localhost stays reachable.
	resp, err := e.client.ContainerCreate(ctx, &container.Config{
		Image: spec.Image,
		Cmd:   spec.Command,
		Env:   spec.Env,
	}, &container.HostConfig{
		NetworkMode: "host",
	}, nil, nil, "")
	if err != nil {
		return fmt.Errorf("container create failed: %w", err)
	}

	logger = logger.With("container_id", resp.ID)
	// Clean up with a fresh context so cancellation still removes the container.
	defer func() {
		_ = e.client.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true})
	}()

	logger.Info("starting container")
	if err := e.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("container start failed: %w", err)
	}

	statusCh, errCh := e.client.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("container wait failed: %w", err)
		}
		return nil
	case result := <-statusCh:
		if result.StatusCode != 0 {
			logger.Warn("container failed", "exit_code", result.StatusCode)
			return &ExitError{Code: int(result.StatusCode)}
		}
		logger.Info("container completed successfully")
		return nil
	}
}

// Close releases the docker client.
func (e *DockerExecutor) Close() error {
	return e.client.Close()
}
