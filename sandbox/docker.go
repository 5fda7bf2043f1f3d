package sandbox

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

const containerWorkdir = "/workspace"

// DockerOptions configure the Docker provider.
type DockerOptions struct {
	// Image to run sample containers from.
	Image string
	// AutoPull pulls the image when it is missing locally.
	AutoPull bool
	// User runs container processes as this user (empty keeps the image default).
	User string
	// Env is extra environment variables for the container.
	Env []string
}

// DockerProvider provisions one container per sample via the Docker Engine
// API. The daemon is pinged at construction so misconfiguration fails fast,
// before any sample starts.
type DockerProvider struct {
	cli  *client.Client
	opts DockerOptions
}

// NewDockerProvider creates a Docker provider and verifies the daemon is
// accessible.
func NewDockerProvider(optFns ...func(o *DockerOptions)) (*DockerProvider, error) {
	opts := DockerOptions{
		Image:    "python:3.12-bookworm",
		AutoPull: true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("docker daemon not accessible (is Docker running?): %w", err)
	}

	return &DockerProvider{cli: cli, opts: opts}, nil
}

// Name implements Provider.
func (p *DockerProvider) Name() string { return "docker" }

// Close closes the underlying Docker client. Call after the run completes.
func (p *DockerProvider) Close() error { return p.cli.Close() }

// Provision implements Provider: ensures the image, creates and starts a
// container, seeds the sample files into the working directory.
func (p *DockerProvider) Provision(ctx context.Context, files map[string][]byte) (Environment, error) {
	if err := p.ensureImage(ctx); err != nil {
		return nil, err
	}

	resp, err := p.cli.ContainerCreate(ctx,
		&container.Config{
			Image:      p.opts.Image,
			Cmd:        []string{"sleep", "infinity"},
			WorkingDir: containerWorkdir,
			User:       p.opts.User,
			Env:        p.opts.Env,
		},
		&container.HostConfig{},
		nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("creating container: %w", err)
	}

	env := &dockerEnv{cli: p.cli, containerID: resp.ID}

	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = env.Close(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("starting container: %w", err)
	}

	for name, data := range files {
		if err := env.WriteFile(ctx, name, data); err != nil {
			_ = env.Close(context.WithoutCancel(ctx))
			return nil, err
		}
	}

	return env, nil
}

func (p *DockerProvider) ensureImage(ctx context.Context) error {
	images, err := p.cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return fmt.Errorf("listing images: %w", err)
	}
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == p.opts.Image {
				return nil
			}
		}
	}

	if !p.opts.AutoPull {
		return fmt.Errorf("image %s not found locally and auto-pull is disabled", p.opts.Image)
	}

	reader, err := p.cli.ImagePull(ctx, p.opts.Image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pulling image %s: %w", p.opts.Image, err)
	}
	defer func() { _ = reader.Close() }()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("reading pull response: %w", err)
	}
	return nil
}

type dockerEnv struct {
	cli         *client.Client
	containerID string

	mu     sync.Mutex
	closed bool
}

// Exec implements Environment via ContainerExecCreate/Attach. stdcopy.StdCopy
// blocks until process exit and does not observe context cancellation, so
// output is drained in a goroutine and the connection closed on timeout.
func (e *dockerEnv) Exec(ctx context.Context, cmd []string, timeout time.Duration) (*ExecResult, error) {
	if len(cmd) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	start := time.Now()

	execCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	execResp, err := e.cli.ContainerExecCreate(execCtx, e.containerID, container.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
		WorkingDir:   containerWorkdir,
	})
	if err != nil {
		return nil, fmt.Errorf("creating exec: %w", err)
	}

	attachResp, err := e.cli.ContainerExecAttach(execCtx, execResp.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, fmt.Errorf("attaching to exec: %w", err)
	}

	var stdout, stderr bytes.Buffer
	var bufMu sync.Mutex
	copyDone := make(chan error, 1)
	go func() {
		bufMu.Lock()
		_, copyErr := stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		bufMu.Unlock()
		copyDone <- copyErr
	}()

	select {
	case copyErr := <-copyDone:
		attachResp.Close()
		if copyErr != nil {
			return nil, fmt.Errorf("reading exec output: %w", copyErr)
		}
	case <-execCtx.Done():
		attachResp.Close()
		<-copyDone // unblocked by the closed connection
		bufMu.Lock()
		result := &ExecResult{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			ExitCode: -1,
			Duration: time.Since(start),
		}
		bufMu.Unlock()
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		return result, fmt.Errorf("exec timed out after %v", timeout)
	}

	exitCode, err := e.waitExit(execResp.ID)
	if err != nil {
		return nil, err
	}

	return &ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Duration: time.Since(start),
	}, nil
}

// waitExit polls for the exec exit code with a fresh context: the exec
// context may be close to expiring even though the process already finished.
func (e *dockerEnv) waitExit(execID string) (int, error) {
	inspectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		inspectResp, err := e.cli.ContainerExecInspect(inspectCtx, execID)
		if err != nil {
			return -1, fmt.Errorf("inspecting exec: %w", err)
		}
		if !inspectResp.Running {
			return inspectResp.ExitCode, nil
		}
		select {
		case <-inspectCtx.Done():
			return -1, fmt.Errorf("timeout waiting for exec exit code")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// WriteFile implements Environment by streaming a single-file tar archive
// into the container working directory.
func (e *dockerEnv) WriteFile(ctx context.Context, name string, data []byte) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	hdr := &tar.Header{
		Name: path.Clean(name),
		Mode: 0o644,
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing tar header: %w", err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("writing tar payload: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing tar archive: %w", err)
	}

	if err := e.cli.CopyToContainer(ctx, e.containerID, containerWorkdir, &buf, container.CopyToContainerOptions{}); err != nil {
		return fmt.Errorf("copying file %s into container: %w", name, err)
	}
	return nil
}

// Close implements Environment by force-removing the container.
func (e *dockerEnv) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	if err := e.cli.ContainerRemove(ctx, e.containerID, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("removing container: %w", err)
	}
	return nil
}
