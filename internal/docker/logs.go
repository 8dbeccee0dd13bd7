package docker

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
)

// LogStream is a following log stream split into its two output channels.
type LogStream struct {
	primary    *io.PipeReader
	diagnostic *io.PipeReader
	body       io.ReadCloser
	cancel     context.CancelFunc
	closeOnce  sync.Once
}

// Primary returns the stdout channel.
func (s *LogStream) Primary() io.Reader { return s.primary }

// Diagnostic returns the stderr channel. TTY containers never write to it.
func (s *LogStream) Diagnostic() io.Reader { return s.diagnostic }

// Close terminates the stream. Pending reads on both channels return.
func (s *LogStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		err = s.body.Close()
		_ = s.primary.Close()
		_ = s.diagnostic.Close()
	})
	return err
}

// Follow opens a following log stream for containerID bounded to the last
// tail lines. The stream stays open until Close is called, ctx is cancelled
// or the daemon ends it. Opening fails if the daemon has not answered within
// the client's open timeout.
func (c *Client) Follow(ctx context.Context, containerID string, tail int) (*LogStream, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}

	inspectCtx, cancelInspect := context.WithTimeout(ctx, c.openTimeout)
	info, err := c.api.ContainerInspect(inspectCtx, containerID)
	cancelInspect()
	if err != nil {
		return nil, fmt.Errorf("inspect container %s: %w", containerID, err)
	}

	opts := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	}
	if tail > 0 {
		opts.Tail = strconv.Itoa(tail)
	}

	// The body outlives the open, so the deadline only applies until the
	// daemon answers.
	ctx, cancel := context.WithCancel(ctx)
	deadline := time.AfterFunc(c.openTimeout, cancel)
	body, err := c.api.ContainerLogs(ctx, containerID, opts)
	if !deadline.Stop() {
		cancel()
		if body != nil {
			_ = body.Close()
		}
		return nil, fmt.Errorf("open logs for container %s: %w", containerID, context.DeadlineExceeded)
	}
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open logs for container %s: %w", containerID, err)
	}

	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	stream := &LogStream{primary: outR, diagnostic: errR, body: body, cancel: cancel}

	// TTY containers send a raw stream without the stdout/stderr frame headers.
	tty := info.Config != nil && info.Config.Tty
	go func() {
		var copyErr error
		if tty {
			_, copyErr = io.Copy(outW, body)
		} else {
			_, copyErr = stdcopy.StdCopy(outW, errW, body)
		}
		_ = outW.CloseWithError(copyErr)
		_ = errW.CloseWithError(copyErr)
	}()

	return stream, nil
}
