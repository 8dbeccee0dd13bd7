package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	dockerclient "github.com/docker/docker/client"
	jsoniter "github.com/json-iterator/go"

	"github.com/five82/moor/internal/apperrors"
)

// Fetcher defines the daemon queries the pollers depend on.
// This interface is implemented by *Client and can be used for testing.
type Fetcher interface {
	Containers(ctx context.Context) ([]RawContainer, error)
	Images(ctx context.Context) ([]RawImage, error)
	Volumes(ctx context.Context) ([]RawVolume, error)
	ImageHistory(ctx context.Context, imageID string) ([]RawHistory, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

const (
	// DefaultSocketPath is used when the runtime context cannot be resolved.
	DefaultSocketPath     = "/var/run/docker.sock"
	defaultContextCommand = "docker"
	defaultUserAgent      = "moor/0.1"
	// The host part is ignored: the transport always dials the socket.
	daemonBaseURL        = "http://docker"
	requestTimeout       = 5 * time.Second
	contextLookupTimeout = 3 * time.Second
	streamOpenTimeout    = 10 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options configure a Client.
type Options struct {
	SocketPath     string // empty resolves through the runtime context
	ContextCommand string // CLI used for context lookup; empty uses "docker"
	Logger         *slog.Logger
}

// Client talks to the container daemon over its Unix socket. It is safe for
// concurrent use by several pollers and the log stream controller.
type Client struct {
	api        *dockerclient.Client
	http       *http.Client
	socketPath string
	userAgent  string
	// openTimeout bounds how long Follow waits for the daemon to answer.
	openTimeout time.Duration
}

// contextLookup returns the daemon host of the active runtime context.
type contextLookup func(ctx context.Context, command string) (string, error)

// NewClient resolves the daemon socket once and builds a Client bound to it.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	socket := resolveSocket(ctx, opts, lookupContextHost, logger)

	api, err := dockerclient.NewClientWithOpts(
		dockerclient.WithHost("unix://"+socket),
		dockerclient.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create daemon client for socket %s: %w", socket, err)
	}

	httpClient := api.HTTPClient()
	httpClient.Timeout = requestTimeout

	logger.Debug("daemon client ready", "socket", socket)
	return &Client{
		api:         api,
		http:        httpClient,
		socketPath:  socket,
		userAgent:   defaultUserAgent,
		openTimeout: streamOpenTimeout,
	}, nil
}

// SocketPath returns the resolved daemon socket path.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.api.Close()
}

// Fetch issues a GET for path and decodes the JSON body into dest.
// Connection failures and error statuses return *apperrors.TransportError,
// malformed bodies return *apperrors.ParseError. There are no retries.
func (c *Client) Fetch(ctx context.Context, path string, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, daemonBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportError(path, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode >= 400 {
		return c.transportError(path, fmt.Errorf("status %d: %s", resp.StatusCode, daemonMessage(body)))
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &apperrors.ParseError{Path: path, Length: len(body), Err: err}
	}
	return nil
}

// Containers lists all containers, including stopped ones.
func (c *Client) Containers(ctx context.Context) ([]RawContainer, error) {
	var payload []RawContainer
	if err := c.Fetch(ctx, "/containers/json?all=1", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Images lists the local images.
func (c *Client) Images(ctx context.Context) ([]RawImage, error) {
	var payload []RawImage
	if err := c.Fetch(ctx, "/images/json", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Volumes lists the volumes known to the daemon.
func (c *Client) Volumes(ctx context.Context) ([]RawVolume, error) {
	var payload volumeListResponse
	if err := c.Fetch(ctx, "/volumes", &payload); err != nil {
		return nil, err
	}
	return payload.Volumes, nil
}

// ImageHistory returns the layer history of one image.
func (c *Client) ImageHistory(ctx context.Context, imageID string) ([]RawHistory, error) {
	if strings.TrimSpace(imageID) == "" {
		return nil, fmt.Errorf("image id required")
	}
	var payload []RawHistory
	if err := c.Fetch(ctx, "/images/"+url.PathEscape(imageID)+"/history", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) transportError(path string, err error) error {
	return &apperrors.TransportError{SocketPath: c.socketPath, Path: path, Err: err}
}

func daemonMessage(body []byte) string {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}

// resolveSocket picks the daemon socket: explicit option, then a unix://
// DOCKER_HOST, then the active runtime context, then DefaultSocketPath.
func resolveSocket(ctx context.Context, opts Options, lookup contextLookup, logger *slog.Logger) string {
	if path := strings.TrimSpace(opts.SocketPath); path != "" {
		return strings.TrimPrefix(path, "unix://")
	}
	if host := os.Getenv("DOCKER_HOST"); strings.HasPrefix(host, "unix://") {
		return strings.TrimPrefix(host, "unix://")
	}

	command := opts.ContextCommand
	if strings.TrimSpace(command) == "" {
		command = defaultContextCommand
	}
	host, err := lookup(ctx, command)
	if err != nil {
		logger.Warn("runtime context lookup failed, using default socket",
			"command", command, "socket", DefaultSocketPath, "error", err)
		return DefaultSocketPath
	}
	path := strings.TrimPrefix(strings.TrimSpace(host), "unix://")
	if path == "" || strings.Contains(path, "://") {
		return DefaultSocketPath
	}
	return path
}

func lookupContextHost(ctx context.Context, command string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, contextLookupTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, command, "context", "inspect", "--format", "{{.Endpoints.docker.Host}}").Output()
	if err != nil {
		return "", fmt.Errorf("%s context inspect: %w", command, err)
	}
	return string(out), nil
}
