// Package apperrors provides the error types shared by the moor engine.
// None of them is fatal: each one describes a failure that the owning loop
// recovers from locally and surfaces to the consuming layer.
package apperrors

import "fmt"

// TransportError reports that the daemon could not be reached or answered
// with a non-success status. Pollers retry on their next tick.
type TransportError struct {
	SocketPath string // Daemon socket path (e.g., /var/run/docker.sock)
	Path       string // Resource path that was requested
	Err        error  // Underlying error
}

// Error implements the error interface for TransportError.
func (e *TransportError) Error() string {
	if e.SocketPath != "" {
		return fmt.Sprintf("daemon request %s failed (socket: %s): %v", e.Path, e.SocketPath, e.Err)
	}
	return fmt.Sprintf("daemon request %s failed: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError reports a daemon response body that was not valid JSON for the
// expected shape. Length is the size of the raw body in bytes.
type ParseError struct {
	Path   string
	Length int
	Err    error
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse response from %s (%d bytes): %v", e.Path, e.Length, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// StreamSpawnError reports that a log follow stream could not be opened.
type StreamSpawnError struct {
	ContainerID string
	Err         error
}

// Error implements the error interface for StreamSpawnError.
func (e *StreamSpawnError) Error() string {
	return fmt.Sprintf("start log stream for %s: %v", e.ContainerID, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *StreamSpawnError) Unwrap() error {
	return e.Err
}

// ReadError reports that one output channel of a log stream failed while
// streaming. Only that channel's reader stops.
type ReadError struct {
	ContainerID string
	Channel     string // "primary" or "diagnostic"
	Err         error
}

// Error implements the error interface for ReadError.
func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s logs for %s: %v", e.Channel, e.ContainerID, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *ReadError) Unwrap() error {
	return e.Err
}
