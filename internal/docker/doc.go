// Package docker provides the transport to the container daemon.
//
// # Overview
//
// The Client issues request/response calls against the daemon's Engine API
// over a local Unix socket and decodes the JSON bodies into raw records
// (RawContainer, RawImage, RawVolume, RawHistory). Mapping those records into
// the dashboard's entity shapes is the job of the resource package.
//
// # Socket Resolution
//
// The socket path is resolved once, when the Client is built:
//
//  1. Options.SocketPath when set
//  2. DOCKER_HOST when it uses the unix:// scheme
//  3. the host of the active runtime context
//     (`docker context inspect --format '{{.Endpoints.docker.Host}}'`)
//  4. DefaultSocketPath
//
// # Error Handling
//
// Fetch never retries; the pollers' cadence is the retry mechanism.
//
//   - *apperrors.TransportError: socket absent or refused, error status
//   - *apperrors.ParseError: body is not the expected JSON (carries its length)
//
// # Log Streams
//
// Follow opens a following log request for one container and splits the
// multiplexed body into two pipes with stdcopy: Primary (stdout) and
// Diagnostic (stderr). Closing the LogStream cancels the request, which is the
// equivalent of killing a `docker logs --follow` process.
package docker
