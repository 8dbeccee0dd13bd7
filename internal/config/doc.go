// Package config loads moor's startup configuration.
//
// # Sources
//
// Values are layered, later sources winning:
//
//  1. Built-in defaults (see Default)
//  2. A TOML file: the explicit --config path, else ./moor.toml, else
//     ~/.config/moor/config.toml
//  3. A .env file in the working directory
//  4. MOOR_* environment variables, with "." in keys replaced by "_"
//     (MOOR_LOGS_TAIL, MOOR_POLL_CONTAINERS)
//  5. Command-line flags that were set explicitly
//
// # Keys
//
//   - docker.socket_path: daemon socket; empty resolves it through the
//     runtime's active context
//   - docker.context_command: runtime CLI used for that lookup (docker)
//   - poll.containers, poll.images, poll.volumes: refresh intervals (1s)
//   - logs.tail: lines of history a log stream starts with (100)
//   - logs.buffer_limit: bytes kept per log buffer, 0 for unbounded (1 MiB)
//   - log.file: moor's own log file (~/.local/state/moor/moor.log)
//   - log.level: debug, info, warn or error (info)
//
// Write produces a file in the same format for `moor init`.
package config
