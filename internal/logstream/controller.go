package logstream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/charmbracelet/x/ansi"

	"github.com/five82/moor/internal/apperrors"
)

const (
	// DefaultTail is the number of recent lines a new stream starts with.
	DefaultTail   = 100
	readChunkSize = 32 * 1024

	channelPrimary    = "primary"
	channelDiagnostic = "diagnostic"
)

// Stream is a running follow stream with two output channels.
type Stream interface {
	Primary() io.Reader
	Diagnostic() io.Reader
	Close() error
}

// Source opens follow streams.
type Source interface {
	Follow(ctx context.Context, containerID string, tail int) (Stream, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, containerID string, tail int) (Stream, error)

// Follow calls f.
func (f SourceFunc) Follow(ctx context.Context, containerID string, tail int) (Stream, error) {
	return f(ctx, containerID, tail)
}

// Key identifies a stream: the active container and its filter text. Any
// change of either restarts the stream.
type Key struct {
	ContainerID string
	Filter      string
}

// View is the published log state.
type View struct {
	ContainerID string
	Filter      string
	Text        string
	PendingLen  int  // bytes held back while paused
	Streaming   bool // a stream is open for ContainerID
	Ended       bool // both channels reached their end
	Paused      bool
	Sticky      bool // consumers should keep the view scrolled to the bottom
	Err         error
	ReadErr     error // last channel that stopped on something other than its end
}

// Options configure a Controller.
type Options struct {
	Tail        int // zero uses DefaultTail
	BufferLimit int // bytes per buffer; zero is unbounded
	OnChange    func()
	Logger      *slog.Logger
}

type session struct {
	key     Key
	ctx     context.Context
	cancel  context.CancelFunc
	stream  Stream
	readers sync.WaitGroup
	live    int
}

// Controller owns the single log stream of the active container. It is safe
// for concurrent use.
type Controller struct {
	parent   context.Context
	src      Source
	tail     int
	onChange func()
	logger   *slog.Logger

	mu          sync.Mutex
	gen         uint64
	want        Key // key of the current, starting or failed stream
	spawnCancel context.CancelFunc
	session     *session
	failed      *Key
	buffer      textBuffer
	pending     textBuffer
	paused      bool
	sticky      bool
	ended       bool
	err         error
	readErr     error
}

// NewController builds an idle Controller. Streams it opens are bound to
// parent and stop when it is cancelled.
func NewController(parent context.Context, src Source, opts Options) *Controller {
	tail := opts.Tail
	if tail <= 0 {
		tail = DefaultTail
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	onChange := opts.OnChange
	if onChange == nil {
		onChange = func() {}
	}
	return &Controller{
		parent:   parent,
		src:      src,
		tail:     tail,
		onChange: onChange,
		logger:   logger,
		buffer:   textBuffer{limit: opts.BufferLimit},
		pending:  textBuffer{limit: opts.BufferLimit},
	}
}

// Activate makes key the active stream. See Sync.
func (c *Controller) Activate(key Key) error {
	return c.Sync(func() Key { return key })
}

// Sync makes the key returned by desired the active stream. desired runs
// under the controller lock, so concurrent callers claim keys in the order
// they read them and the last reader wins. The same key as the current,
// starting or last failed stream is a no-op; anything else tears the current
// stream down and opens a new one. An empty container id deactivates.
//
// The source is called without the lock held. A spawn superseded while in
// flight is cancelled and its stream discarded. Spawn failures leave the
// controller idle and return *apperrors.StreamSpawnError.
func (c *Controller) Sync(desired func() Key) error {
	c.mu.Lock()
	key := desired()
	if key.ContainerID == "" {
		changed := c.deactivateLocked()
		c.mu.Unlock()
		if changed {
			c.onChange()
		}
		return nil
	}
	if c.want == key {
		c.mu.Unlock()
		return nil
	}
	c.teardownLocked()
	c.want = key
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(c.parent)
	c.spawnCancel = cancel
	c.mu.Unlock()
	c.onChange()

	stream, err := c.src.Follow(ctx, key.ContainerID, c.tail)

	c.mu.Lock()
	if c.gen != gen {
		// Superseded while spawning.
		c.mu.Unlock()
		cancel()
		if stream != nil {
			_ = stream.Close()
		}
		return nil
	}
	c.spawnCancel = nil
	if err != nil {
		cancel()
		spawnErr := &apperrors.StreamSpawnError{ContainerID: key.ContainerID, Err: err}
		c.err = spawnErr
		failed := key
		c.failed = &failed
		c.mu.Unlock()
		c.logger.Warn("log stream spawn failed", "container", key.ContainerID, "error", err)
		c.onChange()
		return spawnErr
	}

	sess := &session{key: key, ctx: ctx, cancel: cancel, stream: stream, live: 2}
	c.session = sess
	c.sticky = true
	sess.readers.Add(2)
	go c.read(sess, stream.Primary(), channelPrimary)
	go c.read(sess, stream.Diagnostic(), channelDiagnostic)
	c.mu.Unlock()

	c.logger.Debug("log stream started", "container", key.ContainerID, "filtered", key.Filter != "")
	c.onChange()
	return nil
}

// Deactivate stops the current stream, if any, and returns to idle.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	changed := c.deactivateLocked()
	c.mu.Unlock()
	if changed {
		c.onChange()
	}
}

func (c *Controller) deactivateLocked() bool {
	changed := c.session != nil || c.want != (Key{}) || c.err != nil
	c.teardownLocked()
	c.gen++
	return changed
}

// teardownLocked kills the stream and clears all per-stream state. Readers of
// the old stream observe the cancellation and never append afterwards.
func (c *Controller) teardownLocked() {
	if c.spawnCancel != nil {
		c.spawnCancel()
		c.spawnCancel = nil
	}
	if sess := c.session; sess != nil {
		sess.cancel()
		_ = sess.stream.Close()
		c.session = nil
	}
	c.want = Key{}
	c.failed = nil
	c.err = nil
	c.readErr = nil
	c.buffer.reset()
	c.pending.reset()
	c.paused = false
	c.sticky = false
	c.ended = false
}

// Pause holds new output in the pending buffer.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.session == nil || c.paused {
		c.mu.Unlock()
		return
	}
	c.paused = true
	c.mu.Unlock()
	c.onChange()
}

// Resume moves pending output into the visible buffer and sticks the view
// to the bottom.
func (c *Controller) Resume() {
	c.mu.Lock()
	if c.session == nil || !c.paused {
		c.mu.Unlock()
		return
	}
	c.buffer.appendBuffer(&c.pending)
	c.pending.reset()
	c.paused = false
	c.sticky = true
	c.mu.Unlock()
	c.onChange()
}

// SetSticky records whether the consumer follows the bottom of the log.
func (c *Controller) SetSticky(sticky bool) {
	c.mu.Lock()
	c.sticky = sticky
	c.mu.Unlock()
}

// View returns a copy of the published log state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Text:       c.buffer.String(),
		PendingLen: c.pending.len(),
		Paused:     c.paused,
		Sticky:     c.sticky,
		Ended:      c.ended,
		Err:        c.err,
		ReadErr:    c.readErr,
	}
	if c.session != nil {
		v.ContainerID = c.session.key.ContainerID
		v.Filter = c.session.key.Filter
		v.Streaming = true
	} else if c.failed != nil {
		v.ContainerID = c.failed.ContainerID
		v.Filter = c.failed.Filter
	}
	return v
}

// Close stops the current stream and waits for its readers to exit.
func (c *Controller) Close() {
	c.mu.Lock()
	sess := c.session
	c.deactivateLocked()
	c.mu.Unlock()
	if sess != nil {
		sess.readers.Wait()
	}
}

func (c *Controller) read(sess *session, r io.Reader, channel string) {
	defer sess.readers.Done()
	defer c.readerDone(sess)

	var filter *lineFilter
	if sess.key.Filter != "" {
		filter = newLineFilter(sess.key.Filter)
	}

	buf := make([]byte, readChunkSize)
	var carry []byte
	for {
		n, err := r.Read(buf)
		if n > 0 {
			var chunk []byte
			chunk, carry = splitPending(append(carry, buf[:n]...))
			text := ansi.Strip(string(chunk))
			if filter != nil {
				text = filter.feed(text)
			}
			if text != "" && !c.append(sess, text) {
				return
			}
		}
		if err != nil {
			if filter != nil {
				if rest := filter.flush(); rest != "" {
					c.append(sess, rest)
				}
			}
			if !errors.Is(err, io.EOF) && sess.ctx.Err() == nil {
				readErr := &apperrors.ReadError{ContainerID: sess.key.ContainerID, Channel: channel, Err: err}
				c.logger.Debug("log reader stopped", "error", readErr)
				c.recordReadError(sess, readErr)
			}
			return
		}
	}
}

// append adds text to the buffer of sess. It reports false once sess is no
// longer the current stream.
func (c *Controller) append(sess *session, text string) bool {
	c.mu.Lock()
	if c.session != sess || sess.ctx.Err() != nil {
		c.mu.Unlock()
		return false
	}
	if c.paused {
		c.pending.append(text)
	} else {
		c.buffer.append(text)
	}
	c.mu.Unlock()
	c.onChange()
	return true
}

func (c *Controller) recordReadError(sess *session, err error) {
	c.mu.Lock()
	current := c.session == sess
	if current {
		c.readErr = err
	}
	c.mu.Unlock()
	if current {
		c.onChange()
	}
}

func (c *Controller) readerDone(sess *session) {
	c.mu.Lock()
	sess.live--
	ended := c.session == sess && sess.live == 0
	if ended {
		c.ended = true
	}
	c.mu.Unlock()
	if ended {
		c.onChange()
	}
}
