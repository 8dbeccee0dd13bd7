package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/moor/internal/docker"
	"github.com/five82/moor/internal/logstream"
	"github.com/five82/moor/internal/resource"
	"github.com/five82/moor/internal/state"
)

// Intervals sets the poll cadence of each entity kind.
type Intervals struct {
	Containers time.Duration
	Images     time.Duration
	Volumes    time.Duration
}

// EngineOptions configure an Engine.
type EngineOptions struct {
	Tail        int
	BufferLimit int
	Logger      *slog.Logger
}

// Engine owns the published state and the log stream, and accepts the
// dashboard's intents. All methods are safe for concurrent use.
type Engine struct {
	store   *state.Store
	fetcher docker.Fetcher
	streams *logstream.Controller
	logger  *slog.Logger
	now     func() time.Time

	history chan string
	// historyMu guards historyInflight, the image queued or being fetched.
	historyMu       sync.Mutex
	historyInflight string
}

// NewEngine wires a store to its data sources. Streams started by the engine
// are bound to ctx.
func NewEngine(ctx context.Context, store *state.Store, fetcher docker.Fetcher, source logstream.Source, opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		store:   store,
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
		history: make(chan string, 1),
	}
	e.streams = logstream.NewController(ctx, source, logstream.Options{
		Tail:        opts.Tail,
		BufferLimit: opts.BufferLimit,
		OnChange:    store.Notify,
		Logger:      logger,
	})
	return e
}

// Run polls every kind on its interval and serves image history requests
// until ctx is cancelled.
func (e *Engine) Run(ctx context.Context, iv Intervals) error {
	g, ctx := errgroup.WithContext(ctx)
	pollers := []poller{
		{kind: resource.KindContainer, interval: iv.Containers, refresh: e.RefreshContainers, logger: e.logger},
		{kind: resource.KindImage, interval: iv.Images, refresh: e.RefreshImages, logger: e.logger},
		{kind: resource.KindVolume, interval: iv.Volumes, refresh: e.RefreshVolumes, logger: e.logger},
	}
	for _, p := range pollers {
		g.Go(func() error { return p.run(ctx) })
	}
	g.Go(func() error { return e.runHistory(ctx) })
	return g.Wait()
}

// Close stops the log stream and waits for its readers.
func (e *Engine) Close() {
	e.streams.Close()
}

// RefreshContainers fetches, normalizes and publishes containers, then
// follows the reconciled selection with the log stream.
func (e *Engine) RefreshContainers(ctx context.Context) error {
	raw, err := e.fetcher.Containers(ctx)
	if err != nil {
		e.store.UpdateContainers(nil, err)
		return err
	}
	e.store.UpdateContainers(resource.NormalizeContainers(raw), nil)
	e.syncStream()
	return nil
}

// RefreshImages fetches, normalizes and publishes images, then requests the
// history of the selected image if it is not already published.
func (e *Engine) RefreshImages(ctx context.Context) error {
	raw, err := e.fetcher.Images(ctx)
	if err != nil {
		e.store.UpdateImages(nil, err)
		return err
	}
	selected := e.store.UpdateImages(resource.NormalizeImages(raw), nil)
	if selected != e.store.HistoryImage() {
		e.requestHistory(selected)
	}
	return nil
}

// RefreshVolumes fetches, normalizes and publishes volumes.
func (e *Engine) RefreshVolumes(ctx context.Context) error {
	raw, err := e.fetcher.Volumes(ctx)
	if err != nil {
		e.store.UpdateVolumes(nil, err)
		return err
	}
	e.store.UpdateVolumes(resource.NormalizeVolumes(raw), nil)
	return nil
}

// Select makes id the selection of kind. An empty id clears it.
func (e *Engine) Select(kind resource.Kind, id string) error {
	if err := e.store.Select(kind, id); err != nil {
		return err
	}
	switch kind {
	case resource.KindContainer:
		e.syncStream()
	case resource.KindImage:
		e.requestHistory(id)
	}
	return nil
}

// Move selects the entity delta positions away from the current selection.
func (e *Engine) Move(kind resource.Kind, delta int) error {
	snap := e.store.Snapshot()
	var next string
	switch kind {
	case resource.KindContainer:
		next = resource.Step(snap.Containers.Items, snap.Containers.Selected, delta)
	case resource.KindImage:
		next = resource.Step(snap.Images.Items, snap.Images.Selected, delta)
	case resource.KindVolume:
		next = resource.Step(snap.Volumes.Items, snap.Volumes.Selected, delta)
	default:
		return fmt.Errorf("%w: %v", state.ErrUnknownKind, kind)
	}
	if next == snap.Selected(kind) {
		return nil
	}
	return e.Select(kind, next)
}

// SetFilter stores the log filter of a container. Changing the filter of the
// active container restarts its stream once; other containers only have the
// value stored.
func (e *Engine) SetFilter(containerID, text string) {
	if containerID == "" {
		return
	}
	if e.store.SetFilter(containerID, text) {
		e.syncStream()
	}
}

// PauseLogs holds new log output back from the visible buffer.
func (e *Engine) PauseLogs() { e.streams.Pause() }

// ResumeLogs releases held log output.
func (e *Engine) ResumeLogs() { e.streams.Resume() }

// SetSticky records whether the consumer follows the end of the log.
func (e *Engine) SetSticky(sticky bool) { e.streams.SetSticky(sticky) }

// Snapshot returns the published entity state.
func (e *Engine) Snapshot() state.Snapshot { return e.store.Snapshot() }

// Logs returns the published log state.
func (e *Engine) Logs() logstream.View { return e.streams.View() }

// Changes wakes consumers after published state changes.
func (e *Engine) Changes() <-chan struct{} { return e.store.Changes() }

// syncStream points the log stream at the selected container and its filter.
// The controller reads the key under its own lock, so concurrent callers
// cannot apply a stale key after a newer one, and a slow spawn never holds
// up selection changes.
func (e *Engine) syncStream() {
	// Spawn failures are recorded in the log view.
	_ = e.streams.Sync(e.streamKey)
}

func (e *Engine) streamKey() logstream.Key {
	id, filter := e.store.Stream()
	return logstream.Key{ContainerID: id, Filter: filter}
}

// requestHistory queues a history fetch, replacing any request not yet
// picked up. An image already queued or being fetched is not requested again.
func (e *Engine) requestHistory(imageID string) {
	if imageID == "" {
		return
	}
	e.historyMu.Lock()
	defer e.historyMu.Unlock()
	if imageID == e.historyInflight {
		return
	}
	e.historyInflight = imageID
	for {
		select {
		case e.history <- imageID:
			return
		default:
		}
		select {
		case <-e.history:
		default:
		}
	}
}

func (e *Engine) historyDone(imageID string) {
	e.historyMu.Lock()
	if e.historyInflight == imageID {
		e.historyInflight = ""
	}
	e.historyMu.Unlock()
}

func (e *Engine) runHistory(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case id := <-e.history:
			e.fetchHistory(ctx, id)
			e.historyDone(id)
		}
	}
}

func (e *Engine) fetchHistory(ctx context.Context, imageID string) {
	if e.store.Snapshot().Images.Selected != imageID {
		return
	}
	raw, err := e.fetcher.ImageHistory(ctx, imageID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		e.logger.Warn("image history fetch failed", "image", imageID, "error", err)
		e.store.SetHistory(imageID, nil, err)
		return
	}
	e.store.SetHistory(imageID, resource.NormalizeHistory(raw, e.now()), nil)
}
