package logstream

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/moor/internal/apperrors"
)

type fakeStream struct {
	primaryR, diagR *io.PipeReader
	primaryW, diagW *io.PipeWriter
	closed          chan struct{}
	closeOnce       sync.Once
}

func newFakeStream() *fakeStream {
	pr, pw := io.Pipe()
	dr, dw := io.Pipe()
	return &fakeStream{primaryR: pr, primaryW: pw, diagR: dr, diagW: dw, closed: make(chan struct{})}
}

func (s *fakeStream) Primary() io.Reader    { return s.primaryR }
func (s *fakeStream) Diagnostic() io.Reader { return s.diagR }

func (s *fakeStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.primaryR.Close()
		_ = s.diagR.Close()
	})
	return nil
}

func (s *fakeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

type followCall struct {
	containerID string
	tail        int
}

type fakeSource struct {
	mu      sync.Mutex
	calls   []followCall
	streams []*fakeStream
	err     error
}

func (f *fakeSource) Follow(_ context.Context, containerID string, tail int) (Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, followCall{containerID: containerID, tail: tail})
	if f.err != nil {
		return nil, f.err
	}
	s := newFakeStream()
	f.streams = append(f.streams, s)
	return s, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSource) stream(i int) *fakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streams[i]
}

func newTestController(t *testing.T, src Source, opts Options) *Controller {
	t.Helper()
	c := NewController(context.Background(), src, opts)
	t.Cleanup(c.Close)
	return c
}

func write(t *testing.T, w *io.PipeWriter, text string) {
	t.Helper()
	_, err := w.Write([]byte(text))
	require.NoError(t, err)
}

// waitText polls until the visible buffer equals want.
func waitText(t *testing.T, c *Controller, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.View().Text == want
	}, time.Second, 5*time.Millisecond, "text never became %q; got %q", want, c.View().Text)
}

func TestController_IdleView(t *testing.T) {
	c := newTestController(t, &fakeSource{}, Options{})
	v := c.View()
	assert.False(t, v.Streaming)
	assert.Empty(t, v.ContainerID)
	assert.Empty(t, v.Text)
	assert.NoError(t, v.Err)
}

func TestController_ActivateStreamsBothChannels(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{Tail: 50})

	require.NoError(t, c.Activate(Key{ContainerID: "abc"}))
	require.Equal(t, 1, src.callCount())
	assert.Equal(t, followCall{containerID: "abc", tail: 50}, src.calls[0])

	s := src.stream(0)
	write(t, s.primaryW, "out\n")
	waitText(t, c, "out\n")
	write(t, s.diagW, "err\n")
	waitText(t, c, "out\nerr\n")

	v := c.View()
	assert.True(t, v.Streaming)
	assert.True(t, v.Sticky)
	assert.Equal(t, "abc", v.ContainerID)
}

func TestController_DefaultTail(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{})
	require.NoError(t, c.Activate(Key{ContainerID: "abc"}))
	assert.Equal(t, DefaultTail, src.calls[0].tail)
}

func TestController_SameKeyIsNoOp(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{})

	require.NoError(t, c.Activate(Key{ContainerID: "abc", Filter: "x"}))
	require.NoError(t, c.Activate(Key{ContainerID: "abc", Filter: "x"}))
	assert.Equal(t, 1, src.callCount())
}

func TestController_SwitchIsolatesStreams(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{})

	require.NoError(t, c.Activate(Key{ContainerID: "a"}))
	old := src.stream(0)
	write(t, old.primaryW, "from a\n")
	waitText(t, c, "from a\n")

	require.NoError(t, c.Activate(Key{ContainerID: "b"}))
	assert.True(t, old.isClosed(), "old stream is closed on switch")
	v := c.View()
	assert.Equal(t, "b", v.ContainerID)
	assert.Empty(t, v.Text, "buffer starts empty for the new stream")

	// Late output from the old stream goes nowhere.
	_, err := old.primaryW.Write([]byte("late\n"))
	assert.Error(t, err)

	write(t, src.stream(1).primaryW, "from b\n")
	waitText(t, c, "from b\n")
}

func TestController_FilterChangeRestartsWithEmptyBuffer(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{})

	require.NoError(t, c.Activate(Key{ContainerID: "abc"}))
	write(t, src.stream(0).primaryW, "GET /a\nPOST /b\n")
	waitText(t, c, "GET /a\nPOST /b\n")

	require.NoError(t, c.Activate(Key{ContainerID: "abc", Filter: "GET"}))
	require.Equal(t, 2, src.callCount())
	assert.True(t, src.stream(0).isClosed())
	assert.Empty(t, c.View().Text)
	assert.Equal(t, "GET", c.View().Filter)

	s := src.stream(1)
	write(t, s.primaryW, "GET /a\nPOST /b\n")
	write(t, s.diagW, "GET /c\n")
	require.Eventually(t, func() bool {
		text := c.View().Text
		return strings.Contains(text, "GET /a\n") && strings.Contains(text, "GET /c\n")
	}, time.Second, 5*time.Millisecond)
	assert.NotContains(t, c.View().Text, "POST")
}

func TestController_PauseResume(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{})

	require.NoError(t, c.Activate(Key{ContainerID: "abc"}))
	s := src.stream(0)
	write(t, s.primaryW, "X")
	waitText(t, c, "X")

	c.Pause()
	c.SetSticky(false)
	write(t, s.primaryW, "Y")
	require.Eventually(t, func() bool {
		return c.View().PendingLen == 1
	}, time.Second, 5*time.Millisecond)

	v := c.View()
	assert.True(t, v.Paused)
	assert.Equal(t, "X", v.Text, "visible text is frozen while paused")

	c.Resume()
	v = c.View()
	assert.False(t, v.Paused)
	assert.Equal(t, "XY", v.Text)
	assert.Zero(t, v.PendingLen)
	assert.True(t, v.Sticky, "resume sticks to the bottom")
}

func TestController_PauseWithoutStreamIsIgnored(t *testing.T) {
	c := newTestController(t, &fakeSource{}, Options{})
	c.Pause()
	assert.False(t, c.View().Paused)
}

func TestController_SwitchClearsPause(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{})

	require.NoError(t, c.Activate(Key{ContainerID: "a"}))
	c.Pause()
	require.NoError(t, c.Activate(Key{ContainerID: "b"}))
	assert.False(t, c.View().Paused)

	write(t, src.stream(1).primaryW, "b\n")
	waitText(t, c, "b\n")
}

func TestController_SpawnFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("no such container")}
	c := newTestController(t, src, Options{})

	err := c.Activate(Key{ContainerID: "gone"})
	var spawnErr *apperrors.StreamSpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, "gone", spawnErr.ContainerID)

	v := c.View()
	assert.False(t, v.Streaming)
	assert.Equal(t, "gone", v.ContainerID)
	require.Error(t, v.Err)

	// The failed key is not retried until something changes.
	require.NoError(t, c.Activate(Key{ContainerID: "gone"}))
	assert.Equal(t, 1, src.callCount())

	c.Deactivate()
	assert.NoError(t, c.View().Err)
	assert.Empty(t, c.View().ContainerID)
}

func TestController_OneChannelEndingKeepsTheOther(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{})

	require.NoError(t, c.Activate(Key{ContainerID: "abc"}))
	s := src.stream(0)
	require.NoError(t, s.diagW.CloseWithError(errors.New("broken pipe")))

	write(t, s.primaryW, "still here\n")
	waitText(t, c, "still here\n")
	assert.False(t, c.View().Ended)

	require.NoError(t, s.primaryW.Close())
	require.Eventually(t, func() bool {
		return c.View().Ended
	}, time.Second, 5*time.Millisecond)
	assert.True(t, c.View().Streaming)
}

func TestController_StripsControlSequences(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{})

	require.NoError(t, c.Activate(Key{ContainerID: "abc"}))
	write(t, src.stream(0).primaryW, "\x1b[31mred\x1b[0m\n")
	waitText(t, c, "red\n")
}

func TestController_CarriesSplitRunes(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{})

	require.NoError(t, c.Activate(Key{ContainerID: "abc"}))
	w := src.stream(0).primaryW
	euro := []byte("€\n")
	_, err := w.Write(euro[:2])
	require.NoError(t, err)
	_, err = w.Write(euro[2:])
	require.NoError(t, err)
	waitText(t, c, "€\n")
}

func TestController_CarriesSplitEscapeSequences(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{})

	require.NoError(t, c.Activate(Key{ContainerID: "abc"}))
	w := src.stream(0).primaryW
	write(t, w, "a\x1b[3")
	write(t, w, "1mred\x1b[0m\n")
	waitText(t, c, "ared\n")
}

func TestController_BufferLimit(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{BufferLimit: 8})

	require.NoError(t, c.Activate(Key{ContainerID: "abc"}))
	write(t, src.stream(0).primaryW, "aaaa\nbbbb\ncccc\n")
	waitText(t, c, "cccc\n")
}

func TestController_DeactivateClosesStream(t *testing.T) {
	src := &fakeSource{}
	var mu sync.Mutex
	changes := 0
	c := newTestController(t, src, Options{OnChange: func() {
		mu.Lock()
		changes++
		mu.Unlock()
	}})

	require.NoError(t, c.Activate(Key{ContainerID: "abc"}))
	c.Deactivate()
	assert.True(t, src.stream(0).isClosed())
	assert.False(t, c.View().Streaming)

	mu.Lock()
	defer mu.Unlock()
	assert.Positive(t, changes)
}

func TestController_ActivateEmptyIDDeactivates(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{})

	require.NoError(t, c.Activate(Key{ContainerID: "abc"}))
	require.NoError(t, c.Activate(Key{}))
	assert.True(t, src.stream(0).isClosed())
	assert.Equal(t, 1, src.callCount())
}

func TestController_ParentCancelStopsSpawn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var got context.Context
	src := SourceFunc(func(ctx context.Context, _ string, _ int) (Stream, error) {
		got = ctx
		return newFakeStream(), nil
	})
	c := NewController(ctx, src, Options{})
	defer c.Close()

	require.NoError(t, c.Activate(Key{ContainerID: "abc"}))
	cancel()
	select {
	case <-got.Done():
	case <-time.After(time.Second):
		t.Fatal("stream context should follow the parent")
	}
}

func TestController_ReadErrorIsPublished(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{})

	require.NoError(t, c.Activate(Key{ContainerID: "abc"}))
	s := src.stream(0)
	reset := errors.New("connection reset")
	require.NoError(t, s.primaryW.CloseWithError(reset))

	require.Eventually(t, func() bool {
		return c.View().ReadErr != nil
	}, time.Second, 5*time.Millisecond)
	var readErr *apperrors.ReadError
	require.ErrorAs(t, c.View().ReadErr, &readErr)
	assert.Equal(t, "abc", readErr.ContainerID)
	assert.Equal(t, channelPrimary, readErr.Channel)
	assert.ErrorIs(t, readErr, reset)

	// The diagnostic channel keeps streaming.
	write(t, s.diagW, "still here\n")
	waitText(t, c, "still here\n")
	assert.True(t, c.View().Streaming)

	require.NoError(t, c.Activate(Key{ContainerID: "def"}))
	assert.NoError(t, c.View().ReadErr, "a new stream starts without a read error")
}

func TestController_EndOfStreamIsNotAReadError(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{})

	require.NoError(t, c.Activate(Key{ContainerID: "abc"}))
	s := src.stream(0)
	require.NoError(t, s.primaryW.Close())
	require.NoError(t, s.diagW.Close())

	require.Eventually(t, func() bool { return c.View().Ended }, time.Second, 5*time.Millisecond)
	assert.NoError(t, c.View().ReadErr)
}

func TestController_SupersededSpawnIsDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var (
		mu       sync.Mutex
		slowCtx  context.Context
		streams  = map[string]*fakeStream{}
		attempts int
	)
	src := SourceFunc(func(ctx context.Context, id string, _ int) (Stream, error) {
		mu.Lock()
		attempts++
		mu.Unlock()
		if id == "slow" {
			mu.Lock()
			slowCtx = ctx
			mu.Unlock()
			close(entered)
			<-release
		}
		s := newFakeStream()
		mu.Lock()
		streams[id] = s
		mu.Unlock()
		return s, nil
	})
	c := newTestController(t, src, Options{})

	done := make(chan error, 1)
	go func() { done <- c.Activate(Key{ContainerID: "slow"}) }()
	<-entered

	// The same key while its spawn is in flight does nothing.
	require.NoError(t, c.Activate(Key{ContainerID: "slow"}))
	mu.Lock()
	assert.Equal(t, 1, attempts)
	mu.Unlock()

	require.NoError(t, c.Activate(Key{ContainerID: "fast"}))
	v := c.View()
	assert.True(t, v.Streaming)
	assert.Equal(t, "fast", v.ContainerID)

	mu.Lock()
	ctx := slowCtx
	mu.Unlock()
	select {
	case <-ctx.Done():
	default:
		t.Fatal("superseded spawn should be cancelled")
	}

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, "fast", c.View().ContainerID)
	mu.Lock()
	slow := streams["slow"]
	mu.Unlock()
	require.NotNil(t, slow)
	assert.True(t, slow.isClosed(), "late stream is closed")
	_, err := slow.primaryW.Write([]byte("late\n"))
	assert.Error(t, err)
	assert.Empty(t, c.View().Text)
}

func TestController_SyncReadsDesiredKeyUnderLock(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(t, src, Options{})

	var mu sync.Mutex
	current := Key{ContainerID: "abc"}
	desired := func() Key {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	require.NoError(t, c.Sync(desired))
	require.NoError(t, c.Sync(desired))
	assert.Equal(t, 1, src.callCount())

	mu.Lock()
	current = Key{}
	mu.Unlock()
	require.NoError(t, c.Sync(desired))
	assert.False(t, c.View().Streaming)
	assert.True(t, src.stream(0).isClosed())
}
