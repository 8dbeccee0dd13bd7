package state

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/moor/internal/resource"
)

var (
	ErrUnknownKind   = errors.New("unknown resource kind")
	ErrUnknownEntity = errors.New("entity not in current snapshot")
)

// offlineThreshold is the number of consecutive failed polls after which a
// collection is reported offline.
const offlineThreshold = 2

// Collection is the published state of one entity kind: the latest snapshot
// and the selection reconciled against it.
type Collection[T resource.Keyed] struct {
	Items               []T
	Selected            string // empty when nothing is selected
	Loaded              bool   // a fetch has succeeded at least once
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// Active returns the selected entity.
func (c Collection[T]) Active() (T, bool) {
	if idx := resource.IndexOf(c.Items, c.Selected); idx >= 0 {
		return c.Items[idx], true
	}
	var zero T
	return zero, false
}

// IsOffline returns true when the daemon has been unreachable for multiple polls.
func (c Collection[T]) IsOffline() bool {
	return c.ConsecutiveFailures >= offlineThreshold
}

func (c Collection[T]) clone() Collection[T] {
	dup := c
	dup.Items = slices.Clone(c.Items)
	if c.LastError != nil {
		dup.LastError = fmt.Errorf("%w", c.LastError)
	}
	return dup
}

// History is the layer history of the active image.
type History struct {
	ImageID string
	Entries []resource.HistoryEntry
	Err     error
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Containers Collection[resource.Container]
	Images     Collection[resource.Image]
	Volumes    Collection[resource.Volume]
	History    History
	Filters    map[string]string
}

// Selected returns the selection of kind.
func (s Snapshot) Selected(kind resource.Kind) string {
	switch kind {
	case resource.KindContainer:
		return s.Containers.Selected
	case resource.KindImage:
		return s.Images.Selected
	case resource.KindVolume:
		return s.Volumes.Selected
	default:
		return ""
	}
}

// Filter returns the log filter of a container, or "" when it has none.
func (s Snapshot) Filter(containerID string) string {
	return s.Filters[containerID]
}

// Store coordinates concurrent updates to the snapshot. The zero value is
// ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	filters  Filters

	changesOnce sync.Once
	changes     chan struct{}
}

// UpdateContainers publishes a container snapshot and returns the reconciled
// selection. When err is non-nil the previous data and selection are kept but
// the error is recorded for visibility.
func (s *Store) UpdateContainers(items []resource.Container, err error) string {
	s.mu.Lock()
	selected := applyUpdate(&s.snapshot.Containers, items, err, time.Now())
	s.mu.Unlock()
	s.Notify()
	return selected
}

// UpdateImages is UpdateContainers for images.
func (s *Store) UpdateImages(items []resource.Image, err error) string {
	s.mu.Lock()
	selected := applyUpdate(&s.snapshot.Images, items, err, time.Now())
	if s.snapshot.History.ImageID != selected {
		s.snapshot.History = History{}
	}
	s.mu.Unlock()
	s.Notify()
	return selected
}

// UpdateVolumes is UpdateContainers for volumes.
func (s *Store) UpdateVolumes(items []resource.Volume, err error) string {
	s.mu.Lock()
	selected := applyUpdate(&s.snapshot.Volumes, items, err, time.Now())
	s.mu.Unlock()
	s.Notify()
	return selected
}

func applyUpdate[T resource.Keyed](c *Collection[T], items []T, err error, now time.Time) string {
	c.LastUpdated = now
	if err != nil {
		c.LastError = err
		c.ConsecutiveFailures++
		return c.Selected
	}
	c.Items = slices.Clone(items)
	c.Selected = resource.Reconcile(c.Items, c.Selected)
	c.Loaded = true
	c.LastError = nil
	c.ConsecutiveFailures = 0
	return c.Selected
}

// Select sets the selection of kind to id. An empty id clears the selection;
// an id missing from the current snapshot is rejected.
func (s *Store) Select(kind resource.Kind, id string) error {
	s.mu.Lock()
	var err error
	switch kind {
	case resource.KindContainer:
		err = selectIn(&s.snapshot.Containers, id)
	case resource.KindImage:
		err = selectIn(&s.snapshot.Images, id)
		if err == nil && s.snapshot.History.ImageID != id {
			s.snapshot.History = History{}
		}
	case resource.KindVolume:
		err = selectIn(&s.snapshot.Volumes, id)
	default:
		err = fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
	s.mu.Unlock()
	if err == nil {
		s.Notify()
	}
	return err
}

func selectIn[T resource.Keyed](c *Collection[T], id string) error {
	if id != "" && !resource.Contains(c.Items, id) {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	c.Selected = id
	return nil
}

// SetHistory publishes an image history. Results for an image that is no
// longer selected are dropped; the return value reports whether it was kept.
func (s *Store) SetHistory(imageID string, entries []resource.HistoryEntry, err error) bool {
	s.mu.Lock()
	if imageID == "" || s.snapshot.Images.Selected != imageID {
		s.mu.Unlock()
		return false
	}
	s.snapshot.History = History{ImageID: imageID, Entries: slices.Clone(entries), Err: err}
	s.mu.Unlock()
	s.Notify()
	return true
}

// HistoryImage returns the image whose history is currently published.
func (s *Store) HistoryImage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.History.ImageID
}

// SetFilter stores the log filter of a container and reports whether the
// stored value changed.
func (s *Store) SetFilter(containerID, text string) bool {
	s.mu.Lock()
	changed := s.filters.Set(containerID, text)
	s.mu.Unlock()
	if changed {
		s.Notify()
	}
	return changed
}

// Stream returns the selected container and its filter as one consistent
// pair.
func (s *Store) Stream() (containerID, filter string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	containerID = s.snapshot.Containers.Selected
	return containerID, s.filters.Get(containerID)
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Containers: s.snapshot.Containers.clone(),
		Images:     s.snapshot.Images.clone(),
		Volumes:    s.snapshot.Volumes.clone(),
		History:    s.snapshot.History,
		Filters:    s.filters.All(),
	}
	snap.History.Entries = slices.Clone(s.snapshot.History.Entries)
	return snap
}

// Changes returns a channel that receives a value after the store changes.
// Notifications coalesce: a slow reader sees one pending value, never a
// backlog.
func (s *Store) Changes() <-chan struct{} {
	return s.changeChan()
}

// Notify signals a change to the Changes reader without blocking.
func (s *Store) Notify() {
	select {
	case s.changeChan() <- struct{}{}:
	default:
	}
}

func (s *Store) changeChan() chan struct{} {
	s.changesOnce.Do(func() {
		s.changes = make(chan struct{}, 1)
	})
	return s.changes
}
