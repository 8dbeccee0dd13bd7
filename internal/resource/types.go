// Package resource defines the dashboard entities, maps raw daemon records
// into them, and reconciles selections across refreshes.
package resource

import "fmt"

// Kind identifies one of the polled entity collections.
type Kind int

const (
	KindContainer Kind = iota
	KindImage
	KindVolume
)

// Kinds lists every polled kind in display order.
var Kinds = []Kind{KindContainer, KindImage, KindVolume}

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "containers"
	case KindImage:
		return "images"
	case KindVolume:
		return "volumes"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= KindContainer && k <= KindVolume
}

// Keyed is implemented by every entity; Key is its identity within a snapshot.
type Keyed interface {
	Key() string
}

// Container is a normalized container.
type Container struct {
	ID     string
	Name   string
	Image  string
	State  string // running, exited, created, ...
	Status string // free text from the daemon, may mention health
}

// Key returns the container id.
func (c Container) Key() string { return c.ID }

// Running reports whether the container is in the running state.
func (c Container) Running() bool { return c.State == stateRunning }

// Image is a normalized image.
type Image struct {
	ID        string
	Name      string
	Tag       string
	Size      string // whole megabytes, e.g. "187 MB"
	SizeBytes int64
	Created   string
}

// Key returns the image id.
func (i Image) Key() string { return i.ID }

// Reference returns name:tag.
func (i Image) Reference() string { return i.Name + ":" + i.Tag }

// Volume is a normalized volume. Labels is never nil; Options and Status are
// nil when the daemon did not report them.
type Volume struct {
	Name       string
	Driver     string
	Scope      string
	Mountpoint string
	Labels     map[string]string
	Options    map[string]string
	Status     map[string]string
}

// Key returns the volume name.
func (v Volume) Key() string { return v.Name }

// HistoryEntry is one layer of an image's history.
type HistoryEntry struct {
	ID      string
	Command string
	Size    string
	Created string
	Tags    []string
	Comment string
}
