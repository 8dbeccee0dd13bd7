package state

import "maps"

// Filters maps container ids to log filter text. A missing entry and an
// empty string both mean "no filter". Filters are not safe for concurrent
// use on their own; the Store guards them.
type Filters struct {
	byID map[string]string
}

// Set replaces the filter of one container and reports whether the stored
// value changed. Other containers are not affected.
func (f *Filters) Set(containerID, text string) bool {
	if f.byID[containerID] == text {
		return false
	}
	if text == "" {
		delete(f.byID, containerID)
		return true
	}
	if f.byID == nil {
		f.byID = make(map[string]string)
	}
	f.byID[containerID] = text
	return true
}

// Get returns the filter of a container, or "".
func (f *Filters) Get(containerID string) string {
	return f.byID[containerID]
}

// All returns a copy of every non-empty filter.
func (f *Filters) All() map[string]string {
	if len(f.byID) == 0 {
		return map[string]string{}
	}
	return maps.Clone(f.byID)
}
