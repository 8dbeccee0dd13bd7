package resource

// Reconcile returns the selection that should survive a refresh. An empty
// string means no selection. A previous selection whose key is still in
// snapshot is kept; otherwise the first entity in comparator order is
// selected, or nothing when snapshot is empty.
func Reconcile[T Keyed](snapshot []T, previous string) string {
	if previous != "" && Contains(snapshot, previous) {
		return previous
	}
	if len(snapshot) == 0 {
		return ""
	}
	return snapshot[0].Key()
}

// Contains reports whether an entity with key exists in snapshot.
func Contains[T Keyed](snapshot []T, key string) bool {
	return IndexOf(snapshot, key) >= 0
}

// IndexOf returns the position of key in snapshot, or -1.
func IndexOf[T Keyed](snapshot []T, key string) int {
	for i, item := range snapshot {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

// Step returns the key delta positions away from current, clamped to the
// ends of snapshot. With no current selection a downward step selects the
// first entity and an upward step the last.
func Step[T Keyed](snapshot []T, current string, delta int) string {
	if len(snapshot) == 0 {
		return ""
	}
	idx := IndexOf(snapshot, current)
	switch {
	case idx < 0 && delta < 0:
		idx = len(snapshot) - 1
	case idx < 0:
		idx = 0
	default:
		idx = min(max(idx+delta, 0), len(snapshot)-1)
	}
	return snapshot[idx].Key()
}
