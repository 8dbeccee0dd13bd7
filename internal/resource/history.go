package resource

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/five82/moor/internal/docker"
)

const (
	missingLayer = "<missing>"
	shortIDLen   = 12
)

var (
	nopPrefix   = regexp.MustCompile(`^/bin/sh -c #\(nop\)\s+`)
	shellPrefix = regexp.MustCompile(`^/bin/sh -c `)
)

// NormalizeHistory maps an image's layer history, newest layer first as the
// daemon reports it. now anchors the relative creation times.
func NormalizeHistory(raw []docker.RawHistory, now time.Time) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(raw))
	for _, rh := range raw {
		out = append(out, HistoryEntry{
			ID:      ShortID(rh.ID),
			Command: LayerCommand(rh.CreatedBy),
			Size:    humanize.IBytes(uint64(max(rh.Size, 0))),
			Created: humanize.RelTime(time.Unix(rh.Created, 0), now, "ago", "from now"),
			Tags:    slices.Clone(rh.Tags),
			Comment: rh.Comment,
		})
	}
	return out
}

// ShortID strips the digest algorithm and truncates to twelve characters.
func ShortID(id string) string {
	if id == "" || id == missingLayer {
		return missingLayer
	}
	id = strings.TrimPrefix(id, "sha256:")
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// LayerCommand renders a layer's CreatedBy the way a Dockerfile reads.
func LayerCommand(createdBy string) string {
	if nopPrefix.MatchString(createdBy) {
		return nopPrefix.ReplaceAllString(createdBy, "")
	}
	return shellPrefix.ReplaceAllString(createdBy, "RUN ")
}
