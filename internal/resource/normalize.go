package resource

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/five82/moor/internal/docker"
)

const (
	stateRunning = "running"
	// NoneTag is the name and tag of an image without a repo tag.
	NoneTag = "<none>"

	createdLayout = "2006-01-02"
	bytesPerMB    = 1_000_000
)

// NormalizeContainers maps raw containers and orders them running first,
// then by name. Equal names fall back to id so the order is total.
func NormalizeContainers(raw []docker.RawContainer) []Container {
	out := make([]Container, 0, len(raw))
	for _, rc := range raw {
		out = append(out, Container{
			ID:     rc.ID,
			Name:   containerName(rc.Names),
			Image:  rc.Image,
			State:  rc.State,
			Status: rc.Status,
		})
	}
	slices.SortFunc(out, compareContainers)
	return out
}

func compareContainers(a, b Container) int {
	if ar, br := a.Running(), b.Running(); ar != br {
		if ar {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func containerName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return strings.TrimPrefix(names[0], "/")
}

// NormalizeImages maps raw images and orders them by name.
func NormalizeImages(raw []docker.RawImage) []Image {
	out := make([]Image, 0, len(raw))
	for _, ri := range raw {
		var ref string
		if len(ri.RepoTags) > 0 {
			ref = ri.RepoTags[0]
		}
		name, tag := SplitRepoTag(ref)
		out = append(out, Image{
			ID:        ri.ID,
			Name:      name,
			Tag:       tag,
			Size:      formatMegabytes(ri.Size),
			SizeBytes: ri.Size,
			Created:   time.Unix(ri.Created, 0).Format(createdLayout),
		})
	}
	slices.SortFunc(out, func(a, b Image) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		if c := strings.Compare(a.Tag, b.Tag); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// SplitRepoTag splits a repo tag at its last colon. A missing tag yields
// NoneTag; an empty reference yields NoneTag for both parts.
func SplitRepoTag(ref string) (name, tag string) {
	if ref == "" {
		return NoneTag, NoneTag
	}
	idx := strings.LastIndex(ref, ":")
	if idx <= 0 {
		return ref, NoneTag
	}
	return ref[:idx], ref[idx+1:]
}

func formatMegabytes(size int64) string {
	return fmt.Sprintf("%d MB", int64(math.Round(float64(size)/bytesPerMB)))
}

// NormalizeVolumes maps raw volumes and orders them by name.
func NormalizeVolumes(raw []docker.RawVolume) []Volume {
	out := make([]Volume, 0, len(raw))
	for _, rv := range raw {
		labels := maps.Clone(rv.Labels)
		if labels == nil {
			labels = map[string]string{}
		}
		out = append(out, Volume{
			Name:       rv.Name,
			Driver:     rv.Driver,
			Scope:      rv.Scope,
			Mountpoint: rv.Mountpoint,
			Labels:     labels,
			Options:    maps.Clone(rv.Options),
			Status:     stringifyStatus(rv.Status),
		})
	}
	slices.SortFunc(out, func(a, b Volume) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func stringifyStatus(status map[string]any) map[string]string {
	if status == nil {
		return nil
	}
	out := make(map[string]string, len(status))
	for k, v := range status {
		out[k] = fmt.Sprint(v)
	}
	return out
}
