package resource

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func containers(ids ...string) []Container {
	out := make([]Container, 0, len(ids))
	for _, id := range ids {
		out = append(out, Container{ID: id, Name: id})
	}
	return out
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name     string
		snapshot []Container
		previous string
		want     string
	}{
		{"no previous selects first", containers("a", "b"), "", "a"},
		{"no previous and empty snapshot", nil, "", ""},
		{"previous kept when present", containers("a", "b", "c"), "c", "c"},
		{"previous gone falls back to first", containers("a", "b"), "x", "a"},
		{"previous gone and empty snapshot", nil, "x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reconcile(tt.snapshot, tt.previous))
		})
	}
}

func TestReconcile_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	pool := []string{"a", "b", "c", "d", "e", "f"}

	for i := 0; i < 500; i++ {
		var ids []string
		for _, id := range pool {
			if rng.IntN(2) == 0 {
				ids = append(ids, id)
			}
		}
		rng.Shuffle(len(ids), func(a, b int) { ids[a], ids[b] = ids[b], ids[a] })
		snapshot := containers(ids...)
		previous := ""
		if rng.IntN(4) > 0 {
			previous = pool[rng.IntN(len(pool))]
		}

		got := Reconcile(snapshot, previous)
		label := fmt.Sprintf("snapshot=%v previous=%q", ids, previous)

		if len(snapshot) == 0 {
			assert.Empty(t, got, label)
		} else {
			assert.True(t, Contains(snapshot, got), label)
		}
		assert.Equal(t, got, Reconcile(snapshot, got), "idempotent: "+label)
		if previous != "" && Contains(snapshot, previous) {
			assert.Equal(t, previous, got, "sticky: "+label)
		}
	}
}

func TestReconcile_Volumes(t *testing.T) {
	vols := []Volume{{Name: "cache"}, {Name: "data"}}
	assert.Equal(t, "data", Reconcile(vols, "data"))
	assert.Equal(t, "cache", Reconcile(vols, "gone"))
}

func TestStep(t *testing.T) {
	snap := containers("a", "b", "c")

	tests := []struct {
		name    string
		current string
		delta   int
		want    string
	}{
		{"down from middle", "b", 1, "c"},
		{"up from middle", "b", -1, "a"},
		{"clamp at bottom", "c", 1, "c"},
		{"clamp at top", "a", -1, "a"},
		{"down without selection", "", 1, "a"},
		{"up without selection", "", -1, "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Step(snap, tt.current, tt.delta))
		})
	}
	assert.Equal(t, "", Step([]Container(nil), "a", 1))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "containers", KindContainer.String())
	assert.Equal(t, "images", KindImage.String())
	assert.Equal(t, "volumes", KindVolume.String())
	assert.Equal(t, "kind(7)", Kind(7).String())
	assert.False(t, Kind(7).Valid())
}
