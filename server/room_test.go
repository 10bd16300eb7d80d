package server

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedPosition(x, y float64) PositionSource {
	return func() (float64, float64) { return x, y }
}

func TestRoom_AddPlayer_IncrementsVersionAndKeepsInvariant(t *testing.T) {
	r := NewRoom("r1")
	assert.Equal(t, int64(0), r.Version())

	v1 := r.AddPlayer("s1", NewPlayerState("s1", "Ada", "#fff", 0, 0))
	assert.Equal(t, int64(1), v1)
	assert.Equal(t, 1, r.PlayerCount())
	assert.Len(t, r.GetSessionIDs(), 1)

	v2 := r.AddPlayer("s2", NewPlayerState("s2", "Grace", "#000", 0, 0))
	assert.Equal(t, int64(2), v2)
	assert.Equal(t, 2, r.PlayerCount())
	assert.Len(t, r.GetSessionIDs(), 2)
}

func TestRoom_RemovePlayer_IncrementsVersionEvenIfAbsent(t *testing.T) {
	r := NewRoom("r1")

	removed := r.RemovePlayer("ghost", "ghost")

	assert.Nil(t, removed)
	assert.Equal(t, int64(1), r.Version(), "version advances on every membership event, present or not")
}

func TestRoom_RemovePlayer_ClearsBothSides(t *testing.T) {
	r := NewRoom("r1")
	r.AddPlayer("s1", NewPlayerState("s1", "Ada", "#fff", 0, 0))

	removed := r.RemovePlayer("s1", "s1")

	require.NotNil(t, removed)
	assert.Equal(t, "s1", removed.PlayerID)
	assert.True(t, r.IsEmpty())
	assert.Equal(t, 0, r.PlayerCount())
	assert.Empty(t, r.GetSessionIDs())
}

func TestRoom_UpdatePlayerState_AbsentPlayerReturnsNil(t *testing.T) {
	r := NewRoom("r1")
	d := r.UpdatePlayerState("ghost", NewPlayerState("ghost", "", "", 1, 1))
	assert.Nil(t, d)
}

func TestRoom_UpdatePlayerState_StampsCurrentVersion(t *testing.T) {
	r := NewRoom("r1")
	r.AddPlayer("s1", NewPlayerState("s1", "Ada", "#fff", 0, 0))

	current, _ := r.GetPlayer("s1")
	d := r.UpdatePlayerState("s1", current.WithPosition(9, 9))

	require.NotNil(t, d)
	assert.Equal(t, r.Version(), d.Version)
	assert.Equal(t, 9.0, d.Changes["x"])
}

func TestRoom_NextColor_RoundRobinsAcrossJoins(t *testing.T) {
	r := NewRoom("r1")
	c1 := r.NextColor()
	c2 := r.NextColor()
	assert.NotEqual(t, c1, c2)
}

func TestRoom_NextPosition_UsesConfiguredSource(t *testing.T) {
	r := NewRoom("r1")
	r.positionFn = fixedPosition(42, 7)

	x, y := r.NextPosition()
	assert.Equal(t, 42.0, x)
	assert.Equal(t, 7.0, y)
}

func TestRoom_ConcurrentUpdates_VersionAdvancesExactlyOncePerUpdate(t *testing.T) {
	r := NewRoom("r1")
	r.AddPlayer("s1", NewPlayerState("s1", "Ada", "#fff", 0, 0))
	baseline := r.Version()

	const workers = 20
	var wg sync.WaitGroup
	versionsSeen := make([]int64, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			current, _ := r.GetPlayer("s1")
			d := r.UpdatePlayerState("s1", current.WithPosition(float64(idx+1), float64(idx+1)))
			if d != nil {
				versionsSeen[idx] = d.Version
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, baseline+int64(workers), r.Version())

	seen := make(map[int64]bool)
	for _, v := range versionsSeen {
		assert.False(t, seen[v], "no two concurrent updates should observe the same stamped version")
		seen[v] = true
	}
}

func TestRoom_GetAllPlayers_ReturnsIndependentSnapshot(t *testing.T) {
	r := NewRoom("r1")
	r.AddPlayer("s1", NewPlayerState("s1", "Ada", "#fff", 0, 0))

	snap := r.GetAllPlayers()
	snap["s1"] = snap["s1"].WithName("mutated-copy")

	live, _ := r.GetPlayer("s1")
	assert.Equal(t, "Ada", live.PlayerName, "mutating the snapshot must not affect room state")
}
