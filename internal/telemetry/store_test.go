package telemetry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *EpisodeStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "telemetry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewEpisodeStore(db)
}

func TestMigrationsApply(t *testing.T) {
	t.Parallel()
	db, err := Open(filepath.Join(t.TempDir(), "telemetry.db"))
	require.NoError(t, err)
	defer db.Close()

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}

func TestEpisodeLifecycle(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	id, err := store.BeginEpisode()
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, store.RecordStep(&Transition{
		EpisodeID: id,
		Step:      0,
		Position:  [3]float64{0, 0, -1},
		Action:    [4]float64{1, 0, 0, 0},
		Reward:    -0.5,
	}))
	require.NoError(t, store.RecordStep(&Transition{
		EpisodeID: id,
		Step:      1,
		Position:  [3]float64{0.5, 0, -1},
		Action:    [4]float64{1, 0, 0, 0},
		Reward:    2.0,
		Terminal:  true,
	}))
	require.NoError(t, store.EndEpisode(id, "goal"))

	ep, err := store.GetEpisode(id)
	require.NoError(t, err)
	assert.Equal(t, 2, ep.Steps)
	assert.InDelta(t, 1.5, ep.TotalReward, 1e-9)
	assert.Equal(t, "goal", ep.Outcome)
	assert.NotZero(t, ep.EndedAtNs)
}

func TestEpisodeTrackOrder(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	id, err := store.BeginEpisode()
	require.NoError(t, err)

	// Insert out of order; EpisodeTrack returns step order.
	require.NoError(t, store.RecordStep(&Transition{EpisodeID: id, Step: 1, Position: [3]float64{1, 0, 0}}))
	require.NoError(t, store.RecordStep(&Transition{EpisodeID: id, Step: 0, Position: [3]float64{0, 0, 0}}))

	track, err := store.EpisodeTrack(id)
	require.NoError(t, err)
	require.Len(t, track, 2)
	assert.Equal(t, 0, track[0].Step)
	assert.Equal(t, 1, track[1].Step)
	assert.True(t, track[1].Position[0] > track[0].Position[0])
}

func TestListEpisodes(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	first, err := store.BeginEpisode()
	require.NoError(t, err)
	second, err := store.BeginEpisode()
	require.NoError(t, err)

	episodes, err := store.ListEpisodes()
	require.NoError(t, err)
	require.Len(t, episodes, 2)
	ids := []string{episodes[0].EpisodeID, episodes[1].EpisodeID}
	assert.Contains(t, ids, first)
	assert.Contains(t, ids, second)
}

func TestGetEpisodeNotFound(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	_, err := store.GetEpisode("no-such-episode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
