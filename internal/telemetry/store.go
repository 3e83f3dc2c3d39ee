package telemetry

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Episode is a persisted episode summary.
type Episode struct {
	EpisodeID   string  `json:"episode_id"`
	StartedAtNs int64   `json:"started_at_ns"`
	EndedAtNs   int64   `json:"ended_at_ns,omitempty"`
	Steps       int     `json:"steps"`
	TotalReward float64 `json:"total_reward"`
	Outcome     string  `json:"outcome"`
}

// Transition is one recorded environment step.
type Transition struct {
	EpisodeID   string     `json:"episode_id"`
	Step        int        `json:"step"`
	Position    [3]float64 `json:"position"`
	Action      [4]float64 `json:"action"`
	Reward      float64    `json:"reward"`
	Terminal    bool       `json:"terminal"`
	CreatedAtNs int64      `json:"created_at_ns"`
}

// EpisodeStore provides persistence for episodes and transitions.
type EpisodeStore struct {
	db *DB
}

// NewEpisodeStore creates an EpisodeStore over an open telemetry database.
func NewEpisodeStore(db *DB) *EpisodeStore {
	return &EpisodeStore{db: db}
}

// BeginEpisode inserts a new running episode and returns its generated ID.
func (s *EpisodeStore) BeginEpisode() (string, error) {
	id := uuid.New().String()
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO episodes (episode_id, started_at_ns, outcome)
			VALUES (?, ?, 'running')`,
			id, time.Now().UnixNano(),
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("begin episode: %w", err)
	}
	return id, nil
}

// RecordStep persists one transition and folds its reward into the episode
// summary.
func (s *EpisodeStore) RecordStep(t *Transition) error {
	if t.CreatedAtNs == 0 {
		t.CreatedAtNs = time.Now().UnixNano()
	}
	terminal := 0
	if t.Terminal {
		terminal = 1
	}
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO transitions (
				episode_id, step, pos_x, pos_y, pos_z,
				vx, vy, vz, yaw_rate, reward, terminal, created_at_ns
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.EpisodeID, t.Step, t.Position[0], t.Position[1], t.Position[2],
			t.Action[0], t.Action[1], t.Action[2], t.Action[3],
			t.Reward, terminal, t.CreatedAtNs,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("record step: %w", err)
	}
	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			UPDATE episodes
			SET steps = steps + 1, total_reward = total_reward + ?
			WHERE episode_id = ?`,
			t.Reward, t.EpisodeID,
		)
		return err
	})
}

// EndEpisode marks an episode finished with the given outcome.
func (s *EpisodeStore) EndEpisode(episodeID, outcome string) error {
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			UPDATE episodes
			SET ended_at_ns = ?, outcome = ?
			WHERE episode_id = ?`,
			time.Now().UnixNano(), outcome, episodeID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("end episode: %w", err)
	}
	return nil
}

// ListEpisodes returns all episodes ordered by start time ascending.
func (s *EpisodeStore) ListEpisodes() ([]*Episode, error) {
	rows, err := s.db.Query(`
		SELECT episode_id, started_at_ns, COALESCE(ended_at_ns, 0),
		       steps, total_reward, outcome
		FROM episodes
		ORDER BY started_at_ns ASC`)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.EpisodeID, &e.StartedAtNs, &e.EndedAtNs,
			&e.Steps, &e.TotalReward, &e.Outcome); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, &e)
	}
	return episodes, rows.Err()
}

// GetEpisode returns a single episode by ID.
func (s *EpisodeStore) GetEpisode(episodeID string) (*Episode, error) {
	row := s.db.QueryRow(`
		SELECT episode_id, started_at_ns, COALESCE(ended_at_ns, 0),
		       steps, total_reward, outcome
		FROM episodes
		WHERE episode_id = ?`, episodeID)

	var e Episode
	err := row.Scan(&e.EpisodeID, &e.StartedAtNs, &e.EndedAtNs,
		&e.Steps, &e.TotalReward, &e.Outcome)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("episode %s not found", episodeID)
		}
		return nil, fmt.Errorf("scan episode: %w", err)
	}
	return &e, nil
}

// EpisodeTrack returns the recorded transitions of an episode in step order.
func (s *EpisodeStore) EpisodeTrack(episodeID string) ([]*Transition, error) {
	rows, err := s.db.Query(`
		SELECT episode_id, step, pos_x, pos_y, pos_z,
		       vx, vy, vz, yaw_rate, reward, terminal, created_at_ns
		FROM transitions
		WHERE episode_id = ?
		ORDER BY step ASC`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var track []*Transition
	for rows.Next() {
		var t Transition
		var terminal int
		if err := rows.Scan(&t.EpisodeID, &t.Step,
			&t.Position[0], &t.Position[1], &t.Position[2],
			&t.Action[0], &t.Action[1], &t.Action[2], &t.Action[3],
			&t.Reward, &terminal, &t.CreatedAtNs); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.Terminal = terminal != 0
		track = append(track, &t)
	}
	return track, rows.Err()
}
