// Package api exposes the drone environment to trainers over HTTP JSON.
// Requests are serialized: the environment owns a single simulator session
// and has no defined behaviour under concurrent use.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/ascent-robotics/dronegym/internal/config"
	"github.com/ascent-robotics/dronegym/internal/env"
	"github.com/ascent-robotics/dronegym/internal/httputil"
	"github.com/ascent-robotics/dronegym/internal/monitoring"
	"github.com/ascent-robotics/dronegym/internal/report"
	"github.com/ascent-robotics/dronegym/internal/telemetry"
	"github.com/ascent-robotics/dronegym/internal/version"
)

// Server wraps one environment and an optional telemetry store.
type Server struct {
	mu    sync.Mutex
	env   *env.Env
	store *telemetry.EpisodeStore // nil disables recording
	cfg   *config.EnvConfig

	episodeID   string
	episodeStep int
}

// NewServer creates an API server. Pass a nil store to disable episode
// recording.
func NewServer(e *env.Env, store *telemetry.EpisodeStore, cfg *config.EnvConfig) *Server {
	if cfg == nil {
		cfg = config.EmptyEnvConfig()
	}
	return &Server{env: e, store: store, cfg: cfg}
}

// ServeMux returns the handler tree for the service.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/env/reset", s.handleReset)
	mux.HandleFunc("/env/step", s.handleStep)
	mux.HandleFunc("/env/close", s.handleClose)
	mux.HandleFunc("/config", s.handleConfig)
	mux.HandleFunc("/episodes", s.handleListEpisodes)
	mux.HandleFunc("/report/returns", s.handleReturnsReport)
	mux.HandleFunc("/", s.handleHome)
	return mux
}

type resetResponse struct {
	EpisodeID   string      `json:"episode_id,omitempty"`
	Observation [][]float64 `json:"observation"`
}

type stepRequest struct {
	Action []float64 `json:"action"`
}

type stepResponse struct {
	Observation [][]float64            `json:"observation"`
	Reward      float64                `json:"reward"`
	Done        bool                   `json:"done"`
	Info        map[string]interface{} `json:"info"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "dronegym environment service %s\n", version.String())
}

// handleConfig reports the effective environment parameters, with defaults
// applied for any field the config file omitted.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"target_position":    s.cfg.GetTargetPosition(),
		"safe_bound":         s.cfg.GetSafeBound(),
		"max_steps":          s.cfg.GetMaxSteps(),
		"action_low":         s.cfg.GetActionLow(),
		"action_high":        s.cfg.GetActionHigh(),
		"move_duration":      s.cfg.GetMoveDuration().String(),
		"lidar_sensor":       s.cfg.GetLidarSensor(),
		"preflight_position": s.cfg.GetPreflightPosition(),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	obs, err := s.env.Reset(r.Context())
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("reset: %v", err))
		return
	}

	resp := resetResponse{Observation: obsRows(obs)}
	if s.store != nil {
		if s.episodeID != "" {
			// A reset mid-episode abandons the previous recording.
			if err := s.store.EndEpisode(s.episodeID, "aborted"); err != nil {
				monitoring.Logf("api: end episode %s: %v", s.episodeID, err)
			}
		}
		id, err := s.store.BeginEpisode()
		if err != nil {
			monitoring.Logf("api: begin episode: %v", err)
		} else {
			s.episodeID = id
			s.episodeStep = 0
			resp.EpisodeID = id
		}
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req stepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("decode action: %v", err))
		return
	}
	if len(req.Action) != env.ActionDims {
		httputil.WriteJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("action must have %d components, got %d", env.ActionDims, len(req.Action)))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var action env.Action
	copy(action[:], req.Action)

	obs, reward, done, info, err := s.env.Step(r.Context(), action)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("step: %v", err))
		return
	}

	if s.store != nil && s.episodeID != "" {
		pos := obs.RawRowView(0)
		err := s.store.RecordStep(&telemetry.Transition{
			EpisodeID: s.episodeID,
			Step:      s.episodeStep,
			Position:  [3]float64{pos[0], pos[1], pos[2]},
			Action:    [4]float64(action),
			Reward:    reward,
			Terminal:  done,
		})
		if err != nil {
			monitoring.Logf("api: record step: %v", err)
		}
		s.episodeStep++
		if done {
			if err := s.store.EndEpisode(s.episodeID, "terminal"); err != nil {
				monitoring.Logf("api: end episode %s: %v", s.episodeID, err)
			}
			s.episodeID = ""
		}
	}

	httputil.WriteJSONOK(w, stepResponse{
		Observation: obsRows(obs),
		Reward:      reward,
		Done:        done,
		Info:        info,
	})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.env.Close(r.Context()); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("close: %v", err))
		return
	}
	if s.store != nil && s.episodeID != "" {
		if err := s.store.EndEpisode(s.episodeID, "aborted"); err != nil {
			monitoring.Logf("api: end episode %s: %v", s.episodeID, err)
		}
		s.episodeID = ""
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListEpisodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.WriteJSONError(w, http.StatusNotFound, "episode recording disabled")
		return
	}
	episodes, err := s.store.ListEpisodes()
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list episodes: %v", err))
		return
	}
	if episodes == nil {
		episodes = []*telemetry.Episode{}
	}
	httputil.WriteJSONOK(w, episodes)
}

func (s *Server) handleReturnsReport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httputil.WriteJSONError(w, http.StatusNotFound, "episode recording disabled")
		return
	}
	episodes, err := s.store.ListEpisodes()
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list episodes: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderReturns(w, episodes); err != nil {
		monitoring.Logf("api: render returns report: %v", err)
	}
}

// obsRows flattens an observation matrix into row slices for JSON.
func obsRows(obs *mat.Dense) [][]float64 {
	r, c := obs.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		for j := 0; j < c; j++ {
			row[j] = obs.At(i, j)
		}
		rows[i] = row
	}
	return rows
}
