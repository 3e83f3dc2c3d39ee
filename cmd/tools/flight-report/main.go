// Command flight-report generates offline training reports from a recorded
// telemetry database: an HTML chart of per-episode returns and a top-down
// trajectory PNG per episode.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ascent-robotics/dronegym/internal/config"
	"github.com/ascent-robotics/dronegym/internal/report"
	"github.com/ascent-robotics/dronegym/internal/telemetry"
)

func main() {
	dbPath := flag.String("db", "flight_telemetry.db", "telemetry database path")
	outDir := flag.String("o", "report", "output directory")
	configPath := flag.String("config", "", "environment config JSON (for the target marker)")
	trajectories := flag.Bool("trajectories", true, "render per-episode trajectory plots")
	flag.Parse()

	cfg := config.EmptyEnvConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadEnvConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	db, err := telemetry.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open telemetry database: %v", err)
	}
	defer db.Close()
	store := telemetry.NewEpisodeStore(db)

	episodes, err := store.ListEpisodes()
	if err != nil {
		log.Fatalf("failed to list episodes: %v", err)
	}
	if len(episodes) == 0 {
		log.Fatal("no recorded episodes")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	returnsPath := filepath.Join(*outDir, "returns.html")
	f, err := os.Create(returnsPath)
	if err != nil {
		log.Fatalf("failed to create %s: %v", returnsPath, err)
	}
	if err := report.RenderReturns(f, episodes); err != nil {
		f.Close()
		log.Fatalf("failed to render returns chart: %v", err)
	}
	f.Close()
	log.Printf("wrote %s (%d episodes)", returnsPath, len(episodes))

	if !*trajectories {
		return
	}

	target := cfg.GetTargetPosition()
	rendered := 0
	for i, ep := range episodes {
		track, err := store.EpisodeTrack(ep.EpisodeID)
		if err != nil {
			log.Fatalf("failed to load track for %s: %v", ep.EpisodeID, err)
		}
		if len(track) == 0 {
			continue
		}
		path := filepath.Join(*outDir, fmt.Sprintf("episode_%03d_%s.png", i+1, ep.Outcome))
		if err := report.SaveTrajectory(path, track, target); err != nil {
			log.Fatalf("failed to render trajectory for %s: %v", ep.EpisodeID, err)
		}
		rendered++
	}
	log.Printf("wrote %d trajectory plots to %s", rendered, *outDir)
}
