package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ascent-robotics/dronegym/internal/api"
	"github.com/ascent-robotics/dronegym/internal/config"
	"github.com/ascent-robotics/dronegym/internal/env"
	"github.com/ascent-robotics/dronegym/internal/sim"
	"github.com/ascent-robotics/dronegym/internal/telemetry"
	"github.com/ascent-robotics/dronegym/internal/version"
)

var (
	devMode    = flag.Bool("dev", false, "Run with a mock simulator instead of a live session")
	listen     = flag.String("listen", ":8080", "Listen address")
	simAddr    = flag.String("sim-addr", "127.0.0.1:41451", "Simulator RPC address")
	dbPath     = flag.String("db", "flight_telemetry.db", "Telemetry database path (empty disables recording)")
	configPath = flag.String("config", "", "Environment config JSON (defaults apply when empty)")
)

func main() {
	flag.Parse()

	log.Printf("dronegym %s", version.String())

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyEnvConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadEnvConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	var client sim.Client
	if *devMode {
		mock := sim.NewMockClient()
		mock.Kinematic = true
		client = mock
	} else {
		var err error
		client, err = sim.Dial(*simAddr)
		if err != nil {
			log.Fatalf("failed to connect to simulator: %v", err)
		}
	}
	defer client.Close()

	var store *telemetry.EpisodeStore
	if *dbPath != "" {
		db, err := telemetry.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open telemetry database: %v", err)
		}
		defer db.Close()
		store = telemetry.NewEpisodeStore(db)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	environment, err := env.NewEnv(ctx, client, cfg)
	if err != nil {
		log.Fatalf("failed to initialise environment: %v", err)
	}

	var wg sync.WaitGroup

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		apiMux := api.NewServer(environment, store, cfg).ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))
		mux.Handle("/", apiMux)

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		server := &http.Server{
			Addr:    *listen,
			Handler: h,
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down the server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()

	// Release the vehicle before disconnecting.
	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := environment.Close(closeCtx); err != nil {
		log.Printf("environment close error: %v", err)
	}

	log.Printf("Graceful shutdown complete")
}
