package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/ukpack/ukstats/internal/config"
	"github.com/ukpack/ukstats/internal/eventlog"
	"github.com/ukpack/ukstats/internal/index"
	"github.com/ukpack/ukstats/internal/ingest"
	"github.com/ukpack/ukstats/internal/report"
	"github.com/ukpack/ukstats/internal/server"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

const watcherDebounce = 500 * time.Millisecond

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServe(os.Args[2:])
			return
		case "reindex":
			runReindex(os.Args[2:])
			return
		case "version", "--version", "-v":
			fmt.Printf("ukstats %s (commit %s, built %s)\n",
				version, commit, buildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	runServe(os.Args[1:])
}

func printUsage() {
	fmt.Printf(`ukstats %s - UK PACK survey analytics backend

Collects UK PACK participant events into an append-only JSONL
log and serves aggregated dashboard reports over a REST API.

Usage:
  ukstats [flags]          Start the server (default command)
  ukstats serve [flags]    Start the server (explicit)
  ukstats reindex [flags]  Rebuild the session index from the log
  ukstats version          Show version information
  ukstats help             Show this help

Server flags:
  -host string        Host to bind to (default "127.0.0.1")
  -port int           Port to listen on (default 8080)
  -data-dir string    Data directory (index database, config)
  -events-dir string  Event log directory
  -timezone string    Reporting timezone (default "Asia/Bangkok")
  -no-watch           Don't watch the event log for changes

Environment variables:
  UKSTATS_DATA_DIR     Data directory (database, config)
  UKSTATS_EVENTS_DIR   Event log directory
  UKSTATS_TIMEZONE     Reporting timezone

Data is stored in ~/.ukstats/ by default.
`, version)
}

func runServe(args []string) {
	cfg := mustLoadConfig(args)
	database := mustOpenDB(cfg)
	defer database.Close()

	store, err := eventlog.Open(cfg.EventsDir)
	if err != nil {
		log.Fatalf("opening event log: %v", err)
	}
	defer store.Close()

	engine := ingest.NewEngine(store, database)
	runCatchUp(engine)

	stopWatcher := startLogWatcher(cfg, store, engine)
	defer stopWatcher()

	port := server.FindAvailablePort(cfg.Host, cfg.Port)
	if port != cfg.Port {
		fmt.Printf("Port %d in use, using %d\n", cfg.Port, port)
	}
	cfg.Port = port

	reporter := report.New(store, cfg.Location())
	srv := server.New(cfg, database, engine, reporter,
		server.WithVersion(server.VersionInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		}),
	)

	fmt.Printf("ukstats %s listening at http://%s:%d\n",
		version, cfg.Host, cfg.Port)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runReindex(args []string) {
	cfg := mustLoadConfig(args)
	database := mustOpenDB(cfg)
	defer database.Close()

	store, err := eventlog.Open(cfg.EventsDir)
	if err != nil {
		log.Fatalf("opening event log: %v", err)
	}
	defer store.Close()

	fmt.Println("Rebuilding session index...")
	stats, err := ingest.NewEngine(store, database).Rebuild()
	if err != nil {
		log.Fatalf("reindex failed: %v", err)
	}
	fmt.Printf("Reindex complete: %d events from %d segments (%d bytes)\n",
		stats.Indexed, stats.Segments, stats.Bytes)
}

func mustLoadConfig(args []string) config.Config {
	fs := flag.NewFlagSet("ukstats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			"Usage: ukstats [serve] [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	config.RegisterServeFlags(fs)
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}
	return cfg
}

func mustOpenDB(cfg config.Config) *index.DB {
	database, err := index.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening index database: %v", err)
	}
	return database
}

func runCatchUp(engine *ingest.Engine) {
	fmt.Println("Indexing event log...")
	stats, err := engine.CatchUp()
	if err != nil {
		log.Printf("warning: initial indexing incomplete: %v", err)
		return
	}
	fmt.Printf("Index up to date: %d new events from %d segments\n",
		stats.Indexed, stats.Segments)
}

func startLogWatcher(
	cfg config.Config, store *eventlog.Store, engine *ingest.Engine,
) func() {
	if cfg.NoWatch {
		return func() {}
	}
	onChange := func() {
		if _, err := engine.CatchUp(); err != nil {
			log.Printf("watcher indexing: %v", err)
		}
	}
	watcher, err := ingest.NewWatcher(
		store.Dir(), watcherDebounce, onChange,
	)
	if err != nil {
		log.Printf("warning: log watcher unavailable: %v", err)
		return func() {}
	}
	watcher.Start()
	return watcher.Stop
}
