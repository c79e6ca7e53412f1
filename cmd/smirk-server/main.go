package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/smirkdb/smirk/internal/config"
	"github.com/smirkdb/smirk/internal/persistence"
	"github.com/smirkdb/smirk/internal/server"
	"github.com/smirkdb/smirk/internal/stats"
	"github.com/smirkdb/smirk/internal/store"
	"github.com/smirkdb/smirk/internal/web"
)

func main() {
	configPath := pflag.String("config", "", "optional yaml config file")
	port := pflag.Int("port", 0, "listen port")
	numberOfDBs := pflag.Int("number-of-dbs", 0, "number of databases (only 1 is supported)")
	maxThreads := pflag.Int("max-threads", 0, "GOMAXPROCS limit")
	searchType := pflag.String("default-key-search-type", "", "default KEYS strategy: glob, regex or trie")
	dataDir := pflag.String("data-dir", "", "directory for SAVE snapshots; empty disables SAVE")
	httpAddr := pflag.String("http-addr", "", "optional address for the stats HTTP sidecar")
	pflag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *numberOfDBs != 0 {
		cfg.NumberOfDBs = *numberOfDBs
	}
	if *maxThreads != 0 {
		cfg.MaxThreads = *maxThreads
	}
	if *searchType != "" {
		cfg.DefaultKeySearchType = *searchType
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}

	runtime.GOMAXPROCS(cfg.MaxThreads)

	st := store.New(store.Options{Mode: cfg.SearchMode()})

	var snap *persistence.Snapshotter
	if cfg.DataDir != "" {
		snap, err = persistence.NewSnapshotter(cfg.DataDir)
		if err != nil {
			log.Error("open data dir", "error", err)
			os.Exit(1)
		}
		entries, err := snap.Load()
		if err != nil {
			log.Error("load snapshot", "error", err)
			os.Exit(1)
		}
		st.Restore(entries)
		log.Info("snapshot restored", "keys", len(entries))
	}

	statCounters := stats.New()

	if cfg.HTTPAddr != "" {
		handler := web.NewHandler(st, statCounters, log)
		go func() {
			if err := handler.ListenAndServe(cfg.HTTPAddr); err != nil {
				log.Error("http sidecar", "error", err)
			}
		}()
		log.Info("stats sidecar listening", "addr", cfg.HTTPAddr)
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	srv := server.New(addr, st, snap, statCounters, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("smirk listening", "addr", addr, "search_mode", cfg.SearchMode().String())
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
