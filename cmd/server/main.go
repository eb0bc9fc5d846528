package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"terrascape.dev/internal/persistence/indexdb"
	persistlog "terrascape.dev/internal/persistence/log"
	"terrascape.dev/internal/sim/catalogs"
	"terrascape.dev/internal/sim/host"
	"terrascape.dev/internal/sim/tuning"
	"terrascape.dev/internal/sim/world"
	"terrascape.dev/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 0, "world seed (0: use tuning value)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite read-model index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	if cats.Objects.Synthesized {
		logger.Printf("no object defs found; using placeholder catalog")
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	effectiveSeed := tune.Seed
	if *seed != 0 {
		effectiveSeed = *seed
	}

	w, err := world.New(world.Config{
		ID:                 *worldID,
		Seed:               effectiveSeed,
		ChunkSize:          tune.ChunkSize,
		TileSize:           tune.TileSize,
		ViewDistanceChunks: tune.ViewDistanceChunks,
		SpawnBudgetPerTick: tune.SpawnBudgetPerTick,
		NoiseBaseFrequency: tune.NoiseBaseFrequency,
		NoiseOctaves:       tune.NoiseOctaves,
		NoisePersistence:   tune.NoisePersistence,
		HeightScale:        tune.HeightScale,
		SpatialCellSize:    tune.SpatialCellSize,
	}, cats)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	// Optional: read-model index backend (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index backend: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(worldDir)
	auditLog := persistlog.NewAuditLogger(worldDir)
	defer tickLog.Close()
	defer auditLog.Close()

	h := host.New(*worldID, tune.TickRateHz, effectiveSeed, w, cats, logger)
	h.SetTickSink(multiTickSink{a: tickLog, b: idx})
	h.SetAuditSink(multiAuditSink{a: auditLog, b: idx})

	go func() {
		if err := h.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("host stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := h.Metrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP terrascape_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE terrascape_world_tick gauge\n")
		fmt.Fprintf(rw, "terrascape_world_tick{world=%q} %d\n", *worldID, m.Tick)

		fmt.Fprintf(rw, "# HELP terrascape_world_clients Current number of connected viewers.\n")
		fmt.Fprintf(rw, "# TYPE terrascape_world_clients gauge\n")
		fmt.Fprintf(rw, "terrascape_world_clients{world=%q} %d\n", *worldID, m.Clients)

		fmt.Fprintf(rw, "# HELP terrascape_world_loaded_chunks Loaded chunk count.\n")
		fmt.Fprintf(rw, "# TYPE terrascape_world_loaded_chunks gauge\n")
		fmt.Fprintf(rw, "terrascape_world_loaded_chunks{world=%q} %d\n", *worldID, m.LoadedChunks)

		fmt.Fprintf(rw, "# HELP terrascape_world_objects Live placed object count.\n")
		fmt.Fprintf(rw, "# TYPE terrascape_world_objects gauge\n")
		fmt.Fprintf(rw, "terrascape_world_objects{world=%q} %d\n", *worldID, m.Objects)

		fmt.Fprintf(rw, "# HELP terrascape_world_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE terrascape_world_step_ms gauge\n")
		fmt.Fprintf(rw, "terrascape_world_step_ms{world=%q} %d\n", *worldID, m.StepMs)

		fmt.Fprintf(rw, "# HELP terrascape_world_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE terrascape_world_queue_depth gauge\n")
		fmt.Fprintf(rw, "terrascape_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "inbox", m.InboxDepth)
		fmt.Fprintf(rw, "terrascape_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "join", m.JoinDepth)
		fmt.Fprintf(rw, "terrascape_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "leave", m.LeaveDepth)

		if idx != nil {
			fmt.Fprintf(rw, "terrascape_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "index", idx.QueueDepth())
		}
	})

	if envBool("TS_ENABLE_ADMIN_HTTP", true) {
		// Local-only admin endpoint (read-only state).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				WorldID      string `json:"world_id"`
				Tick         uint64 `json:"tick"`
				LoadedChunks int    `json:"loaded_chunks"`
				Objects      int    `json:"objects"`
			}{
				WorldID:      *worldID,
				Tick:         w.CurrentTick(),
				LoadedChunks: len(w.LoadedChunks()),
				Objects:      w.ObjectCount(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
	} else {
		logger.Printf("admin endpoints disabled (TS_ENABLE_ADMIN_HTTP=false)")
	}
	if envBool("TS_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(h, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// multiTickSink fans tick entries out to the JSONL log and the index.
type multiTickSink struct {
	a *persistlog.TickLogger
	b *indexdb.SQLiteIndex
}

func (m multiTickSink) WriteTick(e world.TickLogEntry) error {
	err := m.a.WriteTick(e)
	if m.b != nil {
		_ = m.b.WriteTick(e)
	}
	return err
}

type multiAuditSink struct {
	a *persistlog.AuditLogger
	b *indexdb.SQLiteIndex
}

func (m multiAuditSink) WriteAudit(e world.AuditEntry) error {
	err := m.a.WriteAudit(e)
	if m.b != nil {
		_ = m.b.WriteAudit(e)
	}
	return err
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func isLoopbackRemote(remoteAddr string) bool {
	hostPart := remoteAddr
	if i := strings.LastIndex(remoteAddr, ":"); i >= 0 {
		hostPart = remoteAddr[:i]
	}
	hostPart = strings.Trim(hostPart, "[]")
	return hostPart == "127.0.0.1" || hostPart == "::1" || hostPart == "localhost"
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
