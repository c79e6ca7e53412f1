// smirk-demo bridges the line protocol onto a websocket endpoint and keeps
// the snapshot mirrored in a GCS bucket, so a throwaway deployment survives
// restarts without a persistent disk.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gorilla/websocket"

	"github.com/smirkdb/smirk/internal/persistence"
	"github.com/smirkdb/smirk/internal/protocol"
	"github.com/smirkdb/smirk/internal/server"
	"github.com/smirkdb/smirk/internal/stats"
	smirkstore "github.com/smirkdb/smirk/internal/store"
)

const (
	defaultDataDir = "/tmp/smirk-demo"
	defaultObject  = "smirk.snapshot"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	port := getenv("PORT", "8080")
	dataDir := getenv("SMIRK_DEMO_DATA_DIR", defaultDataDir)
	bucket := os.Getenv("SMIRK_DEMO_BUCKET")
	object := getenv("SMIRK_DEMO_OBJECT", defaultObject)

	if bucket == "" {
		log.Error("SMIRK_DEMO_BUCKET is required for persistence")
		os.Exit(1)
	}

	ctx := context.Background()
	mirror, err := newGCSMirror(ctx, bucket, object)
	if err != nil {
		log.Error("gcs client", "error", err)
		os.Exit(1)
	}

	snapPath := persistence.SnapshotPath(dataDir)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Error("data dir", "error", err)
		os.Exit(1)
	}
	if err := mirror.Download(ctx, snapPath); err != nil {
		log.Error("download snapshot", "error", err)
		os.Exit(1)
	}

	snap, err := persistence.NewSnapshotter(dataDir)
	if err != nil {
		log.Error("snapshotter", "error", err)
		os.Exit(1)
	}

	st := smirkstore.New(smirkstore.Options{})
	entries, err := snap.Load()
	if err != nil {
		log.Error("load snapshot", "error", err)
		os.Exit(1)
	}
	st.Restore(entries)

	handler := &wsHandler{
		st:       st,
		snap:     snap,
		stats:    stats.New(),
		mirror:   mirror,
		snapPath: snapPath,
		log:      log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", handler.handleWS)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("smirk demo listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

type wsHandler struct {
	st       *smirkstore.Store
	snap     *persistence.Snapshotter
	stats    *stats.Stats
	mirror   *gcsMirror
	snapPath string
	log      *slog.Logger
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

func (h *wsHandler) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		cmd, err := protocol.Parse(string(payload))
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte("Invalid command: "+err.Error()+".\n"))
			continue
		}

		resp := server.Dispatch(h.st, h.snap, h.stats, cmd)
		if mutating(cmd) {
			if err := h.persist(r.Context()); err != nil {
				resp = server.Response{Body: []byte("persistence upload failed: " + err.Error() + "\n")}
			}
		}

		if err := conn.WriteMessage(websocket.TextMessage, resp.Body); err != nil {
			return
		}
		if resp.Close {
			return
		}
	}
}

func (h *wsHandler) persist(ctx context.Context) error {
	if err := h.snap.Save(h.st.Dump()); err != nil {
		return err
	}
	return h.mirror.Upload(ctx, h.snapPath)
}

func mutating(cmd protocol.Command) bool {
	switch cmd.Op {
	case protocol.OpSet, protocol.OpDel, protocol.OpTTLSet, protocol.OpDelTTL:
		return true
	default:
		return false
	}
}

type gcsMirror struct {
	client *storage.Client
	bucket string
	object string
	mu     sync.Mutex
}

func newGCSMirror(ctx context.Context, bucket, object string) (*gcsMirror, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &gcsMirror{
		client: client,
		bucket: bucket,
		object: object,
	}, nil
}

func (g *gcsMirror) Download(ctx context.Context, path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	obj := g.client.Bucket(g.bucket).Object(g.object)
	rc, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return err
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (g *gcsMirror) Upload(ctx context.Context, path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	obj := g.client.Bucket(g.bucket).Object(g.object)
	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func getenv(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}
