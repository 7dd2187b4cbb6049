package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fglog/fglog-go/internal/feed"
	"github.com/fglog/fglog-go/pkg/fglog"
	"github.com/fglog/fglog-go/pkg/fglog/status"
)

var (
	// serve flags
	serveAddr    string
	serveLogDir  string
	serveLogFile string
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream shows to WebSocket clients",
	Long: `Follow the Fall Guys log and broadcast every event to WebSocket
clients connected to /ws.

Clients may send {"type":"subscribe","types":["rounds_parsed"]} or
{"type":"unsubscribe","types":[...]} to choose event types. New clients
receive the last completed show first. Set serve.token in the config file or
FGLOG_FEED_TOKEN to require a bearer token.

Endpoints:
  /ws          WebSocket event feed
  /api/status  Current client status as JSON
  /api/health  Liveness check`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", DefaultAddr,
		"Address to listen on")
	serveCmd.Flags().StringVarP(&serveLogDir, "log-dir", "d", "",
		"Fall Guys log directory (auto-detected if not specified)")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "",
		"Live log file name (default Player.log)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Serve.Addr = serveAddr
	}
	if cmd.Flags().Changed("log-dir") {
		cfg.LogDir = serveLogDir
	}
	if cmd.Flags().Changed("log-file") {
		cfg.LogFile = serveLogFile
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	watcher, err := fglog.NewWatcher(
		fglog.WithLogDir(cfg.LogDir),
		fglog.WithLogFile(cfg.LogFile),
		fglog.WithPollInterval(cfg.PollInterval),
		fglog.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer watcher.Close()

	hub := feed.NewHub(logger)
	hub.Token = cfg.Serve.Token
	hub.AllowedOrigins = cfg.Serve.AllowedOrigins

	ln, err := net.Listen("tcp", cfg.Serve.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	server := &http.Server{
		Handler:           newServeMux(hub, watcher.Status()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	events, errs, err := watcher.Watch(ctx)
	if err != nil {
		ln.Close()
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "fglog: serving %s on ws://%s/ws\n", watcher.LogDir(), ln.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return pump(gctx, events, errs, hub, logger)
	})
	g.Go(func() error {
		if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// pump publishes watcher events to the hub until both channels close.
func pump(ctx context.Context, events <-chan fglog.Event, errs <-chan error, hub *feed.Hub, logger *slog.Logger) error {
	for events != nil || errs != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := hub.Publish(ev); err != nil {
				logger.Warn("publish failed", "type", ev.Type, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

// statusResponse is the /api/status body.
type statusResponse struct {
	InShow    bool `json:"in_show"`
	ShowEnded bool `json:"show_ended"`
	LastPing  int  `json:"last_ping"`
	Clients   int  `json:"clients"`
}

func newServeMux(hub *feed.Hub, st *status.Status) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)

	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(statusResponse{
			InShow:    st.InShow(),
			ShowEnded: st.ShowEnded(),
			LastPing:  st.LastPing(),
			Clients:   hub.ClientCount(),
		})
	})

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"` + version + `"}`))
	})
	return mux
}
