package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/detective2010/kasagi-state-sync/server"
)

const defaultPort = 8080

func main() {
	cmd := &cli.Command{
		Name:      "kasagi-state-sync",
		Usage:     "real-time room state synchronization server",
		ArgsUsage: "[port]",
		Action:    run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	port := defaultPort
	if arg := cmd.Args().First(); arg != "" {
		p, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", arg, err)
		}
		port = p
	}

	if err := server.InitLogger("kasagi-state-sync.log"); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer server.SyncLogger()

	sessions := server.NewSessionRegistry()
	rooms := server.NewRoomRegistry()
	handler := server.NewHandler(sessions, rooms)

	mux := http.NewServeMux()
	mux.HandleFunc(server.WSPath, server.HandleWS(sessions, handler))
	mux.Handle("/", server.NewAdminRouter(sessions, rooms))

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		server.Log.Infow("listening", "addr", addr, "path", server.WSPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
		server.Log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		server.Log.Warnw("shutdown error", "error", err)
	}
	sessions.CloseAll()
	return nil
}
