package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/PratikDhanave/gamedata-server/internal/config"
	"github.com/PratikDhanave/gamedata-server/internal/httpserver"
	"github.com/PratikDhanave/gamedata-server/internal/pipeline"
	"github.com/PratikDhanave/gamedata-server/internal/processor"
	"github.com/PratikDhanave/gamedata-server/internal/refcache"
	"github.com/PratikDhanave/gamedata-server/internal/store"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gamedata-server",
		Short: "Ingests serious-game telemetry into Postgres",
		Long: `gamedata-server accepts mission, player and group events and scores
over HTTP, queues them, and stores them against the game/organization/session
schema from a single background worker.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP intake and the storage worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gamedata-server %s (%s, %s)\n", version, commit, buildDate)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

// serve boots the service: config → worker (DB, schema, cache) → HTTP server.
// A worker that cannot start leaves the server up so /ready can report why.
func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	p := pipeline.New(openBackend(cfg),
		pipeline.WithProcessorOptions(processor.WithLocation(cfg.Location())),
	)
	if err := p.StartProcessing(ctx); err != nil {
		log.Printf("storage worker not started: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpserver.NewRouter(cfg, p),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server started on %s", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		p.StopProcessing()
		return err
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("http shutdown: %v", err)
	}

	// no draining: queued tasks are dropped
	if n := p.QueueLen(); n > 0 {
		log.Printf("discarding %d queued tasks", n)
	}
	p.StopProcessing()
	select {
	case <-p.Done():
	case <-shutdownCtx.Done():
		log.Println("storage worker did not stop in time")
	}
	return nil
}

// openBackend connects to Postgres, applies migrations when enabled and puts
// the reference cache in front of the store.
func openBackend(cfg config.Config) pipeline.OpenFunc {
	return func(ctx context.Context) (pipeline.Backend, error) {
		dsn, err := cfg.DSN()
		if err != nil {
			return pipeline.Backend{}, err
		}
		db, err := store.NewPostgresStore(ctx, dsn)
		if err != nil {
			return pipeline.Backend{}, err
		}
		if cfg.AutoMigrate {
			if err := db.Migrate(); err != nil {
				db.Close()
				return pipeline.Backend{}, err
			}
		}

		repo, err := refcache.Wrap(db, cfg.ReferenceCacheSize, cfg.ReferenceCacheTTL)
		if err != nil {
			db.Close()
			return pipeline.Backend{}, err
		}
		release := db.Close
		if cache, ok := repo.(*refcache.Repository); ok {
			release = func() {
				cache.Close()
				db.Close()
			}
		}

		return pipeline.Backend{
			Repo:    repo,
			Errors:  db,
			Ping:    db.Ping,
			Release: release,
		}, nil
	}
}

func migrate(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return err
	}
	db, err := store.NewPostgresStore(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return err
	}
	v, dirty, err := db.SchemaVersion()
	if err != nil {
		return err
	}
	log.Printf("schema at version %d (dirty=%t)", v, dirty)
	return nil
}
