package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/philipparndt/gobim/internal/app"
	"github.com/philipparndt/gobim/internal/config"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/internal/server"
	"github.com/philipparndt/gobim/internal/store"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/watcher"
	"github.com/spf13/cobra"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const frameInterval = 16 * time.Millisecond

var (
	serveModel string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the viewer HTTP server",
	Long: `Start the HTTP server that browser clients talk to. State queries,
tool input, visibility and cut control, filters and measurements are all
exposed under /api/v1; /api/v1/events streams state changes as SSE.

Configuration comes from GOBIM_* environment variables.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveModel, "model", "", "model index file to load at startup")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the model when its file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	var viewer *app.App
	viewer = app.New(app.Options{
		Provider: scene.NewMemoryProvider(),
		RayAt: func(x, y float64) (geometry.Ray, bool) {
			w, h := viewer.Viewport()
			return viewer.Camera().RayThrough(x, y, w, h)
		},
		VisibilityBatchSize: cfg.VisibilityBatchSize,
		FilterBatchSize:     cfg.FilterBatchSize,
		IndexBuildTimeout:   time.Duration(cfg.IndexBuildTimeout) * time.Second,
	})

	var presets *store.Repository
	if cfg.DatabasePath != "" {
		db, err := store.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open preset database: %w", err)
		}
		defer db.Close()

		presets = store.New(db)
		if err := presets.Init(context.Background()); err != nil {
			return fmt.Errorf("failed to initialize preset database: %w", err)
		}
	} else {
		log.Println("Warning: no database path configured, filter presets disabled")
	}

	if serveModel != "" {
		if err := viewer.LoadModel(context.Background(), serveModel); err != nil {
			return fmt.Errorf("failed to load model %s: %w", serveModel, err)
		}

		if serveWatch {
			fw, err := watcher.NewFileWatcher(500 * time.Millisecond)
			if err != nil {
				return fmt.Errorf("failed to create file watcher: %w", err)
			}
			defer fw.Close()

			err = fw.Watch([]string{serveModel}, func(path string) {
				log.Printf("Model file changed, reloading: %s", path)
				if err := viewer.LoadModel(context.Background(), path); err != nil {
					log.Printf("Warning: reload failed: %v", err)
				}
			})
			if err != nil {
				return fmt.Errorf("failed to watch model file: %w", err)
			}
			fw.Start()
		}
	}

	// Frame clock: camera self-heal, tool frame work and the highlight
	// material handshake run per tick, as they would per render frame.
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			viewer.Frame()
		}
	}()

	srv := server.New(cfg, viewer, presets)
	fmt.Fprintf(os.Stderr, "gobim listening on :%s\n", cfg.Port)
	return srv.Listen()
}
