package commands

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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	annotator "github.com/menta2k/image-annotator"
	"github.com/menta2k/image-annotator/internal/config"
	"github.com/menta2k/image-annotator/pkg/archive"
	"github.com/menta2k/image-annotator/pkg/render"
	"github.com/menta2k/image-annotator/pkg/server"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the annotate and save endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			store, closeStore, err := openArchive(cfg.Server)
			if err != nil {
				return err
			}
			defer closeStore()

			gin.SetMode(gin.ReleaseMode)
			srv := server.New(server.Deps{
				Version:        annotator.Version,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Store:          store,
				Renderer:       render.NewWithStyle(annotator.OptionsFromConfig(cfg).Style),
				MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			})

			httpServer := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           srv.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Printf("Listening on %s", cfg.Server.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Println("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	return cmd
}

// openArchive uses redis when an address is configured, else a directory
func openArchive(sc config.ServerConfig) (archive.Store, func(), error) {
	if sc.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: sc.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", sc.RedisAddr, err)
		}
		ttl := time.Duration(sc.RedisTTLHours) * time.Hour
		log.Printf("Archiving annotations in redis at %s", sc.RedisAddr)
		return archive.NewRedisStore(client, ttl), func() { client.Close() }, nil
	}

	store, err := archive.NewDirStore(sc.ArchiveDir)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Archiving annotations in %s", sc.ArchiveDir)
	return store, func() {}, nil
}
