package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ridgegate-systems/fwbridge/internal/appliance"
	"github.com/ridgegate-systems/fwbridge/internal/cache"
	"github.com/ridgegate-systems/fwbridge/internal/config"
	"github.com/ridgegate-systems/fwbridge/internal/handlers"
	"github.com/ridgegate-systems/fwbridge/internal/logging"
	"github.com/ridgegate-systems/fwbridge/internal/normalize"
	"github.com/ridgegate-systems/fwbridge/internal/publish"
	"github.com/ridgegate-systems/fwbridge/internal/server"
	"github.com/ridgegate-systems/fwbridge/internal/service"
)

var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "fwbridge",
		Short: "Normalizing bridge for RidgeGate firewall appliances",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the bridge service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("fwbridge", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("fwbridge"))
	logging.SetDefault(logger)

	slog.Info("Starting fwbridge",
		slog.Int("port", cfg.Server.Port),
		slog.String("appliance_url", cfg.Appliance.URL),
		logging.Dialect(cfg.Appliance.Dialect),
		slog.String("cache_backend", cfg.Cache.Backend),
	)

	dialect := normalize.Dialect(cfg.Appliance.Dialect)

	mapping, err := normalize.LoadMappingOverrides(cfg.Appliance.MappingsFile, dialect)
	if err != nil {
		return fmt.Errorf("load field mappings: %w", err)
	}
	engine := normalize.NewEngine(dialect, normalize.WithMapping(mapping))

	var store cache.Store
	switch cfg.Cache.Backend {
	case "redis":
		redisStore, err := cache.NewRedisStore(cfg.Cache.RedisURL)
		if err != nil {
			log.Printf("WARNING: Failed to initialize Redis cache: %v", err)
			log.Println("Falling back to in-memory cache")
			store = cache.NewMemoryStore()
		} else {
			store = redisStore
		}
	default:
		store = cache.NewMemoryStore()
	}
	defer store.Close()

	client := appliance.New(appliance.Config{
		BaseURL:  cfg.Appliance.URL,
		Dialect:  dialect,
		Username: cfg.Appliance.Username,
		Password: cfg.Appliance.Password,
		Timeout:  cfg.Appliance.Timeout,
	}, engine, logger.Logger)

	opts := []service.Option{}
	if cfg.NATS.Enabled {
		pubCfg := publish.DefaultConfig()
		pubCfg.URL = cfg.NATS.URL
		publisher, err := publish.New(pubCfg)
		if err != nil {
			log.Printf("WARNING: Failed to connect to NATS: %v", err)
			log.Println("Continuing without event publishing")
		} else {
			opts = append(opts, service.WithPublisher(publisher))
			defer publisher.Close()
			log.Printf("Event publishing enabled (subject: %s)", publish.SubjectEvents)
		}
	}

	bridge := service.New(client, store, logger, opts...)
	handler := handlers.New(bridge)
	router := server.NewRouter(handler, cfg.API.AuthSecret)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("fwbridge listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
