package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/rcon-web/internal/api"
	"github.com/rickgao/rcon-web/internal/auth"
	"github.com/rickgao/rcon-web/internal/config"
	"github.com/rickgao/rcon-web/internal/connection"
	"github.com/rickgao/rcon-web/internal/logging"
	"github.com/rickgao/rcon-web/internal/metrics"
	"github.com/rickgao/rcon-web/internal/storage"
	"github.com/rickgao/rcon-web/internal/version"
	"github.com/rickgao/rcon-web/internal/view"
)

func main() {
	configPath := flag.String("config", "configs/rconclient.yaml", "path to config file")
	viewName := flag.String("view", "index", "view to load once connected")
	viewData := flag.String("view-data", "", "JSON messageData for the initial view")
	flag.Parse()

	if err := run(*configPath, *viewName, *viewData); err != nil {
		fmt.Fprintln(os.Stderr, "rconclient:", err)
		os.Exit(1)
	}
}

func run(configPath, viewName, viewData string) error {
	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("starting rconclient",
		"version", version.Version,
		"commit", version.Commit,
		"config", configPath,
		"server", cfg.Server.BaseURL,
	)

	var initialData json.RawMessage
	if viewData != "" {
		if !json.Valid([]byte(viewData)) {
			return fmt.Errorf("--view-data is not valid JSON")
		}
		initialData = json.RawMessage(viewData)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	local, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	store := storage.New(nil, local)
	defer store.Close()

	if err := auth.Seed(ctx, store, cfg.Credentials.LoginName, cfg.Credentials.LoginHash); err != nil {
		return fmt.Errorf("seed credentials: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	apiClient := api.NewClient(
		cfg.Server.BaseURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.Server.Timeout),
		api.WithRetries(cfg.Server.MaxRetries, time.Second),
	)
	loader := api.NewConfigLoader(apiClient, cfg.Server.ConfigPath)

	page, err := connection.PageFromURL(cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}

	r := newRunner(runnerConfig{
		Session: connection.SessionConfig{
			Page:        page,
			Client:      clientConfig(cfg),
			ReloadDelay: cfg.Connection.ReloadDelay,
		},
		View:     viewName,
		ViewData: initialData,
	}, loader, auth.NewStoreSource(store, logger), view.NewConsole(os.Stdout), m, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.Run(ctx)
	})

	if cfg.Metrics.Port > 0 {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           newHealthHandler(r, reg, cfg.Metrics.Path),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("starting health server", "port", cfg.Metrics.Port)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("health server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("rconclient stopped")
	return err
}

func clientConfig(cfg *config.ClientConfig) connection.ClientConfig {
	return connection.ClientConfig{
		Origin:           cfg.Server.BaseURL,
		UserAgent:        version.UserAgent(),
		HandshakeTimeout: cfg.Connection.HandshakeTimeout,
		PingInterval:     cfg.Connection.PingInterval,
		PingTimeout:      cfg.Connection.PingTimeout,
		WriteTimeout:     cfg.Connection.WriteTimeout,
		BufferSize:       cfg.Connection.BufferSize,
	}
}
