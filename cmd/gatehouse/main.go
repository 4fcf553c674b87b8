package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dropDatabas3/gatehouse/internal/auth"
	"github.com/dropDatabas3/gatehouse/internal/config"
	httpx "github.com/dropDatabas3/gatehouse/internal/http"
	"github.com/dropDatabas3/gatehouse/internal/http/middlewares"
	"github.com/dropDatabas3/gatehouse/internal/http/router"
	"github.com/dropDatabas3/gatehouse/internal/metrics"
	"github.com/dropDatabas3/gatehouse/internal/observability/logger"
	tokens "github.com/dropDatabas3/gatehouse/internal/security/token"
	"github.com/dropDatabas3/gatehouse/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:   "gatehouse",
		Short: "Authentication gate and management API for the streaming session host",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "gatehouse.yaml", "path to the YAML config")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the management API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfgPath)
		},
	}

	credsCmd := &cobra.Command{
		Use:   "creds <username> <password>",
		Short: "Generate the salted credentials block for the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return creds(args[0], args[1])
		},
	}

	root.AddCommand(serveCmd, credsCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(cfgPath string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "gatehouse",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	if err := metrics.Register(nil); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	metricsHandler, err := httpx.RegisterMetrics(nil)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	st := store.Open(cfg.State.Path)
	deps := auth.Deps{Store: st}

	apiTokens := auth.NewAPITokenManager(deps)
	apiTokens.Load()

	sessions := auth.NewSessionManager(deps, cfg.SessionTTL())
	sessions.Load()
	sessions.SweepExpired()

	sessionAPI := auth.NewSessionAPI(sessions, cfg)
	dispatcher := auth.NewDispatcher(apiTokens, sessionAPI, cfg)

	handler := router.New(router.Deps{
		Cfg:        cfg,
		Dispatcher: dispatcher,
		SessionAPI: sessionAPI,
		APITokens:  apiTokens,
	})

	if !cfg.CredentialsConfigured() {
		log.Warn("no administrator credentials configured, running in bootstrap mode")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpx.NewServer("http", cfg.Server.Addr, handler).Run(ctx)
	})
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		scrape := middlewares.Chain(mux, middlewares.WithRequestID(), middlewares.WithLogging())
		g.Go(func() error {
			return httpx.NewServer("metrics", cfg.Server.MetricsAddr, scrape).Run(ctx)
		})
	}

	err = g.Wait()
	sessions.Save()
	return err
}

func creds(username, password string) error {
	salt, err := tokens.Generate(nil, 16)
	if err != nil {
		return err
	}
	fmt.Printf("credentials:\n  username: %q\n  password_hash: %q\n  salt: %q\n",
		username, tokens.SHA256Hex(password+salt), salt)
	return nil
}
