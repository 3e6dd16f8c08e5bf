package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/brickify/web/internal/api"
	"github.com/brickify/web/internal/backend"
	"github.com/brickify/web/internal/config"
	"github.com/brickify/web/internal/session"
	"github.com/brickify/web/internal/uploadgate"
	"github.com/brickify/web/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	rootCmd := &cobra.Command{
		Use:           "brickify-web",
		Short:         "Brickify web client",
		Long:          "Serves the Brickify pages and forwards images and sign-ins to the analysis backend.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return runServer(cmd.Context(), cfg, configPath)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "brickify.yaml", "path to the YAML config file")
	rootCmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config and $PORT)")

	rootCmd.AddCommand(newConfigCmd(&configPath))
	return rootCmd
}

func newConfigCmd(configPath *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(*configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", *configPath)
			}
			if err := config.DefaultConfig().Save(*configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", *configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	configCmd.AddCommand(initCmd)
	return configCmd
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		log.WithField("level", cfg.Level).Warn("unknown log level, using info")
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

func runServer(ctx context.Context, cfg *config.AppConfig, configPath string) error {
	log := newLogger(cfg.Logging)

	client := backend.New(cfg.Backend.BaseURL, backend.WithTimeout(cfg.BackendTimeout()))
	policy := uploadgate.Policy{
		AcceptPrefix: cfg.Upload.AcceptPrefix,
		MaxBytes:     cfg.Upload.MaxBytes,
	}

	// One upload gate per browser session
	sessionMgr := session.NewManager(api.NewGateFactory(client, policy, log), log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background session cleanup
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessionMgr.CleanupOldSessions(cfg.SessionTimeout()); n > 0 {
					log.WithField("removed", n).Debug("expired sessions removed")
				}
			}
		}
	}()

	renderer, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	api.SetupMiddleware(e, log, log.IsLevelEnabled(logrus.DebugLevel))

	// Configure middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Logging.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" ||
				path == "/api/upload/state" ||
				strings.HasPrefix(path, "/static/")
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request")
			} else {
				entry.Info("request")
			}
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.AllowedOrigins(),
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			AllowCredentials: true,
		}))
	}

	deps := &api.Dependencies{
		Backend:  client,
		Sessions: sessionMgr,
		Policy:   policy,
		Cookie: api.CookieOptions{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.SecureCookie,
		},
		Log:        log,
		Version:    Version,
		LoginRate:  cfg.Security.LoginRatePerSecond,
		LoginBurst: cfg.Security.LoginBurst,
	}
	api.RegisterRoutes(e, api.NewHandlers(deps), deps)

	if err := web.RegisterStaticRoutes(e); err != nil {
		return fmt.Errorf("failed to register static routes: %w", err)
	}

	// Configure server with settings from config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, configPath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}

func printBanner(cfg *config.AppConfig, configPath string) {
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Brickify Web Client                             ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Backend:   %-46s║\n", cfg.Backend.BaseURL)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
	fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
}
