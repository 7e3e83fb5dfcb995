package main

import (
	"context"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qmdx00/lifecycle"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"club-directory/core"
	"club-directory/pkg/resources"
	"club-directory/pkg/servers"
)

func main() {
	name, version := "club-directory", "1.0"

	// 1. Config + logger
	cfg, err := resources.LoadConfig(resources.NewViper(), name, version)
	if err != nil {
		log.Fatal().Err(err).Str("stage", "startup").Msg("unable to load configuration")
	}

	ctx, err := resources.SetupLogger(context.Background(), os.Stdout, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("stage", "startup").Msg("unable to set up logger")
	}

	startupLogger := log.Ctx(ctx).With().Str("stage", "startup").Str("component", "main").Logger()
	shutdownLogger := log.Ctx(ctx).With().Str("stage", "shut down").Str("component", "main").Logger()

	startupLogger.Info().Msg("application starting up")
	defer shutdownLogger.Info().Msg("application stopped")

	// 2. Telemetry (traces/metrics/logs), zerolog bridged to OTel logs
	shutdownTelemetry, err := resources.Observe(ctx, cfg)
	if err != nil {
		startupLogger.Fatal().Err(err).Msg("unable to set up otel telemetry")
	}

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		err := shutdownTelemetry(stopCtx)
		if err != nil {
			shutdownLogger.Error().Err(err).Msg("unable to flush telemetry")
		}
	}()

	if cfg.OtelEnabled {
		ctx = resources.BridgeLogger(ctx, cfg)
	}

	// 3. Organization directory
	directory, err := core.LoadDirectory(cfg.DirectoryFile)
	if err != nil {
		startupLogger.Fatal().Err(err).Str("file", cfg.DirectoryFile).Msg("unable to load organization directory")
	}

	startupLogger.Info().Int("organizations", len(directory)).Msg("organization directory loaded")

	// 4. Data backend
	var closables []resources.Closable

	backend := core.NewUnconfiguredBackend()

	if cfg.Configured() {
		pool, err := resources.CreateDatabaseConnectionPool(ctx, cfg.DB)
		if err != nil {
			startupLogger.Fatal().Err(err).Msg("unable to create database connection pool")
		}

		closables = append(closables, pool)

		backend = core.NewBackend(core.NewRepository(pool), core.NewAuthenticator(pool, core.AuthConfig{
			Secret:    cfg.AuthSecret,
			TokenTTL:  cfg.AuthTokenTTL,
			InviteTTL: cfg.InviteTokenTTL,
		}))
	} else {
		startupLogger.Warn().Msg("data backend is not configured, serving the directory read-only")
	}

	unsubscribe := backend.OnAuthStateChange(func(event core.AuthEvent, user *core.User) {
		entry := log.Info().Str("component", "auth").Str("event", string(event))
		if user != nil {
			entry = entry.Str("user_id", user.Id)
		}

		entry.Msg("auth state changed")
	})
	defer unsubscribe()

	// 5. Wiring
	handlers := core.NewHandlers(core.NewState(backend, directory))

	gin.SetMode(gin.ReleaseMode)

	restHandler := gin.New()
	restHandler.Use(gin.Recovery())
	restHandler.Use(otelgin.Middleware(name))
	restHandler.Use(resources.NewHTTPMetrics(name).Middleware())

	core.Routes(restHandler, handlers)

	debugHandler := http.NewServeMux()
	debugHandler.HandleFunc("/debug/pprof/", pprof.Index)
	debugHandler.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	debugHandler.HandleFunc("/debug/pprof/profile", pprof.Profile)
	debugHandler.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	debugHandler.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// 6. Daemons/servers lifecycle
	var app servers.Application = lifecycle.NewApp(
		lifecycle.WithName(name),
		lifecycle.WithVersion(version),
	)

	app.Attach(servers.BuildBaseServer(closables...))
	app.Attach(servers.BuildHttpServer("debug-server", servers.NewServer("localhost", cfg.DebugPort, debugHandler)))
	app.Attach(servers.BuildHttpServer("rest-server", servers.NewServer(cfg.HTTPHost, cfg.HTTPPort, restHandler)))

	startupLogger.Info().Str("app_id", app.ID()).Msg("application running")

	// 7. Run until a shutdown signal arrives
	err = app.Run()
	if err != nil {
		shutdownLogger.Error().Err(err).Msg("runtime error")
	}
}
