package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Billy-Davies-2/teamforge/internal/auth"
	"github.com/Billy-Davies-2/teamforge/internal/cache"
	"github.com/Billy-Davies-2/teamforge/internal/clickhouse"
	"github.com/Billy-Davies-2/teamforge/internal/commands"
	"github.com/Billy-Davies-2/teamforge/internal/config"
	"github.com/Billy-Davies-2/teamforge/internal/dal"
	"github.com/Billy-Davies-2/teamforge/internal/formation"
	grpcserver "github.com/Billy-Davies-2/teamforge/internal/grpc"
	"github.com/Billy-Davies-2/teamforge/internal/handlers"
	"github.com/Billy-Davies-2/teamforge/internal/logger"
	"github.com/Billy-Davies-2/teamforge/internal/metrics"
	"github.com/Billy-Davies-2/teamforge/internal/mocks"
	"github.com/Billy-Davies-2/teamforge/internal/models"
	"github.com/Billy-Davies-2/teamforge/internal/pubsub"
)

// eventBus is the upstream both NATS variants provide
type eventBus interface {
	pubsub.Upstream
	Close()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)
	logger.Info("Starting teamforge", "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog := models.DefaultCatalog()
	seed := dal.DefaultSeed()
	if cfg.RosterFile != "" {
		seed, err = dal.LoadSeedFile(cfg.RosterFile, catalog)
		if err != nil {
			fatal("Failed to load roster file", err, "file", cfg.RosterFile)
		}
		logger.Info("Loaded roster seed", "file", cfg.RosterFile, "players", len(seed.Players))
	}

	store := openStore(cfg, seed)
	defer store.Close()

	bus := openBus(cfg)
	defer bus.Close()

	// local fan-out bridged to NATS; handlers and gRPC only see this
	ps := pubsub.NewWithUpstream(bus)
	history := pubsub.NewHistory(ps, 200)
	defer history.Close()

	collector := metrics.NewCollector("teamforge")

	var formations cache.FormationStore = cache.NewMemoryCache()
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewFormationCache(cache.Config{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			DefaultTTL: cfg.FormationCacheTTL,
		})
		if err != nil {
			fatal("Failed to initialize formation cache", err, "addr", cfg.RedisAddr)
		}
		formations = redisCache
	} else {
		logger.Info("Using in-memory formation cache (REDIS_ADDR not set)")
	}
	defer formations.Close()

	s1, s2, err := formation.NewSeed()
	if err != nil {
		fatal("Failed to seed random source", err)
	}
	rng := formation.NewLockedSource(formation.NewSeededSource(s1, s2))

	svc := commands.NewService(store, rng, ps,
		commands.WithMetrics(collector),
		commands.WithCache(formations),
		commands.WithCatalog(catalog),
	)

	power := openPowerSource(cfg, store)
	defer power.Close()
	go clickhouse.RunSync(ctx, power, cfg.PowerSyncInterval, svc.SyncPowers)

	var authProvider auth.Provider
	if cfg.IsDevelopment() {
		logger.Info("Using mock authentication for local development (no Authentik server required)")
		authProvider = auth.NewMockAuth()
	} else {
		authProvider = auth.NewAuthentikAuth(&auth.AuthentikConfig{
			BaseURL:      cfg.AuthentikBaseURL,
			ClientID:     cfg.AuthentikClientID,
			ClientSecret: cfg.AuthentikClientSecret,
			RedirectURL:  cfg.AuthentikRedirectURL,
			Scopes:       cfg.AuthentikScopes,
			Application:  cfg.AuthentikApplication,
		})
		logger.Info("Using Authentik", "url", cfg.AuthentikBaseURL)
	}

	grpcSrv, grpcHealth := grpcserver.NewGRPCServer(grpcserver.NewServer(svc, ps, history))
	go func() {
		addr := "0.0.0.0:" + cfg.GRPCPort
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			fatal("Failed to listen for gRPC", err, "port", cfg.GRPCPort)
		}
		logger.Info("gRPC server starting", "address", addr)
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()

	mux := http.NewServeMux()

	mux.HandleFunc("/auth/login", authProvider.LoginHandler)
	mux.HandleFunc("/auth/callback", authProvider.CallbackHandler)
	mux.HandleFunc("/auth/logout", authProvider.LogoutHandler)

	api := handlers.NewAPIHandlers(svc, ps, history)
	routes := api.Routes()
	if cfg.IsDevelopment() {
		routes = append(routes, api.DevRoutes()...)
	}
	for _, rt := range routes {
		mux.HandleFunc(rt.Path, collector.Middleware(rt.Path, authProvider.APIMiddleware(rt.Handler)))
	}

	health := &healthChecker{store: store, power: power, production: !cfg.IsDevelopment()}
	mux.HandleFunc("/api/health", health.health)
	mux.HandleFunc("/healthz", health.liveness) // Kubernetes liveness probe
	mux.HandleFunc("/readyz", health.readiness) // Kubernetes readiness probe
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts end with the process so SSE streams close on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		logger.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("Server failed", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	grpcHealth.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown did not complete", "error", err)
	}
	grpcSrv.GracefulStop()
}

func fatal(msg string, err error, args ...any) {
	logger.Error(msg, append([]any{"error", err}, args...)...)
	log.Fatalf("%s: %v", msg, err)
}

func openStore(cfg *config.Config, seed *models.Seed) dal.RosterDAL {
	switch cfg.DBDriver {
	case "sqlite":
		store, err := dal.NewSQLiteDAL(cfg.SQLiteFile, seed)
		if err != nil {
			fatal("Failed to initialize SQLite", err)
		}
		logger.Info("Connected to SQLite database", "file", cfg.SQLiteFile)
		return store
	case "postgres":
		store, err := dal.NewPostgresDAL(cfg.DatabaseURL, seed)
		if err != nil {
			fatal("Failed to initialize Postgres", err)
		}
		logger.Info("Connected to Postgres database")
		return store
	default:
		logger.Info("Using in-memory data store")
		return dal.NewMemoryDAL(seed)
	}
}

// openBus uses embedded NATS in development and real JetStream otherwise
func openBus(cfg *config.Config) eventBus {
	if cfg.IsDevelopment() {
		logger.Info("Starting embedded NATS server for local development")
		embedded, err := pubsub.NewEmbeddedNATSPubSub(pubsub.EmbeddedNATSOptions{
			Port:       -1,
			Subject:    cfg.NATSSubject,
			StreamName: cfg.NATSStream,
		})
		if err != nil {
			fatal("Failed to initialize embedded NATS", err)
		}
		logger.Info("Embedded NATS server ready", "url", embedded.GetServerURL())
		return embedded
	}

	bus, err := pubsub.NewNATSPubSub(cfg.NATSURL, cfg.NATSSubject, cfg.NATSStream)
	if err != nil {
		fatal("Failed to initialize NATS", err, "url", cfg.NATSURL)
	}
	logger.Info("Connected to NATS", "url", cfg.NATSURL)
	return bus
}

// openPowerSource uses ClickHouse in production and a roster-backed mock in development
func openPowerSource(cfg *config.Config, store dal.RosterDAL) clickhouse.PowerSource {
	if cfg.IsDevelopment() {
		return mocks.NewMockPowerSource(func() []mocks.RatedPlayer {
			players, err := store.ListPlayers()
			if err != nil {
				logger.Warn("Mock power source could not read roster", "error", err)
				return nil
			}
			out := make([]mocks.RatedPlayer, len(players))
			for i, p := range players {
				out[i] = mocks.RatedPlayer{Name: p.Name, Power: p.Power}
			}
			return out
		})
	}

	client, err := clickhouse.NewClient(cfg.ClickHouseAddr, cfg.ClickHouseDB, cfg.ClickHouseUser, cfg.ClickHousePassword)
	if err != nil {
		fatal("Failed to initialize ClickHouse", err, "address", cfg.ClickHouseAddr)
	}
	logger.Info("Connected to ClickHouse", "address", cfg.ClickHouseAddr, "database", cfg.ClickHouseDB)
	return client
}
