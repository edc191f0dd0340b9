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

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"lunysse-scheduler/internal/auth"
	"lunysse-scheduler/internal/config"
	"lunysse-scheduler/internal/events"
	gweb "lunysse-scheduler/internal/grpcweb"
	"lunysse-scheduler/internal/handler"
	"lunysse-scheduler/internal/httpapi"
	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/logger"
	"lunysse-scheduler/internal/middleware"
	"lunysse-scheduler/internal/store"
)

func main() {
	cfg, err := config.Load("config.yml")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg.Log.Level, cfg.Log.Format, "lunysse-scheduler")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// storage
	var repo ledger.Repository
	if cfg.UsePostgres() {
		pool, err := pgxpool.New(ctx, cfg.DB.URL)
		if err != nil {
			lg.Fatal("db", zap.Error(err))
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			lg.Fatal("db ping", zap.Error(err))
		}
		lg.Info("connected to postgres")

		st := store.New(pool)
		if script, err := os.ReadFile(cfg.DB.Migrations); err != nil {
			lg.Warn("migration file not found, skipping", zap.Error(err))
		} else if err := st.Migrate(ctx, string(script)); err != nil {
			lg.Warn("migration failed", zap.Error(err))
		} else {
			lg.Info("migration applied", zap.String("file", cfg.DB.Migrations))
		}
		repo = st
	} else {
		lg.Info("no database configured, using seeded in-memory store")
		repo = store.NewSeededMemory(store.Fixtures{})
	}

	// invalidation events
	bus := events.NewBus(64)
	var pub events.Publisher = bus
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			lg.Fatal("redis ping", zap.Error(err))
		}
		stream := events.NewRedisStream(rdb, cfg.Redis.Stream, cfg.Redis.MaxLen, lg.Named("events"))
		// local subscribers are fed by the relay so every instance sees the same stream
		pub = stream
		go func() {
			if err := stream.Relay(ctx, bus, 5*time.Second); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("event relay stopped", zap.Error(err))
			}
		}()
		lg.Info("publishing events to redis", zap.String("addr", cfg.Redis.Addr), zap.String("stream", cfg.Redis.Stream))
	}

	svc := ledger.New(repo,
		ledger.WithSlots(cfg.Ledger.Slots),
		ledger.WithPublisher(pub),
		ledger.WithLogger(lg.Named("ledger")),
	)
	issuer := auth.NewIssuer(cfg.Auth.Secret, cfg.TokenTTL())
	rl := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	defer rl.Close()

	// grpc server
	srv := grpc.NewServer(
		handler.ServerCodec(),
		grpc.ChainUnaryInterceptor(
			middleware.RateLimit(rl),
			middleware.Auth(issuer),
		),
	)
	handler.Register(srv, handler.New(svc, issuer, lg))

	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		lg.Fatal("listen", zap.Error(err))
	}
	go func() {
		lg.Info("grpc listening", zap.String("port", cfg.Server.GRPCPort))
		if err := srv.Serve(lis); err != nil {
			lg.Error("grpc", zap.Error(err))
		}
	}()

	// grpc-web bridge -> forwards browser requests to grpc on localhost
	bridge, err := gweb.New("localhost:"+cfg.Server.GRPCPort,
		gweb.WithLogger(lg),
		gweb.WithOrigins(cfg.Server.Cors),
	)
	if err != nil {
		lg.Fatal("bridge", zap.Error(err))
	}
	defer bridge.Close()

	webSrv := &http.Server{
		Addr:              ":" + cfg.Server.WebPort,
		Handler:           bridge.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	api := httpapi.New(svc, issuer,
		httpapi.WithBus(bus),
		httpapi.WithLimiter(rl),
		httpapi.WithLogger(lg),
		httpapi.WithOrigins(cfg.Server.Cors),
	)
	apiSrv := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// event streams end with ctx
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	for name, s := range map[string]*http.Server{"grpc-web": webSrv, "rest": apiSrv} {
		go func() {
			lg.Info("http listening", zap.String("server", name), zap.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				lg.Error("http", zap.String("server", name), zap.Error(err))
			}
		}()
	}

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	lg.Info("shutting down")
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = webSrv.Shutdown(shutdownCtx)
	srv.GracefulStop()
}
