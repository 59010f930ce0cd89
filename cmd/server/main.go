package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ayush/task-manager/backend/internal/auth"
	"github.com/ayush/task-manager/backend/internal/config"
	"github.com/ayush/task-manager/backend/internal/logger"
	"github.com/ayush/task-manager/backend/internal/server"
	"github.com/ayush/task-manager/backend/internal/store"
	"github.com/ayush/task-manager/backend/internal/tasks"
	"github.com/ayush/task-manager/backend/internal/validate"
)

func main() {
	fs := pflag.NewFlagSet("server", pflag.ExitOnError)
	config.Flags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	log.Info("starting", zap.Stringer("config", cfg))

	// ── MongoDB ──────────────────────────────────────────────
	var mongoDB *mongo.Database
	if cfg.NeedsMongo() {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return fmt.Errorf("mongo connect: %w", err)
		}
		defer client.Disconnect(ctx)
		if err := client.Ping(connectCtx, nil); err != nil {
			return fmt.Errorf("mongo ping: %w", err)
		}
		mongoDB = client.Database(cfg.MongoDB)
		if err := store.EnsureIndexes(connectCtx, mongoDB); err != nil {
			return fmt.Errorf("mongo indexes: %w", err)
		}
		log.Info("mongo connected", zap.String("db", cfg.MongoDB))
	}

	// ── User store ───────────────────────────────────────────
	var users store.UserBackend
	switch cfg.UserStore {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		defer pool.Close()
		pg := store.NewPostgresUserStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
		users = pg
		log.Info("postgres user store ready")
	case config.StoreMemory:
		users = store.NewMemoryUserStore()
		log.Warn("using in-memory user store; data is lost on restart")
	default:
		users = store.NewMongoUserStore(mongoDB)
	}

	// ── Redis ────────────────────────────────────────────────
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer rdb.Close()
		users = store.NewCachedUserStore(users, rdb, cfg.UserCacheTTL)
		log.Info("user profile cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.UserCacheTTL))
	}

	// ── Task store ───────────────────────────────────────────
	var taskStore tasks.TaskStore
	if cfg.TaskStore == config.StoreMemory {
		taskStore = store.NewMemoryTaskStore()
		log.Warn("using in-memory task store; data is lost on restart")
	} else {
		taskStore = store.NewMongoTaskStore(mongoDB)
	}

	// ── Handlers ─────────────────────────────────────────────
	v := validate.New()
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	handler := server.NewRouter(server.Deps{
		Logger:         log,
		Tokens:         tokens,
		Auth:           auth.NewHandler(auth.NewService(users, tokens, v)),
		Tasks:          tasks.NewHandler(tasks.NewService(taskStore, v)),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("backend listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
