package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/danielhkuo/rankem/aggregator"
	"github.com/danielhkuo/rankem/cliparse"
	"github.com/danielhkuo/rankem/db"
	"github.com/danielhkuo/rankem/lock"
	"github.com/danielhkuo/rankem/middleware"
	"github.com/danielhkuo/rankem/mirror"
	"github.com/danielhkuo/rankem/router"
	"github.com/danielhkuo/rankem/store"
)

func main() {
	var err error

	// Local development reads .env; real deployments set the environment
	if err := cliparse.LoadDotEnv(".env"); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	repo, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("store setup failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Without Redis, locking is per process and Top reads the store
	var locker lock.Locker = lock.NewLocalLocker()
	var pub mirror.Publisher = mirror.Nop{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			slog.Error("redis ping failed", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}

		locker = lock.NewRedisLocker(client, cfg.LockTTL)
		pub = mirror.NewRedisMirror(client)
		slog.Info("Redis lock and leaderboard mirror enabled", "addr", cfg.RedisAddr)
	}

	agg := aggregator.New(repo, locker, pub)

	// Create router
	mux := router.NewRouter(repo, agg, pub, cfg)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		slog.Error("Error listening", "addr", server.Addr, "error", err)
		return
	}

	// Start server
	slog.Info("Listening", "port", cfg.Port, "store", cfg.DatabaseType)
	if err := serve(&server, ln, ctrlc, shutdownTimeout); err != nil {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed")
	}
}

const shutdownTimeout = 10 * time.Second

// serve runs server on ln until stop fires, then returns only after
// in-flight requests have drained or timeout has passed.
func serve(server *http.Server, ln net.Listener, stop <-chan os.Signal, timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		// Let in-flight submissions commit before the store closes
		if err := server.Shutdown(ctx); err != nil {
			slog.Warn("Graceful shutdown timed out", "error", err)
			server.Close()
		}
	}()

	err := server.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

// openStore builds the repository selected by cfg.DatabaseType.
// The returned func releases it.
func openStore(cfg cliparse.Config) (store.Repository, func(), error) {
	if cfg.DatabaseType == cliparse.DatabaseMemory {
		slog.Warn("Using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}

	dialect := db.DialectSQLite
	if cfg.DatabaseType == cliparse.DatabasePostgres {
		dialect = db.DialectPostgres
	}

	conn, err := db.Open(dialect, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	// Verify connection
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, nil, err
	}

	if err := db.Migrate(conn, dialect); err != nil {
		conn.Close()
		return nil, nil, err
	}
	slog.Info("Database schema ready", "dialect", dialect)

	return store.NewSQLStore(conn, dialect), func() { conn.Close() }, nil
}
