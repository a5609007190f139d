package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/simplechat/chat-server/internal/auth"
	"github.com/simplechat/chat-server/internal/config"
	"github.com/simplechat/chat-server/internal/data"
	"github.com/simplechat/chat-server/internal/db"
	"github.com/simplechat/chat-server/internal/delivery"
	"github.com/simplechat/chat-server/internal/middleware"
	"github.com/simplechat/chat-server/internal/secure"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Database
	dbClient, err := db.New(ctx, cfg.MongoURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = dbClient.Close(context.Background())
	}()

	if err := dbClient.CreateIndexes(ctx); err != nil {
		slog.Error("failed to create indexes", "error", err)
		os.Exit(1)
	}

	// Optional at-rest sealing of message content.
	var box data.Sealer
	if cfg.EncryptionKey != "" {
		b, err := secure.NewBox(cfg.EncryptionKey)
		if err != nil {
			slog.Error("invalid encryption key", "error", err)
			os.Exit(1)
		}
		box = b
	}

	// Stores
	users := data.NewUsersStore(dbClient.UsersCollection(), dbClient)
	msgs := data.NewMessagesStore(dbClient.MessagesCollection(), dbClient, box)
	friends := data.NewFriendsStore(dbClient.FriendRequestsCollection(), dbClient)

	// Delivery core
	registry := delivery.NewRegistry()
	router := delivery.NewRouter(registry, msgs, users)
	history := delivery.NewHistory(msgs)

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	// Rate limiter for register/login (small burst allows quick retries).
	limiter := middleware.NewLimiterStore(cfg.RateLimitRPM, 3, time.Minute)
	defer limiter.Stop()

	srv := newServer(users, friends, registry, router, history, jwtMgr, cfg)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.routes(limiter),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server exit", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}
