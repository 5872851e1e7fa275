package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/BookKeeper/internal/config"
	"github.com/atinyakov/BookKeeper/internal/db"
	"github.com/atinyakov/BookKeeper/internal/logger"
	"github.com/atinyakov/BookKeeper/internal/migrate"
	"github.com/atinyakov/BookKeeper/internal/repository/postgres"
	"github.com/atinyakov/BookKeeper/internal/server/handler/web"
	"github.com/atinyakov/BookKeeper/internal/service"

	httphandler "github.com/atinyakov/BookKeeper/internal/server/handler/http"
)

const (
	tokenSweepInterval = time.Hour
	shutdownTimeout    = 10 * time.Second
)

func main() {
	options := config.Parse()

	log := logger.New()
	if err := log.Init("info"); err != nil {
		panic(err)
	}
	defer func() { _ = log.Log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := migrate.Up(ctx, options.DatabaseDSN); err != nil {
		log.Log.Fatal("migrations failed", zap.Error(err))
	}

	store, err := postgres.New(ctx, options.DatabaseDSN)
	if err != nil {
		log.Log.Fatal("cannot connect to database", zap.Error(err))
	}
	defer store.Close()

	userRepo := postgres.NewUserRepo(store)
	bookRepo := postgres.NewBookRepo(store)
	borrowingRepo := postgres.NewBorrowingRepo(store)

	authService := service.NewAuthService(userRepo, []byte(options.TokenSecret))
	bookService := service.NewBookService(bookRepo, borrowingRepo)
	borrowService := service.NewBorrowService(userRepo, bookRepo, borrowingRepo)
	userService := service.NewUserService(userRepo)

	webHandler, err := web.New(bookService, log.Log)
	if err != nil {
		log.Log.Fatal("cannot build web handler", zap.Error(err))
	}

	router := httphandler.NewRouter(
		&httphandler.AuthHandler{AuthService: authService},
		&httphandler.BooksHandler{BookService: bookService, BorrowService: borrowService},
		&httphandler.UsersHandler{UserService: userService, BorrowService: borrowService},
		webHandler.Routes(),
		log.Log,
	)

	db.StartTokenCleaner(ctx, store.Pool, tokenSweepInterval, service.TokenTTL, log.Log)

	srv := &http.Server{
		Addr:    options.Address,
		Handler: router,
	}

	go func() {
		log.Log.Info("server is listening", zap.String("address", options.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Log.Fatal("server stopped unexpectedly", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Log.Info("server stopped")
}
