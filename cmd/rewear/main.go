package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rewear/internal/app"
	"rewear/internal/config"
	"rewear/internal/notify"
	"rewear/internal/pkg/auth"
	"rewear/internal/pkg/logger"
	"rewear/internal/service"
	"rewear/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	var l *logger.Logger
	if l, err = logger.CreateLogger(cfg.LogLevel); err != nil {
		log.Fatal("Failed to create logger:", err)
	}

	auth.Configure(cfg.JWTSecret, cfg.TokenTTL)

	store, err := storage.NewPostgreSQL(cfg.DatabaseURI, l)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	const seedTimeout = 10 * time.Second
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), seedTimeout)
	if err := store.SeedAdmin(seedCtx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		cancelSeed()
		log.Fatal("Failed to seed admin account:", err)
	}
	cancelSeed()

	emitter := notify.NewEmitter(store, l)
	application := app.NewApp(store, emitter, l, cfg.SignupBonus)
	svc := service.NewService(application, cfg.RunAddress, l)

	const readHeaderTimeout = 5 * time.Second
	server := &http.Server{Addr: cfg.RunAddress, Handler: svc.NewRouter(), ReadHeaderTimeout: readHeaderTimeout}

	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		const shutdownTimeout = 30 * time.Second
		shutdownCtx, cancel := context.WithTimeout(serverCtx, shutdownTimeout)
		defer cancel()

		go func() {
			<-shutdownCtx.Done()
			if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		store.Close()
		log.Fatal(err)
	}

	<-serverCtx.Done()
}
