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

	"github.com/Clark-Hu/moviestore/internal/auth"
	"github.com/Clark-Hu/moviestore/internal/config"
	httpserver "github.com/Clark-Hu/moviestore/internal/http"
	"github.com/Clark-Hu/moviestore/internal/pricing"
	"github.com/Clark-Hu/moviestore/internal/rental"
	"github.com/Clark-Hu/moviestore/internal/repository"
	"github.com/Clark-Hu/moviestore/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.New(os.Stdout, "[moviestore] ", log.LstdFlags|log.Lshortfile)

	st, err := store.Wait(ctx, cfg.DBURL, store.OptionsFromConfig(cfg, logger), store.WaitPolicyFromConfig(cfg))
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer st.Close()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	if err != nil {
		log.Fatalf("init token manager: %v", err)
	}

	repo := repository.New(st)
	rentalStore := rental.NewPostgresStore(repo)
	policy := pricing.NewPolicy(cfg.PricingLocation)
	lifecycle := rental.NewLifecycle(rentalStore, policy, time.Now, logger)
	settlement := rental.NewSettlement(rentalStore, policy, time.Now, logger)

	server := httpserver.New(cfg, st, repo, lifecycle, settlement, tokens, logger)
	logger.Printf("listening on :%s (pricing timezone %s)", cfg.Port, cfg.PricingLocation)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			log.Printf("server error: %v", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("graceful shutdown error: %v", err)
	}
}
