package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stake-plus/link-curator/src/api/config"
	"github.com/stake-plus/link-curator/src/api/webserver"
	"github.com/stake-plus/link-curator/src/shared/data"
	"github.com/stake-plus/link-curator/src/shared/store"
)

func main() {
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)

	channels := store.NewGormChannels(db)
	submissions := store.NewGormSubmissions(db)
	ledger := store.NewGormLedger(db)

	router := webserver.New(cfg, channels, submissions, ledger)
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("Curation API listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	log.Println("Curation API stopped gracefully")
}
