package main

import (
	"context"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/adapters/handler"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/app"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/config"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.Init(logger.Config{Development: !cfg.IsProduction(), Level: cfg.LogLevel})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	a, err := app.New(context.Background(), cfg, handler.NewRequestNavigator(log.Named("nav")), log)
	if err != nil {
		log.Fatal("Failed to start dashboard", zap.Error(err))
	}
	defer a.Close()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
	}

	log.Info("Server starting",
		zap.String("port", cfg.Port),
		zap.String("api_server", cfg.APIServerURL),
		zap.String("auth_server", cfg.AuthServerURL))
	if err := server.ListenAndServe(); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
}
