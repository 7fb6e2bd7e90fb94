package handler

import (
	"context"
	"net/http"

	dashboard "github.com/wadjakorntonsri/shortlink-dashboard/pkg/adapters/handler"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/app"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/config"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/logger"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	log, err := logger.Init(logger.Config{Development: !cfg.IsProduction(), Level: cfg.LogLevel})
	if err != nil {
		panic(err)
	}

	// Note: On Vercel, a file SESSION_URL is ephemeral; use redis:// or a libsql:// URL
	a, err := app.New(context.Background(), cfg, dashboard.NewRequestNavigator(log), log)
	if err != nil {
		panic(err)
	}
	mux = a.Handler()
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
