package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/services"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
	"go.uber.org/zap"
)

// Services are the collaborators the router dispatches to.
type Services struct {
	Flow      LoginFlow
	Session   Authenticator
	Accounts  ports.AccountAPI
	Links     *services.LinkAggregator
	History   *services.HistoryReader
	Analytics *services.AnalyticsService
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
}

// NewRouter creates and configures the main application router
func NewRouter(s Services, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := NewHTTPHandler(s.Links, s.History, s.Analytics)
	authHandler := NewAuthHandler(s.Flow, s.Accounts, log.Named("auth"))
	mw := NewMiddleware(s.Session, log.Named("http"))

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("GET "+domain.RouteLogin, authHandler.Login)
	mux.HandleFunc("GET "+domain.RouteCallback, authHandler.Callback)
	mux.HandleFunc("GET /logout", authHandler.Logout)
	mux.HandleFunc("POST /logout", authHandler.Logout)
	mux.HandleFunc("POST /signup", authHandler.SignUp)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics)
	}

	// Protected Routes
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("GET /dashboard", h.Dashboard)
	protectedMux.HandleFunc("POST /dashboard/links", h.Create)
	protectedMux.HandleFunc("DELETE /dashboard/links/{short_code}", h.Delete)
	protectedMux.HandleFunc("GET /analytics/{short_code}", h.Analytics)
	protectedMux.HandleFunc("GET /analytics/{short_code}/clicks", h.Clicks)

	guarded := mw.RouteGuard(protectedMux)
	mux.Handle("/dashboard", guarded)
	mux.Handle("/dashboard/", guarded)
	mux.Handle("/analytics/", guarded)

	return mw.RequestLogger(Navigation(mux))
}
