package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/adapters/api"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/adapters/gateway"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/adapters/handler"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/adapters/metrics"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/adapters/repository"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/config"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/services"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
	"go.uber.org/zap"
)

// App wires one user profile: its session slot, the login flow and the
// services reading through the authenticated gateway.
type App struct {
	Config    *config.Config
	Log       *zap.Logger
	Storage   ports.SlotStorage
	Session   *services.SessionStore
	Flow      *services.AuthFlow
	Links     *services.LinkAggregator
	History   *services.HistoryReader
	Analytics *services.AnalyticsService
	Accounts  *api.AccountClient
	Metrics   *metrics.Metrics
}

func New(ctx context.Context, cfg *config.Config, nav ports.Navigator, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	storage, err := repository.Open(ctx, cfg.SessionURL)
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}

	m := metrics.New()
	session := services.NewSessionStore(storage, cfg.SessionKey, log)

	plain := &http.Client{Timeout: cfg.RequestTimeout}
	authed := gateway.NewClient(&gateway.Transport{
		Session:  session,
		Nav:      nav,
		Observer: m,
		Log:      log.Named("gateway"),
	})
	authed.Timeout = cfg.RequestTimeout

	flow := services.NewAuthFlow(services.AuthFlowConfig{
		AuthServerURL: cfg.AuthServerURL,
		ClientID:      cfg.OAuthClientID,
		ClientSecret:  cfg.OAuthClientSecret,
		Scopes:        cfg.OAuthScopes,
		RedirectURL:   cfg.RedirectURL(),
		HTTPClient:    plain,
	}, session, nav, m, log)

	linkAPI := api.NewClient(cfg.APIServerURL, authed)
	history := services.NewHistoryReader(linkAPI, cfg.PageSize, log)
	links := services.NewLinkAggregator(linkAPI, services.AggregatorOptions{
		Concurrency: cfg.MetricConcurrency,
		Retries:     cfg.PrimaryFetchRetries,
	}, m, log)
	// A view belongs to the credential it was fetched with.
	session.Watch(links.Reset)

	return &App{
		Config:    cfg,
		Log:       log,
		Storage:   storage,
		Session:   session,
		Flow:      flow,
		Links:     links,
		History:   history,
		Analytics: services.NewAnalyticsService(linkAPI, history),
		Accounts:  api.NewAccountClient(cfg.AuthServerURL, plain),
		Metrics:   m,
	}, nil
}

// Handler is the dashboard's HTTP surface.
func (a *App) Handler() http.Handler {
	s := handler.Services{
		Flow:      a.Flow,
		Session:   a.Session,
		Accounts:  a.Accounts,
		Links:     a.Links,
		History:   a.History,
		Analytics: a.Analytics,
	}
	if a.Config.MetricsEnabled {
		s.Metrics = a.Metrics.Handler()
	}
	return handler.NewRouter(s, a.Log)
}

func (a *App) Close() error {
	return a.Storage.Close()
}
