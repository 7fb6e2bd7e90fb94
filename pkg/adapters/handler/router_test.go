package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/services"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
)

type stubLinkAPI struct {
	links    []domain.LinkRecord
	lastPage ports.PageRequest
}

func (s *stubLinkAPI) ListLinks(ctx context.Context) ([]domain.LinkRecord, error) {
	return append([]domain.LinkRecord(nil), s.links...), nil
}

func (s *stubLinkAPI) CreateLink(ctx context.Context, originalURL string) (*domain.LinkRecord, error) {
	if originalURL == "" {
		return nil, &domain.Error{Kind: domain.KindValidationFailure, Status: 400, Message: "Original URL is required"}
	}
	rec := domain.LinkRecord{ShortCode: "new1", OriginalURL: originalURL}
	s.links = append(s.links, rec)
	return &rec, nil
}

func (s *stubLinkAPI) DeleteLink(ctx context.Context, shortCode string) error {
	for i, l := range s.links {
		if l.ShortCode == shortCode {
			s.links = append(s.links[:i], s.links[i+1:]...)
			return nil
		}
	}
	return &domain.Error{Kind: domain.KindNotFound, Status: 404, Message: "URL not found for short code: " + shortCode}
}

func (s *stubLinkAPI) ClickCount(ctx context.Context, shortCode string) (int64, error) {
	return 5, nil
}

func (s *stubLinkAPI) ClickPage(ctx context.Context, req ports.PageRequest) (*domain.Page[domain.ClickEvent], error) {
	s.lastPage = req
	return &domain.Page[domain.ClickEvent]{
		Content:    []domain.ClickEvent{{ID: 1, ShortCode: req.ShortCode, UserAgent: "Firefox"}},
		PageNumber: 0, PageSize: req.PageSize, TotalPages: 1, TotalElements: 1, IsFirst: true, IsLast: true,
	}, nil
}

type stubFlow struct {
	nav ports.Navigator
}

func (f *stubFlow) BeginLogin(ctx context.Context) (string, error) {
	u := "http://auth.test/oauth2/authorize?response_type=code"
	f.nav.Navigate(ctx, u)
	return u, nil
}

func (f *stubFlow) CompleteCallback(ctx context.Context, callbackURL string) error {
	if !strings.Contains(callbackURL, "code=") {
		f.nav.Navigate(ctx, domain.RouteLogin)
		return services.ErrMissingCode
	}
	f.nav.Navigate(ctx, domain.RouteDashboard)
	return nil
}

func (f *stubFlow) Logout(ctx context.Context) error {
	f.nav.Navigate(ctx, domain.RouteLogin)
	return nil
}

type stubAccounts struct{}

func (stubAccounts) SignUp(ctx context.Context, req domain.SignUpRequest) (*domain.Account, error) {
	return &domain.Account{FirstName: req.FirstName, LastName: req.LastName, Email: req.Email}, nil
}

func newTestRouter(authenticated bool) (http.Handler, *stubLinkAPI) {
	api := &stubLinkAPI{links: []domain.LinkRecord{{ShortCode: "abc123", OriginalURL: "https://x.com"}}}
	history := services.NewHistoryReader(api, 20, nil)
	router := NewRouter(Services{
		Flow:      &stubFlow{nav: NewRequestNavigator(nil)},
		Session:   fakeSession{ok: authenticated},
		Accounts:  stubAccounts{},
		Links:     services.NewLinkAggregator(api, services.AggregatorOptions{}, nil, nil),
		History:   history,
		Analytics: services.NewAnalyticsService(api, history),
		Metrics:   http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("metrics")) }),
	}, nil)
	return router, api
}

func TestRouter(t *testing.T) {
	tests := []struct {
		name             string
		authenticated    bool
		method           string
		path             string
		body             string
		expectedStatus   int
		expectedLocation string
		expectedKind     string
	}{
		{name: "Health", method: "GET", path: "/healthz", expectedStatus: http.StatusOK},
		{name: "Metrics", method: "GET", path: "/metrics", expectedStatus: http.StatusOK},
		{name: "Login redirects to authorize", method: "GET", path: "/login", expectedStatus: http.StatusFound, expectedLocation: "http://auth.test/oauth2/authorize?response_type=code"},
		{name: "Callback success", method: "GET", path: "/auth/callback?code=abc", expectedStatus: http.StatusFound, expectedLocation: domain.RouteDashboard},
		{name: "Callback without code", method: "GET", path: "/auth/callback", expectedStatus: http.StatusFound, expectedLocation: domain.RouteLogin},
		{name: "Logout", method: "POST", path: "/logout", expectedStatus: http.StatusFound, expectedLocation: domain.RouteLogin},
		{name: "Dashboard guarded", method: "GET", path: "/dashboard", expectedStatus: http.StatusFound, expectedLocation: domain.RouteLogin},
		{name: "Analytics guarded", method: "GET", path: "/analytics/abc123", expectedStatus: http.StatusFound, expectedLocation: domain.RouteLogin},
		{name: "Dashboard", authenticated: true, method: "GET", path: "/dashboard", expectedStatus: http.StatusOK},
		{name: "Create", authenticated: true, method: "POST", path: "/dashboard/links", body: `{"originalUrl":"https://go.dev"}`, expectedStatus: http.StatusCreated},
		{name: "Create invalid", authenticated: true, method: "POST", path: "/dashboard/links", body: `{"originalUrl":""}`, expectedStatus: http.StatusBadRequest, expectedKind: "validation_failure"},
		{name: "Create bad body", authenticated: true, method: "POST", path: "/dashboard/links", body: `nope`, expectedStatus: http.StatusBadRequest, expectedKind: "validation_failure"},
		{name: "Delete", authenticated: true, method: "DELETE", path: "/dashboard/links/abc123", expectedStatus: http.StatusNoContent},
		{name: "Delete missing", authenticated: true, method: "DELETE", path: "/dashboard/links/ghost", expectedStatus: http.StatusNotFound, expectedKind: "not_found"},
		{name: "Analytics", authenticated: true, method: "GET", path: "/analytics/abc123", expectedStatus: http.StatusOK},
		{name: "Analytics unknown link", authenticated: true, method: "GET", path: "/analytics/ghost", expectedStatus: http.StatusNotFound, expectedKind: "not_found"},
		{name: "Analytics bad page", authenticated: true, method: "GET", path: "/analytics/abc123?page=x", expectedStatus: http.StatusBadRequest, expectedKind: "validation_failure"},
		{name: "Clicks negative page", authenticated: true, method: "GET", path: "/analytics/abc123/clicks?page=-1", expectedStatus: http.StatusBadRequest, expectedKind: "validation_failure"},
		{name: "Sign up", method: "POST", path: "/signup", body: `{"firstName":"Jane","lastName":"Doe","email":"jane@example.com","password":"pw"}`, expectedStatus: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(tt.authenticated)
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status: got %d want %d (body %s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if loc := rr.Header().Get("Location"); loc != tt.expectedLocation {
				t.Errorf("location: got %q want %q", loc, tt.expectedLocation)
			}
			if tt.expectedKind != "" {
				var res errorResponse
				if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
					t.Fatalf("decode error body: %v", err)
				}
				if res.Kind != tt.expectedKind || res.Error == "" {
					t.Errorf("error body: got %+v", res)
				}
			}
		})
	}
}

func TestRouterDashboardFlow(t *testing.T) {
	router, api := newTestRouter(true)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rr
	}
	list := func(path string) []domain.AggregatedLinkView {
		rr := do("GET", path, "")
		var views []domain.AggregatedLinkView
		if err := json.NewDecoder(rr.Body).Decode(&views); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return views
	}

	if views := list("/dashboard"); len(views) != 1 || views[0].Clicks != 5 {
		t.Fatalf("initial view: %+v", views)
	}

	do("POST", "/dashboard/links", `{"originalUrl":"https://go.dev"}`)
	views := list("/dashboard")
	if len(views) != 2 || views[1].ShortCode != "new1" || views[1].Clicks != 0 {
		t.Fatalf("local view after create: %+v", views)
	}

	// A refresh recomputes counts from the server.
	views = list("/dashboard?refresh=1")
	if len(views) != 2 || views[1].Clicks != 5 {
		t.Fatalf("refreshed view: %+v", views)
	}

	do("GET", "/analytics/abc123/clicks?page=0&sort=asc", "")
	if api.lastPage.SortOrder != domain.SortAsc || api.lastPage.PageSize != 20 {
		t.Errorf("page request: %+v", api.lastPage)
	}
}
