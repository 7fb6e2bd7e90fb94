package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/adapters/handler"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/app"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/config"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
)

// resourceServer fakes the link API. Tokens listed in revoked get a 401.
type resourceServer struct {
	mu      sync.Mutex
	links   []domain.LinkRecord
	counts  map[string]string
	revoked map[string]bool
}

func (s *resourceServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || s.revoked[token] {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.Method == "GET" && r.URL.Path == "/api/urls":
		_ = json.NewEncoder(w).Encode(s.links)
	case r.Method == "POST" && r.URL.Path == "/api/urls":
		var in struct {
			OriginalURL string `json:"originalUrl"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		rec := domain.LinkRecord{ShortCode: fmt.Sprintf("new%d", len(s.links)), OriginalURL: in.OriginalURL}
		s.links = append(s.links, rec)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(rec)
	case r.Method == "DELETE" && r.URL.Path == "/api/urls":
		var in struct {
			ShortCode string `json:"shortCode"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		for i, l := range s.links {
			if l.ShortCode == in.ShortCode {
				s.links = append(s.links[:i], s.links[i+1:]...)
				_ = json.NewEncoder(w).Encode(l)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "URL not found for short code: "+in.ShortCode)
	case r.Method == "GET" && strings.HasSuffix(r.URL.Path, "/count"):
		code := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/analytics/"), "/count")
		body, ok := s.counts[code]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, body)
	default:
		http.NotFound(w, r)
	}
}

func newAuthServer(t *testing.T, token string) (*httptest.Server, *int) {
	exchanges := 0
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/token" {
			http.NotFound(w, r)
			return
		}
		mu.Lock()
		exchanges++
		mu.Unlock()
		if _, _, ok := r.BasicAuth(); !ok {
			t.Error("token request without client credentials")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"`+token+`","token_type":"Bearer","expires_in":300}`)
	}))
	return srv, &exchanges
}

func TestIntegration(t *testing.T) {
	// 1. Setup collaborators
	resources := &resourceServer{
		links: []domain.LinkRecord{
			{ShortCode: "abc123", OriginalURL: "https://example.com/a"},
			{ShortCode: "broken", OriginalURL: "https://example.com/b"},
		},
		counts:  map[string]string{"abc123": "5", "broken": `"lots"`},
		revoked: map[string]bool{},
	}
	apiSrv := httptest.NewServer(resources)
	defer apiSrv.Close()
	authSrv, exchanges := newAuthServer(t, "tok-1")
	defer authSrv.Close()

	// 2. Setup app, listening on a test server that is its own BaseURL
	var h http.Handler
	dash := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { h.ServeHTTP(w, r) }))
	defer dash.Close()

	cfg := &config.Config{
		BaseURL:             dash.URL,
		APIServerURL:        apiSrv.URL,
		AuthServerURL:       authSrv.URL,
		OAuthClientID:       "sankshipt-client",
		OAuthClientSecret:   "sankshipt-client-secret",
		OAuthScopes:         []string{"api.read", "api.write", "api.delete"},
		SessionURL:          "file:e2e_session?mode=memory&cache=shared",
		SessionKey:          "accessToken",
		PageSize:            20,
		MetricConcurrency:   4,
		PrimaryFetchRetries: 0,
		RequestTimeout:      5 * time.Second,
		MetricsEnabled:      true,
	}
	a, err := app.New(context.Background(), cfg, handler.NewRequestNavigator(nil), nil)
	if err != nil {
		t.Fatalf("Failed to init app: %v", err)
	}
	defer a.Close()
	h = a.Handler()

	client := dash.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	get := func(path string) *http.Response {
		resp, err := client.Get(dash.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	// TEST 1: Guard sends an anonymous user to login
	resp := get("/dashboard")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != domain.RouteLogin {
		t.Fatalf("expected redirect to login, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	// TEST 2: Login redirects to the authorize endpoint
	resp = get("/login")
	authorize, err := url.Parse(resp.Header.Get("Location"))
	if err != nil || resp.StatusCode != http.StatusFound {
		t.Fatalf("login: %d %v", resp.StatusCode, err)
	}
	q := authorize.Query()
	if authorize.Path != "/oauth2/authorize" || q.Get("response_type") != "code" ||
		q.Get("client_id") != "sankshipt-client" || q.Get("scope") != "api.read api.write api.delete" ||
		q.Get("redirect_uri") != dash.URL+"/auth/callback" {
		t.Fatalf("authorize url: %s", authorize)
	}

	// TEST 3: Callback exchanges the code and lands on the dashboard
	resp = get("/auth/callback?code=code-1&state=" + url.QueryEscape(q.Get("state")))
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != domain.RouteDashboard {
		t.Fatalf("callback: %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
	if cred, ok := a.Session.Get(context.Background()); !ok || cred != "tok-1" {
		t.Fatalf("session not stored: %q %v", cred, ok)
	}

	// TEST 3.5: Replaying the code never reaches the token endpoint
	get("/auth/callback?code=code-1")
	if *exchanges != 1 {
		t.Errorf("expected one exchange, got %d", *exchanges)
	}

	// TEST 4: Dashboard aggregates, a malformed count folds to zero
	resp = get("/dashboard")
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("dashboard: %d %s", resp.StatusCode, body)
	}
	var views []domain.AggregatedLinkView
	_ = json.NewDecoder(resp.Body).Decode(&views)
	if len(views) != 2 || views[0].ShortCode != "abc123" || views[0].Clicks != 5 || views[1].Clicks != 0 {
		t.Fatalf("views: %+v", views)
	}

	// TEST 5: Create and delete update the local view
	body, _ := json.Marshal(map[string]string{"originalUrl": "https://go.dev"})
	resp, err = client.Post(dash.URL+"/dashboard/links", "application/json", bytes.NewReader(body))
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %v %d", err, resp.StatusCode)
	}
	req, _ := http.NewRequest(http.MethodDelete, dash.URL+"/dashboard/links/abc123", nil)
	if resp, err = client.Do(req); err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: %v %d", err, resp.StatusCode)
	}
	view, _ := a.Links.View()
	if len(view) != 2 || view[0].ShortCode != "broken" || view[1].ShortCode != "new2" {
		t.Fatalf("local view: %+v", view)
	}

	// TEST 6: A rejected credential ends the session and sends the user to login
	resources.mu.Lock()
	resources.revoked["tok-1"] = true
	resources.mu.Unlock()

	resp = get("/dashboard?refresh=1")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != domain.RouteLogin {
		t.Fatalf("expected teardown redirect, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
	if a.Session.Authenticated(context.Background()) {
		t.Fatal("session should be cleared after a 401")
	}
	resp = get("/dashboard")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != domain.RouteLogin {
		t.Errorf("guard should deny after teardown, got %d", resp.StatusCode)
	}

	// TEST 7: Metrics saw the rejection
	resp = get("/metrics")
	scraped, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(scraped), "dashboard_session_rejections_total 1") {
		t.Errorf("metrics missing rejection:\n%s", scraped)
	}
}
