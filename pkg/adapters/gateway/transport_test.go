package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/services"
)

type navRecorder struct {
	mu      sync.Mutex
	targets []string
}

func (n *navRecorder) Navigate(_ context.Context, target string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, target)
}

func TestTransport(t *testing.T) {
	tests := []struct {
		name           string
		credential     domain.Credential
		status         int
		expectedAuth   string
		expectErr      bool
		expectSession  bool
		expectNavigate bool
	}{
		{
			name:          "With credential - OK",
			credential:    "tok-1",
			status:        http.StatusOK,
			expectedAuth:  "Bearer tok-1",
			expectSession: true,
		},
		{
			name:         "No credential - unauthenticated",
			status:       http.StatusOK,
			expectedAuth: "",
		},
		{
			name:           "Rejected - session torn down",
			credential:     "tok-2",
			status:         http.StatusUnauthorized,
			expectedAuth:   "Bearer tok-2",
			expectErr:      true,
			expectNavigate: true,
		},
		{
			name:          "Forbidden passes through",
			credential:    "tok-3",
			status:        http.StatusForbidden,
			expectedAuth:  "Bearer tok-3",
			expectSession: true,
		},
		{
			name:          "Server error passes through",
			credential:    "tok-4",
			status:        http.StatusInternalServerError,
			expectedAuth:  "Bearer tok-4",
			expectSession: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth, gotRequestID string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotRequestID = r.Header.Get(RequestIDHeader)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			ctx := context.Background()
			session := services.NewSessionStore(memory.NewMemoryRepository(), "accessToken", nil)
			if tt.credential != "" {
				_ = session.Set(ctx, tt.credential)
			}
			nav := &navRecorder{}
			client := NewClient(&Transport{Session: session, Nav: nav})

			resp, err := client.Get(server.URL + "/api/urls")
			if gotAuth != tt.expectedAuth {
				t.Errorf("Authorization header: got %q want %q", gotAuth, tt.expectedAuth)
			}
			if gotRequestID == "" {
				t.Error("expected a request id")
			}
			if tt.expectErr {
				if !errors.Is(err, domain.ErrAuthRejected) {
					t.Fatalf("expected ErrAuthRejected, got %v", err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				resp.Body.Close()
				if resp.StatusCode != tt.status {
					t.Errorf("status: got %d want %d", resp.StatusCode, tt.status)
				}
			}
			if session.Authenticated(ctx) != tt.expectSession {
				t.Errorf("session present: got %v want %v", session.Authenticated(ctx), tt.expectSession)
			}
			if navigated := len(nav.targets) == 1 && nav.targets[0] == domain.RouteLogin; navigated != tt.expectNavigate {
				t.Errorf("navigation: got %v", nav.targets)
			}
		})
	}
}

func TestTransportNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	ctx := context.Background()
	session := services.NewSessionStore(memory.NewMemoryRepository(), "accessToken", nil)
	_ = session.Set(ctx, "tok")
	client := NewClient(&Transport{Session: session, Nav: &navRecorder{}})

	if _, err := client.Get(url); err == nil {
		t.Fatal("expected network error")
	}
	if !session.Authenticated(ctx) {
		t.Error("network failure must not end the session")
	}
}
