package gateway

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const RequestIDHeader = "X-Request-ID"

// Observer receives gateway outcomes. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveResponse(outcome string)
	ObserveRejection()
}

// Transport is the only place a dead session is detected. Every call to the
// resource server goes through it.
type Transport struct {
	Base     http.RoundTripper
	Session  ports.SessionStore
	Nav      ports.Navigator
	Observer Observer
	Log      *zap.Logger
}

// NewClient returns an http.Client whose transport is the gateway.
func NewClient(t *Transport) *http.Client {
	return &http.Client{Transport: t}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) logger() *zap.Logger {
	if t.Log != nil {
		return t.Log
	}
	return zap.NewNop()
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	out := req.Clone(ctx)

	if cred, ok := t.Session.Get(ctx); ok {
		tok := &oauth2.Token{AccessToken: string(cred), TokenType: "Bearer"}
		tok.SetAuthHeader(out)
	}
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, uuid.NewString())
	}

	resp, err := t.base().RoundTrip(out)
	if err != nil {
		t.observe("network_error")
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		t.observe(outcome(resp.StatusCode))
		return resp, nil
	}

	// The credential is dead: tear the session down before anyone sees the result.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	t.observe("auth_rejected")
	if t.Observer != nil {
		t.Observer.ObserveRejection()
	}
	t.logger().Warn("credential rejected, ending session",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("request_id", out.Header.Get(RequestIDHeader)))

	if err := t.Session.Clear(ctx); err != nil {
		t.logger().Error("failed to clear session", zap.Error(err))
	}
	t.Nav.Navigate(ctx, domain.RouteLogin)

	return nil, &domain.Error{
		Kind:   domain.KindAuthRejected,
		Op:     req.Method + " " + req.URL.Path,
		Status: resp.StatusCode,
	}
}

func (t *Transport) observe(outcome string) {
	if t.Observer != nil {
		t.Observer.ObserveResponse(outcome)
	}
}

func outcome(status int) string {
	switch {
	case status < 300:
		return "ok"
	case status < 500:
		return "client_error"
	default:
		return "server_error"
	}
}
