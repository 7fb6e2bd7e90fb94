package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
	"go.uber.org/zap"
)

// Authenticator answers whether a credential is currently stored.
type Authenticator interface {
	Authenticated(ctx context.Context) bool
}

type Middleware struct {
	session Authenticator
	log     *zap.Logger
}

func NewMiddleware(session Authenticator, log *zap.Logger) *Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &Middleware{session: session, log: log}
}

// RouteGuard lets the request through only while a credential is stored.
// Whether the credential still works is left to the resource server.
func (m *Middleware) RouteGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.session.Authenticated(r.Context()) {
			m.log.Debug("no session, redirecting to login", zap.String("path", r.URL.Path))
			http.Redirect(w, r, domain.RouteLogin, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per request.
func (m *Middleware) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

type navKey struct{}

// navigation collects the route services asked to move to while a request
// was being served. The last request wins.
type navigation struct {
	mu     sync.Mutex
	target string
}

func (n *navigation) set(target string) {
	n.mu.Lock()
	n.target = target
	n.mu.Unlock()
}

func (n *navigation) get() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target
}

// NewRequestNavigator returns a Navigator that redirects the request found in
// ctx. Outside of a request handled by Navigation the move is only logged.
func NewRequestNavigator(log *zap.Logger) ports.Navigator {
	if log == nil {
		log = zap.NewNop()
	}
	return ports.NavigatorFunc(func(ctx context.Context, target string) {
		if nav, ok := ctx.Value(navKey{}).(*navigation); ok {
			nav.set(target)
			return
		}
		log.Info("navigation outside a request", zap.String("target", target))
	})
}

// navWriter turns the response into a redirect once navigation is pending.
type navWriter struct {
	http.ResponseWriter
	nav         *navigation
	wroteHeader bool
	redirected  bool
}

func (w *navWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	if target := w.nav.get(); target != "" {
		w.redirected = true
		h := w.Header()
		h.Del("Content-Type")
		h.Del("Content-Length")
		h.Set("Location", target)
		w.ResponseWriter.WriteHeader(http.StatusFound)
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *navWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.redirected {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

// Navigation makes a Navigate call during the request a 302 of that request.
func Navigation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nav := &navigation{}
		nw := &navWriter{ResponseWriter: w, nav: nav}
		next.ServeHTTP(nw, r.WithContext(context.WithValue(r.Context(), navKey{}, nav)))
		if !nw.wroteHeader && nav.get() != "" {
			nw.WriteHeader(http.StatusFound)
		}
	})
}
