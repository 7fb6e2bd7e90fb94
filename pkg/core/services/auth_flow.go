package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const maxConsumedCodes = 128

type AuthState int

const (
	StateIdle AuthState = iota
	StateRedirecting
	StateAwaitingCallback
	StateExchanging
	StateAuthenticated
	StateFailed
)

func (s AuthState) String() string {
	return [...]string{"idle", "redirecting", "awaiting_callback", "exchanging", "authenticated", "failed"}[s]
}

// authTransitions lists the states reachable from each state.
// Idle may go straight to AwaitingCallback: the browser can come back to a
// freshly started process that never saw the matching BeginLogin.
var authTransitions = map[AuthState][]AuthState{
	StateIdle:             {StateRedirecting, StateAwaitingCallback},
	StateRedirecting:      {StateRedirecting, StateAwaitingCallback, StateIdle},
	StateAwaitingCallback: {StateExchanging, StateFailed},
	StateExchanging:       {StateAuthenticated, StateFailed},
	StateAuthenticated:    {StateRedirecting, StateIdle},
	StateFailed:           {StateRedirecting, StateIdle},
}

var (
	ErrInvalidTransition   = errors.New("invalid auth state transition")
	ErrMissingCode         = errors.New("callback carries no authorization code")
	ErrAuthorizationDenied = errors.New("authorization server denied the request")
	ErrStateMismatch       = errors.New("callback state does not match the pending login")
	ErrCodeReplayed        = errors.New("authorization code was already used")
	ErrExchangeFailed      = errors.New("token exchange failed")
	ErrLoginAbandoned      = errors.New("logged out before the token exchange finished")
)

type AuthFlowConfig struct {
	AuthServerURL string
	ClientID      string
	ClientSecret  string
	Scopes        []string
	RedirectURL   string
	// HTTPClient performs the token exchange. It must not be the gateway
	// client: the exchange is authenticated with the client's own credentials.
	HTTPClient *http.Client
}

// AuthFlow drives the authorization-code login and owns its state machine.
type AuthFlow struct {
	mu       sync.Mutex
	state    AuthState
	pending  string              // state value of the outstanding BeginLogin
	consumed map[string]struct{} // codes already submitted for exchange
	recent   []string            // consumed codes, oldest first

	oauth   *oauth2.Config
	client  *http.Client
	session ports.SessionStore
	nav     ports.Navigator
	metrics FlowMetrics
	log     *zap.Logger
}

// FlowMetrics receives exchange outcomes.
type FlowMetrics interface {
	ObserveExchange(result string)
}

func NewAuthFlow(cfg AuthFlowConfig, session ports.SessionStore, nav ports.Navigator, metrics FlowMetrics, log *zap.Logger) *AuthFlow {
	if log == nil {
		log = zap.NewNop()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	base := strings.TrimRight(cfg.AuthServerURL, "/")
	return &AuthFlow{
		state:    StateIdle,
		consumed: make(map[string]struct{}),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/oauth2/authorize",
				TokenURL:  base + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		client:  client,
		session: session,
		nav:     nav,
		metrics: metrics,
		log:     log.Named("auth"),
	}
}

func (f *AuthFlow) State() AuthState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// transition must be called with f.mu held.
func (f *AuthFlow) transition(to AuthState) error {
	for _, allowed := range authTransitions[f.state] {
		if allowed == to {
			f.log.Debug("auth state", zap.Stringer("from", f.state), zap.Stringer("to", to))
			f.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.state, to)
}

func (f *AuthFlow) authorizationRequest(state string) domain.AuthorizationRequest {
	return domain.AuthorizationRequest{
		ResponseType: "code",
		ClientID:     f.oauth.ClientID,
		Scope:        strings.Join(f.oauth.Scopes, " "),
		RedirectURI:  f.oauth.RedirectURL,
		State:        state,
	}
}

// BeginLogin navigates the user to the authorize endpoint and returns the URL.
// The flow then waits, possibly forever, for the browser to come back.
func (f *AuthFlow) BeginLogin(ctx context.Context) (string, error) {
	f.mu.Lock()
	if err := f.transition(StateRedirecting); err != nil {
		f.mu.Unlock()
		return "", err
	}
	state, err := generateState()
	if err != nil {
		f.state = StateFailed
		f.mu.Unlock()
		return "", err
	}
	f.pending = state
	req := f.authorizationRequest(state)
	f.mu.Unlock()

	authURL := f.oauth.AuthCodeURL(req.State)
	f.log.Info("redirecting to authorization server",
		zap.String("client_id", req.ClientID),
		zap.String("scope", req.Scope),
		zap.String("redirect_uri", req.RedirectURI))
	f.nav.Navigate(ctx, authURL)
	return authURL, nil
}

// CompleteCallback finishes the login from the URL the browser returned to.
// The code in it is submitted at most once for the lifetime of the flow.
func (f *AuthFlow) CompleteCallback(ctx context.Context, callbackURL string) error {
	u, err := url.Parse(callbackURL)
	if err != nil {
		f.nav.Navigate(ctx, domain.RouteLogin)
		return fmt.Errorf("parse callback url: %w", err)
	}
	q := u.Query()
	code := q.Get("code")

	f.mu.Lock()
	if _, used := f.consumed[code]; used && code != "" {
		f.mu.Unlock()
		f.log.Warn("Callback error: authorization code replayed")
		f.navigateHome(ctx)
		return ErrCodeReplayed
	}
	if err := f.transition(StateAwaitingCallback); err != nil {
		f.mu.Unlock()
		f.log.Warn("Callback error: unexpected callback", zap.Error(err))
		f.navigateHome(ctx)
		return err
	}
	pending := f.pending
	f.pending = ""

	switch {
	case q.Get("error") != "":
		f.mu.Unlock()
		return f.fail(ctx, fmt.Errorf("%w: %s", ErrAuthorizationDenied, q.Get("error")))
	case code == "":
		f.mu.Unlock()
		return f.fail(ctx, ErrMissingCode)
	case pending != "" && q.Get("state") != pending:
		f.mu.Unlock()
		return f.fail(ctx, ErrStateMismatch)
	}

	f.rememberCode(code)
	if err := f.transition(StateExchanging); err != nil {
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	token, err := f.oauth.Exchange(context.WithValue(ctx, oauth2.HTTPClient, f.client), code)

	f.mu.Lock()
	if f.state != StateExchanging {
		// Logout ran while the exchange was in flight.
		f.mu.Unlock()
		f.observe("abandoned")
		f.log.Warn("Callback error: login abandoned during the exchange")
		f.nav.Navigate(ctx, domain.RouteLogin)
		return ErrLoginAbandoned
	}
	if err != nil {
		f.mu.Unlock()
		f.observe("failure")
		return f.fail(ctx, fmt.Errorf("%w: %v", ErrExchangeFailed, err))
	}
	if err := f.session.Set(ctx, domain.Credential(token.AccessToken)); err != nil {
		f.mu.Unlock()
		f.observe("failure")
		return f.fail(ctx, fmt.Errorf("store credential: %w", err))
	}
	err = f.transition(StateAuthenticated)
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.observe("success")
	f.log.Info("Login successful")
	f.nav.Navigate(ctx, domain.RouteDashboard)
	return nil
}

// Logout drops the credential and sends the user back to login. An exchange
// still in flight is abandoned.
func (f *AuthFlow) Logout(ctx context.Context) error {
	f.mu.Lock()
	f.state = StateIdle
	f.pending = ""
	f.mu.Unlock()

	if err := f.session.Clear(ctx); err != nil {
		return err
	}
	f.nav.Navigate(ctx, domain.RouteLogin)
	return nil
}

// rememberCode must be called with f.mu held. Only the latest
// maxConsumedCodes codes are kept; older ones have long expired server side.
func (f *AuthFlow) rememberCode(code string) {
	f.consumed[code] = struct{}{}
	f.recent = append(f.recent, code)
	if len(f.recent) > maxConsumedCodes {
		delete(f.consumed, f.recent[0])
		f.recent = slices.Delete(f.recent, 0, 1)
	}
}

func (f *AuthFlow) fail(ctx context.Context, cause error) error {
	f.mu.Lock()
	f.state = StateFailed
	f.mu.Unlock()
	f.log.Warn("Callback error", zap.Error(cause))
	f.nav.Navigate(ctx, domain.RouteLogin)
	return cause
}

// navigateHome leaves the state machine alone and sends the user wherever
// the current session allows.
func (f *AuthFlow) navigateHome(ctx context.Context) {
	if _, ok := f.session.Get(ctx); ok {
		f.nav.Navigate(ctx, domain.RouteDashboard)
		return
	}
	f.nav.Navigate(ctx, domain.RouteLogin)
}

func (f *AuthFlow) observe(result string) {
	if f.metrics != nil {
		f.metrics.ObserveExchange(result)
	}
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
