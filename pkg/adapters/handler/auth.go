package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
	"go.uber.org/zap"
)

// LoginFlow is the part of the authorization flow the HTTP surface drives.
type LoginFlow interface {
	BeginLogin(ctx context.Context) (string, error)
	CompleteCallback(ctx context.Context, callbackURL string) error
	Logout(ctx context.Context) error
}

type AuthHandler struct {
	flow     LoginFlow
	accounts ports.AccountAPI
	log      *zap.Logger
}

func NewAuthHandler(flow LoginFlow, accounts ports.AccountAPI, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{flow: flow, accounts: accounts, log: log}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if _, err := h.flow.BeginLogin(r.Context()); err != nil {
		h.log.Error("Login error", zap.Error(err))
		writeError(w, err)
	}
}

// Callback hands the whole URL to the flow, which navigates on every outcome.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if err := h.flow.CompleteCallback(r.Context(), r.URL.String()); err != nil {
		writeError(w, err)
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.flow.Logout(r.Context()); err != nil {
		h.log.Error("Logout error", zap.Error(err))
		writeError(w, err)
	}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req domain.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, invalidBody(err))
		return
	}

	account, err := h.accounts.SignUp(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.log.Info("account created", zap.String("email", account.Email))
	writeJSON(w, http.StatusCreated, account)
}
