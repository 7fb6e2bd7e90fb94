package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
)

// AccountClient registers users on the authorization server. Sign-up is
// anonymous, so it uses a plain http.Client rather than the gateway.
type AccountClient struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
}

var _ ports.AccountAPI = (*AccountClient)(nil)

func NewAccountClient(authServerURL string, httpClient *http.Client) *AccountClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AccountClient{
		baseURL:  strings.TrimRight(authServerURL, "/"),
		http:     httpClient,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (c *AccountClient) SignUp(ctx context.Context, in domain.SignUpRequest) (*domain.Account, error) {
	const op = "POST /api/users/signup"
	if err := c.validate.Struct(in); err != nil {
		return nil, &domain.Error{Kind: domain.KindValidationFailure, Op: op, Message: err.Error(), Err: err}
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/users/signup", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := doRequest(c.http, req, op)
	if err != nil {
		return nil, err
	}
	var account domain.Account
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, shapeError(op, err)
	}
	return &account, nil
}
