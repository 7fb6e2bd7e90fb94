package ports

import (
	"context"
	"errors"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
)

// ErrSlotEmpty is returned by SlotStorage.Load when nothing is stored under the key.
var ErrSlotEmpty = errors.New("slot is empty")

// SlotStorage is the durable key/value medium behind the session store
type SlotStorage interface {
	Load(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// SessionStore holds the single current credential
type SessionStore interface {
	Get(ctx context.Context) (domain.Credential, bool)
	Set(ctx context.Context, cred domain.Credential) error
	Clear(ctx context.Context) error
}

// Navigator moves the user to another route or an external URL
type Navigator interface {
	Navigate(ctx context.Context, target string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, target string)

func (f NavigatorFunc) Navigate(ctx context.Context, target string) { f(ctx, target) }

// LinkAPI is the resource server surface the aggregation layer consumes
type LinkAPI interface {
	ListLinks(ctx context.Context) ([]domain.LinkRecord, error)
	CreateLink(ctx context.Context, originalURL string) (*domain.LinkRecord, error)
	DeleteLink(ctx context.Context, shortCode string) error
	ClickCount(ctx context.Context, shortCode string) (int64, error)
	ClickPage(ctx context.Context, req PageRequest) (*domain.Page[domain.ClickEvent], error)
}

type PageRequest struct {
	ShortCode  string
	PageNumber int
	PageSize   int
	SortOrder  domain.SortOrder
}

// AccountAPI is the self-service part of the authorization server
type AccountAPI interface {
	SignUp(ctx context.Context, req domain.SignUpRequest) (*domain.Account, error)
}
