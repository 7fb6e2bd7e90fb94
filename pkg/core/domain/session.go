package domain

// Credential is an opaque bearer token. Its validity is only ever known from
// server responses.
type Credential string

// Routes the dashboard navigates between.
const (
	RouteLogin     = "/login"
	RouteCallback  = "/auth/callback"
	RouteDashboard = "/dashboard"
)

// AuthorizationRequest holds the values sent to the authorize endpoint.
// It only ever lives long enough to build a redirect URL.
type AuthorizationRequest struct {
	ResponseType string
	ClientID     string
	Scope        string
	RedirectURI  string
	State        string
}

// SignUpRequest registers a new account on the authorization server
type SignUpRequest struct {
	FirstName string   `json:"firstName" validate:"required"`
	LastName  string   `json:"lastName" validate:"required"`
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required"`
	Roles     []string `json:"roles,omitempty"`
}

type Account struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}
