package keycloak

// TokenResponse is the credential set issued by the provider's token
// endpoint. The gateway returns it to the caller and never retains it.
type TokenResponse struct {
	// AccessToken is the bearer token.
	AccessToken string `json:"access_token"`

	// RefreshToken is the refresh token.
	RefreshToken string `json:"refresh_token"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`

	// RefreshExpiresIn is the refresh token lifetime in seconds.
	RefreshExpiresIn int `json:"refresh_expires_in"`

	// TokenType is the token type (usually "Bearer").
	TokenType string `json:"token_type"`

	// SessionState is the provider session identifier.
	SessionState string `json:"session_state"`

	// Scope is the space-delimited granted scopes.
	Scope string `json:"scope"`
}

// User is a read/write projection of the provider's user representation,
// reconstructed from each provider response and never cached.
type User struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Enabled          bool   `json:"enabled"`
	CreatedTimestamp int64  `json:"createdTimestamp"`
}

// Role is a realm role representation.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Composite   bool   `json:"composite"`
	ClientRole  bool   `json:"clientRole"`
	ContainerID string `json:"containerId"`
}

// Group is a group representation. Groups form a tree of unbounded depth via
// SubGroups.
type Group struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	SubGroups []Group `json:"subGroups,omitempty"`
}

// NewUser carries the fields required to create a provider user.
type NewUser struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// UserUpdate carries the mutable user fields for an update.
type UserUpdate struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// userRepresentation is the admin-API payload for user creation. The initial
// password credential is embedded and marked non-temporary.
type userRepresentation struct {
	Username    string           `json:"username"`
	Email       string           `json:"email"`
	FirstName   string           `json:"firstName"`
	LastName    string           `json:"lastName"`
	Enabled     bool             `json:"enabled"`
	Credentials []userCredential `json:"credentials"`
}

// userCredential is an embedded credential in a user representation.
type userCredential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// roleRef is the {id, name} pair sent to the role-mapping endpoints.
type roleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// introspection is the token introspection response. Active is a pointer so
// that a missing field is distinguishable from an inactive token.
type introspection struct {
	Active *bool `json:"active"`
}
