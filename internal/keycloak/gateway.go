package keycloak

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dnsforyou/idgw/internal/observability"
	"github.com/dnsforyou/idgw/internal/outcome"
)

// Service is the gateway's upward interface, one method per identity
// operation. Every method returns an Outcome; no failure crosses this
// boundary as an error.
type Service interface {
	// Login performs an end-user password grant.
	Login(ctx context.Context, username, password string) outcome.Outcome[TokenResponse]

	// ValidateToken introspects an access token and reports whether it is
	// active.
	ValidateToken(ctx context.Context, token string) outcome.Outcome[bool]

	// Logout invalidates the provider session behind the refresh token.
	Logout(ctx context.Context, refreshToken string) outcome.Outcome[bool]

	// CreateUser creates a user with an embedded non-temporary password
	// credential and returns the new user id.
	CreateUser(ctx context.Context, user NewUser) outcome.Outcome[string]

	// UpdateUser replaces the user's mutable profile fields.
	UpdateUser(ctx context.Context, userID string, update UserUpdate) outcome.Outcome[bool]

	// DeleteUser removes the user.
	DeleteUser(ctx context.Context, userID string) outcome.Outcome[bool]

	// AssignRoles maps the named realm roles onto the user. Names that do
	// not exist in the realm are dropped without error.
	AssignRoles(ctx context.Context, userID string, roleNames []string) outcome.Outcome[bool]

	// RemoveRoles unmaps the named realm roles from the user. Names that do
	// not exist in the realm are dropped without error.
	RemoveRoles(ctx context.Context, userID string, roleNames []string) outcome.Outcome[bool]

	// RealmRoles lists the realm's roles.
	RealmRoles(ctx context.Context) outcome.Outcome[[]Role]

	// Groups lists the realm's group tree.
	Groups(ctx context.Context) outcome.Outcome[[]Group]

	// AssignToGroup adds the user to the group.
	AssignToGroup(ctx context.Context, userID, groupID string) outcome.Outcome[bool]

	// RemoveFromGroup removes the user from the group.
	RemoveFromGroup(ctx context.Context, userID, groupID string) outcome.Outcome[bool]

	// UserByID fetches a user by id.
	UserByID(ctx context.Context, userID string) outcome.Outcome[User]

	// UserByUsername fetches the first user matching the username filter.
	UserByUsername(ctx context.Context, username string) outcome.Outcome[User]

	// UserByEmail fetches the first user matching the email filter.
	UserByEmail(ctx context.Context, email string) outcome.Outcome[User]
}

// Gateway delegates identity operations to the provider's token endpoint and
// admin REST API, holding a cached admin session between calls.
type Gateway struct {
	client       *restClient
	sessions     *sessionManager
	clientID     string
	clientSecret string
	logger       observability.Logger
}

// Gateway implements Service.
var _ Service = (*Gateway)(nil)

// New creates a Gateway from the given configuration.
func New(cfg *Config) (*Gateway, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	client := newRESTClient(cfg, logger)

	return &Gateway{
		client:       client,
		sessions:     newSessionManager(cfg, client, logger),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		logger:       logger,
	}, nil
}

// Login performs an end-user password grant against the token endpoint.
func (g *Gateway) Login(ctx context.Context, username, password string) outcome.Outcome[TokenResponse] {
	form := url.Values{}
	form.Set("client_id", g.clientID)
	form.Set("client_secret", g.clientSecret)
	form.Set("username", username)
	form.Set("password", password)
	form.Set("grant_type", "password")

	resp, err := g.client.postForm(ctx, g.client.tokenURL(), form)
	if err != nil {
		return outcome.Failf[TokenResponse]("Login failed: %v", err)
	}
	if !resp.ok() {
		return outcome.Fail[TokenResponse]("Invalid credentials")
	}

	var tr TokenResponse
	if err := resp.decode(&tr); err != nil {
		return outcome.Failf[TokenResponse]("Login failed: %v", err)
	}
	return outcome.OK(tr)
}

// ValidateToken introspects the token using the service client credentials.
// The admin session is acquired first; a rejected admin grant aborts the
// validation before the introspection call is made.
func (g *Gateway) ValidateToken(ctx context.Context, token string) outcome.Outcome[bool] {
	if _, err := g.sessions.Token(ctx); err != nil {
		return outcome.Failf[bool]("Token validation error: %v", err)
	}

	form := url.Values{}
	form.Set("token", token)
	form.Set("client_id", g.clientID)
	form.Set("client_secret", g.clientSecret)

	resp, err := g.client.postForm(ctx, g.client.introspectURL(), form)
	if err != nil {
		return outcome.Failf[bool]("Token validation error: %v", err)
	}
	if !resp.ok() {
		return outcome.Fail[bool]("Token validation failed")
	}

	var in introspection
	if err := resp.decode(&in); err != nil {
		return outcome.Failf[bool]("Token validation error: %v", err)
	}
	if in.Active == nil {
		return outcome.Fail[bool]("Token validation failed")
	}
	return outcome.OK(*in.Active)
}

// Logout invalidates the session behind the refresh token. No admin session
// is needed.
func (g *Gateway) Logout(ctx context.Context, refreshToken string) outcome.Outcome[bool] {
	form := url.Values{}
	form.Set("client_id", g.clientID)
	form.Set("client_secret", g.clientSecret)
	form.Set("refresh_token", refreshToken)

	resp, err := g.client.postForm(ctx, g.client.logoutURL(), form)
	if err != nil {
		return outcome.Failf[bool]("Logout error: %v", err)
	}
	if !resp.ok() {
		return outcome.Fail[bool]("Logout failed")
	}
	return outcome.OK(true)
}

// CreateUser creates the user and extracts the new id from the Location
// header of the provider response.
func (g *Gateway) CreateUser(ctx context.Context, user NewUser) outcome.Outcome[string] {
	token, err := g.sessions.Token(ctx)
	if err != nil {
		return outcome.Failf[string]("User creation error: %v", err)
	}

	rep := userRepresentation{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Enabled:   true,
		Credentials: []userCredential{
			{Type: "password", Value: user.Password, Temporary: false},
		},
	}

	resp, err := g.client.doAdmin(ctx, http.MethodPost, "/users", token, rep)
	if err != nil {
		return outcome.Failf[string]("User creation error: %v", err)
	}
	if !resp.ok() {
		return outcome.Failf[string]("User creation failed: %s", resp.errorText(http.StatusText(resp.Status)))
	}

	userID := lastPathSegment(resp.Header.Get("Location"))
	if userID == "" {
		return outcome.Fail[string]("User creation error: response carried no user id")
	}
	return outcome.OK(userID)
}

// UpdateUser replaces the user's email and name fields.
func (g *Gateway) UpdateUser(ctx context.Context, userID string, update UserUpdate) outcome.Outcome[bool] {
	token, err := g.sessions.Token(ctx)
	if err != nil {
		return outcome.Failf[bool]("User update error: %v", err)
	}

	resp, err := g.client.doAdmin(ctx, http.MethodPut, "/users/"+url.PathEscape(userID), token, update)
	if err != nil {
		return outcome.Failf[bool]("User update error: %v", err)
	}
	if !resp.ok() {
		return outcome.Fail[bool]("User update failed")
	}
	return outcome.OK(true)
}

// DeleteUser removes the user.
func (g *Gateway) DeleteUser(ctx context.Context, userID string) outcome.Outcome[bool] {
	token, err := g.sessions.Token(ctx)
	if err != nil {
		return outcome.Failf[bool]("User deletion error: %v", err)
	}

	resp, err := g.client.doAdmin(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID), token, nil)
	if err != nil {
		return outcome.Failf[bool]("User deletion error: %v", err)
	}
	if !resp.ok() {
		return outcome.Fail[bool]("User deletion failed")
	}
	return outcome.OK(true)
}

// AssignRoles resolves the requested names against the realm role list and
// maps the matches onto the user.
func (g *Gateway) AssignRoles(ctx context.Context, userID string, roleNames []string) outcome.Outcome[bool] {
	return g.mapRoles(ctx, http.MethodPost, userID, roleNames, "Role assignment failed", "Role assignment error")
}

// RemoveRoles resolves the requested names against the realm role list and
// unmaps the matches from the user.
func (g *Gateway) RemoveRoles(ctx context.Context, userID string, roleNames []string) outcome.Outcome[bool] {
	return g.mapRoles(ctx, http.MethodDelete, userID, roleNames, "Role removal failed", "Role removal error")
}

// mapRoles is the shared body of AssignRoles and RemoveRoles. A realm role
// fetch failure short-circuits before the mapping call; requested names with
// no matching realm role are dropped silently.
func (g *Gateway) mapRoles(ctx context.Context, method, userID string, roleNames []string, failMsg, errPrefix string) outcome.Outcome[bool] {
	rolesResult := g.RealmRoles(ctx)
	if rolesResult.IsFailure() {
		return outcome.Fail[bool](rolesResult.Message())
	}

	wanted := make(map[string]bool, len(roleNames))
	for _, name := range roleNames {
		wanted[name] = true
	}

	refs := make([]roleRef, 0, len(roleNames))
	for _, role := range rolesResult.Data() {
		if wanted[role.Name] {
			refs = append(refs, roleRef{ID: role.ID, Name: role.Name})
		}
	}

	token, err := g.sessions.Token(ctx)
	if err != nil {
		return outcome.Failf[bool]("%s: %v", errPrefix, err)
	}

	suffix := "/users/" + url.PathEscape(userID) + "/role-mappings/realm"
	resp, err := g.client.doAdmin(ctx, method, suffix, token, refs)
	if err != nil {
		return outcome.Failf[bool]("%s: %v", errPrefix, err)
	}
	if !resp.ok() {
		return outcome.Fail[bool](failMsg)
	}
	return outcome.OK(true)
}

// RealmRoles lists the realm's roles. An empty provider payload maps to an
// empty slice.
func (g *Gateway) RealmRoles(ctx context.Context) outcome.Outcome[[]Role] {
	token, err := g.sessions.Token(ctx)
	if err != nil {
		return outcome.Failf[[]Role]("Get roles error: %v", err)
	}

	resp, err := g.client.doAdmin(ctx, http.MethodGet, "/roles", token, nil)
	if err != nil {
		return outcome.Failf[[]Role]("Get roles error: %v", err)
	}
	if !resp.ok() {
		return outcome.Fail[[]Role]("Failed to get roles")
	}

	var roles []Role
	if err := resp.decode(&roles); err != nil {
		return outcome.Failf[[]Role]("Get roles error: %v", err)
	}
	if roles == nil {
		roles = []Role{}
	}
	return outcome.OK(roles)
}

// Groups lists the realm's group tree. An empty provider payload maps to an
// empty slice.
func (g *Gateway) Groups(ctx context.Context) outcome.Outcome[[]Group] {
	token, err := g.sessions.Token(ctx)
	if err != nil {
		return outcome.Failf[[]Group]("Get groups error: %v", err)
	}

	resp, err := g.client.doAdmin(ctx, http.MethodGet, "/groups", token, nil)
	if err != nil {
		return outcome.Failf[[]Group]("Get groups error: %v", err)
	}
	if !resp.ok() {
		return outcome.Fail[[]Group]("Failed to get groups")
	}

	var groups []Group
	if err := resp.decode(&groups); err != nil {
		return outcome.Failf[[]Group]("Get groups error: %v", err)
	}
	if groups == nil {
		groups = []Group{}
	}
	return outcome.OK(groups)
}

// AssignToGroup adds the user to the group.
func (g *Gateway) AssignToGroup(ctx context.Context, userID, groupID string) outcome.Outcome[bool] {
	return g.groupMembership(ctx, http.MethodPut, userID, groupID, "Group assignment failed", "Group assignment error")
}

// RemoveFromGroup removes the user from the group.
func (g *Gateway) RemoveFromGroup(ctx context.Context, userID, groupID string) outcome.Outcome[bool] {
	return g.groupMembership(ctx, http.MethodDelete, userID, groupID, "Group removal failed", "Group removal error")
}

func (g *Gateway) groupMembership(ctx context.Context, method, userID, groupID, failMsg, errPrefix string) outcome.Outcome[bool] {
	token, err := g.sessions.Token(ctx)
	if err != nil {
		return outcome.Failf[bool]("%s: %v", errPrefix, err)
	}

	suffix := "/users/" + url.PathEscape(userID) + "/groups/" + url.PathEscape(groupID)
	resp, err := g.client.doAdmin(ctx, method, suffix, token, nil)
	if err != nil {
		return outcome.Failf[bool]("%s: %v", errPrefix, err)
	}
	if !resp.ok() {
		return outcome.Fail[bool](failMsg)
	}
	return outcome.OK(true)
}

// UserByID fetches a user by id.
func (g *Gateway) UserByID(ctx context.Context, userID string) outcome.Outcome[User] {
	token, err := g.sessions.Token(ctx)
	if err != nil {
		return outcome.Failf[User]("Get user error: %v", err)
	}

	resp, err := g.client.doAdmin(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), token, nil)
	if err != nil {
		return outcome.Failf[User]("Get user error: %v", err)
	}
	if !resp.ok() {
		return outcome.Fail[User]("User not found")
	}

	var user User
	if err := resp.decode(&user); err != nil {
		return outcome.Failf[User]("Get user error: %v", err)
	}
	if user.ID == "" {
		return outcome.Fail[User]("User not found")
	}
	return outcome.OK(user)
}

// UserByUsername fetches the first user matching the username filter.
func (g *Gateway) UserByUsername(ctx context.Context, username string) outcome.Outcome[User] {
	return g.userByFilter(ctx, "username", username)
}

// UserByEmail fetches the first user matching the email filter.
func (g *Gateway) UserByEmail(ctx context.Context, email string) outcome.Outcome[User] {
	return g.userByFilter(ctx, "email", email)
}

// userByFilter queries the user list endpoint with a single filter and takes
// the first match. The filter value is percent-encoded.
func (g *Gateway) userByFilter(ctx context.Context, field, value string) outcome.Outcome[User] {
	token, err := g.sessions.Token(ctx)
	if err != nil {
		return outcome.Failf[User]("Get user error: %v", err)
	}

	query := url.Values{}
	query.Set(field, value)

	resp, err := g.client.doAdmin(ctx, http.MethodGet, "/users?"+query.Encode(), token, nil)
	if err != nil {
		return outcome.Failf[User]("Get user error: %v", err)
	}
	if !resp.ok() {
		return outcome.Fail[User]("User not found")
	}

	var users []User
	if err := resp.decode(&users); err != nil {
		return outcome.Failf[User]("Get user error: %v", err)
	}
	if len(users) == 0 {
		return outcome.Fail[User]("User not found")
	}
	return outcome.OK(users[0])
}

// lastPathSegment returns the final path segment of a Location header value.
func lastPathSegment(location string) string {
	if location == "" {
		return ""
	}
	trimmed := strings.TrimRight(location, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return trimmed
	}
	return trimmed[idx+1:]
}
