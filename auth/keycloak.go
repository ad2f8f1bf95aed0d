package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

var (
	ErrAdminAuthFailed = errors.New("keycloak admin authentication failed")
	ErrUserNotFound    = errors.New("identity user not found")
	ErrUserNotCreated  = errors.New("identity user creation did not return a location")
)

// tokenExpiryBuffer is subtracted from the reported token lifetime so a
// token is never used right at its expiry edge.
const tokenExpiryBuffer = 30 * time.Second

// User is an account in the identity provider. It is distinct from
// models.Player: players are league participants, users are logins.
type User struct {
	ID            string              `json:"id,omitempty"`
	Username      string              `json:"username"`
	Email         string              `json:"email"`
	FirstName     string              `json:"firstName,omitempty"`
	LastName      string              `json:"lastName,omitempty"`
	Enabled       bool                `json:"enabled"`
	EmailVerified bool                `json:"emailVerified,omitempty"`
	RealmRoles    []string            `json:"realmRoles,omitempty"`
	Attributes    map[string][]string `json:"attributes,omitempty"`
}

// Role is a realm role as the identity provider reports it.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type credential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

type CreateUserParams struct {
	Username   string
	Email      string
	FirstName  string
	LastName   string
	Password   string
	Temporary  bool
	Roles      []string
	Attributes map[string][]string
}

type UpdateUserParams struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Enabled    *bool
	Roles      []string
	Attributes map[string][]string
}

// AdminClient talks to the Keycloak admin REST API for one realm. It holds
// its own cached admin token; all state lives on the struct so separate
// clients never share credentials.
type AdminClient struct {
	baseURL       string
	realm         string
	adminUser     string
	adminPassword string
	httpClient    *http.Client
	logger        *slog.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

type AdminClientConfig struct {
	BaseURL       string
	Realm         string
	AdminUser     string
	AdminPassword string
	HTTPClient    *http.Client
}

func NewAdminClient(cfg AdminClientConfig, logger *slog.Logger) (*AdminClient, error) {
	if cfg.BaseURL == "" || cfg.Realm == "" {
		return nil, fmt.Errorf("keycloak base URL and realm are required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &AdminClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		realm:         cfg.Realm,
		adminUser:     cfg.AdminUser,
		adminPassword: cfg.AdminPassword,
		httpClient:    httpClient,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// adminToken returns a valid admin access token, reusing the cached one
// while it has more than tokenExpiryBuffer of lifetime left.
func (c *AdminClient) adminToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry.Add(-tokenExpiryBuffer)) {
		return c.token, nil
	}

	form := url.Values{
		"username":   {c.adminUser},
		"password":   {c.adminPassword},
		"grant_type": {"password"},
		"client_id":  {"admin-cli"},
	}
	endpoint := c.baseURL + "/realms/master/protocol/openid-connect/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAdminAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrAdminAuthFailed, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAdminAuthFailed, err)
	}

	c.token = body.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return c.token, nil
}

// do performs an authenticated admin request. path is relative to the
// realm's admin root. When out is non-nil the response body is decoded
// into it. The response is returned for callers that need headers.
func (c *AdminClient) do(ctx context.Context, method, path string, in, out any) (*http.Response, error) {
	token, err := c.adminToken(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL + "/admin/realms/" + c.realm + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp, ErrUserNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp, fmt.Errorf("keycloak admin API %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("failed to decode keycloak response: %w", err)
		}
	}
	return resp, nil
}

// CreateUser registers a new account and returns it with roles resolved.
// The created user's id comes from the Location header of the creation
// response.
func (c *AdminClient) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	payload := map[string]any{
		"username":        params.Username,
		"email":           params.Email,
		"firstName":       params.FirstName,
		"lastName":        params.LastName,
		"enabled":         true,
		"emailVerified":   true,
		"requiredActions": []string{},
	}
	if len(params.Attributes) > 0 {
		payload["attributes"] = params.Attributes
	}
	if params.Password != "" {
		payload["credentials"] = []credential{{
			Type:      "password",
			Value:     params.Password,
			Temporary: params.Temporary,
		}}
	}

	resp, err := c.do(ctx, http.MethodPost, "/users", payload, nil)
	if err != nil {
		return nil, err
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return nil, ErrUserNotCreated
	}
	parts := strings.Split(strings.TrimRight(location, "/"), "/")
	userID := parts[len(parts)-1]
	if userID == "" {
		return nil, ErrUserNotCreated
	}

	if len(params.Roles) > 0 {
		if err := c.AssignRoles(ctx, userID, params.Roles); err != nil {
			return nil, err
		}
	}

	c.logger.Info("identity user created", "username", params.Username, "user_id", userID)
	return c.GetUser(ctx, userID)
}

// GetUser fetches one account and resolves its realm roles.
func (c *AdminClient) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	if _, err := c.do(ctx, http.MethodGet, "/users/"+userID, nil, &user); err != nil {
		return nil, err
	}

	var roles []Role
	if _, err := c.do(ctx, http.MethodGet, "/users/"+userID+"/role-mappings/realm", nil, &roles); err != nil {
		return nil, err
	}
	user.RealmRoles = make([]string, 0, len(roles))
	for _, r := range roles {
		user.RealmRoles = append(user.RealmRoles, r.Name)
	}
	return &user, nil
}

// ListUsers searches accounts. search may be empty; max <= 0 leaves the
// provider's default page size in place.
func (c *AdminClient) ListUsers(ctx context.Context, search string, max int) ([]*User, error) {
	params := url.Values{}
	if search != "" {
		params.Set("search", search)
	}
	if max > 0 {
		params.Set("max", fmt.Sprintf("%d", max))
	}
	path := "/users"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var users []*User
	if _, err := c.do(ctx, http.MethodGet, path, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser applies the non-nil fields, replaces roles when given, and
// returns the refreshed account.
func (c *AdminClient) UpdateUser(ctx context.Context, userID string, params UpdateUserParams) (*User, error) {
	payload := map[string]any{}
	if params.FirstName != nil {
		payload["firstName"] = *params.FirstName
	}
	if params.LastName != nil {
		payload["lastName"] = *params.LastName
	}
	if params.Email != nil {
		payload["email"] = *params.Email
	}
	if params.Enabled != nil {
		payload["enabled"] = *params.Enabled
	}
	if params.Attributes != nil {
		payload["attributes"] = params.Attributes
	}
	if len(payload) > 0 {
		if _, err := c.do(ctx, http.MethodPut, "/users/"+userID, payload, nil); err != nil {
			return nil, err
		}
	}
	if params.Roles != nil {
		if err := c.SetRoles(ctx, userID, params.Roles); err != nil {
			return nil, err
		}
	}
	return c.GetUser(ctx, userID)
}

func (c *AdminClient) DeleteUser(ctx context.Context, userID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/users/"+userID, nil, nil)
	return err
}

// ResetPassword sets a new password. Non-temporary resets also clear any
// pending required actions so the account can log in immediately.
func (c *AdminClient) ResetPassword(ctx context.Context, userID, password string, temporary bool) error {
	cred := credential{Type: "password", Value: password, Temporary: temporary}
	if _, err := c.do(ctx, http.MethodPut, "/users/"+userID+"/reset-password", cred, nil); err != nil {
		return err
	}
	if !temporary {
		if _, err := c.do(ctx, http.MethodPut, "/users/"+userID, map[string]any{"requiredActions": []string{}}, nil); err != nil {
			c.logger.Warn("failed to clear required actions after password reset", "user_id", userID, "error", err)
		}
	}
	return nil
}

// Roles lists every realm role the provider knows.
func (c *AdminClient) Roles(ctx context.Context) ([]Role, error) {
	var roles []Role
	if _, err := c.do(ctx, http.MethodGet, "/roles", nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// AssignRoles grants the named realm roles to the user. Unknown role
// names are ignored, matching the provider's own lookup semantics.
func (c *AdminClient) AssignRoles(ctx context.Context, userID string, roleNames []string) error {
	return c.mapRoles(ctx, http.MethodPost, userID, roleNames)
}

// RemoveRoles revokes the named realm roles from the user.
func (c *AdminClient) RemoveRoles(ctx context.Context, userID string, roleNames []string) error {
	return c.mapRoles(ctx, http.MethodDelete, userID, roleNames)
}

func (c *AdminClient) mapRoles(ctx context.Context, method, userID string, roleNames []string) error {
	all, err := c.Roles(ctx)
	if err != nil {
		return err
	}
	wanted := make(map[string]bool, len(roleNames))
	for _, name := range roleNames {
		wanted[name] = true
	}
	selected := make([]Role, 0, len(roleNames))
	for _, r := range all {
		if wanted[r.Name] {
			selected = append(selected, r)
		}
	}
	if len(selected) == 0 {
		return nil
	}
	_, err = c.do(ctx, method, "/users/"+userID+"/role-mappings/realm", selected, nil)
	return err
}

// SetRoles makes the user's realm roles exactly roleNames, adding and
// removing the difference against the current mapping.
func (c *AdminClient) SetRoles(ctx context.Context, userID string, roleNames []string) error {
	var current []Role
	if _, err := c.do(ctx, http.MethodGet, "/users/"+userID+"/role-mappings/realm", nil, &current); err != nil {
		return err
	}

	have := make(map[string]bool, len(current))
	for _, r := range current {
		have[r.Name] = true
	}
	want := make(map[string]bool, len(roleNames))
	for _, name := range roleNames {
		want[name] = true
	}

	var toAdd, toRemove []string
	for name := range want {
		if !have[name] {
			toAdd = append(toAdd, name)
		}
	}
	for name := range have {
		if !want[name] {
			toRemove = append(toRemove, name)
		}
	}

	if len(toAdd) > 0 {
		if err := c.AssignRoles(ctx, userID, toAdd); err != nil {
			return err
		}
	}
	if len(toRemove) > 0 {
		if err := c.RemoveRoles(ctx, userID, toRemove); err != nil {
			return err
		}
	}
	return nil
}

// UsersInRole lists the accounts holding one realm role.
func (c *AdminClient) UsersInRole(ctx context.Context, roleName string) ([]*User, error) {
	var users []*User
	if _, err := c.do(ctx, http.MethodGet, "/roles/"+roleName+"/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}
