package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
)

const (
	defaultLoginPath    = "/api/auth/login"
	defaultRegisterPath = "/api/auth/register"
	defaultVerifyPath   = "/api/auth/verify"
	defaultValidatePath = "/api/auth/validate"
	defaultProfilePath  = "/api/users/me"
	defaultRolesPath    = "/api/roles"
	defaultUsersPath    = "/api/users"
)

// TokenSource supplies the stored bearer credential for authenticated calls.
// An empty string means the call is made anonymously.
type TokenSource func() (string, error)

// ClientConfig holds the remote service configuration.
type ClientConfig struct {
	BaseURL string

	// TokenSource attaches the stored credential to authenticated calls.
	// Typically CredentialStore.Load.
	TokenSource TokenSource

	HTTPClient *http.Client
	Logger     Logger
}

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     Logger
}

var _ Service = (*Client)(nil)

// NewClient creates a Service backed by the remote forum API.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = defLogger{}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tokens:     cfg.TokenSource,
		httpClient: httpClient,
		logger:     logger,
	}
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e apiError) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	result := &LoginResult{}
	status, remote, err := c.do(ctx, http.MethodPost, defaultLoginPath, body, "", result)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK:
		return result, nil
	case status == http.StatusUnauthorized:
		return nil, loginRejection(remote)
	case status == http.StatusForbidden:
		return nil, decorate(ErrEmailUnverified, map[string]any{"detail": remote.text()})
	default:
		return nil, unexpectedStatus("login", status, remote)
	}
}

func (c *Client) Register(ctx context.Context, email, password, name string) (*RegistrationOutcome, error) {
	body := map[string]string{"email": email, "password": password, "name": name}

	outcome := &RegistrationOutcome{}
	status, remote, err := c.do(ctx, http.MethodPost, defaultRegisterPath, body, "", outcome)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		return outcome, nil
	case status == http.StatusConflict:
		return nil, ErrDuplicateRegistration
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(remote.text()), "already registered"):
		return nil, ErrDuplicateRegistration
	case status == http.StatusBadRequest:
		return nil, errors.New(remote.text(), errors.CategoryValidation).WithCode(errors.CodeBadRequest)
	default:
		return nil, unexpectedStatus("register", status, remote)
	}
}

func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	body := map[string]string{"token": token}

	status, remote, err := c.do(ctx, http.MethodPost, defaultVerifyPath, body, "", nil)
	if err != nil {
		return err
	}

	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusBadRequest || status == http.StatusNotFound || status == http.StatusGone:
		return decorate(ErrInvalidVerificationToken, map[string]any{"detail": remote.text()})
	default:
		return unexpectedStatus("verify email", status, remote)
	}
}

func (c *Client) ValidateToken(ctx context.Context, token string) error {
	body := map[string]string{"token": token}

	status, remote, err := c.do(ctx, http.MethodPost, defaultValidatePath, body, token, nil)
	if err != nil {
		return err
	}

	if status >= 200 && status < 300 {
		return nil
	}

	// any non-2xx answer is an explicit rejection of the credential
	return decorate(ErrSessionExpired, map[string]any{
		"status": status,
		"detail": remote.text(),
	})
}

func (c *Client) CurrentUser(ctx context.Context, token string) (*Account, error) {
	account := &Account{}
	status, remote, err := c.do(ctx, http.MethodGet, defaultProfilePath, nil, token, account)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK:
		return account, nil
	case status == http.StatusUnauthorized:
		return nil, decorate(ErrSessionExpired, map[string]any{"detail": remote.text()})
	default:
		return nil, unexpectedStatus("fetch profile", status, remote)
	}
}

func (c *Client) Roles(ctx context.Context) ([]Role, error) {
	var roles []Role
	status, remote, err := c.authed(ctx, http.MethodGet, defaultRolesPath, nil, &roles)
	if err != nil {
		return nil, err
	}

	if err := c.checkAdminStatus("list roles", status, remote); err != nil {
		return nil, err
	}

	return roles, nil
}

func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	status, remote, err := c.authed(ctx, http.MethodGet, defaultUsersPath, nil, &users)
	if err != nil {
		return nil, err
	}

	if err := c.checkAdminStatus("list users", status, remote); err != nil {
		return nil, err
	}

	return users, nil
}

func (c *Client) UpdateUserRole(ctx context.Context, userID, roleID int) (*RoleChangeResult, error) {
	path := fmt.Sprintf("%s/%d/role", defaultUsersPath, userID)
	body := map[string]int{"roleId": roleID}

	result := &RoleChangeResult{}
	status, remote, err := c.authed(ctx, http.MethodPatch, path, body, result)
	if err != nil {
		return nil, err
	}

	if err := c.checkAdminStatus("update user role", status, remote); err != nil {
		return nil, err
	}

	if result.User == nil {
		return nil, errors.New("role update response missing user record", errors.CategoryInternal)
	}

	return result, nil
}

func (c *Client) checkAdminStatus(op string, status int, remote apiError) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return decorate(ErrSessionExpired, map[string]any{"detail": remote.text()})
	case status == http.StatusForbidden:
		return decorate(ErrForbidden, map[string]any{"detail": remote.text()})
	default:
		return unexpectedStatus(op, status, remote)
	}
}

// authed performs a request with the stored credential attached when present.
func (c *Client) authed(ctx context.Context, method, path string, payload, out any) (int, apiError, error) {
	token := ""
	if c.tokens != nil {
		t, err := c.tokens()
		if err != nil {
			c.logger.Warn("token source failed, calling anonymously", "error", err)
		} else {
			token = t
		}
	}
	return c.do(ctx, method, path, payload, token, out)
}

func (c *Client) do(ctx context.Context, method, path string, payload any, token string, out any) (int, apiError, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, apiError{}, errors.Wrap(err, errors.CategoryInternal, "unable to encode request body")
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, apiError{}, errors.Wrap(err, errors.CategoryInternal, "unable to build request")
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, apiError{}, transportFailure(method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, apiError{}, transportFailure(method, path, err)
	}

	remote := apiError{}
	if resp.StatusCode >= 400 {
		// error bodies are best-effort; a plain-text body is fine
		_ = json.Unmarshal(raw, &remote)
		return resp.StatusCode, remote, nil
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, remote, errors.Wrap(err, errors.CategoryInternal, "unable to decode response body")
		}
	}

	return resp.StatusCode, remote, nil
}

func loginRejection(remote apiError) error {
	if strings.Contains(strings.ToLower(remote.text()), "verif") {
		return decorate(ErrEmailUnverified, map[string]any{"detail": remote.text()})
	}
	return decorate(ErrInvalidCredentials, map[string]any{"detail": remote.text()})
}

func transportFailure(method, path string, err error) error {
	clone := ErrTransportFailure.Clone()
	if clone == nil {
		return ErrTransportFailure
	}
	clone.Source = err
	return clone.WithMetadata(map[string]any{
		"method": method,
		"path":   path,
		"cause":  err.Error(),
	})
}

func unexpectedStatus(op string, status int, remote apiError) error {
	return errors.New(fmt.Sprintf("unexpected response for %s", op), errors.CategoryInternal).
		WithMetadata(map[string]any{
			"status": status,
			"detail": remote.text(),
		})
}
