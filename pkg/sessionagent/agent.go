package sessionagent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"
)

// ErrSessionExpired is returned when the refresh token is rejected and the
// session cannot be recovered without a fresh login.
var ErrSessionExpired = errors.New("session expired, login required")

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// UserInfo is the client-side view of the authenticated account.
type UserInfo struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	FaceDescriptor []float64 `json:"faceDescriptor,omitempty"`
	EmailVerified  bool      `json:"emailVerified"`
}

// State is the persisted session snapshot. The refresh token is never part
// of it; that lives in the cookie jar only for the lifetime of the process.
type State struct {
	AccessToken     string    `json:"accessToken"`
	User            *UserInfo `json:"user,omitempty"`
	IsAuthenticated bool      `json:"isAuthenticated"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	IsInitialized   bool      `json:"-"`
}

// Agent is a client-side session manager: it attaches the bearer token to
// every call, transparently refreshes an expired access token once per
// request, and keeps session state in a Store across restarts.
type Agent struct {
	baseURL    string
	httpClient *http.Client
	store      Store

	mu    sync.RWMutex
	state State

	// refreshMu serializes refresh attempts so a burst of concurrent 401s
	// results in a single network refresh.
	refreshMu sync.Mutex
}

func New(baseURL string, store Store) (*Agent, error) {
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Agent{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		store: store,
	}, nil
}

// Initialize rehydrates the session from the store and validates the saved
// token against the server. An invalid or missing session leaves the agent
// initialized but unauthenticated, never errors.
func (a *Agent) Initialize(ctx context.Context) error {
	saved, err := a.store.Load()
	if err != nil {
		return err
	}

	if saved == nil || saved.AccessToken == "" {
		a.setState(State{IsInitialized: true})
		return nil
	}

	a.setState(State{
		AccessToken:     saved.AccessToken,
		User:            saved.User,
		IsAuthenticated: true,
		IsEmailVerified: saved.IsEmailVerified,
	})

	var user UserInfo
	if err := a.do(ctx, http.MethodGet, "/api/auth/profile", nil, &user); err != nil {
		// The saved token is stale and could not be refreshed.
		a.clearSession()
		a.markInitialized()
		return nil
	}

	a.mu.Lock()
	a.state.User = &user
	a.state.IsEmailVerified = user.EmailVerified
	a.state.IsInitialized = true
	snapshot := a.state
	a.mu.Unlock()
	return a.store.Save(&snapshot)
}

type registerRequest struct {
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"password"`
	FaceDescriptor []float64 `json:"faceDescriptor,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	UserInfo
	AccessToken string `json:"accessToken"`
}

type refreshResponse struct {
	AccessToken   string `json:"accessToken"`
	EmailVerified bool   `json:"emailVerified"`
}

func (a *Agent) Register(ctx context.Context, name, email, password string, faceDescriptor []float64) (*UserInfo, error) {
	var resp authResponse
	err := a.do(ctx, http.MethodPost, "/api/auth/register", registerRequest{
		Name:           name,
		Email:          email,
		Password:       password,
		FaceDescriptor: faceDescriptor,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return a.adoptSession(&resp)
}

func (a *Agent) Login(ctx context.Context, email, password string) (*UserInfo, error) {
	var resp authResponse
	err := a.do(ctx, http.MethodPost, "/api/auth/login", loginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return a.adoptSession(&resp)
}

// Logout tells the server to drop the cookie and clears local state. The
// local session is cleared even when the server call fails.
func (a *Agent) Logout(ctx context.Context) error {
	err := a.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	a.clearSession()
	return err
}

func (a *Agent) VerifyEmail(ctx context.Context, code string) (*UserInfo, error) {
	var resp struct {
		Message string   `json:"message"`
		User    UserInfo `json:"user"`
	}
	err := a.do(ctx, http.MethodPost, "/api/auth/verify-email", map[string]string{"code": code}, &resp)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.state.User = &resp.User
	a.state.IsEmailVerified = resp.User.EmailVerified
	snapshot := a.state
	a.mu.Unlock()
	if err := a.store.Save(&snapshot); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (a *Agent) ResendVerification(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/api/auth/resend-verification", nil, nil)
}

func (a *Agent) Profile(ctx context.Context) (*UserInfo, error) {
	var user UserInfo
	if err := a.do(ctx, http.MethodGet, "/api/auth/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile sends only the non-nil fields.
func (a *Agent) UpdateProfile(ctx context.Context, name, email, password *string, faceDescriptor []float64) (*UserInfo, error) {
	payload := map[string]any{}
	if name != nil {
		payload["name"] = *name
	}
	if email != nil {
		payload["email"] = *email
	}
	if password != nil {
		payload["password"] = *password
	}
	if faceDescriptor != nil {
		payload["faceDescriptor"] = faceDescriptor
	}

	var user UserInfo
	if err := a.do(ctx, http.MethodPut, "/api/auth/profile", payload, &user); err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.state.User = &user
	a.state.IsEmailVerified = user.EmailVerified
	snapshot := a.state
	a.mu.Unlock()
	if err := a.store.Save(&snapshot); err != nil {
		return nil, err
	}
	return &user, nil
}

// State returns a snapshot of the current session state.
func (a *Agent) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// AccessToken returns the current bearer token, empty when logged out.
func (a *Agent) AccessToken() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.AccessToken
}

// do performs one API call. On a 401 from a non-auth endpoint it refreshes
// the access token and retries exactly once; a second 401 surfaces as-is.
func (a *Agent) do(ctx context.Context, method, path string, body, out any) error {
	token := a.AccessToken()

	status, respBody, err := a.send(ctx, method, path, body, token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && !isAuthEndpoint(path) {
		if err := a.refreshAccessToken(ctx, token); err != nil {
			return err
		}
		status, respBody, err = a.send(ctx, method, path, body, a.AccessToken())
		if err != nil {
			return err
		}
	}

	if status < 200 || status >= 300 {
		return decodeAPIError(status, respBody)
	}
	if out != nil && len(respBody) > 0 {
		return json.Unmarshal(respBody, out)
	}
	return nil
}

func (a *Agent) send(ctx context.Context, method, path string, body any, token string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// refreshAccessToken rotates the session via the refresh cookie. staleToken
// is the token the caller saw fail; when another goroutine has already
// refreshed past it, the call returns without a second network refresh. On a
// rejected refresh the whole session is cleared.
func (a *Agent) refreshAccessToken(ctx context.Context, staleToken string) error {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	if current := a.AccessToken(); current != "" && current != staleToken {
		return nil
	}

	status, respBody, err := a.send(ctx, http.MethodPost, "/api/auth/refresh", nil, "")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		a.clearSession()
		return ErrSessionExpired
	}

	var resp refreshResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		a.clearSession()
		return ErrSessionExpired
	}

	a.mu.Lock()
	a.state.AccessToken = resp.AccessToken
	a.state.IsAuthenticated = true
	a.state.IsEmailVerified = resp.EmailVerified
	snapshot := a.state
	a.mu.Unlock()
	return a.store.Save(&snapshot)
}

func (a *Agent) adoptSession(resp *authResponse) (*UserInfo, error) {
	user := resp.UserInfo
	a.setState(State{
		AccessToken:     resp.AccessToken,
		User:            &user,
		IsAuthenticated: true,
		IsEmailVerified: user.EmailVerified,
		IsInitialized:   true,
	})
	snapshot := a.State()
	if err := a.store.Save(&snapshot); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *Agent) setState(state State) {
	a.mu.Lock()
	a.state = state
	a.mu.Unlock()
}

func (a *Agent) clearSession() {
	a.mu.Lock()
	initialized := a.state.IsInitialized
	a.state = State{IsInitialized: initialized}
	a.mu.Unlock()
	_ = a.store.Clear()
}

func (a *Agent) markInitialized() {
	a.mu.Lock()
	a.state.IsInitialized = true
	a.mu.Unlock()
}

// isAuthEndpoint reports whether a 401 from this path means bad credentials
// rather than an expired access token. Those are never retried.
func isAuthEndpoint(path string) bool {
	switch path {
	case "/api/auth/login", "/api/auth/register", "/api/auth/refresh", "/api/auth/logout":
		return true
	}
	return false
}

func decodeAPIError(status int, body []byte) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}
