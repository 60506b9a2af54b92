package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmarket-client/internal/auth"
	"taskmarket-client/internal/auth/oauth"
	"taskmarket-client/internal/backend"
	"taskmarket-client/internal/session"
	"taskmarket-client/internal/storage"
	"taskmarket-client/internal/tasks"
)

// fakeBackend stands in for the marketplace API across the orchestrator,
// the exchange and the task list.
type fakeBackend struct {
	loginErr      error
	authResp      backend.AuthResponse
	exchangeErr   error
	exchangeCalls int
	taskList      []tasks.Task
}

func (f *fakeBackend) Login(_ context.Context, _ backend.LoginRequest) (backend.AuthResponse, error) {
	if f.loginErr != nil {
		return backend.AuthResponse{}, f.loginErr
	}
	return f.authResp, nil
}

func (f *fakeBackend) Register(_ context.Context, _ backend.RegisterRequest) (backend.AuthResponse, error) {
	return f.authResp, nil
}

func (f *fakeBackend) UpdateProfile(_ context.Context, _ session.EntityID, profile session.Identity) (session.Identity, error) {
	return profile, nil
}

func (f *fakeBackend) ExchangeGoogleCode(_ context.Context, _ string) (backend.AuthResponse, error) {
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return backend.AuthResponse{}, f.exchangeErr
	}
	return f.authResp, nil
}

func (f *fakeBackend) Tasks(_ context.Context) ([]tasks.Task, error) {
	return f.taskList, nil
}

func newTestRouter(t *testing.T, api *fakeBackend) (*gin.Engine, *session.Store, storage.KV) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kv := storage.NewMemoryStore()
	sessions := session.NewStore(kv)

	provider, err := oauth.NewStaticGoogleProvider("client-1", "http://localhost:3000/auth")
	require.NoError(t, err)

	flow := oauth.NewFlow(provider, oauth.NewStateSlot(kv), sessions, api)
	orchestrator := auth.NewOrchestrator(api, sessions)
	handler := NewHandler(flow, provider, orchestrator, sessions, api, kv, "en")

	router := gin.New()
	handler.RegisterRoutes(router)
	return router, sessions, kv
}

func doJSON(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func authResp(id int64, email, token string) backend.AuthResponse {
	return backend.AuthResponse{
		User:  session.Identity{ID: session.NumericID(id), Email: email},
		Token: token,
	}
}

func TestAuthPagePlainLoad(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeBackend{})

	w := doJSON(router, http.MethodGet, "/auth", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestGoogleRedirectRoundTrip(t *testing.T) {
	api := &fakeBackend{authResp: authResp(7, "a@b.com", "t1")}
	router, sessions, kv := newTestRouter(t, api)

	// Begin: 302 to the provider with a state param.
	w := doJSON(router, http.MethodGet, "/auth/google", "")
	require.Equal(t, http.StatusFound, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", location.Host)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	pending, ok, err := kv.Get(context.Background(), storage.KeyOAuthState)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pending, state)

	// Callback: exchange once, session set, redirect to dashboard with the
	// query stripped.
	w = doJSON(router, http.MethodGet, "/auth?code=XYZ&state="+state, "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	assert.Equal(t, 1, api.exchangeCalls)
	assert.True(t, sessions.Authenticated())

	// Refresh redelivers the pair; no second exchange.
	w = doJSON(router, http.MethodGet, "/auth?code=XYZ&state="+state, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, api.exchangeCalls)
}

func TestCallbackWrongStateIsPlainPageLoad(t *testing.T) {
	api := &fakeBackend{authResp: authResp(7, "a@b.com", "t1")}
	router, sessions, _ := newTestRouter(t, api)

	w := doJSON(router, http.MethodGet, "/auth/google", "")
	require.Equal(t, http.StatusFound, w.Code)

	w = doJSON(router, http.MethodGet, "/auth?code=XYZ&state=wrong", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, api.exchangeCalls)
	assert.False(t, sessions.Authenticated())
}

func TestCallbackExpiredGrantRedirectsWithRetryHint(t *testing.T) {
	api := &fakeBackend{
		exchangeErr: backend.ErrUpstreamUnauthorized,
	}
	router, sessions, kv := newTestRouter(t, api)

	w := doJSON(router, http.MethodGet, "/auth/google", "")
	require.Equal(t, http.StatusFound, w.Code)
	state, _, err := kv.Get(context.Background(), storage.KeyOAuthState)
	require.NoError(t, err)

	w = doJSON(router, http.MethodGet, "/auth?code=XYZ&state="+state, "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth?error=expired", w.Header().Get("Location"))
	assert.False(t, sessions.Authenticated())
}

func TestLoginEndpoint(t *testing.T) {
	api := &fakeBackend{authResp: authResp(7, "a@b.com", "t1")}
	router, sessions, _ := newTestRouter(t, api)

	w := doJSON(router, http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"pw"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sessions.Authenticated())
}

func TestLoginEndpointRejection(t *testing.T) {
	api := &fakeBackend{loginErr: &backend.APIError{Status: 401, Message: "invalid credentials"}}
	router, sessions, _ := newTestRouter(t, api)

	w := doJSON(router, http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, sessions.Authenticated())
}

func TestLoginEndpointServerErrorIsNotInvalidCredentials(t *testing.T) {
	api := &fakeBackend{loginErr: &backend.APIError{Status: 500, Message: "internal error"}}
	router, _, _ := newTestRouter(t, api)

	w := doJSON(router, http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"pw"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "invalid credentials")
}

func TestRegisterEndpointValidation(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeBackend{})

	w := doJSON(router, http.MethodPost, "/auth/register",
		`{"name":"Ada","email":"a@b.com","password":"pw1","confirmPassword":"pw2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoogleCredentialEndpoint(t *testing.T) {
	api := &fakeBackend{authResp: authResp(9, "new@x.com", "t3")}
	router, sessions, _ := newTestRouter(t, api)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "108",
		"name":  "New User",
		"email": "new@x.com",
	})
	raw, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{"credential": raw})
	require.NoError(t, err)

	w := doJSON(router, http.MethodPost, "/auth/google-credential", string(body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sessions.Authenticated())
}

func TestLogoutEndsSessionAndGuardsDashboard(t *testing.T) {
	api := &fakeBackend{authResp: authResp(7, "a@b.com", "t1")}
	router, sessions, _ := newTestRouter(t, api)

	w := doJSON(router, http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, sessions.Authenticated())

	w = doJSON(router, http.MethodGet, "/dashboard/tasks", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardTasksPartitioned(t *testing.T) {
	api := &fakeBackend{
		authResp: authResp(5, "x@y.com", "t1"),
		taskList: []tasks.Task{
			{ID: session.NumericID(1), Title: "mine", User: &tasks.Owner{ID: session.ID("5")}},
			{ID: session.NumericID(2), Title: "assigned", AssignedTo: &tasks.Owner{Email: "x@y.com"}},
			{ID: session.NumericID(3), Title: "other", User: &tasks.Owner{ID: session.NumericID(9)}},
		},
	}
	router, _, _ := newTestRouter(t, api)

	w := doJSON(router, http.MethodPost, "/auth/login", `{"email":"x@y.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/dashboard/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Posted   []tasks.Task `json:"posted"`
		Assigned []tasks.Task `json:"assigned"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Posted, 1)
	assert.Equal(t, "mine", out.Posted[0].Title)
	require.Len(t, out.Assigned, 1)
	assert.Equal(t, "assigned", out.Assigned[0].Title)
}

func TestLanguageSettings(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeBackend{})

	w := doJSON(router, http.MethodGet, "/settings/language", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"language":"en"`)

	w = doJSON(router, http.MethodPut, "/settings/language", `{"language":"si"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/settings/language", "")
	assert.Contains(t, w.Body.String(), `"language":"si"`)

	w = doJSON(router, http.MethodPut, "/settings/language", `{"language":"not a tag!!"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateProfileEndpoint(t *testing.T) {
	api := &fakeBackend{authResp: authResp(7, "a@b.com", "t1")}
	router, sessions, _ := newTestRouter(t, api)

	w := doJSON(router, http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPut, "/profile", `{"id":7,"name":"Renamed","email":"a@b.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	snap := sessions.Current()
	assert.Equal(t, "Renamed", snap.Identity.Name)
	assert.Equal(t, "t1", snap.Token)
}
