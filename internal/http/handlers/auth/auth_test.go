package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoriesapp/memories-service/internal/storage/memory"
	"github.com/memoriesapp/memories-service/internal/token"
	"github.com/memoriesapp/memories-service/internal/utils/response"
)

const (
	testSecret = "test-secret"
	testAppURL = "http://localhost:8080"
)

// fakeMailer records links instead of dialing SMTP.
type fakeMailer struct {
	verificationLinks []string
	resetLinks        []string
}

func (f *fakeMailer) SendVerification(to, lastName, link string) error {
	f.verificationLinks = append(f.verificationLinks, link)
	return nil
}

func (f *fakeMailer) SendPasswordReset(to, lastName, link string) error {
	f.resetLinks = append(f.resetLinks, link)
	return nil
}

type testEnv struct {
	store  *memory.Memory
	mailer *fakeMailer
	mux    *http.ServeMux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	issuer := token.NewIssuer(store)
	mailer := &fakeMailer{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", Register(store, issuer, mailer, testAppURL))
	mux.HandleFunc("POST /login", Login(store, testSecret))
	mux.HandleFunc("GET /users/verify/{userId}/{token}", VerifyEmail(issuer))
	mux.HandleFunc("POST /users/request-passwordreset", RequestPasswordReset(store, issuer, mailer, testAppURL))
	mux.HandleFunc("GET /users/reset-password/{userId}/{token}", CheckResetLink(issuer))
	mux.HandleFunc("POST /users/reset-password", ChangePassword(store, issuer))

	return &testEnv{store: store, mailer: mailer, mux: mux}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns the emailed verification link
// stripped down to its request path.
func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()

	body := fmt.Sprintf(`{"firstName":"Maria","lastName":"Santos","email":%q,"password":"secret123"}`, email)
	rec := e.do(t, http.MethodPost, "/register", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, e.mailer.verificationLinks, 1)
	return strings.TrimPrefix(e.mailer.verificationLinks[len(e.mailer.verificationLinks)-1], testAppURL)
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	verifyPath := env.register(t, "maria@example.com")

	// unverified accounts cannot log in
	login := `{"email":"maria@example.com","password":"secret123"}`
	rec := env.do(t, http.MethodPost, "/login", login)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, verifyPath, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/login", login)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, response.StatusSuccess, resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["token"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "maria@example.com")

	body := `{"firstName":"Other","lastName":"User","email":"maria@example.com","password":"secret123"}`
	rec := env.do(t, http.MethodPost, "/register", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/register", `{"firstName":"Maria"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/register", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	verifyPath := env.register(t, "maria@example.com")
	env.do(t, http.MethodGet, verifyPath, "")

	rec := env.do(t, http.MethodPost, "/login", `{"email":"maria@example.com","password":"wrongpass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/login", `{"email":"nobody@example.com","password":"secret123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyWithWrongToken(t *testing.T) {
	env := newTestEnv(t)
	verifyPath := env.register(t, "maria@example.com")

	parts := strings.Split(strings.TrimPrefix(verifyPath, "/users/verify/"), "/")
	require.Len(t, parts, 2)
	userID := parts[0]

	rec := env.do(t, http.MethodGet, "/users/verify/"+userID+"/bogus-token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	verifyPath := env.register(t, "maria@example.com")
	env.do(t, http.MethodGet, verifyPath, "")

	rec := env.do(t, http.MethodPost, "/users/request-passwordreset", `{"email":"maria@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, env.mailer.resetLinks, 1)

	// a second request while the first is pending sends no new email
	rec = env.do(t, http.MethodPost, "/users/request-passwordreset", `{"email":"maria@example.com"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, env.mailer.resetLinks, 1)

	resetPath := strings.TrimPrefix(env.mailer.resetLinks[0], testAppURL)
	rec = env.do(t, http.MethodGet, resetPath, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	parts := strings.Split(strings.TrimPrefix(resetPath, "/users/reset-password/"), "/")
	require.Len(t, parts, 2)
	userID := parts[0]

	change := fmt.Sprintf(`{"userId":%q,"password":"newsecret","confirmPassword":"newsecret"}`, userID)
	rec = env.do(t, http.MethodPost, "/users/reset-password", change)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// old password is rejected, new one works
	rec = env.do(t, http.MethodPost, "/login", `{"email":"maria@example.com","password":"secret123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/login", `{"email":"maria@example.com","password":"newsecret"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResetForUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/users/request-passwordreset", `{"email":"nobody@example.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChangePasswordMismatch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/users/reset-password",
		`{"userId":"1","password":"newsecret","confirmPassword":"different"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
