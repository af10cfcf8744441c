package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/boostgg/storefront/internal/domain"
	"github.com/boostgg/storefront/internal/session"
	"github.com/boostgg/storefront/internal/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUserService struct {
	user        *domain.User
	registerErr error
	authErr     error
	newPassword string
}

func (m *mockUserService) Register(context.Context, string, string, string) (*domain.User, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return m.user, nil
}

func (m *mockUserService) Authenticate(context.Context, string, string) (*domain.User, error) {
	if m.authErr != nil {
		return nil, m.authErr
	}
	return m.user, nil
}

func (m *mockUserService) ChangePassword(_ context.Context, _ uuid.UUID, newPassword string) error {
	m.newPassword = newPassword
	return nil
}

func (m *mockUserService) GetByEmail(context.Context, string) (*domain.User, error) {
	if m.user == nil {
		return nil, users.ErrUserNotFound
	}
	return m.user, nil
}

func testAuthHandler(t *testing.T, svc *mockUserService) (*AuthHandler, *session.Store) {
	t.Helper()
	sessions := session.NewStore()
	sealer, err := session.NewResetSealer(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	return NewAuthHandler(svc, sessions, sealer, 5*time.Second), sessions
}

func sessionCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range recorder.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestRegister_SetsSession(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "a@example.com", Role: domain.RoleCustomer}
	handler, sessions := testAuthHandler(t, &mockUserService{user: user})

	body, _ := json.Marshal(RegisterRequestDTO{Email: "a@example.com", Password: "longenough", DisplayName: "Alice"})
	recorder := httptest.NewRecorder()
	handler.Register(recorder, httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, recorder.Code)

	cookie := sessionCookie(t, recorder)
	got, err := sessions.Get(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestRegister_ShortPassword(t *testing.T) {
	handler, _ := testAuthHandler(t, &mockUserService{})

	body, _ := json.Marshal(RegisterRequestDTO{Email: "a@example.com", Password: "short"})
	recorder := httptest.NewRecorder()
	handler.Register(recorder, httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRegister_EmailTaken(t *testing.T) {
	handler, _ := testAuthHandler(t, &mockUserService{registerErr: users.ErrEmailTaken})

	body, _ := json.Marshal(RegisterRequestDTO{Email: "a@example.com", Password: "longenough"})
	recorder := httptest.NewRecorder()
	handler.Register(recorder, httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body)))

	assert.Equal(t, http.StatusConflict, recorder.Code)

	var response ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	assert.Equal(t, "email_taken", response.Code)
}

func TestLogin_Success(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "a@example.com"}
	handler, sessions := testAuthHandler(t, &mockUserService{user: user})

	body, _ := json.Marshal(LoginRequestDTO{Email: "a@example.com", Password: "pw"})
	recorder := httptest.NewRecorder()
	handler.Login(recorder, httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, recorder.Code)

	cookie := sessionCookie(t, recorder)
	_, err := sessions.Get(cookie.Value)
	assert.NoError(t, err)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	handler, _ := testAuthHandler(t, &mockUserService{authErr: users.ErrInvalidCredentials})

	body, _ := json.Marshal(LoginRequestDTO{Email: "a@example.com", Password: "wrong"})
	recorder := httptest.NewRecorder()
	handler.Login(recorder, httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestLogout_ClearsSession(t *testing.T) {
	user := &domain.User{ID: uuid.New()}
	handler, sessions := testAuthHandler(t, &mockUserService{user: user})
	token := sessions.Create(user)

	request := httptest.NewRequest("POST", "/auth/logout", nil)
	request.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	recorder := httptest.NewRecorder()
	handler.Logout(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	_, err := sessions.Get(token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	// Cookie is expired client-side too
	cookie := sessionCookie(t, recorder)
	assert.Negative(t, cookie.MaxAge)
}

func TestMe(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "a@example.com"}
	handler, _ := testAuthHandler(t, &mockUserService{})

	request := httptest.NewRequest("GET", "/auth/me", nil)
	request = request.WithContext(withUser(request.Context(), user))
	recorder := httptest.NewRecorder()
	handler.Me(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var response domain.User
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, user.ID, response.ID)
}

func TestForgotPassword_SameResponseEitherWay(t *testing.T) {
	known, _ := testAuthHandler(t, &mockUserService{user: &domain.User{ID: uuid.New(), Email: "a@example.com"}})
	unknown, _ := testAuthHandler(t, &mockUserService{})

	for _, handler := range []*AuthHandler{known, unknown} {
		body, _ := json.Marshal(ForgotPasswordRequestDTO{Email: "a@example.com"})
		recorder := httptest.NewRecorder()
		handler.ForgotPassword(recorder, httptest.NewRequest("POST", "/auth/forgot-password", bytes.NewReader(body)))

		assert.Equal(t, http.StatusAccepted, recorder.Code)
	}
}

func TestResetPassword_FullFlow(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "a@example.com"}
	svc := &mockUserService{user: user}
	handler, sessions := testAuthHandler(t, svc)

	// Live session that must die with the reset
	oldToken := sessions.Create(user)

	token, err := handler.sealer.Seal(user.ID)
	require.NoError(t, err)

	body, _ := json.Marshal(ResetPasswordRequestDTO{Token: token, Password: "brandnewpw"})
	recorder := httptest.NewRecorder()
	handler.ResetPassword(recorder, httptest.NewRequest("POST", "/auth/reset-password", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "brandnewpw", svc.newPassword)

	_, err = sessions.Get(oldToken)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestResetPassword_BadToken(t *testing.T) {
	handler, _ := testAuthHandler(t, &mockUserService{})

	body, _ := json.Marshal(ResetPasswordRequestDTO{Token: "garbage", Password: "brandnewpw"})
	recorder := httptest.NewRecorder()
	handler.ResetPassword(recorder, httptest.NewRequest("POST", "/auth/reset-password", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var response ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	assert.Equal(t, "invalid_token", response.Code)
}
