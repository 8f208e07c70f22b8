package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/shortreel/backend/internal/models"
)

func TestAuthRegister(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", credentialsRequest{Email: " Test@Example.com ", Password: "supersafe"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	identity := decodeBody[models.Identity](t, rec)
	if identity.UserID == "" || identity.Email != "test@example.com" {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if strings.Contains(rec.Body.String(), "supersafe") {
		t.Fatal("response must not echo the password")
	}

	stored, err := ts.users.FindByEmail(context.Background(), "test@example.com")
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("supersafe")) != nil {
		t.Fatal("stored password is not hashed")
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/register", "", credentialsRequest{Email: "test@example.com", Password: "supersafe"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate got %d", rec.Code)
	}
}

func TestAuthRegisterValidation(t *testing.T) {
	ts := newTestServer(t, nil)

	cases := []struct {
		name string
		body any
		want string
	}{
		{"malformed", "{", "invalid request body"},
		{"missing password", credentialsRequest{Email: "a@example.com"}, "email and password are required"},
		{"bad email", credentialsRequest{Email: "nope", Password: "supersafe"}, "invalid email address"},
		{"short password", credentialsRequest{Email: "a@example.com", Password: "short"}, "password must be at least 8 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/auth/register", "", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", rec.Code)
			}
			if msg := errorMessage(t, rec); msg != tc.want {
				t.Fatalf("expected %q got %q", tc.want, msg)
			}
		})
	}
}

func TestAuthSignIn(t *testing.T) {
	ts := newTestServer(t, nil)
	user := ts.users.add(t, "viewer@example.com", "supersafe")

	rec := ts.do(t, http.MethodPost, "/api/auth/signin", "", credentialsRequest{Email: "viewer@example.com", Password: "supersafe"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	resp := decodeBody[authResponse](t, rec)
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens, got %+v", resp.Tokens)
	}

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			session = c
		}
	}
	if session == nil || !session.HttpOnly || session.Value != resp.Tokens.AccessToken {
		t.Fatalf("expected HttpOnly session cookie carrying the access token, got %+v", session)
	}

	identity, err := ts.sessions.Verify(resp.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if identity.UserID != user.ID {
		t.Fatalf("expected user %s got %s", user.ID, identity.UserID)
	}
}

func TestAuthSignInRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.users.add(t, "viewer@example.com", "supersafe")

	for _, req := range []credentialsRequest{
		{Email: "viewer@example.com", Password: "wrong-password"},
		{Email: "ghost@example.com", Password: "supersafe"},
	} {
		rec := ts.do(t, http.MethodPost, "/api/auth/signin", "", req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s got %d", req.Email, rec.Code)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Fatal("failed sign in must not set cookies")
		}
	}
}

func TestAuthRateLimited(t *testing.T) {
	limiter := &countingLimiter{allowed: 1}
	ts := newTestServer(t, func(d *Dependencies) { d.Limiter = limiter })
	ts.users.add(t, "viewer@example.com", "supersafe")

	body := credentialsRequest{Email: "viewer@example.com", Password: "supersafe"}
	if rec := ts.do(t, http.MethodPost, "/api/auth/signin", "", body); rec.Code != http.StatusOK {
		t.Fatalf("expected first sign in to pass got %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodPost, "/api/auth/signin", "", body); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
	if len(limiter.keys) == 0 || !strings.HasPrefix(limiter.keys[0], "signin:") {
		t.Fatalf("expected scoped limiter key, got %v", limiter.keys)
	}
}

func TestAuthRefreshAndSignOut(t *testing.T) {
	ts := newTestServer(t, nil)
	user := ts.users.add(t, "viewer@example.com", "supersafe")

	tokens, err := ts.sessions.Issue(context.Background(), models.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := ts.do(t, http.MethodPost, "/api/auth/refresh", "", refreshRequest{RefreshToken: tokens.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	refreshed := decodeBody[authResponse](t, rec).Tokens
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected refresh token rotation")
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/refresh", "", refreshRequest{RefreshToken: tokens.RefreshToken})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for rotated token got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/signout", "", refreshRequest{RefreshToken: refreshed.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected session cookie to be cleared")
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/refresh", "", refreshRequest{RefreshToken: refreshed.RefreshToken})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after sign out got %d", rec.Code)
	}
}

func TestAuthSignOutWithoutBody(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/auth/signout", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/signout", "", "{")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAuthHandlerMissingDependencies(t *testing.T) {
	handler := AuthHandler{}

	rec := serve(http.HandlerFunc(handler.SignIn), newJSONRequest(t, http.MethodPost, "/api/auth/signin", credentialsRequest{Email: "a@example.com", Password: "supersafe"}))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}

func TestAuthRejectsOversizedBodies(t *testing.T) {
	ts := newTestServer(t, nil)
	huge := `{"email":"a@example.com","password":"` + strings.Repeat("p", maxJSONBodySize) + `"}`

	for _, target := range []string{"/api/auth/register", "/api/auth/signin", "/api/auth/refresh", "/api/auth/signout"} {
		rec := ts.do(t, http.MethodPost, target, "", huge)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("%s: expected 413 got %d", target, rec.Code)
		}
	}
}
