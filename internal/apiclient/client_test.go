package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shortreel/backend/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL + "/")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRejectsRelativeURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "/api", "ftp://example.com"} {
		if _, err := New(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestEndpoint(t *testing.T) {
	c, err := New("https://reels.example.com/base/")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := c.Endpoint("/api/video"); got != "https://reels.example.com/base/api/video" {
		t.Fatalf("unexpected endpoint %q", got)
	}
}

func TestSignInStoresToken(t *testing.T) {
	var sawAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/signin":
			var body credentials
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.Email != "viewer@example.com" || body.Password != "supersafe" {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
				return
			}
			writeJSON(w, http.StatusOK, tokensResponse{Tokens: models.SessionTokens{AccessToken: "access", RefreshToken: "refresh"}})
		case "/api/video":
			sawAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusCreated, models.Video{ID: "b2c1a3f0-0000-4000-8000-000000000001", Title: "Sunset"})
		default:
			http.NotFound(w, r)
		}
	})

	tokens, err := c.SignIn(context.Background(), "viewer@example.com", "supersafe")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if tokens.RefreshToken != "refresh" || c.Token() != "access" {
		t.Fatalf("unexpected tokens %+v / %q", tokens, c.Token())
	}

	if _, err := c.CreateVideo(context.Background(), models.NewVideo{Title: "Sunset"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if sawAuth != "Bearer access" {
		t.Fatalf("expected bearer token, got %q", sawAuth)
	}
}

func TestErrorResponses(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/video/not-an-id":
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid video ID"})
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	})

	_, err := c.GetVideo(context.Background(), "not-an-id")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error got %T %v", err, err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Invalid video ID" {
		t.Fatalf("unexpected error %+v", apiErr)
	}

	err = c.DeleteVideo(context.Background(), "anything")
	if StatusOf(err) != http.StatusBadGateway {
		t.Fatalf("expected 502 got %v", err)
	}
	if err.(*Error).Message != "" || err.Error() != "api error 502: Bad Gateway" {
		t.Fatalf("expected empty message with status text fallback, got %q / %q", err.(*Error).Message, err.Error())
	}

	if StatusOf(errors.New("plain")) != 0 {
		t.Fatal("plain errors carry no status")
	}
}

func TestListVideosQuery(t *testing.T) {
	var sawQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		sawQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte("null"))
	})

	videos, err := c.ListVideos(context.Background(), "  beach trip ")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if sawQuery != "beach trip" {
		t.Fatalf("unexpected query %q", sawQuery)
	}
	if videos == nil || len(videos) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", videos)
	}
}

func TestUploadCredential(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/imagekit-auth" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, models.UploadCredential{Token: "tok", Signature: "sig", Expire: 1700000000})
	})

	cred, err := c.UploadCredential(context.Background())
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	if cred.Token != "tok" || cred.Signature != "sig" || cred.Expire != 1700000000 {
		t.Fatalf("unexpected credential %+v", cred)
	}
}

func TestSignOutClearsToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
	})
	c.SetToken("access")

	if err := c.SignOut(context.Background(), "refresh"); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if c.Token() != "" {
		t.Fatal("expected token to be cleared")
	}
}

func TestListVideosSendsSearchAsQuery(t *testing.T) {
	var sawPath, sawRawQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		sawPath, sawRawQuery = r.URL.Path, r.URL.RawQuery
		writeJSON(w, http.StatusOK, []models.Video{})
	})

	if _, err := c.ListVideos(context.Background(), "50% off & more"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if sawPath != "/api/video" {
		t.Fatalf("search leaked into the path: %q", sawPath)
	}
	if sawRawQuery != "q=50%25+off+%26+more" {
		t.Fatalf("unexpected raw query %q", sawRawQuery)
	}

	if _, err := c.ListVideos(context.Background(), "   "); err != nil {
		t.Fatalf("list: %v", err)
	}
	if sawRawQuery != "" {
		t.Fatalf("blank search should send no query, got %q", sawRawQuery)
	}
}

func TestVideoIDsEscapedOnce(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.EscapedPath())
		writeJSON(w, http.StatusOK, models.Video{ID: "x"})
	})

	if _, err := c.GetVideo(context.Background(), "a b%c"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := c.DeleteVideo(context.Background(), "x/y"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []string{"GET /api/video/a%20b%25c", "DELETE /api/video/x%2Fy"}
	if len(paths) != len(want) {
		t.Fatalf("expected %d requests got %v", len(want), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("request %d: expected %q got %q", i, want[i], paths[i])
		}
	}
}

func TestEndpointWithoutBasePath(t *testing.T) {
	c, err := New("http://localhost:8080")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := c.Endpoint("/api/media/upload"); got != "http://localhost:8080/api/media/upload" {
		t.Fatalf("unexpected endpoint %q", got)
	}
}
