package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoginSendsOAuth2PasswordForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content type = %q, want form-encoded", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		if r.PostFormValue("username") != "alice" || r.PostFormValue("password") != "pw" {
			t.Errorf("unexpected form values: %v", r.PostForm)
		}
		_ = json.NewEncoder(w).Encode(LoginResponse{
			AccessToken:  "a",
			RefreshToken: "r",
			TokenType:    "bearer",
			User:         UserProfile{ID: "u1", Email: "alice@example.com"},
		})
	}))
	defer server.Close()

	resp, err := NewClient(server.URL, nil).Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.AccessToken != "a" || resp.User.ID != "u1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestErrorDetailExtracted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect email or password"})
	}))
	defer server.Close()

	_, err := NewClient(server.URL, nil).Login(context.Background(), "alice", "bad")
	if err == nil {
		t.Fatal("expected error")
	}

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T", err)
	}
	if se.StatusCode != http.StatusUnauthorized || se.Detail != "Incorrect email or password" {
		t.Fatalf("unexpected status error: %+v", se)
	}
	if !IsUnauthorized(err) {
		t.Fatal("IsUnauthorized must match a wrapped 401")
	}
}

func TestIsUnauthorizedOnlyFor401(t *testing.T) {
	if IsUnauthorized(&StatusError{StatusCode: 500}) {
		t.Fatal("500 reported as unauthorized")
	}
	if IsUnauthorized(errors.New("dial tcp: connection refused")) {
		t.Fatal("network error reported as unauthorized")
	}
	if !IsUnauthorized(&StatusError{StatusCode: 401}) {
		t.Fatal("401 not reported as unauthorized")
	}
}

func TestMeAttachesBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(UserProfile{ID: "u1"})
	}))
	defer server.Close()

	profile, err := NewClient(server.URL, nil).Me(context.Background(), "tok")
	if err != nil {
		t.Fatalf("me failed: %v", err)
	}
	if profile.ID != "u1" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestRefreshPostsJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken != "rt" {
			t.Errorf("unexpected refresh body: %+v err=%v", req, err)
		}
		_ = json.NewEncoder(w).Encode(RefreshResponse{AccessToken: "new"})
	}))
	defer server.Close()

	resp, err := NewClient(server.URL, nil).Refresh(context.Background(), "rt")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if resp.AccessToken != "new" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestBaseURLTrailingSlashNormalized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/me" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(UserProfile{})
	}))
	defer server.Close()

	if _, err := NewClient(server.URL+"/", nil).Me(context.Background(), "tok"); err != nil {
		t.Fatalf("me failed: %v", err)
	}
}
