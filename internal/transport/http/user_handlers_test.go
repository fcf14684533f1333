package http

import (
	"encoding/json"
	stdhttp "net/http"
	"testing"
)

func TestRegisterConflictAndLogin(t *testing.T) {
	server, _, _ := newTestServer(t)
	handler := server.Handler

	registerTestUser(t, handler, "alice")

	resp := doJSON(handler, stdhttp.MethodPost, "/api/register", "",
		`{"username":"alice","password":"password123"}`)
	if resp.Code != stdhttp.StatusConflict {
		t.Errorf("duplicate register: expected 409, got %d", resp.Code)
	}

	resp = doJSON(handler, stdhttp.MethodPost, "/api/login", "",
		`{"username":"alice","password":"password123"}`)
	if resp.Code != stdhttp.StatusOK {
		t.Errorf("login: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(handler, stdhttp.MethodPost, "/api/login", "",
		`{"username":"alice","password":"wrong"}`)
	if resp.Code != stdhttp.StatusUnauthorized {
		t.Errorf("bad login: expected 401, got %d", resp.Code)
	}
}

func TestProfileAndPublicLookup(t *testing.T) {
	server, _, _ := newTestServer(t)
	handler := server.Handler

	alice := registerTestUser(t, handler, "alice")

	resp := doJSON(handler, stdhttp.MethodGet, "/api/profile", alice.Token, "")
	if resp.Code != stdhttp.StatusOK {
		t.Fatalf("profile: expected 200, got %d", resp.Code)
	}
	var profile UserResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &profile); err != nil {
		t.Fatalf("unmarshal profile: %v", err)
	}
	if profile.Username != "alice" {
		t.Errorf("unexpected profile: %+v", profile)
	}

	resp = doJSON(handler, stdhttp.MethodPut, "/api/profile", alice.Token,
		`{"displayName":"Alice A.","avatarUrl":"https://cdn/a.png"}`)
	if resp.Code != stdhttp.StatusOK {
		t.Fatalf("update profile: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// Public lookup reflects the update, without auth.
	resp = doJSON(handler, stdhttp.MethodGet, "/api/users/"+alice.User.ID, "", "")
	if resp.Code != stdhttp.StatusOK {
		t.Fatalf("public lookup: expected 200, got %d", resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &profile); err != nil {
		t.Fatalf("unmarshal public profile: %v", err)
	}
	if profile.DisplayName != "Alice A." || profile.AvatarURL != "https://cdn/a.png" {
		t.Errorf("unexpected public profile: %+v", profile)
	}

	resp = doJSON(handler, stdhttp.MethodGet, "/api/users/unknown-id", "", "")
	if resp.Code != stdhttp.StatusNotFound {
		t.Errorf("unknown user: expected 404, got %d", resp.Code)
	}

	resp = doJSON(handler, stdhttp.MethodGet, "/api/profile", "", "")
	if resp.Code != stdhttp.StatusUnauthorized {
		t.Errorf("profile without token: expected 401, got %d", resp.Code)
	}
}

func TestSearchExcludesSelf(t *testing.T) {
	server, _, _ := newTestServer(t)
	handler := server.Handler

	alice := registerTestUser(t, handler, "alice")
	registerTestUser(t, handler, "alex")
	registerTestUser(t, handler, "bob")

	resp := doJSON(handler, stdhttp.MethodGet, "/api/users?q=ale", alice.Token, "")
	if resp.Code != stdhttp.StatusOK {
		t.Fatalf("search: expected 200, got %d", resp.Code)
	}
	var results []UserResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &results); err != nil {
		t.Fatalf("unmarshal results: %v", err)
	}
	if len(results) != 1 || results[0].Username != "alex" {
		t.Errorf("unexpected search results: %+v", results)
	}

	resp = doJSON(handler, stdhttp.MethodGet, "/api/users?q=ale", "", "")
	if resp.Code != stdhttp.StatusUnauthorized {
		t.Errorf("search without token: expected 401, got %d", resp.Code)
	}

	resp = doJSON(handler, stdhttp.MethodGet, "/api/users?q=a", alice.Token, "")
	if resp.Code != stdhttp.StatusBadRequest {
		t.Errorf("short query: expected 400, got %d", resp.Code)
	}
}
