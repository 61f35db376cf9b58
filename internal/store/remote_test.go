package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pageguard/internal/types"
)

// fakeRemote is a minimal REST double for the remote database: it speaks the
// same select/insert/delete dialect and records what it was asked.
type fakeRemote struct {
	t        *testing.T
	users    []map[string]any
	sessions []map[string]any
	deletes  []string
}

func (f *fakeRemote) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") == "" || r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message": "No API key found in request"}`))
			return
		}
		switch {
		case r.URL.Path == "/rest/v1/users" && r.Method == http.MethodGet:
			email := strings.TrimPrefix(r.URL.Query().Get("email"), "eq.")
			matched := []map[string]any{}
			for _, u := range f.users {
				if u["email"] == email {
					matched = append(matched, u)
				}
			}
			writeJSON(w, matched)
		case r.URL.Path == "/rest/v1/users" && r.Method == http.MethodPost:
			var rows []map[string]any
			_ = json.NewDecoder(r.Body).Decode(&rows)
			for i := range rows {
				rows[i]["id"] = "remote-user-1"
				rows[i]["created_at"] = time.Now().UTC().Format(time.RFC3339)
			}
			f.users = append(f.users, rows...)
			writeJSON(w, rows)
		case r.URL.Path == "/rest/v1/analysis_history" && r.Method == http.MethodPost:
			var rows []map[string]any
			_ = json.NewDecoder(r.Body).Decode(&rows)
			for i := range rows {
				rows[i]["id"] = "remote-session-1"
				rows[i]["created_at"] = time.Now().UTC().Format(time.RFC3339)
			}
			f.sessions = append(f.sessions, rows...)
			writeJSON(w, rows)
		case r.URL.Path == "/rest/v1/analysis_history" && r.Method == http.MethodGet:
			userID := strings.TrimPrefix(r.URL.Query().Get("user_id"), "eq.")
			matched := []map[string]any{}
			for _, s := range f.sessions {
				if s["user_id"] == userID {
					matched = append(matched, s)
				}
			}
			writeJSON(w, matched)
		case r.URL.Path == "/rest/v1/analysis_history" && r.Method == http.MethodDelete:
			f.deletes = append(f.deletes, r.URL.RawQuery)
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/rest/v1/logs" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("[]"))
		default:
			f.t.Errorf("unexpected request: %s %s", r.Method, r.URL)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestRemoteRegisterAndLogin(t *testing.T) {
	fake := &fakeRemote{t: t}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	b := NewRemoteBackend(server.URL, "service-key")
	ctx := context.Background()

	user, err := b.RegisterUser(ctx, "auditor@example.com", "Auditor")
	if err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}
	if user.ID != "remote-user-1" {
		t.Errorf("id = %q, want server-assigned id", user.ID)
	}

	if _, err := b.RegisterUser(ctx, "auditor@example.com", "Other"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate register error = %v, want ErrUserExists", err)
	}

	back, err := b.LoginUser(ctx, "auditor@example.com")
	if err != nil {
		t.Fatalf("LoginUser failed: %v", err)
	}
	if back.Email != "auditor@example.com" {
		t.Errorf("login returned %+v", back)
	}
}

func TestRemoteLoginUnknownUser(t *testing.T) {
	fake := &fakeRemote{t: t}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	b := NewRemoteBackend(server.URL, "service-key")
	_, err := b.LoginUser(context.Background(), "stranger@example.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("LoginUser error = %v, want ErrUserNotFound", err)
	}
}

func TestRemoteSaveAndHistory(t *testing.T) {
	fake := &fakeRemote{t: t}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	b := NewRemoteBackend(server.URL, "service-key")
	ctx := context.Background()

	session := types.AnalysisSession{
		UserID:      "u-1",
		ProjectName: "Riverside Tower",
		Results: []types.PageAnalysis{{
			ID: "res-1", Status: types.StatusCompliant, ComplianceScore: 100,
			Discrepancies: []types.Discrepancy{},
		}},
	}
	saved, err := b.SaveSession(ctx, session)
	if err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if saved.ID != "remote-session-1" {
		t.Errorf("id = %q, want server-assigned id", saved.ID)
	}

	sessions, err := b.History(ctx, "u-1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ProjectName != "Riverside Tower" {
		t.Fatalf("history = %+v", sessions)
	}
	if len(sessions[0].Results) != 1 || sessions[0].Results[0].ComplianceScore != 100 {
		t.Errorf("results did not round-trip: %+v", sessions[0].Results)
	}

	other, err := b.History(ctx, "u-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Errorf("history not filtered by owner: %+v", other)
	}
}

func TestRemoteDeleteHistory(t *testing.T) {
	fake := &fakeRemote{t: t}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	b := NewRemoteBackend(server.URL, "service-key")
	ctx := context.Background()

	if err := b.DeleteHistory(ctx, "s-1"); err != nil {
		t.Fatalf("DeleteHistory failed: %v", err)
	}
	if err := b.ClearHistory(ctx, "u-1"); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}
	if len(fake.deletes) != 2 {
		t.Fatalf("recorded %d deletes, want 2", len(fake.deletes))
	}
}

func TestRemoteServerErrorWrapsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message": "database is on fire"}`))
	}))
	defer server.Close()

	b := NewRemoteBackend(server.URL, "service-key")
	_, err := b.LoginUser(context.Background(), "any@example.com")
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("error = %v, want ErrRemoteUnavailable", err)
	}
}

func TestRemoteUnreachableWrapsUnavailable(t *testing.T) {
	b := NewRemoteBackend("http://127.0.0.1:1", "service-key")
	_, err := b.Logs(context.Background())
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("error = %v, want ErrRemoteUnavailable", err)
	}
}
