package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"pageguard/internal/logging"
	"pageguard/internal/types"
)

const remoteTimeout = 30 * time.Second

// RemoteBackend talks to the remote database collaborator over its REST
// interface: select/insert/delete on the users, logs, and analysis_history
// tables, each returning data or a { "message": ... } error body. Transport
// and server failures wrap ErrRemoteUnavailable so callers can degrade.
type RemoteBackend struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewRemoteBackend creates a client for the configured remote database.
func NewRemoteBackend(baseURL, apiKey string) *RemoteBackend {
	return &RemoteBackend{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: remoteTimeout,
		},
	}
}

// Row shapes of the remote tables (snake_case on the wire).

type remoteUser struct {
	ID        string    `json:"id,omitempty"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type remoteLog struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type remoteSession struct {
	ID           string          `json:"id,omitempty"`
	UserID       string          `json:"user_id"`
	ProjectName  string          `json:"project_name"`
	ReferenceURL string          `json:"reference_url"`
	Results      json.RawMessage `json:"results"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
}

type remoteError struct {
	Message string `json:"message"`
}

// do executes one REST call and decodes the response into out (may be nil
// for deletes).
func (r *RemoteBackend) do(ctx context.Context, method, table string, query url.Values, payload, out any) error {
	u := fmt.Sprintf("%s/rest/v1/%s", r.baseURL, table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrRemoteUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var remoteErr remoteError
		_ = json.Unmarshal(respBody, &remoteErr)
		msg := remoteErr.Message
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		logging.StoreError("remote %s %s failed: %s", method, table, msg)
		return fmt.Errorf("%w: %s", ErrRemoteUnavailable, msg)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrRemoteUnavailable, err)
		}
	}
	return nil
}

func (r *RemoteBackend) selectRows(ctx context.Context, table string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("select", "*")
	return r.do(ctx, http.MethodGet, table, query, nil, out)
}

func (r *RemoteBackend) RegisterUser(ctx context.Context, email, name string) (*types.User, error) {
	var existing []remoteUser
	q := url.Values{"email": {"eq." + email}}
	if err := r.selectRows(ctx, "users", q, &existing); err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrUserExists
	}

	var inserted []remoteUser
	if err := r.do(ctx, http.MethodPost, "users", nil, []remoteUser{{Email: email, Name: name}}, &inserted); err != nil {
		return nil, err
	}
	if len(inserted) == 0 {
		return nil, fmt.Errorf("%w: insert returned no row", ErrRemoteUnavailable)
	}
	u := inserted[0]
	return &types.User{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}, nil
}

func (r *RemoteBackend) LoginUser(ctx context.Context, email string) (*types.User, error) {
	var rows []remoteUser
	q := url.Values{"email": {"eq." + email}}
	if err := r.selectRows(ctx, "users", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrUserNotFound
	}
	u := rows[0]
	return &types.User{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}, nil
}

func (r *RemoteBackend) AddLog(ctx context.Context, userID, userName, action, details string) error {
	entry := []remoteLog{{UserID: userID, UserName: userName, Action: action, Details: details}}
	return r.do(ctx, http.MethodPost, "logs", nil, entry, nil)
}

func (r *RemoteBackend) Logs(ctx context.Context) ([]types.LogEntry, error) {
	var rows []remoteLog
	q := url.Values{"order": {"created_at.desc"}}
	if err := r.selectRows(ctx, "logs", q, &rows); err != nil {
		return nil, err
	}
	entries := make([]types.LogEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, types.LogEntry{
			ID:        row.ID,
			UserID:    row.UserID,
			UserName:  row.UserName,
			Action:    row.Action,
			Details:   row.Details,
			Timestamp: row.CreatedAt,
		})
	}
	return entries, nil
}

func (r *RemoteBackend) SaveSession(ctx context.Context, session types.AnalysisSession) (*types.AnalysisSession, error) {
	results, err := json.Marshal(session.Results)
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	payload := []remoteSession{{
		UserID:       session.UserID,
		ProjectName:  session.ProjectName,
		ReferenceURL: session.ReferenceURL,
		Results:      results,
	}}

	var inserted []remoteSession
	if err := r.do(ctx, http.MethodPost, "analysis_history", nil, payload, &inserted); err != nil {
		return nil, err
	}
	if len(inserted) == 0 {
		return nil, fmt.Errorf("%w: insert returned no row", ErrRemoteUnavailable)
	}
	session.ID = inserted[0].ID
	session.Timestamp = inserted[0].CreatedAt
	return &session, nil
}

func (r *RemoteBackend) History(ctx context.Context, userID string) ([]types.AnalysisSession, error) {
	var rows []remoteSession
	q := url.Values{
		"user_id": {"eq." + userID},
		"order":   {"created_at.desc"},
	}
	if err := r.selectRows(ctx, "analysis_history", q, &rows); err != nil {
		return nil, err
	}

	sessions := make([]types.AnalysisSession, 0, len(rows))
	for _, row := range rows {
		s := types.AnalysisSession{
			ID:           row.ID,
			UserID:       row.UserID,
			ProjectName:  row.ProjectName,
			ReferenceURL: row.ReferenceURL,
			Timestamp:    row.CreatedAt,
		}
		if err := json.Unmarshal(row.Results, &s.Results); err != nil {
			return nil, fmt.Errorf("unmarshal results for %s: %w", s.ID, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (r *RemoteBackend) DeleteHistory(ctx context.Context, id string) error {
	q := url.Values{"id": {"eq." + id}}
	return r.do(ctx, http.MethodDelete, "analysis_history", q, nil, nil)
}

func (r *RemoteBackend) ClearHistory(ctx context.Context, userID string) error {
	q := url.Values{"user_id": {"eq." + userID}}
	return r.do(ctx, http.MethodDelete, "analysis_history", q, nil, nil)
}

// Close is a no-op; the remote backend holds no resources beyond the shared
// HTTP client.
func (r *RemoteBackend) Close() error { return nil }
