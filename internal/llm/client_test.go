package llm

import (
	"errors"
	"net/http"
	"testing"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"missing key", Config{Provider: ProviderGemini}, ErrMissingCredential},
		{"unknown provider", Config{Provider: "anthropic", APIKey: "k"}, ErrUnsupportedProvider},
		{"openai ok", Config{Provider: ProviderOpenAI, APIKey: "k"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewClient error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient failed: %v", err)
			}
			if client == nil {
				t.Fatal("NewClient returned nil client")
			}
		})
	}
}

func TestParseCompareResult(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantKind ErrorKind
		wantN    int
		wantOK   bool
	}{
		{
			name:   "valid",
			text:   `{"complianceScore": 85, "discrepancies": [{"field": "Price", "severity": "CRITICAL"}]}`,
			wantN:  1,
			wantOK: true,
		},
		{
			name:   "null discrepancies become empty slice",
			text:   `{"complianceScore": 100, "discrepancies": null}`,
			wantN:  0,
			wantOK: true,
		},
		{
			name:   "fenced json",
			text:   "```json\n{\"complianceScore\": 90, \"discrepancies\": []}\n```",
			wantN:  0,
			wantOK: true,
		},
		{
			name:     "empty",
			text:     "   ",
			wantKind: KindEmptyResponse,
		},
		{
			name:     "prose instead of json",
			text:     "I could not compare these documents.",
			wantKind: KindMalformedResponse,
		},
		{
			name:     "score above range",
			text:     `{"complianceScore": 140, "discrepancies": []}`,
			wantKind: KindMalformedResponse,
		},
		{
			name:     "negative score",
			text:     `{"complianceScore": -5, "discrepancies": []}`,
			wantKind: KindMalformedResponse,
		},
		{
			name:     "discrepancy missing field",
			text:     `{"complianceScore": 50, "discrepancies": [{"severity": "MAJOR"}]}`,
			wantKind: KindMalformedResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseCompareResult(tt.text)
			if !tt.wantOK {
				var llmErr *Error
				if !errors.As(err, &llmErr) {
					t.Fatalf("expected *Error, got %v", err)
				}
				if llmErr.Kind != tt.wantKind {
					t.Fatalf("kind = %s, want %s", llmErr.Kind, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCompareResult failed: %v", err)
			}
			if result.Discrepancies == nil {
				t.Fatal("discrepancies must never be nil on success")
			}
			if len(result.Discrepancies) != tt.wantN {
				t.Fatalf("got %d discrepancies, want %d", len(result.Discrepancies), tt.wantN)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		code int
		msg  string
		want ErrorKind
	}{
		{"401", http.StatusUnauthorized, "", KindInvalidCredential},
		{"403", http.StatusForbidden, "", KindInvalidCredential},
		{"429", http.StatusTooManyRequests, "", KindRateLimited},
		{"500", http.StatusInternalServerError, "", KindProviderUnavailable},
		{"503", http.StatusServiceUnavailable, "", KindProviderUnavailable},
		{"status wins over message", http.StatusTooManyRequests, "api key not valid", KindRateLimited},
		{"message fallback: key", 0, "API key not valid. Please pass a valid API key.", KindInvalidCredential},
		{"message fallback: quota", 0, "You exceeded your current quota", KindRateLimited},
		{"message fallback: overloaded", 0, "The model is overloaded", KindProviderUnavailable},
		{"unclassifiable", 0, "something odd happened", KindProviderError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.code, tt.msg); got != tt.want {
				t.Fatalf("classify(%d, %q) = %s, want %s", tt.code, tt.msg, got, tt.want)
			}
		})
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := wrapError(KindRateLimited, "slow down", errors.New("429"))
	if !errors.Is(err, ErrRateLimited) {
		t.Fatal("errors.Is must match on kind")
	}
	if errors.Is(err, ErrInvalidCredential) {
		t.Fatal("errors.Is must not match a different kind")
	}
}
