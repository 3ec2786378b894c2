package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aTrapDeer/portfolio-admin/internal/content"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL+"/api/v1", 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "not a url", ""} {
		if _, err := New(raw, time.Second); err == nil {
			t.Errorf("Expected error for %q", raw)
		}
	}
}

func TestGetJSONInjectsToken(t *testing.T) {
	var gotAuth, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(content.HeroContent{Name: "Darel"})
	})

	var hero content.HeroContent
	ctx := WithToken(context.Background(), "tok-123")
	if err := client.GetJSON(ctx, "/admin/hero", &hero); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}

	if gotAuth != "Bearer tok-123" {
		t.Errorf("Expected bearer header, got %q", gotAuth)
	}
	if gotPath != "/api/v1/admin/hero" {
		t.Errorf("Expected path under base URL, got %q", gotPath)
	}
	if hero.Name != "Darel" {
		t.Errorf("Expected decoded name, got %q", hero.Name)
	}
}

func TestGetJSONWithoutToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("Expected no Authorization header, got %q", h)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.GetJSON(context.Background(), "/health", nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{name: "error field", status: http.StatusBadRequest, body: `{"error":"title is required"}`, wantMessage: "title is required"},
		{name: "message field", status: http.StatusConflict, body: `{"message":"already exists"}`, wantMessage: "already exists"},
		{name: "error wins over message", status: http.StatusBadRequest, body: `{"error":"a","message":"b"}`, wantMessage: "a"},
		{name: "plain text body", status: http.StatusInternalServerError, body: "boom", wantMessage: ""},
		{name: "empty body", status: http.StatusBadGateway, body: "", wantMessage: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			err := client.SendJSON(context.Background(), http.MethodPatch, "/admin/hero", map[string]string{}, nil)
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *Error, got %v", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, apiErr.Status)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, apiErr.Message)
			}

			want := tt.wantMessage
			if want == "" {
				want = "Update failed."
			}
			if got := MessageOr(err, "Update failed."); got != want {
				t.Errorf("Expected MessageOr %q, got %q", want, got)
			}
		})
	}
}

func TestMessageOrTransportError(t *testing.T) {
	client, err := New("http://127.0.0.1:1", 200*time.Millisecond)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	err = client.Delete(context.Background(), "/admin/about/skills/1")
	if err == nil {
		t.Fatal("Expected transport error")
	}
	if got := MessageOr(err, "Delete failed."); got != "Delete failed." {
		t.Errorf("Expected fallback, got %q", got)
	}
	if IsUnauthorized(err) {
		t.Error("Transport error reported as unauthorized")
	}
}

func TestIsUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Me(context.Background())
	if !IsUnauthorized(err) {
		t.Errorf("Expected unauthorized, got %v", err)
	}
}

func TestUpload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("Expected multipart file field: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "pixels" || header.Filename != "me.png" {
			t.Errorf("Unexpected upload %q %q", header.Filename, data)
		}
		_, _ = io.WriteString(w, `{"url":"https://cdn.example.com/me.png","public_id":"hero/me"}`)
	})

	result, err := client.Upload(context.Background(), "/admin/hero/image", "me.png", strings.NewReader("pixels"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if result.URL != "https://cdn.example.com/me.png" {
		t.Errorf("Expected url, got %q", result.URL)
	}
}

func TestUploadWithoutURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	if _, err := client.Upload(context.Background(), "/admin/hero/image", "x.png", strings.NewReader("x")); err == nil {
		t.Error("Expected error when the media endpoint returns no url")
	}
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Email == "admin@example.com" && req.Password == "secret" {
			_, _ = io.WriteString(w, `{"token":"tok"}`)
			return
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})

	token, err := client.Login(context.Background(), "admin@example.com", "secret")
	if err != nil || token != "tok" {
		t.Errorf("Expected token, got %q, %v", token, err)
	}

	_, err = client.Login(context.Background(), "admin@example.com", "wrong")
	if !IsUnauthorized(err) {
		t.Errorf("Expected unauthorized, got %v", err)
	}
}
