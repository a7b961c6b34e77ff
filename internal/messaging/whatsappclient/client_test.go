package whatsappclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(Config{PhoneNumberID: "123"}); err == nil {
		t.Error("expected error for missing access token")
	}
	if _, err := New(Config{AccessToken: "token"}); err == nil {
		t.Error("expected error for missing phone number id")
	}
}

func TestSendText(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","contacts":[{"input":"15551234567","wa_id":"15551234567"}],"messages":[{"id":"wamid.out1"}]}`))
	}))
	defer srv.Close()

	client, err := New(Config{
		BaseURL:       srv.URL,
		AccessToken:   "token",
		PhoneNumberID: "10001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := client.SendText(context.Background(), "15551234567", "Hello!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.MessageID() != "wamid.out1" {
		t.Errorf("expected message id wamid.out1, got %q", resp.MessageID())
	}
	if gotPath != "/10001/messages" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer token" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if gotBody["messaging_product"] != "whatsapp" {
		t.Errorf("unexpected payload %v", gotBody)
	}
	if text, ok := gotBody["text"].(map[string]any); !ok || text["body"] != "Hello!" {
		t.Errorf("unexpected text payload %v", gotBody["text"])
	}
}

func TestSendTextDecodesGraphError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190,"fbtrace_id":"abc"}}`))
	}))
	defer srv.Close()

	client, _ := New(Config{BaseURL: srv.URL, AccessToken: "bad", PhoneNumberID: "10001"})

	_, err := client.SendText(context.Background(), "15551234567", "Hello!")
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	apiErr, ok := err.(*apiError)
	if !ok {
		t.Fatalf("expected *apiError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Code != 190 {
		t.Errorf("unexpected api error %+v", apiErr)
	}
}

func TestSendTextValidatesInput(t *testing.T) {
	client, _ := New(Config{AccessToken: "token", PhoneNumberID: "10001"})

	if _, err := client.SendText(context.Background(), "", "hi"); err == nil {
		t.Error("expected error for empty recipient")
	}
	if _, err := client.SendText(context.Background(), "15551234567", ""); err == nil {
		t.Error("expected error for empty body")
	}
}
