package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scentshop/internal/config"
)

func TestSendWhatsAppPostsTextMessage(t *testing.T) {
	var got whatsAppTextMessage
	var auth, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer server.Close()

	svc := NewWhatsAppService(&config.WhatsAppConfig{
		Enabled:       true,
		APIBase:       server.URL + "/v19.0/",
		PhoneNumberID: "12345",
		AccessToken:   "token",
	})
	if err := svc.SendWhatsApp(context.Background(), "+92 300-1234567", "New order"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if path != "/v19.0/12345/messages" || auth != "Bearer token" {
		t.Fatalf("unexpected request path=%s auth=%s", path, auth)
	}
	if got.To != "923001234567" || got.Text.Body != "New order" || got.MessagingProduct != "whatsapp" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestSendWhatsAppErrors(t *testing.T) {
	if err := NewWhatsAppService(nil).SendWhatsApp(context.Background(), "1", "x"); !errors.Is(err, ErrWhatsAppDisabled) {
		t.Fatalf("expected disabled, got %v", err)
	}
	svc := NewWhatsAppService(&config.WhatsAppConfig{Enabled: true, APIBase: "http://x"})
	if err := svc.SendWhatsApp(context.Background(), "1", "x"); !errors.Is(err, ErrWhatsAppNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()
	failing := NewWhatsAppService(&config.WhatsAppConfig{Enabled: true, APIBase: server.URL, PhoneNumberID: "1", AccessToken: "t"})
	if err := failing.SendWhatsApp(context.Background(), "123", "x"); err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
}
