package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nileshindira/trading-persona/internal/llm"
	"github.com/nileshindira/trading-persona/internal/store"
)

func TestCompleteParsesChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"  - trade less \n"}}]}`))
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_API_ENDPOINT", srv.URL)

	text, err := NewCompleter(store.DefaultConfig()).Complete(context.Background(), "sys", "prompt")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "- trade less" {
		t.Errorf("Expected trimmed content, got %q", text)
	}
}

func TestCompleteMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewCompleter(store.DefaultConfig()).Complete(context.Background(), "sys", "prompt")
	if !errors.Is(err, llm.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestCompleteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_API_ENDPOINT", srv.URL)

	if _, err := NewCompleter(store.DefaultConfig()).Complete(context.Background(), "sys", "prompt"); err == nil {
		t.Error("Expected error on 429")
	}
}

func TestCompleteRejectedIsNotUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "sk-bad")
	t.Setenv("OPENAI_API_ENDPOINT", srv.URL)

	_, err := NewCompleter(store.DefaultConfig()).Complete(context.Background(), "sys", "prompt")
	if err == nil || errors.Is(err, llm.ErrUnavailable) {
		t.Errorf("Expected a rejection error, got %v", err)
	}
}
