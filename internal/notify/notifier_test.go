package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSender struct {
	name  string
	calls int
	err   error
}

func (f *fakeSender) Send(ctx context.Context, title, message string) error {
	f.calls++
	return f.err
}

func (f *fakeSender) Name() string { return f.name }

func TestNotifyFansOut(t *testing.T) {
	a := &fakeSender{name: "a"}
	b := &fakeSender{name: "b"}
	n := NewNotifier([]Sender{a, b}, nil, discardLogger())

	if err := n.Notify(context.Background(), "arb_detected", "t", "m"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", a.calls, b.calls)
	}
}

func TestNotifyEventFilter(t *testing.T) {
	s := &fakeSender{name: "a"}
	n := NewNotifier([]Sender{s}, []string{"arb_detected"}, discardLogger())

	if err := n.Notify(context.Background(), "heartbeat", "t", "m"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if s.calls != 0 {
		t.Errorf("filtered event reached sender %d times", s.calls)
	}
	if err := n.Notify(context.Background(), "arb_detected", "t", "m"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if s.calls != 1 {
		t.Errorf("allowed event calls = %d, want 1", s.calls)
	}
}

func TestNotifyCollectsSenderErrors(t *testing.T) {
	ok := &fakeSender{name: "ok"}
	bad := &fakeSender{name: "bad", err: errors.New("boom")}
	n := NewNotifier([]Sender{bad, ok}, nil, discardLogger())

	err := n.Notify(context.Background(), "arb_detected", "t", "m")
	if err == nil {
		t.Fatal("expected error from failing sender")
	}
	if !strings.Contains(err.Error(), "bad") {
		t.Errorf("error %q does not name the failing sender", err)
	}
	// The failing sender never blocks the healthy one.
	if ok.calls != 1 {
		t.Errorf("healthy sender calls = %d, want 1", ok.calls)
	}
}

func TestDiscordSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscordSender(srv.URL)
	if err := d.Send(context.Background(), "Arbitrage cycle", "details"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if want := "**Arbitrage cycle**\ndetails"; got["content"] != want {
		t.Errorf("content = %q, want %q", got["content"], want)
	}
}

func TestDiscordSendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad webhook", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("error = %v, want status 400", err)
	}
}
