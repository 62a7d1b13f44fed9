package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rostersync/internal/config"
)

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	service := NewService(config.Notifications{})
	if !IsNoop(service) {
		t.Fatal("empty topic should yield the noop service")
	}
	if err := service.TestNotification(context.Background()); err != nil {
		t.Fatalf("noop must never fail: %v", err)
	}
}

func TestNtfyPostsToServerTopic(t *testing.T) {
	type captured struct {
		path     string
		title    string
		priority string
		body     string
	}
	got := make(chan captured, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- captured{
			path:     r.URL.Path,
			title:    r.Header.Get("Title"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		}
	}))
	defer server.Close()

	service := NewService(config.Notifications{
		NtfyServer:            server.URL,
		NtfyTopic:             "rostersync-alerts",
		RequestTimeoutSeconds: 5,
	})

	if err := service.NotifyAuditReport(context.Background(), 3, []string{"faker", "chovy"}); err != nil {
		t.Fatalf("NotifyAuditReport: %v", err)
	}

	req := <-got
	if req.path != "/rostersync-alerts" {
		t.Fatalf("path = %q", req.path)
	}
	if req.title != "Rostersync - Unresolved Records" {
		t.Fatalf("title = %q", req.title)
	}
	if !strings.Contains(req.body, "3 roster records") || !strings.Contains(req.body, "faker, chovy") {
		t.Fatalf("body = %q", req.body)
	}
}

func TestNtfyErrorNotificationIsHighPriority(t *testing.T) {
	got := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("Priority")
	}))
	defer server.Close()

	service := NewService(config.Notifications{NtfyServer: server.URL, NtfyTopic: "t"})
	if err := service.NotifyError(context.Background(), io.ErrUnexpectedEOF, "sweep"); err != nil {
		t.Fatal(err)
	}
	if priority := <-got; priority != "high" {
		t.Fatalf("priority = %q", priority)
	}
}

func TestNtfyNonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	service := NewService(config.Notifications{NtfyServer: server.URL, NtfyTopic: "t"})
	if err := service.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
