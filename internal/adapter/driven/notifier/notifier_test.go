package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogNotifier_NeverErrors(t *testing.T) {
	n := NewLogNotifier(nil)
	assert.NoError(t, n.Notify(context.Background(), "daily", "3 succeeded / 0 skipped / 0 failed"))
}

func TestTelegramNotifier_PostsMessageOnSuccess(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifierWithBase("test-token", "12345", srv.URL, &http.Client{Timeout: time.Second})
	err := n.Notify(context.Background(), "daily", "3 succeeded / 0 skipped / 0 failed")

	assert.NoError(t, err)
	assert.Equal(t, "/bottest-token/sendMessage", gotPath)
}

func TestTelegramNotifier_NonOKStatusReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewTelegramNotifierWithBase("t", "c", srv.URL, &http.Client{Timeout: time.Second})
	err := n.Notify(context.Background(), "daily", "failed")
	assert.Error(t, err)
}
