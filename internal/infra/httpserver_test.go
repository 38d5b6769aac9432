package infra

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestHTTPServerShutdownBeforeStart(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewHTTPServer(base, &Config{Port: "0", HTTPReadTimeout: time.Second}, http.NotFoundHandler())
	if srv.Addr() != ":0" {
		t.Fatalf("Addr = %q", srv.Addr())
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start after shutdown = %v, want nil", err)
	}
}
