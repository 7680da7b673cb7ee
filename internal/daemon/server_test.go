package daemon

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestHTTPServerTimeouts(t *testing.T) {
	srv := newHTTPServer(context.Background(), http.NotFoundHandler())
	if srv.ReadHeaderTimeout != 5*time.Second {
		t.Fatalf("unexpected read header timeout %v", srv.ReadHeaderTimeout)
	}
	if srv.ReadTimeout != readTimeout {
		t.Fatalf("expected read timeout %v, got %v", readTimeout, srv.ReadTimeout)
	}
	if srv.WriteTimeout != 0 {
		t.Fatalf("write timeout must stay unset for long classify runs, got %v", srv.WriteTimeout)
	}
	if srv.IdleTimeout != 60*time.Second {
		t.Fatalf("unexpected idle timeout %v", srv.IdleTimeout)
	}
}
