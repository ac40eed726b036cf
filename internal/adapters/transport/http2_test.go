package transport

import (
	"net/http"
	"testing"
	"time"
)

func TestNewClientConfiguresHTTP2(t *testing.T) {
	c, err := NewClient(3 * time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.Timeout != 3*time.Second {
		t.Fatalf("expected timeout 3s, got %s", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("unexpected transport %T", c.Transport)
	}
	if _, ok := tr.TLSNextProto["h2"]; !ok {
		t.Fatalf("expected h2 to be registered on the transport")
	}
}
