package xadmit

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtract_PeerAddress(t *testing.T) {
	e, err := NewClientKeyExtractor()
	if err != nil {
		t.Fatalf("NewClientKeyExtractor failed: %v", err)
	}

	r := httptest.NewRequest("POST", "/generate", nil)
	r.RemoteAddr = "203.0.113.7:54321"
	r.Header.Set("User-Agent", "curl/8.0")

	if got := e.Extract(r); got != "203.0.113.7:curl/8.0" {
		t.Errorf("Extract = %q, want 203.0.113.7:curl/8.0", got)
	}
}

func TestExtract_ForwardedForIgnoredFromUntrustedPeer(t *testing.T) {
	e, _ := NewClientKeyExtractor()

	r := httptest.NewRequest("POST", "/generate", nil)
	r.RemoteAddr = "203.0.113.7:54321"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")

	if got := e.Extract(r); !strings.HasPrefix(got, "203.0.113.7:") {
		t.Errorf("untrusted XFF must not override peer, got %q", got)
	}
}

func TestExtract_ForwardedForHonoredFromTrustedProxy(t *testing.T) {
	e, err := NewClientKeyExtractor(WithTrustedProxies("10.0.0.0/8"))
	if err != nil {
		t.Fatalf("NewClientKeyExtractor failed: %v", err)
	}

	r := httptest.NewRequest("POST", "/generate", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.1, 10.1.2.3")

	if got := e.Extract(r); !strings.HasPrefix(got, "198.51.100.1:") {
		t.Errorf("trusted proxy XFF should win, got %q", got)
	}
}

func TestExtract_BadForwardedForFallsBack(t *testing.T) {
	e, _ := NewClientKeyExtractor(WithTrustedProxies("10.0.0.0/8"))

	r := httptest.NewRequest("POST", "/generate", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("X-Forwarded-For", "not-an-ip")

	if got := e.Extract(r); !strings.HasPrefix(got, "10.1.2.3:") {
		t.Errorf("unparseable XFF should fall back to peer, got %q", got)
	}
}

func TestExtract_UserAgentTruncated(t *testing.T) {
	e, _ := NewClientKeyExtractor(WithUserAgentLimit(10))

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:1"
	r.Header.Set("User-Agent", strings.Repeat("x", 100))

	got := e.Extract(r)
	if want := "203.0.113.7:" + strings.Repeat("x", 10); got != want {
		t.Errorf("Extract = %q, want %q", got, want)
	}
}

func TestExtract_MissingUserAgent(t *testing.T) {
	e, _ := NewClientKeyExtractor()

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:1"
	r.Header.Del("User-Agent")

	if got := e.Extract(r); got != "203.0.113.7:unknown" {
		t.Errorf("Extract = %q, want 203.0.113.7:unknown", got)
	}
}

func TestExtract_NilRequest(t *testing.T) {
	e, _ := NewClientKeyExtractor()
	if got := e.Extract(nil); got != "unknown:unknown" {
		t.Errorf("Extract(nil) = %q", got)
	}
}

func TestNewClientKeyExtractor_BadCIDR(t *testing.T) {
	if _, err := NewClientKeyExtractor(WithTrustedProxies("300.300.0.0/8")); err == nil {
		t.Fatal("invalid CIDR should be rejected")
	}
}
