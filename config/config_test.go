package config

import (
	"testing"
	"time"
)

func TestParseOptionsDefaults(t *testing.T) {
	cfg, err := ParseOptions("host=127.0.0.1;port=9000")
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if cfg.Host != "127.0.0.1" || cfg.Port != 9000 {
		t.Fatalf("Host/Port = %s:%d, want 127.0.0.1:9000", cfg.Host, cfg.Port)
	}
	if cfg.Profile != "" {
		t.Fatalf("Profile = %q, want empty (default disables shaping)", cfg.Profile)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("MaxRetries = %d, want the default of 3", cfg.MaxRetries)
	}
}

func TestParseOptionsOverridesEveryField(t *testing.T) {
	s := "host=10.0.0.5;port=4000;profile=gaming;obfuscation=shadowsocks;key=secret;" +
		"reliable=true;ping-interval-ms=1000;peer-timeout-ms=9000;ack-timeout-ms=250;" +
		"max-retries=5;max-packet-size=900"

	cfg, err := ParseOptions(s)
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if cfg.Host != "10.0.0.5" || cfg.Port != 4000 {
		t.Fatalf("Host/Port = %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.Profile != "gaming" {
		t.Fatalf("Profile = %q, want gaming", cfg.Profile)
	}
	if cfg.ObfuscationID != "shadowsocks" || cfg.ObfuscationKey != "secret" {
		t.Fatalf("obfuscation id/key = %q/%q", cfg.ObfuscationID, cfg.ObfuscationKey)
	}
	if !cfg.Reliable {
		t.Fatalf("Reliable = false, want true")
	}
	if cfg.PingInterval != time.Second {
		t.Fatalf("PingInterval = %v, want 1s", cfg.PingInterval)
	}
	if cfg.PeerTimeout != 9*time.Second {
		t.Fatalf("PeerTimeout = %v, want 9s", cfg.PeerTimeout)
	}
	if cfg.AckTimeout != 250*time.Millisecond {
		t.Fatalf("AckTimeout = %v, want 250ms", cfg.AckTimeout)
	}
	if cfg.MaxRetries != 5 {
		t.Fatalf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.MaxPacketSize != 900 {
		t.Fatalf("MaxPacketSize = %d, want 900", cfg.MaxPacketSize)
	}
}

func TestParseOptionsRejectsMalformedPort(t *testing.T) {
	if _, err := ParseOptions("host=127.0.0.1;port=not-a-number"); err == nil {
		t.Fatalf("expected an error for a non-numeric port")
	}
}

func TestParseOptionsRejectsMalformedOptionString(t *testing.T) {
	if _, err := ParseOptions("this is not key=value formatted;;;="); err == nil {
		t.Fatalf("expected goptlib to reject a malformed option string")
	}
}

func TestParseOptionsIgnoresUnknownKeys(t *testing.T) {
	cfg, err := ParseOptions("host=127.0.0.1;port=1;nonsense=1")
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if cfg.Host != "127.0.0.1" {
		t.Fatalf("Host = %q", cfg.Host)
	}
}
