package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/signald/serverconf/internal/protocol"
)

func TestResolveOutput(t *testing.T) {
	tests := []struct {
		flag    string
		tty     bool
		want    string
		wantErr bool
	}{
		{"", true, outputTable, false},
		{"", false, outputJSON, false},
		{"table", false, outputTable, false},
		{"JSON", true, outputJSON, false},
		{"yaml", true, "", true},
	}

	for _, tt := range tests {
		got, err := resolveOutput(tt.flag, tt.tty)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveOutput(%q, %v) error = %v, wantErr %v", tt.flag, tt.tty, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("resolveOutput(%q, %v) = %q, want %q", tt.flag, tt.tty, got, tt.want)
		}
	}
}

func TestWriteServerTable(t *testing.T) {
	proxy := "proxy.example.org:443"
	servers := []protocol.ServerConfig{
		{
			UUID:       uuid.MustParse("97c17f0c-e53b-426f-8ffa-95052d4e0a01"),
			ServiceURL: "https://chat.signal.org",
			CDNURLs:    []protocol.ServerCDN{{Number: 0, URL: "https://cdn.signal.org"}, {Number: 2, URL: "https://cdn2.signal.org"}},
			Proxy:      &proxy,
		},
		{
			UUID:       uuid.MustParse("3ea8bb4e-2a44-4e0e-9a0e-0e8f4b0a55a2"),
			ServiceURL: "https://chat.staging.signal.org",
		},
	}

	var buf bytes.Buffer
	if err := writeServerTable(&buf, servers); err != nil {
		t.Fatalf("writeServerTable failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "UUID") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "proxy.example.org:443") || !strings.Contains(lines[1], " 2 ") {
		t.Errorf("first row = %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "-") {
		t.Errorf("row without proxy should end with a dash: %q", lines[2])
	}
}

func TestWriteServerDetail_HidesBinaryValues(t *testing.T) {
	ca := "c2VjcmV0LXRydXN0c3RvcmU="
	server := protocol.ServerConfig{
		UUID:       uuid.MustParse("97c17f0c-e53b-426f-8ffa-95052d4e0a01"),
		ServiceURL: "https://chat.signal.org",
		CA:         &ca,
	}

	var buf bytes.Buffer
	if err := writeServerDetail(&buf, server); err != nil {
		t.Fatalf("writeServerDetail failed: %v", err)
	}
	out := buf.String()

	if strings.Contains(out, ca) {
		t.Error("detail output should not print binary values")
	}
	for _, want := range []string{"Service URL:", "https://chat.signal.org", "CA:", "set", "IAS CA:", "unset"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
