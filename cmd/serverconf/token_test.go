package main

import (
	"strings"
	"testing"

	"github.com/signald/serverconf/internal/auth"
)

func TestTokenCommand(t *testing.T) {
	setupCLI(t)
	t.Setenv("SERVERCONF_AUTH_JWT_SECRET", "cli-test-secret")
	t.Cleanup(func() {
		tokenSubject = "cli"
		tokenTTL = 0
	})

	out, err := execute(t, "token", "--subject", "deploy-bot", "--ttl", "1h")
	if err != nil {
		t.Fatalf("token failed: %v", err)
	}

	authenticator, err := auth.NewTokenAuthenticator("cli-test-secret")
	if err != nil {
		t.Fatal(err)
	}
	subject, err := authenticator.Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if subject != "deploy-bot" {
		t.Errorf("subject = %q, want deploy-bot", subject)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "serverconf version "+Version) {
		t.Errorf("version output = %q", out)
	}
}
