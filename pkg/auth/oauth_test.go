package auth

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const testCredentials = `{"installed":{
	"client_id":"id.apps.googleusercontent.com",
	"client_secret":"shh",
	"auth_uri":"https://accounts.google.com/o/oauth2/auth",
	"token_uri":"https://oauth2.googleapis.com/token",
	"redirect_uris":["http://localhost"]
}}`

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestLocalRedirect(t *testing.T) {
	log := quietLogger()
	cases := map[string]string{
		"http://localhost":               "http://localhost:6789",
		"http://127.0.0.1:8080/callback": "http://127.0.0.1:6789/callback",
		"urn:ietf:wg:oauth:2.0:oob":      "http://localhost:6789/oauth2callback",
		"https://example.com/cb":         "https://example.com/cb",
	}
	for in, want := range cases {
		if got := localRedirect(in, log); got != want {
			t.Errorf("localRedirect(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestGetClientUsesStoredToken(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ClientSecretsFile), []byte(testCredentials), 0600); err != nil {
		t.Fatal(err)
	}
	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}
	if err := saveToken(filepath.Join(dir, TokenFile), tok); err != nil {
		t.Fatalf("saveToken failed: %v", err)
	}

	client, err := GetClient(context.Background(), dir, []string{"scope"}, quietLogger())
	if err != nil {
		t.Fatalf("GetClient failed: %v", err)
	}
	if client == nil {
		t.Fatal("Expected client")
	}

	if err := RemoveToken(dir); err != nil {
		t.Fatalf("RemoveToken failed: %v", err)
	}
	if _, err := tokenFromFile(filepath.Join(dir, TokenFile)); err == nil {
		t.Error("Expected token file to be gone")
	}
	if err := RemoveToken(dir); err != nil {
		t.Errorf("Expected RemoveToken on missing file to succeed, got %v", err)
	}
}

func TestGetConfigMissingSecrets(t *testing.T) {
	if _, err := GetConfig(t.TempDir(), nil, quietLogger()); err == nil {
		t.Error("Expected error for missing credentials file")
	}
}
