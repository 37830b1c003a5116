package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// ClientSecretsFile is the Google API credentials file, looked up in the
	// config directory.
	ClientSecretsFile = "credentials.json"

	// TokenFile holds the user's access and refresh token.
	TokenFile = "token.json"

	// LocalhostAuthPort receives the OAuth redirect.
	LocalhostAuthPort = "6789"

	xdgAppName = "tasknotes"
)

// GetXdgHome returns ~/.config/tasknotes.
func GetXdgHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

// GetConfig reads the client secrets from dir and forces the redirect onto
// the local callback port.
func GetConfig(dir string, scopes []string, log logrus.FieldLogger) (*oauth2.Config, error) {
	clientSecretsFile := filepath.Join(dir, ClientSecretsFile)
	b, err := os.ReadFile(clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", clientSecretsFile, err)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = localRedirect(config.RedirectURL, log)
	return config, nil
}

func localRedirect(redirect string, log logrus.FieldLogger) string {
	if redirect == "urn:ietf:wg:oauth:2.0:oob" || redirect == "" {
		return fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
	}
	parsed, err := url.Parse(redirect)
	if err != nil {
		log.WithError(err).Warnf("could not parse RedirectURL '%s', using it as is", redirect)
		return redirect
	}
	if parsed.Hostname() != "localhost" && parsed.Hostname() != "127.0.0.1" {
		log.Warnf("RedirectURL in %s is not a localhost callback: %s", ClientSecretsFile, redirect)
		return redirect
	}
	if parsed.Port() != LocalhostAuthPort {
		parsed.Host = net.JoinHostPort(parsed.Hostname(), LocalhostAuthPort)
	}
	return parsed.String()
}

// GetClient returns an authenticated *http.Client. It reuses the stored
// token, which oauth2 refreshes on demand, or runs the browser flow when no
// token exists yet.
func GetClient(ctx context.Context, dir string, scopes []string, log logrus.FieldLogger) (*http.Client, error) {
	config, err := GetConfig(dir, scopes, log)
	if err != nil {
		return nil, err
	}

	tokenFile := filepath.Join(dir, TokenFile)
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		log.Infof("No existing token found at %s. Initiating web authorization flow...", tokenFile)
		tok, err = getTokenFromWeb(config, log)
		if err != nil {
			return nil, fmt.Errorf("failed to get token from web: %w", err)
		}
		if err := saveToken(tokenFile, tok); err != nil {
			return nil, err
		}
	}

	src := config.TokenSource(ctx, tok)
	current, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if current.AccessToken != tok.AccessToken || current.RefreshToken != tok.RefreshToken {
		log.Info("Token was refreshed. Saving new token to file.")
		if err := saveToken(tokenFile, current); err != nil {
			log.WithError(err).Warn("could not save refreshed token")
		}
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(current, src)), nil
}

// RemoveToken deletes the stored token so the next GetClient starts over.
func RemoveToken(dir string) error {
	err := os.Remove(filepath.Join(dir, TokenFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// getTokenFromWeb runs the authorization code flow through a local server.
func getTokenFromWeb(config *oauth2.Config, log logrus.FieldLogger) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", LocalhostAuthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				errCh <- fmt.Errorf("authorization code not found in redirect URL")
				return
			}
			fmt.Fprintf(w, "Authentication successful! You can close this window.")
			codeCh <- code
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		log.Infof("Local server listening on %s for OAuth2 redirect...", config.RedirectURL)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// AccessTypeOffline makes Google return a refresh token.
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Please open the following URL in your browser to authorize tasknotes:\n%s\n", authURL)
	log.Info("Waiting for authorization code...")

	select {
	case authCode := <-codeCh:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(ctx, authCode)
		server.Shutdown(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		server.Shutdown(context.Background())
		return nil, err
	case <-time.After(5 * time.Minute):
		server.Shutdown(context.Background())
		return nil, fmt.Errorf("authorization timed out. Please try again")
	}
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
