package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jakechorley/ministry-attendance/internal/config"
)

const (
	AuthPort       = 3000
	authTimeout    = 5 * time.Minute
	callbackPath   = "/oauth/callback"
	tokenDirName   = ".ministry-attendance/tokens"
	tokenFilePerms = 0600
	tokenDirPerms  = 0700
	tokenInfoURL   = "https://oauth2.googleapis.com/tokeninfo"
)

// OAuth scopes for the Google APIs used by exports and reminders
const (
	ScopeSheets    = "https://www.googleapis.com/auth/spreadsheets"
	ScopeGmailSend = "https://www.googleapis.com/auth/gmail.send"
)

// RequiredScopes are requested together so one token serves both clients
var RequiredScopes = []string{ScopeSheets, ScopeGmailSend}

// TokenStore persists one Google token per environment
type TokenStore struct {
	Dir string

	mu     sync.Mutex
	cached map[string]*oauth2.Token
}

// NewTokenStore returns a store rooted at ~/.ministry-attendance/tokens
func NewTokenStore() (*TokenStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &TokenStore{Dir: filepath.Join(homeDir, tokenDirName)}, nil
}

func (s *TokenStore) path(env string) string {
	if env == "" {
		env = "default"
	}
	return filepath.Join(s.Dir, fmt.Sprintf("token-%s.json", env))
}

// Load returns nil without error when no token was saved yet
func (s *TokenStore) Load(env string) (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path(env))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}

func (s *TokenStore) Save(env string, token *oauth2.Token) error {
	if err := os.MkdirAll(s.Dir, tokenDirPerms); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(s.path(env), data, tokenFilePerms); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (s *TokenStore) Delete(env string) error {
	if err := os.Remove(s.path(env)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// GetOAuthConfig builds the installed-app OAuth config with a local redirect
func GetOAuthConfig(oauthCfg *config.OAuthClientConfig) (*oauth2.Config, error) {
	raw, err := json.Marshal(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal oauth config: %w", err)
	}

	googleConfig, err := google.ConfigFromJSON(raw, RequiredScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google config: %w", err)
	}
	googleConfig.RedirectURL = fmt.Sprintf("http://localhost:%d%s", AuthPort, callbackPath)

	return googleConfig, nil
}

// MissingScopes lists the required scopes absent from a space separated grant
func MissingScopes(granted string) []string {
	have := strings.Fields(granted)
	var missing []string
	for _, required := range RequiredScopes {
		if !slices.Contains(have, required) {
			missing = append(missing, required)
		}
	}
	return missing
}

func validateTokenScopes(ctx context.Context, token *oauth2.Token) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenInfoURL+"?access_token="+token.AccessToken, nil)
	if err != nil {
		return fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call tokeninfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("tokeninfo request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info struct {
		Scope string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if missing := MissingScopes(info.Scope); len(missing) > 0 {
		return fmt.Errorf("token is missing required scopes: %v", missing)
	}
	return nil
}

// GetToken returns a usable Google token for env. It reuses the saved token,
// refreshes it when expired and otherwise runs the browser authorization flow.
func (s *TokenStore) GetToken(ctx context.Context, oauthConfig *oauth2.Config, env string, logger *zap.Logger) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t := s.cached[env]; t != nil && t.Valid() {
		return t, nil
	}

	saved, err := s.Load(env)
	if err != nil {
		logger.Warn("Failed to load saved token", zap.Error(err))
	}

	if saved != nil {
		token := saved
		if !saved.Valid() && saved.RefreshToken != "" {
			token, err = oauthConfig.TokenSource(ctx, saved).Token()
			if err != nil {
				logger.Warn("Failed to refresh token", zap.Error(err))
				token = nil
			}
		}

		if token != nil && token.Valid() {
			if err := validateTokenScopes(ctx, token); err != nil {
				logger.Warn("Saved token rejected, starting new authorization", zap.Error(err))
				_ = s.Delete(env)
			} else {
				if token.AccessToken != saved.AccessToken {
					if err := s.Save(env, token); err != nil {
						logger.Warn("Failed to save refreshed token", zap.Error(err))
					}
				}
				s.remember(env, token)
				return token, nil
			}
		}
	}

	authURL := oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOffline)
	fmt.Printf("\nVisit this URL to authorize the application:\n%s\n\n", authURL)

	code, err := listenForAuthCallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	if err := validateTokenScopes(ctx, token); err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if err := s.Save(env, token); err != nil {
		logger.Warn("Failed to save token", zap.Error(err))
	}

	s.remember(env, token)
	return token, nil
}

func (s *TokenStore) remember(env string, token *oauth2.Token) {
	if s.cached == nil {
		s.cached = make(map[string]*oauth2.Token)
	}
	s.cached[env] = token
}

// listenForAuthCallback serves the redirect target until a code arrives
func listenForAuthCallback(ctx context.Context) (string, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			errCh <- fmt.Errorf("no authorization code received")
			return
		}
		fmt.Fprint(w, "Authorization successful. You can close this window.")
		codeCh <- code
	})

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", AuthPort))
	if err != nil {
		return "", fmt.Errorf("failed to listen for callback: %w", err)
	}
	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	select {
	case code := <-codeCh:
		return code, nil
	case err := <-errCh:
		return "", err
	case <-timeoutCtx.Done():
		return "", fmt.Errorf("authorization timeout after %v", authTimeout)
	}
}
