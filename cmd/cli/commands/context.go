package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/internal/config"
	"github.com/jakechorley/ministry-attendance/pkg/clients/apiclient"
	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/utils"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env     string
	Cfg     *config.Config
	Session model.Session
	API     *apiclient.Client
	Logger  *zap.Logger
	Ctx     context.Context
	Now     func() time.Time

	googleClient *http.Client
}

// SessionFromConfig builds the session the console acts as
func SessionFromConfig(cfg *config.Config) model.Session {
	return model.Session{
		IsAuthenticated: cfg.AccessToken != "",
		Role:            model.Role(cfg.Session.Role),
		MemberID:        cfg.Session.MemberID,
		AccessToken:     cfg.AccessToken,
	}
}

// GoogleHTTPClient returns an HTTP client authorized for Sheets and Gmail.
// The browser flow runs at most once per process.
func (a *AppContext) GoogleHTTPClient() (*http.Client, error) {
	if a.googleClient != nil {
		return a.googleClient, nil
	}

	a.Logger.Info("Loading OAuth client configuration")
	oauthCfg, err := config.LoadOAuthClient(a.Cfg, a.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, err
	}

	store, err := utils.NewTokenStore()
	if err != nil {
		return nil, err
	}
	token, err := store.GetToken(a.Ctx, oauthConfig, a.Env, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize with google: %w", err)
	}

	a.googleClient = oauthConfig.Client(a.Ctx, token)
	a.Logger.Debug("Google client authorized")
	return a.googleClient, nil
}
