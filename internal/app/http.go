package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"taskmarket-client/internal/auth"
	"taskmarket-client/internal/auth/oauth"
	"taskmarket-client/internal/backend"
	"taskmarket-client/internal/config"
	"taskmarket-client/internal/logger"
	"taskmarket-client/internal/session"
	"taskmarket-client/internal/web"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {
	kv, cleanup, err := setupStorage(cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	sessions := session.NewStore(kv)
	if err := sessions.Load(ctx); err != nil {
		return nil, nil, err
	}
	logger.Info("session restored", map[string]any{
		"authenticated": sessions.Authenticated(),
	})

	api := backend.New(cfg.BackendBaseURL, func() string {
		return sessions.Current().Token
	})

	provider, err := oauth.NewGoogleProvider(ctx, cfg.GoogleClientID, cfg.GoogleRedirectURL)
	if err != nil {
		// Discovery needs the network; fall back to the fixed endpoints so
		// the app still starts offline.
		logger.Warn("google oidc discovery failed, using static endpoints", map[string]any{
			"error": err.Error(),
		})
		provider, err = oauth.NewStaticGoogleProvider(cfg.GoogleClientID, cfg.GoogleRedirectURL)
		if err != nil {
			return nil, nil, err
		}
	}

	flow := oauth.NewFlow(provider, oauth.NewStateSlot(kv), sessions, api)
	orchestrator := auth.NewOrchestrator(api, sessions)

	handler := web.NewHandler(
		flow,
		provider,
		orchestrator,
		sessions,
		api,
		kv,
		cfg.DefaultLanguage,
	)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	handler.RegisterRoutes(router)

	return router, cleanup, nil
}
