package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/itchan-dev/foro/frontend/internal/apiclient"
	"github.com/itchan-dev/foro/frontend/internal/handler"
	"github.com/itchan-dev/foro/frontend/internal/markdown"
	"github.com/itchan-dev/foro/frontend/internal/middleware"
	"github.com/itchan-dev/foro/frontend/internal/realtime"
	"github.com/itchan-dev/foro/frontend/internal/replytree"
	"github.com/itchan-dev/foro/frontend/templates"
	"github.com/itchan-dev/foro/shared/config"
	"github.com/itchan-dev/foro/shared/jwt"
	mw "github.com/itchan-dev/foro/shared/middleware"
	"github.com/itchan-dev/foro/shared/middleware/ratelimiter"
)

const sessionTTL = 30 * 24 * time.Hour

type Dependencies struct {
	Handler *handler.Handler
	Auth    *middleware.Auth
	Public  config.Public
	Hub     *realtime.Hub
	// Realtime is nil when no broadcast channel is configured; events then
	// only reach pages served by this process.
	Realtime     *realtime.Client
	ReplyLimiter *ratelimiter.UserRateLimiter
}

func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	public := cfg.Public

	tmpls, err := templates.Load(templates.FS)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	client := apiclient.New(public.Gateway.BaseURL, public.Gateway.Timeout, apiclient.RetryPolicy{
		MaxAttempts: public.Gateway.RetryAttempts,
		Step:        public.Gateway.RetryStep,
	})
	fetcher := replytree.NewFetcher(client, public.Replies.NestFlatFallback)

	hub := realtime.NewHub(public.Realtime.EventBuffer)
	var (
		rt          *realtime.Client
		broadcaster realtime.Broadcaster = hub
	)
	if public.Realtime.URL != "" {
		rt = realtime.NewClient(public.Realtime, cfg.RealtimeAPIKey(), hub)
		broadcaster = rt
	}

	h := handler.New(tmpls, public, markdown.New(), client, fetcher, broadcaster, hub)

	// only the gateway verifies tokens; the key is needed for minting them
	jwtSvc := jwt.New(os.Getenv("JWT_SECRET"), sessionTTL)
	auth := middleware.NewAuth(mw.NewAuth(jwtSvc, public.Server.SessionCookie, public.Server.SecureCookies), public.Server.SecureCookies)

	return &Dependencies{
		Handler:      h,
		Auth:         auth,
		Public:       public,
		Hub:          hub,
		Realtime:     rt,
		ReplyLimiter: ratelimiter.PerMinute(public.Server.ReplyRatePerMinute, public.Server.ReplyBurst),
	}, nil
}
