package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aTrapDeer/portfolio-admin/internal/apiclient"
	"github.com/aTrapDeer/portfolio-admin/internal/binder"
	"github.com/aTrapDeer/portfolio-admin/internal/config"
	"github.com/aTrapDeer/portfolio-admin/internal/media"
	"github.com/aTrapDeer/portfolio-admin/internal/notify"
	"github.com/aTrapDeer/portfolio-admin/internal/querycache"
	"github.com/aTrapDeer/portfolio-admin/internal/revalidate"
	"github.com/aTrapDeer/portfolio-admin/internal/session"
	"github.com/aTrapDeer/portfolio-admin/internal/web"
)

const (
	sweepInterval   = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
	toastTTL        = 10 * time.Minute
)

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin dashboard",
	Long: `Run the admin dashboard HTTP server.

Configuration comes from the environment (or --env-file). API_BASE_URL is
required; every other setting has a default.

Example:
  portfolio-admin serve
  portfolio-admin serve --env-file ./admin.env -v`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if err = cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	api, err := apiclient.New(cfg.APIBaseURL, cfg.APITimeout)
	if err != nil {
		return errors.Wrap(err, "failed to create API client")
	}

	store, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close session store")
		}
	}()

	hook := revalidate.New(cfg.RevalidationURL, cfg.RevalidationSecret, cfg.APITimeout)
	defer hook.Wait()

	cache := querycache.New(cfg.CacheTTL)
	notes := notify.NewCenter(toastTTL)
	drafts := binder.NewDrafts(cfg.SessionTTL)

	deps := binder.Deps{
		API:      api,
		Store:    cache,
		Notifier: notes,
		Drafts:   drafts,
		Limits: media.Limits{
			MaxWidth:  cfg.UploadMaxWidth,
			MaxHeight: cfg.UploadMaxHeight,
			Quality:   cfg.UploadQuality,
		},
	}
	if hook != nil {
		deps.Site = hook
	}

	sessions := session.NewManager(store, api, session.Options{
		TTL:          cfg.SessionTTL,
		BcryptCost:   cfg.BcryptCost,
		SecureCookie: cfg.CookieSecure,
	})

	srv, err := web.NewServer(web.ServerDeps{
		Binders:        binder.NewSet(deps),
		Store:          cache,
		Drafts:         drafts,
		Notes:          notes,
		Sessions:       sessions,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create web server")
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info().Str("addr", cfg.ListenAddr).Str("api", cfg.APIBaseURL).Msg("dashboard listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server failed")
		}
		return nil
	})

	group.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	group.Go(func() error {
		return sessions.Sweep(gctx, sweepInterval)
	})

	return group.Wait()
}

func openSessionStore(ctx context.Context, cfg config.AppConfig) (session.Store, error) {
	switch cfg.SessionStore {
	case config.StoreRedis:
		rs := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPass)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, errors.Wrapf(err, "failed to reach redis at %s", cfg.RedisAddr)
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("sessions stored in redis")
		return rs, nil
	default:
		gs, err := session.OpenGorm(cfg.SessionDB)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open session database")
		}
		log.Info().Str("path", cfg.SessionDB).Msg("sessions stored in sqlite")
		return gs, nil
	}
}
