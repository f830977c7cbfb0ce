// Package cmd contains commands for the application.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Semior001/topviews/app/query"
	"github.com/Semior001/topviews/app/store"
	"github.com/Semior001/topviews/app/web"
	"github.com/Semior001/topviews/app/wikimedia"
	"github.com/Semior001/topviews/pkg/logx"
	"github.com/go-pkgz/requester/middleware"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Server is a command to run the dashboard server.
type Server struct {
	Listen string `long:"listen" env:"LISTEN" default:":8080" description:"address to listen on"`

	Wikimedia struct {
		BaseURL       string        `long:"base-url" env:"BASE_URL" default:"https://wikimedia.org/api/rest_v1/metrics/pageviews" description:"base URL of the pageview API"`
		Timeout       time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"timeout for API requests"`
		UserAgent     string        `long:"user-agent" env:"USER_AGENT" default:"topviews (https://github.com/Semior001/topviews)" description:"user agent for API requests, should contain contact info"`
		RPS           float64       `long:"rps" env:"RPS" default:"50" description:"max requests per second to the API"`
		Burst         int           `long:"burst" env:"BURST" default:"10" description:"max burst of requests to the API"`
		MaxConcurrent int           `long:"max-concurrent" env:"MAX_CONCURRENT" default:"8" description:"max concurrent requests to the API"`
	} `group:"wikimedia" namespace:"wikimedia" env-namespace:"WIKIMEDIA"`

	Cache struct {
		TTL     time.Duration `long:"ttl" env:"TTL" default:"10m" description:"how long loaded data is considered fresh"`
		MaxKeys int           `long:"max-keys" env:"MAX_KEYS" default:"1000" description:"max amount of responses to keep in memory"`
	} `group:"cache" namespace:"cache" env-namespace:"CACHE"`

	Session struct {
		TTL time.Duration `long:"ttl" env:"TTL" default:"30m" description:"session lifetime since the last request"`
		Max int           `long:"max" env:"MAX" default:"10000" description:"max amount of live sessions"`
	} `group:"session" namespace:"session" env-namespace:"SESSION"`

	StorePath  string        `long:"store-path" env:"STORE_PATH" description:"parent dir for bolt files, responses are not persisted if empty"`
	RenderWait time.Duration `long:"render-wait" env:"RENDER_WAIT" default:"2s" description:"how long the page waits for data before showing loading state"`

	Version string `no-flag:"true"`
}

// Execute runs the command.
func (s Server) Execute(_ []string) error {
	lg := slog.Default()

	var st store.Interface
	if s.StorePath != "" {
		b, err := store.NewBolt(s.StorePath)
		if err != nil {
			return fmt.Errorf("make store: %w", err)
		}

		defer func() {
			if err := b.Close(); err != nil {
				lg.Error("close bolt store", slog.Any("err", err))
			}
		}()

		st = b
	}

	cl := wikimedia.NewClient(
		lg.With(slog.String("prefix", "wikimedia")),
		http.Client{Timeout: s.Wikimedia.Timeout},
		wikimedia.Opts{
			BaseURL:       s.Wikimedia.BaseURL,
			UserAgent:     s.Wikimedia.UserAgent,
			MaxConcurrent: s.Wikimedia.MaxConcurrent,
			Middlewares: []middleware.RoundTripperHandler{
				wikimedia.RateLimit(rate.NewLimiter(rate.Limit(s.Wikimedia.RPS), s.Wikimedia.Burst)),
				logx.LoggingRoundTripper(lg.With(slog.String("prefix", "wikimedia_http")), logx.RoundTripperOpts{
					Level:         slog.LevelDebug,
					SecretHeaders: []string{"User-Agent"},
				}),
			},
		},
	)

	sessions := web.NewSessions(s.Session.TTL, s.Session.Max)
	defer sessions.Close()

	srv := &web.Server{
		Logger:  lg.With(slog.String("prefix", "web")),
		Addr:    s.Listen,
		Version: s.Version,
		Source:  cl,
		Articles: query.NewClient[wikimedia.ArticleList](
			lg.With(slog.String("prefix", "articles")),
			query.Opts{
				Kind:    "articles",
				TTL:     s.Cache.TTL,
				MaxKeys: s.Cache.MaxKeys,
				Timeout: s.Wikimedia.Timeout,
				Store:   st,
			},
		),
		Countries: query.NewClient[wikimedia.CountryList](
			lg.With(slog.String("prefix", "countries")),
			query.Opts{
				Kind:    "countries",
				TTL:     s.Cache.TTL,
				MaxKeys: s.Cache.MaxKeys,
				Timeout: s.Wikimedia.Timeout,
				Store:   st,
			},
		),
		Sessions:   sessions,
		Store:      st,
		RenderWait: s.RenderWait,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	ewg, ctx := errgroup.WithContext(ctx)
	ewg.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		select {
		case sig := <-sig:
			slog.Warn("caught signal, stopping", slog.String("signal", sig.String()))
			stop()
			return ctx.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	ewg.Go(func() error {
		sessions.Run(ctx)
		return ctx.Err()
	})
	ewg.Go(func() error {
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("run server: %w", err)
		}
		// server might stop on its own, the rest must follow
		stop()
		return nil
	})

	if err := ewg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	lg.Info("server stopped")
	return nil
}
