package web

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Semior001/topviews/app/dashboard"
	"github.com/Semior001/topviews/app/pageviews"
	"github.com/Semior001/topviews/app/query"
	"github.com/Semior001/topviews/app/wikimedia"
	cache "github.com/go-pkgz/expirable-cache/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"golang.org/x/exp/slog"
)

type page struct {
	Date      string
	Today     string
	Countries []dashboard.Option
	Counts    []dashboard.Option
	View      dashboard.View
	Approx    bool
	Refresh   bool
	Version   string
}

// GET / - renders the dashboard for the session's selection,
// query parameters update the selection.
func (s *Server) dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	now := s.Now()

	sess := s.session(c, now)
	sel := sess.selection(func(sel dashboard.Selection) dashboard.Selection {
		return sel.Apply(c.QueryParams())
	})

	sess.countries.Watch(sel.CountriesKey(), s.fetchCountries(sel), true)

	key := sel.ArticlesKey()
	st := sess.articles.Watch(key, s.fetchArticles(sel), !sel.InFuture(now))
	if st.Status == query.StatusLoading && s.RenderWait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, s.RenderWait)
		st = sess.articles.Wait(waitCtx)
		cancel()
	}

	// a concurrent request of the same session might have switched the key
	if st.Key != key {
		st = query.State[wikimedia.ArticleList]{Key: key, Status: query.StatusLoading}
	}

	var countries *wikimedia.CountryList
	if cst := sess.countries.State(); cst.Status == query.StatusSuccess {
		countries = &cst.Data
	}

	view := dashboard.Resolve(sel, st, now)

	buf := &bytes.Buffer{}
	err := pageTmpl.Execute(buf, page{
		Date:      sel.Date.Format(dashboard.DateLayout),
		Today:     dashboard.StartOfDay(now).Format(dashboard.DateLayout),
		Countries: dashboard.CountryOptions(countries, sel.Country),
		Counts:    dashboard.CountOptions(sel.Count),
		View:      view,
		Approx:    view.ViewsField == wikimedia.VariantPerCountry.ViewsField(),
		Refresh:   view.Kind == dashboard.KindLoading,
		Version:   s.Version,
	})
	if err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// session returns the session of the request, making a new one
// if there is no live session.
func (s *Server) session(c echo.Context, now time.Time) *session {
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		if sess, ok := s.Sessions.get(cookie.Value); ok {
			return sess
		}
	}

	id := uuid.NewString()
	sess := &session{
		sel:       dashboard.DefaultSelection(now),
		articles:  s.Articles.Observe(),
		countries: s.Countries.Observe(),
	}
	s.Sessions.add(id, sess)

	s.Logger.DebugCtx(c.Request().Context(), "new session", slog.String("session_id", id))

	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.Sessions.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return sess
}

type topResponse struct {
	State      dashboard.Kind     `json:"state"`
	Message    string             `json:"message,omitempty"`
	ViewsField string             `json:"views_field,omitempty"`
	Articles   []pageviews.Ranked `json:"articles"`
}

// GET /api/top?date=YYYY-MM-DD&country=CC&count=N - returns top articles,
// waits for the data to load.
func (s *Server) apiTop(c echo.Context) error {
	ctx := c.Request().Context()
	now := s.Now()
	sel := dashboard.DefaultSelection(now).Apply(c.QueryParams())

	st := query.State[wikimedia.ArticleList]{Key: sel.ArticlesKey(), Status: query.StatusIdle}
	if !sel.InFuture(now) {
		list, err := s.Articles.Fetch(ctx, st.Key, s.fetchArticles(sel))
		switch {
		case err != nil:
			st.Status, st.Err = query.StatusError, err
		default:
			st.Status, st.Data = query.StatusSuccess, list
		}
	}

	view := dashboard.Resolve(sel, st, now)

	resp := topResponse{
		State:      view.Kind,
		Message:    view.Message,
		ViewsField: view.ViewsField,
		Articles:   view.Articles,
	}
	if resp.Articles == nil {
		resp.Articles = []pageviews.Ranked{}
	}

	return c.JSON(http.StatusOK, resp)
}

// GET /api/countries?date=YYYY-MM-DD - returns countries to select
// for the date.
func (s *Server) apiCountries(c echo.Context) error {
	ctx := c.Request().Context()
	sel := dashboard.DefaultSelection(s.Now()).Apply(c.QueryParams())

	list, err := s.Countries.Fetch(ctx, sel.CountriesKey(), s.fetchCountries(sel))
	if err != nil {
		s.Logger.WarnCtx(ctx, "failed to get countries", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusBadGateway, wikimedia.Message(err))
	}

	opts := dashboard.CountryOptions(&list, sel.Country)
	return c.JSON(http.StatusOK, opts)
}

type healthResponse struct {
	Status   string                 `json:"status"`
	Version  string                 `json:"version,omitempty"`
	Sessions int                    `json:"sessions"`
	Stored   *int                   `json:"stored,omitempty"`
	Cache    map[string]cache.Stats `json:"cache"`
}

// GET /health - returns the status of the service, cache stats and
// the number of persisted responses.
func (s *Server) health(c echo.Context) error {
	resp := healthResponse{
		Status:   "ok",
		Version:  s.Version,
		Sessions: s.Sessions.Len(),
		Cache: map[string]cache.Stats{
			"articles":  s.Articles.CacheStat(),
			"countries": s.Countries.CacheStat(),
		},
	}

	if s.Store != nil {
		keys, err := s.Store.Keys(c.Request().Context())
		if err != nil {
			return fmt.Errorf("list stored responses: %w", err)
		}
		resp.Stored = lo.ToPtr(len(keys))
	}

	return c.JSON(http.StatusOK, resp)
}
