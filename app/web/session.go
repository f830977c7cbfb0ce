package web

import (
	"context"
	"sync"
	"time"

	"github.com/Semior001/topviews/app/dashboard"
	"github.com/Semior001/topviews/app/metrics"
	"github.com/Semior001/topviews/app/query"
	"github.com/Semior001/topviews/app/wikimedia"
	cache "github.com/go-pkgz/expirable-cache/v2"
)

// SessionCookie is the name of the cookie with the session id.
const SessionCookie = "topviews_session"

// session is a single dashboard view: the selection of the user and
// observers of queries the view depends on.
type session struct {
	mu  sync.Mutex
	sel dashboard.Selection

	articles  *query.Observer[wikimedia.ArticleList]
	countries *query.Observer[wikimedia.CountryList]
}

// selection applies upd to the selection and returns the result.
func (s *session) selection(upd func(dashboard.Selection) dashboard.Selection) dashboard.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel = upd(s.sel)
	return s.sel
}

func (s *session) close() {
	s.articles.Close()
	s.countries.Close()
}

// Sessions keeps live sessions. Sessions, which were not used for
// the TTL, are closed.
type Sessions struct {
	ttl   time.Duration
	cache cache.Cache[string, *session]
}

// NewSessions makes new Sessions, zero ttl or maxKeys mean no limit.
func NewSessions(ttl time.Duration, maxKeys int) *Sessions {
	c := cache.NewCache[string, *session]().
		WithLRU().
		WithOnEvicted(func(_ string, s *session) {
			s.close()
			metrics.Sessions.Dec()
		})
	if ttl > 0 {
		c = c.WithTTL(ttl)
	}
	if maxKeys > 0 {
		c = c.WithMaxKeys(maxKeys)
	}

	return &Sessions{ttl: ttl, cache: c}
}

// Len returns the number of sessions, including expired ones,
// which were not cleaned up yet.
func (s *Sessions) Len() int { return s.cache.Len() }

// Run periodically closes expired sessions until the context is done.
func (s *Sessions) Run(ctx context.Context) {
	if s.ttl <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cache.DeleteExpired()
		}
	}
}

// Close closes all sessions.
func (s *Sessions) Close() { s.cache.Purge() }

// get returns the live session and prolongs it.
func (s *Sessions) get(id string) (*session, bool) {
	sess, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	s.cache.Set(id, sess, 0)
	return sess, true
}

func (s *Sessions) add(id string, sess *session) {
	metrics.Sessions.Inc()
	s.cache.Set(id, sess, 0)
}
