package web

import (
	"context"
	"testing"
	"time"

	"github.com/Semior001/topviews/app/dashboard"
	"github.com/Semior001/topviews/app/query"
	"github.com/Semior001/topviews/app/wikimedia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func newSession(t *testing.T) *session {
	articles := query.NewClient[wikimedia.ArticleList](slog.Default(), query.Opts{Kind: "articles"})
	countries := query.NewClient[wikimedia.CountryList](slog.Default(), query.Opts{Kind: "countries"})

	sess := &session{
		sel:       dashboard.DefaultSelection(now),
		articles:  articles.Observe(),
		countries: countries.Observe(),
	}

	st := sess.articles.Watch(sess.sel.ArticlesKey(), func(context.Context) (wikimedia.ArticleList, error) {
		return wikimedia.ArticleList{}, nil
	}, true)
	require.NotEqual(t, query.StatusIdle, st.Status)

	return sess
}

func TestSessions_MaxKeys(t *testing.T) {
	s := NewSessions(time.Minute, 1)

	first, second := newSession(t), newSession(t)
	s.add("first", first)
	s.add("second", second)

	assert.Equal(t, 1, s.Len())

	_, ok := s.get("first")
	assert.False(t, ok)
	assert.Equal(t, query.StatusIdle, first.articles.State().Status, "evicted session must be closed")

	sess, ok := s.get("second")
	require.True(t, ok)
	assert.Same(t, second, sess)
}

func TestSessions_TTL(t *testing.T) {
	s := NewSessions(20*time.Millisecond, 0)

	sess := newSession(t)
	s.add("id", sess)

	_, ok := s.get("id")
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, query.StatusIdle, sess.articles.State().Status)

	cancel()
	<-done
}

func TestSessions_Close(t *testing.T) {
	s := NewSessions(0, 0)

	sess := newSession(t)
	s.add("id", sess)

	s.Close()
	assert.Zero(t, s.Len())
	assert.Equal(t, query.StatusIdle, sess.articles.State().Status)
}

func TestSession_Selection(t *testing.T) {
	sess := newSession(t)
	defer sess.close()

	sel := sess.selection(func(sel dashboard.Selection) dashboard.Selection {
		sel.Country = "JP"
		return sel
	})
	assert.Equal(t, "JP", sel.Country)

	sel = sess.selection(func(sel dashboard.Selection) dashboard.Selection { return sel })
	assert.Equal(t, "JP", sel.Country)
}
