// Package dashboard defines the user's selection and resolves what the
// dashboard shows for it.
package dashboard

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Semior001/topviews/app/pageviews"
	"github.com/Semior001/topviews/app/query"
	"github.com/Semior001/topviews/app/wikimedia"
	"github.com/samber/lo"
)

// DateLayout is the layout of dates in query parameters.
const DateLayout = "2006-01-02"

// Global is a pseudo country code that selects top articles of
// en.wikipedia across all countries.
const Global = "ALL"

// DefaultCountry is the country selected by default.
const DefaultCountry = "US"

// DefaultCount is the number of results shown by default.
const DefaultCount = 100

// Counts are the allowed numbers of results.
var Counts = []int{25, 50, 75, 100, 200}

// Selection is the user's choice of what to show.
type Selection struct {
	Date    time.Time
	Country string
	Count   int
}

// DefaultSelection returns the selection for a new user:
// yesterday, the default country and count.
func DefaultSelection(now time.Time) Selection {
	return Selection{
		Date:    StartOfDay(now).AddDate(0, 0, -1),
		Country: DefaultCountry,
		Count:   DefaultCount,
	}
}

// Apply updates the selection with the values from query parameters.
// Values, which could not be parsed, are ignored.
func (s Selection) Apply(q url.Values) Selection {
	if v := q.Get("date"); v != "" {
		if d, err := time.ParseInLocation(DateLayout, v, s.Date.Location()); err == nil {
			s.Date = d
		}
	}

	if v := q.Get("country"); v != "" && validCountry(v) {
		s.Country = v
	}

	if v := q.Get("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && lo.Contains(Counts, n) {
			s.Count = n
		}
	}

	return s
}

// InFuture reports whether the selected day is after the current one.
func (s Selection) InFuture(now time.Time) bool {
	return StartOfDay(s.Date).After(StartOfDay(now.In(s.Date.Location())))
}

// ArticlesKey returns the key of the top articles query for the selection.
func (s Selection) ArticlesKey() query.Key {
	return query.NewKey("top-articles", s.Country, s.Date.Format("2006/01/02"))
}

// CountriesMonth returns the month, for which the country list is requested.
func (s Selection) CountriesMonth() time.Time {
	return pageviews.CountriesMonth(s.Date)
}

// CountriesKey returns the key of the country list query for the selection.
func (s Selection) CountriesKey() query.Key {
	return query.NewKey("countries", s.CountriesMonth().Format("2006/01"))
}

// StartOfDay truncates t to the beginning of its day in its location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func validCountry(c string) bool { return c == Global || pageviews.IsCountryCode(c) }

// Kind is a kind of content the dashboard shows.
type Kind string

// Content kinds, in order of precedence.
const (
	KindFutureDate Kind = "future_date"
	KindLoading    Kind = "loading"
	KindNotFound   Kind = "not_found"
	KindError      Kind = "error"
	KindEmpty      Kind = "empty"
	KindList       Kind = "list"
)

// View is the content the dashboard shows.
type View struct {
	Kind       Kind
	Message    string
	ViewsField string
	Articles   []pageviews.Ranked
}

// Resolve decides what to show for the selection, given the state of the
// top articles query at the moment now.
func Resolve(sel Selection, st query.State[wikimedia.ArticleList], now time.Time) View {
	switch {
	case sel.InFuture(now):
		return View{Kind: KindFutureDate, Message: "The date you selected is in the future."}
	case st.Status == query.StatusLoading, st.Status == query.StatusIdle:
		return View{Kind: KindLoading, Message: "Loading..."}
	case st.Status == query.StatusError && wikimedia.IsNotFound(st.Err):
		return View{Kind: KindNotFound, Message: "Not found"}
	case st.Status == query.StatusError:
		return View{Kind: KindError, Message: fmt.Sprintf("Error: %s", wikimedia.Message(st.Err))}
	}

	articles := pageviews.Derive(st.Data, sel.Count)
	field := st.Data.Variant.ViewsField()
	if len(articles) == 0 {
		return View{Kind: KindEmpty, Message: "No results", ViewsField: field}
	}

	return View{Kind: KindList, ViewsField: field, Articles: articles}
}
