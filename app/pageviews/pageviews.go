// Package pageviews derives ranked article lists and country selectors
// from raw pageview API responses.
package pageviews

import (
	"regexp"
	"strings"
	"time"

	"github.com/Semior001/topviews/app/wikimedia"
	"github.com/samber/lo"
)

// MainPage is the title of the wiki's main page, which is always on top
// and never shown.
const MainPage = "Main_Page"

// Ranked is a single row of the derived article list.
type Ranked struct {
	Rank  int    `json:"rank"`
	Title string `json:"title"`
	Name  string `json:"name"`
	Views int64  `json:"views"`
}

// namespaced matches titles from non-article namespaces, e.g. "Talk:X",
// "Special:Search". A colon followed by an underscore is a part of a title.
var namespaced = regexp.MustCompile(`\w+:[^_]`)

// IsArticle reports whether title belongs to the article namespace.
func IsArticle(title string) bool {
	return !namespaced.MatchString(title)
}

// DisplayName returns a human-readable name of the article.
func DisplayName(title string) string {
	return strings.ReplaceAll(title, "_", " ")
}

// Derive flattens the list, leaves only articles, except the main page,
// and takes first count of them, keeping the response order.
func Derive(list wikimedia.ArticleList, count int) []Ranked {
	if count <= 0 {
		return []Ranked{}
	}

	articles := lo.FlatMap(list.Items, func(item wikimedia.ArticleItem, _ int) []wikimedia.Article {
		return item.Articles
	})

	articles = lo.Filter(articles, func(a wikimedia.Article, _ int) bool {
		return IsArticle(a.Article) && a.Article != MainPage
	})

	return lo.Map(lo.Subset(articles, 0, uint(count)), func(a wikimedia.Article, idx int) Ranked {
		return Ranked{
			Rank:  idx + 1,
			Title: a.Article,
			Name:  DisplayName(a.Article),
			Views: a.ViewCount(list.Variant),
		}
	})
}

var countryCode = regexp.MustCompile(`^[A-Z]{2}$`)

// IsCountryCode reports whether code is a code of a single country,
// i.e. two uppercase letters.
func IsCountryCode(code string) bool { return countryCode.MatchString(code) }

// Countries returns the codes of countries from the list. Aggregated entries,
// which are not two uppercase letters, are dropped. If there is no list yet,
// only the selected country is returned.
func Countries(list *wikimedia.CountryList, selected string) []string {
	if list == nil {
		return []string{selected}
	}

	codes := lo.FlatMap(list.Items, func(item wikimedia.CountryItem, _ int) []string {
		return lo.Map(item.Countries, func(c wikimedia.Country, _ int) string { return c.Country })
	})

	return lo.Uniq(lo.Filter(codes, func(code string, _ int) bool { return IsCountryCode(code) }))
}

// CountriesMonth returns the month, for which the list of countries is
// requested for the given date: the month of the last day of the previous month.
func CountriesMonth(date time.Time) time.Time {
	y, m, _ := date.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, date.Location()).AddDate(0, 0, -1)
}
