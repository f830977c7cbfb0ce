package dashboard

import (
	"strconv"

	"github.com/Semior001/topviews/app/pageviews"
	"github.com/Semior001/topviews/app/wikimedia"
	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Option is an entry of a selector.
type Option struct {
	Value    string `json:"code"`
	Label    string `json:"name"`
	Selected bool   `json:"-"`
}

// CountryOptions returns the options of the country selector. Until the
// list is loaded, only the selected country is offered. Once it is, the
// worldwide pseudo country goes first and the selected one is kept even
// if the month has no data for it.
func CountryOptions(list *wikimedia.CountryList, selected string) []Option {
	codes := pageviews.Countries(list, selected)
	if list != nil {
		if selected != Global && !lo.Contains(codes, selected) {
			codes = append([]string{selected}, codes...)
		}
		codes = append([]string{Global}, lo.Without(codes, Global)...)
	}

	return lo.Map(codes, func(code string, _ int) Option {
		return Option{Value: code, Label: CountryName(code), Selected: code == selected}
	})
}

// CountOptions returns the options of the result count selector.
func CountOptions(selected int) []Option {
	return lo.Map(Counts, func(n int, _ int) Option {
		return Option{Value: strconv.Itoa(n), Label: strconv.Itoa(n), Selected: n == selected}
	})
}

// CountryName returns the English name of the country, or the code
// itself if it is unknown.
func CountryName(code string) string {
	if code == Global {
		return "Worldwide (en.wikipedia)"
	}

	region, err := language.ParseRegion(code)
	if err != nil {
		return code
	}

	if name := display.English.Regions().Name(region); name != "" {
		return name
	}

	return code
}
