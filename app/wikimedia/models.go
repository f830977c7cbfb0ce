package wikimedia

// Variant defines which top-articles endpoint produced a list.
// Endpoints disagree on the name of the views field, so the variant
// is kept alongside the data.
type Variant string

const (
	// VariantPerCountry is the top-per-country endpoint, it reports
	// approximate views in "views_ceil".
	VariantPerCountry Variant = "per-country"
	// VariantGlobal is the top endpoint for en.wikipedia, it reports
	// exact views in "views".
	VariantGlobal Variant = "global"
)

// ViewsField returns the name of the JSON field that carries views
// for the variant.
func (v Variant) ViewsField() string {
	if v == VariantGlobal {
		return "views"
	}
	return "views_ceil"
}

// ArticleList is a response of top-articles endpoints.
type ArticleList struct {
	Variant Variant       `json:"variant,omitempty"`
	Items   []ArticleItem `json:"items"`
}

// ArticleItem groups articles of a single project and day.
type ArticleItem struct {
	Project  string    `json:"project,omitempty"`
	Country  string    `json:"country,omitempty"`
	Access   string    `json:"access,omitempty"`
	Year     string    `json:"year,omitempty"`
	Month    string    `json:"month,omitempty"`
	Day      string    `json:"day,omitempty"`
	Articles []Article `json:"articles"`
}

// Article is a single ranked article of the list.
type Article struct {
	Article   string `json:"article"`
	Project   string `json:"project,omitempty"`
	Views     int64  `json:"views,omitempty"`
	ViewsCeil int64  `json:"views_ceil,omitempty"`
	Rank      int    `json:"rank,omitempty"`
}

// ViewCount returns the amount of views reported in the field
// that the given variant uses.
func (a Article) ViewCount(v Variant) int64 {
	if v == VariantGlobal {
		return a.Views
	}
	return a.ViewsCeil
}

// CountryList is a response of the top-by-country endpoint.
type CountryList struct {
	Items []CountryItem `json:"items"`
}

// CountryItem groups countries of a single month.
type CountryItem struct {
	Project   string    `json:"project,omitempty"`
	Access    string    `json:"access,omitempty"`
	Year      string    `json:"year,omitempty"`
	Month     string    `json:"month,omitempty"`
	Countries []Country `json:"countries"`
}

// Country is a country with data for the month.
type Country struct {
	Country   string `json:"country"`
	Views     int64  `json:"views,omitempty"`
	ViewsCeil int64  `json:"views_ceil,omitempty"`
	Rank      int    `json:"rank,omitempty"`
}
