package web

import (
	"context"
	"fmt"
	"time"

	"github.com/Semior001/topviews/app/dashboard"
	"github.com/Semior001/topviews/app/query"
	"github.com/Semior001/topviews/app/wikimedia"
)

//go:generate moq -out mock_source.go . Source

// Source provides pageview data.
type Source interface {
	TopArticles(ctx context.Context, country string, date time.Time) (wikimedia.ArticleList, error)
	TopArticlesGlobal(ctx context.Context, date time.Time) (wikimedia.ArticleList, error)
	TopCountries(ctx context.Context, month time.Time) (wikimedia.CountryList, error)
}

func (s *Server) fetchArticles(sel dashboard.Selection) query.FetchFunc[wikimedia.ArticleList] {
	return func(ctx context.Context) (wikimedia.ArticleList, error) {
		if sel.Country == dashboard.Global {
			list, err := s.Source.TopArticlesGlobal(ctx, sel.Date)
			if err != nil {
				return wikimedia.ArticleList{}, fmt.Errorf("get global top articles: %w", err)
			}
			return list, nil
		}

		list, err := s.Source.TopArticles(ctx, sel.Country, sel.Date)
		if err != nil {
			return wikimedia.ArticleList{}, fmt.Errorf("get top articles in %s: %w", sel.Country, err)
		}
		return list, nil
	}
}

func (s *Server) fetchCountries(sel dashboard.Selection) query.FetchFunc[wikimedia.CountryList] {
	return func(ctx context.Context) (wikimedia.CountryList, error) {
		list, err := s.Source.TopCountries(ctx, sel.CountriesMonth())
		if err != nil {
			return wikimedia.CountryList{}, fmt.Errorf("get countries: %w", err)
		}
		return list, nil
	}
}
