package wikimedia

import (
	"fmt"
	"net/http"

	"github.com/go-pkgz/requester/middleware"
	"golang.org/x/time/rate"
)

// RateLimit blocks outgoing requests until the limiter permits them.
func RateLimit(l *rate.Limiter) middleware.RoundTripperHandler {
	return func(next http.RoundTripper) http.RoundTripper {
		return middleware.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := l.Wait(req.Context()); err != nil {
				return nil, fmt.Errorf("wait for rate limiter: %w", err)
			}
			return next.RoundTrip(req)
		})
	}
}
