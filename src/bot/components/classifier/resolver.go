package classifier

import (
	"context"
	"net/http"
	"time"
)

// HTTPResolver resolves short links by issuing one request and reading
// the redirect location. Lookups are bounded by the client timeout.
type HTTPResolver struct {
	client *http.Client
}

func NewHTTPResolver(timeout time.Duration) *HTTPResolver {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &HTTPResolver{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (r *HTTPResolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	loc := resp.Header.Get("Location")
	if loc == "" {
		return rawURL, nil
	}
	return loc, nil
}
