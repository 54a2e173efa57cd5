// Package titlefetch scrapes page titles for submission embeds. Fetches
// are time-bounded and every failure degrades to an empty title; a
// submission never fails because a page would not give up its title.
package titlefetch

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
)

const (
	maxBodyBytes = 128 << 10
	cacheTTL     = 24 * time.Hour
	maxTitleLen  = 256
)

var titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// Fetcher retrieves and sanitizes page titles, caching results in redis.
type Fetcher struct {
	client *http.Client
	rdb    *redis.Client
	policy *bluemonday.Policy
}

func New(rdb *redis.Client, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		rdb:    rdb,
		policy: bluemonday.StrictPolicy(),
	}
}

// Fetch returns the page title for url, or "" when the page is
// unreachable, times out, or carries no usable title.
func (f *Fetcher) Fetch(ctx context.Context, url string) string {
	key := cacheKey(url)
	if f.rdb != nil {
		if cached, err := f.rdb.Get(ctx, key).Result(); err == nil {
			return cached
		}
	}

	title := f.scrape(ctx, url)
	if title != "" && f.rdb != nil {
		f.rdb.Set(ctx, key, title, cacheTTL)
	}
	return title
}

func (f *Fetcher) scrape(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return ""
	}

	m := titlePattern.FindSubmatch(body)
	if m == nil {
		return ""
	}
	return f.Clean(string(m[1]))
}

// Clean sanitizes a raw title fragment for embedding.
func (f *Fetcher) Clean(raw string) string {
	title := f.policy.Sanitize(raw)
	title = html.UnescapeString(title)
	title = strings.Join(strings.Fields(title), " ")
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}
	return title
}

func cacheKey(url string) string {
	return fmt.Sprintf("title:%x", xxhash.ChecksumString64(url))
}
