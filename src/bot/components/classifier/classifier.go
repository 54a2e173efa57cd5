// Package classifier turns raw URLs and attachments into typed,
// canonical submissions. Classification is idempotent: feeding a
// canonical URL back in yields the same URL.
package classifier

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/stake-plus/link-curator/src/shared/types"
)

// Classification is a recognized submission.
type Classification struct {
	Type      types.SubmissionType
	Canonical string
}

// Resolver resolves a short link to its real URL by following one
// redirect. Implementations must time-bound the lookup.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
}

// Classifier applies per-kind host/path rules.
type Classifier struct {
	resolver Resolver
}

func New(resolver Resolver) *Classifier {
	return &Classifier{resolver: resolver}
}

var (
	urlPattern = regexp.MustCompile(`https?://[^\s<>|]+`)

	gdocPath      = regexp.MustCompile(`^/document/d/([a-zA-Z0-9_-]+)`)
	gdocPubPath   = regexp.MustCompile(`^/document/d/e/([a-zA-Z0-9_-]+)`)
	gsheetPath    = regexp.MustCompile(`^/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	gsheetPubPath = regexp.MustCompile(`^/spreadsheets/d/e/([a-zA-Z0-9_-]+)`)
	tweetPath     = regexp.MustCompile(`^/([A-Za-z0-9_]+)/status/([0-9]+)`)
	ytVideoID     = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	trackPath     = regexp.MustCompile(`^/([A-Za-z0-9_-]+)/([A-Za-z0-9_-]+)/?$`)
	spotifyPath   = regexp.MustCompile(`^/track/([A-Za-z0-9]+)`)
)

// imageContentTypes maps attachment content types to image submissions.
var imageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Classify maps one URL to its submission kind and canonical form.
// Malformed or unsupported URLs return nil, not an error.
func (c *Classifier) Classify(ctx context.Context, raw string) *Classification {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil
	}

	switch strings.ToLower(u.Host) {
	case "docs.google.com":
		if m := gdocPubPath.FindStringSubmatch(u.Path); m != nil {
			return &Classification{
				Type:      types.TypeGoogleDoc,
				Canonical: fmt.Sprintf("https://docs.google.com/document/d/e/%s/pub", m[1]),
			}
		}
		if m := gdocPath.FindStringSubmatch(u.Path); m != nil {
			return &Classification{
				Type:      types.TypeGoogleDoc,
				Canonical: fmt.Sprintf("https://docs.google.com/document/d/%s/edit", m[1]),
			}
		}
		if m := gsheetPubPath.FindStringSubmatch(u.Path); m != nil {
			return &Classification{
				Type:      types.TypeGoogleSheet,
				Canonical: fmt.Sprintf("https://docs.google.com/spreadsheets/d/e/%s/pubhtml", m[1]),
			}
		}
		if m := gsheetPath.FindStringSubmatch(u.Path); m != nil {
			return &Classification{
				Type:      types.TypeGoogleSheet,
				Canonical: fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit", m[1]),
			}
		}
		return nil

	case "twitter.com", "www.twitter.com":
		if m := tweetPath.FindStringSubmatch(u.Path); m != nil {
			return &Classification{
				Type:      types.TypeTweet,
				Canonical: fmt.Sprintf("https://twitter.com/%s/status/%s", m[1], m[2]),
			}
		}
		return nil

	case "www.youtube.com":
		// The id is a decoded query value; restricting it to the video-id
		// alphabet keeps the rebuilt canonical URL stable under re-parsing.
		id := u.Query().Get("v")
		if !ytVideoID.MatchString(id) {
			return nil
		}
		return &Classification{
			Type:      types.TypeYouTube,
			Canonical: "https://www.youtube.com/watch?v=" + id,
		}

	case "soundcloud.com":
		if m := trackPath.FindStringSubmatch(u.Path); m != nil {
			return &Classification{
				Type:      types.TypeAudio,
				Canonical: fmt.Sprintf("https://soundcloud.com/%s/%s", m[1], m[2]),
			}
		}
		return nil

	case "on.soundcloud.com":
		if c.resolver == nil {
			return nil
		}
		resolved, err := c.resolver.Resolve(ctx, raw)
		if err != nil || resolved == raw {
			// Degrade to no classification on resolution failure.
			return nil
		}
		return c.Classify(ctx, resolved)

	case "open.spotify.com":
		if m := spotifyPath.FindStringSubmatch(u.Path); m != nil {
			return &Classification{
				Type:      types.TypeAudio,
				Canonical: "https://open.spotify.com/track/" + m[1],
			}
		}
		return nil
	}

	return nil
}

// ClassifyAttachment recognizes image attachments by content type. The
// attachment URL doubles as the canonical link.
func ClassifyAttachment(contentType, attachmentURL string) *Classification {
	base := contentType
	if i := strings.Index(base, ";"); i >= 0 {
		base = base[:i]
	}
	if !imageContentTypes[strings.ToLower(strings.TrimSpace(base))] {
		return nil
	}
	return &Classification{Type: types.TypeImage, Canonical: attachmentURL}
}

// ScanResult is the outcome of scanning a whole message.
type ScanResult struct {
	// Match is the first URL (in source order) classifying to an allowed
	// kind, or nil.
	Match *Classification
	// Disallowed reports that at least one URL classified to a kind the
	// channel does not accept while no allowed match was found.
	Disallowed bool
}

// ScanMessage walks every URL in content in source order and returns
// the first classification whose kind the channel allows.
func (c *Classifier) ScanMessage(ctx context.Context, content string, cfg types.ChannelConfig) ScanResult {
	var res ScanResult
	for _, raw := range urlPattern.FindAllString(content, -1) {
		cls := c.Classify(ctx, raw)
		if cls == nil {
			continue
		}
		if cfg.TypeAllowed(cls.Type) {
			res.Match = cls
			res.Disallowed = false
			return res
		}
		res.Disallowed = true
	}
	return res
}
