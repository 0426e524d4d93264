package utils

import (
	"net/url"
	"regexp"
	"strings"
)

var slugStrip = regexp.MustCompile(`[^A-Za-z0-9\-_]+`)
var slugSpace = regexp.MustCompile(`\s+`)

// Slugify turns free text into a filesystem- and SKU-safe slug, capped at
// 80 characters. Empty input becomes "item".
func Slugify(text string) string {
	t := slugSpace.ReplaceAllString(strings.TrimSpace(text), "-")
	t = slugStrip.ReplaceAllString(t, "")
	if len(t) > 80 {
		t = t[:80]
	}
	if t == "" {
		return "item"
	}
	return t
}

// trackingParams are query parameters that identify a campaign or click,
// not a resource. Two image URLs differing only in these are the same
// image.
var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"mc_cid": true,
	"mc_eid": true,
	"ref":    true,
}

// NormalizeURL canonicalizes a URL for equality comparison: scheme and
// host are lowercased, the fragment is dropped and known tracking query
// parameters are stripped. Invalid URLs are returned trimmed but
// otherwise untouched.
func NormalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if trackingParams[key] || strings.HasPrefix(strings.ToLower(key), "utm_") {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}

	return u.String()
}

// ResolveURL resolves href against base, returning an absolute URL or an
// empty string when href cannot be made absolute.
func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
