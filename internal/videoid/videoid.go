package videoid

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Well-known host aliases. Key: input host. Value: canonical domain.
var canonicalDomainByHost = map[string]string{
	"tiktok.com":     "tiktok.com",
	"www.tiktok.com": "tiktok.com",
	"m.tiktok.com":   "tiktok.com",
	"vm.tiktok.com":  "tiktok.com",
	"vt.tiktok.com":  "tiktok.com",

	"youtube.com":     "youtube.com",
	"www.youtube.com": "youtube.com",
	"m.youtube.com":   "youtube.com",
	"youtu.be":        "youtube.com",
}

// Hosts that only redirect to the real video page.
var shortlinkHosts = map[string]bool{
	"vm.tiktok.com": true,
	"vt.tiktok.com": true,
}

// Scrapers reject the bare tiktok.com host for some regions, so the
// normalized URL keeps www.
var outputHostByDomain = map[string]string{
	"tiktok.com": "www.tiktok.com",
}

// ErrNoVideoID is returned when a URL carries no recognizable video id.
var ErrNoVideoID = errors.New("video id not found in url")

// ResolveCanonicalDomain returns the canonical domain for host.
//
// host should be a hostname without port.
func ResolveCanonicalDomain(host string) string {
	h := normalizeHost(host)
	if h == "" {
		return ""
	}
	if c, ok := canonicalDomainByHost[h]; ok {
		return c
	}
	return h
}

// IsShortlink reports whether raw points at a redirect-only host.
func IsShortlink(raw string) bool {
	u, err := parseLoose(raw)
	if err != nil {
		return false
	}
	return shortlinkHosts[normalizeHost(u.Host)]
}

// NamespaceUUIDForDomain returns a deterministic UUIDv5 namespace for a domain.
func NamespaceUUIDForDomain(domain string) uuid.UUID {
	d := strings.TrimSpace(strings.ToLower(domain))
	d = strings.TrimSuffix(d, ".")
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(d))
}

// VideoUUID returns a deterministic UUIDv5 for a (domain, videoID) pair.
func VideoUUID(domain string, videoID string) uuid.UUID {
	ns := NamespaceUUIDForDomain(domain)
	return uuid.NewSHA1(ns, []byte(strings.TrimSpace(videoID)))
}

// TrackedVideoID derives the registry id for a normalized source URL. URLs
// with a known video id map to VideoUUID, anything else hashes the URL.
func TrackedVideoID(normalizedURL string, domain string) uuid.UUID {
	var id string
	switch domain {
	case "tiktok.com":
		id, _ = ExtractTikTokVideoID(normalizedURL)
	case "youtube.com":
		id, _ = ExtractYouTubeVideoID(normalizedURL)
	}
	if id != "" {
		return VideoUUID(domain, id)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(normalizedURL))
}

// ExpandURL follows redirects for shortlinks and returns the final URL.
// Non-shortlinks are returned unchanged.
func ExpandURL(ctx context.Context, raw string) (string, error) {
	u, err := parseLoose(raw)
	if err != nil {
		return "", err
	}
	if !shortlinkHosts[normalizeHost(u.Host)] {
		return raw, nil
	}
	expanded, ok := followRedirects(ctx, u)
	if !ok {
		return "", errors.New("could not expand shortlink " + u.String())
	}
	return expanded.String(), nil
}

// NormalizeSourceURL normalizes a registered URL for stable storage and
// lookup from webhook payloads.
//
// - tiktok.com: https://www.tiktok.com/@{user}/video/{id}, or /video/{id} when
//   the handle is unknown; query and fragment dropped
// - youtube.com: https://youtube.com/watch?v={id}
//
// For unknown hosts, it removes fragments but preserves query params.
func NormalizeSourceURL(raw string) (string, string, error) {
	u, err := parseLoose(raw)
	if err != nil {
		return "", "", err
	}

	u.Fragment = ""
	u.User = nil

	origHost := normalizeHost(u.Host)
	canon := ResolveCanonicalDomain(origHost)
	if canon == "" {
		return "", "", errors.New("missing host")
	}

	if u.Scheme == "http" || u.Scheme == "https" {
		u.Scheme = "https"
	}
	u.Path = trimTrailingSlash(u.Path)

	switch canon {
	case "tiktok.com":
		segs := pathSegments(u.Path)
		if shortlinkHosts[origHost] {
			return "", "", errors.New("tiktok shortlink must be expanded before normalizing")
		}
		id, err := ExtractTikTokVideoID(u.String())
		if err != nil {
			return "", "", err
		}
		u.Path = "/video/" + id
		if handle := tiktokHandle(segs); handle != "" {
			u.Path = "/@" + handle + "/video/" + id
		}
		u.RawQuery = ""
	case "youtube.com":
		id, err := ExtractYouTubeVideoID(u.String())
		if err != nil {
			return "", "", err
		}
		u.Path = "/watch"
		u.RawQuery = "v=" + url.QueryEscape(id)
	}

	u.Host = canon
	if h, ok := outputHostByDomain[canon]; ok {
		u.Host = h
	}

	return u.String(), canon, nil
}

// ExtractTikTokVideoID understands /@user/video/{id}, /@user/photo/{id},
// /v/{id}.html and /video/{id}.
func ExtractTikTokVideoID(urlStr string) (string, error) {
	u, err := parseLoose(urlStr)
	if err != nil {
		return "", err
	}
	if ResolveCanonicalDomain(u.Host) != "tiktok.com" {
		return "", ErrNoVideoID
	}

	segs := pathSegments(u.Path)
	for i := 0; i+1 < len(segs); i++ {
		switch segs[i] {
		case "video", "photo", "v":
			id := strings.TrimSuffix(segs[i+1], ".html")
			if isDigits(id) {
				return id, nil
			}
		}
	}
	return "", ErrNoVideoID
}

// ExtractYouTubeVideoID extracts the YouTube video ID from a URL.
func ExtractYouTubeVideoID(urlStr string) (string, error) {
	u, err := parseLoose(urlStr)
	if err != nil {
		return "", err
	}

	host := normalizeHost(u.Host)
	if host == "youtu.be" {
		if id := firstPathSegment(u.Path); id != "" {
			return id, nil
		}
		return "", ErrNoVideoID
	}
	if ResolveCanonicalDomain(host) != "youtube.com" {
		return "", ErrNoVideoID
	}
	if q := u.Query().Get("v"); q != "" {
		return q, nil
	}
	for _, prefix := range []string{"/embed/", "/v/", "/shorts/", "/live/"} {
		if strings.HasPrefix(u.Path, prefix) {
			if id := firstPathSegment(strings.TrimPrefix(u.Path, prefix)); id != "" {
				return id, nil
			}
		}
	}
	return "", ErrNoVideoID
}

func tiktokHandle(segs []string) string {
	for _, seg := range segs {
		if strings.HasPrefix(seg, "@") && len(seg) > 1 {
			return strings.TrimPrefix(seg, "@")
		}
	}
	return ""
}

func parseLoose(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("missing url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		// Best effort: treat as https.
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return nil, err
		}
	}
	return u, nil
}

func normalizeHost(hostport string) string {
	h := strings.TrimSpace(strings.ToLower(hostport))
	if h == "" {
		return ""
	}
	// url.URL.Host may include port.
	if strings.Contains(h, ":") {
		if parsed, err := url.Parse("//" + h); err == nil {
			if parsed.Hostname() != "" {
				h = parsed.Hostname()
			}
		}
	}
	return strings.TrimSuffix(h, ".")
}

func trimTrailingSlash(p string) string {
	if p == "" || p == "/" {
		return p
	}
	return strings.TrimRight(p, "/")
}

func pathSegments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstPathSegment(p string) string {
	p = strings.TrimPrefix(strings.TrimSpace(p), "/")
	seg, _, _ := strings.Cut(p, "/")
	return strings.TrimSpace(seg)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func followRedirects(ctx context.Context, u *url.URL) (*url.URL, bool) {
	client := &http.Client{
		Timeout: 6 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 8 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("User-Agent", "leadwatch-registry")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, false
	}
	_ = resp.Body.Close()

	finalURL := resp.Request.URL
	if finalURL == nil || strings.TrimSpace(finalURL.Host) == "" {
		return nil, false
	}
	return finalURL, true
}
