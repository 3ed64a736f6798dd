// Package urlfilter validates externally supplied URLs before they are
// rendered as image sources. Vendors and users control these strings, so
// anything outside a small scheme allow-list is rejected.
package urlfilter

import (
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// Filter applies the allow-list policy. Rejections never error or panic;
// they return the empty sentinel so the calling surface degrades to a
// fallback image or renders nothing.
type Filter struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Filter {
	return &Filter{log: log}
}

// Sanitize returns the URL unchanged with ok=true when it is safe to use
// as an image source, or ("", false) otherwise.
//
// Absolute URLs are accepted only with scheme http, https, or data; data
// URLs must additionally declare an image media type. Inputs that do not
// parse as absolute URLs are accepted only as same-origin relative paths
// ("/", "./", "../" prefixes).
func (f *Filter) Sanitize(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	u, err := url.Parse(trimmed)
	if err == nil && u.IsAbs() {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return trimmed, true
		case "data":
			if strings.HasPrefix(strings.ToLower(u.Opaque), "image/") {
				return trimmed, true
			}
			f.log.Warn().Str("url", truncate(trimmed)).Msg("rejected non-image data url")
			return "", false
		default:
			f.log.Warn().Str("scheme", u.Scheme).Msg("rejected url with unsafe scheme")
			return "", false
		}
	}

	if strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "./") || strings.HasPrefix(trimmed, "../") {
		return trimmed, true
	}

	f.log.Warn().Str("url", truncate(trimmed)).Msg("rejected non-relative url without scheme")
	return "", false
}

// SanitizeOr returns the sanitized URL, or fallback when the input is
// rejected.
func (f *Filter) SanitizeOr(raw, fallback string) string {
	if safe, ok := f.Sanitize(raw); ok {
		return safe
	}
	return fallback
}

// truncate keeps log lines bounded; data URLs can be megabytes.
func truncate(s string) string {
	const max = 64
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
