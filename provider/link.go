package provider

import (
	"net/http"
	"strings"
)

// ParseLinkHeader maps each rel of an RFC 8288 Link header to its URL.
func ParseLinkHeader(linkHeader string) map[string]string {
	links := make(map[string]string)
	for _, link := range strings.Split(linkHeader, ",") {
		segments := strings.Split(strings.TrimSpace(link), ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		target = strings.Trim(target, "<>")

		for _, param := range segments[1:] {
			key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || strings.TrimSpace(key) != "rel" {
				continue
			}
			for _, rel := range strings.Fields(strings.Trim(strings.TrimSpace(value), `"`)) {
				links[rel] = target
			}
		}
	}
	return links
}

// NextPageLink returns the rel="next" URL of a response, if any.
func NextPageLink(header http.Header) (string, bool) {
	next, ok := ParseLinkHeader(header.Get("Link"))["next"]
	return next, ok && next != ""
}
