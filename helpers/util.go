package helpers

import (
	"errors"
	"net/url"
	"path"
	"strings"
)

// LastPathSegment returns the final path segment of rawURL, ignoring any
// query string or fragment.
func LastPathSegment(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	segment := path.Base(u.Path)
	if segment == "/" || segment == "." || segment == "" {
		return "", errors.New("url has no path segment")
	}
	return segment, nil
}

// ResolveURL resolves href against base. Absolute hrefs are returned as is.
func ResolveURL(base *url.URL, href string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, err
	}
	return base.ResolveReference(ref), nil
}
