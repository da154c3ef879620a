package httpds

import (
	"net/url"
	"path"
)

// NameFromURL returns the last path segment of rawURL ("bikes.xlsx" for
// https://host/files/bikes.xlsx?v=2), or rawURL itself when it has none.
func NameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return rawURL
	}
	return path.Base(u.Path)
}
