package placeholder

import "strings"

// StripVersionAlias removes a static-content version segment from a
// filesystem path.
//
// Deployed static assets are served from URLs such as
// /static/version1712345678/frontend/Theme/en_US/img/a.png while the file
// lives at /static/frontend/Theme/en_US/img/a.png. Everything from the first
// "/version" up to the first "/frontend" is dropped. Paths without both
// markers are returned unchanged.
func StripVersionAlias(path string) string {
	v := strings.Index(path, "/version")
	if v < 0 {
		return path
	}
	f := strings.Index(path, "/frontend")
	if f < 0 {
		return path
	}
	return path[:v] + path[f:]
}
