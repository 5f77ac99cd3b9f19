package stash

import (
	"net/url"
	"strings"
)

// WebURL returns the catalog web page for an entity, for example
// http://host:9999/scenes/42. It returns "" when endpoint or id is blank or
// endpoint is not an absolute URL. A trailing /graphql on the endpoint path
// is ignored, as are its query and fragment.
func WebURL(endpoint string, kind EntityKind, id string) string {
	id = strings.TrimSpace(id)
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" || id == "" {
		return ""
	}
	u, err := url.Parse(endpoint)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ""
	}

	prefix := strings.TrimSuffix(strings.TrimRight(u.EscapedPath(), "/"), "/graphql")
	segment := "/" + string(kind) + "s/"
	out := url.URL{Scheme: u.Scheme, User: u.User, Host: u.Host}
	out.RawPath = prefix + segment + url.PathEscape(id)
	unescaped, err := url.PathUnescape(prefix)
	if err != nil {
		return ""
	}
	out.Path = unescaped + segment + id
	return out.String()
}
