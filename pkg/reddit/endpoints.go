package reddit

import (
	"net/url"
	"strings"
)

const (
	// BaseURL is the public Reddit host
	BaseURL = "https://www.reddit.com"

	// OAuthBaseURL serves requests carrying a bearer token
	OAuthBaseURL = "https://oauth.reddit.com"

	// DeletedUsername is what Reddit shows in place of a deleted author.
	DeletedUsername = "[deleted]"
)

// ProfileURL builds the about.json URL for username under base.
func ProfileURL(base, username string) string {
	return strings.TrimRight(base, "/") + "/user/" + url.PathEscape(username) + "/about.json"
}

// UserPageURL is the human facing profile page.
func UserPageURL(username string) string {
	if username == "" {
		return ""
	}
	return BaseURL + "/user/" + url.PathEscape(username) + "/"
}

// IsDeleted reports whether username is the deleted account sentinel.
func IsDeleted(username string) bool {
	return username == DeletedUsername
}

// IsValidUsername checks Reddit's username rules: 3 to 20 characters of
// letters, digits, underscores and hyphens.
func IsValidUsername(username string) bool {
	if len(username) < 3 || len(username) > 20 {
		return false
	}
	for _, r := range username {
		if !((r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '_' || r == '-') {
			return false
		}
	}
	return true
}

// SanitizeUsername strips u/ prefixes, a leading @ and surrounding slashes.
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	username = strings.Trim(username, "/")
	for _, prefix := range []string{"u/", "user/"} {
		username = strings.TrimPrefix(username, prefix)
	}
	return strings.Trim(username, "/")
}
