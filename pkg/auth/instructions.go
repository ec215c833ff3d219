package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteTokenGuide prints how to obtain a Reddit OAuth bearer token.
func WriteTokenGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	lines := []string{
		rule,
		"REDDIT ACCESS TOKEN",
		rule,
		"",
		"Without a token, profiles are read from the public about.json endpoint,",
		"which Reddit rate limits aggressively. With a token, requests go to",
		"https://oauth.reddit.com and get a larger budget.",
		"",
		"1. Open https://www.reddit.com/prefs/apps and create a \"script\" app.",
		"   Note the client id (under the app name) and the secret.",
		"",
		"2. Request a token with your account's password grant:",
		"",
		"   curl -X POST -A 'bottagger/1.0 by <you>' \\",
		"     -u '<client id>:<secret>' \\",
		"     -d 'grant_type=password&username=<you>&password=<password>' \\",
		"     https://www.reddit.com/api/v1/access_token",
		"",
		"3. Copy the access_token field from the response and paste it below.",
		"",
		"Tokens expire after about an hour. Run `bottagger auth login` again",
		"with a fresh one when lookups start failing with auth errors.",
		"",
		"Set a descriptive user agent: Reddit blocks generic ones.",
		rule,
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

// QuickTokenHint is the one-line reminder shown at the token prompt.
const QuickTokenHint = "Paste an OAuth bearer token (type 'help' for instructions)"
