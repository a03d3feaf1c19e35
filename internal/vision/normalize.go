package vision

import "strings"

// refusalMarkers flag responses where the model explained itself instead of
// naming a gesture. Any of these collapses the response to an empty token.
var refusalMarkers = []string{
	"can't",
	"cannot",
	"i'm sorry",
	"i am sorry",
	"sorry",
	"unable to",
	"no gesture",
	"not clear",
	"unclear",
	"i don't",
	"as an ai",
}

// normalizeToken reduces a raw model response to a clean transcript token.
// Anything that does not look like a single letter or short word becomes the
// empty token.
func normalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	token = strings.Trim(token, "\"'`")
	token = strings.TrimRight(token, ".,!?;:")
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}

	lower := strings.ToLower(token)
	for _, marker := range refusalMarkers {
		if strings.Contains(lower, marker) {
			return ""
		}
	}

	if len(strings.Fields(token)) > 3 {
		return ""
	}
	return token
}
