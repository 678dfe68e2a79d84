package preview

import "strings"

// ExtractURLs returns the http(s):// tokens found in text, in order. This is
// a whitespace-delimited token scan, not a full URI grammar; it matches what
// users actually paste into a post.
func ExtractURLs(text string) []string {
	var urls []string
	for _, token := range strings.Fields(text) {
		if strings.HasPrefix(token, "http://") || strings.HasPrefix(token, "https://") {
			urls = append(urls, token)
		}
	}
	return urls
}

// FirstURL returns the first URL token, or "" when text contains none.
func FirstURL(text string) string {
	if urls := ExtractURLs(text); len(urls) > 0 {
		return urls[0]
	}
	return ""
}
