package youtube

import "regexp"

// videoIDPattern matches the 11-character video id in watch, embed, shorts
// and youtu.be URL shapes.
var videoIDPattern = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?|shorts)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

// ExtractVideoID returns the video id from a YouTube URL, or "" if the URL
// does not contain one. The dub request itself passes the raw URL through
// verbatim; the id is only used to build an embeddable preview.
func ExtractVideoID(url string) string {
	m := videoIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// EmbedURL returns the embeddable player URL for a video URL, or "" when no
// video id can be extracted.
func EmbedURL(url string) string {
	id := ExtractVideoID(url)
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/embed/" + id
}
