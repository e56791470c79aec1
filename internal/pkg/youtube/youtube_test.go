package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "watch url",
			url:  "https://www.youtube.com/watch?v=abc12345678",
			want: "abc12345678",
		},
		{
			name: "short url",
			url:  "https://youtu.be/abc12345678",
			want: "abc12345678",
		},
		{
			name: "embed url",
			url:  "https://www.youtube.com/embed/abc12345678",
			want: "abc12345678",
		},
		{
			name: "shorts url",
			url:  "https://www.youtube.com/shorts/abc12345678",
			want: "abc12345678",
		},
		{
			name: "watch url with extra params",
			url:  "https://www.youtube.com/watch?t=42&v=abc12345678&feature=share",
			want: "abc12345678",
		},
		{
			name: "not a youtube url",
			url:  "https://vimeo.com/123456",
			want: "",
		},
		{
			name: "empty",
			url:  "",
			want: "",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ExtractVideoID(tc.url))
		})
	}
}

func TestEmbedURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://www.youtube.com/embed/abc12345678", EmbedURL("https://www.youtube.com/watch?v=abc12345678"))
	assert.Equal(t, "", EmbedURL("https://example.com/watch?v=short"))
}
