package media

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImageURL(t *testing.T) {
	t.Parallel()

	api := NewResolver("", "http://localhost:5212/api/")
	img := NewResolver("https://cdn.example.com//", "http://localhost:5212/api")

	tests := []struct {
		name string
		r    Resolver
		in   string
		want string
	}{
		{"empty", api, "", ""},
		{"absolute", api, "https://x.io/a.png", "https://x.io/a.png"},
		{"data", api, "data:image/png;base64,AAA", "data:image/png;base64,AAA"},
		{"api_base_stripped", api, "/uploads/a.png", "http://localhost:5212/uploads/a.png"},
		{"no_leading_slash", api, "uploads/a.png", "http://localhost:5212/uploads/a.png"},
		{"image_base", img, "//uploads/a.png", "https://cdn.example.com/uploads/a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.r.ImageURL(tt.in))
		})
	}
}
