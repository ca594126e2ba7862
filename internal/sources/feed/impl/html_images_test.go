package impl

import "testing"

func TestFirstImageFromHTML(t *testing.T) {
	cases := []struct {
		name string
		html string
		base string
		want string
	}{
		{name: "empty", html: "", want: ""},
		{name: "no img", html: "<p>Refit 2021</p>", want: ""},
		{name: "absolute src", html: `<p><img src="https://cdn.example.com/a.jpg"></p>`, want: "https://cdn.example.com/a.jpg"},
		{name: "relative src", html: `<img src="/img/b.jpg">`, base: "https://example.com/ads/7", want: "https://example.com/img/b.jpg"},
		{name: "lazy src", html: `<img data-src="https://cdn.example.com/c.jpg">`, want: "https://cdn.example.com/c.jpg"},
		{name: "data uri skipped", html: `<img src="data:image/png;base64,aGVsbG8="><img src="https://cdn.example.com/d.jpg">`, want: "https://cdn.example.com/d.jpg"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := firstImageFromHTML(tc.html, tc.base); got != tc.want {
				t.Fatalf("firstImageFromHTML() = %q, want %q", got, tc.want)
			}
		})
	}
}
