package http

import "testing"

func TestETagMatches(t *testing.T) {
	const etag = `W/"9f2c"`
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`W/"9f2c"`, true},
		{`"9f2c"`, true},
		{`"aaaa", W/"9f2c"`, true},
		{`"aaaa"`, false},
		{"*", true},
	}
	for _, tt := range tests {
		if got := etagMatches(tt.header, etag); got != tt.want {
			t.Errorf("etagMatches(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestCacheControlFor(t *testing.T) {
	tests := map[string]string{
		"/directions":        "public, max-age=600",
		"/v1/directions":     "public, max-age=600",
		"/v1/places":         "public, max-age=300",
		"/v1/search/tiers":   "public, max-age=3600",
		"/v1/light":          "no-cache",
		"/v1/health":         "public, max-age=10",
		"/ws":                "no-cache",
		"/metrics":           "no-cache",
		"/docs/openapi.yaml": "public, max-age=3600",
		"/v1/unknown":        "public, max-age=300",
		"/favicon.ico":       "",
	}
	for path, want := range tests {
		if got := cacheControlFor(path); got != want {
			t.Errorf("cacheControlFor(%q) = %q, want %q", path, got, want)
		}
	}
}
