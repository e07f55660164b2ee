package imageurl

import "testing"

func TestImageURLRoundTrip(t *testing.T) {
	r := New("http://localhost:8080/images/", "")

	u := r.ImageURL("P-100", "pages/page 3.png")
	if u != "http://localhost:8080/images/test_embeddings/P-100/pages/page%203.png" {
		t.Fatalf("unexpected url %q", u)
	}

	rel, ok := r.RelativePath("P-100", u)
	if !ok || rel != "pages/page 3.png" {
		t.Fatalf("expected round trip, got %q ok=%v", rel, ok)
	}
}

func TestRelativePathUsesLastMarker(t *testing.T) {
	r := New("http://cdn", "test_embeddings")

	rel, ok := r.RelativePath("P1", "http://cdn/test_embeddings/P1/test_embeddings/P1/a.png?sig=1")
	if !ok || rel != "a.png" {
		t.Fatalf("unexpected relative path %q ok=%v", rel, ok)
	}
}

func TestRelativePathMismatch(t *testing.T) {
	r := New("http://cdn", "corpus")

	cases := []struct {
		project string
		url     string
	}{
		{project: "P1", url: "http://cdn/other/P1/a.png"},
		{project: "P1", url: "http://cdn/corpus/P2/a.png"},
		{project: "P1", url: "http://cdn/corpus/P1/"},
		{project: "", url: "http://cdn/corpus/P1/a.png"},
		{project: "P1", url: ""},
	}
	for _, tc := range cases {
		if rel, ok := r.RelativePath(tc.project, tc.url); ok {
			t.Fatalf("expected no match for %q/%q, got %q", tc.project, tc.url, rel)
		}
	}
}

func TestPrefix(t *testing.T) {
	if got := New("", "/mirror/").Prefix(); got != "/mirror/" {
		t.Fatalf("unexpected prefix %q", got)
	}
}
