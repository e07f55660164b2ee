package imageurl

import (
	"net/url"
	"strings"
)

const DefaultRoot = "test_embeddings"

// Resolver builds public image URLs of the form
// {baseURL}/{root}/{projectKey}/{relativePath} and recovers the relative path
// from URLs that follow the same layout.
type Resolver struct {
	baseURL string
	root    string
}

func New(baseURL, root string) *Resolver {
	root = strings.Trim(root, "/")
	if root == "" {
		root = DefaultRoot
	}
	return &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		root:    root,
	}
}

func (r *Resolver) ImageURL(projectKey, relativePath string) string {
	segments := []string{r.baseURL, r.root, escapePath(projectKey), escapePath(strings.TrimLeft(relativePath, "/"))}
	return strings.Join(segments, "/")
}

// RelativePath returns the part of imageURL after the last "{root}/{projectKey}/"
// segment. It reports false when the segment is missing or nothing follows it.
func (r *Resolver) RelativePath(projectKey, imageURL string) (string, bool) {
	if projectKey == "" || imageURL == "" {
		return "", false
	}

	for _, candidate := range []string{imageURL, unescape(imageURL)} {
		marker := r.root + "/" + projectKey + "/"
		idx := strings.LastIndex(candidate, marker)
		if idx < 0 {
			continue
		}
		rel := candidate[idx+len(marker):]
		if cut := strings.IndexAny(rel, "?#"); cut >= 0 {
			rel = rel[:cut]
		}
		rel = unescape(rel)
		if rel == "" {
			return "", false
		}
		return rel, true
	}
	return "", false
}

// Prefix is the URL path prefix served by the local image mirror.
func (r *Resolver) Prefix() string {
	return "/" + r.root + "/"
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func unescape(s string) string {
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}
