// Package driveimg turns heterogeneous image references (external URLs, Google Drive
// share links, bare Drive file ids, local asset paths) into a single URL an <img> tag
// can render. Resolution never fails: anything unrecognised becomes the fallback path.
package driveimg

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultFallback is the placeholder served when no image reference can be resolved.
	DefaultFallback = "./public/images/cart_logo.png"

	// DefaultThumbnailSize is the edge length (px) used by ThumbnailURL when size <= 0.
	DefaultThumbnailSize = 200

	exportMarker = "export=view"
	driveHost    = "drive.google.com"
	shareMarker  = driveHost + "/file/d/"
	directMarker = driveHost + "/uc?id="
)

var (
	sharePattern = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
	idParam      = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
	idAlphabet   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	localPrefixes = []string{"./", "../", "/", "public/", "assets/"}
)

type options struct {
	fallback string
}

type Option func(*options)

// WithFallback overrides the placeholder returned for empty or unrecognised sources.
// An empty path keeps the current fallback.
func WithFallback(path string) Option {
	return func(o *options) {
		if path != "" {
			o.fallback = path
		}
	}
}

// Resolver resolves image references against a configured fallback.
type Resolver struct {
	fallback string
}

func NewResolver(fallback string) *Resolver {
	if fallback == "" {
		fallback = DefaultFallback
	}
	return &Resolver{fallback: fallback}
}

func (r *Resolver) Fallback() string {
	return r.fallback
}

// Resolve returns a directly renderable URL for source. The checks run in a fixed order;
// the first one that applies decides the result.
func (r *Resolver) Resolve(source string, opts ...Option) string {
	o := options{fallback: r.fallback}
	for _, opt := range opts {
		opt(&o)
	}
	return resolve(source, o.fallback)
}

// ResolveAll resolves every source. The result has the same length and order as sources;
// unresolvable entries become the fallback instead of being dropped.
func (r *Resolver) ResolveAll(sources []string, opts ...Option) []string {
	out := make([]string, len(sources))
	for i, src := range sources {
		out[i] = r.Resolve(src, opts...)
	}
	return out
}

// ThumbnailURL builds a Drive thumbnail link for a file id.
func (r *Resolver) ThumbnailURL(fileID string, size int) string {
	if fileID == "" {
		return r.fallback
	}
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	return fmt.Sprintf("https://%s/thumbnail?id=%s&sz=s%d", driveHost, fileID, size)
}

func resolve(source, fallback string) string {
	switch {
	case source == "":
		return fallback

	case strings.Contains(source, directMarker) && strings.Contains(source, exportMarker):
		return source

	case strings.Contains(source, shareMarker):
		if m := sharePattern.FindStringSubmatch(source); m != nil {
			return DirectURL(m[1])
		}
	}

	switch {
	case IsDriveID(source):
		return DirectURL(source)
	case strings.Contains(source, directMarker):
		return source + "&" + exportMarker
	case IsLocalPath(source):
		return source
	case strings.HasPrefix(source, "http"):
		return source
	default:
		return fallback
	}
}

// DirectURL synthesizes the view-export URL for a Drive file id.
func DirectURL(fileID string) string {
	return "https://" + directMarker + fileID + "&" + exportMarker
}

// IsDriveID reports whether s looks like a bare Drive file id: 20 to 50 characters of
// [A-Za-z0-9_-], never a URL and never a local path.
func IsDriveID(s string) bool {
	return len(s) >= 20 &&
		len(s) <= 50 &&
		idAlphabet.MatchString(s) &&
		!strings.HasPrefix(s, "http") &&
		!IsLocalPath(s)
}

func IsLocalPath(s string) bool {
	for _, prefix := range localPrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// ExtractID pulls the Drive file id out of a share link, a uc?id= link or a bare id.
func ExtractID(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	if m := sharePattern.FindStringSubmatch(ref); m != nil {
		return m[1], true
	}
	if m := idParam.FindStringSubmatch(ref); m != nil {
		return m[1], true
	}
	if IsDriveID(ref) {
		return ref, true
	}
	return "", false
}
