package models

import "strings"

// Entity is a product or category record as returned by an upstream service.
// Its schema is owned upstream, so fields are kept untyped.
type Entity map[string]any

// Well-known entity fields read or written by the gateway.
const (
	FieldID                = "id"
	FieldChildren          = "children"
	FieldImageURL          = "imageUrl"
	FieldImage             = "image"
	FieldGoogleDriveID     = "googleDriveId"
	FieldImages            = "images"
	FieldVariant           = "variant"
	FieldOptimizedImageURL = "optimizedImageUrl"
	FieldOptimizedImages   = "optimizedImages"
)

// Suggestion is a quick-search entry shown under the storefront search box.
type Suggestion struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

// ValidCategoryID reports whether id can be sent upstream as a category filter. Blank
// values and the literal strings "null" and "undefined" (any case) are rejected.
func ValidCategoryID(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	switch strings.ToLower(id) {
	case "null", "undefined":
		return false
	}
	return true
}

// ResolvedImage is one entry of a batch image resolution.
type ResolvedImage struct {
	Source       string `json:"source"`
	URL          string `json:"url"`
	DriveID      string `json:"driveId,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

type ImageCheck struct {
	URL   string `json:"url"`
	Valid bool   `json:"valid"`
}

type Availability struct {
	Upstream bool `json:"upstream"`
}
