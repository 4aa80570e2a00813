package usecase

import (
	"strings"

	"github.com/nguyentranbao-ct/storefront-gateway/internal/models"
)

const (
	maxKeywordSuggestions = 4
	iconQuery             = "fa-solid fa-magnifying-glass"
)

var defaultSuggestions = []models.Suggestion{
	{Text: "Laptop", Icon: "fa-solid fa-laptop"},
	{Text: "Smartphone", Icon: "fa-solid fa-mobile-screen"},
	{Text: "Headphones", Icon: "fa-solid fa-headphones"},
	{Text: "Đồng hồ", Icon: "fa-solid fa-clock"},
	{Text: "Loa", Icon: "fa-solid fa-volume-high"},
}

var keywordSuggestions = []models.Suggestion{
	{Text: "laptop", Icon: "fa-solid fa-laptop"},
	{Text: "smartphone", Icon: "fa-solid fa-mobile-screen"},
	{Text: "headphones", Icon: "fa-solid fa-headphones"},
	{Text: "đồng hồ", Icon: "fa-solid fa-clock"},
	{Text: "watch", Icon: "fa-solid fa-clock"},
	{Text: "loa", Icon: "fa-solid fa-volume-high"},
	{Text: "speaker", Icon: "fa-solid fa-volume-high"},
	{Text: "máy tính", Icon: "fa-solid fa-desktop"},
	{Text: "computer", Icon: "fa-solid fa-desktop"},
	{Text: "tablet", Icon: "fa-solid fa-tablet"},
	{Text: "camera", Icon: "fa-solid fa-camera"},
	{Text: "keyboard", Icon: "fa-solid fa-keyboard"},
	{Text: "mouse", Icon: "fa-solid fa-computer-mouse"},
}

// suggest returns the query itself followed by up to four catalogue keywords containing
// it, case-insensitively. A blank query yields the default list.
func suggest(query string) []models.Suggestion {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]models.Suggestion, len(defaultSuggestions))
		copy(out, defaultSuggestions)
		return out
	}

	needle := strings.ToLower(query)
	out := []models.Suggestion{{Text: query, Icon: iconQuery}}
	for _, s := range keywordSuggestions {
		if len(out) > maxKeywordSuggestions {
			break
		}
		if strings.Contains(strings.ToLower(s.Text), needle) {
			out = append(out, s)
		}
	}
	return out
}
