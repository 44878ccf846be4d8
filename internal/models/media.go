package models

import "strings"

// MediaKind tells the page whether to render an <img> or a <video>.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaItem is a single photo or video reference
type MediaItem struct {
	ID        int64     `json:"id"`
	Src       string    `json:"src"`
	Alt       string    `json:"alt"`
	Caption   string    `json:"caption,omitempty"`
	Type      MediaKind `json:"type"`
	AlbumName string    `json:"albumName,omitempty"`
}

// KindFromContentType classifies by declared content type: video/* is a
// video, anything else is treated as an image.
func KindFromContentType(contentType string) MediaKind {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "video/") {
		return MediaVideo
	}
	return MediaImage
}

// DefaultCaption is the file name up to its first dot.
func DefaultCaption(fileName string) string {
	name, _, _ := strings.Cut(fileName, ".")
	return name
}
