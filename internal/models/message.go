package models

const (
	MaxAuthorLength  = 50
	MaxContentLength = 500
)

// Message is a guestbook entry. Messages are never edited, only deleted.
type Message struct {
	ID      int64  `json:"id"`
	Author  string `json:"author"`
	Content string `json:"content"`
}
