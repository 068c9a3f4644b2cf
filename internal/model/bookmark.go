package model

const (
	BookmarkTypeLink  = "link"
	BookmarkTypeText  = "text"
	BookmarkTypeAsset = "asset"
)

type Bookmark struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	// Title is nullable in storage; nil means the bookmark has none.
	Title      *string `json:"title"`
	URL        string  `json:"url"`
	Type       string  `json:"type"`
	Note       string  `json:"note"`
	Source     string  `json:"source"`
	FeedID     string  `json:"feed_id"`
	Archived   bool    `json:"archived"`
	Favourited bool    `json:"favourited"`
	BrokenLink bool    `json:"broken_link"`
	Ctime      int64   `json:"ctime"`
	Mtime      int64   `json:"mtime"`
}

type Feed struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Ctime  int64  `json:"ctime"`
}
