package model

type Highlight struct {
	ID          string `json:"id"`
	BookmarkID  string `json:"bookmark_id"`
	UserID      string `json:"user_id"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Color       string `json:"color"`
	Text        string `json:"text"`
	Note        string `json:"note"`
	Ctime       int64  `json:"ctime"`
}
