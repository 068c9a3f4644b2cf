package model

const (
	ImportStatusPending    = "pending"
	ImportStatusProcessing = "processing"
	ImportStatusCompleted  = "completed"
	ImportStatusFailed     = "failed"
)

type ImportSession struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	RootListID string `json:"root_list_id"`
	Ctime      int64  `json:"ctime"`
}

// ImportBookmark tracks one attached bookmark's background pipeline. The
// session-level status is never stored; it is derived from these rows on read.
type ImportBookmark struct {
	SessionID      string `json:"session_id"`
	BookmarkID     string `json:"bookmark_id"`
	CrawlStatus    string `json:"crawl_status"`
	TaggingStatus  string `json:"tagging_status"`
	IndexingStatus string `json:"indexing_status"`
	Ctime          int64  `json:"ctime"`
}

type ImportSessionStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}
