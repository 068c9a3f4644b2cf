package model

const (
	BackupStatusPending = "pending"
	BackupStatusSuccess = "success"
	BackupStatusFailure = "failure"
)

type Backup struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	AssetID       string `json:"asset_id"`
	Size          int64  `json:"size"`
	BookmarkCount int    `json:"bookmark_count"`
	Status        string `json:"status"`
	ErrorMessage  string `json:"error_message"`
	Ctime         int64  `json:"ctime"`
}
