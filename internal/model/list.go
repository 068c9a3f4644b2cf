package model

const (
	ListTypeManual = "manual"
	ListTypeSmart  = "smart"
)

type List struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Query       string `json:"query"`
	ParentID    string `json:"parent_id"`
	Public      bool   `json:"public"`
	RSSToken    string `json:"-"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}

type ListCollaborator struct {
	ListID string `json:"list_id"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Ctime  int64  `json:"ctime"`
}

type ListInvitation struct {
	ID           string `json:"id"`
	ListID       string `json:"list_id"`
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	Status       int    `json:"status"`
	InvitedEmail string `json:"invited_email"`
	InvitedBy    string `json:"invited_by"`
	InvitedAt    int64  `json:"invited_at"`
}
