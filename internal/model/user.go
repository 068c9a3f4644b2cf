package model

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"-"`
	Ctime    int64  `json:"ctime"`
	Mtime    int64  `json:"mtime"`
}
