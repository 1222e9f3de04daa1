package model

type Note struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Body   string `json:"note"`
}
