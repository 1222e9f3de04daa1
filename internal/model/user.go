package model

// User is an account. Password holds the credential exactly as submitted.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}
