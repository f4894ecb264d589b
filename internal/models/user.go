package models

// User is an operator account. The hash is part of the persisted form; the
// HTTP layer never returns User records, only ids and tokens.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}
