package model

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	DisplayName  string    `db:"display_name" json:"displayName"`
	APITokenHash string    `db:"api_token_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// UserConnection is a directed contact request between two users. The pair
// counts as approved contacts when a row in either direction has status
// approved.
type UserConnection struct {
	ID         string           `db:"id" json:"id"`
	FromUserID string           `db:"from_user_id" json:"fromUserId"`
	ToUserID   string           `db:"to_user_id" json:"toUserId"`
	Status     ConnectionStatus `db:"status" json:"status"`
	CreatedAt  time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updatedAt"`
}
