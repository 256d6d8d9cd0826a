package entity

import (
	"time"
)

// User is the stored credential record.
// PasswordHash holds the bcrypt digest and never leaves the process.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// UserPatch is a partial update. Nil fields are left unchanged.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil
}
