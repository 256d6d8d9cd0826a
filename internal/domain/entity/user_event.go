package entity

import "time"

type UserEventType string

const (
	UserCreated UserEventType = "user.created"
	UserUpdated UserEventType = "user.updated"
	UserDeleted UserEventType = "user.deleted"
)

// UserEvent is published after every successful write to the user store.
type UserEvent struct {
	Type       UserEventType `json:"type"`
	UserID     int64         `json:"user_id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	OccurredAt time.Time     `json:"occurred_at"`
}

func NewUserEvent(t UserEventType, u *User, at time.Time) UserEvent {
	return UserEvent{Type: t, UserID: u.ID, Name: u.Name, Email: u.Email, OccurredAt: at.UTC()}
}
