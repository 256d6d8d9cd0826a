package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already taken")
)

// UserRepository defines the interface for user-related database operations.
// Lookups of an absent user return ErrNotFound; writes that would duplicate
// an e-mail return ErrEmailTaken.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// List returns every user, newest first.
	List(ctx context.Context) ([]entity.User, error)
	Update(ctx context.Context, id int64, patch entity.UserPatch) (*entity.User, error)
	// Delete removes the user and returns the row as it was.
	Delete(ctx context.Context, id int64) (*entity.User, error)
}
