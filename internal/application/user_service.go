package application

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	repo "github.com/oksasatya/go-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-user-admin/pkg/apperror"
)

const (
	MsgFieldsRequired = "All fields are required"
	MsgUserExists     = "User already exists"
	MsgUserNotFound   = "User not found"
	MsgNoFields       = "No fields to update"
	MsgInvalidUser    = "Invalid user data"
)

var fieldCheck = validator.New()

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
}

// UpdateUserInput holds the fields supplied by the client.
// Nil and empty values both mean "leave unchanged".
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
}

func (s *Service) ListUsers(ctx context.Context) ([]entity.User, error) {
	users, err := s.Repo.List(ctx)
	if err != nil {
		return nil, apperror.Internal("Error retrieving users", err)
	}
	return users, nil
}

func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if missing := missingFields(in); len(missing) > 0 {
		return nil, apperror.Validation(MsgFieldsRequired, missing)
	}

	_, err := s.Repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, apperror.Conflict(MsgUserExists)
	case !errors.Is(err, repo.ErrNotFound):
		return nil, apperror.Internal("Error creating user", err)
	}

	digest, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Internal("Error creating user", err)
	}

	u := &entity.User{Name: in.Name, Email: in.Email, PasswordHash: digest}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return nil, apperror.Conflict(MsgUserExists)
		}
		return nil, apperror.Internal("Error creating user", err)
	}

	s.Logger.WithField("user_id", u.ID).Info("user created")
	s.publish(ctx, entity.UserCreated, u)
	return u, nil
}

func missingFields(in CreateUserInput) map[string]string {
	out := map[string]string{}
	if in.Name == "" {
		out["name"] = "is required"
	}
	if in.Email == "" {
		out["email"] = "is required"
	}
	if in.Password == "" {
		out["password"] = "is required"
	}
	return out
}

func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*entity.User, error) {
	if _, err := s.Repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperror.NotFound(MsgUserNotFound)
		}
		return nil, apperror.Internal("Error updating user", err)
	}

	var patch entity.UserPatch
	if v := supplied(in.Name); v != nil {
		patch.Name = v
	}
	if v := supplied(in.Email); v != nil {
		if err := fieldCheck.Var(*v, "email"); err != nil {
			return nil, apperror.Validation(MsgInvalidUser, map[string]string{"email": "must be a valid email"})
		}
		patch.Email = v
	}
	if in.Password != nil && *in.Password != "" {
		digest, err := s.Hasher.Hash(*in.Password)
		if err != nil {
			return nil, apperror.Internal("Error updating user", err)
		}
		patch.PasswordHash = &digest
	}
	if patch.Empty() {
		return nil, apperror.Validation(MsgNoFields, nil)
	}

	u, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, apperror.NotFound(MsgUserNotFound)
		case errors.Is(err, repo.ErrEmailTaken):
			return nil, apperror.Conflict(MsgUserExists)
		}
		return nil, apperror.Internal("Error updating user", err)
	}

	s.Logger.WithField("user_id", u.ID).Info("user updated")
	s.publish(ctx, entity.UserUpdated, u)
	return u, nil
}

func supplied(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	u, err := s.Repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperror.NotFound(MsgUserNotFound)
		}
		return apperror.Internal("Error deleting user", err)
	}

	s.Logger.WithField("user_id", u.ID).Info("user deleted")
	s.publish(ctx, entity.UserDeleted, u)
	return nil
}

// SearchUsers queries the search mirror; without one it finds nothing.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]entity.User, error) {
	if s.Search == nil {
		return []entity.User{}, nil
	}
	users, err := s.Search.Search(ctx, q, size)
	if err != nil {
		return nil, apperror.Internal("Error searching users", err)
	}
	return users, nil
}
